// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/tomtom215/mpdrec/internal/dataset"
	"github.com/tomtom215/mpdrec/internal/popularity"
	"github.com/tomtom215/mpdrec/internal/registry"
)

func set(ids ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// rankedGenerator builds a generator whose ranking is ranked, in order.
func rankedGenerator(t *testing.T, pool int, ranked ...string) *Generator {
	t.Helper()
	tracks := registry.WithCapacity(len(ranked))
	ranking := &popularity.Ranking{
		Indices: make([]int32, len(ranked)),
		Counts:  make([]int64, len(ranked)),
	}
	for i, uri := range ranked {
		idx, _ := tracks.Register(uri)
		ranking.Indices[i] = int32(idx)
		ranking.Counts[i] = int64(len(ranked) - i)
	}
	g, err := NewGenerator(ranking, tracks, pool)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return g
}

func TestGenerator_Recommend(t *testing.T) {
	// Ranking from the small corpus {a,b,c}, {b,c,d}: b, c, a, d.
	g := rankedGenerator(t, 0, "b", "c", "a", "d")

	tests := []struct {
		name          string
		seeds         map[string]struct{}
		k             int
		want          []string
		wantUnderflow bool
	}{
		{"skips seed", set("b"), 2, []string{"c", "a"}, false},
		{"no seeds", nil, 3, []string{"b", "c", "a"}, false},
		{"exact fit", set("a"), 3, []string{"b", "c", "d"}, false},
		{"underflow", set("b", "c"), 5, []string{"a", "d"}, true},
		{"all seeded", set("a", "b", "c", "d"), 1, []string{}, true},
		{"seed not in ranking", set("zzz"), 2, []string{"b", "c"}, false},
		{"zero k", nil, 0, []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Recommend(tt.seeds, tt.k)
			if !slices.Equal(got.Tracks, tt.want) {
				t.Errorf("Recommend() = %v, want %v", got.Tracks, tt.want)
			}
			if got.Underflow != tt.wantUnderflow {
				t.Errorf("Underflow = %v, want %v", got.Underflow, tt.wantUnderflow)
			}
		})
	}
}

func TestGenerator_ExclusionAndLength(t *testing.T) {
	ranked := make([]string, 1200)
	for i := range ranked {
		ranked[i] = fmt.Sprintf("spotify:track:%04d", i)
	}
	g := rankedGenerator(t, 0, ranked...)
	seeds := set(ranked[0], ranked[10], ranked[499], ranked[700])

	got := g.Recommend(seeds, DefaultK)
	if len(got.Tracks) != DefaultK || got.Underflow {
		t.Fatalf("len = %d underflow = %v, want %d false", len(got.Tracks), got.Underflow, DefaultK)
	}

	seen := make(map[string]bool, len(got.Tracks))
	for _, uri := range got.Tracks {
		if _, isSeed := seeds[uri]; isSeed {
			t.Errorf("seed %s recommended", uri)
		}
		if seen[uri] {
			t.Errorf("duplicate %s", uri)
		}
		seen[uri] = true
	}
	if got.Tracks[0] != ranked[1] {
		t.Errorf("first = %s, want %s", got.Tracks[0], ranked[1])
	}
}

func TestNewGenerator(t *testing.T) {
	tracks := registry.New()
	for _, k := range []string{"a", "b", "c"} {
		tracks.Register(k)
	}
	ranking := &popularity.Ranking{Indices: []int32{2, 0, 1}, Counts: []int64{5, 3, 1}}

	tests := []struct {
		name string
		pool int
		want int
	}{
		{"full ranking", 0, 3},
		{"bounded pool", 2, 2},
		{"pool larger than ranking", 2000, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(ranking, tracks, tt.pool)
			if err != nil {
				t.Fatalf("NewGenerator() error = %v", err)
			}
			if g.Candidates() != tt.want {
				t.Errorf("Candidates() = %d, want %d", g.Candidates(), tt.want)
			}
			if first := g.Recommend(nil, 1).Tracks[0]; first != "c" {
				t.Errorf("top track = %s, want c", first)
			}
		})
	}

	// An unknown index is caught even when it lies past the pool.
	bad := &popularity.Ranking{Indices: []int32{2, 7}, Counts: []int64{5, 1}}
	for _, pool := range []int{0, 1} {
		if _, err := NewGenerator(bad, tracks, pool); !errors.Is(err, ErrRegistryMismatch) {
			t.Errorf("NewGenerator(bad, pool %d) error = %v, want ErrRegistryMismatch", pool, err)
		}
	}
}

func TestGenerator_PoolFallsThroughToRanking(t *testing.T) {
	ranked := make([]string, 2600)
	for i := range ranked {
		ranked[i] = fmt.Sprintf("spotify:track:%04d", i)
	}
	seeds := set(ranked[:1600]...)

	tests := []struct {
		name string
		pool int
	}{
		{"pool smaller than seeds plus k", 2000},
		{"pool covered by seeds", 1600},
		{"pool of one", 1},
		{"full ranking", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := rankedGenerator(t, tt.pool, ranked...)
			if g.Ranked() != len(ranked) {
				t.Errorf("Ranked() = %d, want %d", g.Ranked(), len(ranked))
			}

			got := g.Recommend(seeds, DefaultK)
			if got.Underflow {
				t.Errorf("Underflow = true with %d non-seed tracks ranked", len(ranked)-len(seeds))
			}
			if !slices.Equal(got.Tracks, ranked[1600:1600+DefaultK]) {
				t.Errorf("Recommend() = %d tracks starting %v, want ranked[1600:2100]", len(got.Tracks), got.Tracks[:min(3, len(got.Tracks))])
			}

			// Underflow only once the whole ranking is exhausted.
			short := g.Recommend(seeds, 1001)
			if !short.Underflow || len(short.Tracks) != 1000 {
				t.Errorf("Recommend(k=1001) = %d tracks underflow %v, want 1000 true", len(short.Tracks), short.Underflow)
			}
		})
	}
}

func TestUnderflowError(t *testing.T) {
	err := error(&UnderflowError{PID: "9", Want: 500, Got: 12})
	if !errors.Is(err, ErrUnderflow) {
		t.Error("UnderflowError does not match ErrUnderflow")
	}
	if err.Error() != "recommendation underflow: playlist 9 got 12 of 500 tracks" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestBatch_Run(t *testing.T) {
	g := rankedGenerator(t, 0, "t1", "t2", "t3", "t4", "t5")
	playlists := make([]dataset.Playlist, 50)
	for i := range playlists {
		playlists[i] = dataset.Playlist{PID: fmt.Sprint(1000 + i), Tracks: []string{"t1"}}
	}
	playlists[7].Tracks = []string{"t1", "t2", "t3"}

	b := &Batch{Generator: g, K: 3, Workers: 4}
	recs, stats, err := b.Run(context.Background(), playlists)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(recs) != len(playlists) {
		t.Fatalf("len(recs) = %d, want %d", len(recs), len(playlists))
	}
	for i, rec := range recs {
		if rec.PID != playlists[i].PID {
			t.Fatalf("recs[%d].PID = %s, want %s (order not preserved)", i, rec.PID, playlists[i].PID)
		}
	}
	if !slices.Equal(recs[0].Tracks, []string{"t2", "t3", "t4"}) {
		t.Errorf("recs[0] = %v", recs[0].Tracks)
	}
	if !recs[7].Underflow || !slices.Equal(recs[7].Tracks, []string{"t4", "t5"}) {
		t.Errorf("recs[7] = %+v, want underflow [t4 t5]", recs[7])
	}
	if stats.Underflows != 1 || stats.Playlists != 50 || stats.K != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestBatch_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := &Batch{Generator: rankedGenerator(t, 0, "a"), K: 1, Workers: 2}
	_, _, err := b.Run(ctx, []dataset.Playlist{{PID: "1"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
