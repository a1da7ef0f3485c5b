// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package results

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/mpdrec/internal/evaluate"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func report(runID string, started time.Time) *evaluate.Report {
	return &evaluate.Report{
		RunID:     runID,
		Scored:    2,
		Mean:      evaluate.Scores{RPrecision: 0.5, NDCG: 0.5, Clicks: 25.5},
		StdDev:    evaluate.Scores{Clicks: 35.35},
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
		Playlists: []evaluate.PlaylistScore{
			{PID: "2", Predicted: 500, TruthSize: 10, Scores: evaluate.Scores{Clicks: 51}},
			{PID: "1", Predicted: 500, TruthSize: 5, Scores: evaluate.Scores{RPrecision: 1, NDCG: 1}},
		},
	}
}

func TestExport_RoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	started := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := s.Export(ctx, report("run-a", started), "baseline"); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	runs, err := s.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Runs() returned %d rows, want 1", len(runs))
	}
	r := runs[0]
	if r.RunID != "run-a" || r.Label != "baseline" || r.Scored != 2 {
		t.Errorf("run = %+v", r)
	}
	if r.Mean.Clicks != 25.5 || r.StdDev.Clicks != 35.35 {
		t.Errorf("scores = %+v / %+v", r.Mean, r.StdDev)
	}
	if !r.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", r.StartedAt, started)
	}
	if r.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v", r.Duration)
	}

	scores, err := s.PlaylistScores(ctx, "run-a")
	if err != nil {
		t.Fatalf("PlaylistScores() error = %v", err)
	}
	if len(scores) != 2 || scores[0].PID != "1" || scores[1].Clicks != 51 {
		t.Errorf("PlaylistScores() = %+v", scores)
	}

	worst, err := s.Worst(ctx, "run-a", 1)
	if err != nil {
		t.Fatalf("Worst() error = %v", err)
	}
	if len(worst) != 1 || worst[0].PID != "2" {
		t.Errorf("Worst() = %+v", worst)
	}
}

func TestExport_ReplacesRun(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.Export(ctx, report("dup", now), "first"); err != nil {
		t.Fatal(err)
	}
	rep := report("dup", now)
	rep.Playlists = rep.Playlists[:1]
	if err := s.Export(ctx, rep, "second"); err != nil {
		t.Fatalf("second Export() error = %v", err)
	}

	runs, err := s.Runs(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Label != "second" {
		t.Errorf("Runs() = %+v, want only the second export", runs)
	}
	scores, err := s.PlaylistScores(ctx, "dup")
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 1 {
		t.Errorf("PlaylistScores() returned %d rows, want 1", len(scores))
	}
}

func TestRuns_NewestFirstWithLimit(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		if err := s.Export(ctx, report(id, base.Add(time.Duration(i)*time.Hour)), ""); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"all", 0, []string{"new", "mid", "old"}},
		{"two", 2, []string{"new", "mid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.Runs(ctx, tt.limit)
			if err != nil {
				t.Fatal(err)
			}
			if len(runs) != len(tt.want) {
				t.Fatalf("Runs() returned %d rows, want %d", len(runs), len(tt.want))
			}
			for i, id := range tt.want {
				if runs[i].RunID != id {
					t.Errorf("Runs()[%d] = %s, want %s", i, runs[i].RunID, id)
				}
			}
		})
	}
}

func TestExport_RequiresRunID(t *testing.T) {
	s := openTest(t)
	if err := s.Export(context.Background(), &evaluate.Report{}, ""); !errors.Is(err, ErrNoRunID) {
		t.Errorf("Export() error = %v, want ErrNoRunID", err)
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.duckdb")
	ctx := context.Background()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Export(ctx, report("persisted", time.Now().UTC()), ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	runs, err := s.Runs(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].RunID != "persisted" {
		t.Errorf("Runs() after reopen = %+v", runs)
	}
}
