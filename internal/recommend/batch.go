// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package recommend

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/mpdrec/internal/dataset"
	"github.com/tomtom215/mpdrec/internal/logging"
	"github.com/tomtom215/mpdrec/internal/metrics"
)

// Recommendation is the list generated for one held-out playlist.
type Recommendation struct {
	PID       string
	Tracks    []string
	Underflow bool
}

// BatchStats summarises a batch run.
type BatchStats struct {
	Playlists  int
	Underflows int
	K          int
	Duration   time.Duration
}

// Batch generates recommendations for many playlists.
type Batch struct {
	Generator *Generator
	K         int
	// Workers bounds the number of playlists processed concurrently.
	Workers int
}

// Run recommends for every playlist, seeding each with its own tracks.
// Results keep input order.
func (b *Batch) Run(ctx context.Context, playlists []dataset.Playlist) ([]Recommendation, *BatchStats, error) {
	start := time.Now()
	k := b.K
	if k <= 0 {
		k = DefaultK
	}
	workers := b.Workers
	if workers <= 0 {
		workers = 1
	}

	out := make([]Recommendation, len(playlists))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range playlists {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := playlists[i]
			res := b.Generator.Recommend(p.TrackSet(), k)
			out[i] = Recommendation{PID: p.PID, Tracks: res.Tracks, Underflow: res.Underflow}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	stats := &BatchStats{Playlists: len(out), K: k}
	log := logging.Ctx(ctx)
	for _, rec := range out {
		metrics.RecordRecommendation(rec.Underflow)
		if rec.Underflow {
			stats.Underflows++
			log.Warn().
				Err(&UnderflowError{PID: rec.PID, Want: k, Got: len(rec.Tracks)}).
				Msg("Short recommendation list")
		}
	}
	stats.Duration = time.Since(start)

	log.Info().
		Int("playlists", stats.Playlists).
		Int("k", k).
		Int("underflows", stats.Underflows).
		Int("candidates", b.Generator.Candidates()).
		Int("ranked", b.Generator.Ranked()).
		Dur("duration", stats.Duration).
		Msg("Recommendations generated")

	return out, stats, nil
}
