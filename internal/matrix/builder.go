// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

// Package matrix turns a stream of playlist records into a playlist x track
// interaction matrix.
//
// Records are folded into two registries (playlists, tracks), a per-track
// occurrence counter and a pair of int32 coordinate buffers. The CSR matrix
// is built once from the buffers when the stream ends, collapsing repeated
// (playlist, track) pairs.
//
// A playlist id seen twice maps to the same row and its tracks are merged.
// This is counted in BuildStats.RepeatedPlaylists and logged, never rejected.
//
// Two popularity counts come out of a build. The occurrence counter
// (Dataset.Frequency, persisted as popular_tracks.json) counts every entry,
// repeats inside a playlist included. The matrix column sums count distinct
// playlists and are what recommendations are ranked by. The two orders
// differ when a playlist repeats a track.
package matrix

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tomtom215/mpdrec/internal/dataset"
	"github.com/tomtom215/mpdrec/internal/logging"
	"github.com/tomtom215/mpdrec/internal/metrics"
	"github.com/tomtom215/mpdrec/internal/registry"
	"github.com/tomtom215/mpdrec/internal/sparse"
)

// ErrTooLarge is returned when an index no longer fits the int32 coordinate buffers.
var ErrTooLarge = errors.New("dataset exceeds int32 index range")

// Options controls a build.
type Options struct {
	// Workers is the number of shards decoded concurrently. Values <= 1
	// stream shards sequentially.
	Workers int

	// ProgressShards logs progress every N shards.
	ProgressShards int

	// ProgressInterval also logs progress when this much time has passed.
	ProgressInterval time.Duration
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Workers:          1,
		ProgressShards:   100,
		ProgressInterval: 30 * time.Second,
	}
}

// Builder accumulates records. It is not safe for concurrent use: shard
// decoding may run in parallel but records must be added from one goroutine,
// in shard order, for indices to be reproducible.
type Builder struct {
	tracks    *registry.Registry
	playlists *registry.Registry
	rows      []int32
	cols      []int32
	freq      []int64
	stats     BuildStats
	log       zerolog.Logger
}

// PlaylistsPerShard is the size of one Million Playlist Dataset slice file.
// Build uses it to size the registries up front.
const PlaylistsPerShard = 1000

// NewBuilder returns an empty builder with registries sized for about
// sizeHint playlists and as many distinct tracks.
func NewBuilder(sizeHint int) *Builder {
	return &Builder{
		tracks:    registry.WithCapacity(sizeHint),
		playlists: registry.WithCapacity(sizeHint),
		stats:     BuildStats{StartTime: time.Now()},
		log:       logging.WithComponent("matrix"),
	}
}

// Add folds one playlist record into the builder.
func (b *Builder) Add(p dataset.Playlist) error {
	pIdx, isNew := b.playlists.Register(p.PID)
	if pIdx > math.MaxInt32 {
		return fmt.Errorf("playlist %s: %w", p.PID, ErrTooLarge)
	}

	b.stats.Records++
	if !isNew {
		b.stats.RepeatedPlaylists++
		b.log.Warn().Str("pid", p.PID).Int("row", pIdx).Msg("Repeated playlist id merged into existing row")
	}
	if len(p.Tracks) == 0 {
		b.stats.EmptyPlaylists++
	}

	for _, uri := range p.Tracks {
		tIdx, _ := b.tracks.Register(uri)
		if tIdx > math.MaxInt32 {
			return fmt.Errorf("track %s: %w", uri, ErrTooLarge)
		}
		if tIdx == len(b.freq) {
			b.freq = append(b.freq, 0)
		}
		b.freq[tIdx]++
		b.rows = append(b.rows, int32(pIdx))
		b.cols = append(b.cols, int32(tIdx))
	}
	b.stats.TrackOccurrences += int64(len(p.Tracks))

	metrics.RecordPlaylist(!isNew, len(p.Tracks))
	return nil
}

// Finish builds the CSR matrix and freezes the registries. The builder must
// not be used afterwards.
func (b *Builder) Finish() (*Dataset, *BuildStats, error) {
	m, err := sparse.FromCOO(b.playlists.Len(), b.tracks.Len(), b.rows, b.cols)
	if err != nil {
		return nil, nil, fmt.Errorf("build csr: %w", err)
	}
	b.rows, b.cols = nil, nil

	b.tracks.Freeze()
	b.playlists.Freeze()
	b.stats.EndTime = time.Now()

	rows, cols := m.Dims()
	metrics.SetMatrixShape(rows, cols, m.NNZ())

	stats := b.stats
	return &Dataset{
		Matrix:    m,
		Tracks:    b.tracks,
		Playlists: b.playlists,
		Frequency: b.freq,
	}, &stats, nil
}

// Build reads every shard of src and returns the dataset.
func Build(ctx context.Context, src dataset.Source, opts Options) (*Dataset, *BuildStats, error) {
	if opts.ProgressShards <= 0 {
		opts.ProgressShards = DefaultOptions().ProgressShards
	}

	shards, err := src.Shards()
	if err != nil {
		return nil, nil, fmt.Errorf("list shards: %w", err)
	}

	b := NewBuilder(len(shards) * PlaylistsPerShard)
	b.stats.Source = src.Name()
	b.stats.TotalShards = len(shards)

	log := logging.Ctx(ctx)
	log.Info().
		Str("source", src.Name()).
		Int("shards", len(shards)).
		Int("workers", opts.Workers).
		Msg("Building interaction matrix")

	progress := &rate.Sometimes{First: 1, Every: opts.ProgressShards, Interval: opts.ProgressInterval}
	afterShard := func() {
		b.stats.Shards++
		metrics.ShardsIngested.Inc()
		progress.Do(func() {
			log.Info().
				Int("shard", b.stats.Shards).
				Int("total_shards", b.stats.TotalShards).
				Float64("progress_percent", b.stats.Progress()).
				Int64("records", b.stats.Records).
				Int("unique_tracks", b.tracks.Len()).
				Float64("records_per_second", b.stats.RecordsPerSecond()).
				Msg("Build progress")
		})
	}

	if opts.Workers <= 1 {
		err = buildSequential(ctx, b, shards, afterShard)
	} else {
		err = buildParallel(ctx, b, shards, opts.Workers, afterShard)
	}
	if err != nil {
		if errors.Is(err, dataset.ErrMalformedRecord) {
			metrics.MalformedRecords.Inc()
		}
		return nil, nil, err
	}

	ds, stats, err := b.Finish()
	if err != nil {
		return nil, nil, err
	}

	rows, cols := ds.Matrix.Dims()
	log.Info().
		Int("playlists", rows).
		Int("unique_tracks", cols).
		Int("nnz", ds.Matrix.NNZ()).
		Float64("density_percent", ds.Matrix.Density()*100).
		Int64("repeated_playlists", stats.RepeatedPlaylists).
		Dur("duration", stats.Duration()).
		Msg("Interaction matrix built")

	return ds, stats, nil
}

func buildSequential(ctx context.Context, b *Builder, shards []dataset.Shard, afterShard func()) error {
	for _, s := range shards {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Decode(ctx, b.Add); err != nil {
			return err
		}
		afterShard()
	}
	return nil
}

// buildParallel decodes up to workers shards at a time and folds each batch
// into the builder in shard order, so indices match a sequential build.
func buildParallel(ctx context.Context, b *Builder, shards []dataset.Shard, workers int, afterShard func()) error {
	for start := 0; start < len(shards); start += workers {
		end := min(start+workers, len(shards))
		batch := make([][]dataset.Playlist, end-start)

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				pls, err := shards[i].ReadAll(gctx)
				if err != nil {
					return err
				}
				batch[i-start] = pls
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, pls := range batch {
			for _, p := range pls {
				if err := b.Add(p); err != nil {
					return err
				}
			}
			afterShard()
		}
	}
	return nil
}
