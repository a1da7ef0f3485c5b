// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/mpdrec/internal/artifacts"
	"github.com/tomtom215/mpdrec/internal/config"
	"github.com/tomtom215/mpdrec/internal/dataset"
	"github.com/tomtom215/mpdrec/internal/history"
	"github.com/tomtom215/mpdrec/internal/logging"
	"github.com/tomtom215/mpdrec/internal/matrix"
	"github.com/tomtom215/mpdrec/internal/metrics"
	"github.com/tomtom215/mpdrec/internal/popularity"
	"github.com/tomtom215/mpdrec/internal/results"
)

// Stage names, as recorded in metrics and the history ledger.
const (
	StageBuild     = "build"
	StageRecommend = "recommend"
	StageVerify    = "verify"
	StageEvaluate  = "evaluate"
)

// ErrHistoryDisabled is returned by history queries when the ledger is off.
var ErrHistoryDisabled = errors.New("run history is disabled")

// ErrResultsDisabled is returned by results queries when the export is off.
var ErrResultsDisabled = errors.New("results export is disabled")

// Pipeline runs the stages against one configuration.
type Pipeline struct {
	cfg     *config.Config
	store   *artifacts.Store
	ledger  *history.Ledger
	results *results.Store
	out     io.Writer

	// loaded is the last built or loaded dataset; ranker caches its ranking.
	loaded    *matrix.Dataset
	ranker    popularity.Ranker
	testInput []dataset.Playlist
}

// New opens the artifact store and, when enabled, the history ledger and the
// results database. Human-readable reports are written to out.
func New(ctx context.Context, cfg *config.Config, out io.Writer) (*Pipeline, error) {
	store, err := artifacts.Open(cfg.Paths.ProcessedDir)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: cfg, store: store, out: out}

	if cfg.History.Enabled {
		ledger, err := history.Open(cfg.History.Dir)
		if err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
		p.ledger = ledger
	}

	if cfg.Results.Enabled {
		rs, err := results.Open(ctx, cfg.Results.Path)
		if err != nil {
			if p.ledger != nil {
				_ = p.ledger.Close()
			}
			return nil, fmt.Errorf("open results database: %w", err)
		}
		p.results = rs
	}

	return p, nil
}

// Close releases the ledger and the results database. It is safe to call
// more than once.
func (p *Pipeline) Close() error {
	var errs []error
	if p.ledger != nil {
		errs = append(errs, p.ledger.Close())
		p.ledger = nil
	}
	if p.results != nil {
		errs = append(errs, p.results.Close())
		p.results = nil
	}
	return errors.Join(errs...)
}

// Store returns the artifact store.
func (p *Pipeline) Store() *artifacts.Store {
	return p.store
}

// stage runs fn as a named stage: it tags the context, times the stage,
// records metrics and appends the outcome to the ledger. A ledger failure is
// logged and does not fail the stage.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context, *history.Record) error) error {
	if logging.RunIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewRunID(ctx)
	}
	ctx = logging.ContextWithStage(ctx, name)
	log := logging.Ctx(ctx)

	rec := &history.Record{
		RunID:     logging.RunIDFromContext(ctx),
		Stage:     name,
		StartedAt: time.Now(),
		Counts:    make(map[string]int64),
	}
	log.Info().Msg("Stage started")

	err := fn(ctx, rec)
	rec.Duration = time.Since(rec.StartedAt)
	metrics.RecordStage(name, rec.Duration, err)

	rec.Status = history.StatusOK
	if err != nil {
		rec.Status = history.StatusFailed
		rec.Error = err.Error()
	}
	if p.ledger != nil {
		// Cancelled stages are still recorded.
		if lerr := p.ledger.Append(context.WithoutCancel(ctx), rec); lerr != nil {
			log.Warn().Err(lerr).Msg("Failed to record stage in run history")
		}
	}

	if err != nil {
		log.Error().Err(err).Dur("duration", rec.Duration).Msg("Stage failed")
		return err
	}
	log.Info().Dur("duration", rec.Duration).Msg("Stage complete")
	return nil
}

// loadDataset returns the dataset of an earlier Build or load in this
// pipeline, reading the saved artifacts the first time.
func (p *Pipeline) loadDataset(ctx context.Context) (*matrix.Dataset, error) {
	if p.loaded != nil {
		return p.loaded, nil
	}
	d, err := p.store.LoadDataset(ctx)
	if err != nil {
		return nil, err
	}
	p.loaded = d
	return d, nil
}

// CheckArtifacts recomputes the checksum of every artifact listed in the
// store manifest and returns the manifest.
func (p *Pipeline) CheckArtifacts(ctx context.Context) (*artifacts.Manifest, error) {
	m, err := p.store.Manifest()
	if err != nil {
		return nil, err
	}
	if err := p.store.Verify(); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().
		Str("dir", p.store.Dir()).
		Int("artifacts", len(m.Entries)).
		Str("built_by", m.RunID).
		Msg("Artifacts verified")
	return m, nil
}

// loadTestInput reads the seed playlists once per pipeline.
func (p *Pipeline) loadTestInput(ctx context.Context) ([]dataset.Playlist, error) {
	if p.testInput != nil {
		return p.testInput, nil
	}
	pls, err := dataset.LoadEntry(ctx, p.cfg.Paths.TestArchive, p.cfg.Paths.TestInputEntry)
	if err != nil {
		return nil, fmt.Errorf("load test playlists: %w", err)
	}
	p.testInput = pls
	return pls, nil
}
