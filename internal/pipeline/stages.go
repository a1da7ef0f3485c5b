// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mpdrec/internal/artifacts"
	"github.com/tomtom215/mpdrec/internal/dataset"
	"github.com/tomtom215/mpdrec/internal/evaluate"
	"github.com/tomtom215/mpdrec/internal/history"
	"github.com/tomtom215/mpdrec/internal/logging"
	"github.com/tomtom215/mpdrec/internal/matrix"
	"github.com/tomtom215/mpdrec/internal/recommend"
	"github.com/tomtom215/mpdrec/internal/submission"
)

// VerificationError reports a submission that broke one or more rules.
type VerificationError struct {
	Issues int
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("submission failed verification with %d issues", e.Issues)
}

// ErrorType names the error for metrics.
func (e *VerificationError) ErrorType() string {
	return "verification_failed"
}

// Build ingests the training corpus and saves every artifact.
func (p *Pipeline) Build(ctx context.Context) (*matrix.Dataset, error) {
	var d *matrix.Dataset
	err := p.stage(ctx, StageBuild, func(ctx context.Context, rec *history.Record) error {
		src, err := dataset.Open(p.cfg.Paths.Train, p.cfg.Paths.TrainEntries...)
		if err != nil {
			return err
		}
		defer src.Close()

		built, stats, err := matrix.Build(ctx, src, matrix.Options{
			Workers:          p.cfg.Build.Workers,
			ProgressShards:   p.cfg.Build.ProgressShards,
			ProgressInterval: p.cfg.Build.ProgressInterval,
		})
		if err != nil {
			return err
		}
		if _, err := p.store.SaveDataset(ctx, built, stats); err != nil {
			return err
		}

		rows, cols := built.Matrix.Dims()
		rec.Counts["shards"] = int64(stats.Shards)
		rec.Counts["records"] = stats.Records
		rec.Counts["playlists"] = int64(rows)
		rec.Counts["tracks"] = int64(cols)
		rec.Counts["nnz"] = int64(built.Matrix.NNZ())
		d = built
		p.loaded = built
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Recommend writes the submission and its run metadata. It uses the dataset
// of an earlier Build in this pipeline, or else the saved artifacts.
func (p *Pipeline) Recommend(ctx context.Context) (*recommend.BatchStats, error) {
	var stats *recommend.BatchStats
	err := p.stage(ctx, StageRecommend, func(ctx context.Context, rec *history.Record) error {
		d, err := p.loadDataset(ctx)
		if err != nil {
			return err
		}

		ranking, err := p.ranker.Rank(ctx, d.Matrix)
		if err != nil {
			return err
		}
		gen, err := recommend.NewGenerator(ranking, d.Tracks, p.cfg.Recommend.CandidatePool)
		if err != nil {
			return err
		}

		seeds, err := p.loadTestInput(ctx)
		if err != nil {
			return err
		}

		batch := &recommend.Batch{Generator: gen, K: p.cfg.Recommend.K, Workers: p.cfg.Recommend.Workers}
		recs, bs, err := batch.Run(ctx, seeds)
		if err != nil {
			return err
		}

		team := submission.Team{Name: p.cfg.Team.Name, Email: p.cfg.Team.Email}
		rows, err := submission.WriteFile(p.cfg.Paths.Submission, team, recs)
		if err != nil {
			return err
		}

		if p.cfg.Paths.Metadata != "" {
			meta := &submission.RunMetadata{
				RunID:               logging.RunIDFromContext(ctx),
				Team:                team.Name,
				Email:               team.Email,
				Method:              submission.MethodPopularity,
				PlaylistsProcessed:  bs.Playlists,
				RecsPerPlaylist:     bs.K,
				CandidatePool:       gen.Candidates(),
				Underflows:          bs.Underflows,
				ExecutionTimeSecond: bs.Duration.Seconds(),
				GeneratedAt:         time.Now().UTC(),
				FilesUsed: map[string]string{
					"training_matrix": p.store.Path(artifacts.MatrixFile),
					"track_registry":  p.store.Path(artifacts.TrackRegistryFile),
					"test_input":      filepath.Join(p.cfg.Paths.TestArchive, p.cfg.Paths.TestInputEntry),
				},
				Submission: p.cfg.Paths.Submission,
			}
			if err := submission.WriteMetadata(p.cfg.Paths.Metadata, meta); err != nil {
				return err
			}
		}

		logging.Ctx(ctx).Info().
			Str("submission", p.cfg.Paths.Submission).
			Int("playlists", bs.Playlists).
			Int("underflows", bs.Underflows).
			Msg("Submission written")

		rec.Counts["playlists"] = int64(bs.Playlists)
		rec.Counts["rows"] = int64(rows)
		rec.Counts["k"] = int64(bs.K)
		rec.Counts["candidates"] = int64(gen.Candidates())
		rec.Counts["ranked"] = int64(gen.Ranked())
		rec.Counts["underflows"] = int64(bs.Underflows)
		stats = bs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Verify checks the submission file against the challenge rules and the
// seed playlists. A submission with issues returns the report together with
// a *VerificationError.
func (p *Pipeline) Verify(ctx context.Context) (*submission.VerifyReport, error) {
	var report *submission.VerifyReport
	err := p.stage(ctx, StageVerify, func(ctx context.Context, rec *history.Record) error {
		sub, err := submission.ReadFile(p.cfg.Paths.Submission)
		if err != nil {
			return err
		}
		seeds, err := p.loadTestInput(ctx)
		if err != nil {
			return err
		}
		pids := make([]string, len(seeds))
		for i, s := range seeds {
			pids[i] = s.PID
		}

		report = submission.Verify(sub, submission.VerifyOptions{
			K:            p.cfg.Recommend.K,
			ExpectedPIDs: pids,
			RequireTeam:  true,
		})
		rec.Counts["rows"] = int64(report.Rows)
		rec.Counts["issues"] = int64(len(report.Issues))

		log := logging.Ctx(ctx)
		for _, is := range report.Issues {
			log.Warn().
				Int("line", is.Line).
				Str("pid", is.PID).
				Str("rule", string(is.Rule)).
				Msg(is.Message)
		}
		if !report.OK() {
			return &VerificationError{Issues: len(report.Issues)}
		}
		log.Info().Int("rows", report.Rows).Msg("Submission verified")
		return nil
	})
	return report, err
}

// Evaluate scores the submission against the withheld tracks, prints the
// summary table and stores the report where configured.
func (p *Pipeline) Evaluate(ctx context.Context) (*evaluate.Report, error) {
	var report *evaluate.Report
	err := p.stage(ctx, StageEvaluate, func(ctx context.Context, rec *history.Record) error {
		sub, err := submission.ReadFile(p.cfg.Paths.Submission)
		if err != nil {
			return err
		}
		held, err := dataset.LoadEntry(ctx, p.cfg.Paths.TestArchive, p.cfg.Paths.TestEvalEntry)
		if err != nil {
			return fmt.Errorf("load ground truth: %w", err)
		}
		truth := make(map[string]evaluate.Truth, len(held))
		for _, pl := range held {
			truth[pl.PID] = evaluate.NewTruth(pl.Tracks)
		}

		ev := &evaluate.Evaluator{
			Workers:       p.cfg.Evaluate.Workers,
			KeepPlaylists: p.cfg.Evaluate.KeepPlaylists || p.results != nil,
		}
		r, err := ev.Run(ctx, sub.Predictions(), truth)
		if err != nil {
			return err
		}

		if err := r.WriteTable(p.out); err != nil {
			return fmt.Errorf("print report: %w", err)
		}
		if p.cfg.Paths.Report != "" {
			if err := writeJSON(p.cfg.Paths.Report, r); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
		}
		if p.results != nil {
			if err := p.results.Export(ctx, r, p.cfg.Results.Label); err != nil {
				return err
			}
		}

		rec.Counts["scored"] = int64(r.Scored)
		rec.Counts["unmatched_predictions"] = int64(r.UnmatchedPredictions)
		rec.Counts["unmatched_truth"] = int64(r.UnmatchedTruth)
		mean := r.Mean
		rec.Scores = &mean
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Run executes build, recommend, verify and evaluate under one run id. A
// failed verification does not stop evaluation; its error is returned once
// the report is written.
func (p *Pipeline) Run(ctx context.Context) (*evaluate.Report, error) {
	if logging.RunIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewRunID(ctx)
	}

	if _, err := p.Build(ctx); err != nil {
		return nil, err
	}
	if _, err := p.Recommend(ctx); err != nil {
		return nil, err
	}

	_, verr := p.Verify(ctx)
	var invalid *VerificationError
	if verr != nil && !errors.As(verr, &invalid) {
		return nil, verr
	}

	report, err := p.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return report, verr
}

// writeJSON writes v as indented JSON, replacing path atomically.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
