// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package evaluate

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/mpdrec/internal/logging"
	"github.com/tomtom215/mpdrec/internal/metrics"
)

// Prediction is one submitted recommendation list.
type Prediction struct {
	PID    string
	Tracks []string
}

// PlaylistScore is the evaluation of one matched playlist.
type PlaylistScore struct {
	PID       string `json:"pid"`
	Predicted int    `json:"predicted"`
	TruthSize int    `json:"truth_size"`
	Scores
}

// Report is the outcome of an evaluation run.
type Report struct {
	RunID string `json:"run_id,omitempty"`

	// Scored is the number of playlists present in both predictions and truth.
	Scored int `json:"scored"`

	// UnmatchedPredictions counts predictions with no ground truth.
	UnmatchedPredictions int `json:"unmatched_predictions"`

	// UnmatchedTruth counts ground-truth playlists with no prediction.
	UnmatchedTruth int `json:"unmatched_truth"`

	Mean   Scores `json:"mean"`
	StdDev Scores `json:"std_dev"`

	Playlists []PlaylistScore `json:"playlists,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// Aggregate returns the arithmetic mean and sample standard deviation of
// each metric. Both are zero for an empty input; the deviation is zero for a
// single score.
func Aggregate(scores []Scores) (mean, stdDev Scores) {
	if len(scores) == 0 {
		return Scores{}, Scores{}
	}

	rp := make([]float64, len(scores))
	nd := make([]float64, len(scores))
	cl := make([]float64, len(scores))
	for i, s := range scores {
		rp[i], nd[i], cl[i] = s.RPrecision, s.NDCG, s.Clicks
	}

	mean = Scores{
		RPrecision: stat.Mean(rp, nil),
		NDCG:       stat.Mean(nd, nil),
		Clicks:     stat.Mean(cl, nil),
	}
	if len(scores) > 1 {
		stdDev = Scores{
			RPrecision: stat.StdDev(rp, nil),
			NDCG:       stat.StdDev(nd, nil),
			Clicks:     stat.StdDev(cl, nil),
		}
	}
	return mean, stdDev
}

// Evaluator scores predictions against ground truth.
type Evaluator struct {
	// Workers bounds the number of playlists scored concurrently.
	Workers int
	// KeepPlaylists retains per-playlist scores in the report.
	KeepPlaylists bool
}

// Run scores every prediction whose PID has ground truth. Predictions and
// truth on only one side are counted in the report, not scored.
func (e *Evaluator) Run(ctx context.Context, predictions []Prediction, truth map[string]Truth) (*Report, error) {
	start := time.Now()
	workers := e.Workers
	if workers <= 0 {
		workers = 1
	}

	report := &Report{RunID: logging.RunIDFromContext(ctx), StartedAt: start}

	matched := make([]int, 0, len(predictions))
	predicted := make(map[string]struct{}, len(predictions))
	for i, p := range predictions {
		predicted[p.PID] = struct{}{}
		if _, ok := truth[p.PID]; ok {
			matched = append(matched, i)
		} else {
			report.UnmatchedPredictions++
		}
	}
	for pid := range truth {
		if _, ok := predicted[pid]; !ok {
			report.UnmatchedTruth++
		}
	}

	scored := make([]PlaylistScore, len(matched))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for slot, idx := range matched {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := predictions[idx]
			gt := truth[p.PID]
			scored[slot] = PlaylistScore{
				PID:       p.PID,
				Predicted: len(p.Tracks),
				TruthSize: len(gt),
				Scores:    Evaluate(p.Tracks, gt),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]Scores, len(scored))
	for i, s := range scored {
		all[i] = s.Scores
	}
	report.Scored = len(scored)
	report.Mean, report.StdDev = Aggregate(all)
	if e.KeepPlaylists {
		report.Playlists = scored
	}
	report.Duration = time.Since(start)

	log := logging.Ctx(ctx)
	if report.UnmatchedPredictions > 0 || report.UnmatchedTruth > 0 {
		log.Warn().
			Int("unmatched_predictions", report.UnmatchedPredictions).
			Int("unmatched_truth", report.UnmatchedTruth).
			Msg("Playlists without a counterpart were not scored")
	}
	if report.Scored == 0 {
		log.Warn().Msg("No predictions matched the ground truth")
	}
	log.Info().
		Int("scored", report.Scored).
		Float64("r_precision", report.Mean.RPrecision).
		Float64("ndcg", report.Mean.NDCG).
		Float64("clicks", report.Mean.Clicks).
		Dur("duration", report.Duration).
		Msg("Evaluation complete")

	metrics.RecordEvaluation(report.Scored, report.UnmatchedPredictions, report.UnmatchedTruth,
		report.Mean.RPrecision, report.Mean.NDCG, report.Mean.Clicks)

	return report, nil
}

// WriteTable prints the aggregate scores as an aligned table.
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Playlists scored:\t%d\n", r.Scored)
	if r.UnmatchedPredictions > 0 || r.UnmatchedTruth > 0 {
		fmt.Fprintf(tw, "Unmatched:\t%d predictions, %d ground truth\n", r.UnmatchedPredictions, r.UnmatchedTruth)
	}
	fmt.Fprintf(tw, "R-Precision:\t%.6f\t(sd %.6f)\n", r.Mean.RPrecision, r.StdDev.RPrecision)
	fmt.Fprintf(tw, "NDCG:\t%.6f\t(sd %.6f)\n", r.Mean.NDCG, r.StdDev.NDCG)
	fmt.Fprintf(tw, "Clicks:\t%.6f\t(sd %.6f)\n", r.Mean.Clicks, r.StdDev.Clicks)
	return tw.Flush()
}
