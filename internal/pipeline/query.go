// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tomtom215/mpdrec/internal/artifacts"
	"github.com/tomtom215/mpdrec/internal/evaluate"
	"github.com/tomtom215/mpdrec/internal/history"
	"github.com/tomtom215/mpdrec/internal/results"
)

// History returns the stages of runID, or the latest limit records across
// all runs when runID is empty.
func (p *Pipeline) History(ctx context.Context, runID string, limit int) ([]history.Record, error) {
	if p.ledger == nil {
		return nil, ErrHistoryDisabled
	}
	if runID != "" {
		return p.ledger.Run(ctx, runID)
	}
	return p.ledger.List(ctx, limit)
}

// Runs returns the newest exported evaluation runs.
func (p *Pipeline) Runs(ctx context.Context, limit int) ([]results.Run, error) {
	if p.results == nil {
		return nil, ErrResultsDisabled
	}
	return p.results.Runs(ctx, limit)
}

// Worst returns the n lowest-NDCG playlists of an exported run. A non-positive
// n returns every playlist of the run, ordered by pid.
func (p *Pipeline) Worst(ctx context.Context, runID string, n int) ([]evaluate.PlaylistScore, error) {
	if p.results == nil {
		return nil, ErrResultsDisabled
	}
	if n <= 0 {
		return p.results.PlaylistScores(ctx, runID)
	}
	return p.results.Worst(ctx, runID, n)
}

// WriteHistory prints records as a table.
func WriteHistory(w io.Writer, recs []history.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTAGE\tSTATUS\tSTARTED\tDURATION\tDETAILS")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.RunID,
			r.Stage,
			r.Status,
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration.Round(time.Millisecond),
			details(r))
	}
	return tw.Flush()
}

// details summarises the counts, scores and error of a record on one line.
func details(r history.Record) string {
	var parts []string
	if r.Scores != nil {
		parts = append(parts, fmt.Sprintf("r_precision=%.4f ndcg=%.4f clicks=%.2f",
			r.Scores.RPrecision, r.Scores.NDCG, r.Scores.Clicks))
	}
	keys := make([]string, 0, len(r.Counts))
	for k := range r.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, r.Counts[k]))
	}
	if r.Error != "" {
		parts = append(parts, "error="+r.Error)
	}
	return strings.Join(parts, " ")
}

// WriteRuns prints exported runs as a table.
func WriteRuns(w io.Writer, runs []results.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tLABEL\tSTARTED\tSCORED\tR-PRECISION\tNDCG\tCLICKS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.6f\t%.6f\t%.4f\n",
			r.RunID,
			r.Label,
			r.StartedAt.Local().Format(time.DateTime),
			r.Scored,
			r.Mean.RPrecision,
			r.Mean.NDCG,
			r.Mean.Clicks)
	}
	return tw.Flush()
}

// WriteScores prints per-playlist scores as a table.
func WriteScores(w io.Writer, scores []evaluate.PlaylistScore) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tPREDICTED\tTRUTH\tR-PRECISION\tNDCG\tCLICKS")
	for _, s := range scores {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.6f\t%.6f\t%.0f\n",
			s.PID, s.Predicted, s.TruthSize, s.RPrecision, s.NDCG, s.Clicks)
	}
	return tw.Flush()
}

// WriteManifest prints the artifacts of a manifest as a table, by name.
func WriteManifest(w io.Writer, m *artifacts.Manifest) error {
	names := make([]string, 0, len(m.Entries))
	for name := range m.Entries {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Built by run:\t%s\n", m.RunID)
	fmt.Fprintln(tw, "ARTIFACT\tSIZE\tSHA256")
	for _, name := range names {
		e := m.Entries[name]
		fmt.Fprintf(tw, "%s\t%d\t%s\n", name, e.SizeBytes, e.Checksum)
	}
	return tw.Flush()
}
