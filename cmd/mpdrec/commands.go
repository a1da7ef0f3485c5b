// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/tomtom215/mpdrec/internal/pipeline"
)

type command struct {
	name    string
	summary string
	flags   func(fs *flag.FlagSet, ov *overrides)
	run     func(ctx context.Context, p *pipeline.Pipeline, stdout io.Writer) error
}

var commands []*command

func init() {
	commands = []*command{
		{
			name:    "build",
			summary: "ingest the training corpus and save the processed artifacts",
			flags:   buildFlags,
			run: func(ctx context.Context, p *pipeline.Pipeline, _ io.Writer) error {
				_, err := p.Build(ctx)
				return err
			},
		},
		{
			name:    "recommend",
			summary: "write popularity recommendations for the test playlists",
			flags:   recommendFlags,
			run: func(ctx context.Context, p *pipeline.Pipeline, _ io.Writer) error {
				_, err := p.Recommend(ctx)
				return err
			},
		},
		{
			name:    "verify",
			summary: "check the submission against the challenge rules",
			flags:   verifyFlags,
			run:     runVerify,
		},
		{
			name:    "evaluate",
			summary: "score the submission against the withheld tracks",
			flags:   evaluateFlags,
			run: func(ctx context.Context, p *pipeline.Pipeline, _ io.Writer) error {
				_, err := p.Evaluate(ctx)
				return err
			},
		},
		{
			name:    "run",
			summary: "build, recommend, verify and evaluate in one run",
			flags: func(fs *flag.FlagSet, ov *overrides) {
				buildFlags(fs, ov)
				recommendFlags(fs, ov)
				evaluateFlags(fs, ov)
			},
			run: func(ctx context.Context, p *pipeline.Pipeline, _ io.Writer) error {
				_, err := p.Run(ctx)
				return err
			},
		},
		{
			name:    "check",
			summary: "verify the saved artifacts against their manifest checksums",
			flags: func(_ *flag.FlagSet, ov *overrides) {
				ov.bind("processed-dir", "paths.processed_dir", "artifact store directory")
			},
			run: runCheck,
		},
		historyCommand(),
		resultsCommand(),
	}
}

func lookup(name string) (*command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

func buildFlags(_ *flag.FlagSet, ov *overrides) {
	ov.bind("train", "paths.train", "training zip archive or directory of slice files")
	ov.bind("train-entries", "paths.train_entries", "comma-separated archive members to read")
	ov.bind("processed-dir", "paths.processed_dir", "artifact store directory")
	ov.bind("workers", "build.workers", "shards decoded concurrently")
}

func recommendFlags(_ *flag.FlagSet, ov *overrides) {
	ov.bind("test-archive", "paths.test_archive", "challenge archive or directory")
	ov.bind("submission", "paths.submission", "submission CSV path")
	ov.bind("k", "recommend.k", "tracks per playlist")
	ov.bind("pool", "recommend.candidate_pool", "ranked tracks considered, 0 for all")
	ov.bind("team", "team.name", "team name for the team_info row")
	ov.bind("email", "team.email", "contact email for the team_info row")
	// processed-dir is shared with build when both are registered.
	if ov.fs.Lookup("processed-dir") == nil {
		ov.bind("processed-dir", "paths.processed_dir", "artifact store directory")
	}
}

func verifyFlags(_ *flag.FlagSet, ov *overrides) {
	ov.bind("test-archive", "paths.test_archive", "challenge archive or directory")
	ov.bind("submission", "paths.submission", "submission CSV path")
	ov.bind("k", "recommend.k", "required tracks per playlist")
}

func evaluateFlags(_ *flag.FlagSet, ov *overrides) {
	if ov.fs.Lookup("test-archive") == nil {
		ov.bind("test-archive", "paths.test_archive", "challenge archive or directory")
	}
	if ov.fs.Lookup("submission") == nil {
		ov.bind("submission", "paths.submission", "submission CSV path")
	}
	ov.bind("report", "paths.report", "evaluation report JSON path")
	ov.bind("label", "results.label", "label stored with the exported run")
}

func runVerify(ctx context.Context, p *pipeline.Pipeline, stdout io.Writer) error {
	report, err := p.Verify(ctx)
	if report != nil {
		fmt.Fprintf(stdout, "Rows checked: %d\n", report.Rows)
		for _, is := range report.Issues {
			fmt.Fprintf(stdout, "line %d: %s (%s)\n", is.Line, is.Message, is.Rule)
		}
		if report.OK() {
			fmt.Fprintln(stdout, "Submission OK")
		}
	}
	return err
}

func runCheck(ctx context.Context, p *pipeline.Pipeline, stdout io.Writer) error {
	m, err := p.CheckArtifacts(ctx)
	if err != nil {
		return err
	}
	return pipeline.WriteManifest(stdout, m)
}

func historyCommand() *command {
	var runID *string
	var limit *int
	return &command{
		name:    "history",
		summary: "list recorded runs from the history ledger",
		flags: func(fs *flag.FlagSet, _ *overrides) {
			runID = fs.String("run", "", "show every stage of this run id")
			limit = fs.Int("limit", 20, "records to list when no run is given, 0 for all")
		},
		run: func(ctx context.Context, p *pipeline.Pipeline, stdout io.Writer) error {
			recs, err := p.History(ctx, *runID, *limit)
			if err != nil {
				return err
			}
			return pipeline.WriteHistory(stdout, recs)
		},
	}
}

func resultsCommand() *command {
	var runID *string
	var limit, worst *int
	return &command{
		name:    "results",
		summary: "list exported evaluation runs, or the worst playlists of one run",
		flags: func(fs *flag.FlagSet, _ *overrides) {
			runID = fs.String("run", "", "show the lowest-NDCG playlists of this run id")
			limit = fs.Int("limit", 20, "runs to list, 0 for all")
			worst = fs.Int("worst", 10, "playlists to show with -run, 0 for all")
		},
		run: func(ctx context.Context, p *pipeline.Pipeline, stdout io.Writer) error {
			if *runID == "" {
				runs, err := p.Runs(ctx, *limit)
				if err != nil {
					return err
				}
				return pipeline.WriteRuns(stdout, runs)
			}
			scores, err := p.Worst(ctx, *runID, *worst)
			if err != nil {
				return err
			}
			return pipeline.WriteScores(stdout, scores)
		},
	}
}
