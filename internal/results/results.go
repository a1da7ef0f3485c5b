// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

// Package results exports evaluation reports into a DuckDB database for
// ad-hoc analysis across runs.
//
// Two tables are maintained:
//
//	evaluation_runs   one row per evaluation run with mean and stddev scores
//	playlist_scores   one row per scored playlist
//
// Exporting a run id that already exists replaces its rows.
package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB database/sql driver

	"github.com/tomtom215/mpdrec/internal/evaluate"
	"github.com/tomtom215/mpdrec/internal/logging"
)

// ErrNoRunID is returned when exporting a report without a run id.
var ErrNoRunID = errors.New("report has no run id")

var schema = []string{`
CREATE TABLE IF NOT EXISTS evaluation_runs (
	run_id                 VARCHAR PRIMARY KEY,
	label                  VARCHAR,
	started_at             TIMESTAMP NOT NULL,
	duration_seconds       DOUBLE NOT NULL,
	scored                 INTEGER NOT NULL,
	unmatched_predictions  INTEGER NOT NULL,
	unmatched_truth        INTEGER NOT NULL,
	r_precision            DOUBLE NOT NULL,
	ndcg                   DOUBLE NOT NULL,
	clicks                 DOUBLE NOT NULL,
	r_precision_sd         DOUBLE NOT NULL,
	ndcg_sd                DOUBLE NOT NULL,
	clicks_sd              DOUBLE NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS playlist_scores (
	run_id       VARCHAR NOT NULL,
	pid          VARCHAR NOT NULL,
	predicted    INTEGER NOT NULL,
	truth_size   INTEGER NOT NULL,
	r_precision  DOUBLE NOT NULL,
	ndcg         DOUBLE NOT NULL,
	clicks       DOUBLE NOT NULL
)`,
}

// Store is a DuckDB results database.
type Store struct {
	conn *sql.DB
}

// Open opens or creates the database at path. Use ":memory:" for a
// throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	connStr := path + "?autoinstall_known_extensions=false&autoload_known_extensions=false"
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}
	// A single connection keeps an in-memory database alive and shared.
	conn.SetMaxOpenConns(1)

	for _, ddl := range schema {
		if _, err := conn.ExecContext(ctx, ddl); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to create results schema: %w", err)
		}
	}
	return &Store{conn: conn}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Export writes report under label. Per-playlist rows are written only when
// the report retained them.
func (s *Store) Export(ctx context.Context, report *evaluate.Report, label string) (err error) {
	if report.RunID == "" {
		return ErrNoRunID
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Transaction rollback failed")
			}
		}
	}()

	for _, q := range []string{
		`DELETE FROM playlist_scores WHERE run_id = ?`,
		`DELETE FROM evaluation_runs WHERE run_id = ?`,
	} {
		if _, err = tx.ExecContext(ctx, q, report.RunID); err != nil {
			return fmt.Errorf("failed to clear previous export: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO evaluation_runs (
		run_id, label, started_at, duration_seconds,
		scored, unmatched_predictions, unmatched_truth,
		r_precision, ndcg, clicks,
		r_precision_sd, ndcg_sd, clicks_sd
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, label, report.StartedAt.UTC(), report.Duration.Seconds(),
		report.Scored, report.UnmatchedPredictions, report.UnmatchedTruth,
		report.Mean.RPrecision, report.Mean.NDCG, report.Mean.Clicks,
		report.StdDev.RPrecision, report.StdDev.NDCG, report.StdDev.Clicks,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(report.Playlists) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx, `INSERT INTO playlist_scores (
			run_id, pid, predicted, truth_size, r_precision, ndcg, clicks
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range report.Playlists {
			if _, err = stmt.ExecContext(ctx, report.RunID, p.PID, p.Predicted, p.TruthSize,
				p.RPrecision, p.NDCG, p.Clicks); err != nil {
				return fmt.Errorf("failed to insert playlist %s: %w", p.PID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logging.Ctx(ctx).Debug().
		Int("playlists", len(report.Playlists)).
		Msg("Exported evaluation to DuckDB")
	return nil
}

// Run is one row of evaluation_runs.
type Run struct {
	RunID     string
	Label     string
	StartedAt time.Time
	Duration  time.Duration
	Scored    int
	Mean      evaluate.Scores
	StdDev    evaluate.Scores
}

// Runs returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT run_id, COALESCE(label, ''), started_at, duration_seconds, scored,
		r_precision, ndcg, clicks, r_precision_sd, ndcg_sd, clicks_sd
		FROM evaluation_runs ORDER BY started_at DESC, run_id`
	args := []interface{}{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var secs float64
		if err := rows.Scan(&r.RunID, &r.Label, &r.StartedAt, &secs, &r.Scored,
			&r.Mean.RPrecision, &r.Mean.NDCG, &r.Mean.Clicks,
			&r.StdDev.RPrecision, &r.StdDev.NDCG, &r.StdDev.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Duration = time.Duration(secs * float64(time.Second))
		out = append(out, r)
	}
	return out, rows.Err()
}

// PlaylistScores returns the per-playlist scores of runID ordered by pid.
func (s *Store) PlaylistScores(ctx context.Context, runID string) ([]evaluate.PlaylistScore, error) {
	return s.queryScores(ctx, `SELECT pid, predicted, truth_size, r_precision, ndcg, clicks
		FROM playlist_scores WHERE run_id = ? ORDER BY pid`, runID)
}

// Worst returns the n scored playlists with the lowest NDCG in runID.
func (s *Store) Worst(ctx context.Context, runID string, n int) ([]evaluate.PlaylistScore, error) {
	return s.queryScores(ctx, `SELECT pid, predicted, truth_size, r_precision, ndcg, clicks
		FROM playlist_scores WHERE run_id = ? ORDER BY ndcg ASC, pid LIMIT ?`, runID, n)
}

func (s *Store) queryScores(ctx context.Context, q string, args ...interface{}) ([]evaluate.PlaylistScore, error) {
	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist scores: %w", err)
	}
	defer rows.Close()

	var out []evaluate.PlaylistScore
	for rows.Next() {
		var p evaluate.PlaylistScore
		if err := rows.Scan(&p.PID, &p.Predicted, &p.TruthSize, &p.RPrecision, &p.NDCG, &p.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan playlist score: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
