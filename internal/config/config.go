// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package config

import (
	"time"
)

// Config holds all pipeline configuration.
//
// Loading order (later sources override earlier ones):
//  1. Built-in defaults
//  2. Config file (config.yaml if exists, or the path in CONFIG_PATH)
//  3. Environment variables
//  4. Command-line overrides
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Paths     PathsConfig     `koanf:"paths"`
	Build     BuildConfig     `koanf:"build"`
	Recommend RecommendConfig `koanf:"recommend"`
	Evaluate  EvaluateConfig  `koanf:"evaluate"`
	Team      TeamConfig      `koanf:"team"`
	History   HistoryConfig   `koanf:"history"`
	Results   ResultsConfig   `koanf:"results"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// PathsConfig locates every input and output of the pipeline.
//
// Environment Variables:
//   - MPD_TRAIN_PATH: training zip archive or directory of slice files
//   - MPD_TRAIN_ENTRIES: comma-separated zip members to read (default: every *.json)
//   - MPD_TEST_ARCHIVE: challenge zip (or directory) with the test files
//   - MPD_TEST_INPUT_ENTRY: seed playlists inside the test archive
//   - MPD_TEST_EVAL_ENTRY: withheld tracks inside the test archive
//   - MPD_PROCESSED_DIR: artifact store directory
//   - MPD_SUBMISSION_PATH: submission CSV
//   - MPD_METADATA_PATH: run metadata JSON
//   - MPD_REPORT_PATH: evaluation report JSON (empty disables)
type PathsConfig struct {
	Train          string   `koanf:"train" validate:"required"`
	TrainEntries   []string `koanf:"train_entries"`
	TestArchive    string   `koanf:"test_archive" validate:"required"`
	TestInputEntry string   `koanf:"test_input_entry" validate:"required"`
	TestEvalEntry  string   `koanf:"test_eval_entry" validate:"required"`
	ProcessedDir   string   `koanf:"processed_dir" validate:"required"`
	Submission     string   `koanf:"submission" validate:"required"`
	Metadata       string   `koanf:"metadata"`
	Report         string   `koanf:"report"`
}

// BuildConfig tunes dataset ingestion.
//
// Environment Variables:
//   - BUILD_WORKERS: shards decoded concurrently (default: number of CPUs)
//   - BUILD_PROGRESS_SHARDS: log progress every N shards (default: 100)
//   - BUILD_PROGRESS_INTERVAL: and at least this often (default: 30s)
type BuildConfig struct {
	Workers          int           `koanf:"workers" validate:"min=1,max=256"`
	ProgressShards   int           `koanf:"progress_shards" validate:"min=0"`
	ProgressInterval time.Duration `koanf:"progress_interval" validate:"min=0"`
}

// RecommendConfig tunes list generation.
//
// Environment Variables:
//   - RECOMMEND_K: tracks per playlist (default: 500)
//   - RECOMMEND_CANDIDATE_POOL: ranked tracks considered, 0 for all (default: 2000)
//   - RECOMMEND_WORKERS: playlists processed concurrently (default: number of CPUs)
type RecommendConfig struct {
	K             int `koanf:"k" validate:"min=1"`
	CandidatePool int `koanf:"candidate_pool" validate:"min=0"`
	Workers       int `koanf:"workers" validate:"min=1,max=256"`
}

// EvaluateConfig tunes scoring.
//
// Environment Variables:
//   - EVALUATE_WORKERS: playlists scored concurrently (default: number of CPUs)
//   - EVALUATE_KEEP_PLAYLISTS: keep per-playlist scores in the report (default: false)
type EvaluateConfig struct {
	Workers       int  `koanf:"workers" validate:"min=1,max=256"`
	KeepPlaylists bool `koanf:"keep_playlists"`
}

// TeamConfig fills the team_info row of a submission.
//
// Environment Variables:
//   - TEAM_NAME: team name
//   - TEAM_EMAIL: contact email
type TeamConfig struct {
	Name  string `koanf:"name" validate:"required,max=128"`
	Email string `koanf:"email" validate:"omitempty,email"`
}

// HistoryConfig controls the BadgerDB run ledger.
//
// Environment Variables:
//   - HISTORY_ENABLED: record every stage (default: true)
//   - HISTORY_DIR: ledger directory (default: data/history)
type HistoryConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir" validate:"required_if=Enabled true"`
}

// ResultsConfig controls the DuckDB score export.
//
// Environment Variables:
//   - RESULTS_ENABLED: export evaluation reports (default: false)
//   - RESULTS_PATH: DuckDB file (default: data/results.duckdb)
//   - RESULTS_LABEL: label stored with each exported run
type ResultsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path" validate:"required_if=Enabled true"`
	Label   string `koanf:"label"`
}

// MetricsConfig controls the Prometheus textfile dump.
//
// Environment Variables:
//   - METRICS_TEXTFILE_PATH: write metrics here after each command (empty disables)
type MetricsConfig struct {
	TextfilePath string `koanf:"textfile_path"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: console)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"loglevel"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, the discovered config file and the
// environment.
func Load() (*Config, error) {
	return LoadWithKoanf(Options{})
}
