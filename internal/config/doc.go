// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

/*
Package config provides centralized configuration management for mpdrec.

Configuration is layered with Koanf v2. Each layer overrides the one
before it:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: the -config flag, CONFIG_PATH, or the first of
    DefaultConfigPaths that exists
 3. Mapped environment variables (see envMappings)
 4. Command-line overrides passed in Options.Overrides

The loaded Config is validated with go-playground/validator through
internal/validation, then checked for cross-section conflicts such as two
outputs sharing a path.

# Example File

	paths:
	  train: data/raw/spotify_train_dataset.zip
	  test_archive: data/raw/spotify_test_playlists.zip
	  processed_dir: data/processed
	  submission: submissions/popularity_baseline.csv
	build:
	  workers: 8
	recommend:
	  k: 500
	  candidate_pool: 2000
	team:
	  name: my-team
	  email: team@example.com
	history:
	  enabled: true
	  dir: data/history
	logging:
	  level: debug
	  format: console

# Environment Variables

Paths: MPD_TRAIN_PATH, MPD_TRAIN_ENTRIES, MPD_TEST_ARCHIVE,
MPD_TEST_INPUT_ENTRY, MPD_TEST_EVAL_ENTRY, MPD_PROCESSED_DIR,
MPD_SUBMISSION_PATH, MPD_METADATA_PATH, MPD_REPORT_PATH.

Stages: BUILD_WORKERS, BUILD_PROGRESS_SHARDS, BUILD_PROGRESS_INTERVAL,
RECOMMEND_K, RECOMMEND_CANDIDATE_POOL, RECOMMEND_WORKERS, EVALUATE_WORKERS,
EVALUATE_KEEP_PLAYLISTS.

Other: TEAM_NAME, TEAM_EMAIL, HISTORY_ENABLED, HISTORY_DIR, RESULTS_ENABLED,
RESULTS_PATH, RESULTS_LABEL, METRICS_TEXTFILE_PATH, LOG_LEVEL, LOG_FORMAT,
LOG_CALLER.
*/
package config
