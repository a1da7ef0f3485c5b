// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

/*
Command mpdrec builds the popularity baseline for the Million Playlist
Dataset continuation challenge and scores its submissions.

# Commands

	mpdrec build       ingest the training archive into data/processed
	mpdrec recommend   write submissions/popularity_baseline.csv
	mpdrec verify      check the submission against the challenge rules
	mpdrec evaluate    score the submission (R-Precision, NDCG, Clicks)
	mpdrec run         all of the above under one run id
	mpdrec check       verify data/processed against its manifest checksums
	mpdrec history     list stages recorded in the run ledger
	mpdrec results     list runs exported to DuckDB

# Configuration

Settings come from built-in defaults, a YAML file (-config, CONFIG_PATH or
./config.yaml), environment variables and finally command flags. See
package config for the full list. Flags only override what they are given:

	mpdrec run -k 500 -pool 0 -team my-team -email team@example.com
	RECOMMEND_WORKERS=4 LOG_FORMAT=json mpdrec recommend

# Exit Status

0 on success, 1 when a stage fails or the submission breaks a rule, and 2 for
usage errors. SIGINT and SIGTERM cancel the running stage; the interrupted
stage is still recorded in the ledger.
*/
package main
