// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

/*
Package pipeline runs the baseline stages against a loaded configuration.

	build      training corpus -> artifact store
	recommend  artifact store + seed playlists -> submission CSV + metadata
	verify     submission CSV -> rule violations
	evaluate   submission CSV + withheld tracks -> report

Every stage carries the run id from the context (a new one when absent),
records its duration and error class in Prometheus, and appends a
history.Record to the BadgerDB ledger when history is enabled. Evaluation
reports are also exported to DuckDB when the results store is enabled.

Run chains all four stages under one run id, reusing the freshly built
dataset instead of reloading it.
*/
package pipeline
