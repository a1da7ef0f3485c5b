// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

/*
Package metrics defines the Prometheus instrumentation of the mpdrec pipeline.

Collectors are registered on the default registry through promauto. mpdrec is
a batch tool with no HTTP listener, so at the end of each command the
registry is flushed to a file with WriteTextfile when metrics.textfile_path is
configured. Point the node exporter's --collector.textfile.directory at the
containing directory to scrape it.

# Metric Families

Ingestion:
  - mpdrec_shards_ingested_total
  - mpdrec_playlists_ingested_total{outcome}
  - mpdrec_track_occurrences_total
  - mpdrec_malformed_records_total

Matrix:
  - mpdrec_matrix_rows, mpdrec_matrix_cols, mpdrec_matrix_nnz

Stages:
  - mpdrec_stage_duration_seconds{stage}
  - mpdrec_stage_errors_total{stage,error_type}

Recommendation and evaluation:
  - mpdrec_recommendation_lists_total
  - mpdrec_recommendation_underflows_total
  - mpdrec_playlists_scored_total
  - mpdrec_playlists_unmatched_total{side}
  - mpdrec_evaluation_score{metric}
*/
package metrics
