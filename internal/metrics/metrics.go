// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion
	ShardsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mpdrec_shards_ingested_total",
			Help: "Total number of playlist shards decoded",
		},
	)

	PlaylistsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpdrec_playlists_ingested_total",
			Help: "Total number of playlist records decoded",
		},
		[]string{"outcome"}, // "new", "repeated"
	)

	TrackOccurrences = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mpdrec_track_occurrences_total",
			Help: "Total number of track entries read, duplicates included",
		},
	)

	MalformedRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mpdrec_malformed_records_total",
			Help: "Total number of records rejected as malformed",
		},
	)

	// Matrix shape
	MatrixRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mpdrec_matrix_rows",
			Help: "Number of playlists (rows) in the interaction matrix",
		},
	)

	MatrixCols = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mpdrec_matrix_cols",
			Help: "Number of unique tracks (columns) in the interaction matrix",
		},
	)

	MatrixNNZ = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mpdrec_matrix_nnz",
			Help: "Number of stored entries in the interaction matrix",
		},
	)

	// Stages
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mpdrec_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800}, // full builds take minutes
		},
		[]string{"stage"},
	)

	StageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpdrec_stage_errors_total",
			Help: "Total number of failed pipeline stages",
		},
		[]string{"stage", "error_type"},
	)

	// Recommendation
	RecommendationsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mpdrec_recommendation_lists_total",
			Help: "Total number of recommendation lists generated",
		},
	)

	RecommendationUnderflows = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mpdrec_recommendation_underflows_total",
			Help: "Total number of recommendation lists shorter than K",
		},
	)

	// Evaluation
	PlaylistsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mpdrec_playlists_scored_total",
			Help: "Total number of playlists scored against ground truth",
		},
	)

	PlaylistsUnmatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpdrec_playlists_unmatched_total",
			Help: "Total number of playlists present on only one side of an evaluation",
		},
		[]string{"side"}, // "prediction", "truth"
	)

	EvaluationScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mpdrec_evaluation_score",
			Help: "Mean metric value of the most recent evaluation",
		},
		[]string{"metric"}, // "r_precision", "ndcg", "clicks"
	)
)

// ErrorTyper is implemented by errors that name their own category.
type ErrorTyper interface {
	ErrorType() string
}

// RecordStage records a stage duration and, when err is set, a stage error.
func RecordStage(stage string, duration time.Duration, err error) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		StageErrors.WithLabelValues(stage, errorType(err)).Inc()
	}
}

func errorType(err error) string {
	var typed ErrorTyper
	if errors.As(err, &typed) {
		return typed.ErrorType()
	}
	return "other"
}

// RecordPlaylist counts one ingested playlist record and its track entries.
func RecordPlaylist(repeated bool, tracks int) {
	if repeated {
		PlaylistsIngested.WithLabelValues("repeated").Inc()
	} else {
		PlaylistsIngested.WithLabelValues("new").Inc()
	}
	TrackOccurrences.Add(float64(tracks))
}

// SetMatrixShape publishes the dimensions of a built matrix.
func SetMatrixShape(rows, cols, nnz int) {
	MatrixRows.Set(float64(rows))
	MatrixCols.Set(float64(cols))
	MatrixNNZ.Set(float64(nnz))
}

// RecordRecommendation counts one generated list.
func RecordRecommendation(underflow bool) {
	RecommendationsGenerated.Inc()
	if underflow {
		RecommendationUnderflows.Inc()
	}
}

// RecordEvaluation publishes the outcome of an evaluation.
func RecordEvaluation(scored, unmatchedPredictions, unmatchedTruth int, rPrecision, ndcg, clicks float64) {
	PlaylistsScored.Add(float64(scored))
	PlaylistsUnmatched.WithLabelValues("prediction").Add(float64(unmatchedPredictions))
	PlaylistsUnmatched.WithLabelValues("truth").Add(float64(unmatchedTruth))
	EvaluationScore.WithLabelValues("r_precision").Set(rPrecision)
	EvaluationScore.WithLabelValues("ndcg").Set(ndcg)
	EvaluationScore.WithLabelValues("clicks").Set(clicks)
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format, for collection by the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
