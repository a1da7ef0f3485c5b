// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type typedErr struct{}

func (typedErr) Error() string     { return "missing artifact" }
func (typedErr) ErrorType() string { return "missing_artifact" }

func TestRecordStage(t *testing.T) {
	tests := []struct {
		name     string
		stage    string
		err      error
		wantType string
	}{
		{"success", "build", nil, ""},
		{"typed error", "recommend", typedErr{}, "missing_artifact"},
		{"wrapped typed error", "evaluate", errors.Join(errors.New("load"), typedErr{}), "missing_artifact"},
		{"untyped error", "verify", errors.New("boom"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before float64
			if tt.wantType != "" {
				before = testutil.ToFloat64(StageErrors.WithLabelValues(tt.stage, tt.wantType))
			}

			RecordStage(tt.stage, 25*time.Millisecond, tt.err)

			if tt.wantType != "" {
				after := testutil.ToFloat64(StageErrors.WithLabelValues(tt.stage, tt.wantType))
				if after != before+1 {
					t.Errorf("StageErrors{%s,%s} = %v, want %v", tt.stage, tt.wantType, after, before+1)
				}
			}
		})
	}
}

func TestRecordPlaylist(t *testing.T) {
	newBefore := testutil.ToFloat64(PlaylistsIngested.WithLabelValues("new"))
	repBefore := testutil.ToFloat64(PlaylistsIngested.WithLabelValues("repeated"))
	tracksBefore := testutil.ToFloat64(TrackOccurrences)

	RecordPlaylist(false, 10)
	RecordPlaylist(true, 5)

	if got := testutil.ToFloat64(PlaylistsIngested.WithLabelValues("new")); got != newBefore+1 {
		t.Errorf("new = %v, want %v", got, newBefore+1)
	}
	if got := testutil.ToFloat64(PlaylistsIngested.WithLabelValues("repeated")); got != repBefore+1 {
		t.Errorf("repeated = %v, want %v", got, repBefore+1)
	}
	if got := testutil.ToFloat64(TrackOccurrences); got != tracksBefore+15 {
		t.Errorf("TrackOccurrences = %v, want %v", got, tracksBefore+15)
	}
}

func TestSetMatrixShape(t *testing.T) {
	SetMatrixShape(1000, 34443, 66346)

	if got := testutil.ToFloat64(MatrixRows); got != 1000 {
		t.Errorf("MatrixRows = %v, want 1000", got)
	}
	if got := testutil.ToFloat64(MatrixCols); got != 34443 {
		t.Errorf("MatrixCols = %v, want 34443", got)
	}
	if got := testutil.ToFloat64(MatrixNNZ); got != 66346 {
		t.Errorf("MatrixNNZ = %v, want 66346", got)
	}
}

func TestRecordRecommendation(t *testing.T) {
	listsBefore := testutil.ToFloat64(RecommendationsGenerated)
	underBefore := testutil.ToFloat64(RecommendationUnderflows)

	RecordRecommendation(false)
	RecordRecommendation(true)

	if got := testutil.ToFloat64(RecommendationsGenerated); got != listsBefore+2 {
		t.Errorf("RecommendationsGenerated = %v, want %v", got, listsBefore+2)
	}
	if got := testutil.ToFloat64(RecommendationUnderflows); got != underBefore+1 {
		t.Errorf("RecommendationUnderflows = %v, want %v", got, underBefore+1)
	}
}

func TestRecordEvaluation(t *testing.T) {
	RecordEvaluation(9000, 3, 7, 0.021, 0.087, 20.5)

	if got := testutil.ToFloat64(EvaluationScore.WithLabelValues("ndcg")); got != 0.087 {
		t.Errorf("ndcg gauge = %v, want 0.087", got)
	}
	if got := testutil.ToFloat64(EvaluationScore.WithLabelValues("clicks")); got != 20.5 {
		t.Errorf("clicks gauge = %v, want 20.5", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	ShardsIngested.Inc()
	path := filepath.Join(t.TempDir(), "mpdrec.prom")

	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "mpdrec_shards_ingested_total") {
		t.Errorf("textfile missing mpdrec_shards_ingested_total:\n%s", data)
	}
}
