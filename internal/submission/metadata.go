// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package submission

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

// MethodPopularity names the baseline method in run metadata.
const MethodPopularity = "Popularity Baseline"

// RunMetadata describes how a submission was produced.
type RunMetadata struct {
	RunID               string            `json:"run_id"`
	Team                string            `json:"team"`
	Email               string            `json:"email,omitempty"`
	Method              string            `json:"method"`
	PlaylistsProcessed  int               `json:"playlists_processed"`
	RecsPerPlaylist     int               `json:"recommendations_per_playlist"`
	CandidatePool       int               `json:"candidate_pool"`
	Underflows          int               `json:"underflows"`
	ExecutionTimeSecond float64           `json:"execution_time_seconds"`
	GeneratedAt         time.Time         `json:"generated_at"`
	FilesUsed           map[string]string `json:"files_used"`
	Submission          string            `json:"submission"`
}

// WriteMetadata writes m as indented JSON at path.
func WriteMetadata(path string, m *RunMetadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run metadata: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metadata directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write run metadata: %w", err)
	}
	return nil
}

// ReadMetadata reads run metadata written by WriteMetadata.
func ReadMetadata(path string) (*RunMetadata, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, err
	}
	var m RunMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode run metadata %s: %w", path, err)
	}
	return &m, nil
}
