// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package matrix

import (
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mpdrec/internal/registry"
	"github.com/tomtom215/mpdrec/internal/sparse"
)

// Dataset is the output of a build: the interaction matrix plus the
// registries that give its rows and columns meaning.
type Dataset struct {
	Matrix    *sparse.CSR
	Tracks    *registry.Registry
	Playlists *registry.Registry

	// Frequency[i] counts every occurrence of track i across all records,
	// duplicates within a playlist included.
	Frequency []int64
}

// TrackCount pairs a track URI with an occurrence count.
// It encodes as a two-element JSON array: ["spotify:track:...", 42].
type TrackCount struct {
	URI   string
	Count int64
}

// MarshalJSON implements json.Marshaler.
func (tc TrackCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{tc.URI, tc.Count})
}

// UnmarshalJSON implements json.Unmarshaler.
func (tc *TrackCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("track count: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &tc.URI); err != nil {
		return fmt.Errorf("track count uri: %w", err)
	}
	if err := json.Unmarshal(pair[1], &tc.Count); err != nil {
		return fmt.Errorf("track count value: %w", err)
	}
	return nil
}

// PopularTracks lists every track by descending occurrence count, ties in
// first-seen order. Occurrences include repeats within a playlist, so this
// order is not the recommendation ranking; use the matrix column sums for
// that.
func (d *Dataset) PopularTracks() []TrackCount {
	order := make([]int, len(d.Frequency))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return d.Frequency[order[a]] > d.Frequency[order[b]]
	})

	out := make([]TrackCount, len(order))
	for i, idx := range order {
		uri, _ := d.Tracks.Key(idx)
		out[i] = TrackCount{URI: uri, Count: d.Frequency[idx]}
	}
	return out
}

// BuildStats describes one build.
type BuildStats struct {
	Source            string    `json:"source"`
	TotalShards       int       `json:"total_shards"`
	Shards            int       `json:"shards"`
	Records           int64     `json:"records"`
	RepeatedPlaylists int64     `json:"repeated_playlists"`
	EmptyPlaylists    int64     `json:"empty_playlists"`
	TrackOccurrences  int64     `json:"track_occurrences"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
}

// Duration returns the elapsed build time, measured to now while running.
func (s *BuildStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Progress returns the share of shards processed as a percentage.
func (s *BuildStats) Progress() float64 {
	if s.TotalShards == 0 {
		return 0
	}
	return float64(s.Shards) / float64(s.TotalShards) * 100
}

// RecordsPerSecond returns the ingestion rate.
func (s *BuildStats) RecordsPerSecond() float64 {
	secs := s.Duration().Seconds()
	if secs == 0 {
		return 0
	}
	return float64(s.Records) / secs
}

// Info summarises a built matrix. It is persisted as matrix_info.json.
type Info struct {
	Playlists            int       `json:"playlists"`
	UniqueTracks         int       `json:"unique_tracks"`
	NNZ                  int       `json:"nnz"`
	DensityPercent       float64   `json:"density_percent"`
	AvgTracksPerPlaylist float64   `json:"avg_tracks_per_playlist"`
	RepeatedPlaylists    int64     `json:"repeated_playlists"`
	TrackOccurrences     int64     `json:"track_occurrences"`
	Source               string    `json:"source"`
	Shards               int       `json:"shards"`
	BuildSeconds         float64   `json:"build_seconds"`
	BuiltAt              time.Time `json:"built_at"`
}

// NewInfo derives Info from a dataset and its build stats.
func NewInfo(d *Dataset, stats *BuildStats) Info {
	rows, cols := d.Matrix.Dims()
	info := Info{
		Playlists:      rows,
		UniqueTracks:   cols,
		NNZ:            d.Matrix.NNZ(),
		DensityPercent: d.Matrix.Density() * 100,
	}
	if rows > 0 {
		info.AvgTracksPerPlaylist = float64(info.NNZ) / float64(rows)
	}
	if stats != nil {
		info.RepeatedPlaylists = stats.RepeatedPlaylists
		info.TrackOccurrences = stats.TrackOccurrences
		info.Source = stats.Source
		info.Shards = stats.Shards
		info.BuildSeconds = stats.Duration().Seconds()
		info.BuiltAt = stats.EndTime
	}
	return info
}
