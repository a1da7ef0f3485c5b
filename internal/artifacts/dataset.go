// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/mpdrec/internal/logging"
	"github.com/tomtom215/mpdrec/internal/matrix"
	"github.com/tomtom215/mpdrec/internal/registry"
	"github.com/tomtom215/mpdrec/internal/sparse"
)

// SaveDataset writes every artifact of a build, then the manifest.
//
// Artifacts are first written to a staging directory inside the store. The
// live files are only touched once every artifact is staged: the old manifest
// is removed, the staged files are renamed into place and the new manifest is
// written last. A save that fails while staging leaves the previous build
// intact, and a store with a manifest is always complete.
func (s *Store) SaveDataset(ctx context.Context, d *matrix.Dataset, stats *matrix.BuildStats) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logging.Ctx(ctx)
	start := time.Now()

	staging, err := os.MkdirTemp(s.dir, ".staging-*")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	m := &Manifest{
		Version:   ManifestVersion,
		RunID:     logging.RunIDFromContext(ctx),
		CreatedAt: start.UTC(),
		Entries:   make(map[string]Entry, 5),
	}

	steps := []struct {
		name  string
		write func(io.Writer) error
	}{
		{TrackRegistryFile, func(w io.Writer) error { _, err := d.Tracks.WriteTo(w); return err }},
		{PlaylistRegistryFile, func(w io.Writer) error { _, err := d.Playlists.WriteTo(w); return err }},
		{MatrixFile, func(w io.Writer) error { _, err := d.Matrix.WriteTo(w); return err }},
		{PopularTracksFile, jsonWriter(d.PopularTracks())},
		{InfoFile, jsonWriter(matrix.NewInfo(d, stats))},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := putIn(staging, step.name, step.write)
		if err != nil {
			return nil, err
		}
		m.Entries[step.name] = e
		log.Debug().Str("artifact", step.name).Int64("size_bytes", e.SizeBytes).Msg("Staged artifact")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.Remove(s.Path(ManifestFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("retire previous manifest: %w", err)
	}
	for _, step := range steps {
		if err := os.Rename(filepath.Join(staging, step.name), s.Path(step.name)); err != nil {
			return nil, fmt.Errorf("publish %s: %w", step.name, err)
		}
	}
	if _, err := s.putJSON(ManifestFile, m); err != nil {
		return nil, err
	}

	log.Info().
		Str("dir", s.dir).
		Int("artifacts", len(m.Entries)).
		Dur("duration", time.Since(start)).
		Msg("Artifacts saved")
	return m, nil
}

// LoadDataset reads the registries, matrix and track frequencies back into a
// Dataset. Checksums are verified when a manifest is present.
func (s *Store) LoadDataset(ctx context.Context) (*matrix.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.Manifest()
	if err != nil && !errors.Is(err, ErrMissingArtifact) {
		return nil, err
	}

	d := &matrix.Dataset{}
	if err := s.get(TrackRegistryFile, m.checksum(TrackRegistryFile), func(r io.Reader) error {
		var rerr error
		d.Tracks, rerr = registry.Read(r)
		return rerr
	}); err != nil {
		return nil, err
	}
	if err := s.get(PlaylistRegistryFile, m.checksum(PlaylistRegistryFile), func(r io.Reader) error {
		var rerr error
		d.Playlists, rerr = registry.Read(r)
		return rerr
	}); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.get(MatrixFile, m.checksum(MatrixFile), func(r io.Reader) error {
		var rerr error
		d.Matrix, rerr = sparse.Read(r)
		return rerr
	}); err != nil {
		return nil, err
	}

	rows, cols := d.Matrix.Dims()
	if rows != d.Playlists.Len() || cols != d.Tracks.Len() {
		return nil, fmt.Errorf("%w: matrix is %dx%d, registries hold %d playlists and %d tracks",
			ErrInconsistent, rows, cols, d.Playlists.Len(), d.Tracks.Len())
	}

	popular, err := s.loadPopularTracks(m)
	if err != nil {
		return nil, err
	}
	d.Frequency = make([]int64, cols)
	for _, tc := range popular {
		idx, ok := d.Tracks.Lookup(tc.URI)
		if !ok {
			return nil, fmt.Errorf("%w: popular track %s is not registered", ErrInconsistent, tc.URI)
		}
		d.Frequency[idx] = tc.Count
	}

	logging.Ctx(ctx).Info().
		Str("dir", s.dir).
		Int("playlists", rows).
		Int("tracks", cols).
		Int("nnz", d.Matrix.NNZ()).
		Msg("Artifacts loaded")
	return d, nil
}

// PopularTracks reads the ranked track list written by SaveDataset.
func (s *Store) PopularTracks() ([]matrix.TrackCount, error) {
	m, err := s.Manifest()
	if err != nil && !errors.Is(err, ErrMissingArtifact) {
		return nil, err
	}
	return s.loadPopularTracks(m)
}

func (s *Store) loadPopularTracks(m *Manifest) ([]matrix.TrackCount, error) {
	var out []matrix.TrackCount
	if err := s.getJSON(PopularTracksFile, m.checksum(PopularTracksFile), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Info reads the matrix summary written by SaveDataset.
func (s *Store) Info() (*matrix.Info, error) {
	var info matrix.Info
	if err := s.getJSON(InfoFile, "", &info); err != nil {
		return nil, err
	}
	return &info, nil
}
