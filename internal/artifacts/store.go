// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package artifacts

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Artifact file names inside a store directory.
const (
	TrackRegistryFile    = "track_to_idx.json"
	PlaylistRegistryFile = "playlist_to_idx.json"
	MatrixFile           = "user_item_matrix.csr.zst"
	PopularTracksFile    = "popular_tracks.json"
	InfoFile             = "matrix_info.json"
	ManifestFile         = "manifest.json"
)

// ManifestVersion is the current manifest layout.
const ManifestVersion = 1

var (
	// ErrMissingArtifact is matched by every MissingArtifactError.
	ErrMissingArtifact = errors.New("artifact not found")

	// ErrChecksumMismatch means an artifact differs from its manifest entry.
	ErrChecksumMismatch = errors.New("artifact checksum mismatch")

	// ErrInconsistent means the artifacts in a store disagree with each other.
	ErrInconsistent = errors.New("artifacts are inconsistent")
)

// MissingArtifactError reports an artifact absent from the store.
type MissingArtifactError struct {
	Name string
	Path string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("artifact %s not found at %s (run the build stage first)", e.Name, e.Path)
}

// Is matches ErrMissingArtifact.
func (e *MissingArtifactError) Is(target error) bool {
	return target == ErrMissingArtifact
}

// ErrorType labels the error for metrics.
func (e *MissingArtifactError) ErrorType() string {
	return "missing_artifact"
}

// Entry describes one stored artifact.
type Entry struct {
	Name      string    `json:"name"`
	Checksum  string    `json:"checksum"`
	SizeBytes int64     `json:"size_bytes"`
	SavedAt   time.Time `json:"saved_at"`
}

// Manifest lists the artifacts of one build.
type Manifest struct {
	Version   int              `json:"version"`
	RunID     string           `json:"run_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Entries   map[string]Entry `json:"entries"`
}

// Store is a directory of build artifacts. Every file is written to a
// temporary name and renamed into place, so readers never observe a partial
// artifact.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open returns the store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the location of the named artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// put writes one artifact into the store directory and returns its manifest
// entry.
func (s *Store) put(name string, write func(io.Writer) error) (Entry, error) {
	return putIn(s.dir, name, write)
}

// putIn writes one artifact to dir/name through a temporary file.
func putIn(dir, name string, write func(io.Writer) error) (Entry, error) {
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return Entry{}, fmt.Errorf("create %s: %w", name, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	cw := &countingWriter{w: io.MultiWriter(tmp, h)}
	if err := write(cw); err != nil {
		_ = tmp.Close()
		return Entry{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return Entry{}, fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return Entry{}, fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return Entry{}, fmt.Errorf("publish %s: %w", name, err)
	}

	return Entry{
		Name:      name,
		Checksum:  hex.EncodeToString(h.Sum(nil)),
		SizeBytes: cw.n,
		SavedAt:   time.Now().UTC(),
	}, nil
}

// putJSON writes v as indented JSON.
func (s *Store) putJSON(name string, v interface{}) (Entry, error) {
	return s.put(name, jsonWriter(v))
}

func jsonWriter(v interface{}) func(io.Writer) error {
	return func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// open opens the named artifact. A missing file yields a MissingArtifactError.
func (s *Store) open(name string) (*os.File, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingArtifactError{Name: name, Path: s.Path(name)}
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// get opens the named artifact and passes it to read. When want is non-empty
// the bytes are hashed as they stream and compared to it.
func (s *Store) get(name, want string, read func(io.Reader) error) error {
	f, err := s.open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	var h hash.Hash
	var r io.Reader = f
	if want != "" {
		h = sha256.New()
		r = io.TeeReader(f, h)
	}
	if err := read(r); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if h == nil {
		return nil
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if got := hex.EncodeToString(h.Sum(nil)); got != want {
		return fmt.Errorf("%w: %s has %s, manifest records %s", ErrChecksumMismatch, name, got, want)
	}
	return nil
}

// getJSON decodes the named JSON artifact into v.
func (s *Store) getJSON(name, want string, v interface{}) error {
	return s.get(name, want, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(v)
	})
}

// Manifest reads the store manifest.
func (s *Store) Manifest() (*Manifest, error) {
	var m Manifest
	if err := s.getJSON(ManifestFile, "", &m); err != nil {
		return nil, err
	}
	if m.Entries == nil {
		m.Entries = map[string]Entry{}
	}
	return &m, nil
}

// checksum returns the manifest checksum of name, or "" when unknown.
func (m *Manifest) checksum(name string) string {
	if m == nil {
		return ""
	}
	return m.Entries[name].Checksum
}

// Verify recomputes the checksum of every manifest entry.
func (s *Store) Verify() error {
	m, err := s.Manifest()
	if err != nil {
		return err
	}
	for name, e := range m.Entries {
		if err := s.get(name, e.Checksum, func(io.Reader) error { return nil }); err != nil {
			return err
		}
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
