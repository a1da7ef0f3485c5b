// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package dataset

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Shard is one JSON document of playlists.
type Shard struct {
	Name string
	open func() (io.ReadCloser, error)
}

// NewShard returns a shard whose document is produced by open.
func NewShard(name string, open func() (io.ReadCloser, error)) Shard {
	return Shard{Name: name, open: open}
}

// Open returns a reader over the raw shard document.
func (s Shard) Open() (io.ReadCloser, error) {
	return s.open()
}

// Decode streams the shard's playlists to fn.
func (s Shard) Decode(ctx context.Context, fn func(Playlist) error) error {
	rc, err := s.Open()
	if err != nil {
		return fmt.Errorf("open shard %s: %w", s.Name, err)
	}
	defer rc.Close()
	return DecodeShard(ctx, s.Name, rc, fn)
}

// ReadAll decodes every playlist in the shard.
func (s Shard) ReadAll(ctx context.Context) ([]Playlist, error) {
	var out []Playlist
	err := s.Decode(ctx, func(p Playlist) error {
		out = append(out, p)
		return nil
	})
	return out, err
}

// Source lists the shards of a playlist collection in a stable order.
type Source interface {
	// Name describes the source for logs and metadata.
	Name() string
	// Shards returns the shards in processing order.
	Shards() ([]Shard, error)
	// Close releases any underlying file handles.
	Close() error
}

// ZipSource reads shards from a zip archive. With no entries named, every
// *.json member is a shard, ordered by name.
type ZipSource struct {
	path    string
	entries []string
	zr      *zip.ReadCloser
}

// OpenZip opens the archive at p. Named entries restrict and order the shards.
func OpenZip(p string, entries ...string) (*ZipSource, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingSourceError{Path: p}
		}
		return nil, fmt.Errorf("open archive %s: %w", p, err)
	}
	return &ZipSource{path: p, entries: entries, zr: zr}, nil
}

// Name returns the archive file name.
func (z *ZipSource) Name() string {
	return filepath.Base(z.path)
}

// Shards implements Source.
func (z *ZipSource) Shards() ([]Shard, error) {
	byName := make(map[string]*zip.File, len(z.zr.File))
	for _, f := range z.zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		byName[f.Name] = f
		// Members are matched by base name too, so archives with a
		// top-level folder still resolve "test_input_playlists.json".
		base := path.Base(f.Name)
		if _, ok := byName[base]; !ok {
			byName[base] = f
		}
	}

	if len(z.entries) > 0 {
		shards := make([]Shard, 0, len(z.entries))
		for _, name := range z.entries {
			f, ok := byName[name]
			if !ok {
				return nil, &MissingSourceError{Path: z.path, Entry: name}
			}
			shards = append(shards, zipShard(f))
		}
		return shards, nil
	}

	var files []*zip.File
	for _, f := range z.zr.File {
		if !f.FileInfo().IsDir() && strings.HasSuffix(strings.ToLower(f.Name), ".json") {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	shards := make([]Shard, len(files))
	for i, f := range files {
		shards[i] = zipShard(f)
	}
	return shards, nil
}

func zipShard(f *zip.File) Shard {
	return Shard{Name: f.Name, open: f.Open}
}

// Close closes the archive.
func (z *ZipSource) Close() error {
	return z.zr.Close()
}

// DirSource reads every *.json file in a directory as a shard, ordered by name.
type DirSource struct {
	dir string
}

// OpenDir returns a source over dir.
func OpenDir(dir string) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingSourceError{Path: dir}
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &DirSource{dir: dir}, nil
}

// Name returns the directory base name.
func (d *DirSource) Name() string {
	return filepath.Base(d.dir)
}

// Shards implements Source.
func (d *DirSource) Shards() ([]Shard, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.dir, err)
	}

	var shards []Shard
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			continue
		}
		p := filepath.Join(d.dir, e.Name())
		shards = append(shards, Shard{
			Name: e.Name(),
			open: func() (io.ReadCloser, error) { return os.Open(p) }, //nolint:gosec // path is inside the configured directory
		})
	}
	return shards, nil
}

// Close is a no-op.
func (d *DirSource) Close() error { return nil }

// SliceSource serves in-memory shards, one per element of Shards.
type SliceSource struct {
	Label string
	Data  [][]Playlist
}

// Name returns the label.
func (s *SliceSource) Name() string {
	if s.Label == "" {
		return "memory"
	}
	return s.Label
}

// Shards implements Source by encoding each playlist slice as a shard document.
func (s *SliceSource) Shards() ([]Shard, error) {
	shards := make([]Shard, len(s.Data))
	for i, pls := range s.Data {
		doc, err := EncodeShard(pls)
		if err != nil {
			return nil, err
		}
		shards[i] = Shard{
			Name: fmt.Sprintf("%s.slice.%d.json", s.Name(), i),
			open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(doc)), nil },
		}
	}
	return shards, nil
}

// Close is a no-op.
func (s *SliceSource) Close() error { return nil }

type shardDoc struct {
	Playlists []shardPlaylist `json:"playlists"`
}

type shardPlaylist struct {
	PID    string       `json:"pid"`
	Tracks []shardTrack `json:"tracks"`
}

type shardTrack struct {
	TrackURI string `json:"track_uri"`
}

// EncodeShard renders playlists in the shard document format.
func EncodeShard(pls []Playlist) ([]byte, error) {
	doc := shardDoc{Playlists: make([]shardPlaylist, len(pls))}
	for i, p := range pls {
		tracks := make([]shardTrack, len(p.Tracks))
		for j, t := range p.Tracks {
			tracks[j] = shardTrack{TrackURI: t}
		}
		doc.Playlists[i] = shardPlaylist{PID: p.PID, Tracks: tracks}
	}
	return json.Marshal(doc)
}

// Open returns a Source for p: a zip archive when p ends in .zip, otherwise a
// directory of shards.
func Open(p string, entries ...string) (Source, error) {
	if strings.HasSuffix(strings.ToLower(p), ".zip") {
		return OpenZip(p, entries...)
	}
	return OpenDir(p)
}

// LoadEntry decodes one named member of the archive or directory at p,
// preserving record order.
func LoadEntry(ctx context.Context, p, entry string) ([]Playlist, error) {
	var src Source
	var err error
	if strings.HasSuffix(strings.ToLower(p), ".zip") {
		src, err = OpenZip(p, entry)
	} else {
		src, err = openDirEntry(p, entry)
	}
	if err != nil {
		return nil, err
	}
	defer src.Close()

	shards, err := src.Shards()
	if err != nil {
		return nil, err
	}
	var out []Playlist
	for _, s := range shards {
		pls, err := s.ReadAll(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, pls...)
	}
	return out, nil
}

// fileSource serves a single named file from a directory.
type fileSource struct {
	path string
}

func openDirEntry(dir, entry string) (*fileSource, error) {
	p := filepath.Join(dir, entry)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingSourceError{Path: dir, Entry: entry}
		}
		return nil, err
	}
	return &fileSource{path: p}, nil
}

func (f *fileSource) Name() string { return filepath.Base(f.path) }

func (f *fileSource) Shards() ([]Shard, error) {
	p := f.path
	return []Shard{{
		Name: filepath.Base(p),
		open: func() (io.ReadCloser, error) { return os.Open(p) }, //nolint:gosec // configured path
	}}, nil
}

func (f *fileSource) Close() error { return nil }
