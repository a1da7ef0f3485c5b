// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package dataset

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func decodeAll(t *testing.T, doc string) ([]Playlist, error) {
	t.Helper()
	var out []Playlist
	err := DecodeShard(context.Background(), "test.json", strings.NewReader(doc), func(p Playlist) error {
		out = append(out, p)
		return nil
	})
	return out, err
}

func TestDecodeShard(t *testing.T) {
	doc := `{
		"info": {"generated_on": "2017-12-03", "slice": "0-999"},
		"playlists": [
			{"name": "road trip", "pid": 0, "tracks": [
				{"pos": 0, "track_uri": "spotify:track:a"},
				{"pos": 1, "track_uri": "spotify:track:b"},
				{"pos": 2, "track_uri": "spotify:track:a"}
			]},
			{"pid": "p-17", "tracks": []},
			{"pid": 42}
		]
	}`

	got, err := decodeAll(t, doc)
	if err != nil {
		t.Fatalf("DecodeShard() error = %v", err)
	}

	want := []Playlist{
		{PID: "0", Tracks: []string{"spotify:track:a", "spotify:track:b", "spotify:track:a"}},
		{PID: "p-17", Tracks: []string{}},
		{PID: "42", Tracks: []string{}},
	}
	if len(got) != len(want) {
		t.Fatalf("decoded %d playlists, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].PID != want[i].PID {
			t.Errorf("playlist %d PID = %q, want %q", i, got[i].PID, want[i].PID)
		}
		if !slices.Equal(got[i].Tracks, want[i].Tracks) {
			t.Errorf("playlist %d Tracks = %v, want %v", i, got[i].Tracks, want[i].Tracks)
		}
	}

	if n := len(got[0].TrackSet()); n != 2 {
		t.Errorf("TrackSet() has %d tracks, want 2", n)
	}
}

func TestDecodeShard_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
		wantIndex int
	}{
		{
			name:      "missing pid",
			doc:       `{"playlists": [{"pid": 1, "tracks": []}, {"tracks": []}]}`,
			wantField: "pid",
			wantIndex: 1,
		},
		{
			name:      "null pid",
			doc:       `{"playlists": [{"pid": null, "tracks": []}]}`,
			wantField: "pid",
			wantIndex: 0,
		},
		{
			name:      "boolean pid",
			doc:       `{"playlists": [{"pid": true, "tracks": []}]}`,
			wantField: "pid",
			wantIndex: 0,
		},
		{
			name:      "missing track_uri",
			doc:       `{"playlists": [{"pid": 1, "tracks": [{"pos": 0}]}]}`,
			wantField: "track_uri",
			wantIndex: 0,
		},
		{
			name:      "no playlists key",
			doc:       `{"info": {}}`,
			wantField: "playlists",
			wantIndex: -1,
		},
		{
			name:      "not an object",
			doc:       `[1, 2, 3]`,
			wantField: "playlists",
			wantIndex: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeAll(t, tt.doc)
			if !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("DecodeShard() error = %v, want ErrMalformedRecord", err)
			}
			var mre *MalformedRecordError
			if !errors.As(err, &mre) {
				t.Fatalf("error %T is not *MalformedRecordError", err)
			}
			if mre.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", mre.Field, tt.wantField)
			}
			if mre.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", mre.Index, tt.wantIndex)
			}
			if mre.Shard != "test.json" {
				t.Errorf("Shard = %q, want test.json", mre.Shard)
			}
		})
	}
}

func TestDecodeShard_EmptyTrackURI(t *testing.T) {
	got, err := decodeAll(t, `{"playlists": [{"pid": 4, "tracks": [{"track_uri": ""}, {"track_uri": "spotify:track:a"}]}]}`)
	if err != nil {
		t.Fatalf("DecodeShard() error = %v", err)
	}
	if len(got) != 1 || !slices.Equal(got[0].Tracks, []string{"", "spotify:track:a"}) {
		t.Errorf("DecodeShard() = %+v, want one playlist with tracks [\"\" spotify:track:a]", got)
	}

	_, err = decodeAll(t, `{"playlists": [{"pid": 4, "tracks": [{"track_uri": null}]}]}`)
	var mre *MalformedRecordError
	if !errors.As(err, &mre) || mre.Field != "track_uri" {
		t.Errorf("null track_uri error = %v, want MalformedRecordError for track_uri", err)
	}
}

func TestDecodeShard_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := DecodeShard(ctx, "x", strings.NewReader(`{"playlists":[{"pid":1,"tracks":[]}]}`), func(Playlist) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("DecodeShard() error = %v, want context.Canceled", err)
	}
}

func writeZip(t *testing.T, members map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "archive.zip")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestZipSource_OrdersJSONMembers(t *testing.T) {
	p := writeZip(t, map[string]string{
		"data/mpd.slice.1000-1999.json": `{"playlists":[{"pid":1000,"tracks":[]}]}`,
		"data/mpd.slice.0-999.json":     `{"playlists":[{"pid":0,"tracks":[]}]}`,
		"README.md":                     "not a shard",
	})

	src, err := OpenZip(p)
	if err != nil {
		t.Fatalf("OpenZip() error = %v", err)
	}
	defer src.Close()

	shards, err := src.Shards()
	if err != nil {
		t.Fatalf("Shards() error = %v", err)
	}
	if len(shards) != 2 {
		t.Fatalf("Shards() returned %d shards, want 2", len(shards))
	}
	if shards[0].Name != "data/mpd.slice.0-999.json" {
		t.Errorf("first shard = %q, want the 0-999 slice", shards[0].Name)
	}

	pls, err := shards[1].ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(pls) != 1 || pls[0].PID != "1000" {
		t.Errorf("ReadAll() = %+v, want pid 1000", pls)
	}
}

func TestLoadEntry(t *testing.T) {
	p := writeZip(t, map[string]string{
		"challenge/" + TestInputEntry: `{"playlists":[{"pid":7,"tracks":[{"track_uri":"spotify:track:x"}]}]}`,
		TestEvalEntry:                 `{"playlists":[{"pid":7,"tracks":[{"track_uri":"spotify:track:y"}]}]}`,
	})

	tests := []struct {
		name      string
		entry     string
		wantTrack string
	}{
		{"nested member matched by base name", TestInputEntry, "spotify:track:x"},
		{"top-level member", TestEvalEntry, "spotify:track:y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pls, err := LoadEntry(context.Background(), p, tt.entry)
			if err != nil {
				t.Fatalf("LoadEntry() error = %v", err)
			}
			if len(pls) != 1 || pls[0].Tracks[0] != tt.wantTrack {
				t.Errorf("LoadEntry() = %+v, want track %s", pls, tt.wantTrack)
			}
		})
	}

	_, err := LoadEntry(context.Background(), p, "nope.json")
	if !errors.Is(err, ErrMissingSource) {
		t.Errorf("LoadEntry(missing member) error = %v, want ErrMissingSource", err)
	}
}

func TestLoadEntry_Directory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, TestEvalEntry), []byte(`{"playlists":[{"pid":"9","tracks":[]}]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	pls, err := LoadEntry(context.Background(), dir, TestEvalEntry)
	if err != nil {
		t.Fatalf("LoadEntry() error = %v", err)
	}
	if len(pls) != 1 || pls[0].PID != "9" {
		t.Errorf("LoadEntry() = %+v", pls)
	}

	if _, err := LoadEntry(context.Background(), dir, TestInputEntry); !errors.Is(err, ErrMissingSource) {
		t.Errorf("LoadEntry(missing file) error = %v, want ErrMissingSource", err)
	}
}

func TestOpen_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	for _, p := range []string{missing + ".zip", missing} {
		if _, err := Open(p); !errors.Is(err, ErrMissingSource) {
			t.Errorf("Open(%s) error = %v, want ErrMissingSource", p, err)
		}
	}
}

func TestDirSourceAndSliceSource(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"b.json":  `{"playlists":[{"pid":2,"tracks":[]}]}`,
		"a.json":  `{"playlists":[{"pid":1,"tracks":[]}]}`,
		"c.txt":   "skip",
		"sub.zip": "skip",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	src, err := OpenDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	shards, err := src.Shards()
	if err != nil {
		t.Fatal(err)
	}
	if len(shards) != 2 || shards[0].Name != "a.json" {
		t.Fatalf("Shards() = %v, want [a.json b.json]", shards)
	}

	mem := &SliceSource{Data: [][]Playlist{{{PID: "5", Tracks: []string{"t"}}}}}
	ms, err := mem.Shards()
	if err != nil {
		t.Fatal(err)
	}
	pls, err := ms[0].ReadAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(pls) != 1 || pls[0].PID != "5" || pls[0].Tracks[0] != "t" {
		t.Errorf("SliceSource round trip = %+v", pls)
	}
}
