// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

type rawTrack struct {
	TrackURI *string `json:"track_uri"`
}

type rawPlaylist struct {
	PID    json.RawMessage `json:"pid"`
	Tracks []rawTrack      `json:"tracks"`
}

// DecodeShard streams the playlists of one shard to fn without holding the
// whole document in memory. Keys other than "playlists" are skipped.
// A shard with no "playlists" key is malformed.
func DecodeShard(ctx context.Context, shard string, r io.Reader, fn func(Playlist) error) error {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return &MalformedRecordError{Shard: shard, Index: -1, Field: "playlists", Err: err}
	}

	found := false
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return &MalformedRecordError{Shard: shard, Index: -1, Field: "playlists", Err: err}
		}
		key, _ := tok.(string)
		if key != "playlists" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return &MalformedRecordError{Shard: shard, Index: -1, Field: key, Err: err}
			}
			continue
		}

		found = true
		if err := decodePlaylists(ctx, shard, dec, fn); err != nil {
			return err
		}
	}

	if !found {
		return &MalformedRecordError{Shard: shard, Index: -1, Field: "playlists"}
	}
	return nil
}

func decodePlaylists(ctx context.Context, shard string, dec *json.Decoder, fn func(Playlist) error) error {
	if err := expectDelim(dec, '['); err != nil {
		return &MalformedRecordError{Shard: shard, Index: -1, Field: "playlists", Err: err}
	}

	for i := 0; dec.More(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var raw rawPlaylist
		if err := dec.Decode(&raw); err != nil {
			return &MalformedRecordError{Shard: shard, Index: i, Field: "playlist", Err: err}
		}
		pl, err := raw.normalize()
		if err != nil {
			var mre *MalformedRecordError
			if errors.As(err, &mre) {
				mre.Shard, mre.Index = shard, i
			}
			return err
		}
		if err := fn(pl); err != nil {
			return err
		}
	}

	if err := expectDelim(dec, ']'); err != nil {
		return &MalformedRecordError{Shard: shard, Index: -1, Field: "playlists", Err: err}
	}
	return nil
}

func (raw *rawPlaylist) normalize() (Playlist, error) {
	pid, err := playlistID(raw.PID)
	if err != nil {
		return Playlist{}, &MalformedRecordError{Field: "pid", Err: err}
	}

	tracks := make([]string, 0, len(raw.Tracks))
	for _, t := range raw.Tracks {
		// Any present value is an id, the empty string included.
		if t.TrackURI == nil {
			return Playlist{}, &MalformedRecordError{Field: "track_uri"}
		}
		tracks = append(tracks, *t.TrackURI)
	}
	return Playlist{PID: pid, Tracks: tracks}, nil
}

// playlistID converts a raw pid value to its text form.
func playlistID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("missing")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		if s == "" {
			return "", errors.New("empty")
		}
		return s, nil
	}

	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return "", fmt.Errorf("not a number or string: %s", raw)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("not a number: %s", raw)
	}
	return n.String(), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
