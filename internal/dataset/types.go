// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package dataset

import (
	"errors"
	"fmt"
)

// Test archive members.
const (
	TestInputEntry = "test_input_playlists.json"
	TestEvalEntry  = "test_eval_playlists.json"
)

// Playlist is one decoded playlist record. PID is the playlist id in text
// form: numeric ids keep their JSON literal text, string ids are unquoted.
// Tracks keeps source order and may contain repeats.
type Playlist struct {
	PID    string
	Tracks []string
}

// TrackSet returns the distinct tracks of the playlist.
func (p Playlist) TrackSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Tracks))
	for _, t := range p.Tracks {
		set[t] = struct{}{}
	}
	return set
}

// ErrMalformedRecord marks a playlist record missing a required field.
var ErrMalformedRecord = errors.New("malformed record")

// ErrMissingSource marks an input archive, directory or member that does not exist.
var ErrMissingSource = errors.New("missing input")

// MalformedRecordError identifies the record that failed to decode.
// Index is the position of the playlist inside its shard, or -1 when the
// shard itself is malformed.
type MalformedRecordError struct {
	Shard string
	Index int
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("%s: shard %q record %d: field %q", ErrMalformedRecord, e.Shard, e.Index, e.Field)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports ErrMalformedRecord.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// MissingSourceError reports an input that could not be found.
type MissingSourceError struct {
	Path  string
	Entry string
}

func (e *MissingSourceError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("%s: %s in %s", ErrMissingSource, e.Entry, e.Path)
	}
	return fmt.Sprintf("%s: %s", ErrMissingSource, e.Path)
}

// Is reports ErrMissingSource.
func (e *MissingSourceError) Is(target error) bool {
	return target == ErrMissingSource
}
