// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

// Package recommend turns a popularity ranking into continuation lists.
//
// # Generation
//
// A Generator holds the top of the global ranking as track ids. For each
// playlist it walks that list in order and emits the first K tracks the
// playlist does not already contain:
//
//	gen, err := recommend.NewGenerator(ranking, d.Tracks, 2000)
//	res := gen.Recommend(playlist.TrackSet(), 500)
//
// Lists are never padded. When the candidates run out before K tracks,
// Result.Underflow is set and the caller decides what to do with the short
// list. A candidate pool of 0 keeps the whole ranking, which only underflows
// when a playlist already holds nearly every known track.
//
// # Batches
//
// Batch.Run fans playlists out over a bounded errgroup. Results keep input
// order, and underflows are counted, logged and exported as metrics.
//
// # Thread Safety
//
// A Generator is read-only after construction and safe for concurrent use.
package recommend
