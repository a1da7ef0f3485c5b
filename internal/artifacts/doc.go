// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

/*
Package artifacts persists the output of the build stage so the recommend
stage can run in a separate process.

A store directory holds:

	track_to_idx.json         track URI -> column index
	playlist_to_idx.json      playlist id -> row index
	user_item_matrix.csr.zst  zstd-compressed binary CSR matrix
	popular_tracks.json       [uri, occurrences] pairs, most popular first
	matrix_info.json          shape, density and build summary
	manifest.json             SHA-256 checksum and size of each file above

Loading a store whose manifest is present verifies each checksum while the
file streams. A missing file is reported as a *MissingArtifactError.
*/
package artifacts
