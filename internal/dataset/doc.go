// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

/*
Package dataset reads playlist collections in the Million Playlist Dataset
shard format.

A shard is a JSON document of the form:

	{
	    "info": {...},
	    "playlists": [
	        {"pid": 0, "tracks": [{"track_uri": "spotify:track:..."}, ...]},
	        ...
	    ]
	}

Shards are decoded as a token stream, one playlist object at a time, so a
1000-playlist slice never needs to be materialised as a whole document.

# Sources

  - ZipSource: members of a zip archive (the distributed training and test
    archives)
  - DirSource: *.json files in an extracted directory
  - SliceSource: in-memory playlists, used by tests

Sources return shards in name order so that index assignment downstream is
reproducible.

# Errors

A playlist without a pid, or a track without a track_uri, yields a
*MalformedRecordError (errors.Is(err, ErrMalformedRecord)). A null track_uri
counts as missing; an empty string is kept as an id. A missing archive,
directory or archive member yields a *MissingSourceError.
*/
package dataset
