// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

/*
Package evaluate scores recommendation lists against withheld tracks.

For a prediction list P (zero-based positions) and ground-truth set G:

	R-Precision = |P[:|G|] ∩ G| / |G|              (0 when G is empty)
	DCG         = Σ_{i: P[i] ∈ G} 1 / log2(i + 2)
	IDCG        = Σ_{i < |G|} 1 / log2(i + 2)
	NDCG        = DCG / IDCG                          (0 when IDCG is 0)
	Clicks      = floor(first hit / 10)               (51 with no hit)

Higher is better for R-Precision and NDCG; lower is better for Clicks.

An Evaluator matches predictions to ground truth by playlist id, scores the
matched pairs in parallel, and reports the mean of each metric over the
matched playlists only. Playlists present on one side only are counted in
the Report and never enter the means.
*/
package evaluate
