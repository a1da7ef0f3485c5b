// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package evaluate

import (
	"math"
)

// NoHitClicks is the Clicks value when no relevant track appears in the list.
// It is one more than the number of 10-track pages in a 500-track list.
const NoHitClicks = 51.0

// Truth is a ground-truth track set.
type Truth map[string]struct{}

// NewTruth builds a Truth from a track list, dropping repeats.
func NewTruth(tracks []string) Truth {
	t := make(Truth, len(tracks))
	for _, uri := range tracks {
		t[uri] = struct{}{}
	}
	return t
}

func (t Truth) has(uri string) bool {
	_, ok := t[uri]
	return ok
}

// RPrecision is the fraction of the first |truth| predictions that are
// relevant. It is 0 when truth is empty.
func RPrecision(prediction []string, truth Truth) float64 {
	n := len(truth)
	if n == 0 {
		return 0
	}
	window := prediction
	if len(window) > n {
		window = window[:n]
	}

	hits := 0
	for _, uri := range window {
		if truth.has(uri) {
			hits++
		}
	}
	return float64(hits) / float64(n)
}

// DCG sums 1/log2(i+2) over the zero-based positions i of relevant predictions.
func DCG(prediction []string, truth Truth) float64 {
	var score float64
	for i, uri := range prediction {
		if truth.has(uri) {
			score += 1 / math.Log2(float64(i+2))
		}
	}
	return score
}

// IDCG is the DCG of a list whose first n entries are all relevant.
func IDCG(n int) float64 {
	var score float64
	for i := 0; i < n; i++ {
		score += 1 / math.Log2(float64(i+2))
	}
	return score
}

// NDCG is DCG normalised by the ideal DCG for |truth| relevant tracks.
// It is 0 when the ideal DCG is 0.
func NDCG(prediction []string, truth Truth) float64 {
	ideal := IDCG(len(truth))
	if ideal == 0 {
		return 0
	}
	return DCG(prediction, truth) / ideal
}

// Clicks is the number of 10-track pages shown before the first relevant
// track, or NoHitClicks when there is none.
func Clicks(prediction []string, truth Truth) float64 {
	for i, uri := range prediction {
		if truth.has(uri) {
			return float64(i / 10)
		}
	}
	return NoHitClicks
}

// Scores holds the three metrics for one playlist.
type Scores struct {
	RPrecision float64 `json:"r_precision"`
	NDCG       float64 `json:"ndcg"`
	Clicks     float64 `json:"clicks"`
}

// Evaluate computes all three metrics.
func Evaluate(prediction []string, truth Truth) Scores {
	return Scores{
		RPrecision: RPrecision(prediction, truth),
		NDCG:       NDCG(prediction, truth),
		Clicks:     Clicks(prediction, truth),
	}
}
