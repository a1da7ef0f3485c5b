// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

// Package popularity ranks tracks by how many playlists contain them.
//
// The score of a track is its column sum in the binary interaction matrix,
// i.e. the number of distinct playlists holding it. Tracks are ordered by
// descending score; equal scores keep ascending track index, which is
// first-seen order, so the ranking is fully deterministic.
package popularity

import (
	"context"
	"slices"
	"sync"

	"github.com/tomtom215/mpdrec/internal/sparse"
)

// Ranking is an ordered list of track indices with their scores.
type Ranking struct {
	// Indices holds track indices, most popular first.
	Indices []int32
	// Counts[i] is the playlist count of Indices[i].
	Counts []int64
}

// Len returns the number of ranked tracks.
func (r *Ranking) Len() int {
	return len(r.Indices)
}

// TopK returns the first k indices, or all of them when k exceeds the length
// or is not positive.
func (r *Ranking) TopK(k int) []int32 {
	if k <= 0 || k > len(r.Indices) {
		k = len(r.Indices)
	}
	return r.Indices[:k]
}

// Rank computes the popularity ranking of every column of m.
func Rank(ctx context.Context, m *sparse.CSR) (*Ranking, error) {
	sums := m.ColumnSums()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	order := make([]int32, len(sums))
	for i := range order {
		order[i] = int32(i)
	}
	slices.SortStableFunc(order, func(a, b int32) int {
		switch {
		case sums[a] > sums[b]:
			return -1
		case sums[a] < sums[b]:
			return 1
		default:
			return 0
		}
	})

	counts := make([]int64, len(order))
	for i, idx := range order {
		counts[i] = sums[idx]
	}
	return &Ranking{Indices: order, Counts: counts}, nil
}

// Ranker caches the ranking of the last matrix it was given.
type Ranker struct {
	mu      sync.Mutex
	matrix  *sparse.CSR
	ranking *Ranking
}

// Rank returns the cached ranking when m is the matrix of the previous call,
// and recomputes it otherwise.
func (r *Ranker) Rank(ctx context.Context, m *sparse.CSR) (*Ranking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ranking != nil && r.matrix == m {
		return r.ranking, nil
	}
	ranking, err := Rank(ctx, m)
	if err != nil {
		return nil, err
	}
	r.matrix, r.ranking = m, ranking
	return ranking, nil
}
