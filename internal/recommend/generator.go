// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package recommend

import (
	"errors"
	"fmt"

	"github.com/tomtom215/mpdrec/internal/popularity"
	"github.com/tomtom215/mpdrec/internal/registry"
)

// DefaultK is the recommendation list length required by the challenge.
const DefaultK = 500

// ErrUnderflow marks a recommendation list shorter than requested.
var ErrUnderflow = errors.New("recommendation underflow")

// ErrRegistryMismatch is returned when the ranking references a track index
// the registry does not know.
var ErrRegistryMismatch = errors.New("ranking does not match track registry")

// UnderflowError describes a short list.
type UnderflowError struct {
	PID  string
	Want int
	Got  int
}

func (e *UnderflowError) Error() string {
	return fmt.Sprintf("%s: playlist %s got %d of %d tracks", ErrUnderflow, e.PID, e.Got, e.Want)
}

// Is reports ErrUnderflow.
func (e *UnderflowError) Is(target error) bool {
	return target == ErrUnderflow
}

// ErrorType names the error for metrics.
func (e *UnderflowError) ErrorType() string {
	return "underflow"
}

// Result is one recommendation list.
type Result struct {
	Tracks []string
	// Underflow is set when fewer than the requested number of tracks were
	// available after removing seeds.
	Underflow bool
}

// Generator produces popularity recommendations from a fixed ranking. The
// top of the ranking is translated to track ids up front; tracks past that
// pool are resolved through the registry only when a playlist's seeds use up
// the pool. It holds no mutable state and is safe for concurrent use.
type Generator struct {
	candidates []string
	rest       []int32
	tracks     *registry.Registry
}

// NewGenerator translates the top pool tracks of the ranking into track ids;
// 0 translates the whole ranking. Every ranked index must be registered.
func NewGenerator(ranking *popularity.Ranking, tracks *registry.Registry, pool int) (*Generator, error) {
	n := tracks.Len()
	for i, idx := range ranking.Indices {
		if int(idx) < 0 || int(idx) >= n {
			return nil, fmt.Errorf("track index %d at rank %d: %w", idx, i, ErrRegistryMismatch)
		}
	}

	top := ranking.TopK(pool)
	candidates := make([]string, len(top))
	for i, idx := range top {
		uri, _ := tracks.Key(int(idx))
		candidates[i] = uri
	}
	return &Generator{
		candidates: candidates,
		rest:       ranking.Indices[len(top):],
		tracks:     tracks,
	}, nil
}

// Candidates returns the number of tracks translated up front.
func (g *Generator) Candidates() int {
	return len(g.candidates)
}

// Ranked returns the number of tracks in the full ranking.
func (g *Generator) Ranked() int {
	return len(g.candidates) + len(g.rest)
}

// Recommend returns up to k tracks in ranking order, skipping any track in
// seeds. The list is never padded: Result.Underflow is set only when the
// whole ranking runs out first.
func (g *Generator) Recommend(seeds map[string]struct{}, k int) Result {
	if k <= 0 {
		return Result{Tracks: []string{}}
	}

	out := make([]string, 0, k)
	take := func(uri string) bool {
		if _, seen := seeds[uri]; seen {
			return false
		}
		out = append(out, uri)
		return len(out) == k
	}

	for _, uri := range g.candidates {
		if take(uri) {
			return Result{Tracks: out}
		}
	}
	for _, idx := range g.rest {
		uri, _ := g.tracks.Key(int(idx))
		if take(uri) {
			return Result{Tracks: out}
		}
	}
	return Result{Tracks: out, Underflow: len(out) < k}
}
