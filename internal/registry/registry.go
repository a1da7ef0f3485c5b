// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

// Package registry assigns dense integer indices to opaque string keys.
//
// A Registry hands out indices in first-seen order: the first key registered
// gets 0, the next unseen key gets 1, and so on. Indices are never reused or
// removed, so an index observed once stays valid for the life of the registry.
// Track URIs and playlist ids each get their own registry, owned by the build
// that created them.
//
//	tracks := registry.New()
//	idx, isNew := tracks.Register("spotify:track:abc")
//	key, _ := tracks.Key(idx)
package registry

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/goccy/go-json"
)

// ErrFrozen is returned when a new key is registered after Freeze.
var ErrFrozen = errors.New("registry is frozen")

// ErrNotDense is returned when a persisted mapping is not a permutation of 0..n-1.
var ErrNotDense = errors.New("registry indices are not dense")

// Registry is a bidirectional key <-> dense index mapping.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	index  map[string]int
	keys   []string
	frozen bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{index: make(map[string]int)}
}

// WithCapacity creates an empty registry sized for n keys.
func WithCapacity(n int) *Registry {
	return &Registry{
		index: make(map[string]int, n),
		keys:  make([]string, 0, n),
	}
}

// Register returns the index of key, assigning the next free index if the
// key has not been seen. The boolean reports whether a new index was assigned.
// Register panics if the registry is frozen and key is unseen; use
// TryRegister where that can happen.
func (r *Registry) Register(key string) (int, bool) {
	idx, isNew, err := r.TryRegister(key)
	if err != nil {
		panic(err)
	}
	return idx, isNew
}

// TryRegister is Register that reports ErrFrozen instead of panicking.
func (r *Registry) TryRegister(key string) (int, bool, error) {
	r.mu.RLock()
	idx, ok := r.index[key]
	r.mu.RUnlock()
	if ok {
		return idx, false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock.
	if idx, ok := r.index[key]; ok {
		return idx, false, nil
	}
	if r.frozen {
		return -1, false, fmt.Errorf("register %q: %w", key, ErrFrozen)
	}

	idx = len(r.keys)
	r.index[key] = idx
	r.keys = append(r.keys, key)
	return idx, true, nil
}

// Lookup returns the index of key without registering it.
func (r *Registry) Lookup(key string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.index[key]
	return idx, ok
}

// Key returns the key at index idx.
func (r *Registry) Key(idx int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx < 0 || idx >= len(r.keys) {
		return "", false
	}
	return r.keys[idx], true
}

// Keys returns a copy of all keys ordered by index.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

// Freeze rejects any further new keys. Lookups keep working.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// MarshalJSON encodes the registry as a flat {"key": index} object.
func (r *Registry) MarshalJSON() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return json.Marshal(r.index)
}

// UnmarshalJSON replaces the registry contents with a flat {"key": index}
// object. The indices must form a permutation of 0..n-1.
func (r *Registry) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode registry: %w", err)
	}
	keys, err := denseKeys(m)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = m
	r.keys = keys
	r.frozen = false
	return nil
}

func denseKeys(m map[string]int) ([]string, error) {
	keys := make([]string, len(m))
	seen := make([]bool, len(m))
	for k, idx := range m {
		if idx < 0 || idx >= len(m) || seen[idx] {
			return nil, fmt.Errorf("key %q has index %d: %w", k, idx, ErrNotDense)
		}
		seen[idx] = true
		keys[idx] = k
	}
	return keys, nil
}

// WriteTo writes the JSON form of the registry to w.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	data, err := r.MarshalJSON()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Read decodes a registry from r. The result is frozen.
func Read(rd io.Reader) (*Registry, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	reg := New()
	if err := reg.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	reg.Freeze()
	return reg, nil
}

// ReadFile decodes a registry from the JSON file at path. The result is frozen.
func ReadFile(path string) (*Registry, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
