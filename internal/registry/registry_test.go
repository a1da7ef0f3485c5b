// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package registry

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestRegister_FirstSeenOrder(t *testing.T) {
	r := New()

	inputs := []string{"t1", "t2", "t1", "t3", "t2"}
	want := []int{0, 1, 0, 2, 1}
	wantNew := []bool{true, true, false, true, false}

	for i, key := range inputs {
		idx, isNew := r.Register(key)
		if idx != want[i] {
			t.Errorf("Register(%q) = %d, want %d", key, idx, want[i])
		}
		if isNew != wantNew[i] {
			t.Errorf("Register(%q) isNew = %v, want %v", key, isNew, wantNew[i])
		}
	}

	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
}

func TestWithCapacity(t *testing.T) {
	for _, n := range []int{0, 1, 1000} {
		r := WithCapacity(n)
		if r.Len() != 0 {
			t.Errorf("WithCapacity(%d).Len() = %d, want 0", n, r.Len())
		}
		if idx, isNew := r.Register("t1"); idx != 0 || !isNew {
			t.Errorf("WithCapacity(%d).Register() = %d, %v, want 0, true", n, idx, isNew)
		}
		if idx, _ := r.Register("t2"); idx != 1 {
			t.Errorf("WithCapacity(%d) second index = %d, want 1", n, idx)
		}
	}
}

func TestRegister_IndexStability(t *testing.T) {
	r := New()
	first, _ := r.Register("a")
	for i := 0; i < 100; i++ {
		r.Register(string(rune('b' + i%20)))
	}
	again, isNew := r.Register("a")
	if isNew {
		t.Error("Register(\"a\") reported new on second call")
	}
	if again != first {
		t.Errorf("Register(\"a\") = %d, want %d", again, first)
	}
}

func TestKeyAndLookup(t *testing.T) {
	r := New()
	r.Register("x")
	r.Register("y")

	tests := []struct {
		name    string
		idx     int
		wantKey string
		wantOK  bool
	}{
		{"first", 0, "x", true},
		{"second", 1, "y", true},
		{"out of range", 2, "", false},
		{"negative", -1, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := r.Key(tt.idx)
			if key != tt.wantKey || ok != tt.wantOK {
				t.Errorf("Key(%d) = (%q, %v), want (%q, %v)", tt.idx, key, ok, tt.wantKey, tt.wantOK)
			}
		})
	}

	if idx, ok := r.Lookup("y"); !ok || idx != 1 {
		t.Errorf("Lookup(y) = (%d, %v), want (1, true)", idx, ok)
	}
	if _, ok := r.Lookup("z"); ok {
		t.Error("Lookup(z) found an unregistered key")
	}
	if r.Len() != 2 {
		t.Errorf("Lookup must not register; Len() = %d, want 2", r.Len())
	}
}

func TestFreeze(t *testing.T) {
	r := New()
	r.Register("a")
	r.Freeze()

	if idx, isNew, err := r.TryRegister("a"); err != nil || isNew || idx != 0 {
		t.Errorf("TryRegister(existing) = (%d, %v, %v), want (0, false, nil)", idx, isNew, err)
	}

	_, _, err := r.TryRegister("b")
	if !errors.Is(err, ErrFrozen) {
		t.Errorf("TryRegister(new) error = %v, want ErrFrozen", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("Register on frozen registry did not panic")
		}
	}()
	r.Register("c")
}

func TestJSONRoundTrip(t *testing.T) {
	r := New()
	for _, k := range []string{"spotify:track:1", "spotify:track:2", "spotify:track:3"} {
		r.Register(k)
	}

	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !got.Frozen() {
		t.Error("Read() result should be frozen")
	}
	for i, want := range r.Keys() {
		key, ok := got.Key(i)
		if !ok || key != want {
			t.Errorf("Key(%d) = %q, want %q", i, key, want)
		}
	}
}

func TestUnmarshalJSON_RejectsSparseIndices(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"gap", `{"a":0,"b":2}`},
		{"duplicate", `{"a":0,"b":0}`},
		{"negative", `{"a":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().UnmarshalJSON([]byte(tt.data))
			if !errors.Is(err, ErrNotDense) {
				t.Errorf("UnmarshalJSON(%s) error = %v, want ErrNotDense", tt.data, err)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track_to_idx.json")
	if err := os.WriteFile(path, []byte(`{"b":1,"a":0}`), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if key, _ := r.Key(0); key != "a" {
		t.Errorf("Key(0) = %q, want a", key)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestRegister_Concurrent(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				r.Register(string(rune('A' + i%50)))
			}
		}()
	}
	wg.Wait()

	if r.Len() != 50 {
		t.Fatalf("Len() = %d, want 50", r.Len())
	}
	for i := 0; i < r.Len(); i++ {
		key, _ := r.Key(i)
		if idx, _ := r.Lookup(key); idx != i {
			t.Errorf("Lookup(Key(%d)) = %d", i, idx)
		}
	}
}
