// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

// Package history keeps a ledger of pipeline runs in BadgerDB so results
// from successive runs can be listed and compared.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/mpdrec/internal/evaluate"
	"github.com/tomtom215/mpdrec/internal/logging"
)

const keyPrefix = "run:"

// Status of a recorded stage.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ErrNotFound is returned when a run has no recorded stages.
var ErrNotFound = errors.New("run not found")

// Record is one stage of one run.
type Record struct {
	RunID     string        `json:"run_id"`
	Stage     string        `json:"stage"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`

	// Counts holds stage-specific totals such as playlists or nnz.
	Counts map[string]int64 `json:"counts,omitempty"`

	// Scores is set for evaluation stages.
	Scores *evaluate.Scores `json:"scores,omitempty"`
}

func (r *Record) key() []byte {
	return []byte(keyPrefix + r.RunID + ":" + r.Stage)
}

// Ledger stores run records.
type Ledger struct {
	db *badger.DB
}

// Open opens or creates a ledger in dir.
func Open(dir string) (*Ledger, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(logging.NewPrintfAdapter("badger"))
	return open(opts)
}

// OpenInMemory opens a ledger that is discarded on Close.
func OpenInMemory() (*Ledger, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(logging.NewPrintfAdapter("badger"))
	return open(opts)
}

func open(opts badger.Options) (*Ledger, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Append stores rec, replacing any earlier record for the same run and stage.
func (l *Ledger) Append(ctx context.Context, rec *Record) error {
	if rec.RunID == "" || rec.Stage == "" {
		return errors.New("history record needs a run id and stage")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(rec.key(), data)
	})
}

// Run returns every stage recorded for runID, in start order.
func (l *Ledger) Run(ctx context.Context, runID string) ([]Record, error) {
	recs, err := l.scan(ctx, keyPrefix+runID+":")
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].StartedAt.Before(recs[j].StartedAt)
	})
	return recs, nil
}

// List returns up to limit records, newest first. A limit of zero or less
// returns every record.
func (l *Ledger) List(ctx context.Context, limit int) ([]Record, error) {
	recs, err := l.scan(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].StartedAt.After(recs[j].StartedAt)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (l *Ledger) scan(ctx context.Context, prefix string) ([]Record, error) {
	var recs []Record
	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	return recs, nil
}

// Delete removes every stage recorded for runID.
func (l *Ledger) Delete(ctx context.Context, runID string) error {
	recs, err := l.scan(ctx, keyPrefix+runID+":")
	if err != nil {
		return err
	}
	return l.db.Update(func(txn *badger.Txn) error {
		for i := range recs {
			if err := txn.Delete(recs[i].key()); err != nil {
				return err
			}
		}
		return nil
	})
}
