// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

// Package submission reads and writes challenge submission files.
//
// A submission is a CSV file:
//
//	team_info,<team name>,<contact email>
//	<blank line>
//	<pid>,<track uri 1>,...,<track uri K>
//	...
//
// Readers skip the team_info row and blank rows.
package submission

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomtom215/mpdrec/internal/evaluate"
	"github.com/tomtom215/mpdrec/internal/recommend"
)

// TeamInfoTag starts the header row.
const TeamInfoTag = "team_info"

// ErrMissingSubmission is returned when the submission file does not exist.
var ErrMissingSubmission = errors.New("submission file not found")

// Team identifies the submitter.
type Team struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Writer writes a submission row by row.
type Writer struct {
	cw   *csv.Writer
	rows int
}

// NewWriter writes the team header and the blank separator line to w.
func NewWriter(w io.Writer, team Team) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{TeamInfoTag, team.Name, team.Email}); err != nil {
		return nil, fmt.Errorf("write team_info: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("write team_info: %w", err)
	}
	// csv.Writer never emits an empty record as an empty line.
	if _, err := io.WriteString(w, "\n"); err != nil {
		return nil, fmt.Errorf("write separator: %w", err)
	}
	return &Writer{cw: cw}, nil
}

// Write appends one pid row.
func (w *Writer) Write(pid string, tracks []string) error {
	row := make([]string, 0, len(tracks)+1)
	row = append(row, pid)
	row = append(row, tracks...)
	if err := w.cw.Write(row); err != nil {
		return fmt.Errorf("write row for pid %s: %w", pid, err)
	}
	w.rows++
	return nil
}

// Rows returns the number of pid rows written.
func (w *Writer) Rows() int {
	return w.rows
}

// Flush flushes buffered rows.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

// WriteFile writes recs as a complete submission at path and returns the
// number of pid rows written. The file appears only once fully written.
func WriteFile(path string, team Team, recs []recommend.Recommendation) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return 0, fmt.Errorf("create submission directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create submission: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w, err := NewWriter(tmp, team)
	if err != nil {
		_ = tmp.Close()
		return 0, err
	}
	for _, rec := range recs {
		if err := w.Write(rec.PID, rec.Tracks); err != nil {
			_ = tmp.Close()
			return 0, err
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("flush submission: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close submission: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("publish submission: %w", err)
	}
	return w.Rows(), nil
}

// Row is one raw data row with its 1-based line number.
type Row struct {
	Line   int
	PID    string
	Tracks []string
}

// Submission is a parsed submission file.
type Submission struct {
	Team Team
	Rows []Row
}

// Predictions converts the rows to evaluation input.
func (s *Submission) Predictions() []evaluate.Prediction {
	out := make([]evaluate.Prediction, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = evaluate.Prediction{PID: r.PID, Tracks: r.Tracks}
	}
	return out
}

// Read parses a submission. Rows may have any number of fields.
func Read(r io.Reader) (*Submission, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	sub := &Submission{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse submission: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if strings.HasPrefix(rec[0], TeamInfoTag) {
			if len(rec) > 1 {
				sub.Team.Name = rec[1]
			}
			if len(rec) > 2 {
				sub.Team.Email = rec[2]
			}
			continue
		}

		tracks := make([]string, 0, len(rec)-1)
		for _, t := range rec[1:] {
			tracks = append(tracks, strings.TrimSpace(t))
		}
		sub.Rows = append(sub.Rows, Row{Line: line, PID: strings.TrimSpace(rec[0]), Tracks: tracks})
	}
	return sub, nil
}

// ReadFile parses the submission at path.
func ReadFile(path string) (*Submission, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSubmission, path)
		}
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
