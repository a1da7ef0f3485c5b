// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

// Package sparse implements a binary compressed-sparse-row matrix.
//
// Every stored entry has the value 1. A CSR is built once from coordinate
// buffers with FromCOO; duplicate coordinates collapse into a single entry.
// The matrix is immutable after construction.
package sparse

import (
	"errors"
	"fmt"
	"slices"
)

// ErrShape is returned when coordinates fall outside the declared shape.
var ErrShape = errors.New("coordinate outside matrix shape")

// CSR is an immutable binary matrix in compressed sparse row layout.
// Row r's column indices are indices[indptr[r]:indptr[r+1]], sorted ascending.
type CSR struct {
	rows    int
	cols    int
	indptr  []int64
	indices []int32
}

// FromCOO builds a CSR of shape rows x cols from parallel coordinate buffers.
// Repeated (row, col) pairs are stored once.
func FromCOO(rows, cols int, rowIdx, colIdx []int32) (*CSR, error) {
	if len(rowIdx) != len(colIdx) {
		return nil, fmt.Errorf("coordinate buffers differ in length: %d rows, %d cols", len(rowIdx), len(colIdx))
	}
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("negative shape (%d, %d): %w", rows, cols, ErrShape)
	}

	// Counting sort by row.
	indptr := make([]int64, rows+1)
	for i, r := range rowIdx {
		if int(r) < 0 || int(r) >= rows {
			return nil, fmt.Errorf("row %d at position %d: %w", r, i, ErrShape)
		}
		if c := colIdx[i]; int(c) < 0 || int(c) >= cols {
			return nil, fmt.Errorf("col %d at position %d: %w", c, i, ErrShape)
		}
		indptr[r+1]++
	}
	for r := 0; r < rows; r++ {
		indptr[r+1] += indptr[r]
	}

	next := make([]int64, rows)
	copy(next, indptr[:rows])
	scratch := make([]int32, len(colIdx))
	for i, r := range rowIdx {
		scratch[next[r]] = colIdx[i]
		next[r]++
	}

	// Sort and dedupe each row, compacting in place.
	out := scratch[:0]
	start := int64(0)
	for r := 0; r < rows; r++ {
		end := indptr[r+1]
		row := scratch[start:end]
		slices.Sort(row)
		row = slices.Compact(row)
		out = append(out, row...)
		start = end
		indptr[r+1] = int64(len(out))
	}

	return &CSR{
		rows:    rows,
		cols:    cols,
		indptr:  indptr,
		indices: slices.Clip(out),
	}, nil
}

// Dims returns the matrix shape.
func (m *CSR) Dims() (rows, cols int) {
	return m.rows, m.cols
}

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int {
	return len(m.indices)
}

// RowNNZ returns the number of entries in row r.
func (m *CSR) RowNNZ(r int) int {
	return int(m.indptr[r+1] - m.indptr[r])
}

// Row returns the sorted column indices of row r. The slice must not be modified.
func (m *CSR) Row(r int) []int32 {
	return m.indices[m.indptr[r]:m.indptr[r+1]]
}

// ColumnSums returns the number of entries in each column.
// This walks the column index array once and never densifies the matrix.
func (m *CSR) ColumnSums() []int64 {
	sums := make([]int64, m.cols)
	for _, c := range m.indices {
		sums[c]++
	}
	return sums
}

// Density returns NNZ / (rows*cols), or 0 for an empty shape.
func (m *CSR) Density() float64 {
	cells := float64(m.rows) * float64(m.cols)
	if cells == 0 {
		return 0
	}
	return float64(m.NNZ()) / cells
}
