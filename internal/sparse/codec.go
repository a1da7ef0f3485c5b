// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package sparse

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
)

// magic identifies the serialized matrix format.
var magic = [8]byte{'M', 'P', 'D', 'C', 'S', 'R', '0', '1'}

// ErrBadFormat is returned when decoding input that is not a serialized CSR.
var ErrBadFormat = errors.New("not a serialized CSR matrix")

type header struct {
	Magic [8]byte
	Rows  int64
	Cols  int64
	NNZ   int64
}

// WriteTo serializes the matrix as a zstd stream: a fixed header followed by
// little-endian indptr (int64) and indices (int32) arrays.
func (m *CSR) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	enc, err := zstd.NewWriter(cw, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return 0, fmt.Errorf("create zstd encoder: %w", err)
	}

	bw := bufio.NewWriterSize(enc, 1<<20)
	h := header{Magic: magic, Rows: int64(m.rows), Cols: int64(m.cols), NNZ: int64(len(m.indices))}
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		_ = enc.Close()
		return cw.n, fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, m.indptr); err != nil {
		_ = enc.Close()
		return cw.n, fmt.Errorf("write indptr: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, m.indices); err != nil {
		_ = enc.Close()
		return cw.n, fmt.Errorf("write indices: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return cw.n, err
	}
	if err := enc.Close(); err != nil {
		return cw.n, fmt.Errorf("close zstd encoder: %w", err)
	}
	return cw.n, nil
}

// Read decodes a matrix written by WriteTo.
func Read(r io.Reader) (*CSR, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 1<<20)
	var h header
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("read header: %w", errors.Join(ErrBadFormat, err))
	}
	if h.Magic != magic {
		return nil, ErrBadFormat
	}
	if err := h.validate(); err != nil {
		return nil, err
	}

	indptr, err := readInts[int64](br, int(h.Rows)+1)
	if err != nil {
		return nil, fmt.Errorf("read indptr: %w", err)
	}
	indices, err := readInts[int32](br, int(h.NNZ))
	if err != nil {
		return nil, fmt.Errorf("read indices: %w", err)
	}
	m := &CSR{
		rows:    int(h.Rows),
		cols:    int(h.Cols),
		indptr:  indptr,
		indices: indices,
	}
	if err := m.check(); err != nil {
		return nil, err
	}
	return m, nil
}

// validate bounds the header before anything is allocated from it. Indices
// are int32, so neither dimension may exceed math.MaxInt32, and a binary
// matrix cannot hold more entries than cells.
func (h *header) validate() error {
	if h.Rows < 0 || h.Cols < 0 || h.NNZ < 0 {
		return fmt.Errorf("negative dimensions: %w", ErrBadFormat)
	}
	if h.Rows > math.MaxInt32 || h.Cols > math.MaxInt32 || h.NNZ > math.MaxInt32 {
		return fmt.Errorf("dimensions %dx%d with %d entries exceed int32 range: %w", h.Rows, h.Cols, h.NNZ, ErrBadFormat)
	}
	if h.NNZ > h.Rows*h.Cols {
		return fmt.Errorf("%d entries in a %dx%d matrix: %w", h.NNZ, h.Rows, h.Cols, ErrBadFormat)
	}
	return nil
}

// readChunk is the number of elements decoded per read. Slices grow with the
// data actually present, so a truncated stream fails before a header-sized
// allocation is made.
const readChunk = 1 << 16

// readInts decodes n little-endian values of T.
func readInts[T int32 | int64](r io.Reader, n int) ([]T, error) {
	out := make([]T, 0, min(n, readChunk))
	buf := make([]T, min(n, readChunk))
	for len(out) < n {
		chunk := buf[:min(n-len(out), len(buf))]
		if err := binary.Read(r, binary.LittleEndian, chunk); err != nil {
			return nil, errors.Join(ErrBadFormat, err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// check verifies structural invariants of a decoded matrix.
func (m *CSR) check() error {
	if m.indptr[0] != 0 || m.indptr[m.rows] != int64(len(m.indices)) {
		return fmt.Errorf("indptr bounds: %w", ErrBadFormat)
	}
	for r := 0; r < m.rows; r++ {
		if m.indptr[r+1] < m.indptr[r] {
			return fmt.Errorf("indptr decreases at row %d: %w", r, ErrBadFormat)
		}
		row := m.Row(r)
		for i, c := range row {
			if int(c) < 0 || int(c) >= m.cols || (i > 0 && row[i-1] >= c) {
				return fmt.Errorf("row %d column order: %w", r, ErrBadFormat)
			}
		}
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
