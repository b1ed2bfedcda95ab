// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package fastq reads, writes, and subsamples FASTQ files.
package fastq

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

const linesPerRead = 4

var (
	// ErrShort is returned when a FASTQ stream ends in the middle of a record.
	ErrShort = errors.New("short FASTQ file")
	// ErrInvalid is returned when a record's ID line does not start with '@'
	// or its third line does not start with '+'.
	ErrInvalid = errors.New("invalid FASTQ file")
)

// Read is one FASTQ record. ID keeps its leading '@' and Unk its leading
// '+', so that a read is written back exactly as it was scanned.
type Read struct {
	ID, Seq, Unk, Qual string
}

// Scanner reads FASTQ records one at a time. It checks the '@' and '+'
// markers but does not validate sequence or quality contents. Scanners are
// not threadsafe.
type Scanner struct {
	b   *bufio.Scanner
	n   int64
	err error
}

// NewScanner returns a scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(make([]byte, 64<<10), 16<<20)
	return &Scanner{b: b}
}

// Scan reads the next record into read. It returns false at the end of the
// input or on error; check Err to tell them apart.
func (s *Scanner) Scan(read *Read) bool {
	if s.err != nil {
		return false
	}
	var lines [linesPerRead]string
	for i := range lines {
		if !s.b.Scan() {
			if err := s.b.Err(); err != nil {
				s.err = errors.Wrapf(err, "read %d", s.n)
			} else if i == 0 {
				s.err = io.EOF
			} else {
				s.err = errors.Wrapf(ErrShort, "read %d: want %d lines, got %d", s.n, linesPerRead, i)
			}
			return false
		}
		lines[i] = s.b.Text()
	}
	if len(lines[0]) == 0 || lines[0][0] != '@' || len(lines[2]) == 0 || lines[2][0] != '+' {
		s.err = errors.Wrapf(ErrInvalid, "read %d", s.n)
		return false
	}
	read.ID, read.Seq, read.Unk, read.Qual = lines[0], lines[1], lines[2], lines[3]
	s.n++
	return true
}

// Count is the number of records scanned so far.
func (s *Scanner) Count() int64 { return s.n }

// Err returns the first error encountered, or nil at a clean end of input.
func (s *Scanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}

// Writer writes FASTQ records.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter returns a writer to w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes r as four lines.
func (w *Writer) Write(r *Read) error {
	for _, line := range [linesPerRead]string{r.ID, r.Seq, r.Unk, r.Qual} {
		if w.err != nil {
			break
		}
		if _, w.err = w.w.WriteString(line); w.err == nil {
			w.err = w.w.WriteByte('\n')
		}
	}
	return w.err
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}
