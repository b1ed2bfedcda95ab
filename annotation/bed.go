// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package annotation checks repeat (transposable element) annotations before
// they are handed to bedtools, so that a truncated or mangled BED file fails
// the run up front instead of silently filtering nothing.
package annotation

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
)

// Summary describes a parsed annotation.
type Summary struct {
	// Intervals is the number of interval lines.
	Intervals int
	// Chroms is the number of distinct chromosome names.
	Chroms int
	// Bases is the sum of interval lengths; overlaps are counted twice.
	Bases int64
	// Covered is the number of bases in the union of the intervals.
	Covered int64
}

type span struct{ start, end int64 }

// unionLen returns the length of the union of spans. spans is sorted in
// place.
func unionLen(spans []span) int64 {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	var (
		total int64
		cur   span
	)
	for i, s := range spans {
		if i == 0 || s.start > cur.end {
			total += cur.end - cur.start
			cur = s
			continue
		}
		if s.end > cur.end {
			cur.end = s.end
		}
	}
	return total + cur.end - cur.start
}

// getTokens splits the first len(tokens) whitespace-delimited fields of line
// into tokens and returns how many were found.
func getTokens(tokens [][]byte, line []byte) int {
	n := 0
	for n < len(tokens) {
		i := 0
		for i < len(line) && line[i] <= ' ' {
			i++
		}
		if i == len(line) {
			break
		}
		j := i
		for j < len(line) && line[j] > ' ' {
			j++
		}
		tokens[n] = line[i:j]
		n++
		line = line[j:]
	}
	return n
}

func isHeader(line []byte) bool {
	return len(line) == 0 || line[0] == '#' ||
		bytes.HasPrefix(line, []byte("track")) || bytes.HasPrefix(line, []byte("browser"))
}

// Summarize parses BED intervals from r. name is used in error messages.
// Blank, comment, "track" and "browser" lines are skipped. Every other line
// must have a chromosome and 0-based start <= end.
func Summarize(r io.Reader, name string) (Summary, error) {
	var (
		s       Summary
		chroms  = map[string][]span{}
		tokens  = make([][]byte, 3)
		scanner = bufio.NewScanner(r)
		lineNum = 0
	)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if isHeader(line) {
			continue
		}
		if getTokens(tokens, line) < 3 {
			return s, errors.E(errors.Invalid, fmt.Sprintf("%s:%d: want at least 3 columns: %q", name, lineNum, line))
		}
		start, err := strconv.ParseInt(gunsafe.BytesToString(tokens[1]), 10, 64)
		if err != nil || start < 0 {
			return s, errors.E(errors.Invalid, fmt.Sprintf("%s:%d: bad start %q", name, lineNum, tokens[1]))
		}
		end, err := strconv.ParseInt(gunsafe.BytesToString(tokens[2]), 10, 64)
		if err != nil || end < start {
			return s, errors.E(errors.Invalid, fmt.Sprintf("%s:%d: bad end %q", name, lineNum, tokens[2]))
		}
		chrom := string(tokens[0])
		chroms[chrom] = append(chroms[chrom], span{start, end})
		s.Intervals++
		s.Bases += end - start
	}
	if err := scanner.Err(); err != nil {
		return s, errors.E(err, name)
	}
	s.Chroms = len(chroms)
	for _, spans := range chroms {
		s.Covered += unionLen(spans)
	}
	return s, nil
}

// SummarizeFile is Summarize on the file at path, which may be gzipped.
func SummarizeFile(ctx context.Context, path string) (s Summary, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return s, errors.E(errors.NotExist, err, "open annotation", path)
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	r := io.Reader(in.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return s, errors.E(errors.Invalid, err, path)
		}
		defer gz.Close()
		r = gz
	}
	return Summarize(r, path)
}
