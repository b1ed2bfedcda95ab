// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fastq

import (
	"context"
	"io"
	"math/rand"
	"sort"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

type sampledRead struct {
	index int64
	read  Read
}

// Sample writes a uniform random subset of n reads from r to w. It is a
// drop-in for "seqtk sample -s<seed> in <n>": reads are chosen by reservoir
// sampling, so the whole subset is held in memory. If the input has no more
// than n reads, all of them are written.
//
// The reads selected depend only on seed, n and the number of input reads.
// R1 and R2 files of a pair sampled with the same seed therefore stay in
// sync. Unlike seqtk, the output keeps the input order.
//
// Sample returns the number of reads written.
func Sample(r io.Reader, w io.Writer, n, seed int64) (int64, error) {
	if n <= 0 {
		return 0, errors.Errorf("sample size must be positive, got %d", n)
	}
	var (
		rng       = rand.New(rand.NewSource(seed))
		sc        = NewScanner(r)
		reservoir []sampledRead
		read      Read
	)
	for sc.Scan(&read) {
		k := sc.Count() - 1
		if k < n {
			reservoir = append(reservoir, sampledRead{k, read})
			continue
		}
		if j := rng.Int63n(k + 1); j < n {
			reservoir[j] = sampledRead{k, read}
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	sort.Slice(reservoir, func(i, j int) bool { return reservoir[i].index < reservoir[j].index })
	fw := NewWriter(w)
	for i := range reservoir {
		if err := fw.Write(&reservoir[i].read); err != nil {
			return 0, errors.Wrap(err, "write")
		}
	}
	if err := fw.Flush(); err != nil {
		return 0, errors.Wrap(err, "write")
	}
	return int64(len(reservoir)), nil
}

// SampleFile is Sample on the file at path, which may be gzip-compressed.
func SampleFile(ctx context.Context, path string, w io.Writer, n, seed int64) (kept int64, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return 0, err
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
			return 0, errors.Wrapf(err, "%s", path)
		}
		defer gz.Close()
		r = gz
	}
	if kept, err = Sample(r, w, n, seed); err != nil {
		return 0, errors.Wrapf(err, "%s", path)
	}
	return kept, nil
}
