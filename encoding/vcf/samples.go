// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package vcf reads the sample columns of VCF headers. It is the in-process
// counterpart of "bcftools query -l".
package vcf

import (
	"bufio"
	"context"
	"io"

	"github.com/biogo/hts/bgzf"
	"github.com/brentp/vcfgo"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

// ReadSampleNames returns the sample names of the VCF header read from r.
// Only the header is consumed.
func ReadSampleNames(r io.Reader) ([]string, error) {
	rdr, err := vcfgo.NewReader(r, true)
	if err != nil {
		return nil, errors.E(errors.Invalid, err, "parse VCF header")
	}
	return append([]string(nil), rdr.Header.SampleNames...), nil
}

// SampleNames returns the sample names of the VCF at path. The file may be
// plain text, BGZF (the usual .vcf.gz) or ordinary gzip; the format is
// detected from the content, not the name.
func SampleNames(ctx context.Context, path string) (names []string, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(errors.NotExist, err, path)
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	rs := in.Reader(ctx)
	br := bufio.NewReader(rs)
	magic, _ := br.Peek(len(gzipMagic))
	if len(magic) < len(gzipMagic) || magic[0] != gzipMagic[0] || magic[1] != gzipMagic[1] {
		names, err = ReadSampleNames(br)
		return names, wrap(err, path)
	}
	if bz, berr := bgzf.NewReader(br, 1); berr == nil {
		names, err = ReadSampleNames(bz)
		if cerr := bz.Close(); cerr != nil && err == nil {
			err = cerr
		}
		return names, wrap(err, path)
	}
	// Not BGZF; retry from the start as plain gzip.
	if _, err = rs.Seek(0, io.SeekStart); err != nil {
		return nil, errors.E(err, path)
	}
	gz, err := gzip.NewReader(rs)
	if err != nil {
		return nil, errors.E(errors.Invalid, err, path)
	}
	defer gz.Close()
	names, err = ReadSampleNames(gz)
	return names, wrap(err, path)
}

func wrap(err error, path string) error {
	if err == nil {
		return nil
	}
	return errors.E(err, path)
}
