// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package samplesheet reads the sample sheet that maps each sample to its
// raw paired-end FASTQ files.
package samplesheet

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
)

// Sample is one row of the sheet.
type Sample struct {
	Name string
	R1   string
	R2   string
}

// Sheet is an ordered, read-only collection of samples with unique names.
type Sheet struct {
	samples []Sample
	index   map[string]int
}

// row is the on-disk layout: three columns, no header.
type row struct {
	Name string
	R1   string
	R2   string
}

// New builds a sheet from samples, rejecting empty and duplicate names.
func New(samples []Sample) (*Sheet, error) {
	s := &Sheet{index: make(map[string]int, len(samples))}
	for _, sample := range samples {
		if sample.Name == "" {
			return nil, errors.E(errors.Invalid, "sample with empty name")
		}
		if _, ok := s.index[sample.Name]; ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("duplicate sample %q", sample.Name))
		}
		s.index[sample.Name] = len(s.samples)
		s.samples = append(s.samples, sample)
	}
	return s, nil
}

// Parse reads a sheet from r. comma is the column separator. Blank lines
// and lines starting with '#' are skipped.
func Parse(r io.Reader, comma rune) (*Sheet, error) {
	tr := tsv.NewReader(r)
	tr.Comma = comma
	tr.Comment = '#'
	tr.TrimLeadingSpace = true
	var samples []Sample
	for {
		var rec row
		if err := tr.Read(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, err)
		}
		samples = append(samples, Sample{
			Name: strings.TrimSpace(rec.Name),
			R1:   strings.TrimSpace(rec.R1),
			R2:   strings.TrimSpace(rec.R2),
		})
	}
	return New(samples)
}

// Read loads the sheet at path. Files ending in .csv are comma-separated;
// anything else is tab-separated.
func Read(ctx context.Context, path string) (sheet *Sheet, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(errors.NotExist, err, "open sample sheet", path)
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	comma := '\t'
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		comma = ','
	}
	if sheet, err = Parse(in.Reader(ctx), comma); err != nil {
		return nil, errors.E(err, "sample sheet", path)
	}
	return sheet, nil
}

// Len returns the number of samples.
func (s *Sheet) Len() int { return len(s.samples) }

// At returns the i'th sample in sheet order.
func (s *Sheet) At(i int) Sample { return s.samples[i] }

// Names returns the sample names in sheet order.
func (s *Sheet) Names() []string {
	names := make([]string, len(s.samples))
	for i, sample := range s.samples {
		names[i] = sample.Name
	}
	return names
}

// Lookup returns the sample called name.
func (s *Sheet) Lookup(name string) (Sample, bool) {
	i, ok := s.index[name]
	if !ok {
		return Sample{}, false
	}
	return s.samples[i], true
}

// Abs returns a copy of the sheet with R1 and R2 made absolute relative to
// the current directory.
func (s *Sheet) Abs() (*Sheet, error) {
	samples := make([]Sample, len(s.samples))
	for i, sample := range s.samples {
		var err error
		if sample.R1, err = filepath.Abs(sample.R1); err != nil {
			return nil, err
		}
		if sample.R2, err = filepath.Abs(sample.R2); err != nil {
			return nil, err
		}
		samples[i] = sample
	}
	return New(samples)
}
