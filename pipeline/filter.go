// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/dsqc/invoke"
	"github.com/grailbio/dsqc/naming"
)

// FilterOpts configures the filter-repeats stage.
type FilterOpts struct {
	Layout  naming.Layout
	Samples []string
	Folds   []naming.Fold
	// Annotation is the BED file of repeats to remove.
	Annotation string
	// Bedtools is the bedtools program.
	Bedtools string
}

// FilterSource removes variants overlapping the annotation from the VCF of
// every (sample, fold) pair.
type FilterSource struct {
	opts  FilterOpts
	pairs Pairs
}

// NewFilterSource builds the filter-repeats stage.
func NewFilterSource(opts FilterOpts) (*FilterSource, error) {
	if err := naming.ValidateFolds(opts.Folds); err != nil {
		return nil, err
	}
	if opts.Annotation == "" {
		return nil, errors.E(errors.Invalid, "no repeat annotation given")
	}
	if opts.Bedtools == "" {
		opts.Bedtools = "bedtools"
	}
	return &FilterSource{opts: opts, pairs: NewPairs(opts.Samples, opts.Folds)}, nil
}

// Stage implements Source.
func (s *FilterSource) Stage() string { return "filter-repeats" }

// Len implements Source.
func (s *FilterSource) Len() int { return s.pairs.Len() }

// Inputs implements Source.
func (s *FilterSource) Inputs() []string {
	paths := []string{s.opts.Annotation}
	for i := 0; i < s.pairs.Len(); i++ {
		p := s.pairs.At(i)
		paths = append(paths, s.opts.Layout.Path(p.Sample, p.Fold, naming.Calls))
	}
	return paths
}

// Job implements Source.
func (s *FilterSource) Job(i int) Job {
	p := s.pairs.At(i)
	l := s.opts.Layout
	return Job{
		Sample: p.Sample,
		Fold:   p.Fold,
		Dirs:   []string{l.Dir(p.Sample, naming.Filtered)},
		Invocations: []invoke.Invocation{{
			Program: s.opts.Bedtools,
			Args: []string{
				"intersect",
				"-a", l.Path(p.Sample, p.Fold, naming.Calls),
				"-b", s.opts.Annotation,
				"-header", "-v",
			},
			Stdout: l.Path(p.Sample, p.Fold, naming.Filtered),
		}},
	}
}
