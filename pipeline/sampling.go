// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/dsqc/invoke"
	"github.com/grailbio/dsqc/naming"
	"github.com/grailbio/dsqc/samplesheet"
)

// Samplers understood by SamplingOpts.Sampler.
const (
	SamplerSeqtk   = "seqtk"
	SamplerBuiltin = "builtin"
)

// SamplingOpts configures the sample-reads stage.
type SamplingOpts struct {
	Layout naming.Layout
	Folds  []naming.Fold
	// BaselineReads is the number of reads for 1x coverage. Each fold
	// requests BaselineReads × fold reads.
	BaselineReads int64
	// Seed chooses the seed of each pair. Nil means DeriveSeed.
	Seed SeedFunc
	// Sampler is SamplerSeqtk or SamplerBuiltin.
	Sampler string
	// Seqtk is the seqtk program.
	Seqtk string
	// Self is this binary, used by the builtin sampler.
	Self string
}

// SamplingSource subsamples both read mates of every (sample, fold) pair.
type SamplingSource struct {
	opts  SamplingOpts
	sheet *samplesheet.Sheet
	pairs Pairs
	seeds []int64
}

// NewSamplingSource builds the sample-reads stage for sheet. Seeds are drawn
// here, once per pair, so that Job is repeatable even with random seeds.
func NewSamplingSource(sheet *samplesheet.Sheet, opts SamplingOpts) (*SamplingSource, error) {
	if err := naming.ValidateFolds(opts.Folds); err != nil {
		return nil, err
	}
	if opts.BaselineReads <= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("baseline reads must be positive, got %d", opts.BaselineReads))
	}
	switch opts.Sampler {
	case "":
		opts.Sampler = SamplerSeqtk
	case SamplerSeqtk, SamplerBuiltin:
	default:
		return nil, errors.E(errors.Invalid, fmt.Sprintf("unknown sampler %q", opts.Sampler))
	}
	if opts.Seqtk == "" {
		opts.Seqtk = "seqtk"
	}
	if opts.Sampler == SamplerBuiltin && opts.Self == "" {
		return nil, errors.E(errors.Invalid, "builtin sampler needs the path of this binary")
	}
	if opts.Seed == nil {
		opts.Seed = DeriveSeed
	}
	s := &SamplingSource{opts: opts, sheet: sheet, pairs: NewPairs(sheet.Names(), opts.Folds)}
	s.seeds = make([]int64, s.pairs.Len())
	for i := range s.seeds {
		p := s.pairs.At(i)
		s.seeds[i] = opts.Seed(p.Sample, p.Fold)
	}
	return s, nil
}

// Stage implements Source.
func (s *SamplingSource) Stage() string { return "sample-reads" }

// Len implements Source.
func (s *SamplingSource) Len() int { return s.pairs.Len() }

// Program returns the program the stage runs.
func (s *SamplingSource) Program() string {
	if s.opts.Sampler == SamplerBuiltin {
		return s.opts.Self
	}
	return s.opts.Seqtk
}

// Inputs implements Source.
func (s *SamplingSource) Inputs() []string {
	var paths []string
	for i := 0; i < s.sheet.Len(); i++ {
		sample := s.sheet.At(i)
		paths = append(paths, sample.R1, sample.R2)
	}
	return paths
}

// Job implements Source.
func (s *SamplingSource) Job(i int) Job {
	p := s.pairs.At(i)
	sample, _ := s.sheet.Lookup(p.Sample)
	n := s.opts.BaselineReads * int64(p.Fold)
	seed := s.seeds[i]
	l := s.opts.Layout
	return Job{
		Sample: p.Sample,
		Fold:   p.Fold,
		Dirs:   []string{l.Dir(p.Sample, naming.ReadsR1)},
		Invocations: []invoke.Invocation{
			s.invocation(sample.R1, l.Path(p.Sample, p.Fold, naming.ReadsR1), seed, n),
			s.invocation(sample.R2, l.Path(p.Sample, p.Fold, naming.ReadsR2), seed, n),
		},
	}
}

func (s *SamplingSource) invocation(in, out string, seed, n int64) invoke.Invocation {
	count := strconv.FormatInt(n, 10)
	if s.opts.Sampler == SamplerBuiltin {
		return invoke.Invocation{
			Program: s.opts.Self,
			Args:    []string{"fastq-sample", "-s=" + strconv.FormatInt(seed, 10), in, count},
			Stdout:  out,
		}
	}
	return invoke.Invocation{
		Program: s.opts.Seqtk,
		Args:    []string{"sample", "-s" + strconv.FormatInt(seed, 10), in, count},
		Stdout:  out,
	}
}
