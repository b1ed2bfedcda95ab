// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/dsqc/invoke"
	"github.com/grailbio/dsqc/naming"
)

// Sample listers understood by SplitOpts.ListSamples.
const (
	ListBcftools = "bcftools"
	ListNative   = "native"
)

// SplitOpts configures the split-vcf stage.
type SplitOpts struct {
	Layout  naming.Layout
	Samples []string
	// Bcftools is the bcftools program.
	Bcftools string
	// ListSamples selects how sample columns are listed: ListBcftools runs
	// "bcftools query -l"; ListNative runs "Self vcf-samples".
	ListSamples string
	// Self is this binary, used by the native lister.
	Self string
	// MinAC is passed to "bcftools view -c". Zero means 1.
	MinAC int
	// Parser extracts identifiers from sample columns. Nil uses the
	// default prefix.
	Parser *naming.IdentifierParser
}

// SplitSource writes one single-sample VCF per sample column of each
// filtered VCF. Its jobs are planned up front by PlanSplit, because the
// identifiers are only known after the VCF headers are listed.
type SplitSource struct {
	jobs    []Job
	inputs  []string
	planned []Record
}

// PlanSplit lists the filtered VCFs of each sample and the sample columns of
// each VCF, and plans one bcftools view job per column. Listing runs even in
// a dry run, since it only reads. A failed listing or a malformed
// identifier is logged and skipped unless opts.AbortOnFailure is set.
func PlanSplit(ctx context.Context, runner invoke.Runner, sopts SplitOpts, opts Opts) (*SplitSource, error) {
	if sopts.Bcftools == "" {
		sopts.Bcftools = "bcftools"
	}
	if sopts.MinAC <= 0 {
		sopts.MinAC = 1
	}
	if sopts.Parser == nil {
		sopts.Parser = naming.NewIdentifierParser("")
	}
	switch sopts.ListSamples {
	case "":
		sopts.ListSamples = ListBcftools
	case ListBcftools:
	case ListNative:
		if sopts.Self == "" {
			return nil, errors.E(errors.Invalid, "native sample listing needs the path of this binary")
		}
	default:
		return nil, errors.E(errors.Invalid, fmt.Sprintf("unknown sample lister %q", sopts.ListSamples))
	}
	s := new(SplitSource)
	for _, sample := range sopts.Samples {
		files, err := filepath.Glob(sopts.Layout.FilteredGlob(sample))
		if err != nil {
			return nil, errors.E(errors.Invalid, err, sample)
		}
		sort.Strings(files)
		if len(files) == 0 {
			log.Printf("split-vcf: no filtered VCFs for %s in %s", sample, sopts.Layout.Dir(sample, naming.Filtered))
		}
		for _, vcf := range files {
			s.inputs = append(s.inputs, vcf)
			columns, err := listSamples(ctx, runner, sopts, vcf, s)
			if err != nil {
				if opts.AbortOnFailure || ctx.Err() != nil {
					return s, err
				}
				continue
			}
			for _, column := range columns {
				id, err := sopts.Parser.Parse(column)
				if err != nil {
					log.Error.Printf("%s: %v", vcf, err)
					s.planned = append(s.planned, Record{
						Stage:   "split-vcf",
						Sample:  column,
						Program: sopts.Bcftools,
						Output:  vcf,
						Status:  StatusMalformed,
					})
					if opts.AbortOnFailure {
						return s, errors.E(errors.Invalid, err, vcf)
					}
					continue
				}
				s.jobs = append(s.jobs, splitJob(sopts, vcf, column, id))
			}
		}
	}
	return s, nil
}

// listSamples returns the sample columns of vcf.
func listSamples(ctx context.Context, runner invoke.Runner, sopts SplitOpts, vcf string, s *SplitSource) ([]string, error) {
	inv := invoke.Invocation{Program: sopts.Bcftools, Args: []string{"query", "-l", vcf}}
	if sopts.ListSamples == ListNative {
		inv = invoke.Invocation{Program: sopts.Self, Args: []string{"vcf-samples", vcf}}
	}
	log.Printf("%s", inv)
	res, err := runner.Run(ctx, inv)
	rec := Record{
		Stage:      "split-vcf",
		Program:    inv.Program,
		Output:     vcf,
		ExitCode:   res.ExitCode,
		DurationMS: res.Duration.Milliseconds(),
		Status:     StatusOK,
	}
	switch {
	case err != nil:
		rec.Status, rec.ExitCode = StatusError, -1
		log.Error.Printf("%s: %v", inv.Program, err)
	case !res.OK():
		rec.Status = StatusFailed
		err = errors.E(fmt.Sprintf("%s exited with status %d", inv.Program, res.ExitCode))
		log.Error.Printf("%s exited with status %d: %s", inv, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	s.planned = append(s.planned, rec)
	if err != nil {
		return nil, err
	}
	var columns []string
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			columns = append(columns, line)
		}
	}
	return columns, nil
}

func splitJob(sopts SplitOpts, vcf, column string, id naming.Identifier) Job {
	l := sopts.Layout
	return Job{
		Sample: id.Sample,
		Fold:   id.Fold,
		Dirs:   []string{l.Dir(id.Sample, naming.Split)},
		Invocations: []invoke.Invocation{{
			Program: sopts.Bcftools,
			Args: []string{
				"view",
				"-c" + strconv.Itoa(sopts.MinAC),
				"-Oz",
				"-s", column,
				"-o", l.Path(id.Sample, id.Fold, naming.Split),
				vcf,
			},
		}},
	}
}

// Stage implements Source.
func (s *SplitSource) Stage() string { return "split-vcf" }

// Len implements Source.
func (s *SplitSource) Len() int { return len(s.jobs) }

// Job implements Source.
func (s *SplitSource) Job(i int) Job { return s.jobs[i] }

// Inputs implements Source.
func (s *SplitSource) Inputs() []string { return s.inputs }

// PlanRecords returns a record per listing invocation and per skipped
// malformed column, in planning order. Execute puts them at the head of its
// summary.
func (s *SplitSource) PlanRecords() []Record { return s.planned }
