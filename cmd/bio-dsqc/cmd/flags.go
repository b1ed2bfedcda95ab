// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/dsqc/invoke"
	"github.com/grailbio/dsqc/naming"
	"github.com/grailbio/dsqc/pipeline"
	"github.com/grailbio/dsqc/samplesheet"
)

// commonFlags are shared by the pipeline stages.
type commonFlags struct {
	root           string
	readsDir       string
	callsDir       string
	comparisonDir  string
	parallelism    int
	abortOnFailure bool
	dryRun         bool
	report         string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := new(commonFlags)
	fs.StringVar(&c.root, "root", "experiments", "Experiments directory. The other directories default to paths under it.")
	fs.StringVar(&c.readsDir, "reads-dir", "", "Directory of subsampled reads. Default <root>/sample_reads.")
	fs.StringVar(&c.callsDir, "calls-dir", "", "Directory holding one subdirectory of VCFs per sample. Default <root>.")
	fs.StringVar(&c.comparisonDir, "comparison-dir", "", "Directory of split per-sample VCFs. Default <root>/comparison/data.")
	fs.IntVar(&c.parallelism, "parallelism", 1, "Maximum number of (sample, fold) jobs run at once")
	fs.BoolVar(&c.abortOnFailure, "abort-on-failure", false, "Stop at the first failed command instead of logging it and continuing")
	fs.BoolVar(&c.dryRun, "dry-run", false, "Print the commands without creating directories or running anything")
	fs.StringVar(&c.report, "report", "", "If set, write a TSV line per command to this file")
	return c
}

func (c *commonFlags) layout() naming.Layout {
	l := naming.DefaultLayout(c.root)
	if c.readsDir != "" {
		l.ReadsDir = c.readsDir
	}
	if c.callsDir != "" {
		l.CallsDir = c.callsDir
	}
	if c.comparisonDir != "" {
		l.ComparisonDir = c.comparisonDir
	}
	return l
}

func (c *commonFlags) opts() pipeline.Opts {
	return pipeline.Opts{
		Parallelism:    c.parallelism,
		AbortOnFailure: c.abortOnFailure,
		DryRun:         c.dryRun,
	}
}

// checkTools verifies the programs exist, except in a dry run.
func (c *commonFlags) checkTools(programs ...string) error {
	if c.dryRun {
		return nil
	}
	return invoke.CheckTools(programs...)
}

// execute runs src and writes the report.
func (c *commonFlags) execute(ctx context.Context, src pipeline.Source, runner invoke.Runner) error {
	summary, err := pipeline.Execute(ctx, src, runner, c.opts())
	if rerr := c.writeReport(ctx, summary.Records); rerr != nil {
		if err == nil {
			err = rerr
		} else {
			log.Error.Printf("write report: %v", rerr)
		}
	}
	if err == nil {
		log.Printf("%s: %d commands, %d failed", src.Stage(), len(summary.Records), summary.Failed)
	}
	return err
}

// writeReport writes records to the -report file, if one was given.
func (c *commonFlags) writeReport(ctx context.Context, records []pipeline.Record) error {
	if c.report == "" {
		return nil
	}
	return pipeline.WriteReport(ctx, c.report, records)
}

// sampleFlags select the samples a stage runs on: a comma-separated list or
// every sample of a sheet.
type sampleFlags struct {
	samples string
	sheet   string
}

func addSampleFlags(fs *flag.FlagSet) *sampleFlags {
	s := new(sampleFlags)
	fs.StringVar(&s.samples, "sample", "", "Comma-separated sample names")
	fs.StringVar(&s.sheet, "sample-sheet", "", "Sample sheet; every sample in it is processed. Used when -sample is empty.")
	return s
}

func (s *sampleFlags) names(ctx context.Context) ([]string, error) {
	if s.samples != "" {
		if s.sheet != "" {
			return nil, fmt.Errorf("-sample and -sample-sheet are mutually exclusive")
		}
		return splitList(s.samples), nil
	}
	if s.sheet == "" {
		return nil, fmt.Errorf("one of -sample or -sample-sheet is required")
	}
	sheet, err := samplesheet.Read(ctx, s.sheet)
	if err != nil {
		return nil, err
	}
	return sheet.Names(), nil
}

func splitList(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// self returns the path of the running binary, for the builtin subcommands.
func self() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %v", err)
	}
	return path, nil
}
