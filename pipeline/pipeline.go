// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/dsqc/invoke"
	"github.com/grailbio/dsqc/naming"
)

// Status values recorded for each invocation.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusError   = "error"
	StatusPlanned = "planned"

	// StatusMalformed marks a VCF sample column that was skipped because no
	// identifier could be parsed from it.
	StatusMalformed = "malformed"
)

// Job is the work for one (sample, fold) pair of a stage.
type Job struct {
	Sample string
	Fold   naming.Fold
	// Dirs are created before the invocations run.
	Dirs []string
	// Invocations run in order. A failed invocation does not prevent the
	// next one from running unless Opts.AbortOnFailure is set.
	Invocations []invoke.Invocation
}

// Source is a stage: a finite list of jobs. Job(i) must return equal jobs
// for equal i.
type Source interface {
	// Stage names the stage in logs and reports.
	Stage() string
	Len() int
	Job(i int) Job
	// Inputs lists files that must exist before any job runs.
	Inputs() []string
}

// Opts controls Execute.
type Opts struct {
	// Parallelism is the maximum number of jobs run concurrently. Values
	// below 2 run jobs one at a time in order.
	Parallelism int
	// AbortOnFailure stops the stage at the first invocation that fails to
	// run or exits non-zero. By default such failures are logged and the
	// stage continues.
	AbortOnFailure bool
	// DryRun logs every invocation without creating directories or running
	// anything. Inputs are not checked.
	DryRun bool
}

// Record is one row of the run report.
type Record struct {
	Stage      string
	Sample     string
	Fold       int
	Program    string
	Output     string
	ExitCode   int
	DurationMS int64
	Status     string
}

// Summary is the outcome of Execute.
type Summary struct {
	// Records holds one entry per attempted invocation, in job order.
	Records []Record
	// Failed counts records whose status is failed, error or malformed.
	Failed int
}

func (s *Summary) add(recs []Record) {
	for _, r := range recs {
		switch r.Status {
		case StatusFailed, StatusError, StatusMalformed:
			s.Failed++
		}
	}
	s.Records = append(s.Records, recs...)
}

// planRecorder is implemented by sources that ran commands of their own
// while planning their jobs. Those records lead the summary.
type planRecorder interface {
	PlanRecords() []Record
}

// CheckInputs verifies that every path exists. All missing paths are
// reported in a single errors.NotExist error.
func CheckInputs(ctx context.Context, paths []string) error {
	var missing []string
	seen := map[string]bool{}
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true
		if _, err := file.Stat(ctx, path); err != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return errors.E(errors.NotExist, "missing inputs: "+strings.Join(missing, ", "))
}

// Execute runs every job of src with runner. The returned error is non-nil
// if inputs are missing, ctx is canceled, or, with AbortOnFailure, the first
// failure. The summary covers whatever ran.
func Execute(ctx context.Context, src Source, runner invoke.Runner, opts Opts) (Summary, error) {
	var summary Summary
	if !opts.DryRun {
		if err := CheckInputs(ctx, src.Inputs()); err != nil {
			return summary, err
		}
	}
	if pr, ok := src.(planRecorder); ok {
		summary.add(pr.PlanRecords())
	}
	n := src.Len()
	log.Printf("%s: %d jobs", src.Stage(), n)
	records := make([][]Record, n)
	var err error
	if opts.Parallelism < 2 {
		for i := 0; i < n; i++ {
			if records[i], err = runJob(ctx, src.Stage(), src.Job(i), runner, opts); err != nil {
				break
			}
		}
	} else {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		var once errors.Once
		_ = traverse.Limit(opts.Parallelism).Each(n, func(i int) error {
			if ctx.Err() != nil {
				return nil
			}
			var jerr error
			records[i], jerr = runJob(ctx, src.Stage(), src.Job(i), runner, opts)
			if jerr != nil {
				once.Set(jerr)
				cancel()
			}
			return nil
		})
		err = once.Err()
	}
	for _, recs := range records {
		summary.add(recs)
	}
	if err == nil {
		err = ctx.Err()
	}
	if summary.Failed > 0 {
		log.Printf("%s: %d of %d invocations failed", src.Stage(), summary.Failed, len(summary.Records))
	}
	return summary, err
}

// runJob runs the invocations of a single job.
func runJob(ctx context.Context, stage string, job Job, runner invoke.Runner, opts Opts) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.E(errors.Canceled, err)
	}
	if !opts.DryRun {
		for _, dir := range job.Dirs {
			if err := naming.EnsureDir(dir); err != nil {
				return nil, err
			}
		}
	}
	recs := make([]Record, 0, len(job.Invocations))
	for _, inv := range job.Invocations {
		log.Printf("%s", inv)
		rec := Record{
			Stage:   stage,
			Sample:  job.Sample,
			Fold:    int(job.Fold),
			Program: inv.Program,
			Output:  inv.Stdout,
		}
		if rec.Output == "" {
			rec.Output = outputArg(inv.Args)
		}
		if opts.DryRun {
			rec.Status = StatusPlanned
			recs = append(recs, rec)
			continue
		}
		start := time.Now()
		res, err := runner.Run(ctx, inv)
		rec.ExitCode = res.ExitCode
		rec.DurationMS = int64(time.Since(start) / time.Millisecond)
		switch {
		case err != nil:
			rec.Status = StatusError
			rec.ExitCode = -1
			recs = append(recs, rec)
			if errors.Is(errors.Canceled, err) || ctx.Err() != nil {
				return recs, err
			}
			log.Error.Printf("%s: %v", inv.Program, err)
			if opts.AbortOnFailure {
				return recs, err
			}
		case !res.OK():
			rec.Status = StatusFailed
			recs = append(recs, rec)
			log.Error.Printf("%s exited with status %d: %s", inv, res.ExitCode, strings.TrimSpace(res.Stderr))
			if opts.AbortOnFailure {
				return recs, errors.E(fmt.Sprintf("%s exited with status %d", inv.Program, res.ExitCode))
			}
		default:
			rec.Status = StatusOK
			recs = append(recs, rec)
			log.Debug.Printf("%s: done in %v", inv.Program, res.Duration)
		}
	}
	return recs, nil
}

// outputArg returns the value of a "-o" argument, as used by bcftools.
func outputArg(args []string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "-o" {
			return args[i+1]
		}
	}
	return ""
}
