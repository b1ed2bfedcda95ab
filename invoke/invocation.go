// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package invoke runs external command-line tools. An Invocation is an
// explicit argument vector; it is never passed through a shell, so paths
// containing spaces or metacharacters are safe.
package invoke

import (
	"context"
	"time"

	shellquote "github.com/kballard/go-shellquote"
)

// Invocation describes one run of an external program. Invocations are
// values: build a fresh one per run and do not modify it afterwards.
type Invocation struct {
	// Program is the executable name or path. Bare names are looked up in
	// PATH.
	Program string
	// Args excludes the program name.
	Args []string
	// Stdout, if nonempty, is the file that receives the program's standard
	// output. The file is replaced, never appended to. If empty, standard
	// output is returned in Result.Stdout.
	Stdout string
}

// String renders the invocation as an equivalent shell command line. It is
// for logs only.
func (inv Invocation) String() string {
	s := shellquote.Join(append([]string{inv.Program}, inv.Args...)...)
	if inv.Stdout != "" {
		s += " > " + shellquote.Join(inv.Stdout)
	}
	return s
}

// Result is the outcome of an invocation that ran to completion.
type Result struct {
	// ExitCode is the process exit status; 0 means success.
	ExitCode int
	// Stdout is the captured standard output. It is empty when the
	// invocation redirected its output to a file.
	Stdout []byte
	// Stderr holds the tail of the program's standard error.
	Stderr string
	// Duration is the wall time of the run.
	Duration time.Duration
}

// OK reports whether the program exited with status 0.
func (r Result) OK() bool { return r.ExitCode == 0 }

// Runner runs invocations. Run blocks until the program exits. A non-zero
// exit status is reported in Result.ExitCode, not as an error; the error is
// reserved for failures to start the program, to set up its output, or
// cancellation of ctx.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}
