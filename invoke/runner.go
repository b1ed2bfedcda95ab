// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package invoke

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"v.io/x/lib/gosh"
	"v.io/x/lib/lookpath"
)

// DefaultStderrTail is the number of trailing stderr bytes kept in
// Result.Stderr.
const DefaultStderrTail = 4 << 10

// ShellRunner runs each invocation as a child process of a fresh gosh shell.
// The argument vector is passed to the child as-is.
type ShellRunner struct {
	// Vars are environment variables set on top of the parent's environment.
	Vars map[string]string
	// StderrTail bounds Result.Stderr. Zero means DefaultStderrTail.
	StderrTail int
}

// Run implements Runner. If ctx is canceled while the child runs, the child
// receives an interrupt and Run returns ctx's error once it has exited.
func (r *ShellRunner) Run(ctx context.Context, inv Invocation) (res Result, err error) {
	if err = ctx.Err(); err != nil {
		return res, err
	}
	sh := gosh.NewShell(nil)
	sh.ContinueOnError = true
	defer func() {
		// Errors have been copied out of the shell already.
		sh.Err = nil
		sh.Cleanup()
	}()
	for k, v := range r.Vars {
		sh.Vars[k] = v
	}
	if !strings.Contains(inv.Program, "/") {
		if _, err = lookpath.Look(sh.Vars, inv.Program); err != nil {
			return res, errors.E(errors.NotExist, err, "look up", inv.Program)
		}
	}
	c := sh.Cmd(inv.Program, inv.Args...)
	if sh.Err != nil {
		return res, errors.E(sh.Err, "prepare", inv.Program)
	}
	if c == nil {
		return res, errors.E("prepare", inv.Program)
	}

	limit := r.StderrTail
	if limit <= 0 {
		limit = DefaultStderrTail
	}
	stderr := &tailBuffer{limit: limit}
	c.AddStderrWriter(stderr)

	var (
		stdout bytes.Buffer
		out    file.File
	)
	if inv.Stdout != "" {
		if out, err = file.Create(ctx, inv.Stdout); err != nil {
			return res, errors.E(err, "create", inv.Stdout)
		}
		c.AddStdoutWriter(out.Writer(ctx))
	} else {
		c.AddStdoutWriter(&stdout)
	}
	closeOut := func() error {
		if out == nil {
			return nil
		}
		return out.Close(ctx)
	}
	// discardOut drops the output so that a failed run does not replace a
	// previous good one.
	discardOut := func() {
		if out != nil {
			out.Discard(ctx)
		}
	}

	start := time.Now()
	c.Start()
	if c.Err != nil {
		discardOut()
		return res, errors.E(c.Err, "start", inv.Program)
	}
	// The shell must not be touched while Wait runs, so the child is
	// interrupted through its pid instead of Cmd.Signal.
	proc, perr := os.FindProcess(c.Pid())
	log.Debug.Printf("started: %s", inv)

	done := make(chan struct{})
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		select {
		case <-ctx.Done():
			if perr == nil {
				_ = proc.Signal(os.Interrupt)
			}
		case <-done:
		}
	}()
	c.Wait()
	close(done)
	<-watched
	res.Duration = time.Since(start)
	res.Stderr = stderr.String()
	res.Stdout = stdout.Bytes()

	if err = ctx.Err(); err != nil {
		discardOut()
		return res, errors.E(errors.Canceled, err, inv.String())
	}
	if cerr := closeOut(); cerr != nil {
		return res, errors.E(cerr, "close", inv.Stdout)
	}
	if c.Err != nil {
		var exitErr *exec.ExitError
		if !stderrors.As(c.Err, &exitErr) {
			return res, errors.E(c.Err, "wait", inv.Program)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return res, nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(p)
	if n >= t.limit {
		t.buf = append(t.buf[:0], p[n-t.limit:]...)
		return n, nil
	}
	if over := len(t.buf) + n - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	t.buf = append(t.buf, p...)
	return n, nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

var _ io.Writer = (*tailBuffer)(nil)
