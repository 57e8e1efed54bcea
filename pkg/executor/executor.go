// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package executor runs external commands and reports the outcome as a
// tri-state Result instead of an error.
//
// Nothing in this package returns an error or panics on a failed command.
// Callers decide what a NonZeroExit or an ExecutionError means for them; most
// treat both as "no data" and move on.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Status classifies how a command ended.
type Status int

const (
	// Success means the command ran and exited with status 0.
	Success Status = iota
	// NonZeroExit means the command ran and exited with a non-zero status.
	NonZeroExit
	// ExecutionError means the command could not be started or was interrupted.
	ExecutionError
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case NonZeroExit:
		return "non-zero-exit"
	case ExecutionError:
		return "execution-error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the immutable outcome of one command invocation.
type Result struct {
	Status   Status
	Stdout   string
	Stderr   string
	ExitCode int
}

// OK reports whether the command succeeded.
func (r Result) OK() bool {
	return r.Status == Success
}

// Executor runs a command line.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) Result
}

// Run executes name with args and captures its output.
// It has no side effects beyond running the process.
func Run(ctx context.Context, name string, args ...string) Result {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return Result{Status: Success, Stdout: stdout.String(), Stderr: stderr.String()}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{
			Status:   ExecutionError,
			Stdout:   stdout.String(),
			Stderr:   fmt.Sprintf("%v: %v", ctxErr, err),
			ExitCode: -1,
		}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{
			Status:   NonZeroExit,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			ExitCode: exitErr.ExitCode(),
		}
	}

	return Result{
		Status:   ExecutionError,
		Stdout:   stdout.String(),
		Stderr:   err.Error(),
		ExitCode: -1,
	}
}

// Local runs commands on the host and narrates failures to Out.
type Local struct {
	Out io.Writer
}

// NewLocal returns a Local executor. A nil writer discards diagnostics.
func NewLocal(out io.Writer) *Local {
	if out == nil {
		out = io.Discard
	}
	return &Local{Out: out}
}

// Run implements Executor.
func (l *Local) Run(ctx context.Context, name string, args ...string) Result {
	res := Run(ctx, name, args...)
	Report(l.Out, CommandLine(name, args...), res)
	return res
}

// Report writes the operator-facing diagnostic for res, if any.
func Report(w io.Writer, cmdline string, res Result) {
	if w == nil {
		return
	}
	switch {
	case res.Status == ExecutionError:
		_, _ = fmt.Fprintf(w, "Command %q execution failed. ERROR: %s\n", cmdline, strings.TrimSpace(res.Stderr))
	case strings.TrimSpace(res.Stderr) != "":
		_, _ = fmt.Fprintf(w, "%s\nERROR: %s\n", cmdline, strings.TrimSpace(res.Stderr))
	}
}

// CommandLine renders name and args as a single display string.
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
