// Package proc provides the process execution substrate for external tools.
// It defines the Runner interface (port) so that components driving ffmpeg and
// ffprobe can be tested without spawning real processes.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Result holds the outcome of a completed process invocation.
// A non-zero ExitCode is data, not an error: silence detection deliberately
// ignores the exit status and consumes stderr regardless.
type Result struct {
	// ExitCode is the process exit status.
	ExitCode int
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error.
	Stderr string
}

// Runner defines the interface for running an external command to completion.
type Runner interface {
	// Run executes the command and waits for it to finish. It returns an
	// error only when the process could not be run at all or the context
	// was cancelled; a process that ran and exited non-zero is reported
	// through Result.ExitCode.
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner implements Runner using os/exec.
// Cancelling the context kills the running process.
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner.Run.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	// #nosec G204 - command name and args are assembled by trusted internal code
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if ctx.Err() != nil {
			return res, fmt.Errorf("%s cancelled: %w", name, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("run %s: %w", name, err)
	}

	return res, nil
}

// Verify interface implementation at compile time.
var _ Runner = (*ExecRunner)(nil)
