package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// ExecResult is the raw outcome of one child process.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err is non-nil when the process could not be spawned, was killed, or
	// exited non-zero.
	Err error
}

// Executor spawns a child process and waits for it.
type Executor interface {
	Execute(ctx context.Context, path string, args []string) ExecResult
}

// ProcessExecutor runs commands with os/exec. Arguments are passed as an
// argument vector; no shell is involved.
type ProcessExecutor struct {
	// Dir is the working directory of the child; empty means the current one.
	Dir string
	// Env replaces the child environment when non-nil.
	Env []string
}

// Execute runs path with args and captures both output streams.
func (p *ProcessExecutor) Execute(ctx context.Context, path string, args []string) ExecResult {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = p.Dir
	if p.Env != nil {
		cmd.Env = p.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Err:    err,
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
	}

	if err != nil && ctx.Err() != nil {
		result.Err = errors.Join(err, ctx.Err())
	}

	return result
}
