// Package runner invokes an installed dep-tree executable and folds the
// results of every invocation into a single pass/fail outcome.
//
// Invocations are strictly sequential. In entrypoint mode every entrypoint is
// checked even after a failure, so the log always shows the full picture.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger receives invocation output.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Grouper is implemented by loggers that can fold the output of one
// invocation into a collapsible section.
type Grouper interface {
	Group(title string)
	EndGroup()
}

type noopLogger struct{}

func (n *noopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *noopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (n *noopLogger) Error(msg string, keysAndValues ...interface{}) {}

// Runner invokes dep-tree.
type Runner struct {
	executor Executor
	logger   Logger
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger that receives invocation output.
func WithLogger(l Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithExecutor replaces the process executor.
func WithExecutor(e Executor) Option {
	return func(r *Runner) {
		if e != nil {
			r.executor = e
		}
	}
}

// New creates a Runner that spawns real processes unless overridden.
func New(opts ...Option) *Runner {
	r := &Runner{
		executor: &ProcessExecutor{},
		logger:   &noopLogger{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run invokes executablePath according to cfg. The returned outcome is always
// non-nil; the error is ErrRunFailed when any invocation failed, or the
// context error when the run was cancelled between invocations.
func (r *Runner) Run(ctx context.Context, executablePath string, cfg Config) (*RunOutcome, error) {
	outcome := &RunOutcome{Mode: cfg.Mode()}

	for _, inv := range plan(cfg) {
		if err := ctx.Err(); err != nil {
			return outcome, fmt.Errorf("run cancelled: %w", err)
		}

		result := r.invoke(ctx, executablePath, inv, cfg.Timeout)
		outcome.Results = append(outcome.Results, result)
		if result.Failed() {
			outcome.AnyFailed = true
		}
	}

	if outcome.AnyFailed {
		for _, f := range outcome.Failures() {
			r.logger.Error(f.Err.Error())
		}
		return outcome, ErrRunFailed
	}

	r.logger.Info("dep-tree check passed")
	return outcome, nil
}

type invocation struct {
	entrypoint string
	args       []string
}

// plan lists the invocations for cfg in execution order.
func plan(cfg Config) []invocation {
	if cfg.Mode() == ModeConfig {
		return []invocation{{args: []string{"check", "--config", cfg.ConfigFile()}}}
	}

	entrypoints := ParseEntrypoints(cfg.Entrypoints)
	invocations := make([]invocation, 0, len(entrypoints))
	for _, ep := range entrypoints {
		invocations = append(invocations, invocation{
			entrypoint: ep,
			args:       []string{ep, "--check"},
		})
	}
	return invocations
}

func (r *Runner) invoke(ctx context.Context, executablePath string, inv invocation, timeout time.Duration) InvocationResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	title := "dep-tree " + strings.Join(inv.args, " ")
	if g, ok := r.logger.(Grouper); ok {
		g.Group(title)
		defer g.EndGroup()
	} else {
		r.logger.Info(title)
	}

	startedAt := r.now()
	res := r.executor.Execute(ctx, executablePath, inv.args)

	result := InvocationResult{
		Entrypoint: inv.entrypoint,
		Args:       inv.args,
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		ExitCode:   res.ExitCode,
		Duration:   r.now().Sub(startedAt),
	}
	if res.Err != nil {
		result.Err = &InvocationError{Args: inv.args, ExitCode: res.ExitCode, Err: res.Err}
	}

	if result.Stdout != "" {
		r.logger.Info(result.Stdout)
	}
	if result.Stderr != "" {
		r.logger.Info(result.Stderr)
	}
	r.logger.Debug("invocation finished",
		"args", strings.Join(inv.args, " "), "exit_code", result.ExitCode, "duration", result.Duration)

	return result
}
