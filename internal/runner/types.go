package runner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultConfigPath is the rules file used in config mode when none is given.
const DefaultConfigPath = ".dep-tree.yml"

// ErrRunFailed is returned by Run when at least one invocation failed. It
// carries no message; the individual failures have already been logged.
var ErrRunFailed = errors.New("")

// Mode selects how dep-tree is invoked.
type Mode int

const (
	// ModeConfig runs "dep-tree check --config <path>" once
	ModeConfig Mode = iota
	// ModeEntrypoints runs "dep-tree <entrypoint> --check" per entrypoint
	ModeEntrypoints
)

// String returns the string representation of the mode
func (m Mode) String() string {
	if m == ModeEntrypoints {
		return "entrypoints"
	}
	return "config"
}

// Config holds the user inputs for a run.
type Config struct {
	// Entrypoints is a comma separated list; when it names at least one
	// entrypoint it selects ModeEntrypoints.
	Entrypoints string
	// ConfigPath is the rules file for ModeConfig.
	ConfigPath string
	// Timeout bounds each invocation. Zero means no limit.
	Timeout time.Duration
}

// Mode reports which invocation shape the config selects.
func (c Config) Mode() Mode {
	if len(ParseEntrypoints(c.Entrypoints)) > 0 {
		return ModeEntrypoints
	}
	return ModeConfig
}

// ConfigFile returns the rules file path, falling back to DefaultConfigPath.
func (c Config) ConfigFile() string {
	if p := strings.TrimSpace(c.ConfigPath); p != "" {
		return p
	}
	return DefaultConfigPath
}

// ParseEntrypoints splits a comma separated list, trimming whitespace and
// dropping empty items. Order is preserved.
func ParseEntrypoints(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InvocationResult is the outcome of a single dep-tree invocation.
type InvocationResult struct {
	// Entrypoint is empty in config mode
	Entrypoint string
	Args       []string
	Stdout     string
	Stderr     string
	ExitCode   int
	Err        error
	Duration   time.Duration
}

// Failed reports whether the invocation exited non-zero or could not run.
func (r InvocationResult) Failed() bool {
	return r.Err != nil
}

// RunOutcome aggregates every invocation of a run.
type RunOutcome struct {
	Mode      Mode
	Results   []InvocationResult
	AnyFailed bool
}

// Failures returns the failed invocations.
func (o *RunOutcome) Failures() []InvocationResult {
	var failed []InvocationResult
	for _, r := range o.Results {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}

// InvocationError describes a failed invocation.
type InvocationError struct {
	Args     []string
	ExitCode int
	Err      error
}

func (e *InvocationError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("dep-tree %s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	}
	return fmt.Sprintf("dep-tree %s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
