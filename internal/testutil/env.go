// Package testutil provides utilities for testing the action in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Env holds the isolated locations created by SetupTestEnv.
type Env struct {
	// Home stands in for the runner user's home directory
	Home string
	// RunnerTemp stands in for $RUNNER_TEMP, where archives are cached
	RunnerTemp string
	// OutputFile is the $GITHUB_OUTPUT file step outputs are appended to
	OutputFile string
	// Workspace is the repository checkout
	Workspace string
}

// SetupTestEnv creates isolated test directories for each test.
// This ensures tests never interfere with:
// - A dep-tree already installed in the real home directory
// - Outputs of the workflow the tests themselves run in
// - INPUT_* variables leaking in from the surrounding job
//
// The cleanup function is automatically handled by t.TempDir(),
// so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	tmpDir := t.TempDir()
	env := &Env{
		Home:       filepath.Join(tmpDir, "home"),
		RunnerTemp: filepath.Join(tmpDir, "runner-temp"),
		OutputFile: filepath.Join(tmpDir, "github-output"),
		Workspace:  filepath.Join(tmpDir, "workspace"),
	}

	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "INPUT_") {
			// t.Setenv restores the previous value when the test ends
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}

	t.Setenv("HOME", env.Home)
	t.Setenv("USERPROFILE", env.Home)
	t.Setenv("RUNNER_TEMP", env.RunnerTemp)
	t.Setenv("GITHUB_OUTPUT", env.OutputFile)
	t.Setenv("GITHUB_WORKSPACE", env.Workspace)

	for _, dir := range []string{env.Home, env.RunnerTemp, env.Workspace} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}
	if err := os.WriteFile(env.OutputFile, nil, 0o600); err != nil {
		t.Fatalf("failed to create output file: %v", err)
	}

	return env
}

// ReadOutputs parses the outputs appended to the output file. Both the
// single line "key=value" form and the "key<<DELIM" heredoc form are read.
func (e *Env) ReadOutputs(t *testing.T) map[string]string {
	t.Helper()

	data, err := os.ReadFile(e.OutputFile)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}

	outputs := make(map[string]string)
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if k, delim, ok := strings.Cut(line, "<<"); ok {
			var value []string
			for i++; i < len(lines) && lines[i] != delim; i++ {
				value = append(value, lines[i])
			}
			outputs[k] = strings.Join(value, "\n")
			continue
		}
		if k, v, ok := strings.Cut(line, "="); ok {
			outputs[k] = v
		}
	}
	return outputs
}
