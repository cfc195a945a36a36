// Package action adapts the GitHub Actions workflow-command protocol to the
// rest of the module: inputs come from INPUT_* variables, log lines and
// groups go to stdout, and outputs are appended to $GITHUB_OUTPUT.
package action

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-envparse"
	"github.com/sethvargo/go-githubactions"
)

// Options configures New.
type Options struct {
	// Stdout receives workflow commands; defaults to os.Stdout.
	Stdout io.Writer
	// EnvFile is an optional dotenv file whose variables are consulted before
	// the process environment.
	EnvFile string
	// Getenv replaces os.Getenv as the fallback lookup.
	Getenv func(string) string
}

// New creates the action client used for inputs, logs, and outputs.
func New(opts Options) (*githubactions.Action, error) {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if opts.EnvFile != "" {
		overlay, err := LoadEnvFile(opts.EnvFile)
		if err != nil {
			return nil, err
		}
		getenv = layeredGetenv(overlay, getenv)
	}

	return githubactions.New(
		githubactions.WithWriter(stdout),
		githubactions.WithGetenv(getenv),
	), nil
}

// LoadEnvFile parses a dotenv file.
func LoadEnvFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open env file: %w", err)
	}
	defer file.Close()

	vars, err := envparse.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse env file %s: %w", path, err)
	}
	return vars, nil
}

// layeredGetenv looks a key up in overlay first and falls back to base.
func layeredGetenv(overlay map[string]string, base func(string) string) func(string) string {
	return func(key string) string {
		if v, ok := overlay[key]; ok {
			return v
		}
		return base(key)
	}
}
