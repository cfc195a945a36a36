// Package cli implements the cobra root command of dep-tree-action.
//
// The command reads the action inputs, installs the pinned dep-tree release
// for the host, runs it, and publishes the step outputs. Every input can also
// be given as a flag of the same name, which wins over the environment, so the
// binary is usable outside a workflow.
package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sethvargo/go-githubactions"
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/action"
	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/manifest"
	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/platform"
	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/runner"
)

// Version, Commit, and Date are set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// deps holds the collaborators the command wires together. Tests replace
// them; NewRootCommand uses the real ones.
type deps struct {
	stdout     io.Writer
	getenv     func(string) string
	manifest   *manifest.Manifest
	detector   platform.Detector
	httpClient *http.Client
	executor   runner.Executor
}

// flags mirrors the action inputs plus the CLI-only options.
type flags struct {
	envFile        string
	entrypoints    string
	config         string
	version        string
	namingScheme   string
	installDir     string
	verifyChecksum bool
	publicKey      string
	timeout        string
	os             string
	arch           string
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&deps{})
}

func newRootCommand(d *deps) *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "dep-tree-action",
		Short: "Install dep-tree and check a repository against its rules",
		Long: `dep-tree-action downloads the dep-tree release pinned by this action for the
current runner, extracts it into the home directory, and runs it.

With entrypoints set, "dep-tree <entrypoint> --check" runs once per entrypoint.
Otherwise "dep-tree check --config <file>" runs once. The step fails if any
invocation fails.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, d, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.envFile, "env-file", "", "Load INPUT_* variables from a dotenv file")
	fl.StringVar(&f.entrypoints, action.InputEntrypoints, "", "Comma separated entrypoints to check")
	fl.StringVar(&f.config, action.InputConfig, "", "Rules file used when no entrypoints are given (default .dep-tree.yml)")
	fl.StringVar(&f.version, action.InputVersion, "", "dep-tree version to install instead of the pinned one")
	fl.StringVar(&f.namingScheme, action.InputNamingScheme, "", "Release asset naming scheme: hyphen or underscore")
	fl.StringVar(&f.installDir, action.InputInstallDir, "", "Extraction root (default $HOME)")
	fl.BoolVar(&f.verifyChecksum, action.InputVerifyChecksum, false, "Verify the archive against the release checksums.txt")
	fl.StringVar(&f.publicKey, action.InputPublicKey, "", "Armored OpenPGP public key used to verify the archive signature")
	fl.StringVar(&f.timeout, action.InputTimeout, "", "Per-invocation timeout, e.g. 5m")
	fl.StringVar(&f.os, "os", "", "Install the release for this OS instead of the host's")
	fl.StringVar(&f.arch, "arch", "", "Install the release for this architecture instead of the host's")

	// --version selects the dep-tree release, so build info gets a subcommand
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("dep-tree-action %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// applyFlags overlays explicitly set flags on the inputs read from the
// environment.
func applyFlags(cmd *cobra.Command, f *flags, in action.Inputs) action.Inputs {
	changed := cmd.Flags().Changed
	if changed(action.InputEntrypoints) {
		in.Entrypoints = f.entrypoints
	}
	if changed(action.InputConfig) {
		in.Config = f.config
	}
	if changed(action.InputVersion) {
		in.Version = f.version
	}
	if changed(action.InputNamingScheme) {
		in.NamingScheme = f.namingScheme
	}
	if changed(action.InputInstallDir) {
		in.InstallDir = f.installDir
	}
	if changed(action.InputVerifyChecksum) {
		in.VerifyChecksum = strconv.FormatBool(f.verifyChecksum)
	}
	if changed(action.InputPublicKey) {
		in.PublicKey = f.publicKey
	}
	if changed(action.InputTimeout) {
		in.Timeout = f.timeout
	}
	return in
}

// Execute runs the root command and exits with its status.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	os.Exit(report(os.Stdout, err))
}

// report marks the step failed for a non-nil err and returns the exit code.
// ErrRunFailed carries no message since each failed invocation was already
// annotated.
func report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	gha := githubactions.New(githubactions.WithWriter(w))
	if errors.Is(err, runner.ErrRunFailed) {
		gha.Errorf("")
	} else {
		gha.Errorf("%s", err.Error())
	}
	return 1
}
