package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/action"
	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/binary"
	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/manifest"
	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/platform"
	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/runner"
)

// cacheSubdir is created under the runner temp dir to hold downloads.
const cacheSubdir = "dep-tree-action"

func run(cmd *cobra.Command, d *deps, f *flags) error {
	ctx := cmd.Context()

	gha, err := action.New(action.Options{
		Stdout:  d.stdout,
		EnvFile: f.envFile,
		Getenv:  d.getenv,
	})
	if err != nil {
		return err
	}
	logger := action.NewLogger(gha)

	settings, err := applyFlags(cmd, f, action.ReadInputs(gha)).Parse()
	if err != nil {
		action.SetOutputs(gha, "", true)
		return err
	}

	m, err := loadManifest(d)
	if err != nil {
		return err
	}
	m = m.WithVersion(settings.Version).WithScheme(settings.Scheme)

	installDir, err := resolveInstallDir(settings.InstallDir, gha.Getenv)
	if err != nil {
		return err
	}

	detector := d.detector
	if detector == nil {
		detector = platform.NewDetector()
	}

	installer, err := binary.NewInstaller(binary.Config{
		Manifest:       m,
		Detector:       platform.Override(detector, f.os, f.arch),
		Host:           detector,
		CacheDir:       resolveCacheDir(gha.Getenv),
		InstallDir:     installDir,
		VerifyChecksum: settings.VerifyChecksum,
		PublicKeyPath:  settings.PublicKey,
		Logger:         logger,
		HTTPClient:     d.httpClient,
	})
	if err != nil {
		return err
	}

	tool, err := installer.Install(ctx)
	if err != nil {
		action.SetOutputs(gha, "", true)
		return err
	}

	r := runner.New(runner.WithLogger(logger), runner.WithExecutor(d.executor))
	outcome, err := r.Run(ctx, tool.Path, settings.Run)
	action.SetOutputs(gha, tool.Path, err != nil || outcome.AnyFailed)
	if err != nil && !errors.Is(err, runner.ErrRunFailed) {
		return fmt.Errorf("run dep-tree: %w", err)
	}
	return err
}

func loadManifest(d *deps) (manifest.Manifest, error) {
	if d.manifest != nil {
		return *d.manifest, nil
	}
	return manifest.Load()
}

// resolveInstallDir picks the extraction root: the explicit input, else the
// invoking user's home directory.
func resolveInstallDir(input string, getenv func(string) string) (string, error) {
	if input != "" {
		return filepath.Abs(input)
	}
	if home := getenv("HOME"); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return home, nil
}

// resolveCacheDir keeps downloads in the runner's per-job temp directory so
// they are cleaned up with the job.
func resolveCacheDir(getenv func(string) string) string {
	if dir := getenv("RUNNER_TEMP"); dir != "" {
		return filepath.Join(dir, cacheSubdir)
	}
	return filepath.Join(os.TempDir(), cacheSubdir)
}
