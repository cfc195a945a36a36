package binary

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/manifest"
	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/platform"
	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/release"
)

// Config holds configuration for the installer
type Config struct {
	// Manifest pins the release to install
	Manifest manifest.Manifest
	// Detector reports the OS and architecture whose release is installed
	Detector platform.Detector
	// Host reports the machine doing the extraction. Defaults to Detector;
	// it differs when the target platform is overridden.
	Host platform.Detector
	// CacheDir receives downloaded archives (e.g. $RUNNER_TEMP)
	CacheDir string
	// InstallDir is the extraction root (the invoking user's home directory)
	InstallDir string
	// VerifyChecksum enables SHA256 verification against checksums.txt
	VerifyChecksum bool
	// PublicKeyPath enables GPG verification when set
	PublicKeyPath string

	Logger     Logger
	Clock      Clock
	HTTPClient *http.Client
}

// Installer orchestrates archive download, verification, and extraction
type Installer struct {
	manifest       manifest.Manifest
	detector       platform.Detector
	host           platform.Detector
	installDir     string
	verifyChecksum bool
	publicKeyPath  string
	downloader     *Downloader
	verifier       *Verifier
	extractor      *Extractor
	logger         Logger
	clock          Clock
}

// NewInstaller creates a new installer
func NewInstaller(config Config) (*Installer, error) {
	if config.Manifest.Version == "" {
		return nil, fmt.Errorf("manifest version is required")
	}
	if config.Detector == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if config.CacheDir == "" {
		return nil, fmt.Errorf("cache dir is required")
	}
	if config.InstallDir == "" {
		return nil, fmt.Errorf("install dir is required")
	}

	downloader := NewDownloader(config.CacheDir)
	if config.HTTPClient != nil {
		downloader.client = config.HTTPClient
	}

	logger := config.Logger
	if logger == nil {
		logger = &noopLogger{}
	}
	clock := config.Clock
	if clock == nil {
		clock = RealClock{}
	}

	return &Installer{
		manifest:       config.Manifest,
		detector:       config.Detector,
		host:           config.Host,
		installDir:     config.InstallDir,
		verifyChecksum: config.VerifyChecksum,
		publicKeyPath:  config.PublicKeyPath,
		downloader:     downloader,
		verifier:       NewVerifier(config.PublicKeyPath),
		extractor:      NewExtractor(),
		logger:         logger,
		clock:          clock,
	}, nil
}

// Resolve detects the host and computes the release coordinates for it.
func (i *Installer) Resolve(ctx context.Context) (release.Coordinates, *platform.Info, error) {
	info, err := i.detector.Detect(ctx)
	if err != nil {
		return release.Coordinates{}, nil, fmt.Errorf("detect platform: %w", err)
	}
	return i.manifest.Resolve(info.OS, info.Arch), info, nil
}

// Install downloads, verifies, and extracts dep-tree, returning the path of the
// executable. Any failure aborts the install before a tool is returned.
func (i *Installer) Install(ctx context.Context) (*InstalledTool, error) {
	i.logger.Info(fmt.Sprintf("Installing %s %s...", release.ToolName, i.manifest.Version))
	startedAt := i.clock.Now()

	coords, info, err := i.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	i.logger.Debug("resolved release asset",
		"os", info.OS, "arch", info.Arch, "distro", info.Distro(), "family", info.Family,
		"asset", coords.AssetName())

	i.logger.Info(fmt.Sprintf("Downloading %s ...", coords.URL()))
	archivePath, err := i.downloader.DownloadArchive(ctx, coords)
	if err != nil {
		return nil, fmt.Errorf("download archive: %w", err)
	}

	verified, err := i.verify(ctx, coords, archivePath)
	if err != nil {
		return nil, err
	}

	host, err := i.hostInfo(ctx, info)
	if err != nil {
		return nil, err
	}

	plan := PlanExtraction(coords.URL(), host)
	i.logger.Debug("extracting archive",
		"format", plan.Format.String(), "overwrite", plan.Overwrite, "dest", i.installDir)
	if err := i.extractor.Extract(plan, archivePath, i.installDir); err != nil {
		// A corrupt archive must not be served from the cache on the next run
		os.Remove(archivePath)
		return nil, err
	}

	tool := &InstalledTool{
		Path:        ExecutablePath(i.installDir, coords),
		Coordinates: coords,
		Verified:    verified,
		InstallTime: i.clock.Now().Sub(startedAt),
	}

	i.logger.Info(fmt.Sprintf("Installed %s into %s in %dms",
		release.ToolName, tool.Path, tool.InstallTime.Milliseconds()))
	return tool, nil
}

// hostInfo returns the extracting machine's info, falling back to target.
func (i *Installer) hostInfo(ctx context.Context, target *platform.Info) (*platform.Info, error) {
	if i.host == nil {
		return target, nil
	}
	info, err := i.host.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect host platform: %w", err)
	}
	return info, nil
}

// verify runs the enabled verification methods in order: checksum, then
// signature.
func (i *Installer) verify(ctx context.Context, coords release.Coordinates, archivePath string) ([]VerificationMethod, error) {
	var verified []VerificationMethod

	if i.verifyChecksum {
		checksumPath, err := i.downloader.DownloadChecksums(ctx, coords)
		if err != nil {
			return nil, fmt.Errorf("download checksums: %w", err)
		}
		if err := i.verifier.VerifyChecksum(archivePath, checksumPath); err != nil {
			// Drop the cached archive so the next run fetches a fresh copy
			os.Remove(archivePath)
			return nil, err
		}
		verified = append(verified, VerificationSHA256)
	}

	if i.publicKeyPath != "" {
		signaturePath, err := i.downloader.DownloadSignature(ctx, coords)
		if err != nil {
			return nil, fmt.Errorf("download signature: %w", err)
		}
		if err := i.verifier.VerifySignature(archivePath, signaturePath); err != nil {
			os.Remove(archivePath)
			return nil, err
		}
		verified = append(verified, VerificationGPG)
	}

	for _, m := range verified {
		i.logger.Info(fmt.Sprintf("Verified %s with %s", coords.AssetName(), m))
	}
	return verified, nil
}

// ExecutablePath composes where the executable lands after extracting the
// archive for coords into root. Executability is checked at invocation time.
func ExecutablePath(root string, coords release.Coordinates) string {
	if dir := coords.NestedDir(); dir != "" {
		return filepath.Join(root, dir, coords.ExecutableName())
	}
	return filepath.Join(root, coords.ExecutableName())
}
