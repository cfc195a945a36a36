// Package binary installs the dep-tree release archive for the current host.
//
// An install is strictly sequential: resolve the release coordinates, download
// the archive, optionally verify it, extract it, then compose the path of the
// executable. The InstalledTool returned by Installer.Install is only ever
// produced after extraction completed, so callers never see a partially
// unpacked tool.
//
// # Verification
//
// Verification is opt-in because dep-tree releases are not guaranteed to ship
// checksums or signatures:
//   - SHA256: the archive digest is compared with the release checksums.txt
//   - GPG: the detached <asset>.sig is checked against an armored public key
//
// # Usage
//
//	inst, err := binary.NewInstaller(binary.Config{
//	    Manifest:   m,
//	    Detector:   platform.NewDetector(),
//	    CacheDir:   os.Getenv("RUNNER_TEMP"),
//	    InstallDir: os.Getenv("HOME"),
//	})
//	if err != nil {
//	    return err
//	}
//	tool, err := inst.Install(ctx)
//
// # Architecture
//
//   - Installer: orchestration of resolve, download, verify, extract
//   - Downloader: single-attempt HTTP download with an on-disk cache
//   - Verifier: GPG and SHA256 verification
//   - Extractor: tar.gz and zip extraction
package binary
