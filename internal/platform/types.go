// Package platform detects the host the action runs on.
//
// OS and architecture come from the Go runtime and are reported in GOOS and
// GOARCH vocabulary; mapping them to release asset tokens is the job of the
// release package. On Linux the distribution is detected with gopsutil and
// only used for log context, so a failed lookup degrades to OS/arch only.
package platform

import "context"

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS       string // "linux", "darwin", "windows"
	Arch     string // GOARCH, e.g. "amd64", "arm64", "386"
	Platform string // distro ID (Linux only, e.g., "ubuntu")
	Family   string // canonical family (e.g., "debian")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// IsDarwin returns true if the platform is macOS.
func (i *Info) IsDarwin() bool {
	return i.OS == "darwin"
}

// Distro returns a short human readable distribution label, or "" when the
// distribution is unknown.
func (i *Info) Distro() string {
	if i.OS != "linux" || i.Platform == "" {
		return ""
	}
	if i.Version == "" {
		return i.Platform
	}
	return i.Platform + " " + i.Version
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
