// Package release maps a host platform and architecture to the dep-tree
// release asset that should be downloaded for it.
//
// Resolution is pure and total: every platform/architecture pair yields some
// Coordinates. Whether the resulting URL exists is only discovered when the
// archive is downloaded.
package release

import (
	"fmt"
	"strings"
)

// DefaultBaseURL is the GitHub releases download root for dep-tree.
const DefaultBaseURL = "https://github.com/gabotechs/dep-tree/releases/download"

// ToolName is the name of the wrapped executable and the asset prefix.
const ToolName = "dep-tree"

// Extension is an archive file extension without the leading dot.
type Extension string

const (
	// ExtTarGz is used for every platform except Windows
	ExtTarGz Extension = "tar.gz"
	// ExtZip is used for Windows
	ExtZip Extension = "zip"
)

// Scheme selects the release asset naming convention.
type Scheme string

const (
	// SchemeHyphen names assets dep-tree-<version>-<platform>-<arch>.<ext>
	// and nests the binary in a directory named after the asset.
	SchemeHyphen Scheme = "hyphen"
	// SchemeUnderscore names assets dep-tree_<version>_<Platform>_<arch>.<ext>
	// and places the binary at the extraction root.
	SchemeUnderscore Scheme = "underscore"
)

// ParseScheme validates a scheme name. The empty string is rejected so callers
// must decide on a default explicitly.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeHyphen:
		return SchemeHyphen, nil
	case SchemeUnderscore:
		return SchemeUnderscore, nil
	default:
		return "", fmt.Errorf("unknown naming scheme %q (want %q or %q)", s, SchemeHyphen, SchemeUnderscore)
	}
}

// Coordinates identify a single release asset.
type Coordinates struct {
	Version   string
	Platform  string // normalized platform token, always lower case
	Arch      string // normalized architecture token for Scheme
	Extension Extension
	Scheme    Scheme
	BaseURL   string
}

// Resolve computes the release coordinates for a host. hostPlatform and
// hostArch accept both Go (GOOS/GOARCH) and Node-style identifiers such as
// "win32" and "x64".
func Resolve(hostPlatform, hostArch, version string, scheme Scheme) Coordinates {
	platform, ext := normalizePlatform(hostPlatform)
	return Coordinates{
		Version:   strings.TrimPrefix(strings.TrimSpace(version), "v"),
		Platform:  platform,
		Arch:      NormalizeArch(hostArch, scheme),
		Extension: ext,
		Scheme:    scheme,
		BaseURL:   DefaultBaseURL,
	}
}

// WithBaseURL returns a copy of c that downloads from baseURL instead.
func (c Coordinates) WithBaseURL(baseURL string) Coordinates {
	c.BaseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// AssetName returns the archive file name.
func (c Coordinates) AssetName() string {
	if c.Scheme == SchemeUnderscore {
		return fmt.Sprintf("%s_%s_%s_%s.%s", ToolName, c.Version, capitalize(c.Platform), c.Arch, c.Extension)
	}
	return fmt.Sprintf("%s-%s-%s-%s.%s", ToolName, c.Version, c.Platform, c.Arch, c.Extension)
}

// ReleaseURL returns the directory URL holding every asset of the version.
func (c Coordinates) ReleaseURL() string {
	return fmt.Sprintf("%s/v%s", c.baseURL(), c.Version)
}

// URL returns the archive download URL.
func (c Coordinates) URL() string {
	return c.ReleaseURL() + "/" + c.AssetName()
}

// ChecksumURL returns the URL of the release checksums file.
func (c Coordinates) ChecksumURL() string {
	return c.ReleaseURL() + "/checksums.txt"
}

// SignatureURL returns the URL of the detached signature for the archive.
func (c Coordinates) SignatureURL() string {
	return c.URL() + ".sig"
}

// NestedDir returns the directory the archive unpacks the binary into, or ""
// when the binary sits at the extraction root.
func (c Coordinates) NestedDir() string {
	if c.Scheme == SchemeUnderscore {
		return ""
	}
	return strings.TrimSuffix(c.AssetName(), "."+string(c.Extension))
}

// ExecutableName is the binary file name inside the archive.
func (c Coordinates) ExecutableName() string {
	if c.Platform == "windows" {
		return ToolName + ".exe"
	}
	return ToolName
}

// IsZip reports whether the archive is a zip file.
func (c Coordinates) IsZip() bool {
	return c.Extension == ExtZip
}

func (c Coordinates) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

// normalizePlatform maps a host platform to its release token and the archive
// extension published for it.
func normalizePlatform(p string) (string, Extension) {
	p = strings.ToLower(strings.TrimSpace(p))
	switch p {
	case "win32", "windows":
		return "windows", ExtZip
	default:
		return p, ExtTarGz
	}
}

// NormalizeArch maps a host architecture to the token used by scheme.
// Unknown tokens pass through unchanged, and normalizing an already
// normalized token returns it as is.
func NormalizeArch(arch string, scheme Scheme) string {
	arch = strings.TrimSpace(arch)
	switch arch {
	case "x64", "amd64", "x86_64":
		if scheme == SchemeUnderscore {
			return "x86_64"
		}
		return "amd64"
	case "x32", "ia32", "386", "i386", "i686", "x86":
		return "386"
	default:
		return arch
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
