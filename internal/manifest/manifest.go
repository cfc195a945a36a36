// Package manifest holds the pinned dep-tree release this action installs.
//
// The manifest is embedded at build time and parsed once at startup. The
// resulting Manifest is a plain value that gets passed to the resolver, so no
// code reads release metadata from global state.
package manifest

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/release"
)

//go:embed manifest.yaml
var embedded []byte

// Manifest describes the release to install.
type Manifest struct {
	Version string         `yaml:"version"`
	Scheme  release.Scheme `yaml:"scheme"`
	BaseURL string         `yaml:"base_url"`
}

// Load parses the embedded manifest.
func Load() (Manifest, error) {
	return Parse(embedded)
}

// Parse decodes and validates a manifest document.
func Parse(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}

	m.Version = strings.TrimPrefix(strings.TrimSpace(m.Version), "v")
	if m.Version == "" {
		return Manifest{}, fmt.Errorf("manifest: version is required")
	}

	if m.Scheme == "" {
		m.Scheme = release.SchemeHyphen
	}
	scheme, err := release.ParseScheme(string(m.Scheme))
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: %w", err)
	}
	m.Scheme = scheme

	if m.BaseURL == "" {
		m.BaseURL = release.DefaultBaseURL
	}

	return m, nil
}

// WithVersion returns a copy of m pinned to version. Empty values keep the
// embedded version.
func (m Manifest) WithVersion(version string) Manifest {
	if v := strings.TrimPrefix(strings.TrimSpace(version), "v"); v != "" {
		m.Version = v
	}
	return m
}

// WithScheme returns a copy of m using scheme.
func (m Manifest) WithScheme(scheme release.Scheme) Manifest {
	if scheme != "" {
		m.Scheme = scheme
	}
	return m
}

// Resolve computes release coordinates for a host using the manifest values.
func (m Manifest) Resolve(hostPlatform, hostArch string) release.Coordinates {
	return release.Resolve(hostPlatform, hostArch, m.Version, m.Scheme).WithBaseURL(m.BaseURL)
}
