package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect uses runtime.GOOS and runtime.GOARCH for OS and architecture, and
// gopsutil for Linux distribution details. Distribution lookup failures are
// ignored; a cancelled context is not.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:   runtime.GOOS,
		Arch: normalizeArch(runtime.GOARCH),
	}

	if runtime.GOOS == "linux" {
		platform, family, version, err := host.PlatformInformationWithContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
			}
			return info, nil
		}

		platform = normalizePlatform(platform)
		if platform != "" {
			info.Platform = platform
			info.Family = mapFamily(family)
			info.Version = normalizePlatform(version)
		}
	}

	return info, nil
}

// StaticDetector reports a fixed platform. It is used when the OS or
// architecture is overridden and in tests.
type StaticDetector struct {
	Info Info
}

// NewStaticDetector creates a detector that always reports os/arch.
func NewStaticDetector(os, arch string) Detector {
	return &StaticDetector{Info: Info{
		OS:   strings.ToLower(strings.TrimSpace(os)),
		Arch: normalizeArch(arch),
	}}
}

// Detect returns a copy of the configured info.
func (d *StaticDetector) Detect(ctx context.Context) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info := d.Info
	return &info, nil
}

// Override wraps a detector so that non-empty os or arch replace the detected
// values.
func Override(base Detector, os, arch string) Detector {
	if os == "" && arch == "" {
		return base
	}
	return &overrideDetector{base: base, os: os, arch: arch}
}

type overrideDetector struct {
	base     Detector
	os, arch string
}

func (d *overrideDetector) Detect(ctx context.Context) (*Info, error) {
	info, err := d.base.Detect(ctx)
	if err != nil {
		return nil, err
	}
	if d.os != "" {
		info.OS = strings.ToLower(strings.TrimSpace(d.os))
		if info.OS != "linux" {
			info.Platform, info.Family, info.Version = "", "", ""
		}
	}
	if d.arch != "" {
		info.Arch = normalizeArch(d.arch)
	}
	return info, nil
}
