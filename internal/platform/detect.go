package platform

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v4/host"
)

var (
	currentPlatform = sync.OnceValue(func() Platform {
		return normalizePlatform(runtime.GOOS)
	})

	currentArch = sync.OnceValue(func() Architecture {
		arch, _ := detectArch(runtime.GOARCH, host.KernelArch)
		return arch
	})
)

// DetectPlatform returns the host platform. It never fails; an unrecognized
// GOOS is returned as-is and reports IsKnown() == false.
func DetectPlatform() Platform {
	return currentPlatform()
}

// DetectArchitecture returns the host CPU architecture. It never fails; an
// unrecognized GOARCH is returned as-is and reports IsKnown() == false.
func DetectArchitecture() Architecture {
	return currentArch()
}

// detectArch normalizes goarch, consulting the kernel for 32-bit ARM.
// It returns the architecture and the raw string it was derived from.
func detectArch(goarch string, kernelArch func() (string, error)) (Architecture, string) {
	if goarch != "arm" {
		return normalizeArch(goarch), goarch
	}

	machine, err := kernelArch()
	if err != nil {
		return ARMv7, goarch
	}
	return refineARM(machine), machine
}

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect returns the host platform and architecture together with Linux
// distribution details.
//
// On Linux, if gopsutil fails to detect the distribution, the distro fields
// are left empty and detection still succeeds.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	arch, raw := detectArch(runtime.GOARCH, host.KernelArch)

	info := &Info{
		Platform: DetectPlatform(),
		Arch:     arch,
		ArchRaw:  raw,
	}

	if info.IsLinux() {
		distro, family, version, err := host.PlatformInformationWithContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
			}
			return info, nil
		}

		distro = normalizeDistro(distro)
		if distro != "" {
			info.Distro = distro
			info.Family = mapFamily(family)
			info.Version = normalizeDistro(version)
		}
	}

	return info, nil
}

// StaticDetector returns a fixed Info. It lets callers target a platform
// other than the host, e.g. when preparing binaries for another machine.
type StaticDetector struct {
	Info Info
}

// Detect returns a copy of the configured Info.
func (s StaticDetector) Detect(ctx context.Context) (*Info, error) {
	info := s.Info
	return &info, nil
}
