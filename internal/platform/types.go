// Package platform detects the host operating system and CPU architecture
// that mediafetch selects prebuilt binaries for.
//
// Unrecognized values never cause an error: they are carried as the raw
// string reported by the runtime, and IsKnown reports false for them. This
// leaves one place downstream (asset resolution) to reject unsupported
// targets. The package also injects a read-only platform table into Lua
// configuration files.
package platform

import "context"

// Platform is the host operating system family.
// Any value other than the declared constants is an unknown platform
// holding the raw runtime string.
type Platform string

const (
	Windows Platform = "windows"
	Linux   Platform = "linux"
	MacOS   Platform = "macos"
)

// IsKnown reports whether p is one of the supported platform families.
func (p Platform) IsKnown() bool {
	switch p {
	case Windows, Linux, MacOS:
		return true
	default:
		return false
	}
}

// String returns the platform name, prefixed with "unknown:" for raw values.
func (p Platform) String() string {
	if !p.IsKnown() {
		return "unknown:" + string(p)
	}
	return string(p)
}

// Architecture is the host CPU architecture.
// Any value other than the declared constants is an unknown architecture
// holding the raw string.
type Architecture string

const (
	X64     Architecture = "x64"
	X86     Architecture = "x86"
	ARMv7   Architecture = "armv7l"
	AArch64 Architecture = "aarch64"
)

// IsKnown reports whether a is one of the supported architectures.
func (a Architecture) IsKnown() bool {
	switch a {
	case X64, X86, ARMv7, AArch64:
		return true
	default:
		return false
	}
}

// String returns the architecture name, prefixed with "unknown:" for raw values.
func (a Architecture) String() string {
	if !a.IsKnown() {
		return "unknown:" + string(a)
	}
	return string(a)
}

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	Platform Platform
	Arch     Architecture
	ArchRaw  string // GOARCH, or the kernel machine string when it refined Arch
	Distro   string // distro ID (Linux only, e.g., "ubuntu")
	Family   string // canonical family (e.g., "debian")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.Platform == Linux
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.Platform == MacOS
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.Platform == Windows
}

// IsX64 returns true if the architecture is x86-64.
func (i *Info) IsX64() bool {
	return i.Arch == X64
}

// IsARM64 returns true if the architecture is aarch64.
func (i *Info) IsARM64() bool {
	return i.Arch == AArch64
}

// IsAppleSilicon returns true if running on Apple Silicon (macOS + aarch64).
func (i *Info) IsAppleSilicon() bool {
	return i.Platform == MacOS && i.Arch == AArch64
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
