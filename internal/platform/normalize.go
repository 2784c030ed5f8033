package platform

import (
	"strings"
)

// familyMap maps distribution names to their canonical family names.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian,
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// normalizePlatform maps a GOOS value to a Platform.
func normalizePlatform(goos string) Platform {
	switch goos {
	case "windows":
		return Windows
	case "linux":
		return Linux
	case "darwin", "macos":
		return MacOS
	default:
		return Platform(goos)
	}
}

// normalizeArch maps a GOARCH or kernel machine string to an Architecture.
func normalizeArch(arch string) Architecture {
	switch strings.ToLower(strings.TrimSpace(arch)) {
	case "amd64", "x86_64", "x64":
		return X64
	case "386", "i386", "i686", "x86":
		return X86
	case "arm", "armv7", "armv7l", "armhf":
		return ARMv7
	case "arm64", "aarch64":
		return AArch64
	default:
		return Architecture(arch)
	}
}

// refineARM narrows GOARCH=arm using the kernel machine string.
// Go reports "arm" for every 32-bit ARM, but only ARMv7 has prebuilt
// binaries; older cores keep their kernel name as an unknown architecture.
func refineARM(kernelArch string) Architecture {
	k := strings.ToLower(strings.TrimSpace(kernelArch))
	switch {
	case k == "":
		return ARMv7
	case strings.HasPrefix(k, "armv5"), strings.HasPrefix(k, "armv6"):
		return Architecture(k)
	default:
		return ARMv7
	}
}

// normalizeDistro converts distro IDs to lowercase for consistency.
func normalizeDistro(distro string) string {
	return strings.ToLower(strings.TrimSpace(distro))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}
	return FamilyUnknown
}
