package binary

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/platform"
)

// Layout maps a target to a glob, relative to the extraction directory,
// matching the binary inside an unpacked archive. Globs absorb the version
// component of top-level folder names, which changes with every upstream
// release.
type Layout map[Target]string

// DefaultFFmpegLayout locates ffmpeg inside the archives of DefaultFFmpegBuilds.
var DefaultFFmpegLayout = Layout{
	{platform.Windows, platform.X64}:   "ffmpeg-*-essentials_build/bin/ffmpeg.exe",
	{platform.Windows, platform.X86}:   "ffmpeg-*-essentials_build/bin/ffmpeg.exe",
	{platform.MacOS, platform.X64}:     "ffmpeg",
	{platform.MacOS, platform.AArch64}: "ffmpeg",
	{platform.Linux, platform.X64}:     "ffmpeg-*-amd64-static/ffmpeg",
	{platform.Linux, platform.X86}:     "ffmpeg-*-i686-static/ffmpeg",
	{platform.Linux, platform.ARMv7}:   "ffmpeg-*-armhf-static/ffmpeg",
	{platform.Linux, platform.AArch64}: "ffmpeg-*-arm64-static/ffmpeg",
}

// Locate returns the path of tool's binary under extractDir for the target.
// Multiple matches resolve to the first one in lexical order; an archive
// normally holds a single version folder.
func (l Layout) Locate(tool Tool, extractDir string, target Target) (string, error) {
	pattern, ok := l[target]
	if !ok {
		return "", &TargetError{Tool: tool, Platform: target.Platform, Arch: target.Arch, Err: ErrUnsupportedLayout}
	}

	matches, err := filepath.Glob(filepath.Join(extractDir, filepath.FromSlash(pattern)))
	if err != nil {
		return "", fmt.Errorf("match layout %q: %w", pattern, err)
	}

	var files []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			files = append(files, m)
		}
	}

	if len(files) == 0 {
		return "", fmt.Errorf("%w: %s in %s", ErrBinaryNotFound, pattern, extractDir)
	}

	sort.Strings(files)
	return files[0], nil
}
