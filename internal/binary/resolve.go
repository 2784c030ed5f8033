package binary

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/download"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/platform"
)

const (
	// DefaultAPIBase is the GitHub REST API root.
	DefaultAPIBase = "https://api.github.com"
	// DefaultYtDlpRepo is the owner/repo publishing yt-dlp releases.
	DefaultYtDlpRepo = "yt-dlp/yt-dlp"

	checksumAssetName  = "SHA2-256SUMS"
	signatureAssetName = "SHA2-256SUMS.sig"
)

// Target is a platform and architecture pair.
type Target struct {
	Platform platform.Platform
	Arch     platform.Architecture
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s", t.Platform, t.Arch)
}

// Resolver picks the download for a tool on a given target.
type Resolver interface {
	Resolve(ctx context.Context, p platform.Platform, a platform.Architecture) (*ResolvedDownload, error)
}

// ReleaseResolver resolves yt-dlp from the latest GitHub release.
type ReleaseResolver struct {
	// Repo is "owner/repo"; DefaultYtDlpRepo when empty.
	Repo string
	// Token is an optional bearer token for the API request.
	Token string
	// APIBase overrides DefaultAPIBase.
	APIBase string

	downloader *download.Downloader
}

// NewReleaseResolver creates a resolver for the given repository.
func NewReleaseResolver(d *download.Downloader, repo, token string) *ReleaseResolver {
	return &ReleaseResolver{
		Repo:       repo,
		Token:      token,
		downloader: d,
	}
}

// releasePattern returns the asset-name substring for a target, or false
// when yt-dlp publishes no binary for it. Linux x64's pattern is a prefix
// of the ARM ones; assets are matched in release order, first match wins.
func releasePattern(p platform.Platform, a platform.Architecture) (string, bool) {
	switch p {
	case platform.Windows:
		switch a {
		case platform.X64:
			return "yt-dlp.exe", true
		case platform.X86:
			return "yt-dlp_x86.exe", true
		}
	case platform.Linux:
		switch a {
		case platform.X64:
			return "yt-dlp_linux", true
		case platform.ARMv7:
			return "yt-dlp_linux_armv7l", true
		case platform.AArch64:
			return "yt-dlp_linux_aarch64", true
		}
	case platform.MacOS:
		return "yt-dlp_macos", true
	}
	return "", false
}

// SelectAsset returns the first asset whose name contains the pattern for
// the target.
func SelectAsset(release *Release, p platform.Platform, a platform.Architecture) (Asset, bool) {
	pattern, ok := releasePattern(p, a)
	if !ok {
		return Asset{}, false
	}

	for _, asset := range release.Assets {
		if strings.Contains(asset.Name, pattern) {
			return asset, true
		}
	}
	return Asset{}, false
}

// LatestRelease fetches the latest release document.
func (r *ReleaseResolver) LatestRelease(ctx context.Context) (*Release, error) {
	repo := r.Repo
	if repo == "" {
		repo = DefaultYtDlpRepo
	}
	base := r.APIBase
	if base == "" {
		base = DefaultAPIBase
	}

	endpoint, err := url.JoinPath(base, "repos", repo, "releases", "latest")
	if err != nil {
		return nil, fmt.Errorf("build release url: %w", err)
	}

	var release Release
	err = r.downloader.FetchJSON(ctx, endpoint, &release,
		download.WithHeaders(map[string]string{"Accept": "application/vnd.github+json"}),
		download.WithBearerToken(r.Token),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release of %s: %w", repo, err)
	}

	return &release, nil
}

// Resolve fetches the latest release and selects the asset for the target.
func (r *ReleaseResolver) Resolve(ctx context.Context, p platform.Platform, a platform.Architecture) (*ResolvedDownload, error) {
	if _, ok := releasePattern(p, a); !ok {
		return nil, &TargetError{Tool: ToolYtDlp, Platform: p, Arch: a, Err: ErrNoReleaseAsset}
	}

	release, err := r.LatestRelease(ctx)
	if err != nil {
		return nil, err
	}

	asset, ok := SelectAsset(release, p, a)
	if !ok {
		return nil, &TargetError{Tool: ToolYtDlp, Platform: p, Arch: a, Err: ErrNoReleaseAsset}
	}

	resolved := &ResolvedDownload{
		Tool:      ToolYtDlp,
		AssetName: asset.Name,
		AssetURL:  asset.DownloadURL,
		Version:   release.TagName,
	}

	for _, other := range release.Assets {
		switch other.Name {
		case checksumAssetName:
			resolved.ChecksumURL = other.DownloadURL
		case signatureAssetName:
			resolved.SignatureURL = other.DownloadURL
		}
	}

	return resolved, nil
}

// DefaultFFmpegBuilds maps each supported target to a prebuilt ffmpeg archive.
var DefaultFFmpegBuilds = map[Target]string{
	{platform.Windows, platform.X64}:   "https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip",
	{platform.Windows, platform.X86}:   "https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip",
	{platform.MacOS, platform.X64}:     "https://www.osxexperts.net/ffmpeg71intel.zip",
	{platform.MacOS, platform.AArch64}: "https://www.osxexperts.net/ffmpeg71arm.zip",
	{platform.Linux, platform.X64}:     "https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-amd64-static.tar.xz",
	{platform.Linux, platform.X86}:     "https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-i686-static.tar.xz",
	{platform.Linux, platform.ARMv7}:   "https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-armhf-static.tar.xz",
	{platform.Linux, platform.AArch64}: "https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-arm64-static.tar.xz",
}

// StaticResolver resolves a tool from a fixed URL table without network access.
type StaticResolver struct {
	Tool   Tool
	Builds map[Target]string
}

// NewStaticResolver returns the ffmpeg static build resolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{Tool: ToolFFmpeg, Builds: DefaultFFmpegBuilds}
}

// Resolve looks up the target in the build table. The asset name is the
// final path segment of the URL.
func (s *StaticResolver) Resolve(ctx context.Context, p platform.Platform, a platform.Architecture) (*ResolvedDownload, error) {
	raw, ok := s.Builds[Target{Platform: p, Arch: a}]
	if !ok {
		return nil, &TargetError{Tool: s.Tool, Platform: p, Arch: a, Err: ErrNoStaticBuild}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse build url %q: %w", raw, err)
	}

	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return nil, fmt.Errorf("build url %q has no file name", raw)
	}

	return &ResolvedDownload{
		Tool:      s.Tool,
		AssetName: name,
		AssetURL:  raw,
	}, nil
}
