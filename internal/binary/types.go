package binary

import (
	"strings"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/platform"
)

// Tool is an external executable installed by mediafetch.
type Tool string

const (
	// ToolYtDlp is the media metadata extractor and downloader.
	ToolYtDlp Tool = "yt-dlp"
	// ToolFFmpeg is the media encoder used for remuxing.
	ToolFFmpeg Tool = "ffmpeg"
)

// String returns the string representation of the tool
func (t Tool) String() string {
	return string(t)
}

// ExecutableName returns the file name of an executable called name on p.
// Windows executables get an ".exe" suffix unless they already carry one.
func ExecutableName(name string, p platform.Platform) string {
	if p == platform.Windows && !hasExeSuffix(name) {
		return name + ".exe"
	}
	return name
}

func hasExeSuffix(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".exe")
}

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
}

// Release is the metadata of a versioned release.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// ResolvedDownload is the asset chosen for one platform and architecture.
type ResolvedDownload struct {
	Tool      Tool
	AssetName string
	AssetURL  string
	// Version is the release tag; empty for static builds.
	Version string
	// ChecksumURL points to a SHA-256 sums file covering AssetName (may be empty).
	ChecksumURL string
	// SignatureURL points to a detached OpenPGP signature over the sums file (may be empty).
	SignatureURL string
}

// VerificationMethod indicates how a binary was verified
type VerificationMethod int

const (
	// VerificationNone indicates the source publishes nothing to verify against
	VerificationNone VerificationMethod = iota
	// VerificationGPG indicates a signed checksum file was verified
	VerificationGPG
	// VerificationSHA256 indicates an unsigned checksum file was verified
	VerificationSHA256
)

// String returns the string representation of the verification method
func (v VerificationMethod) String() string {
	switch v {
	case VerificationGPG:
		return "GPG"
	case VerificationSHA256:
		return "SHA256"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// InstallResult describes a completed installation.
type InstallResult struct {
	Tool     Tool
	Path     string
	Asset    ResolvedDownload
	Verified VerificationMethod
	// CleanupErr holds failures removing intermediate files. The install
	// itself succeeded and Path is usable.
	CleanupErr error
}
