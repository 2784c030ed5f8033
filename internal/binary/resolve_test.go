package binary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/download"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/platform"
)

// ytDlpRelease mirrors the asset order of a real yt-dlp release.
func ytDlpRelease(baseURL string) Release {
	names := []string{
		"SHA2-256SUMS",
		"SHA2-256SUMS.sig",
		"yt-dlp",
		"yt-dlp.exe",
		"yt-dlp.tar.gz",
		"yt-dlp_linux",
		"yt-dlp_linux.zip",
		"yt-dlp_linux_aarch64",
		"yt-dlp_linux_armv7l",
		"yt-dlp_macos",
		"yt-dlp_macos.zip",
		"yt-dlp_x86.exe",
	}

	release := Release{TagName: "2024.08.06"}
	for _, n := range names {
		release.Assets = append(release.Assets, Asset{Name: n, DownloadURL: baseURL + "/download/" + n})
	}
	return release
}

func TestSelectAsset(t *testing.T) {
	release := ytDlpRelease("https://example.com")

	tests := []struct {
		name      string
		platform  platform.Platform
		arch      platform.Architecture
		wantAsset string
		wantOK    bool
	}{
		{name: "windows_x64", platform: platform.Windows, arch: platform.X64, wantAsset: "yt-dlp.exe", wantOK: true},
		{name: "windows_x86", platform: platform.Windows, arch: platform.X86, wantAsset: "yt-dlp_x86.exe", wantOK: true},
		{name: "linux_x64_first_match", platform: platform.Linux, arch: platform.X64, wantAsset: "yt-dlp_linux", wantOK: true},
		{name: "linux_armv7", platform: platform.Linux, arch: platform.ARMv7, wantAsset: "yt-dlp_linux_armv7l", wantOK: true},
		{name: "linux_aarch64", platform: platform.Linux, arch: platform.AArch64, wantAsset: "yt-dlp_linux_aarch64", wantOK: true},
		{name: "macos_x64", platform: platform.MacOS, arch: platform.X64, wantAsset: "yt-dlp_macos", wantOK: true},
		{name: "macos_aarch64", platform: platform.MacOS, arch: platform.AArch64, wantAsset: "yt-dlp_macos", wantOK: true},
		{name: "linux_x86_unsupported", platform: platform.Linux, arch: platform.X86},
		{name: "windows_arm_unsupported", platform: platform.Windows, arch: platform.AArch64},
		{name: "unknown_platform", platform: platform.Platform("plan9"), arch: platform.X64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset, ok := SelectAsset(&release, tt.platform, tt.arch)
			if ok != tt.wantOK {
				t.Fatalf("SelectAsset() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && asset.Name != tt.wantAsset {
				t.Errorf("SelectAsset() = %q, want %q", asset.Name, tt.wantAsset)
			}
		})
	}
}

func TestSelectAsset_ReleaseOrderDecides(t *testing.T) {
	// Linux x64's pattern is contained in the ARM asset names, so an ARM
	// asset listed first is what gets picked.
	release := Release{Assets: []Asset{
		{Name: "yt-dlp_linux_aarch64"},
		{Name: "yt-dlp_linux"},
	}}

	asset, ok := SelectAsset(&release, platform.Linux, platform.X64)
	if !ok {
		t.Fatal("expected a match")
	}
	if asset.Name != "yt-dlp_linux_aarch64" {
		t.Errorf("SelectAsset() = %q, want first matching asset", asset.Name)
	}
}

func newReleaseServer(t *testing.T, wantToken string) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/yt-dlp/yt-dlp/releases/latest" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); wantToken != "" && got != "Bearer "+wantToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ytDlpRelease(server.URL))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestReleaseResolver_Resolve(t *testing.T) {
	server := newReleaseServer(t, "")
	r := NewReleaseResolver(download.NewDownloader(), "", "")
	r.APIBase = server.URL

	got, err := r.Resolve(context.Background(), platform.Linux, platform.AArch64)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if got.Tool != ToolYtDlp {
		t.Errorf("Tool = %q, want %q", got.Tool, ToolYtDlp)
	}
	if got.AssetName != "yt-dlp_linux_aarch64" {
		t.Errorf("AssetName = %q", got.AssetName)
	}
	if got.AssetURL != server.URL+"/download/yt-dlp_linux_aarch64" {
		t.Errorf("AssetURL = %q", got.AssetURL)
	}
	if got.Version != "2024.08.06" {
		t.Errorf("Version = %q", got.Version)
	}
	if got.ChecksumURL != server.URL+"/download/SHA2-256SUMS" {
		t.Errorf("ChecksumURL = %q", got.ChecksumURL)
	}
	if got.SignatureURL != server.URL+"/download/SHA2-256SUMS.sig" {
		t.Errorf("SignatureURL = %q", got.SignatureURL)
	}
}

func TestReleaseResolver_BearerToken(t *testing.T) {
	server := newReleaseServer(t, "secret")

	t.Run("with_token", func(t *testing.T) {
		r := NewReleaseResolver(download.NewDownloader(), "", "secret")
		r.APIBase = server.URL
		if _, err := r.Resolve(context.Background(), platform.MacOS, platform.AArch64); err != nil {
			t.Errorf("Resolve() error = %v", err)
		}
	})

	t.Run("without_token", func(t *testing.T) {
		r := NewReleaseResolver(download.NewDownloader(), "", "")
		r.APIBase = server.URL
		_, err := r.Resolve(context.Background(), platform.MacOS, platform.AArch64)

		var statusErr *download.StatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("error = %v, want 401 StatusError", err)
		}
		if IsUnsupportedTarget(err) {
			t.Error("network failure must not look like an unsupported target")
		}
	})
}

func TestReleaseResolver_UnsupportedTarget(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_ = json.NewEncoder(w).Encode(Release{})
	}))
	defer server.Close()

	r := NewReleaseResolver(download.NewDownloader(), "", "")
	r.APIBase = server.URL

	t.Run("no_pattern_skips_network", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), platform.Linux, platform.X86)
		if !errors.Is(err, ErrNoReleaseAsset) || !IsUnsupportedTarget(err) {
			t.Errorf("error = %v, want ErrNoReleaseAsset TargetError", err)
		}
		if requests != 0 {
			t.Errorf("made %d requests, want 0", requests)
		}
	})

	t.Run("release_without_asset", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), platform.Linux, platform.X64)
		if !errors.Is(err, ErrNoReleaseAsset) {
			t.Errorf("error = %v, want ErrNoReleaseAsset", err)
		}
	})
}

func TestStaticResolver_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		target    Target
		wantAsset string
	}{
		{name: "windows_x64", target: Target{platform.Windows, platform.X64}, wantAsset: "ffmpeg-release-essentials.zip"},
		{name: "windows_x86", target: Target{platform.Windows, platform.X86}, wantAsset: "ffmpeg-release-essentials.zip"},
		{name: "macos_x64", target: Target{platform.MacOS, platform.X64}, wantAsset: "ffmpeg71intel.zip"},
		{name: "macos_aarch64", target: Target{platform.MacOS, platform.AArch64}, wantAsset: "ffmpeg71arm.zip"},
		{name: "linux_x64", target: Target{platform.Linux, platform.X64}, wantAsset: "ffmpeg-release-amd64-static.tar.xz"},
		{name: "linux_x86", target: Target{platform.Linux, platform.X86}, wantAsset: "ffmpeg-release-i686-static.tar.xz"},
		{name: "linux_armv7", target: Target{platform.Linux, platform.ARMv7}, wantAsset: "ffmpeg-release-armhf-static.tar.xz"},
		{name: "linux_aarch64", target: Target{platform.Linux, platform.AArch64}, wantAsset: "ffmpeg-release-arm64-static.tar.xz"},
	}

	r := NewStaticResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.target.Platform, tt.target.Arch)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got.Tool != ToolFFmpeg {
				t.Errorf("Tool = %q", got.Tool)
			}
			if got.AssetName != tt.wantAsset {
				t.Errorf("AssetName = %q, want %q", got.AssetName, tt.wantAsset)
			}
			if got.AssetURL != DefaultFFmpegBuilds[tt.target] {
				t.Errorf("AssetURL = %q", got.AssetURL)
			}
			if _, ok := DefaultFFmpegLayout[tt.target]; !ok {
				t.Errorf("no layout entry for %s", tt.target)
			}
		})
	}
}

func TestStaticResolver_Unsupported(t *testing.T) {
	tests := []Target{
		{platform.MacOS, platform.ARMv7},
		{platform.Windows, platform.AArch64},
		{platform.Platform("freebsd"), platform.X64},
		{platform.Linux, platform.Architecture("riscv64")},
	}

	r := NewStaticResolver()
	for _, target := range tests {
		t.Run(target.String(), func(t *testing.T) {
			_, err := r.Resolve(context.Background(), target.Platform, target.Arch)
			if !errors.Is(err, ErrNoStaticBuild) {
				t.Fatalf("error = %v, want ErrNoStaticBuild", err)
			}

			var te *TargetError
			if !errors.As(err, &te) {
				t.Fatal("expected *TargetError")
			}
			if te.Tool != ToolFFmpeg || te.Platform != target.Platform || te.Arch != target.Arch {
				t.Errorf("TargetError = %+v", te)
			}
		})
	}
}
