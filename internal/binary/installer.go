package binary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"golang.org/x/sync/errgroup"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/download"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/logging"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/platform"
)

// ErrInvalidName means a custom executable name is not a plain file name.
var ErrInvalidName = errors.New("invalid executable name")

// Installer orchestrates resolve, download, extract and relocation of tools.
type Installer struct {
	target     Target
	resolvers  map[Tool]Resolver
	layouts    map[Tool]Layout
	downloader *download.Downloader
	extractor  *Extractor
	verifier   *Verifier
	logger     logging.Logger
}

// Config holds configuration for the installer
type Config struct {
	// Target selects the binaries to install; the host when zero.
	Target Target
	// Downloader performs HTTP transfers; a default one when nil.
	Downloader *download.Downloader
	// GitHubToken authenticates release API requests (optional).
	GitHubToken string
	// ReleaseRepo is the "owner/repo" of yt-dlp releases; DefaultYtDlpRepo when empty.
	ReleaseRepo string
	// Keyring, when set, requires yt-dlp checksum files to carry a valid signature.
	Keyring openpgp.EntityList
	// Resolvers overrides the resolver per tool.
	Resolvers map[Tool]Resolver
	// Layouts overrides the archive layout per tool. Tools without a layout
	// are installed from a bare executable asset.
	Layouts map[Tool]Layout
	Logger  logging.Logger
}

// NewInstaller creates a new installer
func NewInstaller(cfg Config) *Installer {
	target := cfg.Target
	if target == (Target{}) {
		target = Target{Platform: platform.DetectPlatform(), Arch: platform.DetectArchitecture()}
	}

	d := cfg.Downloader
	if d == nil {
		d = download.NewDownloader(download.WithLogger(cfg.Logger))
	}

	inst := &Installer{
		target: target,
		resolvers: map[Tool]Resolver{
			ToolYtDlp:  NewReleaseResolver(d, cfg.ReleaseRepo, cfg.GitHubToken),
			ToolFFmpeg: NewStaticResolver(),
		},
		layouts: map[Tool]Layout{
			ToolFFmpeg: DefaultFFmpegLayout,
		},
		downloader: d,
		extractor:  NewExtractor(),
		verifier:   NewVerifier(cfg.Keyring),
		logger:     logging.OrNop(cfg.Logger),
	}

	for tool, r := range cfg.Resolvers {
		inst.resolvers[tool] = r
	}
	for tool, l := range cfg.Layouts {
		inst.layouts[tool] = l
	}

	return inst
}

// Target returns the platform and architecture binaries are installed for.
func (i *Installer) Target() Target {
	return i.target
}

// ExecutableName returns the default file name of tool on the installer's target.
func (i *Installer) ExecutableName(tool Tool) string {
	return ExecutableName(tool.String(), i.target.Platform)
}

// Install installs tool into destDir, named customName when non-empty.
//
// A non-nil result with a non-nil CleanupErr means the binary is installed
// but intermediate files could not all be removed.
func (i *Installer) Install(ctx context.Context, tool Tool, destDir, customName string) (*InstallResult, error) {
	startTime := time.Now()

	name := tool.String()
	if customName != "" {
		if filepath.Base(customName) != customName || customName == "." || customName == ".." {
			return nil, fmt.Errorf("%w: %q", ErrInvalidName, customName)
		}
		name = customName
	}
	finalName := ExecutableName(name, i.target.Platform)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("create destination dir: %w", err)
	}

	lock, err := acquireInstallLock(destDir, tool)
	if err != nil {
		return nil, fmt.Errorf("install %s: %w", tool, err)
	}
	defer func() {
		if err := lock.release(); err != nil {
			i.logger.Warn("release install lock", "tool", tool, "error", err)
		}
	}()

	resolver, ok := i.resolvers[tool]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, tool)
	}

	resolved, err := resolver.Resolve(ctx, i.target.Platform, i.target.Arch)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", tool, err)
	}

	i.logger.Debug("resolved download", "tool", tool, "asset", resolved.AssetName, "version", resolved.Version)

	var result *InstallResult
	if layout, ok := i.layouts[tool]; ok {
		result, err = i.installArchive(ctx, tool, resolved, layout, destDir, finalName)
	} else {
		result, err = i.installExecutable(ctx, tool, resolved, destDir, finalName)
	}
	if err != nil {
		return nil, err
	}

	if result.CleanupErr != nil {
		i.logger.Warn("cleanup after install failed", "tool", tool, "error", result.CleanupErr)
	}
	i.logger.Info("installed", "tool", tool, "path", result.Path, "verified", result.Verified, "took", time.Since(startTime))

	return result, nil
}

// installExecutable downloads an asset that is itself the executable.
func (i *Installer) installExecutable(ctx context.Context, tool Tool, resolved *ResolvedDownload, destDir, finalName string) (*InstallResult, error) {
	finalPath := filepath.Join(destDir, finalName)

	if err := i.downloader.DownloadToFile(ctx, resolved.AssetURL, finalPath); err != nil {
		return nil, fmt.Errorf("download %s: %w", tool, err)
	}

	verified, err := i.verifier.Verify(ctx, i.downloader, resolved, finalPath, destDir)
	if err != nil {
		os.Remove(finalPath)
		return nil, fmt.Errorf("verify %s: %w", tool, err)
	}

	if err := i.makeExecutable(finalPath); err != nil {
		return nil, err
	}

	return &InstallResult{
		Tool:     tool,
		Path:     finalPath,
		Asset:    *resolved,
		Verified: verified,
	}, nil
}

// installArchive downloads an archive, extracts it next to itself, and
// copies the binary the layout points at into destDir.
func (i *Installer) installArchive(ctx context.Context, tool Tool, resolved *ResolvedDownload, layout Layout, destDir, finalName string) (*InstallResult, error) {
	assetName := filepath.Base(resolved.AssetName)
	archivePath := filepath.Join(destDir, assetName)
	extractDir := filepath.Join(destDir, ArchiveStem(assetName))

	if err := i.downloader.DownloadToFile(ctx, resolved.AssetURL, archivePath); err != nil {
		return nil, fmt.Errorf("download %s: %w", tool, err)
	}

	cleanup := func() error {
		return errors.Join(removeAll(extractDir), removeFile(archivePath))
	}

	if err := i.extractor.Extract(archivePath, extractDir); err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("extract %s: %w", tool, err)
	}

	binPath, err := layout.Locate(tool, extractDir, i.target)
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("locate %s: %w", tool, err)
	}

	finalPath := filepath.Join(filepath.Dir(extractDir), finalName)
	if err := copyFile(binPath, finalPath); err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("copy %s: %w", tool, err)
	}

	cleanupErr := cleanup()

	if err := i.makeExecutable(finalPath); err != nil {
		return nil, err
	}

	return &InstallResult{
		Tool:       tool,
		Path:       finalPath,
		Asset:      *resolved,
		Verified:   VerificationNone,
		CleanupErr: cleanupErr,
	}, nil
}

func (i *Installer) makeExecutable(path string) error {
	if i.target.Platform == platform.Windows {
		return nil
	}
	return SetExecutable(path)
}

// InstallAll installs every tool in names concurrently, keyed by tool with
// the custom name as value (empty for the default). The first failure
// cancels the remaining installs.
func (i *Installer) InstallAll(ctx context.Context, destDir string, names map[Tool]string) (map[Tool]*InstallResult, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	results := make(map[Tool]*InstallResult, len(names))

	for tool, name := range names {
		g.Go(func() error {
			res, err := i.Install(ctx, tool, destDir, name)
			if err != nil {
				return err
			}
			mu.Lock()
			results[tool] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// IsInstalled checks if path is an existing regular file that is executable
// on the installer's target.
func (i *Installer) IsInstalled(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat binary: %w", err)
	}

	if !info.Mode().IsRegular() {
		return false, nil
	}

	if i.target.Platform != platform.Windows && info.Mode().Perm()&0111 == 0 {
		return false, nil
	}

	return true, nil
}

// copyFile copies src to dst through a temporary file in dst's directory.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("copy contents: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

func removeAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// trimExe strips a Windows executable suffix.
func trimExe(name string) string {
	if hasExeSuffix(name) {
		return name[:len(name)-len(".exe")]
	}
	return name
}

// splitToolName reports the custom name implied by an executable path, or
// "" when the file name is the tool's default.
func splitToolName(tool Tool, path string, p platform.Platform) (dir, custom string) {
	dir = filepath.Dir(path)
	base := filepath.Base(path)
	if base == ExecutableName(tool.String(), p) {
		return dir, ""
	}
	if p == platform.Windows {
		base = trimExe(base)
	}
	return dir, strings.TrimSpace(base)
}
