package binary

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/ulikunitz/xz"
)

// Extractor handles archive extraction. It holds no state, so concurrent
// calls with different destinations are safe.
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// archiveSuffixes lists recognized archive extensions, longest first.
var archiveSuffixes = []string{".tar.xz", ".txz", ".zip"}

// ArchiveStem returns name without its archive extension.
func ArchiveStem(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return name[:len(name)-len(suffix)]
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Extract unpacks archivePath into destDir, choosing the format by extension.
func (e *Extractor) Extract(archivePath, destDir string) error {
	lower := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return e.ExtractZip(archivePath, destDir)
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return e.ExtractTarXz(archivePath, destDir)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedArchive, filepath.Base(archivePath))
	}
}

// safeJoin joins an archive entry name onto destDir and rejects names that
// are absolute or escape destDir after cleaning. It also rejects entries
// whose path crosses a symlink already extracted into destDir, since the
// on-disk link may lead anywhere.
func safeJoin(destDir, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return "", fmt.Errorf("%w: %s", ErrIllegalPath, name)
	}

	root := filepath.Clean(destDir)
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrIllegalPath, name)
	}

	if err := checkNoSymlinks(root, target); err != nil {
		return "", fmt.Errorf("%w: %s", err, name)
	}

	return target, nil
}

// checkNoSymlinks walks from root down to target and fails if any existing
// component below root is a symlink. Components that do not exist yet end
// the walk; they will be created as plain directories.
func checkNoSymlinks(root, target string) error {
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." {
		return err
	}

	current := root
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("inspect %s: %w", current, err)
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("%w: path crosses symlink %s", ErrIllegalPath, current)
		}
	}

	return nil
}

// checkLinkTarget rejects symlinks that point outside destDir.
func checkLinkTarget(destDir, linkPath, linkTarget string) error {
	if filepath.IsAbs(linkTarget) || strings.HasPrefix(linkTarget, "/") {
		return fmt.Errorf("%w: symlink %s -> %s", ErrIllegalPath, linkPath, linkTarget)
	}

	root := filepath.Clean(destDir)
	resolved := filepath.Join(filepath.Dir(linkPath), filepath.FromSlash(linkTarget))
	if resolved != root && !strings.HasPrefix(resolved, root+string(os.PathSeparator)) {
		return fmt.Errorf("%w: symlink %s -> %s", ErrIllegalPath, linkPath, linkTarget)
	}

	return nil
}

// writeFile copies r into a new file at target, creating parent directories.
func writeFile(target string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}

	if mode.Perm() == 0 {
		mode = 0644
	}

	outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}

	if _, err := io.Copy(outFile, r); err != nil {
		outFile.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}

	return outFile.Close()
}

// ExtractZip extracts a .zip archive to a destination directory.
func (e *Extractor) ExtractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	for _, f := range reader.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir() || strings.HasSuffix(f.Name, "/"):
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

		case mode&fs.ModeSymlink != 0:
			if err := extractZipSymlink(f, destDir, target); err != nil {
				return err
			}

		default:
			if err := extractZipFile(f, target, mode); err != nil {
				return err
			}
		}
	}

	return nil
}

func extractZipFile(f *zip.File, target string, mode fs.FileMode) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	return writeFile(target, rc, mode)
}

func extractZipSymlink(f *zip.File, destDir, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	linkTarget, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read symlink %s: %w", f.Name, err)
	}

	if err := checkLinkTarget(destDir, target, string(linkTarget)); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}

	if err := os.Symlink(string(linkTarget), target); err != nil {
		return fmt.Errorf("create symlink %s: %w", target, err)
	}

	return nil
}

// ExtractTarXz extracts a .tar.xz archive to a destination directory in a
// single streaming pass.
func (e *Extractor) ExtractTarXz(archivePath, destDir string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	xzReader, err := xz.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("create xz reader: %w", err)
	}

	return extractTar(tar.NewReader(xzReader), destDir)
}

func extractTar(tarReader *tar.Reader, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

		case tar.TypeReg:
			if err := writeFile(target, tarReader, fs.FileMode(header.Mode)); err != nil {
				return err
			}

		case tar.TypeSymlink:
			if err := checkLinkTarget(destDir, target, header.Linkname); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("create symlink %s: %w", target, err)
			}

		default:
			// Skip other types (char devices, block devices, etc.)
			continue
		}
	}
}

// SetExecutable sets executable permissions on a file
func SetExecutable(path string) error {
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}
