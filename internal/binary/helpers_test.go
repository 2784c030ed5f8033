package binary

import (
	"archive/tar"
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ulikunitz/xz"
)

// tarEntry describes one entry of a test archive.
type tarEntry struct {
	name     string
	content  string
	mode     int64
	typeflag byte
	linkname string
}

// sortedKeys gives deterministic archive ordering.
func sortedKeys(files map[string]string) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// createTestZip writes a zip archive with the given files to dir/name.
func createTestZip(t *testing.T, dir, name string, files map[string]string) string {
	t.Helper()

	archivePath := filepath.Join(dir, name)
	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)
	for _, entryName := range sortedKeys(files) {
		header := &zip.FileHeader{Name: entryName, Method: zip.Deflate}
		header.SetMode(0755)
		w, err := zw.CreateHeader(header)
		if err != nil {
			t.Fatalf("failed to create entry %s: %v", entryName, err)
		}
		if _, err := io.WriteString(w, files[entryName]); err != nil {
			t.Fatalf("failed to write entry %s: %v", entryName, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}

	return archivePath
}

// createTestTarXz writes a tar.xz archive with the given entries to dir/name.
func createTestTarXz(t *testing.T, dir, name string, entries []tarEntry) string {
	t.Helper()

	archivePath := filepath.Join(dir, name)
	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer func() { _ = f.Close() }()

	xw, err := xz.NewWriter(f)
	if err != nil {
		t.Fatalf("failed to create xz writer: %v", err)
	}

	tw := tar.NewWriter(xw)
	for _, e := range entries {
		typeflag := e.typeflag
		if typeflag == 0 {
			typeflag = tar.TypeReg
		}
		mode := e.mode
		if mode == 0 {
			mode = 0644
		}

		header := &tar.Header{
			Name:     e.name,
			Mode:     mode,
			Typeflag: typeflag,
			Linkname: e.linkname,
		}
		if typeflag == tar.TypeReg {
			header.Size = int64(len(e.content))
		}

		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("failed to write header for %s: %v", e.name, err)
		}
		if typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.content)); err != nil {
				t.Fatalf("failed to write content for %s: %v", e.name, err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	if err := xw.Close(); err != nil {
		t.Fatalf("failed to close xz writer: %v", err)
	}

	return archivePath
}
