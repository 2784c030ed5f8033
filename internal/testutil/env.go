// Package testutil provides utilities for testing mediafetch in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Env holds the isolated directories created by SetupTestEnv.
type Env struct {
	Root         string
	LibrariesDir string
	OutputDir    string
	ConfigFile   string
}

// SetupTestEnv points every mediafetch location at a fresh temp directory
// and unsets inherited MEDIAFETCH_* variables, so tests never touch real
// installations or the user's config. The original environment is
// restored when the test ends.
func SetupTestEnv(t *testing.T) Env {
	t.Helper()

	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "MEDIAFETCH_") || name == "GITHUB_TOKEN" {
			unsetenv(t, name)
		}
	}

	tmpDir := t.TempDir()
	env := Env{
		Root:         tmpDir,
		LibrariesDir: filepath.Join(tmpDir, "bin"),
		OutputDir:    filepath.Join(tmpDir, "out"),
		ConfigFile:   filepath.Join(tmpDir, "config", "config.lua"),
	}

	for _, dir := range []string{env.LibrariesDir, env.OutputDir, filepath.Dir(env.ConfigFile)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	t.Setenv("MEDIAFETCH_LIBRARIES_DIR", env.LibrariesDir)
	t.Setenv("MEDIAFETCH_OUTPUT_DIR", env.OutputDir)
	t.Setenv("MEDIAFETCH_CONFIG", env.ConfigFile)

	return env
}

// WriteConfig writes a Lua config file at the environment's config path.
func (e Env) WriteConfig(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(e.ConfigFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

// unsetenv removes name for the rest of the test. t.Setenv records the
// original value for restoration.
func unsetenv(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "")
	if err := os.Unsetenv(name); err != nil {
		t.Fatalf("unsetenv %s: %v", name, err)
	}
}
