package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/logging"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/platform"
)

const (
	// FileName is the config file looked up in the config directory.
	FileName = "config.lua"
	// EnvConfigFile overrides the config file path.
	EnvConfigFile = "MEDIAFETCH_CONFIG"
)

// Loader reads configuration from the environment and an optional Lua file.
type Loader struct {
	parser *Parser
	logger logging.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithDetector sets the detector backing the Lua platform table.
func WithDetector(d platform.Detector) LoaderOption {
	return func(l *Loader) { l.parser = NewParser(d) }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logging.OrNop(logger) }
}

// NewLoader creates a loader using the host platform detector.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		parser: NewParser(platform.NewDetector()),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultPath returns the config file path: $MEDIAFETCH_CONFIG when set,
// otherwise ~/.mediafetch/config.lua.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigFile); p != "" {
		return homedir.Expand(p)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".mediafetch", FileName), nil
}

// Load builds a Config from defaults, the Lua file at path and the
// environment, in increasing precedence. A missing file is skipped; an
// empty path skips the file layer entirely.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	cfg := &Config{}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, &ParseError{Message: "invalid environment", Detail: err.Error()}
	}

	if path != "" {
		if err := l.applyFile(ctx, path, cfg); err != nil {
			return nil, err
		}
	}

	if err := cleanenv.UpdateEnv(cfg); err != nil {
		return nil, &ParseError{Message: "invalid environment", Detail: err.Error()}
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{Message: "config validation failed", Detail: err.Error()}
	}

	return cfg, nil
}

func (l *Loader) applyFile(ctx context.Context, path string, cfg *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Debug("no config file", "path", path)
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	for _, finding := range DetectSensitiveData(string(content)) {
		l.logger.Warn("config file contains a secret; prefer MEDIAFETCH_GITHUB_TOKEN",
			"path", path, "line", finding.Line, "kind", finding.PatternName, "preview", finding.Preview)
	}

	values, err := l.parser.ParseString(ctx, string(content))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if err := Decode(values, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	l.logger.Debug("loaded config file", "path", path, "keys", len(values))
	return nil
}

// Describe lists the supported environment variables with their defaults.
func Describe() (string, error) {
	header := "Environment variables:"
	return cleanenv.GetDescription(&Config{}, &header)
}
