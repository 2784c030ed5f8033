package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/fatih/color"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/binary"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/config"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/fetcher"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/logging"
)

var (
	successColor = color.New(color.FgHiGreen)
	warnColor    = color.New(color.FgHiYellow)
	infoColor    = color.New(color.FgCyan)
	labelColor   = color.New(color.Bold)
)

func success(format string, a ...any) {
	successColor.Printf("✓ "+format+"\n", a...)
}

func warn(format string, a ...any) {
	warnColor.Fprintf(os.Stderr, "! "+format+"\n", a...)
}

func step(format string, a ...any) {
	infoColor.Printf(format+"\n", a...)
}

// signalContext is canceled on interrupt so running subprocesses are killed.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// loadConfig reads the effective configuration.
func loadConfig(ctx context.Context) (*config.Config, logging.Logger, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return nil, nil, err
	}

	// Config loading logs before Debug is known; only warnings matter there.
	cfg, err := config.NewLoader(config.WithLogger(logging.NewSlog(os.Stderr, false))).Load(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %s", config.FormatError(err, false))
	}

	return cfg, logging.NewSlog(os.Stderr, cfg.Debug), nil
}

func newInstaller(cfg *config.Config, logger logging.Logger) (*binary.Installer, error) {
	var keyring openpgp.EntityList
	if cfg.Keyring != "" {
		var err error
		keyring, err = binary.LoadKeyring(cfg.Keyring)
		if err != nil {
			return nil, err
		}
	}

	return binary.NewInstaller(binary.Config{
		GitHubToken: cfg.GitHubToken,
		ReleaseRepo: cfg.ReleaseRepo,
		Keyring:     keyring,
		Logger:      logger,
	}), nil
}

// openFetcher installs missing tools and returns a fetcher writing to
// cfg.OutputDir.
func openFetcher(ctx context.Context, cfg *config.Config, logger logging.Logger, opts ...fetcher.Option) (*fetcher.Fetcher, error) {
	inst, err := newInstaller(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts = append([]fetcher.Option{
		fetcher.WithArgs(cfg.ExtraArgs...),
		fetcher.WithAudioCodec(cfg.AudioCodec),
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithLogger(logger),
	}, opts...)

	if cfg.YtDlpName == "" && cfg.FFmpegName == "" {
		return fetcher.WithNewBinaries(ctx, inst, cfg.LibrariesDir, cfg.OutputDir, opts...)
	}

	libs, err := cfg.Libraries(inst.Target().Platform).Ensure(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("install tools: %w", err)
	}
	return fetcher.New(libs, cfg.OutputDir, opts...)
}

// parseInterspersed parses args with fs, allowing flags after positional
// arguments, and returns the positional ones.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func newFlagSet(name string, usage func(w io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		usage(os.Stderr)
		fs.PrintDefaults()
	}
	return fs
}
