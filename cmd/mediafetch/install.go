package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/binary"
)

func printInstallHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: mediafetch install [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Download yt-dlp and ffmpeg for this machine, concurrently.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
}

// runInstall handles the `mediafetch install` subcommand
func runInstall(args []string) error {
	fs := newFlagSet("install", printInstallHelp)
	dir := fs.String("dir", "", "install directory (default: libraries_dir from config)")
	token := fs.String("token", "", "GitHub token for release API requests")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	ctx, cancel := signalContext()
	defer cancel()

	cfg, logger, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if *dir != "" {
		cfg.LibrariesDir = *dir
	}
	if *token != "" {
		cfg.GitHubToken = *token
	}

	inst, err := newInstaller(cfg, logger)
	if err != nil {
		return err
	}

	step("Installing yt-dlp and ffmpeg for %s into %s...", inst.Target(), cfg.LibrariesDir)
	start := time.Now()

	results, err := inst.InstallAll(ctx, cfg.LibrariesDir, cfg.InstallNames())
	if err != nil {
		return fmt.Errorf("install tools: %w", err)
	}

	tools := make([]binary.Tool, 0, len(results))
	for tool := range results {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i] < tools[j] })

	for _, tool := range tools {
		res := results[tool]
		version := res.Asset.Version
		if version == "" {
			version = "latest"
		}
		success("%s %s (%s) -> %s", tool, version, res.Verified, res.Path)
		if res.CleanupErr != nil {
			warn("leftover files after installing %s: %v", tool, res.CleanupErr)
		}
	}

	fmt.Printf("Done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
