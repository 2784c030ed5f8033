package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/config"
)

func printConfigHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: mediafetch config [--env]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the effective configuration.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
}

// runConfig handles the `mediafetch config` subcommand
func runConfig(args []string) error {
	fs := newFlagSet("config", printConfigHelp)
	showEnv := fs.Bool("env", false, "list supported environment variables instead")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if *showEnv {
		desc, err := config.Describe()
		if err != nil {
			return err
		}
		fmt.Println(desc)
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	cfg, _, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	printConfig(os.Stdout, cfg)
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	token := ""
	if cfg.GitHubToken != "" {
		token = "[set]"
	}

	rows := [][2]string{
		{"libraries_dir", cfg.LibrariesDir},
		{"output_dir", cfg.OutputDir},
		{"release_repo", cfg.ReleaseRepo},
		{"github_token", token},
		{"ytdlp_name", cfg.YtDlpName},
		{"ffmpeg_name", cfg.FFmpegName},
		{"timeout", cfg.Timeout.String()},
		{"audio_codec", cfg.AudioCodec},
		{"extra_args", fmt.Sprintf("%q", cfg.ExtraArgs)},
		{"keyring", cfg.Keyring},
		{"debug", fmt.Sprintf("%t", cfg.Debug)},
	}
	for _, r := range rows {
		labelColor.Fprintf(w, "%-14s", r[0])
		fmt.Fprintln(w, r[1])
	}
}
