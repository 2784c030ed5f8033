package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

func printUpdateHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: mediafetch update")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Let yt-dlp replace itself with its latest release.")
}

// runUpdate handles the `mediafetch update` subcommand
func runUpdate(args []string) error {
	fs := newFlagSet("update", printUpdateHelp)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	cfg, logger, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	f, err := openFetcher(ctx, cfg, logger)
	if err != nil {
		return err
	}

	step("Updating %s...", f.Libraries().YtDlp)
	if err := f.UpdateDownloader(ctx); err != nil {
		return err
	}
	success("yt-dlp is up to date")
	return nil
}
