package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/media"
)

func printInfoHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: mediafetch info <url> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Show the metadata of a media item and the formats a download would pick.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
}

// runInfo handles the `mediafetch info` subcommand
func runInfo(args []string) error {
	fs := newFlagSet("info", printInfoHelp)
	asJSON := fs.Bool("json", false, "print the full metadata as JSON")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("info takes exactly one url\nRun 'mediafetch info --help' for usage")
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

	item, err := f.FetchInfo(ctx, positional[0])
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(item)
	}

	printItem(os.Stdout, item)
	return nil
}

func printItem(w io.Writer, item *media.MediaItem) {
	row := func(label, value string) {
		if value == "" {
			return
		}
		labelColor.Fprintf(w, "%-12s", label+":")
		fmt.Fprintln(w, value)
	}

	row("Title", item.Title)
	row("ID", item.ID)
	row("Channel", item.Channel)
	if item.Duration != nil {
		row("Duration", time.Duration(*item.Duration*float64(time.Second)).Round(time.Second).String())
	}
	row("Formats", fmt.Sprintf("%d", len(item.Formats)))
	row("Best video", describeFormat(item.BestVideoFormat()))
	row("Best audio", describeFormat(item.BestAudioFormat()))
	row("Thumbnail", item.ThumbnailURL())
}

// describeFormat renders the fields that matter when choosing a format.
func describeFormat(f *media.Format) string {
	if f == nil {
		return "none"
	}

	parts := []string{f.FormatID, string(f.FileExt(media.ExtNone))}
	if f.Width != nil && f.Height != nil {
		parts = append(parts, fmt.Sprintf("%dx%d", *f.Width, *f.Height))
	} else if f.Height != nil {
		parts = append(parts, fmt.Sprintf("%dp", *f.Height))
	}
	if f.FPS != nil {
		parts = append(parts, fmt.Sprintf("%gfps", *f.FPS))
	}
	if f.VCodec.IsSet() {
		parts = append(parts, string(f.VCodec))
	}
	if f.ACodec.IsSet() {
		parts = append(parts, string(f.ACodec))
	}

	switch {
	case f.IsVideo() && f.VBR != nil:
		parts = append(parts, fmt.Sprintf("%.0fk", *f.VBR))
	case f.ABR != nil:
		parts = append(parts, fmt.Sprintf("%.0fk", *f.ABR))
	case f.TBR != nil:
		parts = append(parts, fmt.Sprintf("%.0fk", *f.TBR))
	}

	return strings.Join(parts, " ")
}
