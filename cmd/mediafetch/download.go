package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/fetcher"
)

func printDownloadHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: mediafetch download <url> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Download the best audio and video streams and remux them into one file.")
	fmt.Fprintln(w, "Missing tools are installed first.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
}

type downloadOptions struct {
	url       string
	output    string
	outputDir string
	audioOnly bool
	videoOnly bool
	thumbnail bool
	force     bool
}

func parseDownloadArgs(args []string) (*downloadOptions, error) {
	opts := &downloadOptions{}

	fs := newFlagSet("download", printDownloadHelp)
	fs.StringVar(&opts.output, "o", "", "output file name inside the output directory (default: the media id)")
	fs.StringVar(&opts.outputDir, "dir", "", "output directory (default: output_dir from config)")
	fs.BoolVar(&opts.audioOnly, "audio-only", false, "download only the best audio stream")
	fs.BoolVar(&opts.videoOnly, "video-only", false, "download only the best video stream")
	fs.BoolVar(&opts.thumbnail, "thumbnail", false, "also download the best thumbnail")
	fs.BoolVar(&opts.force, "force", false, "overwrite an existing output file")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return nil, err
	}

	if len(positional) != 1 {
		return nil, fmt.Errorf("download takes exactly one url\nRun 'mediafetch download --help' for usage")
	}
	opts.url = positional[0]

	if opts.audioOnly && opts.videoOnly {
		return nil, fmt.Errorf("--audio-only and --video-only are mutually exclusive")
	}
	if opts.output != "" {
		if err := fetcher.ValidateName(opts.output); err != nil {
			return nil, err
		}
	}

	return opts, nil
}

// runDownload handles the `mediafetch download` subcommand
func runDownload(args []string) error {
	opts, err := parseDownloadArgs(args)
	if err != nil {
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
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}

	f, err := openFetcher(ctx, cfg, logger, fetcher.WithOverwrite(opts.force))
	if err != nil {
		return err
	}

	step("Fetching metadata for %s...", opts.url)
	item, err := f.FetchInfo(ctx, opts.url)
	if err != nil {
		return err
	}

	name := opts.output
	if name == "" {
		name = item.ID
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))

	var path string
	switch {
	case opts.audioOnly:
		step("Downloading audio: %s", describeFormat(item.BestAudioFormat()))
		path, err = f.DownloadAudioStream(ctx, item, stem)
	case opts.videoOnly:
		step("Downloading video: %s", describeFormat(item.BestVideoFormat()))
		path, err = f.DownloadVideoStream(ctx, item, stem)
	default:
		step("Downloading %s + %s", describeFormat(item.BestVideoFormat()), describeFormat(item.BestAudioFormat()))
		path, err = f.DownloadVideo(ctx, item, name)
	}
	if err != nil {
		return err
	}
	success("Saved %s", path)

	if opts.thumbnail {
		thumb, err := f.DownloadThumbnail(ctx, item, stem+"-thumbnail")
		if err != nil {
			warn("thumbnail: %v", err)
		} else {
			success("Saved %s", thumb)
		}
	}

	return nil
}
