// Package fetcher ties the installed tools together: it fetches metadata
// with yt-dlp, downloads the selected streams over HTTP and remuxes them
// with ffmpeg.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/binary"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/download"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/ffmpeg"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/logging"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/media"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/ytdlp"
)

var (
	// ErrInvalidPath means an output name is not a plain file name.
	ErrInvalidPath = errors.New("invalid output path")
	// ErrNoVideoFormat means the item has no downloadable video format.
	ErrNoVideoFormat = errors.New("no video format available")
	// ErrNoAudioFormat means the item has no downloadable audio format.
	ErrNoAudioFormat = errors.New("no audio format available")
	// ErrNoThumbnail means the item has no thumbnail URL.
	ErrNoThumbnail = errors.New("no thumbnail available")
)

const (
	defaultThumbnailExt = ".jpg"
	defaultVideoExt     = media.ExtMP4
	defaultAudioExt     = media.ExtM4A
)

// Fetcher downloads media into a single output directory.
type Fetcher struct {
	libs       binary.Libraries
	outputDir  string
	ytdlp      *ytdlp.Client
	remuxer    *ffmpeg.Remuxer
	downloader *download.Downloader
	logger     logging.Logger
}

type options struct {
	args       []string
	logger     logging.Logger
	downloader *download.Downloader
	audioCodec string
	overwrite  bool
	timeout    time.Duration
	ytdlpOpts  []ytdlp.Option
	ffmpegOpts []ffmpeg.Option
}

// Option configures a Fetcher.
type Option func(*options)

// WithArgs adds extra yt-dlp arguments.
func WithArgs(args ...string) Option {
	return func(o *options) { o.args = append(o.args, args...) }
}

// WithArg adds a single yt-dlp flag, followed by value when non-empty.
func WithArg(flag, value string) Option {
	return func(o *options) {
		o.args = append(o.args, flag)
		if value != "" {
			o.args = append(o.args, value)
		}
	}
}

// WithLogger sets the logger passed down to every component.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDownloader replaces the HTTP downloader used for streams.
func WithDownloader(d *download.Downloader) Option {
	return func(o *options) { o.downloader = d }
}

// WithAudioCodec sets the codec audio is re-encoded to when remuxing.
func WithAudioCodec(codec string) Option {
	return func(o *options) { o.audioCodec = codec }
}

// WithOverwrite lets remuxing replace an existing output file.
func WithOverwrite(overwrite bool) Option {
	return func(o *options) { o.overwrite = overwrite }
}

// WithTimeout bounds each yt-dlp and ffmpeg invocation.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithYtDlpOptions passes options straight to the yt-dlp client.
func WithYtDlpOptions(opts ...ytdlp.Option) Option {
	return func(o *options) { o.ytdlpOpts = append(o.ytdlpOpts, opts...) }
}

// WithFFmpegOptions passes options straight to the remuxer.
func WithFFmpegOptions(opts ...ffmpeg.Option) Option {
	return func(o *options) { o.ffmpegOpts = append(o.ffmpegOpts, opts...) }
}

// New creates a Fetcher using the executables in libs and writing into
// outputDir, which is created if missing.
func New(libs binary.Libraries, outputDir string, opts ...Option) (*Fetcher, error) {
	if libs.YtDlp == "" || libs.FFmpeg == "" {
		return nil, fmt.Errorf("%w: executable paths must be set", ErrInvalidPath)
	}
	if outputDir == "" {
		return nil, fmt.Errorf("%w: empty output directory", ErrInvalidPath)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrNop(o.logger)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	d := o.downloader
	if d == nil {
		d = download.NewDownloader(download.WithLogger(logger))
	}

	ytdlpOpts := []ytdlp.Option{
		ytdlp.WithArgs(o.args...),
		ytdlp.WithLogger(logger),
	}
	ffmpegOpts := []ffmpeg.Option{
		ffmpeg.WithAudioCodec(o.audioCodec),
		ffmpeg.WithOverwrite(o.overwrite),
		ffmpeg.WithLogger(logger),
	}
	if o.timeout > 0 {
		ytdlpOpts = append(ytdlpOpts, ytdlp.WithTimeout(o.timeout))
		ffmpegOpts = append(ffmpegOpts, ffmpeg.WithTimeout(o.timeout))
	}

	return &Fetcher{
		libs:       libs,
		outputDir:  outputDir,
		ytdlp:      ytdlp.New(libs.YtDlp, append(ytdlpOpts, o.ytdlpOpts...)...),
		remuxer:    ffmpeg.New(libs.FFmpeg, append(ffmpegOpts, o.ffmpegOpts...)...),
		downloader: d,
		logger:     logger,
	}, nil
}

// WithNewBinaries installs whichever tools are missing from binDir and
// returns a Fetcher using them.
func WithNewBinaries(ctx context.Context, inst *binary.Installer, binDir, outputDir string, opts ...Option) (*Fetcher, error) {
	libs, err := binary.DefaultLibraries(binDir, inst.Target().Platform).Ensure(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("install tools: %w", err)
	}
	return New(libs, outputDir, opts...)
}

// Libraries returns the executable paths in use.
func (f *Fetcher) Libraries() binary.Libraries {
	return f.libs
}

// OutputDir returns the directory downloads are written to.
func (f *Fetcher) OutputDir() string {
	return f.outputDir
}

// FetchInfo retrieves the metadata of the item at url.
func (f *Fetcher) FetchInfo(ctx context.Context, url string) (*media.MediaItem, error) {
	return f.ytdlp.FetchInfo(ctx, url)
}

// UpdateDownloader updates the yt-dlp executable in place.
func (f *Fetcher) UpdateDownloader(ctx context.Context) error {
	return f.ytdlp.Update(ctx)
}

// DownloadFormat streams format into the output directory as name and
// returns the written path.
func (f *Fetcher) DownloadFormat(ctx context.Context, format *media.Format, name string) (string, error) {
	if format == nil || format.URL == "" {
		return "", errors.New("format has no url")
	}

	dest, err := f.outputPath(name)
	if err != nil {
		return "", err
	}

	if err := f.downloader.DownloadToFile(ctx, format.URL, dest, download.WithHeaders(format.HTTPHeaders)); err != nil {
		return "", fmt.Errorf("download format %s: %w", format.FormatID, err)
	}

	f.logger.Debug("downloaded format", "format", format.FormatID, "path", dest)
	return dest, nil
}

// DownloadVideoStream downloads the best video format of item as
// <stem>.<ext>.
func (f *Fetcher) DownloadVideoStream(ctx context.Context, item *media.MediaItem, stem string) (string, error) {
	format := item.BestVideoFormat()
	if format == nil {
		return "", ErrNoVideoFormat
	}
	return f.DownloadFormat(ctx, format, stem+"."+string(format.FileExt(defaultVideoExt)))
}

// DownloadAudioStream downloads the best audio format of item as
// <stem>.<ext>.
func (f *Fetcher) DownloadAudioStream(ctx context.Context, item *media.MediaItem, stem string) (string, error) {
	format := item.BestAudioFormat()
	if format == nil {
		return "", ErrNoAudioFormat
	}
	return f.DownloadFormat(ctx, format, stem+"."+string(format.FileExt(defaultAudioExt)))
}

// DownloadVideo downloads the best audio and video streams of item
// concurrently and remuxes them into name. A name without an extension
// gets .mp4, which accepts the default aac audio whatever container the
// video stream came in. The intermediate streams are removed afterwards.
func (f *Fetcher) DownloadVideo(ctx context.Context, item *media.MediaItem, name string) (string, error) {
	videoFormat := item.BestVideoFormat()
	if videoFormat == nil {
		return "", ErrNoVideoFormat
	}
	audioFormat := item.BestAudioFormat()
	if audioFormat == nil {
		return "", ErrNoAudioFormat
	}

	if filepath.Ext(name) == "" {
		name += "." + string(defaultVideoExt)
	}
	if _, err := f.outputPath(name); err != nil {
		return "", err
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	var audioPath, videoPath string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := f.DownloadFormat(gctx, audioFormat, "audio-"+stem+"."+string(audioFormat.FileExt(defaultAudioExt)))
		audioPath = p
		return err
	})
	g.Go(func() error {
		p, err := f.DownloadFormat(gctx, videoFormat, "video-"+stem+"."+string(videoFormat.FileExt(defaultVideoExt)))
		videoPath = p
		return err
	})

	if err := g.Wait(); err != nil {
		f.removeIntermediates(audioPath, videoPath)
		return "", fmt.Errorf("download streams: %w", err)
	}

	output, err := f.Combine(ctx, audioPath, videoPath, name)
	f.removeIntermediates(audioPath, videoPath)
	if err != nil {
		return "", err
	}

	f.logger.Info("downloaded video", "id", item.ID, "path", output)
	return output, nil
}

// DownloadThumbnail downloads the best thumbnail of item as name. A name
// without an extension takes the one in the thumbnail URL, or .jpg.
func (f *Fetcher) DownloadThumbnail(ctx context.Context, item *media.MediaItem, name string) (string, error) {
	thumbURL := item.ThumbnailURL()
	if thumbURL == "" {
		return "", ErrNoThumbnail
	}

	if filepath.Ext(name) == "" {
		name += thumbnailExt(thumbURL)
	}

	dest, err := f.outputPath(name)
	if err != nil {
		return "", err
	}

	if err := f.downloader.DownloadToFile(ctx, thumbURL, dest); err != nil {
		return "", fmt.Errorf("download thumbnail: %w", err)
	}
	return dest, nil
}

// Combine remuxes the audio and video files into name inside the output
// directory and returns the output path.
func (f *Fetcher) Combine(ctx context.Context, audioPath, videoPath, name string) (string, error) {
	output, err := f.outputPath(name)
	if err != nil {
		return "", err
	}
	if err := f.remuxer.Combine(ctx, audioPath, videoPath, output); err != nil {
		return "", err
	}
	return output, nil
}

// DownloadVideoFromURL fetches the metadata at url, then calls DownloadVideo.
func (f *Fetcher) DownloadVideoFromURL(ctx context.Context, url, name string) (string, error) {
	item, err := f.FetchInfo(ctx, url)
	if err != nil {
		return "", err
	}
	return f.DownloadVideo(ctx, item, name)
}

// DownloadVideoStreamFromURL fetches the metadata at url, then calls
// DownloadVideoStream.
func (f *Fetcher) DownloadVideoStreamFromURL(ctx context.Context, url, stem string) (string, error) {
	item, err := f.FetchInfo(ctx, url)
	if err != nil {
		return "", err
	}
	return f.DownloadVideoStream(ctx, item, stem)
}

// DownloadAudioStreamFromURL fetches the metadata at url, then calls
// DownloadAudioStream.
func (f *Fetcher) DownloadAudioStreamFromURL(ctx context.Context, url, stem string) (string, error) {
	item, err := f.FetchInfo(ctx, url)
	if err != nil {
		return "", err
	}
	return f.DownloadAudioStream(ctx, item, stem)
}

// DownloadThumbnailFromURL fetches the metadata at url, then calls
// DownloadThumbnail.
func (f *Fetcher) DownloadThumbnailFromURL(ctx context.Context, url, name string) (string, error) {
	item, err := f.FetchInfo(ctx, url)
	if err != nil {
		return "", err
	}
	return f.DownloadThumbnail(ctx, item, name)
}

func (f *Fetcher) outputPath(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(f.outputDir, name), nil
}

func (f *Fetcher) removeIntermediates(paths ...string) {
	var errs []error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		f.logger.Warn("failed to remove intermediate streams", "error", err)
	}
}

// ValidateName checks that name is a plain file name with no directory part.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidPath, name)
	case strings.ContainsAny(name, `/\`), filepath.Base(name) != name, filepath.IsAbs(name):
		return fmt.Errorf("%w: %q must not contain a directory", ErrInvalidPath, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a null byte", ErrInvalidPath, name)
	}
	return nil
}

func thumbnailExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultThumbnailExt
	}
	if ext := path.Ext(u.Path); ext != "" && len(ext) <= 5 {
		return ext
	}
	return defaultThumbnailExt
}
