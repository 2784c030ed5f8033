// Package ffmpeg invokes the ffmpeg executable to remux separately
// downloaded audio and video streams into one file.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	transcoder "github.com/floostack/transcoder/ffmpeg"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/executor"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/logging"
)

// DefaultAudioCodec is the codec audio is re-encoded to.
const DefaultAudioCodec = "aac"

// ErrMissingInput means an input or output path is empty.
var ErrMissingInput = errors.New("missing input or output path")

// Remuxer combines an audio and a video file, copying the video stream and
// re-encoding the audio.
type Remuxer struct {
	path       string
	audioCodec string
	overwrite  bool
	globalArgs []string
	timeout    time.Duration
	env        []string
	logger     logging.Logger
}

// Option configures a Remuxer.
type Option func(*Remuxer)

// WithAudioCodec overrides DefaultAudioCodec.
func WithAudioCodec(codec string) Option {
	return func(r *Remuxer) {
		if codec != "" {
			r.audioCodec = codec
		}
	}
}

// WithOverwrite lets ffmpeg replace an existing output file.
func WithOverwrite(overwrite bool) Option {
	return func(r *Remuxer) { r.overwrite = overwrite }
}

// WithGlobalArgs adds arguments placed before the inputs.
func WithGlobalArgs(args ...string) Option {
	return func(r *Remuxer) { r.globalArgs = append(r.globalArgs, args...) }
}

// WithTimeout bounds each invocation; executor.DefaultTimeout when unset.
func WithTimeout(d time.Duration) Option {
	return func(r *Remuxer) { r.timeout = d }
}

// WithEnv adds environment variables for the subprocess.
func WithEnv(env ...string) Option {
	return func(r *Remuxer) { r.env = append(r.env, env...) }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Remuxer) { r.logger = logging.OrNop(l) }
}

// New creates a remuxer for the ffmpeg executable at path.
func New(path string, opts ...Option) *Remuxer {
	r := &Remuxer{
		path:       path,
		audioCodec: DefaultAudioCodec,
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the executable path.
func (r *Remuxer) Path() string {
	return r.path
}

// Args returns the command line, without the executable, that combines
// audio and video into output.
func (r *Remuxer) Args(audio, video, output string) []string {
	videoCodec := "copy"
	audioCodec := r.audioCodec
	opts := transcoder.Options{
		VideoCodec: &videoCodec,
		AudioCodec: &audioCodec,
	}
	if r.overwrite {
		overwrite := true
		opts.Overwrite = &overwrite
	}

	args := slices.Clone(r.globalArgs)
	args = append(args, "-i", audio, "-i", video)
	args = append(args, opts.GetStrArguments()...)
	return append(args, output)
}

// Combine writes output from the audio and video inputs.
func (r *Remuxer) Combine(ctx context.Context, audio, video, output string) error {
	if audio == "" || video == "" || output == "" {
		return ErrMissingInput
	}

	e := &executor.Executor{
		Path:    r.path,
		Args:    r.Args(audio, video, output),
		Timeout: r.timeout,
		Env:     r.env,
		Logger:  r.logger,
	}

	if _, err := e.Execute(ctx); err != nil {
		return fmt.Errorf("combine %s and %s: %w", audio, video, err)
	}

	r.logger.Debug("combined streams", "audio", audio, "video", video, "output", output)
	return nil
}
