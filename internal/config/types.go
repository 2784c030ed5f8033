package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/binary"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/platform"
)

// Config holds every mediafetch setting.
type Config struct {
	// LibrariesDir is where yt-dlp and ffmpeg are installed.
	LibrariesDir string `mapstructure:"libraries_dir" env:"MEDIAFETCH_LIBRARIES_DIR" env-upd:"" env-default:"~/.mediafetch/bin" env-description:"directory holding the yt-dlp and ffmpeg executables" validate:"required"`

	// OutputDir receives downloads.
	OutputDir string `mapstructure:"output_dir" env:"MEDIAFETCH_OUTPUT_DIR" env-upd:"" env-default:"." env-description:"directory downloads are written to" validate:"required"`

	GitHubToken string `mapstructure:"github_token" env:"MEDIAFETCH_GITHUB_TOKEN,GITHUB_TOKEN" env-upd:"" env-description:"token for GitHub release API requests"`

	// ReleaseRepo is the "owner/repo" yt-dlp releases are fetched from.
	ReleaseRepo string `mapstructure:"release_repo" env:"MEDIAFETCH_RELEASE_REPO" env-upd:"" env-default:"yt-dlp/yt-dlp" env-description:"GitHub repository of yt-dlp releases" validate:"required,contains=/"`

	// YtDlpName and FFmpegName override the installed executable names.
	YtDlpName  string `mapstructure:"ytdlp_name" env:"MEDIAFETCH_YTDLP_NAME" env-upd:"" env-description:"custom yt-dlp executable name" validate:"omitempty,excludesall=/\\"`
	FFmpegName string `mapstructure:"ffmpeg_name" env:"MEDIAFETCH_FFMPEG_NAME" env-upd:"" env-description:"custom ffmpeg executable name" validate:"omitempty,excludesall=/\\"`

	// Timeout bounds every yt-dlp and ffmpeg invocation.
	Timeout time.Duration `mapstructure:"timeout" env:"MEDIAFETCH_TIMEOUT" env-upd:"" env-default:"30s" env-description:"subprocess timeout" validate:"gt=0"`

	AudioCodec string `mapstructure:"audio_codec" env:"MEDIAFETCH_AUDIO_CODEC" env-upd:"" env-default:"aac" env-description:"codec audio is re-encoded to when remuxing" validate:"required"`

	// ExtraArgs are passed to every yt-dlp invocation.
	ExtraArgs []string `mapstructure:"extra_args" env:"MEDIAFETCH_EXTRA_ARGS" env-upd:"" env-separator:" " env-description:"space separated extra yt-dlp arguments"`

	// Keyring is an OpenPGP public keyring; when set, yt-dlp checksums must be signed by it.
	Keyring string `mapstructure:"keyring" env:"MEDIAFETCH_KEYRING" env-upd:"" env-description:"OpenPGP keyring verifying yt-dlp checksums"`

	Debug bool `mapstructure:"debug" env:"MEDIAFETCH_DEBUG" env-upd:"" env-default:"false" env-description:"enable debug logging"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// expandPaths resolves a leading "~" in every path field.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.LibrariesDir, &c.OutputDir, &c.Keyring} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expand %q: %w", *p, err)
		}
		*p = filepath.Clean(expanded)
	}
	return nil
}

// Libraries returns the executable paths for p inside LibrariesDir.
func (c *Config) Libraries(p platform.Platform) binary.Libraries {
	libs := binary.DefaultLibraries(c.LibrariesDir, p)
	if c.YtDlpName != "" {
		libs.YtDlp = filepath.Join(c.LibrariesDir, binary.ExecutableName(c.YtDlpName, p))
	}
	if c.FFmpegName != "" {
		libs.FFmpeg = filepath.Join(c.LibrariesDir, binary.ExecutableName(c.FFmpegName, p))
	}
	return libs
}

// InstallNames returns the custom executable names keyed by tool, empty
// for the defaults, as expected by binary.Installer.InstallAll.
func (c *Config) InstallNames() map[binary.Tool]string {
	return map[binary.Tool]string{
		binary.ToolYtDlp:  c.YtDlpName,
		binary.ToolFFmpeg: c.FFmpegName,
	}
}
