package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/platform"
)

func linuxDetector() platform.Detector {
	return platform.StaticDetector{Info: platform.Info{
		Platform: platform.Linux,
		Arch:     platform.X64,
		ArchRaw:  "amd64",
		Distro:   "ubuntu",
		Family:   "debian",
		Version:  "24.04",
	}}
}

func TestParser_ParseString(t *testing.T) {
	code := `
		mediafetch = {
			output_dir = "~/Videos",
			timeout = "45s",
			debug = true,
			extra_args = {
				"--no-mtime",
				platform.when(platform.is_windows, "--windows-filenames"),
				platform.when(platform.is_linux, "--restrict-filenames"),
			},
			audio_codec = platform.distro.family == "debian" and "libopus" or "aac",
		}
	`

	values, err := NewParser(linuxDetector()).ParseString(context.Background(), code)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	if values["output_dir"] != "~/Videos" || values["timeout"] != "45s" || values["debug"] != true {
		t.Errorf("values = %v", values)
	}
	if values["audio_codec"] != "libopus" {
		t.Errorf("audio_codec = %v, want platform-derived libopus", values["audio_codec"])
	}

	args, ok := values["extra_args"].([]any)
	if !ok || len(args) != 2 || args[0] != "--no-mtime" || args[1] != "--restrict-filenames" {
		t.Errorf("extra_args = %#v, want nil entries dropped", values["extra_args"])
	}
}

func TestParser_ParseStringErrors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
	}{
		{name: "syntax_error", code: `mediafetch = {`, wantMsg: "Lua error"},
		{name: "missing_table", code: `x = 1`, wantMsg: "missing or invalid 'mediafetch' table"},
		{name: "wrong_type", code: `mediafetch = "yes"`, wantMsg: "missing or invalid 'mediafetch' table"},
		{name: "list_instead_of_fields", code: `mediafetch = {"a", "b"}`, wantMsg: "invalid 'mediafetch' table"},
		{name: "sandboxed", code: `mediafetch = { output_dir = os.getenv("HOME") }`, wantMsg: "Lua error"},
		{name: "platform_read_only", code: `platform.os = "windows"; mediafetch = {}`, wantMsg: "Lua error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(linuxDetector()).ParseString(context.Background(), tt.code)

			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if parseErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", parseErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestParser_NoDetector(t *testing.T) {
	values, err := NewParser(nil).ParseString(context.Background(), `mediafetch = { debug = platform == nil }`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if values["debug"] != true {
		t.Error("platform table should be absent without a detector")
	}
}

func TestParser_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(nil).ParseString(ctx, `while true do end`)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		check func(t *testing.T, cfg *Config)
	}{
		{
			name:  "duration_string",
			input: map[string]any{"timeout": "1m30s"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Timeout != 90*time.Second {
					t.Errorf("Timeout = %v", cfg.Timeout)
				}
			},
		},
		{
			name:  "duration_seconds_integer",
			input: map[string]any{"timeout": int64(45)},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Timeout != 45*time.Second {
					t.Errorf("Timeout = %v", cfg.Timeout)
				}
			},
		},
		{
			name:  "duration_seconds_fraction",
			input: map[string]any{"timeout": 1.5},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Timeout != 1500*time.Millisecond {
					t.Errorf("Timeout = %v", cfg.Timeout)
				}
			},
		},
		{
			name:  "args_from_string",
			input: map[string]any{"extra_args": "--no-mtime --quiet"},
			check: func(t *testing.T, cfg *Config) {
				if strings.Join(cfg.ExtraArgs, "|") != "--no-mtime|--quiet" {
					t.Errorf("ExtraArgs = %q", cfg.ExtraArgs)
				}
			},
		},
		{
			name:  "weak_bool",
			input: map[string]any{"debug": int64(1)},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.Debug {
					t.Error("Debug should be true")
				}
			},
		},
		{
			name:  "untouched_fields_kept",
			input: map[string]any{"ytdlp_name": "ytdl"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.AudioCodec != "opus" || cfg.YtDlpName != "ytdl" {
					t.Errorf("cfg = %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AudioCodec: "opus"}
			if err := Decode(tt.input, cfg); err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestDecode_UnknownKey(t *testing.T) {
	err := Decode(map[string]any{"output_dirr": "x"}, &Config{})

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if !strings.Contains(parseErr.Detail, "output_dirr") {
		t.Errorf("Detail = %q, want the unknown key", parseErr.Detail)
	}
}

func TestFormatError(t *testing.T) {
	err := &ParseError{Message: "Lua error", Detail: "line 3: unexpected symbol\nstack traceback:\n\t[G]: ?"}

	if got := FormatError(err, false); got != "Lua error: line 3: unexpected symbol" {
		t.Errorf("FormatError(false) = %q", got)
	}
	if got := FormatError(err, true); !strings.Contains(got, "Details:") || !strings.Contains(got, "stack traceback") {
		t.Errorf("FormatError(true) = %q", got)
	}
	if got := FormatError(errors.New("plain"), false); got != "plain" {
		t.Errorf("FormatError(plain) = %q", got)
	}
}
