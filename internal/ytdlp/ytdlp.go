// Package ytdlp invokes the yt-dlp executable.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/duke-git/lancet/v2/slice"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/executor"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/logging"
	"github.com/ZebulonRouseFrantzich/mediafetch/internal/media"
)

// ErrEmptyURL means no media URL was given.
var ErrEmptyURL = errors.New("empty media url")

// Client runs yt-dlp. It is safe for concurrent use.
type Client struct {
	path    string
	args    []string
	timeout time.Duration
	env     []string
	logger  logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithArgs adds arguments placed before the ones each call adds. Empty
// strings are dropped.
func WithArgs(args ...string) Option {
	return func(c *Client) {
		c.args = append(c.args, slice.Compact(args)...)
	}
}

// WithTimeout bounds each invocation; executor.DefaultTimeout when unset.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithEnv adds environment variables for the subprocess.
func WithEnv(env ...string) Option {
	return func(c *Client) { c.env = append(c.env, env...) }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(l) }
}

// New creates a client for the executable at path.
func New(path string, opts ...Option) *Client {
	c := &Client{
		path:   path,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the executable path.
func (c *Client) Path() string {
	return c.path
}

// Args returns a copy of the extra arguments.
func (c *Client) Args() []string {
	return slices.Clone(c.args)
}

// FetchInfo retrieves and parses the metadata of the item at url.
func (c *Client) FetchInfo(ctx context.Context, url string) (*media.MediaItem, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrEmptyURL
	}

	res, err := c.run(ctx, "--no-progress", "--dump-json", url)
	if err != nil {
		return nil, fmt.Errorf("fetch info for %s: %w", url, err)
	}

	item, err := media.Parse([]byte(res.Stdout))
	if err != nil {
		return nil, fmt.Errorf("fetch info for %s: %w", url, err)
	}

	c.logger.Debug("fetched info", "url", url, "id", item.ID, "formats", len(item.Formats))
	return item, nil
}

// Update asks yt-dlp to replace itself with the latest release.
func (c *Client) Update(ctx context.Context) error {
	res, err := c.run(ctx, "--update")
	if err != nil {
		return fmt.Errorf("update yt-dlp: %w", err)
	}

	c.logger.Info("yt-dlp updated", "output", strings.TrimSpace(res.Stdout))
	return nil
}

// Version returns the version string yt-dlp reports.
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "--version")
	if err != nil {
		return "", fmt.Errorf("query yt-dlp version: %w", err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (c *Client) run(ctx context.Context, args ...string) (*executor.Result, error) {
	e := &executor.Executor{
		Path:    c.path,
		Args:    append(slices.Clone(c.args), args...),
		Timeout: c.timeout,
		Env:     c.env,
		Logger:  c.logger,
	}
	return e.Execute(ctx)
}
