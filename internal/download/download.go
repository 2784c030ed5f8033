// Package download fetches HTTP resources into files or decoded JSON values.
//
// Downloads stream to a uniquely named temporary file next to the
// destination and are renamed into place only once complete, so a failed or
// concurrent download never leaves a truncated file at the final path.
// Requests are attempted once; retry policy belongs to the caller.
package download

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/logging"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "mediafetch/1.0"
	// maxRedirects bounds redirect chains (release assets redirect to a CDN)
	maxRedirects = 10
)

// ErrTooManyRedirects is returned when a redirect chain exceeds maxRedirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.StatusCode, e.URL)
}

// Downloader handles HTTP downloads.
type Downloader struct {
	client    *http.Client
	userAgent string
	logger    logging.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) { d.client = c }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(d *Downloader) { d.userAgent = ua }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logging.Logger) Option {
	return func(d *Downloader) { d.logger = logging.OrNop(l) }
}

// NewDownloader creates a new downloader
func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		logger:    logging.Nop(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// RequestOption adjusts a single outgoing request.
type RequestOption func(*http.Request)

// WithHeaders sets each header on the request. A "User-Agent" entry
// overrides the downloader's default.
func WithHeaders(headers map[string]string) RequestOption {
	return func(req *http.Request) {
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}
}

// WithBearerToken adds an Authorization header when token is non-empty.
func WithBearerToken(token string) RequestOption {
	return func(req *http.Request) {
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// get performs a GET and returns the response if its status is 2xx.
func (d *Downloader) get(ctx context.Context, url string, opts []RequestOption) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)
	for _, opt := range opts {
		opt(req)
	}

	d.logger.Debug("http get", "url", url)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

// DownloadToFile streams url into destPath, creating parent directories.
func (d *Downloader) DownloadToFile(ctx context.Context, url, destPath string, opts ...RequestOption) error {
	resp, err := d.get(ctx, url, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%s.tmp", destPath, uuid.NewString())
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, resp.Body)
	if err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	d.logger.Debug("download complete", "url", url, "path", destPath, "bytes", written)
	return nil
}

// FetchJSON GETs url and decodes the JSON body into v.
func (d *Downloader) FetchJSON(ctx context.Context, url string, v any, opts ...RequestOption) error {
	opts = append([]RequestOption{WithHeaders(map[string]string{"Accept": "application/json"})}, opts...)

	resp, err := d.get(ctx, url, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}

	return nil
}
