package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"subburn/internal/config"
	"subburn/internal/logging"
	"subburn/internal/textutil"
)

var (
	// ErrNotFound reports that the remote asset does not exist (404 or 410).
	ErrNotFound = errors.New("remote asset not found")
	// ErrTooLarge reports that the asset exceeds the configured size limit.
	ErrTooLarge = errors.New("remote asset exceeds size limit")
	// ErrUnsupportedURL reports a location that is not an absolute http(s) URL.
	ErrUnsupportedURL = errors.New("unsupported asset url")
)

// StatusError is returned for non-success HTTP statuses other than not-found.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %s", e.URL, e.Status)
}

// DefaultFileName is used when the URL path has no usable base name.
const DefaultFileName = "download"

// Client streams remote assets to local files.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	// MaxBytes caps the size of a single asset; zero disables the limit.
	MaxBytes int64
	Logger   *slog.Logger
}

// New constructs a Client from fetch configuration.
func New(cfg config.Fetch, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: cfg.UserAgent,
		MaxBytes:  cfg.MaxBytes,
		Logger:    logging.NewComponentLogger(logger, "fetch"),
	}
}

// ParseURL validates that raw is an absolute http or https URL.
func ParseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrUnsupportedURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrUnsupportedURL)
	}
	return u, nil
}

// FileNameFor returns the sanitized local file name for an asset URL.
func FileNameFor(u *url.URL) string {
	name := textutil.SanitizeFileName(path.Base(u.EscapedPath()))
	if name == "" {
		return DefaultFileName
	}
	return name
}

// Redact strips credentials and query parameters so signed URLs stay out of
// logs and error messages.
func Redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	clone := *u
	clone.User = nil
	clone.RawQuery = ""
	clone.Fragment = ""
	return clone.String()
}

// Fetch downloads rawURL into dir and returns the local path.
func (c *Client) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return "", err
	}
	display := Redact(u)
	logger := logging.WithContext(ctx, c.logger())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("fetch %s: build request: %w", display, err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	started := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", display, stripURLError(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return "", fmt.Errorf("fetch %s: %w (status %d)", display, ErrNotFound, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", &StatusError{URL: display, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if c.MaxBytes > 0 && resp.ContentLength > c.MaxBytes {
		return "", fmt.Errorf("fetch %s: %w (%d > %d bytes)", display, ErrTooLarge, resp.ContentLength, c.MaxBytes)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("fetch %s: ensure dir: %w", display, err)
	}
	dest := filepath.Join(dir, FileNameFor(u))
	written, err := c.stream(resp.Body, dest)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", display, err)
	}

	logger.Info("asset downloaded",
		logging.String("url", display),
		logging.String("path", dest),
		logging.Int64("bytes", written),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "asset_downloaded"),
	)
	return dest, nil
}

// stream copies body into dest through a .part file renamed on success.
func (c *Client) stream(body io.Reader, dest string) (int64, error) {
	partial := dest + ".part"
	file, err := os.Create(partial)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", filepath.Base(partial), err)
	}
	cleanup := func() {
		_ = file.Close()
		_ = os.Remove(partial)
	}

	reader := body
	if c.MaxBytes > 0 {
		reader = io.LimitReader(body, c.MaxBytes+1)
	}
	written, err := io.Copy(file, reader)
	if err != nil {
		cleanup()
		return written, fmt.Errorf("download interrupted after %d bytes: %w", written, err)
	}
	if c.MaxBytes > 0 && written > c.MaxBytes {
		cleanup()
		return written, fmt.Errorf("%w (more than %d bytes)", ErrTooLarge, c.MaxBytes)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(partial)
		return written, fmt.Errorf("close download: %w", err)
	}
	if err := os.Rename(partial, dest); err != nil {
		_ = os.Remove(partial)
		return written, fmt.Errorf("finalize download: %w", err)
	}
	return written, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logging.NewNop()
}

// stripURLError unwraps *url.Error so the unredacted URL it carries is not
// repeated in the message.
func stripURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
