package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"subburn/internal/services"
)

// RemoteError is a non-2xx response from the subburn API.
type RemoteError struct {
	StatusCode int
	Kind       services.ErrorKind
	Message    string
	RequestID  string
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "subburn api: status %d", e.StatusCode)
	if e.Kind != "" {
		b.WriteString(" " + string(e.Kind))
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

// Client talks to a running subburn daemon.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client

	// RequestID, when set, is sent as X-Request-ID.
	RequestID string
}

// NewClient builds a client for the daemon bound at bind (host:port).
func NewClient(bind, token string) *Client {
	base := strings.TrimSpace(bind)
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		Token:   strings.TrimSpace(token),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// WithRequestID returns a copy of c that tags requests with id.
func (c *Client) WithRequestID(id string) *Client {
	clone := *c
	clone.RequestID = strings.TrimSpace(id)
	return &clone
}

// Health reports whether the daemon answers /health.
func (c *Client) Health(ctx context.Context) error {
	var resp HealthResponse
	return c.do(ctx, http.MethodGet, "/health", nil, &resp)
}

// Status fetches GET /api/status.
func (c *Client) Status(ctx context.Context) (*ServiceStatus, error) {
	var resp ServiceStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Jobs fetches up to limit recent jobs.
func (c *Client) Jobs(ctx context.Context, limit int) ([]JobListEntry, error) {
	path := "/api/jobs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp JobListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Job fetches a single job by id.
func (c *Client) Job(ctx context.Context, id string) (*JobListEntry, error) {
	var resp JobResponse
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// Caption submits a burn-in request and waits for the result. Encoding runs
// synchronously on the server, so the HTTP client timeout is not applied.
func (c *Client) Caption(ctx context.Context, req CaptionRequest) (*CaptionResponse, error) {
	var resp CaptionResponse
	if err := c.doWith(ctx, c.longClient(), http.MethodPost, "/caption", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) longClient() *http.Client {
	if c.HTTP == nil {
		return &http.Client{}
	}
	clone := *c.HTTP
	clone.Timeout = 0
	return &clone
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	return c.doWith(ctx, client, method, path, body, out)
}

func (c *Client) doWith(ctx context.Context, client *http.Client, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if c.RequestID != "" {
		req.Header.Set("X-Request-ID", c.RequestID)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remote := &RemoteError{StatusCode: resp.StatusCode}
		var payload ErrorResponse
		if json.Unmarshal(data, &payload) == nil {
			remote.Kind = payload.ErrorKind
			remote.Message = payload.Error
			remote.RequestID = payload.RequestID
		} else {
			remote.Message = strings.TrimSpace(string(data))
		}
		return remote
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsUnreachable reports whether err means no daemon is listening.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return false
	}
	return true
}
