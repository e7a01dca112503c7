package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"subburn/internal/config"
)

const userAgent = "subburn/notifications"

// Notice describes a finished caption job.
type Notice struct {
	RequestID      string
	OutputFilename string
	ObjectKey      string
	ErrorKind      string
	Message        string
	Elapsed        time.Duration
}

// Service defines the notification surface used by the pipeline and CLI.
type Service interface {
	NotifyJobCompleted(ctx context.Context, notice Notice) error
	NotifyJobFailed(ctx context.Context, notice Notice) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		successes: cfg.Notifications.NotifySuccess,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	successes bool
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, notice Notice) error {
	if !n.successes {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Captioned: %s", strings.TrimSpace(notice.OutputFilename))
	if notice.Elapsed > 0 {
		fmt.Fprintf(&b, " in %s", notice.Elapsed.Round(time.Second))
	}
	if key := strings.TrimSpace(notice.ObjectKey); key != "" {
		fmt.Fprintf(&b, "\nObject: %s", key)
	}
	return n.send(ctx, payload{
		title:   "subburn - Job Complete",
		message: b.String(),
		tags:    []string{"subburn", "job", "completed"},
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, notice Notice) error {
	kind := strings.TrimSpace(notice.ErrorKind)
	if kind == "" {
		kind = "UnexpectedError"
	}
	message := fmt.Sprintf("Job %s failed with %s", strings.TrimSpace(notice.RequestID), kind)
	if detail := strings.TrimSpace(notice.Message); detail != "" {
		message += ": " + truncate(detail, 512)
	}
	return n.send(ctx, payload{
		title:    "subburn - Job Failed",
		message:  message,
		tags:     []string{"subburn", "job", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "subburn - Test",
		message:  "Notification system test",
		tags:     []string{"subburn", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// truncate shortens s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, Notice) error { return nil }
func (noopService) NotifyJobFailed(context.Context, Notice) error    { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
