package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sagelink/internal/config"
)

const userAgent = "sagelink/0.1.0"

// RunSummary is the subset of a run report worth pushing to a phone.
type RunSummary struct {
	Created          int
	Updated          int
	Orphaned         int
	Missing          int
	Collisions       int
	Failed           int
	PermissionDenied int
	Duration         time.Duration
}

// Service defines the notification surface used by the run command.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary RunSummary) error
	NotifyError(ctx context.Context, err error, context string) error
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

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary RunSummary) error {
	duration := summary.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	problems := summary.Failed + summary.PermissionDenied

	title := "sagelink - Library Updated"
	if problems > 0 {
		title = "sagelink - Library Updated (with errors)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d created, %d updated, %d removed in %s", summary.Created, summary.Updated, summary.Orphaned, duration)
	if summary.Missing > 0 {
		fmt.Fprintf(&b, "\n%d recordings missing on disk", summary.Missing)
	}
	if summary.Collisions > 0 {
		fmt.Fprintf(&b, "\n%d new filename collisions", summary.Collisions)
	}
	if summary.PermissionDenied > 0 {
		fmt.Fprintf(&b, "\n%d blocked by permissions", summary.PermissionDenied)
	}
	if summary.Failed > 0 {
		fmt.Fprintf(&b, "\n%d failed", summary.Failed)
	}

	data := payload{
		title:   title,
		message: b.String(),
		tags:    []string{"sagelink", "run", "completed"},
	}
	if summary.PermissionDenied > 0 {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "sagelink - Error",
		message:  builder.String(),
		tags:     []string{"sagelink", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "sagelink - Test",
		message:  "Notification system test",
		tags:     []string{"sagelink", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
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

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunSummary) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error     { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
