package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"booktrack/internal/config"
)

const userAgent = "Booktrack-Go/0.1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifySyncCompleted(ctx context.Context, projectCount, logRows int) error
	NotifySyncFailed(ctx context.Context, err error) error
	NotifyWriteFailed(ctx context.Context, person, date string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		sendSync:   cfg.Notifications.Sync,
		sendErrors: cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	sendSync   bool
	sendErrors bool
}

func (n *ntfyService) NotifySyncCompleted(ctx context.Context, projectCount, logRows int) error {
	if !n.sendSync {
		return nil
	}
	data := payload{
		title:   "Booktrack - Sync Complete",
		message: fmt.Sprintf("Pulled %d projects and %d log rows", projectCount, logRows),
		tags:    []string{"booktrack", "sync", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySyncFailed(ctx context.Context, err error) error {
	if !n.sendErrors {
		return nil
	}
	message := "Sync failed: unknown"
	if err != nil {
		message = "Sync failed: " + strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "Booktrack - Sync Failed",
		message:  message,
		tags:     []string{"booktrack", "sync", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyWriteFailed(ctx context.Context, person, date string, err error) error {
	if !n.sendErrors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Log write failed")
	if person = strings.TrimSpace(person); person != "" {
		builder.WriteString(" for ")
		builder.WriteString(person)
	}
	if date = strings.TrimSpace(date); date != "" {
		builder.WriteString(" on ")
		builder.WriteString(date)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Booktrack - Write Failed",
		message:  builder.String(),
		tags:     []string{"booktrack", "write", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Booktrack - Test",
		message:  "Notification system test",
		tags:     []string{"booktrack", "test"},
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

func (noopService) NotifySyncCompleted(context.Context, int, int) error            { return nil }
func (noopService) NotifySyncFailed(context.Context, error) error                  { return nil }
func (noopService) NotifyWriteFailed(context.Context, string, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
