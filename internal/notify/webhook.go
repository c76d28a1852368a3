// Package notify delivers short text messages to a chat webhook.
//
// Delivery is best effort: failed posts are reported to the caller and
// counted, never retried.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smazurov/mcsupervisor/internal/version"
)

// Notifier sends one text message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, text string) error

// Notify calls f(ctx, text).
func (f NotifierFunc) Notify(ctx context.Context, text string) error {
	return f(ctx, text)
}

// StatusError is returned when the webhook answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook returned status %d: %s", e.StatusCode, e.Body)
}

// payload is the Slack incoming-webhook message body.
// Channel and Username are only sent when configured.
type payload struct {
	Channel  string `json:"channel,omitempty"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
}

// Webhook posts messages as JSON to an incoming-webhook URL.
type Webhook struct {
	url      string
	channel  string
	username string
	client   *http.Client
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithChannel overrides the channel the message is posted to.
func WithChannel(channel string) WebhookOption {
	return func(w *Webhook) {
		w.channel = channel
	}
}

// WithUsername overrides the display name of the poster.
func WithUsername(username string) WebhookOption {
	return func(w *Webhook) {
		w.username = username
	}
}

// WithHTTPClient sets the client used for posting.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(w *Webhook) {
		w.client = client
	}
}

// NewWebhook creates a webhook notifier for url.
func NewWebhook(url string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Notify posts text to the webhook.
func (w *Webhook) Notify(ctx context.Context, text string) error {
	body, err := json.Marshal(payload{
		Channel:  w.channel,
		Username: w.username,
		Text:     text,
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Discard is a Notifier that drops every message. Used when no webhook is configured.
var Discard Notifier = NotifierFunc(func(context.Context, string) error { return nil })
