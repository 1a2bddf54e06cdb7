package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	agdthttp "github.com/randalmurphal/agdt/http"
)

// WebhookFormat selects the request body a WebhookNotifier sends.
type WebhookFormat int

const (
	// FormatEvent posts the Event itself as JSON.
	FormatEvent WebhookFormat = iota
	// FormatSlack posts a Slack incoming-webhook message.
	FormatSlack
)

const webhookTimeout = 10 * time.Second

// WebhookNotifier posts events to an HTTP endpoint. Delivery is retried
// once on network errors, 429 and 5xx.
type WebhookNotifier struct {
	format WebhookFormat
	client *agdthttp.Client
}

// WebhookOption configures a WebhookNotifier.
type WebhookOption func(*webhookConfig)

type webhookConfig struct {
	format  WebhookFormat
	headers map[string]string
	client  *http.Client
	wait    time.Duration
}

// WithFormat overrides the format guessed from the URL.
func WithFormat(f WebhookFormat) WebhookOption {
	return func(c *webhookConfig) { c.format = f }
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) WebhookOption {
	return func(c *webhookConfig) { c.headers = headers }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) WebhookOption {
	return func(c *webhookConfig) { c.client = hc }
}

// NewWebhookNotifier posts to rawURL. URLs on hooks.slack.com get the
// Slack format unless WithFormat says otherwise.
func NewWebhookNotifier(rawURL string, opts ...WebhookOption) *WebhookNotifier {
	cfg := webhookConfig{
		client: &http.Client{Timeout: webhookTimeout},
		wait:   250 * time.Millisecond,
	}
	if u, err := url.Parse(rawURL); err == nil && u.Host == "hooks.slack.com" {
		cfg.format = FormatSlack
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &WebhookNotifier{
		format: cfg.format,
		client: agdthttp.NewClient(agdthttp.Config{
			BaseURL:    rawURL,
			Service:    "webhook",
			HTTPClient: cfg.client,
			MaxRetries: 1,
			RetryWait:  cfg.wait,
			Authorize: func(req *http.Request) {
				for k, v := range cfg.headers {
					req.Header.Set(k, v)
				}
			},
		}),
	}
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	var body any = event
	if n.format == FormatSlack {
		body = slackMessage(event)
	}
	if err := n.client.Post(ctx, "", body, nil); err != nil {
		return fmt.Errorf("deliver %s event: %w", event.Type, err)
	}
	return nil
}

type slackPayload struct {
	Username    string            `json:"username,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color     string `json:"color,omitempty"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Footer    string `json:"footer,omitempty"`
	Timestamp int64  `json:"ts,omitempty"`
}

func slackMessage(event Event) slackPayload {
	color := "good"
	switch event.Severity {
	case SeverityError:
		color = "danger"
	case SeverityWarning:
		color = "warning"
	}

	footer := event.Workflow
	if event.Step != "" {
		footer += " @ " + event.Step
	}

	att := slackAttachment{
		Color:  color,
		Title:  slackEmoji[event.Type] + " " + string(event.Type),
		Text:   event.Message,
		Footer: footer,
	}
	if !event.Timestamp.IsZero() {
		att.Timestamp = event.Timestamp.Unix()
	}
	return slackPayload{Username: "agdt", Attachments: []slackAttachment{att}}
}

var slackEmoji = map[EventType]string{
	EventWorkflowStarted:   ":rocket:",
	EventWorkflowAdvanced:  ":arrow_right:",
	EventTransitionPending: ":hourglass:",
	EventWorkflowCompleted: ":white_check_mark:",
	EventWorkflowCleared:   ":wastebasket:",
	EventTaskFailed:        ":x:",
}
