package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Event Type Tests
// =============================================================================

func TestEventTypes(t *testing.T) {
	types := []EventType{
		EventWorkflowStarted,
		EventWorkflowAdvanced,
		EventTransitionPending,
		EventWorkflowCompleted,
		EventWorkflowCleared,
		EventTaskFailed,
	}

	seen := make(map[EventType]bool)
	for _, et := range types {
		if seen[et] {
			t.Errorf("duplicate event type: %s", et)
		}
		seen[et] = true
	}
}

func TestNopNotifier(t *testing.T) {
	if err := (NopNotifier{}).Notify(context.Background(), Event{Type: EventWorkflowStarted}); err != nil {
		t.Errorf("NopNotifier.Notify() error = %v, want nil", err)
	}
}

// =============================================================================
// LogNotifier Tests
// =============================================================================

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	n := NewLogNotifier(logger)

	err := n.Notify(context.Background(), Event{
		Type:     EventWorkflowAdvanced,
		Workflow: "work-on-jira-issue",
		Step:     "planning",
		FromStep: "initiate",
		Trigger:  "JIRA_ISSUE_RETRIEVED",
		Message:  "workflow advanced",
		Severity: SeverityInfo,
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"workflow advanced", "workflow=work-on-jira-issue", "step=planning", "from_step=initiate", "trigger=JIRA_ISSUE_RETRIEVED"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestLogNotifier_Severity(t *testing.T) {
	tests := []struct {
		severity string
		want     string
	}{
		{SeverityInfo, "level=INFO"},
		{SeverityWarning, "level=WARN"},
		{SeverityError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			var buf bytes.Buffer
			n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
			_ = n.Notify(context.Background(), Event{Message: "m", Severity: tt.severity})
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q missing %q", buf.String(), tt.want)
			}
		})
	}
}

func TestLogNotifier_NilLogger(t *testing.T) {
	n := NewLogNotifier(nil)
	if n.logger == nil {
		t.Error("NewLogNotifier(nil) should fall back to slog.Default()")
	}
}

// =============================================================================
// WebhookNotifier Tests
// =============================================================================

func TestWebhookNotifier(t *testing.T) {
	var received Event
	var contentType, auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, WithHeaders(map[string]string{"Authorization": "Bearer t"}))
	event := Event{
		Type:      EventTransitionPending,
		Workflow:  "work-on-jira-issue",
		Step:      "commit",
		Message:   "waiting on agdt-git-commit",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := n.Notify(context.Background(), event); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	if auth != "Bearer t" {
		t.Errorf("Authorization = %q", auth)
	}
	if received.Type != EventTransitionPending || received.Step != "commit" {
		t.Errorf("received = %+v", received)
	}
}

func TestWebhookNotifier_RetriesServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewWebhookNotifier(server.URL).Notify(context.Background(), Event{Type: EventTaskFailed})
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("Notify() error = %v, want status 500", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestWebhookNotifier_NetworkError(t *testing.T) {
	n := NewWebhookNotifier("http://127.0.0.1:1", WithHTTPClient(&http.Client{Timeout: time.Second}))
	if err := n.Notify(context.Background(), Event{}); err == nil {
		t.Error("Notify() should fail for unreachable endpoint")
	}
}

func TestWebhookNotifier_SlackFormat(t *testing.T) {
	var payload slackPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, WithFormat(FormatSlack))
	err := n.Notify(context.Background(), Event{
		Type:     EventTaskFailed,
		Workflow: "work-on-jira-issue",
		Step:     "commit",
		Message:  "agdt-git-commit failed",
		Severity: SeverityError,
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if payload.Username != "agdt" || len(payload.Attachments) != 1 {
		t.Fatalf("payload = %+v", payload)
	}
	att := payload.Attachments[0]
	if att.Color != "danger" {
		t.Errorf("color = %q, want danger", att.Color)
	}
	if att.Title != ":x: task_failed" || att.Footer != "work-on-jira-issue @ commit" {
		t.Errorf("attachment = %+v", att)
	}
	if att.Timestamp != 0 {
		t.Errorf("ts = %d, want omitted for zero time", att.Timestamp)
	}
}

func TestNewWebhookNotifier_DetectsSlack(t *testing.T) {
	if n := NewWebhookNotifier("https://hooks.slack.com/services/T/B/X"); n.format != FormatSlack {
		t.Error("slack URL should select FormatSlack")
	}
	if n := NewWebhookNotifier("https://example.com/hook"); n.format != FormatEvent {
		t.Error("other URLs should select FormatEvent")
	}
}

// =============================================================================
// MultiNotifier Tests
// =============================================================================

type mockNotifier struct {
	events []Event
	err    error
}

func (m *mockNotifier) Notify(ctx context.Context, event Event) error {
	m.events = append(m.events, event)
	return m.err
}

func TestMultiNotifier_ContinuesOnError(t *testing.T) {
	first := &mockNotifier{err: errors.New("boom")}
	ok := &mockNotifier{}
	last := &mockNotifier{err: errors.New("bang")}

	m := NewMultiNotifier(first, nil, ok, last)
	m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (nil skipped)", m.Len())
	}

	err := m.Notify(context.Background(), Event{Type: EventWorkflowCompleted})
	if !errors.Is(err, first.err) || !errors.Is(err, last.err) {
		t.Errorf("Notify() error = %v, want both failures joined", err)
	}
	if len(ok.events) != 1 || len(last.events) != 1 {
		t.Error("a notifier was skipped after an earlier one failed")
	}
}

func TestLogNotifier_Metadata(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	_ = n.Notify(context.Background(), Event{
		Type:     EventTaskFailed,
		Message:  "background task failed",
		Severity: SeverityError,
		Metadata: map[string]any{"task_ids": "abc"},
	})
	if !strings.Contains(buf.String(), "meta.task_ids=abc") || !strings.Contains(buf.String(), "event=task_failed") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestLogNotifier_BelowLevel(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	_ = n.Notify(context.Background(), Event{Message: "advanced", Severity: SeverityInfo})
	if buf.Len() != 0 {
		t.Errorf("info event logged at warn level: %q", buf.String())
	}
}
