package notify

import (
	"context"
	"time"
)

// EventType names a point in a workflow's life.
type EventType string

const (
	EventWorkflowStarted   EventType = "workflow_started"
	EventWorkflowAdvanced  EventType = "workflow_advanced"
	EventTransitionPending EventType = "transition_pending"
	EventWorkflowCompleted EventType = "workflow_completed"
	EventWorkflowCleared   EventType = "workflow_cleared"
	EventTaskFailed        EventType = "task_failed"
)

// Event severities. Empty is treated as info.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Event is one lifecycle notification. Step is the step after the event;
// FromStep is set on advances.
type Event struct {
	Type      EventType      `json:"type"`
	Workflow  string         `json:"workflow"`
	Step      string         `json:"step,omitempty"`
	FromStep  string         `json:"from_step,omitempty"`
	Trigger   string         `json:"trigger,omitempty"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Notifier delivers events. Errors are advisory: the engine logs them and
// never fails a workflow operation because of one.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}
