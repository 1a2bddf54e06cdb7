package task

import (
	"time"
)

// Status is the lifecycle status of a background task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsFinished reports whether the task will not change status again.
func (s Status) IsFinished() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ShortIDLen is the number of ID characters shown in listings.
const ShortIDLen = 8

// Task is one background command.
type Task struct {
	ID         string     `json:"id"`
	Command    string     `json:"command"`         // logical name, e.g. "agdt-git-commit"
	Argv       []string   `json:"argv"`            // program and arguments to execute
	Dir        string     `json:"dir,omitempty"`   // working directory
	Status     Status     `json:"status"`
	Error      string     `json:"error,omitempty"`
	ExitCode   *int       `json:"exit_code,omitempty"`
	PID        int        `json:"pid,omitempty"`
	LogFile    string     `json:"log_file"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ShortID returns the abbreviated ID used in human-facing output.
func (t *Task) ShortID() string {
	if len(t.ID) <= ShortIDLen {
		return t.ID
	}
	return t.ID[:ShortIDLen]
}

// Duration returns how long the task ran, or has been running so far.
func (t *Task) Duration(now time.Time) time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	if t.FinishedAt != nil {
		return t.FinishedAt.Sub(*t.StartedAt)
	}
	return now.Sub(*t.StartedAt)
}
