package state

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// WorkflowKey is the top-level document key holding the active workflow.
const WorkflowKey = "workflow"

// Reserved workflow context keys.
const (
	ContextPendingTransition = "pending_transition"
	ContextEventsLog         = "events_log"
)

// MaxEventsLog is the number of events kept in the workflow events log.
const MaxEventsLog = 20

// Status is the lifecycle status of a workflow instance.
type Status string

// Workflow statuses. They only move forward.
const (
	StatusInitiated  Status = "initiated"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

var statusRank = map[Status]int{
	StatusInitiated:  0,
	StatusInProgress: 1,
	StatusCompleted:  2,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Advance returns the later of s and next.
// A completed workflow stays completed.
func (s Status) Advance(next Status) Status {
	if statusRank[next] > statusRank[s] {
		return next
	}
	return s
}

// WorkflowState is the persisted record of the single active workflow.
type WorkflowState struct {
	Active  string         `json:"active"`
	Status  Status         `json:"status"`
	Step    string         `json:"step"`
	Context map[string]any `json:"context"`
}

// PendingTransition records a matched transition that is waiting on
// background tasks before it is applied.
type PendingTransition struct {
	ToStep         string         `json:"to_step"`
	RequiredTasks  []string       `json:"required_tasks"`
	TriggeredBy    string         `json:"triggered_by"`
	ContextUpdates map[string]any `json:"context_updates"`
}

// EventLogEntry is one entry of the workflow events log.
type EventLogEntry struct {
	Event     string  `json:"event"`
	Timestamp string  `json:"timestamp"`
	TaskID    *string `json:"task_id"`
}

// Pending decodes the pending transition from the context.
// It returns nil when none is recorded.
func (w *WorkflowState) Pending() (*PendingTransition, error) {
	raw, ok := w.Context[ContextPendingTransition]
	if !ok || raw == nil {
		return nil, nil
	}

	var pending PendingTransition
	if err := convert(raw, &pending); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ContextPendingTransition, err)
	}
	return &pending, nil
}

// SetPending records p as the pending transition, replacing any previous one.
func (w *WorkflowState) SetPending(p PendingTransition) error {
	if p.RequiredTasks == nil {
		p.RequiredTasks = []string{}
	}
	if p.ContextUpdates == nil {
		p.ContextUpdates = map[string]any{}
	}

	var generic map[string]any
	if err := convert(p, &generic); err != nil {
		return fmt.Errorf("encode %s: %w", ContextPendingTransition, err)
	}
	w.ensureContext()
	w.Context[ContextPendingTransition] = generic
	return nil
}

// ClearPending removes the pending transition.
func (w *WorkflowState) ClearPending() {
	delete(w.Context, ContextPendingTransition)
}

// EventsLog decodes the events log, oldest first.
func (w *WorkflowState) EventsLog() ([]EventLogEntry, error) {
	raw, ok := w.Context[ContextEventsLog]
	if !ok || raw == nil {
		return nil, nil
	}

	var entries []EventLogEntry
	if err := convert(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ContextEventsLog, err)
	}
	return entries, nil
}

// AppendEvent adds entry to the events log, evicting the oldest entries
// beyond MaxEventsLog.
func (w *WorkflowState) AppendEvent(entry EventLogEntry) error {
	entries, err := w.EventsLog()
	if err != nil {
		return err
	}

	entries = append(entries, entry)
	if len(entries) > MaxEventsLog {
		entries = entries[len(entries)-MaxEventsLog:]
	}

	var generic []any
	if err := convert(entries, &generic); err != nil {
		return fmt.Errorf("encode %s: %w", ContextEventsLog, err)
	}
	w.ensureContext()
	w.Context[ContextEventsLog] = generic
	return nil
}

// MergeContext applies updates key by key, last write wins.
// A mapping value replaces the whole existing sub-mapping; nested maps are
// never merged recursively. Reserved keys are not writable this way and
// are returned so the caller can report them.
func (w *WorkflowState) MergeContext(updates map[string]any) (skipped []string) {
	w.ensureContext()
	for key, value := range updates {
		if key == ContextPendingTransition || key == ContextEventsLog {
			skipped = append(skipped, key)
			continue
		}
		w.Context[key] = value
	}
	return skipped
}

func (w *WorkflowState) ensureContext() {
	if w.Context == nil {
		w.Context = make(map[string]any)
	}
}

// GetWorkflowState loads the active workflow. It returns nil when no
// workflow is stored.
func (s *Store) GetWorkflowState() (*WorkflowState, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	result := gjson.GetBytes(doc, WorkflowKey)
	if !result.Exists() || result.Type == gjson.Null {
		return nil, nil
	}

	var ws WorkflowState
	if err := json.Unmarshal([]byte(result.Raw), &ws); err != nil {
		return nil, fmt.Errorf("%w: workflow entry: %v", ErrCorruptDocument, err)
	}
	ws.ensureContext()
	return &ws, nil
}

// SetWorkflowState replaces the workflow entry.
func (s *Store) SetWorkflowState(name string, status Status, step string, context map[string]any) error {
	return s.SaveWorkflowState(&WorkflowState{
		Active:  name,
		Status:  status,
		Step:    step,
		Context: context,
	})
}

// SaveWorkflowState writes ws as the workflow entry, leaving every other
// top-level key untouched.
func (s *Store) SaveWorkflowState(ws *WorkflowState) error {
	if ws.Active == "" {
		return fmt.Errorf("save workflow: active workflow name is required")
	}
	if !ws.Status.Valid() {
		return fmt.Errorf("save workflow: invalid status %q", ws.Status)
	}
	ws.ensureContext()

	doc, err := s.load()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("marshal workflow: %w", err)
	}

	doc, err = sjson.SetRawBytes(doc, WorkflowKey, raw)
	if err != nil {
		return fmt.Errorf("set workflow: %w", err)
	}
	return s.save(doc)
}

// ClearWorkflowState removes the workflow entry and its context.
func (s *Store) ClearWorkflowState() error {
	doc, err := s.load()
	if err != nil {
		return err
	}

	if !gjson.GetBytes(doc, WorkflowKey).Exists() {
		return nil
	}

	doc, err = sjson.DeleteBytes(doc, WorkflowKey)
	if err != nil {
		return fmt.Errorf("clear workflow: %w", err)
	}
	return s.save(doc)
}

// convert re-decodes src into dst through JSON so context values keep the
// same shape in memory as after a reload.
func convert(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
