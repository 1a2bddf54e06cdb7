package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/randalmurphal/agdt/notify"
	"github.com/randalmurphal/agdt/prompt"
	"github.com/randalmurphal/agdt/task"
)

// RenderCall is one call to StubRenderer.Render.
type RenderCall struct {
	Workflow string
	Step     string
	Vars     map[string]string
}

// StubRenderer renders "<workflow>/<step>" and records every call.
// Steps listed in Missing fail with *prompt.NotFoundError.
type StubRenderer struct {
	Calls   []RenderCall
	Missing map[string]bool
}

// Render implements the workflow engine's renderer.
func (r *StubRenderer) Render(workflow, step string, vars map[string]string) (string, error) {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	r.Calls = append(r.Calls, RenderCall{Workflow: workflow, Step: step, Vars: copied})

	name := prompt.TemplateName(workflow, step)
	if r.Missing[step] {
		return "", &prompt.NotFoundError{Name: name, Searched: []string{"stub"}}
	}
	return "prompt " + name, nil
}

// Last returns the most recent call. It panics if there was none.
func (r *StubRenderer) Last() RenderCall {
	return r.Calls[len(r.Calls)-1]
}

// FakeTasks is a fixed background task listing.
type FakeTasks struct {
	Tasks []task.Task
	Err   error
}

// ListActive returns the configured tasks.
func (f *FakeTasks) ListActive(context.Context) ([]task.Task, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Tasks, nil
}

// Set replaces the listing with tasks.
func (f *FakeTasks) Set(tasks ...task.Task) {
	f.Tasks = tasks
}

// NewTask builds a task record with a stable creation time.
func NewTask(id, command string, status task.Status) task.Task {
	t := task.Task{
		ID:        id,
		Command:   command,
		Status:    status,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if status == task.StatusFailed {
		code := 1
		t.ExitCode = &code
		t.Error = fmt.Sprintf("%s exited with code 1", command)
	}
	return t
}

// RecordingNotifier keeps every event it receives.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

// Notify records event.
func (n *RecordingNotifier) Notify(_ context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (n *RecordingNotifier) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

// Types returns the type of every recorded event in order.
func (n *RecordingNotifier) Types() []notify.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]notify.EventType, len(n.events))
	for i, e := range n.events {
		types[i] = e.Type
	}
	return types
}
