package workflow

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/randalmurphal/agdt/notify"
	"github.com/randalmurphal/agdt/prompt"
	"github.com/randalmurphal/agdt/state"
	"github.com/randalmurphal/agdt/task"
)

// PromptStatus is the outcome of Resolve.
type PromptStatus string

const (
	StatusSuccess    PromptStatus = "SUCCESS"
	StatusWaiting    PromptStatus = "WAITING"
	StatusFailure    PromptStatus = "FAILURE"
	StatusNoWorkflow PromptStatus = "NO_WORKFLOW"
)

// PromptResult is the next instruction set for the agent.
type PromptResult struct {
	Status         PromptStatus `json:"status"`
	Workflow       string       `json:"workflow,omitempty"`
	Step           string       `json:"step,omitempty"`
	Content        string       `json:"content"`
	PendingTaskIDs []string     `json:"pending_task_ids,omitempty"`
	FailedTaskIDs  []string     `json:"failed_task_ids,omitempty"`

	// Advanced is true when this call applied a pending transition.
	Advanced bool   `json:"advanced,omitempty"`
	FromStep string `json:"from_step,omitempty"`
}

// Resolve returns the prompt for the active workflow, applying a pending
// transition first when its required tasks have all finished.
//
// A pending transition whose tasks are still pending or running yields
// WAITING; one whose tasks include a failure yields FAILURE. Neither
// changes the stored state. Required tasks with no record at all count as
// finished.
func (e *Engine) Resolve(ctx context.Context) (PromptResult, error) {
	ws, err := e.store.GetWorkflowState()
	if err != nil {
		return PromptResult{}, err
	}
	if ws == nil {
		return PromptResult{
			Status:  StatusNoWorkflow,
			Content: e.noWorkflowContent(),
		}, nil
	}

	def, ok := e.registry.Get(ws.Active)
	if !ok {
		return PromptResult{}, fmt.Errorf("%w: %s", ErrUnknownWorkflow, ws.Active)
	}
	if !def.HasStep(ws.Step) {
		return PromptResult{}, corruptStep(ws.Active, ws.Step)
	}

	pending, err := ws.Pending()
	if err != nil {
		return PromptResult{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	result := PromptResult{Workflow: ws.Active, Step: ws.Step}

	if pending == nil {
		content, err := e.render(ws)
		if err != nil {
			return PromptResult{}, err
		}
		result.Status = StatusSuccess
		result.Content = content
		return result, nil
	}

	if !def.HasStep(pending.ToStep) {
		return PromptResult{}, fmt.Errorf("%w: pending transition targets undeclared step %q", ErrCorruptState, pending.ToStep)
	}

	active, err := e.tasks.ListActive(ctx)
	if err != nil {
		return PromptResult{}, fmt.Errorf("list background tasks: %w", err)
	}

	var failed, waiting []task.Task
	for _, t := range active {
		if !slices.Contains(pending.RequiredTasks, t.Command) {
			continue
		}
		switch t.Status {
		case task.StatusFailed:
			failed = append(failed, t)
		case task.StatusPending, task.StatusRunning:
			waiting = append(waiting, t)
		}
	}

	if len(failed) > 0 {
		for _, t := range failed {
			result.FailedTaskIDs = append(result.FailedTaskIDs, t.ID)
		}
		result.Status = StatusFailure
		result.Content = failureContent(ws.Step, pending, failed)

		e.emit(ctx, notify.Event{
			Type:     notify.EventTaskFailed,
			Workflow: ws.Active,
			Step:     ws.Step,
			Trigger:  pending.TriggeredBy,
			Severity: notify.SeverityError,
			Message:  fmt.Sprintf("background task %s failed", failed[0].Command),
			Metadata: map[string]any{"task_ids": result.FailedTaskIDs},
		})
		return result, nil
	}

	if len(waiting) > 0 {
		for _, t := range waiting {
			result.PendingTaskIDs = append(result.PendingTaskIDs, t.ID)
		}
		result.Status = StatusWaiting
		result.Content = waitingContent(ws.Step, pending, waiting)
		return result, nil
	}

	from := ws.Step
	e.mergeContext(ctx, ws, pending.ContextUpdates)
	ws.ClearPending()
	applyStep(ws, def, pending.ToStep)
	if err := e.store.SaveWorkflowState(ws); err != nil {
		return PromptResult{}, err
	}

	e.emitAdvanced(ctx, ws, from, pending.TriggeredBy)

	content, err := e.render(ws)
	if err != nil {
		return PromptResult{}, err
	}

	result.Status = StatusSuccess
	result.Step = ws.Step
	result.Content = content
	result.Advanced = true
	result.FromStep = from
	return result, nil
}

func (e *Engine) noWorkflowContent() string {
	return prompt.NewBuilder().
		Text("No workflow is active.").
		Textf("Start one with `agdt workflow start <name>`. Available workflows: %s.",
			strings.Join(e.registry.Names(), ", ")).
		String()
}

func failureContent(step string, pending *state.PendingTransition, failed []task.Task) string {
	items := make([]string, 0, len(failed))
	for _, t := range failed {
		msg := t.Error
		if msg == "" {
			msg = "no error recorded"
		}
		items = append(items, fmt.Sprintf("`%s` (%s): %s\n  log: %s", t.Command, t.ShortID(), msg, t.LogFile))
	}

	return prompt.NewBuilder().
		Text("# Background task failed").
		Textf("The workflow is still at step `%s`; the move to `%s` (triggered by %s) was not applied.",
			step, pending.ToStep, pending.TriggeredBy).
		Bullets("Failed tasks", items...).
		Text("Read the log, fix the problem and run the command again. A successful retry re-triggers the transition.").
		String()
}

func waitingContent(step string, pending *state.PendingTransition, waiting []task.Task) string {
	items := make([]string, 0, len(waiting))
	for _, t := range waiting {
		items = append(items, fmt.Sprintf("%s  %s  %s", t.ShortID(), t.Command, t.Status))
	}

	return prompt.NewBuilder().
		Text("# Waiting on background tasks").
		Textf("Step `%s` moves to `%s` once these finish:", step, pending.ToStep).
		Bullets("", items...).
		Text("Run `agdt workflow next` again to check.").
		String()
}
