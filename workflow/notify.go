package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/randalmurphal/agdt/notify"
	"github.com/randalmurphal/agdt/state"
)

// NotifyResult reports what an event did to the active workflow.
type NotifyResult struct {
	// Triggered is true when the event matched a transition.
	Triggered bool `json:"triggered"`
	// ImmediateAdvance is true when the step changed during the call.
	ImmediateAdvance bool `json:"immediate_advance"`
	// NewStep is the step moved to; empty unless ImmediateAdvance.
	NewStep string `json:"new_step,omitempty"`
	// PromptRendered is true when the new step's prompt was printed.
	PromptRendered bool `json:"prompt_rendered"`
}

// NotifyOption configures a Notify call.
type NotifyOption func(*notifyOptions)

type notifyOptions struct {
	taskID  string
	updates map[string]any
}

// WithTaskID records the background task that produced the event.
func WithTaskID(id string) NotifyOption {
	return func(o *notifyOptions) { o.taskID = id }
}

// WithContextUpdates merges updates into the workflow context when the
// event matches. Top-level keys replace existing values.
func WithContextUpdates(updates map[string]any) NotifyOption {
	return func(o *notifyOptions) {
		if o.updates == nil {
			o.updates = make(map[string]any, len(updates))
		}
		for k, v := range updates {
			o.updates[k] = v
		}
	}
}

// Notify delivers an event to the active workflow.
//
// With no active workflow, an unregistered workflow, or no transition for
// the current step and event, Notify changes nothing and returns a zero
// result. Otherwise the event is logged in the context, updates are
// merged, and the transition is either applied immediately (printing the
// new step's prompt) or stored as pending until its required background
// tasks finish.
//
// Errors are returned for storage failures, corrupt state, and failures
// to render the new step's prompt. A render failure happens after the
// advance has been persisted, so the result is still returned with
// PromptRendered false.
func (e *Engine) Notify(ctx context.Context, event Event, opts ...NotifyOption) (NotifyResult, error) {
	o := notifyOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	ws, err := e.store.GetWorkflowState()
	if err != nil {
		return NotifyResult{}, err
	}
	if ws == nil || ws.Step == "" {
		e.logger.DebugContext(ctx, "event ignored: no active workflow", "event", event)
		return NotifyResult{}, nil
	}

	def, ok := e.registry.Get(ws.Active)
	if !ok {
		e.logger.DebugContext(ctx, "event ignored: workflow not registered",
			"event", event,
			"workflow", ws.Active,
		)
		return NotifyResult{}, nil
	}
	if !def.HasStep(ws.Step) {
		return NotifyResult{}, corruptStep(ws.Active, ws.Step)
	}

	tr, ok := def.GetTransition(ws.Step, event)
	if !ok {
		e.logger.DebugContext(ctx, "event ignored: no transition",
			"event", event,
			"workflow", ws.Active,
			"step", ws.Step,
		)
		return NotifyResult{}, nil
	}

	if err := e.logEvent(ws, event, o.taskID); err != nil {
		return NotifyResult{}, err
	}
	e.mergeContext(ctx, ws, o.updates)

	if len(tr.RequiredTasks) > 0 || !tr.AutoAdvance {
		return e.deferTransition(ctx, ws, tr, event, o.updates)
	}

	from := ws.Step
	applyStep(ws, def, tr.To)
	if err := e.store.SaveWorkflowState(ws); err != nil {
		return NotifyResult{}, err
	}
	e.emitAdvanced(ctx, ws, from, event.String())

	result := NotifyResult{
		Triggered:        true,
		ImmediateAdvance: true,
		NewStep:          tr.To,
	}

	content, err := e.render(ws)
	if err != nil {
		return result, err
	}
	e.printAdvance(ws.Active, from, ws.Step, content)
	result.PromptRendered = true
	return result, nil
}

func (e *Engine) deferTransition(ctx context.Context, ws *state.WorkflowState, tr *Transition, event Event, updates map[string]any) (NotifyResult, error) {
	err := ws.SetPending(state.PendingTransition{
		ToStep:         tr.To,
		RequiredTasks:  tr.RequiredTasks,
		TriggeredBy:    event.String(),
		ContextUpdates: updates,
	})
	if err != nil {
		return NotifyResult{}, err
	}
	if err := e.store.SaveWorkflowState(ws); err != nil {
		return NotifyResult{}, err
	}

	e.logger.InfoContext(ctx, "transition pending",
		"workflow", ws.Active,
		"step", ws.Step,
		"to_step", tr.To,
		"required_tasks", tr.RequiredTasks,
	)
	e.emit(ctx, notify.Event{
		Type:     notify.EventTransitionPending,
		Workflow: ws.Active,
		Step:     ws.Step,
		Trigger:  event.String(),
		Message:  fmt.Sprintf("%s -> %s waiting on background tasks", ws.Step, tr.To),
		Metadata: map[string]any{"required_tasks": tr.RequiredTasks},
	})
	return NotifyResult{Triggered: true}, nil
}

// logEvent appends an entry to the events log.
func (e *Engine) logEvent(ws *state.WorkflowState, event Event, taskID string) error {
	entry := state.EventLogEntry{
		Event:     event.String(),
		Timestamp: e.now().UTC().Format(time.RFC3339),
	}
	if taskID != "" {
		entry.TaskID = &taskID
	}
	return ws.AppendEvent(entry)
}

func (e *Engine) mergeContext(ctx context.Context, ws *state.WorkflowState, updates map[string]any) {
	if skipped := ws.MergeContext(updates); len(skipped) > 0 {
		e.logger.WarnContext(ctx, "reserved context keys ignored in update",
			"workflow", ws.Active,
			"keys", skipped,
		)
	}
}

// applyStep moves ws to step and advances its status.
func applyStep(ws *state.WorkflowState, def *Definition, step string) {
	ws.Step = step
	if def.IsTerminal(step) {
		ws.Status = ws.Status.Advance(state.StatusCompleted)
		return
	}
	ws.Status = ws.Status.Advance(state.StatusInProgress)
}

func (e *Engine) emitAdvanced(ctx context.Context, ws *state.WorkflowState, from, trigger string) {
	e.logger.InfoContext(ctx, "workflow advanced",
		"workflow", ws.Active,
		"from_step", from,
		"step", ws.Step,
		"trigger", trigger,
	)

	typ := notify.EventWorkflowAdvanced
	message := fmt.Sprintf("%s -> %s", from, ws.Step)
	if ws.Status == state.StatusCompleted {
		typ = notify.EventWorkflowCompleted
		message = fmt.Sprintf("workflow %s completed", ws.Active)
	}
	e.emit(ctx, notify.Event{
		Type:     typ,
		Workflow: ws.Active,
		Step:     ws.Step,
		FromStep: from,
		Trigger:  trigger,
		Message:  message,
	})
}
