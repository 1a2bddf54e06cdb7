package workflow

import (
	"context"
	"fmt"

	"github.com/randalmurphal/agdt/notify"
	"github.com/randalmurphal/agdt/state"
)

// Initiate starts the named workflow at its initial step, replacing any
// active workflow and its pending transition. seed becomes the initial
// context; reserved keys in it are ignored.
func (e *Engine) Initiate(ctx context.Context, name string, seed map[string]any) (*state.WorkflowState, error) {
	def, ok := e.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkflow, name)
	}

	ws := &state.WorkflowState{
		Active: name,
		Status: state.StatusInitiated,
		Step:   def.InitialStep,
	}
	e.mergeContext(ctx, ws, seed)

	if err := e.store.SaveWorkflowState(ws); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "workflow started", "workflow", name, "step", ws.Step)
	e.emit(ctx, notify.Event{
		Type:     notify.EventWorkflowStarted,
		Workflow: name,
		Step:     ws.Step,
		Message:  fmt.Sprintf("workflow %s started", name),
	})
	return ws, nil
}

// Current returns the active workflow, or nil when none is active.
func (e *Engine) Current(ctx context.Context) (*state.WorkflowState, error) {
	return e.store.GetWorkflowState()
}

// Clear removes the active workflow and its context. Clearing when no
// workflow is active is not an error.
func (e *Engine) Clear(ctx context.Context) error {
	ws, err := e.store.GetWorkflowState()
	if err != nil {
		return err
	}
	if ws == nil {
		return nil
	}

	if err := e.store.ClearWorkflowState(); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "workflow cleared", "workflow", ws.Active, "step", ws.Step)
	e.emit(ctx, notify.Event{
		Type:     notify.EventWorkflowCleared,
		Workflow: ws.Active,
		Step:     ws.Step,
		Message:  fmt.Sprintf("workflow %s cleared", ws.Active),
	})
	return nil
}

// Advance moves the active workflow to its next step without waiting for
// an event. Required tasks are not checked and any pending transition is
// discarded. The new step's prompt is printed like an immediate advance.
func (e *Engine) Advance(ctx context.Context) (NotifyResult, error) {
	ws, err := e.store.GetWorkflowState()
	if err != nil {
		return NotifyResult{}, err
	}
	if ws == nil {
		return NotifyResult{}, ErrNoWorkflow
	}

	def, ok := e.registry.Get(ws.Active)
	if !ok {
		return NotifyResult{}, fmt.Errorf("%w: %s", ErrUnknownWorkflow, ws.Active)
	}

	next, err := def.NextStep(ws.Step)
	if err != nil {
		return NotifyResult{}, err
	}

	ws.ClearPending()
	if err := e.logEvent(ws, EventManualAdvance, ""); err != nil {
		return NotifyResult{}, err
	}

	from := ws.Step
	applyStep(ws, def, next)
	if err := e.store.SaveWorkflowState(ws); err != nil {
		return NotifyResult{}, err
	}
	e.emitAdvanced(ctx, ws, from, EventManualAdvance.String())

	result := NotifyResult{
		Triggered:        true,
		ImmediateAdvance: true,
		NewStep:          next,
	}
	content, err := e.render(ws)
	if err != nil {
		return result, err
	}
	e.printAdvance(ws.Active, from, next, content)
	result.PromptRendered = true
	return result, nil
}
