package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownWorkflow indicates a workflow name missing from the registry.
	ErrUnknownWorkflow = errors.New("unknown workflow")

	// ErrNoWorkflow indicates an operation that needs an active workflow
	// found none.
	ErrNoWorkflow = errors.New("no active workflow")

	// ErrCorruptState indicates stored workflow state that does not fit its
	// definition, such as a step the definition never declares.
	ErrCorruptState = errors.New("corrupt workflow state")

	// ErrUnknownStep indicates a step not declared by a definition.
	ErrUnknownStep = errors.New("unknown step")

	// ErrTerminalStep indicates a step with no outgoing transitions.
	ErrTerminalStep = errors.New("step is terminal")

	// ErrUnknownEvent indicates an event name outside the event vocabulary.
	ErrUnknownEvent = errors.New("unknown workflow event")

	// ErrInvalidDefinition indicates a definition that fails validation.
	ErrInvalidDefinition = errors.New("invalid workflow definition")

	// ErrDuplicateTransition indicates two transitions share a (from, event) pair.
	ErrDuplicateTransition = errors.New("duplicate transition")

	// ErrDuplicateWorkflow indicates a second definition registered under one name.
	ErrDuplicateWorkflow = errors.New("workflow already registered")
)

// corruptStep reports a stored step the definition does not declare.
func corruptStep(workflow, step string) error {
	return fmt.Errorf("%w: workflow %s is at step %q, which it does not declare", ErrCorruptState, workflow, step)
}
