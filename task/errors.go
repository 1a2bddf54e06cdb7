package task

import "errors"

var (
	// ErrNotFound indicates no task record exists for the given ID.
	ErrNotFound = errors.New("task not found")

	// ErrNoCommand indicates a task was created without a name or argv.
	ErrNoCommand = errors.New("task command is required")

	// ErrAlreadyStarted indicates Exec was called for a task that is not pending.
	ErrAlreadyStarted = errors.New("task already started")
)
