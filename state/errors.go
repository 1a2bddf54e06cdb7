package state

import "errors"

// Store errors.
var (
	// ErrEmptyKey indicates a key of "" was passed to a store operation.
	ErrEmptyKey = errors.New("state key is required")

	// ErrCorruptDocument indicates the state file exists but is not valid JSON.
	ErrCorruptDocument = errors.New("state document is not valid JSON")

	// ErrReservedKey indicates a direct write to a key owned by the workflow helpers.
	ErrReservedKey = errors.New("key is reserved for workflow state")
)
