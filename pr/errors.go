package pr

import "errors"

var (
	// ErrUnknownProvider means the remote is not hosted on GitHub or GitLab.
	ErrUnknownProvider = errors.New("unknown git provider")

	// ErrNoToken means no API token is configured for the provider.
	ErrNoToken = errors.New("no API token configured")

	ErrExists          = errors.New("pull request already exists for this branch")
	ErrNotFound        = errors.New("pull request not found")
	ErrNoChanges       = errors.New("no changes between branches")
	ErrTitleRequired   = errors.New("pull request title is required")
	ErrHeadRequired    = errors.New("pull request head branch is required")
	ErrInvalidDecision = errors.New("invalid review decision")
	ErrEmptyComment    = errors.New("comment body is empty")
)
