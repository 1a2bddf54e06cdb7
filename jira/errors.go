package jira

import (
	"errors"

	agdthttp "github.com/randalmurphal/agdt/http"
)

// Configuration errors.
var (
	ErrConfigURLRequired       = errors.New("jira url is required")
	ErrConfigAuthTypeRequired  = errors.New("jira auth type is required")
	ErrConfigAuthTypeInvalid   = errors.New("jira auth type must be api_token, basic or pat")
	ErrConfigAPITokenAuth      = errors.New("jira api_token auth requires email and token")
	ErrConfigBasicAuth         = errors.New("jira basic auth requires username and password")
	ErrConfigPATAuth           = errors.New("jira pat auth requires a token")
	ErrConfigAPIVersionInvalid = errors.New("jira api_version must be v2 or v3")
)

// Request errors.
var (
	ErrIssueKeyInvalid = errors.New("invalid jira issue key")
	ErrIssueNotFound   = errors.New("jira issue not found")
	ErrEmptyComment    = errors.New("jira comment body is empty")
)

// IsNotFound reports whether err means the issue does not exist or is not
// visible to the configured user.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrIssueNotFound) || agdthttp.IsNotFound(err)
}
