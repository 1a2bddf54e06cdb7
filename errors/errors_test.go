package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/randalmurphal/agdt/config"
	"github.com/randalmurphal/agdt/git"
	agdthttp "github.com/randalmurphal/agdt/http"
	"github.com/randalmurphal/agdt/prompt"
	"github.com/randalmurphal/agdt/workflow"
)

func TestCLIErrorFormat(t *testing.T) {
	err := &CLIError{
		Err:        errors.New("boom"),
		Message:    "Something failed.",
		Details:    "at step x",
		Suggestion: "Try again.",
	}

	want := "Something failed.\nat step x\n\nTry again."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Unwrap().Error() != "boom" {
		t.Errorf("Unwrap = %v", err.Unwrap())
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		is       error
		contains string
	}{
		{
			name:     "template not found",
			err:      &prompt.NotFoundError{Name: "wf/step", Searched: []string{"/a/wf/step.md", "embedded"}},
			is:       prompt.ErrTemplateNotFound,
			contains: "/a/wf/step.md",
		},
		{
			name:     "corrupt state",
			err:      fmt.Errorf("%w: workflow x has no step y", workflow.ErrCorruptState),
			is:       workflow.ErrCorruptState,
			contains: "workflow clear",
		},
		{
			name:     "no workflow",
			err:      workflow.ErrNoWorkflow,
			is:       workflow.ErrNoWorkflow,
			contains: "workflow start",
		},
		{
			name:     "unknown workflow lists names",
			err:      fmt.Errorf("%w: bogus", workflow.ErrUnknownWorkflow),
			is:       workflow.ErrUnknownWorkflow,
			contains: workflow.WorkOnJiraIssue,
		},
		{
			name:     "not a git repo",
			err:      git.ErrNotGitRepo,
			is:       ErrNotInGitRepo,
			contains: "git repository",
		},
		{
			name:     "jira not configured",
			err:      config.ErrJiraNotConfigured,
			is:       config.ErrJiraNotConfigured,
			contains: "jira_url",
		},
		{
			name:     "unauthorized api",
			err:      &agdthttp.APIError{Service: "jira", StatusCode: 401, Endpoint: "/x", Message: "nope"},
			is:       ErrNotAuthenticated,
			contains: "credentials",
		},
		{
			name:     "forbidden api",
			err:      &agdthttp.APIError{Service: "jira", StatusCode: 403, Endpoint: "/x", Message: "nope"},
			is:       agdthttp.ErrForbidden,
			contains: "permission",
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp 127.0.0.1:1: connect: connection refused"),
			is:       ErrConnectionFailed,
			contains: "Cannot reach",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.err)

			var cliErr *CLIError
			if !errors.As(got, &cliErr) {
				t.Fatalf("Wrap(%v) = %T, want *CLIError", tt.err, got)
			}
			if !errors.Is(got, tt.is) {
				t.Errorf("errors.Is(%v) = false", tt.is)
			}
			if !strings.Contains(got.Error(), tt.contains) {
				t.Errorf("message %q does not mention %q", got.Error(), tt.contains)
			}
		})
	}
}

func TestWrapPassThrough(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) != nil")
	}

	plain := errors.New("something else")
	if Wrap(plain) != plain {
		t.Error("unrecognised error was wrapped")
	}

	existing := &CLIError{Message: "already"}
	if Wrap(existing) != error(existing) {
		t.Error("CLIError was re-wrapped")
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Error("nil should exit 0")
	}
	if ExitCode(Wrap(&prompt.NotFoundError{Name: "x"})) != 2 {
		t.Error("template not found should exit 2")
	}
	if ExitCode(errors.New("x")) != 1 {
		t.Error("generic error should exit 1")
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		err                    error
		auth, perm, connection bool
	}{
		{errors.New("HTTP 401 Unauthorized"), true, false, false},
		{errors.New("403 Forbidden"), false, true, false},
		{errors.New("x509: certificate signed by unknown authority"), false, false, true},
		{errors.New("context deadline exceeded"), false, false, true},
		{errors.New("no such host"), false, false, true},
		{errors.New("fine"), false, false, false},
		{nil, false, false, false},
	}

	for _, tt := range tests {
		if got := IsAuthError(tt.err); got != tt.auth {
			t.Errorf("IsAuthError(%v) = %v", tt.err, got)
		}
		if got := IsPermissionError(tt.err); got != tt.perm {
			t.Errorf("IsPermissionError(%v) = %v", tt.err, got)
		}
		if got := IsConnectionError(tt.err); got != tt.connection {
			t.Errorf("IsConnectionError(%v) = %v", tt.err, got)
		}
	}
}
