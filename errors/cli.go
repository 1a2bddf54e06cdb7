package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/agdt/config"
	"github.com/randalmurphal/agdt/git"
	"github.com/randalmurphal/agdt/jira"
	"github.com/randalmurphal/agdt/pr"
	"github.com/randalmurphal/agdt/prompt"
	"github.com/randalmurphal/agdt/workflow"
)

// CLIError wraps an error with user-facing context.
type CLIError struct {
	Err        error
	Message    string
	Suggestion string
	Details    string
}

func (e *CLIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}
	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.Suggestion)
	}
	return sb.String()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// Wrap returns a CLIError for recognised failures and err otherwise.
// Nil and existing CLIErrors pass through.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	var notFound *prompt.NotFoundError
	switch {
	case errors.As(err, &notFound):
		return &CLIError{
			Err:     err,
			Message: fmt.Sprintf("No prompt template for %s.", notFound.Name),
			Details: "Searched:\n  " + strings.Join(notFound.Searched, "\n  "),
			Suggestion: fmt.Sprintf("Add %s.md to .agdt/prompts, or point prompts_dir at a directory that has it.",
				notFound.Name),
		}

	case errors.Is(err, workflow.ErrCorruptState):
		return &CLIError{
			Err:        err,
			Message:    "The saved workflow state is inconsistent.",
			Details:    err.Error(),
			Suggestion: "Run 'agdt workflow clear' and start the workflow again.",
		}

	case errors.Is(err, workflow.ErrNoWorkflow):
		return &CLIError{
			Err:        err,
			Message:    "No workflow is active.",
			Suggestion: "Start one with 'agdt workflow start <name>'. See 'agdt workflow list'.",
		}

	case errors.Is(err, workflow.ErrUnknownWorkflow):
		return &CLIError{
			Err:        err,
			Message:    "Unknown workflow.",
			Details:    err.Error(),
			Suggestion: "Available workflows: " + strings.Join(workflow.DefaultRegistry().Names(), ", "),
		}

	case errors.Is(err, workflow.ErrTerminalStep):
		return &CLIError{
			Err:        err,
			Message:    "The workflow is already at its final step.",
			Suggestion: "Run 'agdt workflow clear' to finish it.",
		}

	case errors.Is(err, git.ErrNotGitRepo):
		return &CLIError{
			Err:        ErrNotInGitRepo,
			Message:    "This command must be run from within a git repository.",
			Suggestion: "cd into the repository you are working on and retry.",
		}

	case errors.Is(err, config.ErrJiraNotConfigured):
		return &CLIError{
			Err:        err,
			Message:    "Jira is not configured.",
			Suggestion: "Run 'agdt config set jira_url https://<site>.atlassian.net', then set jira_email and jira_token.",
		}

	case errors.Is(err, pr.ErrNoToken):
		return &CLIError{
			Err:        err,
			Message:    "No API token for the git host.",
			Details:    err.Error(),
			Suggestion: "Set github_token or gitlab_token with 'agdt config set', or export GITHUB_TOKEN / GITLAB_TOKEN.",
		}

	case errors.Is(err, jira.ErrIssueNotFound):
		return &CLIError{
			Err:        err,
			Message:    "Jira issue not found.",
			Details:    err.Error(),
			Suggestion: "Check the issue key and that your account can see the project.",
		}
	}

	return wrapTransport(err)
}

func wrapTransport(err error) error {
	switch {
	case IsAuthError(err):
		return &CLIError{
			Err:        errors.Join(ErrNotAuthenticated, err),
			Message:    "The server rejected your credentials.",
			Details:    err.Error(),
			Suggestion: "Check the token with 'agdt config show' and create a new one if it expired.",
		}
	case IsPermissionError(err):
		return &CLIError{
			Err:        errors.Join(ErrPermissionDenied, err),
			Message:    "You don't have permission to perform this action.",
			Details:    err.Error(),
			Suggestion: "Ask a project administrator for access.",
		}
	case IsConnectionError(err):
		return &CLIError{
			Err:        errors.Join(ErrConnectionFailed, err),
			Message:    "Cannot reach the server.",
			Details:    err.Error(),
			Suggestion: "Check the configured URL and your network connection.",
		}
	}
	return err
}

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, prompt.ErrTemplateNotFound), errors.Is(err, workflow.ErrCorruptState):
		return 2
	default:
		return 1
	}
}
