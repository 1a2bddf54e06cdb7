package git

import (
	"errors"
	"strings"
)

var (
	ErrNotGitRepo      = errors.New("not a git repository")
	ErrBranchExists    = errors.New("branch already exists")
	ErrNothingToCommit = errors.New("nothing to commit")
	ErrDetachedHead    = errors.New("HEAD is detached")
	ErrNoRemote        = errors.New("remote not configured")
	ErrEmptyMessage    = errors.New("commit message is empty")
)

// Error wraps a failed git invocation.
type Error struct {
	Op     string   // e.g. "commit", "push"
	Args   []string // git arguments
	Output string   // combined output, trimmed
	Err    error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return e.Op + ": " + e.Output
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Command returns the git command line that failed.
func (e *Error) Command() string {
	return "git " + strings.Join(e.Args, " ")
}
