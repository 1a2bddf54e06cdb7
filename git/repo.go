package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Repo is a git working tree.
type Repo struct {
	root   string
	runner Runner
}

// Option configures a Repo.
type Option func(*Repo)

// WithRunner replaces the command runner, mostly for tests.
func WithRunner(r Runner) Option {
	return func(repo *Repo) { repo.runner = r }
}

// Open resolves the working tree containing path.
func Open(ctx context.Context, path string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	repo := &Repo{root: abs, runner: ExecRunner{}}
	for _, opt := range opts {
		opt(repo)
	}

	top, err := repo.runner.Run(ctx, abs, "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotGitRepo, abs)
	}
	repo.root = top
	return repo, nil
}

// Root returns the top-level directory of the working tree.
func (r *Repo) Root() string {
	return r.root
}

// CurrentBranch returns the checked out branch, or ErrDetachedHead.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := r.git(ctx, "get current branch", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if branch == "HEAD" {
		return "", ErrDetachedHead
	}
	return branch, nil
}

// BranchExists reports whether a local branch exists.
func (r *Repo) BranchExists(ctx context.Context, name string) bool {
	_, err := r.runner.Run(ctx, r.root, "git", "rev-parse", "--verify", "--quiet", "refs/heads/"+name)
	return err == nil
}

// CreateBranch creates name at HEAD and checks it out.
func (r *Repo) CreateBranch(ctx context.Context, name string) error {
	if r.BranchExists(ctx, name) {
		return fmt.Errorf("%w: %s", ErrBranchExists, name)
	}
	_, err := r.git(ctx, "create branch", "checkout", "-b", name)
	return err
}

// Checkout switches to an existing ref.
func (r *Repo) Checkout(ctx context.Context, ref string) error {
	_, err := r.git(ctx, "checkout", "checkout", ref)
	return err
}

// StageAll stages every change, including deletions and new files.
func (r *Repo) StageAll(ctx context.Context) error {
	_, err := r.git(ctx, "stage all", "add", "-A")
	return err
}

// HasStagedChanges reports whether the index differs from HEAD.
func (r *Repo) HasStagedChanges(ctx context.Context) (bool, error) {
	_, err := r.runner.Run(ctx, r.root, "git", "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	// --quiet exits 1 when there are differences.
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return true, nil
}

// Commit commits the index. It returns ErrNothingToCommit when nothing is
// staged.
func (r *Repo) Commit(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	staged, err := r.HasStagedChanges(ctx)
	if err != nil {
		return err
	}
	if !staged {
		return ErrNothingToCommit
	}
	_, err = r.git(ctx, "commit", "commit", "-m", message)
	return err
}

// HeadCommit returns the full SHA of HEAD.
func (r *Repo) HeadCommit(ctx context.Context) (string, error) {
	return r.git(ctx, "get HEAD commit", "rev-parse", "HEAD")
}

// Status returns the short status; empty means clean.
func (r *Repo) Status(ctx context.Context) (string, error) {
	return r.git(ctx, "status", "status", "--short")
}

// IsClean reports whether the working tree has no changes.
func (r *Repo) IsClean(ctx context.Context) (bool, error) {
	status, err := r.Status(ctx)
	if err != nil {
		return false, err
	}
	return status == "", nil
}

// RemoteURL returns the fetch URL of a remote.
func (r *Repo) RemoteURL(ctx context.Context, remote string) (string, error) {
	url, err := r.git(ctx, "get remote URL", "remote", "get-url", remote)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNoRemote, remote, err)
	}
	return url, nil
}

// HasUpstream reports whether branch tracks a remote branch.
func (r *Repo) HasUpstream(ctx context.Context, branch string) bool {
	_, err := r.runner.Run(ctx, r.root, "git", "rev-parse", "--abbrev-ref", "--symbolic-full-name", branch+"@{upstream}")
	return err == nil
}

// Push pushes branch to remote, setting upstream tracking when asked.
func (r *Repo) Push(ctx context.Context, remote, branch string, setUpstream bool) error {
	args := []string{"push"}
	if setUpstream {
		args = append(args, "-u")
	}
	args = append(args, remote, branch)
	_, err := r.git(ctx, "push", args...)
	return err
}

// CommitResult describes a commit made by CommitAll.
type CommitResult struct {
	SHA     string    `json:"sha"`
	Branch  string    `json:"branch"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
}

// CommitAll stages everything and commits it.
func (r *Repo) CommitAll(ctx context.Context, message string) (*CommitResult, error) {
	branch, err := r.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.StageAll(ctx); err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, message); err != nil {
		return nil, err
	}
	sha, err := r.HeadCommit(ctx)
	if err != nil {
		return nil, err
	}
	return &CommitResult{SHA: sha, Branch: branch, Message: message, Date: time.Now().UTC()}, nil
}

// PushResult describes a push made by PushCurrent.
type PushResult struct {
	Remote      string `json:"remote"`
	Branch      string `json:"branch"`
	SHA         string `json:"sha"`
	SetUpstream bool   `json:"set_upstream"`
}

// PushCurrent pushes the current branch, setting upstream on first push.
func (r *Repo) PushCurrent(ctx context.Context, remote string) (*PushResult, error) {
	branch, err := r.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := r.RemoteURL(ctx, remote); err != nil {
		return nil, err
	}

	setUpstream := !r.HasUpstream(ctx, branch)
	if err := r.Push(ctx, remote, branch, setUpstream); err != nil {
		return nil, err
	}
	sha, err := r.HeadCommit(ctx)
	if err != nil {
		return nil, err
	}
	return &PushResult{Remote: remote, Branch: branch, SHA: sha, SetUpstream: setUpstream}, nil
}

func (r *Repo) git(ctx context.Context, op string, args ...string) (string, error) {
	out, err := r.runner.Run(ctx, r.root, "git", args...)
	if err != nil {
		gitErr := &Error{Op: op, Args: args, Output: out, Err: err}
		if strings.Contains(out, "nothing to commit") {
			return out, errors.Join(ErrNothingToCommit, gitErr)
		}
		return out, gitErr
	}
	return out, nil
}
