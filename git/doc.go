// Package git drives the git command line for the commit and push steps of
// a workflow.
//
// Core types:
//   - Repo: a working tree and the operations agdt performs on it
//   - Runner: executes git (ExecRunner in production, fakes in tests)
//   - BranchNamer: derives branch names from issue keys and summaries
//   - CommitMessage: builds commit messages with issue references
//
// Example usage:
//
//	repo, err := git.Open(ctx, ".")
//	msg := git.NewCommitMessage("Fix login race").WithIssue("PROJ-1")
//	res, err := repo.CommitAll(ctx, msg.String())
//	push, err := repo.PushCurrent(ctx, "origin")
package git
