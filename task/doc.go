// Package task runs and tracks background commands.
//
// Some workflow steps hand slow work (pushing a commit, opening a pull
// request) to a detached process so the caller can return at once. Each
// such command is recorded as a Task in its own JSON file under
// <state dir>/background-tasks, with its combined output written to
// background-tasks/logs/<id>.log. The workflow engine polls these records
// through Store.ListActive before applying a deferred transition.
//
// Core types:
//   - Task: one background command and its outcome
//   - Store: file-per-task persistence
//   - Runner: launches detached task processes and executes them
//
// Example usage:
//
//	store := task.NewStore(stateDir)
//	runner := task.NewRunner(store)
//	t, err := runner.Launch(ctx, "agdt-git-commit", exe, "git", "commit", "--foreground")
package task
