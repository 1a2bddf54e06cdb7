// Package workflow sequences multi-step developer workflows.
//
// A Definition is a static table of transitions: in step From, any of the
// trigger events moves the workflow to step To. The Registry holds the
// known definitions, and the Engine drives the single active workflow
// stored in a state.Store.
//
// Events reach the engine through Notify, usually via one of the named
// helpers (CommitCreated, ChecklistUpdated, ...). A matched transition
// with no required tasks is applied at once and the next step's prompt
// is printed. A transition that requires background tasks is stored as
// pending instead; Resolve applies it once every required task has
// finished, and reports WAITING or FAILURE until then.
//
// Unmatched events, a missing workflow and an unknown workflow name are
// all silent no-ops for Notify, so callers can report events after any
// routine operation without checking whether a workflow is running.
//
// Example usage:
//
//	store, _ := state.Open()
//	engine := workflow.NewEngine(store,
//	    workflow.WithRenderer(prompt.NewLoader(projectDir)),
//	    workflow.WithTaskLister(task.NewStore(store.Dir())),
//	)
//	_, err := engine.Initiate(ctx, workflow.WorkOnJiraIssue, map[string]any{"issue_key": "DFLY-1"})
//	res, err := engine.CommitCreated(ctx, "feature/dfly-1", taskID)
//	next, err := engine.Resolve(ctx)
package workflow
