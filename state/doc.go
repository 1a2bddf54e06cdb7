// Package state provides the persistent key-value document that backs agdt.
//
// The whole document is one JSON file. Every operation reads the full file,
// mutates it in memory and writes it back atomically, so there is never a
// partially written state on disk. The store assumes a single foreground
// process per state directory; concurrent writers race and the last write
// wins.
//
// Core types:
//   - Store: dotted-key access to the document (Get, Set, Delete, Clear)
//   - WorkflowState: the single active workflow persisted under "workflow"
//   - PendingTransition, EventLogEntry: reserved workflow context entries
//
// Example usage:
//
//	dir, _ := state.Dir()
//	store := state.NewStore(dir)
//	_ = store.Set("jira.issue_key", "DFLY-1234")
//	key, _ := store.GetString("jira.issue_key")
package state
