package testutil

import (
	"os"
	"testing"

	"github.com/randalmurphal/agdt/state"
)

// NewStateStore returns a store in a fresh temp directory. AGDT_STATE_DIR
// points at the same directory for the rest of the test so code calling
// state.Open sees it too.
func NewStateStore(t *testing.T) *state.Store {
	t.Helper()

	dir := t.TempDir()
	t.Setenv(state.EnvStateDir, dir)
	return state.NewStore(dir)
}

// ReadStateFile returns the raw state document, or nil if it was never
// written.
func ReadStateFile(t *testing.T, s *state.Store) []byte {
	t.Helper()

	data, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}
	return data
}

// WriteStateFile replaces the state document with raw bytes.
func WriteStateFile(t *testing.T, s *state.Store, data string) {
	t.Helper()

	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		t.Fatalf("create state dir: %v", err)
	}
	if err := os.WriteFile(s.Path(), []byte(data), 0o644); err != nil {
		t.Fatalf("write state file: %v", err)
	}
}
