package state

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvStateDir overrides the directory holding the state document.
	// Tests and parallel worktrees set it to isolate their state.
	EnvStateDir = "AGDT_STATE_DIR"

	// FileName is the name of the state document inside the state directory.
	FileName = "agdt-state.json"

	// DefaultDirName is the directory created under the git root (or the
	// working directory outside a repository).
	DefaultDirName = ".agdt"
)

// Dir resolves the state directory.
// Priority: $AGDT_STATE_DIR, then <git root>/.agdt, then <cwd>/.agdt.
func Dir() (string, error) {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return filepath.Abs(dir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}

	if root := findGitRoot(cwd); root != "" {
		return filepath.Join(root, DefaultDirName), nil
	}
	return filepath.Join(cwd, DefaultDirName), nil
}

// findGitRoot walks up from startDir looking for a .git entry.
// Worktrees have a .git file rather than a directory, so both count.
func findGitRoot(startDir string) string {
	dir := startDir
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
