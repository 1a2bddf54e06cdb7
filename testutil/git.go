package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var gitIdentity = []string{
	"GIT_AUTHOR_NAME=agdt test",
	"GIT_AUTHOR_EMAIL=agdt@example.com",
	"GIT_COMMITTER_NAME=agdt test",
	"GIT_COMMITTER_EMAIL=agdt@example.com",
}

// SetupTestRepo creates a git repository in a temp directory with one
// commit on the "main" branch and returns its path.
func SetupTestRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	mustGit(t, dir, "init", "-q")
	mustGit(t, dir, "checkout", "-q", "-b", "main")
	mustGit(t, dir, "config", "user.email", "agdt@example.com")
	mustGit(t, dir, "config", "user.name", "agdt test")
	CommitFile(t, dir, "README.md", "# test\n", "Initial commit")
	return dir
}

// WriteFiles writes files relative to dir without staging them.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for path, content := range files {
		full := filepath.Join(dir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", path, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

// CommitFile writes path and commits it.
func CommitFile(t *testing.T, dir, path, content, message string) {
	t.Helper()

	WriteFiles(t, dir, map[string]string{path: content})
	mustGit(t, dir, "add", path)
	mustGit(t, dir, "commit", "-q", "-m", message)
}

// CreateBranch creates and checks out branch.
func CreateBranch(t *testing.T, dir, branch string) {
	t.Helper()
	mustGit(t, dir, "checkout", "-q", "-b", branch)
}

// AddRemote registers a remote.
func AddRemote(t *testing.T, dir, name, url string) {
	t.Helper()
	mustGit(t, dir, "remote", "add", name, url)
}

// SetupBareRemote creates a bare repository, registers it as origin of dir
// and returns its path.
func SetupBareRemote(t *testing.T, dir string) string {
	t.Helper()

	bare := t.TempDir()
	mustGit(t, bare, "init", "-q", "--bare")
	AddRemote(t, dir, "origin", bare)
	return bare
}

// CurrentBranch returns the checked out branch.
func CurrentBranch(t *testing.T, dir string) string {
	t.Helper()
	return mustGit(t, dir, "branch", "--show-current")
}

// HeadSHA returns the full SHA of HEAD.
func HeadSHA(t *testing.T, dir string) string {
	t.Helper()
	return mustGit(t, dir, "rev-parse", "HEAD")
}

// HeadMessage returns the full commit message of HEAD.
func HeadMessage(t *testing.T, dir string) string {
	t.Helper()
	return mustGit(t, dir, "log", "-1", "--format=%B")
}

// Git runs git in dir and returns trimmed output, failing the test on error.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	return mustGit(t, dir, args...)
}

func mustGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), gitIdentity...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}
