package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/randalmurphal/agdt/testutil"
)

func openTestRepo(t *testing.T) (*Repo, string) {
	t.Helper()

	dir := testutil.SetupTestRepo(t)
	repo, err := Open(testutil.TestContext(t), dir, WithRunner(ExecRunner{Env: []string{
		"GIT_AUTHOR_NAME=agdt test",
		"GIT_AUTHOR_EMAIL=agdt@example.com",
		"GIT_COMMITTER_NAME=agdt test",
		"GIT_COMMITTER_EMAIL=agdt@example.com",
	}}))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return repo, dir
}

func TestOpenNotARepo(t *testing.T) {
	testutil.SetupTestRepo(t) // skips without git

	_, err := Open(testutil.TestContext(t), t.TempDir())
	if !errors.Is(err, ErrNotGitRepo) {
		t.Errorf("err = %v, want ErrNotGitRepo", err)
	}
}

func TestOpenFromSubdirectory(t *testing.T) {
	_, dir := openTestRepo(t)
	sub := filepath.Join(dir, "pkg", "inner")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	repo, err := Open(testutil.TestContext(t), sub)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(repo.Root())
	if got != want {
		t.Errorf("Root() = %q, want %q", got, want)
	}
}

func TestCurrentBranchAndCreateBranch(t *testing.T) {
	repo, _ := openTestRepo(t)
	ctx := testutil.TestContext(t)

	branch, err := repo.CurrentBranch(ctx)
	if err != nil || branch != "main" {
		t.Fatalf("CurrentBranch = %q, %v", branch, err)
	}

	if err := repo.CreateBranch(ctx, "feature/proj-1"); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if branch, _ := repo.CurrentBranch(ctx); branch != "feature/proj-1" {
		t.Errorf("after CreateBranch, branch = %q", branch)
	}
	if !repo.BranchExists(ctx, "feature/proj-1") {
		t.Error("BranchExists = false")
	}

	err = repo.CreateBranch(ctx, "main")
	if !errors.Is(err, ErrBranchExists) {
		t.Errorf("CreateBranch(main) = %v, want ErrBranchExists", err)
	}

	if err := repo.Checkout(ctx, "main"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if branch, _ := repo.CurrentBranch(ctx); branch != "main" {
		t.Errorf("after Checkout, branch = %q", branch)
	}
}

func TestCommitAll(t *testing.T) {
	repo, dir := openTestRepo(t)
	ctx := testutil.TestContext(t)

	testutil.WriteFiles(t, dir, map[string]string{"src/a.go": "package src\n"})
	clean, err := repo.IsClean(ctx)
	if err != nil || clean {
		t.Fatalf("IsClean = %v, %v; want dirty", clean, err)
	}

	res, err := repo.CommitAll(ctx, "Add a.go\n\nRefs: PROJ-1")
	if err != nil {
		t.Fatalf("CommitAll: %v", err)
	}
	if res.Branch != "main" || res.SHA != testutil.HeadSHA(t, dir) {
		t.Errorf("result = %+v", res)
	}
	if msg := testutil.HeadMessage(t, dir); !strings.HasPrefix(msg, "Add a.go") {
		t.Errorf("HEAD message = %q", msg)
	}
	if clean, _ := repo.IsClean(ctx); !clean {
		t.Error("tree dirty after commit")
	}
}

func TestCommitNothingStaged(t *testing.T) {
	repo, _ := openTestRepo(t)

	_, err := repo.CommitAll(testutil.TestContext(t), "empty")
	if !errors.Is(err, ErrNothingToCommit) {
		t.Errorf("err = %v, want ErrNothingToCommit", err)
	}
}

func TestCommitEmptyMessage(t *testing.T) {
	repo, dir := openTestRepo(t)
	testutil.WriteFiles(t, dir, map[string]string{"x.txt": "x"})

	_, err := repo.CommitAll(testutil.TestContext(t), "  ")
	if !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}
}

func TestPushCurrent(t *testing.T) {
	repo, dir := openTestRepo(t)
	ctx := testutil.TestContext(t)
	bare := testutil.SetupBareRemote(t, dir)
	testutil.CreateBranch(t, dir, "feature/proj-2")
	testutil.CommitFile(t, dir, "b.txt", "b", "Add b")

	res, err := repo.PushCurrent(ctx, "origin")
	if err != nil {
		t.Fatalf("PushCurrent: %v", err)
	}
	if !res.SetUpstream || res.Branch != "feature/proj-2" {
		t.Errorf("first push = %+v", res)
	}
	if got := testutil.Git(t, bare, "rev-parse", "refs/heads/feature/proj-2"); got != res.SHA {
		t.Errorf("remote SHA = %q, want %q", got, res.SHA)
	}

	testutil.CommitFile(t, dir, "c.txt", "c", "Add c")
	res, err = repo.PushCurrent(ctx, "origin")
	if err != nil {
		t.Fatalf("second PushCurrent: %v", err)
	}
	if res.SetUpstream {
		t.Error("second push should reuse upstream")
	}

	url, err := repo.RemoteURL(ctx, "origin")
	if err != nil || url != bare {
		t.Errorf("RemoteURL = %q, %v", url, err)
	}
}

func TestPushWithoutRemote(t *testing.T) {
	repo, _ := openTestRepo(t)

	_, err := repo.PushCurrent(testutil.TestContext(t), "origin")
	if !errors.Is(err, ErrNoRemote) {
		t.Errorf("err = %v, want ErrNoRemote", err)
	}
}

type fakeRunner struct {
	calls   [][]string
	outputs map[string]string
	fail    map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, _, _ string, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	key := strings.Join(args, " ")
	if f.fail[key] {
		return f.outputs[key], errors.New("exit status 1")
	}
	return f.outputs[key], nil
}

func TestErrorCarriesOutput(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{
			"rev-parse --show-toplevel": "/repo",
			"push origin main":          "fatal: could not read from remote",
		},
		fail: map[string]bool{"push origin main": true},
	}
	repo, err := Open(context.Background(), "/repo", WithRunner(runner))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	err = repo.Push(context.Background(), "origin", "main", false)
	var gitErr *Error
	if !errors.As(err, &gitErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if gitErr.Op != "push" || gitErr.Command() != "git push origin main" {
		t.Errorf("gitErr = %+v", gitErr)
	}
	if !strings.Contains(err.Error(), "could not read from remote") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestCurrentBranchDetached(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"rev-parse --show-toplevel":   "/repo",
		"rev-parse --abbrev-ref HEAD": "HEAD",
	}}
	repo, err := Open(context.Background(), "/repo", WithRunner(runner))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := repo.CurrentBranch(context.Background()); !errors.Is(err, ErrDetachedHead) {
		t.Errorf("err = %v, want ErrDetachedHead", err)
	}
}
