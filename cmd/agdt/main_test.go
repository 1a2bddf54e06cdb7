package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/agdt/config"
	"github.com/randalmurphal/agdt/pr"
	"github.com/randalmurphal/agdt/state"
	"github.com/randalmurphal/agdt/task"
	"github.com/randalmurphal/agdt/testutil"
)

// cli runs agdt commands in-process against a temporary state directory.
type cli struct {
	t          *testing.T
	stateDir   string
	gitRoot    string
	executable string
	provider   *pr.MockProvider
}

type result struct {
	stdout string
	stderr string
	code   int
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	for _, key := range config.Keys() {
		t.Setenv("AGDT_"+strings.ToUpper(key), "")
	}
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	dir := t.TempDir()
	t.Setenv(state.EnvStateDir, dir)

	return &cli{t: t, stateDir: dir, provider: &pr.MockProvider{}}
}

// withBackground makes background launches start a process that exits at
// once, leaving the task pending for the test to finish by hand.
func (c *cli) withBackground() *cli {
	c.t.Helper()
	exe, err := exec.LookPath("true")
	if err != nil {
		c.t.Skip("true not installed")
	}
	c.executable = exe
	return c
}

func (c *cli) run(args ...string) result {
	c.t.Helper()

	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	a.executable = c.executable
	a.openProvider = func(context.Context) (pr.Provider, error) { return c.provider, nil }

	cfg := config.Default()
	cfg.GitRootFinder = func(string) (string, error) { return c.gitRoot, nil }
	a.resolverCfg = &cfg

	code := execute(testutil.TestContext(c.t), a, args)
	return result{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	res := c.run(args...)
	require.Equal(c.t, 0, res.code, "agdt %s\nstdout:\n%s\nstderr:\n%s", strings.Join(args, " "), res.stdout, res.stderr)
	return res.stdout
}

// runJSON runs with --json and decodes stdout into v.
func (c *cli) runJSON(v any, args ...string) {
	c.t.Helper()
	out := c.mustRun(append([]string{"--json"}, args...)...)
	require.NoError(c.t, json.Unmarshal([]byte(out), v), "stdout:\n%s", out)
}

func (c *cli) workflowState() *state.WorkflowState {
	c.t.Helper()
	ws, err := state.NewStore(c.stateDir).GetWorkflowState()
	require.NoError(c.t, err)
	return ws
}

func (c *cli) tasks() *task.Store {
	return task.NewStore(c.stateDir)
}

// finishTask marks the latest task for command as finished.
func (c *cli) finishTask(command string, runErr error) {
	c.t.Helper()

	active, err := c.tasks().ListActive(testutil.TestContext(c.t))
	require.NoError(c.t, err)
	for _, t := range active {
		if t.Command != command {
			continue
		}
		_, err := c.tasks().MarkRunning(t.ID, os.Getpid())
		require.NoError(c.t, err)
		code := 0
		if runErr != nil {
			code = 1
		}
		_, err = c.tasks().MarkFinished(t.ID, code, runErr)
		require.NoError(c.t, err)
		return
	}
	c.t.Fatalf("no task for %s", command)
}

// advanceTo starts the Jira workflow and manually advances to step.
func (c *cli) advanceTo(issue, step string) {
	c.t.Helper()

	c.mustRun("workflow", "start", "work-on-jira-issue", "--issue", issue)
	for i := 0; i < 10; i++ {
		if c.workflowState().Step == step {
			return
		}
		c.mustRun("workflow", "advance")
	}
	c.t.Fatalf("never reached step %s", step)
}

func TestExitCodes(t *testing.T) {
	c := newCLI(t)

	res := c.run("workflow", "start", "no-such-workflow")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "Unknown workflow.")
	require.Contains(t, res.stderr, "work-on-jira-issue")

	res = c.run("no-such-command")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "unknown command")
}

func TestVersionFlag(t *testing.T) {
	c := newCLI(t)
	require.Contains(t, c.mustRun("--version"), version)
}
