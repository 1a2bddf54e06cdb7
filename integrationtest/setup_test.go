// Package integrationtest drives the workflow engine end to end with real
// stores, real git repositories and in-process background tasks.
package integrationtest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/agdt/prompt"
	"github.com/randalmurphal/agdt/state"
	"github.com/randalmurphal/agdt/task"
	"github.com/randalmurphal/agdt/testutil"
	"github.com/randalmurphal/agdt/workflow"
)

type harness struct {
	t      *testing.T
	repo   string
	store  *state.Store
	tasks  *task.Store
	runner *task.Runner
	engine *workflow.Engine
	out    *bytes.Buffer
	events *testutil.RecordingNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	repo := testutil.SetupTestRepo(t)
	store := testutil.NewStateStore(t)
	tasks := task.NewStore(store.Dir())
	out := &bytes.Buffer{}
	events := &testutil.RecordingNotifier{}

	return &harness{
		t:      t,
		repo:   repo,
		store:  store,
		tasks:  tasks,
		runner: task.NewRunner(tasks),
		engine: workflow.NewEngine(store,
			workflow.WithRenderer(prompt.NewLoader(repo)),
			workflow.WithTaskLister(tasks),
			workflow.WithNotifier(events),
			workflow.WithOutput(out),
		),
		out:    out,
		events: events,
	}
}

// launch records a background task the way the CLI does before it fires
// the workflow event. The task stays pending until run.
func (h *harness) launch(command string, argv ...string) *task.Task {
	h.t.Helper()
	created, err := h.tasks.Create(command, argv, h.repo)
	require.NoError(h.t, err)
	return created
}

// run executes a launched task in this process.
func (h *harness) run(t *task.Task) *task.Task {
	h.t.Helper()
	done, err := h.runner.Exec(testutil.TestContext(h.t), t.ID)
	require.NoError(h.t, err)
	return done
}

func (h *harness) state() *state.WorkflowState {
	h.t.Helper()
	ws, err := h.store.GetWorkflowState()
	require.NoError(h.t, err)
	require.NotNil(h.t, ws)
	return ws
}

func (h *harness) step() string {
	h.t.Helper()
	return h.state().Step
}

// advanceTo moves the active workflow forward manually until step.
func (h *harness) advanceTo(step string) {
	h.t.Helper()
	ctx := testutil.TestContext(h.t)
	for range 10 {
		if h.step() == step {
			return
		}
		_, err := h.engine.Advance(ctx)
		require.NoError(h.t, err)
	}
	h.t.Fatalf("never reached step %s", step)
}
