package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/agdt/checklist"
	"github.com/randalmurphal/agdt/state"
	"github.com/randalmurphal/agdt/workflow"
)

func TestChecklistDrivesImplementation(t *testing.T) {
	c := newCLI(t)
	c.advanceTo("PROJ-1", "checklist-creation")

	out := c.mustRun("checklist", "create", "Add endpoint", "Write tests")
	assert.Contains(t, out, "- [ ] 1. Add endpoint")
	assert.Contains(t, out, "WORKFLOW ADVANCED")
	assert.Equal(t, "implementation", c.workflowState().Step)

	out = c.mustRun("checklist", "complete", "1")
	assert.Contains(t, out, "1/2 done")
	assert.Equal(t, "implementation", c.workflowState().Step)

	c.mustRun("checklist", "complete", "2")
	ws := c.workflowState()
	assert.Equal(t, "implementation-review", ws.Step)
	assert.Contains(t, ws.Context[workflow.KeyChecklistMarkdown], "- [x] 2. Write tests")

	// A new item sends the review back to implementation.
	c.mustRun("checklist", "add", "Fix review nit")
	assert.Equal(t, "implementation", c.workflowState().Step)
}

func TestChecklistWithoutWorkflow(t *testing.T) {
	c := newCLI(t)

	c.mustRun("checklist", "create", "One", "Two")
	c.mustRun("checklist", "complete", "2")

	var got checklist.Checklist
	c.runJSON(&got, "checklist", "show")
	require.Len(t, got.Items, 2)
	assert.False(t, got.Items[0].Done)
	assert.True(t, got.Items[1].Done)

	v, ok, err := state.NewStore(c.stateDir).Get(checklist.ContextKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, v)
}

func TestChecklistCreateFromFile(t *testing.T) {
	c := newCLI(t)
	path := filepath.Join(t.TempDir(), "plan.md")
	writeFile(t, path, "- [ ] Parse input\n- [x] Wire command\n")

	var out struct {
		Result   checklist.Checklist `json:"result"`
		Workflow eventReport         `json:"workflow"`
	}
	c.runJSON(&out, "checklist", "create", "--file", path)
	require.Len(t, out.Result.Items, 2)
	assert.Equal(t, "Parse input", out.Result.Items[0].Text)
	assert.True(t, out.Result.Items[1].Done)
	assert.False(t, out.Workflow.Triggered)
}

func TestChecklistErrors(t *testing.T) {
	c := newCLI(t)

	res := c.run("checklist", "show")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "no checklist yet")

	assert.Equal(t, 1, c.run("checklist", "create").code)

	c.mustRun("checklist", "create", "Only item")
	assert.Equal(t, 1, c.run("checklist", "complete", "9").code)
	assert.Equal(t, 1, c.run("checklist", "complete", "one").code)
}
