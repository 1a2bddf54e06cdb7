package workflow

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/randalmurphal/agdt/state"
)

// Template variables always present for a step.
const (
	VarWorkflowName   = "workflow_name"
	VarWorkflowStep   = "workflow_step"
	VarWorkflowStatus = "workflow_status"
)

// render renders the prompt for the workflow's current step.
func (e *Engine) render(ws *state.WorkflowState) (string, error) {
	vars, err := e.TemplateVars(ws)
	if err != nil {
		return "", err
	}
	content, err := e.renderer.Render(ws.Active, ws.Step, vars)
	if err != nil {
		return "", fmt.Errorf("render %s/%s: %w", ws.Active, ws.Step, err)
	}
	return content, nil
}

// TemplateVars builds the variables a step template sees: flattened
// top-level store keys, overlaid by the flattened workflow context, plus
// workflow_name, workflow_step and workflow_status. Nested keys are joined
// with '_' and lists become comma-separated strings.
func (e *Engine) TemplateVars(ws *state.WorkflowState) (map[string]string, error) {
	vars := make(map[string]string)

	all, err := e.store.All()
	if err != nil {
		return nil, err
	}
	for key, value := range all {
		if key == state.WorkflowKey {
			continue
		}
		flatten(vars, key, value)
	}

	for key, value := range ws.Context {
		if key == state.ContextPendingTransition || key == state.ContextEventsLog {
			continue
		}
		flatten(vars, key, value)
	}

	vars[VarWorkflowName] = ws.Active
	vars[VarWorkflowStep] = ws.Step
	vars[VarWorkflowStatus] = string(ws.Status)
	return vars, nil
}

func flatten(vars map[string]string, prefix string, value any) {
	if m, ok := value.(map[string]any); ok {
		for k, v := range m {
			flatten(vars, prefix+"_"+k, v)
		}
		return
	}
	vars[prefix] = stringify(value)
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

// Banner renders a boxed heading for w. Colour is used only when w is a
// terminal that supports it.
func Banner(w io.Writer, title, detail string) string {
	r := lipgloss.NewRenderer(w)
	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("12")).
		Padding(0, 1)
	heading := r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Render(title)
	if detail == "" {
		return box.Render(heading)
	}
	return box.Render(heading + "\n" + detail)
}

// printAdvance writes the WORKFLOW ADVANCED banner and the new prompt.
func (e *Engine) printAdvance(workflow, from, to, content string) {
	detail := fmt.Sprintf("%s: %s -> %s", workflow, from, to)
	fmt.Fprintln(e.out, Banner(e.out, "WORKFLOW ADVANCED", detail))
	fmt.Fprintln(e.out)
	fmt.Fprintln(e.out, strings.TrimRight(content, "\n"))
}
