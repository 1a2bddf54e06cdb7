package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/agdt/state"
	"github.com/randalmurphal/agdt/workflow"
)

func newWorkflowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workflow",
		Aliases: []string{"wf"},
		Short:   "Start, inspect and advance workflows",
	}
	cmd.AddCommand(
		newWorkflowStartCmd(a),
		newWorkflowNextCmd(a),
		newWorkflowStatusCmd(a),
		newWorkflowAdvanceCmd(a),
		newWorkflowClearCmd(a),
		newWorkflowListCmd(a),
		newWorkflowNotifyCmd(a),
	)
	return cmd
}

func newWorkflowStartCmd(a *app) *cobra.Command {
	var (
		issueKey string
		sets     []string
	)

	cmd := &cobra.Command{
		Use:   "start <workflow>",
		Short: "Start a workflow, replacing any active one",
		Example: `  agdt workflow start work-on-jira-issue --issue PROJ-123
  agdt workflow start pull-request-review --set pr_id=42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			if issueKey != "" {
				seed[workflow.KeyIssueKey] = strings.ToUpper(issueKey)
			}

			ws, err := a.engine.Initiate(cmd.Context(), args[0], seed)
			if err != nil {
				return err
			}

			res, err := a.engine.Resolve(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(res)
			}

			detail := fmt.Sprintf("%s at step %s", ws.Active, ws.Step)
			a.printf("%s\n\n%s\n", workflow.Banner(a.stdout, "WORKFLOW STARTED", detail), strings.TrimRight(res.Content, "\n"))
			return nil
		},
	}
	cmd.Flags().StringVar(&issueKey, "issue", "", "Jira issue key to seed as issue_key")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Seed context value as key=value (repeatable; JSON values allowed)")
	return cmd
}

func newWorkflowNextCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Print the instructions for the current step",
		Long: `Print the instructions for the current step.

If the last event is waiting on background tasks, next checks them: when
all have finished the workflow advances first; while any is running it
reports WAITING; if one failed it reports FAILURE and exits 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.engine.Resolve(cmd.Context())
			if err != nil {
				return err
			}

			if a.jsonOut {
				if err := a.printJSON(res); err != nil {
					return err
				}
			} else {
				a.printPrompt(res)
			}

			if res.Status == workflow.StatusFailure {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}

func (a *app) printPrompt(res workflow.PromptResult) {
	content := strings.TrimRight(res.Content, "\n")
	switch res.Status {
	case workflow.StatusSuccess:
		if res.Advanced {
			detail := fmt.Sprintf("%s: %s -> %s", res.Workflow, res.FromStep, res.Step)
			a.printf("%s\n\n", workflow.Banner(a.stdout, "WORKFLOW ADVANCED", detail))
		}
	case workflow.StatusWaiting:
		a.printf("%s\n\n", workflow.Banner(a.stdout, "WAITING", strings.Join(res.PendingTaskIDs, ", ")))
	case workflow.StatusFailure:
		a.printf("%s\n\n", workflow.Banner(a.stdout, "BACKGROUND TASK FAILED", strings.Join(res.FailedTaskIDs, ", ")))
	}
	a.printf("%s\n", content)
}

type workflowStatus struct {
	Active   bool                     `json:"active"`
	Workflow string                   `json:"workflow,omitempty"`
	Status   state.Status             `json:"status,omitempty"`
	Step     string                   `json:"step,omitempty"`
	Pending  *state.PendingTransition `json:"pending_transition,omitempty"`
	Context  map[string]any           `json:"context,omitempty"`
}

func newWorkflowStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active workflow, its step and context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.engine.Current(cmd.Context())
			if err != nil {
				return err
			}

			out := workflowStatus{}
			if ws != nil {
				pending, err := ws.Pending()
				if err != nil {
					return fmt.Errorf("%w: %v", workflow.ErrCorruptState, err)
				}
				out = workflowStatus{
					Active:   true,
					Workflow: ws.Active,
					Status:   ws.Status,
					Step:     ws.Step,
					Pending:  pending,
					Context:  userContext(ws.Context),
				}
			}

			if a.jsonOut {
				return a.printJSON(out)
			}
			if !out.Active {
				a.printf("No workflow is active.\n")
				return nil
			}

			a.printf("%s %s\n", a.heading("Workflow:"), out.Workflow)
			a.printf("%s %s\n", a.heading("Status:  "), out.Status)
			a.printf("%s %s\n", a.heading("Step:    "), out.Step)
			if out.Pending != nil {
				a.printf("%s %s (on %s, waiting for %s)\n", a.heading("Pending: "),
					out.Pending.ToStep, out.Pending.TriggeredBy, strings.Join(out.Pending.RequiredTasks, ", "))
			}
			if len(out.Context) > 0 {
				a.printf("%s\n", a.heading("Context:"))
				for _, key := range slices.Sorted(maps.Keys(out.Context)) {
					a.printf("  %s = %s\n", key, summarize(out.Context[key]))
				}
			}
			return nil
		},
	}
}

// userContext drops the engine's bookkeeping keys.
func userContext(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		if k == state.ContextPendingTransition || k == state.ContextEventsLog {
			continue
		}
		out[k] = v
	}
	return out
}

func summarize(v any) string {
	s := fmt.Sprint(v)
	if str, ok := v.(string); ok {
		s = str
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}

func newWorkflowAdvanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "advance",
		Short: "Move to the next step without waiting for an event",
		Long: `Move to the next step without waiting for an event.

Background tasks are not checked and any pending transition is dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.engine.Advance(cmd.Context())
			if err != nil {
				return err
			}
			return a.reportEvent(cmd.Context(), workflow.EventManualAdvance, res, nil)
		},
	}
}

func newWorkflowClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the active workflow and its context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.engine.Clear(cmd.Context()); err != nil {
				return err
			}
			if !a.jsonOut {
				a.success("Workflow cleared")
			}
			return nil
		},
	}
}

type workflowInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	InitialStep string   `json:"initial_step"`
	Steps       []string `json:"steps"`
}

func newWorkflowListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := a.engine.Registry()

			var infos []workflowInfo
			for _, name := range reg.Names() {
				def, _ := reg.Get(name)
				infos = append(infos, workflowInfo{
					Name:        def.Name,
					Description: def.Description,
					InitialStep: def.InitialStep,
					Steps:       def.Steps(),
				})
			}

			if a.jsonOut {
				return a.printJSON(infos)
			}
			for _, info := range infos {
				a.printf("%s\n", a.heading(info.Name))
				if info.Description != "" {
					a.printf("  %s\n", info.Description)
				}
				a.printf("  %s\n", a.dim("steps: "+strings.Join(info.Steps, " -> ")))
			}
			return nil
		},
	}
}

func newWorkflowNotifyCmd(a *app) *cobra.Command {
	var (
		taskID string
		sets   []string
	)

	cmd := &cobra.Command{
		Use:   "notify <EVENT>",
		Short: "Deliver an event to the active workflow",
		Long: `Deliver an event to the active workflow.

Events that do not apply to the current step are ignored. Use this to
report steps the agent completed itself, such as IMPLEMENTATION_REVIEWED.`,
		Example: `  agdt workflow notify IMPLEMENTATION_REVIEWED
  agdt workflow notify JIRA_COMMENT_ADDED --set jira_comment_id=10001`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			var names []string
			for _, e := range workflow.Events() {
				names = append(names, e.String())
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := workflow.ParseEvent(strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			updates, err := parseAssignments(sets)
			if err != nil {
				return err
			}

			opts := []workflow.NotifyOption{workflow.WithContextUpdates(updates)}
			if taskID != "" {
				opts = append(opts, workflow.WithTaskID(taskID))
			}
			res, err := a.engine.Notify(cmd.Context(), event, opts...)
			if err != nil {
				return err
			}

			if !res.Triggered && !a.jsonOut {
				a.printf("%s\n", a.dim(fmt.Sprintf("%s does not apply to the current step; nothing changed.", event)))
				return nil
			}
			return a.reportEvent(cmd.Context(), event, res, nil)
		},
	}
	cmd.Flags().StringVar(&taskID, "task-id", "", "Background task that produced the event")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Context update as key=value (repeatable)")
	return cmd
}
