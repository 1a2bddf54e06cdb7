package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/agdt/checklist"
	"github.com/randalmurphal/agdt/workflow"
)

// The checklist is kept under a top-level state key so it survives
// events the current step ignores. The workflow context gets a copy
// whenever a checklist event applies.

func (a *app) loadChecklist() (*checklist.Checklist, error) {
	v, ok, err := a.state.Get(checklist.ContextKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		ws, err := a.state.GetWorkflowState()
		if err != nil || ws == nil {
			return nil, err
		}
		v = ws.Context[checklist.ContextKey]
	}
	return checklist.FromContext(v)
}

func (a *app) saveChecklist(c *checklist.Checklist) error {
	return a.state.Set(checklist.ContextKey, c.ContextValue())
}

func (a *app) requireChecklist() (*checklist.Checklist, error) {
	c, err := a.loadChecklist()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.New("no checklist yet; create one with 'agdt checklist create'")
	}
	return c, nil
}

func newChecklistCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Track the implementation checklist",
	}
	cmd.AddCommand(
		newChecklistCreateCmd(a),
		newChecklistAddCmd(a),
		newChecklistCompleteCmd(a),
		newChecklistShowCmd(a),
	)
	return cmd
}

func newChecklistCreateCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create [item...]",
		Short: "Create the checklist, replacing any existing one",
		Example: `  agdt checklist create "Add endpoint" "Write tests" "Update docs"
  agdt checklist create --file plan.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				c   *checklist.Checklist
				err error
			)
			if file != "" {
				text, readErr := readBody(cmd.InOrStdin(), "", file)
				if readErr != nil {
					return readErr
				}
				c, err = checklist.Parse(text)
			} else {
				c, err = checklist.New(args...)
			}
			if err != nil {
				return err
			}
			if err := a.saveChecklist(c); err != nil {
				return err
			}

			if !a.jsonOut {
				a.printf("%s", c.Markdown())
			}
			res, err := a.engine.ChecklistCreated(cmd.Context(), c)
			if err != nil {
				return err
			}
			return a.reportEvent(cmd.Context(), workflow.EventChecklistCreated, res, c)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read items from a Markdown list file, or - for stdin")
	return cmd
}

func newChecklistAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <item>",
		Short: "Append an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.requireChecklist()
			if err != nil {
				return err
			}
			if c.Add(args[0]) == 0 {
				return errors.New("item text is empty")
			}
			return a.checklistUpdated(cmd, c)
		},
	}
}

func newChecklistCompleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id...>",
		Short: "Mark items done",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, 0, len(args))
			for _, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid item id %q", arg)
				}
				ids = append(ids, id)
			}

			c, err := a.requireChecklist()
			if err != nil {
				return err
			}
			if err := c.Complete(ids...); err != nil {
				return err
			}
			return a.checklistUpdated(cmd, c)
		},
	}
}

func (a *app) checklistUpdated(cmd *cobra.Command, c *checklist.Checklist) error {
	if err := a.saveChecklist(c); err != nil {
		return err
	}
	if !a.jsonOut {
		done, total := c.Progress()
		a.printf("%s%s\n", c.Markdown(), a.dim(fmt.Sprintf("%d/%d done", done, total)))
	}

	res, err := a.engine.ChecklistUpdated(cmd.Context(), c)
	if err != nil {
		return err
	}
	return a.reportEvent(cmd.Context(), 0, res, c)
}

func newChecklistShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the checklist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.requireChecklist()
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(c)
			}
			done, total := c.Progress()
			a.printf("%s%s\n", c.Markdown(), a.dim(fmt.Sprintf("%d/%d done", done, total)))
			return nil
		},
	}
}
