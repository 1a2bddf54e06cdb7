package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/agdt/task"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect background tasks",
	}
	cmd.AddCommand(
		newTaskListCmd(a),
		newTaskShowCmd(a),
		newTaskExecCmd(a),
		newTaskLogCmd(a),
		newTaskPruneCmd(a),
	)
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List background tasks",
		Long: `List background tasks. By default only the most recent task per
command is shown, which is what the workflow engine checks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var tasks []task.Task
			if all {
				list, err := a.tasks.List()
				if err != nil {
					return err
				}
				for _, t := range list {
					tasks = append(tasks, *t)
				}
			} else {
				active, err := a.tasks.ListActive(cmd.Context())
				if err != nil {
					return err
				}
				tasks = active
			}

			if a.jsonOut {
				if tasks == nil {
					tasks = []task.Task{}
				}
				return a.printJSON(tasks)
			}
			if len(tasks) == 0 {
				a.printf("No background tasks.\n")
				return nil
			}

			now := time.Now()
			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCOMMAND\tSTATUS\tCREATED\tDURATION")
			for _, t := range tasks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					t.ShortID(), t.Command, t.Status,
					t.CreatedAt.Local().Format(time.DateTime),
					t.Duration(now).Round(time.Second))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show every recorded task")
	return cmd
}

func newTaskShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.tasks.Get(args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(t)
			}

			a.printf("%s %s\n", a.heading("ID:     "), t.ID)
			a.printf("%s %s\n", a.heading("Command:"), t.Command)
			a.printf("%s %v\n", a.heading("Argv:   "), t.Argv)
			a.printf("%s %s\n", a.heading("Status: "), t.Status)
			if t.ExitCode != nil {
				a.printf("%s %d\n", a.heading("Exit:   "), *t.ExitCode)
			}
			if t.Error != "" {
				a.printf("%s %s\n", a.heading("Error:  "), t.Error)
			}
			a.printf("%s %s\n", a.heading("Log:    "), t.LogFile)
			return nil
		},
	}
}

func newTaskExecCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:    "exec <id>",
		Short:  "Run a recorded task (used by background launches)",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.runner.Exec(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if t.Status == task.StatusFailed {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}

func newTaskLogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "log <id>",
		Short: "Print a task's output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.tasks.Get(args[0])
			if err != nil {
				return err
			}

			f, err := os.Open(t.LogFile)
			if os.IsNotExist(err) {
				a.printf("%s\n", a.dim(fmt.Sprintf("No output yet (task is %s).", t.Status)))
				return nil
			}
			if err != nil {
				return err
			}
			defer f.Close()

			_, err = io.Copy(a.stdout, f)
			return err
		},
	}
}

func newTaskPruneCmd(a *app) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished tasks and their logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := a.tasks.Prune(olderThan)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(map[string]int{"removed": removed})
			}
			a.success("Removed %d task(s)", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Only remove tasks that finished before this long ago")
	return cmd
}
