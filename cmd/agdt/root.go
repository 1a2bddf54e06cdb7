package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "agdt",
		Short: "Developer workflow orchestrator for AI coding agents",
		Long: `agdt keeps the state of a multi-step developer workflow, runs the
git, Jira and pull request operations each step needs, and prints the
instructions for the next step once its preconditions are met.

Start a workflow with 'agdt workflow start', then call 'agdt workflow next'
whenever you need to know what to do.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&a.jsonOut, "json", false, "Output in JSON format")
	flags.StringVar(&a.flagStateDir, "state-dir", "", "Directory holding the state document (default: <git root>/.agdt)")
	flags.StringVar(&a.flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&a.flagNoColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newWorkflowCmd(a),
		newStateCmd(a),
		newTaskCmd(a),
		newGitCmd(a),
		newJiraCmd(a),
		newPRCmd(a),
		newChecklistCmd(a),
		newConfigCmd(a),
	)
	return root
}
