package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Read and write the key-value state document",
		Long: `Read and write the key-value state document.

Keys are dotted paths ("jira.issue_key"). The "workflow" key belongs to the
workflow engine and cannot be written here; use the workflow commands.`,
	}
	cmd.AddCommand(
		newStateGetCmd(a),
		newStateSetCmd(a),
		newStateDeleteCmd(a),
		newStateClearCmd(a),
		newStateShowCmd(a),
	)
	return cmd
}

func newStateGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value at a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok, err := a.state.Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("key %q is not set", args[0])
			}

			if s, isString := value.(string); isString && !a.jsonOut {
				a.printf("%s\n", s)
				return nil
			}
			return a.printJSON(value)
		},
	}
}

func newStateSetCmd(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a key",
		Long: `Set a key. Values that parse as JSON are stored as JSON, so
"42", "true" and '{"a":1}' keep their types; pass --string to store the
text as is.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any = args[1]
			if !raw {
				value = parseValue(args[1])
			}
			if err := a.state.Set(args[0], value); err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(map[string]any{"key": args[0], "value": value})
			}
			a.success("%s set", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "string", false, "Store the value as a string without JSON parsing")
	return cmd
}

func newStateDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := a.state.Delete(args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(map[string]any{"key": args[0], "deleted": deleted})
			}
			if deleted {
				a.success("%s deleted", args[0])
			} else {
				a.printf("%s was not set\n", args[0])
			}
			return nil
		},
	}
}

func newStateClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every key, including the active workflow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.state.Clear(); err != nil {
				return err
			}
			if !a.jsonOut {
				a.success("State cleared")
			}
			return nil
		},
	}
}

func newStateShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the whole state document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := a.state.All()
			if err != nil {
				return err
			}
			if !a.jsonOut {
				a.printf("%s\n", a.dim(a.state.Path()))
			}
			data, err := json.MarshalIndent(all, "", "  ")
			if err != nil {
				return err
			}
			a.printf("%s\n", data)
			return nil
		},
	}
}
