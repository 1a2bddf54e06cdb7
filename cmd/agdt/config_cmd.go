package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/agdt/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change settings",
		Long: `Show and change settings.

Settings resolve from built-in defaults, ~/.config/agdt/config.yaml,
.agdt.yaml in the git root, AGDT_* environment variables and flags, each
overriding the one before.`,
	}
	cmd.AddCommand(
		newConfigGetCmd(a),
		newConfigSetCmd(a),
		newConfigUnsetCmd(a),
		newConfigShowCmd(a),
	)
	return cmd
}

func (a *app) displayValue(key, value string) string {
	if config.IsSecret(key) && value != "" {
		return config.Mask(value)
	}
	return value
}

func newConfigGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "get <key>",
		Short:     "Print one setting",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !config.IsKnown(key) {
				return fmt.Errorf("unknown config key: %s", key)
			}
			value, source := a.resolved.GetWithSource(key)
			if a.jsonOut {
				return a.printJSON(map[string]string{"key": key, "value": a.displayValue(key, value), "source": string(source)})
			}
			a.printf("%s\n", a.displayValue(key, value))
			return nil
		},
	}
}

func newConfigSetCmd(a *app) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Save a setting to the global (or local) config file",
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			save := config.DefaultSave()
			var err error
			if local {
				err = save.SaveLocal(a.resolver.GitRoot(), args[0], args[1])
			} else {
				err = save.SaveGlobal(args[0], args[1])
			}
			if err != nil {
				return err
			}
			if !a.jsonOut {
				a.success("%s = %s", args[0], a.displayValue(args[0], args[1]))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Write to .agdt.yaml in the git root")
	return cmd
}

func newConfigUnsetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a setting from the global config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DefaultSave().DeleteGlobalKey(args[0]); err != nil {
				return err
			}
			if !a.jsonOut {
				a.success("%s removed", args[0])
			}
			return nil
		},
	}
}

type configEntry struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source,omitempty"`
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every setting and where it came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := make([]configEntry, 0, len(config.Keys()))
			for _, key := range config.Keys() {
				value, source := a.resolved.GetWithSource(key)
				entries = append(entries, configEntry{Key: key, Value: a.displayValue(key, value), Source: string(source)})
			}

			if a.jsonOut {
				return a.printJSON(entries)
			}
			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tVALUE\tSOURCE")
			for _, e := range entries {
				source := e.Source
				if source == "" {
					source = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Key, e.Value, source)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if path := a.resolver.GlobalPath(); path != "" {
				a.printf("\n%s\n", a.dim("global: "+path))
			}
			if path := a.resolver.LocalPath(); path != "" {
				a.printf("%s\n", a.dim("local:  "+path))
			}
			return nil
		},
	}
}
