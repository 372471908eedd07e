package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"psyrun/engine"
)

func newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the built-in tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTIMULUS\tKEYS\tCONDITIONS")
			for _, name := range engine.PresetNames() {
				t, _ := engine.Preset(name)
				fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", t.Name, t.Stimulus, t.Response.Keys, t.Conditions)
			}
			return w.Flush()
		},
	}
}
