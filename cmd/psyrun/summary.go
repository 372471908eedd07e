package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"psyrun/engine"
)

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <results.csv|results.json>",
		Short: "Print accuracy and reaction time statistics of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := engine.LoadResults(args[0])
			if err != nil {
				return err
			}
			s, err := engine.Summarize(l)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if l.Meta.Participant != "" {
				fmt.Fprintf(w, "Participant %s, task %s, %s\n", l.Meta.Participant, l.Meta.Task, l.Meta.Date)
			}
			s.Print(w)
			return nil
		},
	}
}
