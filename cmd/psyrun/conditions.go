package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"psyrun/engine"
)

func newConditionsCmd() *cobra.Command {
	var (
		words  string
		colors string
		reps   int
		seed   uint64
		out    string
	)

	cmd := &cobra.Command{
		Use:   "conditions",
		Short: "Generate a Stroop conditions file",
		Long: `Repeat every word and every colour, shuffle the two lists independently
and pair them up into a word,color table.

Example: psyrun conditions --words red,green --colors red,green --reps 10 --out stims.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}
			exp, err := engine.GenerateStroopConditions(splitList(words), splitList(colors), reps, engine.NewRand(seed))
			if err != nil {
				return err
			}
			if err := engine.WriteConditions(out, exp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d conditions to %s\n", len(exp.Conditions), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&words, "words", "red,blue", "Comma-separated words")
	cmd.Flags().StringVar(&colors, "colors", "red,blue", "Comma-separated colours, one per word")
	cmd.Flags().IntVar(&reps, "reps", 10, "Repetitions of every word and colour")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (clock when unset)")
	cmd.Flags().StringVar(&out, "out", "conditions.csv", "Output file (.csv or .xlsx)")

	return cmd
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
