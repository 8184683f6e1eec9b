package main

import (
	"fmt"

	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/workout"
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	var (
		phase     string
		apparatus string
		search    string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List catalog exercises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				filter = workout.BrowseFilter{Phase: "", Apparatus: "", Search: search}
				err    error
			)
			if phase != "" {
				if filter.Phase, err = catalog.ParsePhase(phase); err != nil {
					return fmt.Errorf("parse --phase: %w", err)
				}
			}
			if apparatus != "" {
				if filter.Apparatus, err = catalog.ParseApparatus(apparatus); err != nil {
					return fmt.Errorf("parse --apparatus: %w", err)
				}
			}

			exercises := workout.Browse(catalog.Default(), nil, filter)
			out := make([]exerciseOutput, 0, len(exercises))
			for _, e := range exercises {
				out = append(out, newExerciseOutput(e, e.Phase.Label()))
			}
			return write(cmd.OutOrStdout(), format, out)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&phase, "phase", "", "warmup, foundation, peak or cooldown")
	flags.StringVar(&apparatus, "apparatus", "", "Reformer, Mat, Chair or Cadillac")
	flags.StringVar(&search, "search", "", "match name, category or theme")
	flags.StringVar(&format, "format", formatJSON, "output format, json or yaml")
	return cmd
}
