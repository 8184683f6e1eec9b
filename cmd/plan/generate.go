package main

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/workout"
	"github.com/spf13/cobra"
)

const defaultDurationMinutes = 50

type generateOptions struct {
	duration  float64
	apparatus string
	theme     string
	energy    string
	seed      uint64
	format    string
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a class plan",
		Example: `  plan generate --duration 45 --apparatus Reformer --theme Core --energy Moderate
  plan generate --apparatus mat --seed 7 --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.Float64Var(&opts.duration, "duration", defaultDurationMinutes, "class length in minutes")
	flags.StringVar(&opts.apparatus, "apparatus", string(catalog.ApparatusMixed),
		"Reformer, Mat, Chair, Cadillac or Mixed")
	flags.StringVar(&opts.theme, "theme", string(catalog.ThemeAny), "focus theme, e.g. Core or \"Lower Body\", or Any")
	flags.StringVar(&opts.energy, "energy", "Any", strings.Join(workout.EnergyLabels(), ", "))
	flags.Uint64Var(&opts.seed, "seed", 0, "random seed for a reproducible plan, 0 picks one")
	flags.StringVar(&opts.format, "format", formatJSON, "output format, json or yaml")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts generateOptions) error {
	if opts.duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", opts.duration)
	}
	apparatus, err := catalog.ParseApparatus(opts.apparatus)
	if err != nil {
		return fmt.Errorf("parse --apparatus: %w", err)
	}
	theme, err := catalog.ParseTheme(opts.theme)
	if err != nil {
		return fmt.Errorf("parse --theme: %w", err)
	}
	req := workout.Request{
		DurationMinutes: opts.duration,
		Apparatus:       apparatus,
		Theme:           theme,
		Energy:          workout.ParseEnergyBand(opts.energy),
	}

	seed := opts.seed
	if seed == 0 {
		seed = rand.Uint64() //nolint:gosec // plans don't need cryptographic randomness.
	}
	rng := rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // as above.
	plan := workout.NewGenerator(catalog.Default(), rng).Generate(req)

	return write(cmd.OutOrStdout(), opts.format, newPlanOutput(req, opts.energy, plan))
}
