package main

import (
	"github.com/spf13/cobra"

	"lifegraph/internal/explore"
	"lifegraph/internal/table"
	"lifegraph/pkg/rules"
)

var (
	keepStates bool

	runCmd = &cobra.Command{
		Use:   "run RULE",
		Short: "Run one rule once and write the per-iteration JSON report",
		Long: `run evolves a single random initial state under RULE (e.g. B3/S23,
a named rule such as highlife, or a rule index) and reports density,
entropies, complexity and alive counts for every iteration, including the
initial state.`,
		Args: cobra.ExactArgs(1),
		RunE: runRule,
	}
)

func init() {
	runCmd.Flags().BoolVar(&keepStates, "states", false, "include the full state matrix")
}

func runRule(cmd *cobra.Command, args []string) error {
	g, err := cfg.BuildGraph()
	if err != nil {
		return err
	}
	d := rules.Degree(g.MaxDegree(), cfg.Simulation.MaxNeighbors)
	rule, err := rules.Resolve(args[0], d)
	if err != nil {
		return err
	}

	seed := explore.RestartSeed(cfg.Simulation.Seed, rule.Encode(), 0)
	ms, states, err := explore.Trace(g, rule, cfg.Simulation.P, seed, cfg.Simulation.Iterations, cfg.Simulation.NodeWorkers, keepStates)
	if err != nil {
		return err
	}

	w, err := create(outputPath(cmd, "-"))
	if err != nil {
		return err
	}
	if err := table.NewRunReport(rule, ms, states).Encode(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
