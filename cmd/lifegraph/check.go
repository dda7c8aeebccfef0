package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"lifegraph/internal/table"
	"lifegraph/pkg/rules"
	"lifegraph/pkg/sim"
)

var checkCmd = &cobra.Command{
	Use:   "check RULE STATES",
	Short: "Verify that consecutive rows of a state matrix follow RULE",
	Long: `check reads a JSON state matrix (a bare [[0,1,...],...] array or a run
report written with --states) and verifies every transition against RULE on
the configured graph, reporting the first node that disagrees.`,
	Args: cobra.ExactArgs(2),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	g, err := cfg.BuildGraph()
	if err != nil {
		return err
	}
	rule, err := rules.Resolve(args[0], rules.Degree(g.MaxDegree(), cfg.Simulation.MaxNeighbors))
	if err != nil {
		return err
	}

	r, err := open(args[1])
	if err != nil {
		return err
	}
	states, err := table.DecodeStates(r)
	r.Close()
	if err != nil {
		return err
	}

	for it := 1; it < len(states); it++ {
		if err := sim.Verify(g, rule, states[it-1], states[it]); err != nil {
			return errors.Wrapf(err, "iteration %d", it)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d transitions follow %s\n", max(len(states)-1, 0), rule)
	return nil
}
