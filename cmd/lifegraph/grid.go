package main

import (
	"github.com/spf13/cobra"

	"lifegraph/pkg/graph"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Write the JSON description of a --width x --height lattice",
	Long: `grid generates the 8-neighbor lattice selected by --width, --height and
--wrap and writes it in the graph description format read by --graph. Edges
are labelled "side" or "diagonal".`,
	Args: cobra.NoArgs,
	RunE: runGrid,
}

func runGrid(cmd *cobra.Command, _ []string) error {
	l := graph.Lattice{W: cfg.Graph.Width, H: cfg.Graph.Height}
	var (
		edges []graph.Edge
		err   error
	)
	if cfg.Graph.Wrap {
		edges, err = l.TorusEdges()
	} else {
		edges, err = l.BoundedEdges()
	}
	if err != nil {
		return err
	}
	desc := graph.Describe(l.W*l.H, edges)
	desc.Width, desc.Height = l.W, l.H

	w, err := create(outputPath(cmd, "-"))
	if err != nil {
		return err
	}
	if err := desc.Encode(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
