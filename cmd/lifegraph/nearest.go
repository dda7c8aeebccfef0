package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lifegraph/internal/explore"
	"lifegraph/internal/nearest"
	"lifegraph/internal/table"
	"lifegraph/pkg/rules"
)

var nearestCmd = &cobra.Command{
	Use:   "nearest TABLE",
	Short: "Rank the rules of a sweep CSV or rule table by distance to --reference",
	Args:  cobra.ExactArgs(1),
	RunE:  runNearest,
}

func readResults(path string) ([]explore.Result, error) {
	r, err := open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return table.ReadSweep(r)
	}
	t, err := table.DecodeRuleTable(r)
	if err != nil {
		return nil, err
	}
	return t.Results(), nil
}

func runNearest(cmd *cobra.Command, args []string) error {
	results, err := readResults(args[0])
	if err != nil {
		return err
	}
	rep, err := nearest.Find(results, rules.Index(cfg.Nearest.Reference), cfg.Nearest.Metrics, cfg.Nearest.Count)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "reference %d %s\n", rep.Reference.Index, rep.Reference.Rule)
	for _, rk := range append(rep.PerMetric, rep.Combined) {
		printRanking(out, rk)
	}
	return nil
}

func printRanking(w io.Writer, rk nearest.Ranking) {
	fmt.Fprintf(w, "\n%s\n", rk.Metric)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\trule\trulestr\tdistance")
	for i, m := range rk.Matches {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.6g\n", i+1, m.Result.Index, m.Result.Rule, m.Distance)
	}
	tw.Flush()
}
