package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"lifegraph/internal/explore"
	"lifegraph/internal/store"
	"lifegraph/internal/table"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the rules recorded in --store as a JSON rule table",
	Long: `export reads every result recorded in the progress store for the current
graph and simulation settings and writes them as a rule table, the input
format of nearest.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, _ []string) error {
	if cfg.Sweep.Store == "" {
		return errors.New("export needs --store")
	}
	g, err := cfg.BuildGraph()
	if err != nil {
		return err
	}
	ex, err := explore.New(g, cfg.ExploreOptions(), logger)
	if err != nil {
		return err
	}

	st, err := store.Open(store.Config{Path: cfg.Sweep.Store, Logger: logger})
	if err != nil {
		return err
	}
	defer st.Close()

	results, err := st.Results(cmd.Context(), ex.Fingerprint())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		sessions, _ := st.Sessions(cmd.Context(), "")
		return errors.Errorf("no results for fingerprint %s (%d sessions in store)", ex.Fingerprint(), len(sessions))
	}

	w, err := create(outputPath(cmd, "-"))
	if err != nil {
		return err
	}
	if err := table.NewRuleTable(ex.Degree(), results).Encode(w); err != nil {
		w.Close()
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "exported %d rules\n", len(results))
	return w.Close()
}
