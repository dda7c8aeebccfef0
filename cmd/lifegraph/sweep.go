package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"lifegraph/internal/explore"
	"lifegraph/internal/store"
	"lifegraph/internal/table"
	"lifegraph/internal/telemetry"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run every rule of the (sub)space and write one CSV row per rule",
	Long: `sweep enumerates rule indices in ascending order, runs each rule from
--restarts random initial states for --iterations steps and appends the
averaged metrics to --output. With --store the sweep can be interrupted and
resumed: rules already recorded under the same settings are skipped.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	g, err := cfg.BuildGraph()
	if err != nil {
		return err
	}
	ex, err := explore.New(g, cfg.ExploreOptions(), logger)
	if err != nil {
		return err
	}
	enum, err := cfg.Enumeration(ex.Degree())
	if err != nil {
		return err
	}

	st, err := store.Open(store.Config{Path: cfg.Sweep.Store, Logger: logger})
	if err != nil {
		return err
	}
	defer st.Close()
	ex.WithProgress(st)

	if err := st.PutSession(ctx, store.Session{
		ID:          ex.Session(),
		Fingerprint: ex.Fingerprint(),
		Started:     time.Now().UTC(),
		Degree:      ex.Degree(),
		Rules:       enum.Len(),
		Options:     ex.Options(),
	}); err != nil {
		return err
	}

	out, err := table.OpenSweepFile(outputPath(cmd, cfg.Sweep.Output), cfg.Sweep.Series)
	if err != nil {
		return err
	}
	defer out.Close()

	if cfg.Telemetry.Addr != "" {
		tctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := telemetry.Serve(tctx, cfg.Telemetry.Addr, logger); err != nil {
				logger.Error("metrics endpoint failed", slog.Any("error", err))
			}
		}()
	}

	stats, err := ex.Run(ctx, enum, cfg.Sweep.Start, out)
	fmt.Fprintf(cmd.OutOrStdout(), "session %s: %d rules written, %d skipped, %d total in %s\n",
		stats.Session, stats.Completed, stats.Skipped, stats.Total, stats.Elapsed.Round(time.Millisecond))
	if err != nil {
		return err
	}
	return out.Close()
}
