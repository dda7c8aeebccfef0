// Command lifegraph sweeps Life-like rules on graphs and ranks them by their
// complexity metrics.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lifegraph/internal/config"
	"lifegraph/internal/logging"
)

var (
	cfg        = config.DefaultConfig()
	configPath string
	logger     *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "lifegraph",
		Short: "Explore Life-like cellular automata on arbitrary graphs",
		Long: `lifegraph runs birth/survival automata on grids and arbitrary graphs,
measures density, entropy and complexity of the resulting states, sweeps the
whole rule space and ranks rules by their distance to a reference rule.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	cfg.Bind(rootCmd.PersistentFlags())
	rootCmd.AddCommand(sweepCmd, runCmd, nearestCmd, gridCmd, checkCmd, exportCmd)
}

// setup loads the configuration file under the parsed flags and builds the
// logger.
func setup(cmd *cobra.Command, _ []string) error {
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg, err = config.Overlay(loaded, cmd.Flags()); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	l, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// outputPath returns the --output value, or def when the flag was not given
// for this command.
func outputPath(cmd *cobra.Command, def string) string {
	if cmd.Flags().Changed("output") {
		return cfg.Sweep.Output
	}
	return def
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// create opens path for writing; "-" is stdout.
func create(path string) (io.WriteCloser, error) {
	if path == "-" || path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// open opens path for reading; "-" is stdin.
func open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
