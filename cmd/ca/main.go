//go:build ebiten

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/pflag"

	"lifegraph/internal/app"
	"lifegraph/internal/core"
	"lifegraph/internal/logging"
	_ "lifegraph/internal/sims/life"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(pflag.CommandLine)
	pflag.Parse()

	logger, err := logging.New(logging.DefaultConfig())
	if err != nil {
		slog.Error("logging", "error", err)
		os.Exit(1)
	}

	factory, ok := core.Sims()[cfg.Sim]
	if !ok {
		logger.Error("unknown sim", "sim", cfg.Sim)
		os.Exit(2)
	}
	params, err := cfg.SimParams()
	if err != nil {
		logger.Error("bad --set", "error", err)
		os.Exit(2)
	}

	sim := factory(params)
	sim.Reset(cfg.Seed)

	game := app.New(sim, cfg)
	size := sim.Size()

	ebiten.SetWindowTitle("lifegraph: " + sim.Name())
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(size.W*cfg.Scale+max(cfg.HUDWidth, 0), size.H*cfg.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Error("viewer stopped", "error", err)
		os.Exit(1)
	}
}
