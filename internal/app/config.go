package app

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Config holds the viewer options.
type Config struct {
	Sim      string
	Scale    int
	Seed     int64
	TPS      int
	Steps    int
	HUDWidth int
	Params   []string
}

// NewConfig returns the viewer defaults.
func NewConfig() *Config {
	return &Config{
		Sim:      "life",
		Scale:    4,
		Seed:     1337,
		TPS:      60,
		Steps:    15,
		HUDWidth: 240,
	}
}

// Bind registers the viewer flags on fs.
func (c *Config) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "simulation to run")
	fs.IntVar(&c.Scale, "scale", c.Scale, "screen pixels per cell")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "initial seed")
	fs.IntVar(&c.TPS, "tps", c.TPS, "frames per second")
	fs.IntVar(&c.Steps, "steps", c.Steps, "generations per second")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "width of the parameter panel, 0 hides it")
	fs.StringSliceVar(&c.Params, "set", c.Params, "simulation option as key=value (repeatable), e.g. --set rule=B36/S23")
}

// SimParams converts the --set options into the factory map.
func (c *Config) SimParams() (map[string]string, error) {
	out := make(map[string]string, len(c.Params))
	for _, kv := range c.Params {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, errors.Errorf("malformed option %q, want key=value", kv)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}
