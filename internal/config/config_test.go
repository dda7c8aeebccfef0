package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, 0.5, c.Simulation.P)
	assert.Equal(t, 100, c.Simulation.Iterations)
	assert.Equal(t, 10, c.Simulation.Restarts)
	assert.Equal(t, 8, c.Simulation.MaxNeighbors)
	assert.Equal(t, uint64(6152), c.Nearest.Reference)
	assert.Equal(t, 50, c.Nearest.Count)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifegraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
simulation:
  p: 0.3
  restarts: 4
rules:
  birth: "36"
  survive: "23"
sweep:
  log_interval: 10s
log:
  format: json
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, 0.3, c.Simulation.P)
	assert.Equal(t, 4, c.Simulation.Restarts)
	assert.Equal(t, 100, c.Simulation.Iterations, "untouched keys keep defaults")
	assert.Equal(t, 10*time.Second, c.Sweep.LogInterval)
	assert.Equal(t, "json", c.Log.Format)

	enum, err := c.Enumeration(8)
	require.NoError(t, err)
	assert.Equal(t, 16, enum.Len())
}

func TestValidateRejects(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"probability":   func(c *Config) { c.Simulation.P = 1.5 },
		"restarts":      func(c *Config) { c.Simulation.Restarts = 0 },
		"max neighbors": func(c *Config) { c.Simulation.MaxNeighbors = 9 },
		"small torus":   func(c *Config) { c.Graph.Width = 2 },
		"birth digits":  func(c *Config) { c.Rules.Birth = "3a" },
		"metric":        func(c *Config) { c.Nearest.Metrics = []string{"entropy"} },
		"log format":    func(c *Config) { c.Log.Format = "xml" },
		"metrics addr":  func(c *Config) { c.Telemetry.Addr = "not an address" },
	} {
		c := DefaultConfig()
		mutate(&c)
		assert.True(t, errors.Is(c.Validate(), ErrInvalid), name)
	}

	c := DefaultConfig()
	c.Graph.Wrap = false
	c.Graph.Width, c.Graph.Height = 2, 1
	assert.NoError(t, c.Validate(), "bounded grids may be tiny")
}

func TestBindOverridesFile(t *testing.T) {
	c := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.Bind(fs)
	require.NoError(t, fs.Parse([]string{"--p", "0.2", "-r", "3", "--birth", "3", "--metrics", "rho,D", "--wrap=false"}))
	assert.Equal(t, 0.2, c.Simulation.P)
	assert.Equal(t, 3, c.Simulation.Restarts)
	assert.Equal(t, "3", c.Rules.Birth)
	assert.Equal(t, []string{"rho", "D"}, c.Nearest.Metrics)
	assert.False(t, c.Graph.Wrap)
	require.NoError(t, c.Validate())
}

func TestBuildGraphAndOptions(t *testing.T) {
	c := DefaultConfig()
	c.Graph.Width, c.Graph.Height = 4, 3
	g, err := c.BuildGraph()
	require.NoError(t, err)
	assert.Equal(t, 12, g.NodeCount())
	assert.Equal(t, 8, g.MaxDegree())

	c.Graph.Wrap = false
	c.Graph.Width, c.Graph.Height = 2, 2
	g, err = c.BuildGraph()
	require.NoError(t, err)
	assert.Equal(t, 3, g.MaxDegree())

	path := filepath.Join(t.TempDir(), "g.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"n": 3, "edges": [{"source": 0, "target": 1}, {"source": 1, "target": 2}]}`), 0o644))
	c.Graph.Path = path
	g, err = c.BuildGraph()
	require.NoError(t, err)
	assert.Equal(t, 2, g.EdgeCount())

	enum, err := DefaultConfig().Enumeration(2)
	require.NoError(t, err)
	assert.Equal(t, 64, enum.Len())

	opts := c.ExploreOptions()
	assert.Equal(t, c.Simulation.Restarts, opts.Restarts)
	assert.Equal(t, c.Sweep.LogInterval, opts.LogInterval)
}

func TestOverlayKeepsExplicitFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifegraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  p: 0.3\n  restarts: 4\nnearest:\n  metrics: [rho]\n"), 0o644))

	flags := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bind(fs)
	require.NoError(t, fs.Parse([]string{"--restarts", "7", "--metrics", "H,G", "--log-interval", "2s"}))

	file, err := Load(path)
	require.NoError(t, err)
	c, err := Overlay(file, fs)
	require.NoError(t, err)
	assert.Equal(t, 0.3, c.Simulation.P)
	assert.Equal(t, 7, c.Simulation.Restarts)
	assert.Equal(t, []string{"H", "G"}, c.Nearest.Metrics)
	assert.Equal(t, 2*time.Second, c.Sweep.LogInterval)
}
