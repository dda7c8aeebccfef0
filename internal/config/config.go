// Package config loads the lifegraph configuration from YAML and command
// line flags.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"lifegraph/internal/explore"
	"lifegraph/internal/logging"
	"lifegraph/pkg/graph"
	"lifegraph/pkg/rules"
)

var ErrInvalid = errors.New("invalid configuration")

// GraphConfig selects the topology: a JSON description file, or a
// generated lattice when Path is empty.
type GraphConfig struct {
	Path   string `yaml:"path"`
	Width  int    `yaml:"width" validate:"gte=1"`
	Height int    `yaml:"height" validate:"gte=1"`
	Wrap   bool   `yaml:"wrap"`
}

// SimulationConfig holds the per-restart parameters.
type SimulationConfig struct {
	P            float64 `yaml:"p" validate:"gte=0,lte=1"`
	Iterations   int     `yaml:"iterations" validate:"gte=0"`
	Restarts     int     `yaml:"restarts" validate:"gte=1"`
	Seed         uint64  `yaml:"seed"`
	MaxNeighbors int     `yaml:"max_neighbors" validate:"gte=0,lte=8"`
	Batch        bool    `yaml:"batch"`
	NodeWorkers  int     `yaml:"node_workers" validate:"gte=0"`
}

// RulesConfig restricts the sweep to a subset of the rule space. When both
// filters are empty the full space is swept.
type RulesConfig struct {
	Birth   string `yaml:"birth"`
	Survive string `yaml:"survive"`
}

// SweepConfig controls the sweep driver and its outputs.
type SweepConfig struct {
	Output      string        `yaml:"output"`
	Store       string        `yaml:"store"`
	Workers     int           `yaml:"workers" validate:"gte=0"`
	Series      bool          `yaml:"series"`
	Start       int           `yaml:"start" validate:"gte=0"`
	LogInterval time.Duration `yaml:"log_interval"`
}

// NearestConfig parameterises nearest-rule queries.
type NearestConfig struct {
	Reference uint64   `yaml:"reference"`
	Count     int      `yaml:"count" validate:"gte=0"`
	Metrics   []string `yaml:"metrics" validate:"dive,oneof=rho H G D avg_pop activity final_alive"`
}

// TelemetryConfig enables the Prometheus endpoint when Addr is set.
type TelemetryConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// Config is the full configuration.
type Config struct {
	Graph      GraphConfig      `yaml:"graph"`
	Simulation SimulationConfig `yaml:"simulation"`
	Rules      RulesConfig      `yaml:"rules"`
	Sweep      SweepConfig      `yaml:"sweep"`
	Nearest    NearestConfig    `yaml:"nearest"`
	Log        logging.Config   `yaml:"log"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// DefaultConfig returns the standard configuration: B3/S23 as reference on
// a 64x64 torus.
func DefaultConfig() Config {
	return Config{
		Graph: GraphConfig{Width: 64, Height: 64, Wrap: true},
		Simulation: SimulationConfig{
			P:            0.5,
			Iterations:   100,
			Restarts:     10,
			Seed:         1337,
			MaxNeighbors: rules.MaxDegreeCeiling,
			NodeWorkers:  1,
		},
		Sweep: SweepConfig{
			Output:      "sweep.csv",
			LogInterval: 5 * time.Second,
		},
		Nearest: NearestConfig{Reference: 6152, Count: 50},
		Log:     logging.DefaultConfig(),
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrapf(err, "parse config %s", path)
	}
	return c, nil
}

var validate = validator.New()

// Validate checks field ranges and the cross-field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	if c.Graph.Path == "" && c.Graph.Wrap && (c.Graph.Width < 3 || c.Graph.Height < 3) {
		return errors.Wrapf(ErrInvalid, "torus %dx%d needs at least 3x3", c.Graph.Width, c.Graph.Height)
	}
	if _, err := rules.ParseDigits(c.Rules.Birth); err != nil {
		return errors.Wrapf(ErrInvalid, "rules.birth: %v", err)
	}
	if _, err := rules.ParseDigits(c.Rules.Survive); err != nil {
		return errors.Wrapf(ErrInvalid, "rules.survive: %v", err)
	}
	return nil
}

// Bind registers flags that override c. Call it before parsing.
func (c *Config) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&c.Graph.Path, "graph", c.Graph.Path, "graph description JSON (empty: generated lattice)")
	fs.IntVar(&c.Graph.Width, "width", c.Graph.Width, "lattice width")
	fs.IntVar(&c.Graph.Height, "height", c.Graph.Height, "lattice height")
	fs.BoolVar(&c.Graph.Wrap, "wrap", c.Graph.Wrap, "wrap the lattice into a torus")

	fs.Float64Var(&c.Simulation.P, "p", c.Simulation.P, "initial alive probability")
	fs.IntVarP(&c.Simulation.Iterations, "iterations", "i", c.Simulation.Iterations, "steps per restart")
	fs.IntVarP(&c.Simulation.Restarts, "restarts", "r", c.Simulation.Restarts, "random restarts per rule")
	fs.Uint64Var(&c.Simulation.Seed, "seed", c.Simulation.Seed, "base random seed")
	fs.IntVar(&c.Simulation.MaxNeighbors, "max-neighbors", c.Simulation.MaxNeighbors, "rule degree ceiling (<= 8)")
	fs.BoolVar(&c.Simulation.Batch, "batch", c.Simulation.Batch, "run all restarts of a rule on one replicated graph")
	fs.IntVar(&c.Simulation.NodeWorkers, "node-workers", c.Simulation.NodeWorkers, "goroutines per step (0: all CPUs)")

	fs.StringVar(&c.Rules.Birth, "birth", c.Rules.Birth, "birth digit filter for subset sweeps")
	fs.StringVar(&c.Rules.Survive, "survive", c.Rules.Survive, "survival digit filter for subset sweeps")

	fs.StringVarP(&c.Sweep.Output, "output", "o", c.Sweep.Output, "output path")
	fs.StringVar(&c.Sweep.Store, "store", c.Sweep.Store, "progress store directory (empty: in memory)")
	fs.IntVarP(&c.Sweep.Workers, "workers", "w", c.Sweep.Workers, "rules evaluated concurrently (0: all CPUs)")
	fs.BoolVar(&c.Sweep.Series, "series", c.Sweep.Series, "record metrics after every step")
	fs.IntVar(&c.Sweep.Start, "start", c.Sweep.Start, "enumeration position to start from")
	fs.DurationVar(&c.Sweep.LogInterval, "log-interval", c.Sweep.LogInterval, "minimum time between progress logs")

	fs.Uint64Var(&c.Nearest.Reference, "reference", c.Nearest.Reference, "reference rule index")
	fs.IntVarP(&c.Nearest.Count, "count", "n", c.Nearest.Count, "rules per ranking (0: all)")
	fs.StringSliceVar(&c.Nearest.Metrics, "metrics", c.Nearest.Metrics, "metrics to compare (default avg_pop,activity,final_alive)")

	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "debug, info, warn or error")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "auto, text or json")
	fs.StringVar(&c.Telemetry.Addr, "metrics-addr", c.Telemetry.Addr, "serve Prometheus metrics on this address")
}

// BuildGraph loads or generates the configured topology.
func (c Config) BuildGraph() (*graph.Graph, error) {
	if c.Graph.Path != "" {
		f, err := os.Open(c.Graph.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "open graph %s", c.Graph.Path)
		}
		defer f.Close()
		g, err := graph.Decode(f)
		if err != nil {
			return nil, errors.Wrapf(err, "graph %s", c.Graph.Path)
		}
		return g, nil
	}
	if c.Graph.Wrap {
		return graph.Torus(c.Graph.Width, c.Graph.Height)
	}
	return graph.Bounded(c.Graph.Width, c.Graph.Height)
}

// Enumeration returns the rule sequence selected by the subset filters.
func (c Config) Enumeration(degree int) (rules.Enumeration, error) {
	if c.Rules.Birth == "" && c.Rules.Survive == "" {
		return rules.FullSpace(degree)
	}
	return rules.Subset(c.Rules.Birth, c.Rules.Survive, degree)
}

// ExploreOptions maps the configuration onto sweep options.
func (c Config) ExploreOptions() explore.Options {
	return explore.Options{
		P:           c.Simulation.P,
		Iterations:  c.Simulation.Iterations,
		Restarts:    c.Simulation.Restarts,
		Seed:        c.Simulation.Seed,
		Degree:      c.Simulation.MaxNeighbors,
		Batch:       c.Simulation.Batch,
		Series:      c.Sweep.Series,
		Workers:     c.Sweep.Workers,
		NodeWorkers: c.Simulation.NodeWorkers,
		LogInterval: c.Sweep.LogInterval,
	}
}

// Overlay re-applies every flag set on the command line to c, so explicit
// flags win over values read from a file after parsing.
func Overlay(c Config, parsed *pflag.FlagSet) (Config, error) {
	fs := pflag.NewFlagSet("overlay", pflag.ContinueOnError)
	c.Bind(fs)
	var err error
	parsed.Visit(func(f *pflag.Flag) {
		target := fs.Lookup(f.Name)
		if target == nil || err != nil {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			if tv, ok := target.Value.(pflag.SliceValue); ok {
				err = tv.Replace(sv.GetSlice())
				return
			}
		}
		err = target.Value.Set(f.Value.String())
	})
	return c, errors.Wrap(err, "apply flags")
}
