// Package life runs a Life-like rule on a toroidal lattice graph for the
// interactive viewer, exposing the rule index and seeding density as HUD
// controls and the per-step metrics as a read-only panel.
package life

import (
	"strconv"

	"github.com/pkg/errors"

	"lifegraph/internal/core"
	"lifegraph/pkg/graph"
	"lifegraph/pkg/metrics"
	"lifegraph/pkg/rules"
	"lifegraph/pkg/sim"
)

// Life is a core.Sim backed by the graph engine.
type Life struct {
	cfg    Config
	g      *graph.Graph
	engine *sim.Engine
	degree int
	rule   rules.Rule
	seed   int64

	prev    []uint8
	flips   []uint8
	metrics metrics.Metrics
	err     error
}

// New returns Conway's Life on a w x h torus.
func New(w, h int) (*Life, error) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = w, h
	return NewWithConfig(cfg)
}

// NewWithConfig builds the torus and engine described by cfg. The board is
// empty until Reset.
func NewWithConfig(cfg Config) (*Life, error) {
	g, err := graph.Torus(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	engine, err := sim.NewWithConfig(g, sim.Config{Blocks: 1, Workers: cfg.Workers})
	if err != nil {
		return nil, err
	}
	l := &Life{
		cfg:    cfg,
		g:      g,
		engine: engine,
		degree: rules.Degree(g.MaxDegree(), cfg.MaxNeighbors),
		seed:   cfg.Seed,
		prev:   make([]uint8, g.NodeCount()),
		flips:  make([]uint8, g.NodeCount()),
	}
	r, err := rules.Resolve(cfg.Rule, l.degree)
	if err != nil {
		return nil, err
	}
	if err := l.setRule(r); err != nil {
		return nil, err
	}
	return l, nil
}

// Name returns the simulation identifier.
func (l *Life) Name() string { return "life" }

// Size returns the grid dimensions.
func (l *Life) Size() core.Size { return core.Size{W: l.cfg.Width, H: l.cfg.Height} }

// Cells exposes the current node states in row-major lattice order.
func (l *Life) Cells() []uint8 { return l.engine.State() }

// Flips marks the nodes that changed state in the most recent step.
func (l *Life) Flips() []uint8 { return l.flips }

// Rule returns the active rule.
func (l *Life) Rule() rules.Rule { return l.rule }

// Generation returns the number of steps since the last Reset.
func (l *Life) Generation() int { return l.engine.Generation() }

// Metrics returns the measurements of the current state.
func (l *Life) Metrics() metrics.Metrics { return l.metrics }

// Err reports the last engine failure, if any.
func (l *Life) Err() error { return l.err }

// Reset draws a fresh board with alive probability P from seed.
func (l *Life) Reset(seed int64) {
	l.seed = seed
	l.err = l.engine.Randomize(l.cfg.P, uint64(seed))
	clear(l.flips)
	l.measure()
}

// Step advances the board by one generation.
func (l *Life) Step() {
	copy(l.prev, l.engine.State())
	if err := l.engine.Step(); err != nil {
		l.err = err
		return
	}
	for i, s := range l.engine.State() {
		l.flips[i] = s ^ l.prev[i]
	}
	l.measure()
}

func (l *Life) measure() {
	if l.err != nil {
		return
	}
	m, err := metrics.Compute(l.g, l.engine.State())
	if err != nil {
		l.err = err
		return
	}
	l.metrics = m
}

func (l *Life) setRule(r rules.Rule) error {
	if err := l.engine.SetRule(r); err != nil {
		return errors.Wrap(err, "life: set rule")
	}
	l.rule = r
	return nil
}

// ParameterControls lists the HUD-adjustable values.
func (l *Life) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{
			Key:    "rule_index",
			Label:  "Rule index",
			Type:   core.ParamTypeInt,
			Step:   1,
			Min:    0,
			Max:    float64(rules.SpaceSize(l.degree) - 1),
			HasMin: true,
			HasMax: true,
		},
		{
			Key:    "p",
			Label:  "Seed density",
			Type:   core.ParamTypeFloat,
			Step:   0.05,
			Min:    0,
			Max:    1,
			HasMin: true,
			HasMax: true,
		},
	}
}

// SetIntParameter switches the rule mid-run; the board is kept.
func (l *Life) SetIntParameter(key string, value int) bool {
	if key != "rule_index" || value < 0 {
		return false
	}
	r, err := rules.Decode(rules.Index(value), l.degree)
	if err != nil {
		return false
	}
	return l.setRule(r) == nil
}

// SetFloatParameter changes the seeding density and reseeds the board.
func (l *Life) SetFloatParameter(key string, value float64) bool {
	if key != "p" || value < 0 || value > 1 {
		return false
	}
	l.cfg.P = value
	l.Reset(l.seed)
	return true
}

// Parameters snapshots the rule, seeding and current metrics.
func (l *Life) Parameters() core.ParameterSnapshot {
	m := l.metrics
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Rule",
			Params: []core.Parameter{
				stringParam("rule", "Rule", l.rule.String()),
				intParam("rule_index", "Rule index", int(l.rule.Encode())),
				floatParam("p", "Seed density", l.cfg.P),
				int64Param("seed", "Seed", l.seed),
			},
		},
		{
			Name:    "Metrics",
			Summary: "measured on the current generation",
			Params: []core.Parameter{
				intParam("generation", "Generation", l.Generation()),
				intParam("alive", "Alive", int(m.Alive)),
				floatParam("rho", "Density", m.Rho),
				floatParam("H", "Entropy H", m.H),
				floatParam("G", "Cond. entropy G", m.G),
				floatParam("D", "Complexity D", m.D),
			},
		},
	}}
}

func intParam(key, label string, v int) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeInt, Value: strconv.Itoa(v)}
}

func int64Param(key, label string, v int64) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeInt, Value: strconv.FormatInt(v, 10)}
}

func floatParam(key, label string, v float64) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeFloat, Value: strconv.FormatFloat(v, 'f', 4, 64)}
}

func stringParam(key, label, v string) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeString, Value: v}
}

func init() {
	core.Register("life", func(cfg map[string]string) core.Sim {
		l, err := NewWithConfig(FromMap(cfg))
		if err != nil {
			panic(err)
		}
		return l
	})
}
