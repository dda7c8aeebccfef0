package explore

import (
	"time"

	"github.com/pkg/errors"

	"lifegraph/internal/telemetry"
	"lifegraph/pkg/core"
	"lifegraph/pkg/graph"
	"lifegraph/pkg/metrics"
	"lifegraph/pkg/rules"
	"lifegraph/pkg/sim"
)

// runner owns one engine and reuses it for every rule a worker handles.
type runner struct {
	opts   Options
	engine *sim.Engine
	seeds  []uint64
}

func (e *Explorer) newRunner() (*runner, error) {
	g, blocks := e.g, 1
	if e.opts.Batch && e.opts.Restarts > 1 {
		rep, err := e.g.Replicate(e.opts.Restarts)
		if err != nil {
			return nil, err
		}
		g, blocks = rep, e.opts.Restarts
	}
	eng, err := sim.NewWithConfig(g, sim.Config{Blocks: blocks, Workers: e.opts.NodeWorkers})
	if err != nil {
		return nil, err
	}
	return &runner{opts: e.opts, engine: eng, seeds: make([]uint64, e.opts.Restarts)}, nil
}

// RestartSeed is the seed of restart r of rule idx. Batched and sequential
// sweeps use the same seeds, so their results agree.
func RestartSeed(base uint64, idx rules.Index, r int) uint64 {
	return core.DeriveSeed(base, uint64(idx), uint64(r))
}

func (r *runner) run(idx rules.Index) (Result, error) {
	began := time.Now()
	rule, err := rules.Decode(idx, r.opts.Degree)
	if err != nil {
		return Result{}, err
	}
	if err := r.engine.SetRule(rule); err != nil {
		return Result{}, err
	}
	defer r.engine.Reset()

	for i := range r.seeds {
		r.seeds[i] = RestartSeed(r.opts.Seed, idx, i)
	}

	var mean metrics.Mean
	var series *metrics.SeriesMean
	if r.opts.Series {
		series = metrics.NewSeriesMean(r.opts.Iterations + 1)
	}

	blocks := r.engine.Blocks()
	for lo := 0; lo < len(r.seeds); lo += blocks {
		summaries, runs, err := r.restarts(r.seeds[lo : lo+blocks])
		if err != nil {
			return Result{}, errors.Wrapf(err, "rule %d (%s) restart %d", idx, rule, lo)
		}
		for b, s := range summaries {
			if err := s.Check(); err != nil {
				telemetry.NonFinite.Inc()
				return Result{}, errors.Wrapf(err, "rule %d (%s) restart %d", idx, rule, lo+b)
			}
			mean.Add(s)
			if series != nil {
				series.Add(runs[b])
			}
		}
	}

	res := Result{Index: idx, Rule: rule.String(), Metrics: mean.Value()}
	if series != nil {
		res.Series = series.Value()
	}
	telemetry.RuleDuration.Observe(time.Since(began).Seconds())
	return res, nil
}

// restarts runs one engine pass with a seed per block and returns each
// block's summary and, in series mode, its per-iteration scalars.
func (r *runner) restarts(seeds []uint64) ([]metrics.Summary, [][]metrics.Scalars, error) {
	eng := r.engine
	if err := eng.Randomize(r.opts.P, seeds...); err != nil {
		return nil, nil, err
	}
	blocks := eng.Blocks()
	size := eng.BlockSize()

	trackers := make([]*metrics.Tracker, blocks)
	for b := range trackers {
		trackers[b] = metrics.NewTracker(size, eng.Alive(b))
	}
	var runs [][]metrics.Scalars
	if r.opts.Series {
		runs = make([][]metrics.Scalars, blocks)
		if err := r.record(runs); err != nil {
			return nil, nil, err
		}
	}

	for it := 0; it < r.opts.Iterations; it++ {
		if err := eng.Step(); err != nil {
			return nil, nil, err
		}
		telemetry.StepsTotal.Inc()
		for b, t := range trackers {
			t.Observe(eng.Alive(b), eng.Changes(b))
		}
		if runs != nil {
			if err := r.record(runs); err != nil {
				return nil, nil, err
			}
		}
	}

	final, err := metrics.ComputeBlocks(eng.Graph(), eng.State(), blocks, r.opts.NodeWorkers)
	if err != nil {
		return nil, nil, err
	}
	out := make([]metrics.Summary, blocks)
	for b := range out {
		out[b] = metrics.Summary{Scalars: final[b].Scalars, Dynamics: trackers[b].Dynamics()}
	}
	return out, runs, nil
}

func (r *runner) record(runs [][]metrics.Scalars) error {
	ms, err := metrics.ComputeBlocks(r.engine.Graph(), r.engine.State(), len(runs), r.opts.NodeWorkers)
	if err != nil {
		return err
	}
	return appendSeries(runs, ms)
}

// appendSeries adds one row per block, rejecting non-finite scalars so no
// series row reaches a sink unchecked.
func appendSeries(runs [][]metrics.Scalars, ms []metrics.Metrics) error {
	for b, m := range ms {
		if err := m.Check(); err != nil {
			telemetry.NonFinite.Inc()
			return errors.Wrapf(err, "block %d iteration %d", b, len(runs[b]))
		}
		runs[b] = append(runs[b], m.Scalars)
	}
	return nil
}

// Trace runs one rule from one seed and returns the metrics of every state
// from the initial one to the last, along with the states themselves when
// keepStates is set.
func Trace(g *graph.Graph, rule rules.Rule, p float64, seed uint64, iterations, workers int, keepStates bool) ([]metrics.Metrics, [][]uint8, error) {
	eng, err := sim.NewWithConfig(g, sim.Config{Blocks: 1, Workers: workers})
	if err != nil {
		return nil, nil, err
	}
	if err := eng.SetRule(rule); err != nil {
		return nil, nil, err
	}
	if err := eng.Randomize(p, seed); err != nil {
		return nil, nil, err
	}

	out := make([]metrics.Metrics, 0, iterations+1)
	var states [][]uint8
	for it := 0; ; it++ {
		m, err := metrics.ComputeBlocks(g, eng.State(), 1, workers)
		if err != nil {
			return nil, nil, err
		}
		if err := m[0].Check(); err != nil {
			return nil, nil, err
		}
		out = append(out, m[0])
		if keepStates {
			states = append(states, append([]uint8(nil), eng.State()...))
		}
		if it == iterations {
			break
		}
		if err := eng.Step(); err != nil {
			return nil, nil, err
		}
	}
	return out, states, nil
}
