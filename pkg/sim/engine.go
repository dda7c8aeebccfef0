// Package sim advances Life-like automata on arbitrary graphs. An Engine owns
// a double buffer of per-node states; one Step evaluates every node against
// the same unmodified snapshot and then swaps the buffers.
package sim

import (
	"github.com/pkg/errors"

	"lifegraph/pkg/core"
	"lifegraph/pkg/graph"
	"lifegraph/pkg/rules"
)

var (
	ErrUninitialized = errors.New("engine has no initial state")
	ErrNoRule        = errors.New("engine has no rule")
	ErrStateSize     = errors.New("state size does not match graph")
	ErrBlocks        = errors.New("invalid block layout")
	ErrProbability   = errors.New("alive probability outside [0, 1]")
)

// Phase is the engine's lifecycle state.
type Phase uint8

const (
	// Uninitialized engines hold no meaningful state; Step fails.
	Uninitialized Phase = iota
	// Stepping engines hold an authoritative current state.
	Stepping
)

func (p Phase) String() string {
	if p == Stepping {
		return "stepping"
	}
	return "uninitialized"
}

// Config tunes an Engine.
type Config struct {
	// Blocks splits the graph into equally sized, independent node ranges,
	// one per replicated copy (see graph.Graph.Replicate). Per-block
	// statistics and random streams are tracked separately.
	Blocks int
	// Workers bounds the goroutines used per step; <= 0 means all CPUs and
	// 1 keeps the step on the caller's goroutine.
	Workers int
}

// DefaultConfig returns a single-block, single-worker configuration.
func DefaultConfig() Config {
	return Config{Blocks: 1, Workers: 1}
}

// Engine is the synchronous update machine for one graph.
type Engine struct {
	g         *graph.Graph
	blocks    int
	blockSize int
	workers   int

	cur []uint8
	nxt []uint8

	rule rules.Rule
	// lut[state][count] is the next state, padded with zeros up to the
	// graph's max degree so lookups never branch on the rule degree.
	lut [2][]uint8

	phase      Phase
	generation int
	alive      []uint64
	changes    []uint64
	scratch    [][]uint64
}

// New returns an engine for g with the default configuration.
func New(g *graph.Graph) *Engine {
	e, _ := NewWithConfig(g, DefaultConfig())
	return e
}

// NewWithConfig returns an engine for g configured from cfg.
func NewWithConfig(g *graph.Graph, cfg Config) (*Engine, error) {
	if cfg.Blocks <= 0 {
		cfg.Blocks = 1
	}
	n := g.NodeCount()
	if n%cfg.Blocks != 0 {
		return nil, errors.Wrapf(ErrBlocks, "%d nodes in %d blocks", n, cfg.Blocks)
	}
	e := &Engine{
		g:         g,
		blocks:    cfg.Blocks,
		blockSize: n / cfg.Blocks,
		workers:   core.Workers(cfg.Workers),
		cur:       make([]uint8, n),
		nxt:       make([]uint8, n),
		alive:     make([]uint64, cfg.Blocks),
		changes:   make([]uint64, cfg.Blocks),
	}
	for s := range e.lut {
		e.lut[s] = make([]uint8, g.MaxDegree()+1)
	}
	return e, nil
}

// Graph returns the topology the engine runs on.
func (e *Engine) Graph() *graph.Graph { return e.g }

// Blocks returns the number of independent node ranges.
func (e *Engine) Blocks() int { return e.blocks }

// BlockSize returns the node count of each block.
func (e *Engine) BlockSize() int { return e.blockSize }

// Phase reports whether the engine holds an initial state.
func (e *Engine) Phase() Phase { return e.phase }

// Generation returns the number of steps since initialization.
func (e *Engine) Generation() int { return e.generation }

// Rule returns the active rule.
func (e *Engine) Rule() rules.Rule { return e.rule }

// SetRule installs r for subsequent steps. The rule is held for the rest of
// the engine's use; replacing it mid-run is allowed but callers normally
// Reset first.
func (e *Engine) SetRule(r rules.Rule) error {
	if r.IsZero() {
		return ErrNoRule
	}
	e.rule = r
	for k := range e.lut[0] {
		e.lut[0][k] = b2u(r.Birth(k))
		e.lut[1][k] = b2u(r.Survive(k))
	}
	return nil
}

// Reset returns the engine to the uninitialized phase and clears both
// buffers so no state leaks into the next rule or restart.
func (e *Engine) Reset() {
	clear(e.cur)
	clear(e.nxt)
	clear(e.alive)
	clear(e.changes)
	e.generation = 0
	e.phase = Uninitialized
}

// Randomize draws an initial state where each node is alive with
// probability p. Block b draws from the PCG stream seeded by seeds[b], in
// node order, so a block of a replicated graph receives exactly the state a
// standalone run with the same seed would.
func (e *Engine) Randomize(p float64, seeds ...uint64) error {
	if p < 0 || p > 1 {
		return errors.Wrapf(ErrProbability, "p=%v", p)
	}
	if len(seeds) != e.blocks {
		return errors.Wrapf(ErrBlocks, "%d seeds for %d blocks", len(seeds), e.blocks)
	}
	e.Reset()
	for b, seed := range seeds {
		rng := core.NewStreamRNG(seed, 0).Source()
		core.FillBernoulli(rng, e.block(e.cur, b), p)
	}
	e.start()
	return nil
}

// Load installs an explicit initial state (0 dead, non-zero alive).
func (e *Engine) Load(state []uint8) error {
	if len(state) != len(e.cur) {
		return errors.Wrapf(ErrStateSize, "got %d want %d", len(state), len(e.cur))
	}
	e.Reset()
	for i, s := range state {
		e.cur[i] = b2u(s != 0)
	}
	e.start()
	return nil
}

func (e *Engine) start() {
	for b := 0; b < e.blocks; b++ {
		e.alive[b] = countAlive(e.block(e.cur, b))
	}
	e.phase = Stepping
}

// Step advances every node by one synchronous generation. All transitions
// read the current buffer only; the swap happens after every partition has
// finished, so no node ever observes a mix of two generations.
func (e *Engine) Step() error {
	if e.phase != Stepping {
		return ErrUninitialized
	}
	if e.rule.IsZero() {
		return ErrNoRule
	}

	spans := core.Partition(len(e.cur), e.workers)
	if len(e.scratch) < len(spans) {
		e.scratch = make([][]uint64, len(spans))
	}
	for i := range spans {
		if len(e.scratch[i]) != 2*e.blocks {
			e.scratch[i] = make([]uint64, 2*e.blocks)
		}
		clear(e.scratch[i])
	}

	core.ParallelFor(len(e.cur), e.workers, func(part int, span core.Span) {
		e.stepSpan(span, e.scratch[part])
	})

	clear(e.alive)
	clear(e.changes)
	for _, local := range e.scratch[:len(spans)] {
		for b := 0; b < e.blocks; b++ {
			e.alive[b] += local[2*b]
			e.changes[b] += local[2*b+1]
		}
	}

	e.cur, e.nxt = e.nxt, e.cur
	e.generation++
	return nil
}

func (e *Engine) stepSpan(span core.Span, local []uint64) {
	cur, nxt := e.cur, e.nxt
	for v := span.Lo; v < span.Hi; v++ {
		live := 0
		for _, u := range e.g.Neighbors(v) {
			live += int(cur[u])
		}
		s := cur[v]
		next := e.lut[s][live]
		nxt[v] = next
		b := v / e.blockSize
		local[2*b] += uint64(next)
		local[2*b+1] += uint64(next ^ s)
	}
}

// Run advances the engine by n steps.
func (e *Engine) Run(n int) error {
	for i := 0; i < n; i++ {
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// State exposes the current buffer. It is only valid until the next Step.
func (e *Engine) State() []uint8 { return e.cur }

// BlockState exposes block b of the current buffer.
func (e *Engine) BlockState(b int) []uint8 { return e.block(e.cur, b) }

// Alive returns the live-node count of block b in the current state.
func (e *Engine) Alive(b int) uint64 { return e.alive[b] }

// Changes returns how many nodes of block b flipped in the last step.
func (e *Engine) Changes(b int) uint64 { return e.changes[b] }

func (e *Engine) block(buf []uint8, b int) []uint8 {
	return buf[b*e.blockSize : (b+1)*e.blockSize]
}

func countAlive(buf []uint8) uint64 {
	var n uint64
	for _, s := range buf {
		n += uint64(s)
	}
	return n
}

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
