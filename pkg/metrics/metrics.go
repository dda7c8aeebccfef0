// Package metrics measures the spatial structure of an automaton state on a
// graph: density, marginal entropy of the alive indicator, entropy of a node
// conditioned on one neighbor, and their difference as a complexity score.
package metrics

import (
	"math"

	"github.com/pkg/errors"

	"lifegraph/pkg/core"
	"lifegraph/pkg/graph"
)

var (
	ErrNonFinite = errors.New("non-finite metric")
	ErrStateSize = errors.New("state size does not match graph")
	ErrBlocks    = errors.New("invalid block layout")
)

// Histogram bins count directed edges (v, u) by state(v)*2 + state(u).
const (
	Bin00 = iota
	Bin01
	Bin10
	Bin11
)

// Scalars is the per-state metric tuple.
type Scalars struct {
	Rho float64 `json:"rho"`
	H   float64 `json:"H"`
	G   float64 `json:"G"`
	D   float64 `json:"D"`
}

// Check reports ErrNonFinite if any component is NaN or infinite.
func (s Scalars) Check() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"rho", s.Rho}, {"H", s.H}, {"G", s.G}, {"D", s.D}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return errors.Wrapf(ErrNonFinite, "%s=%v", f.name, f.v)
		}
	}
	return nil
}

// Add returns the component-wise sum.
func (s Scalars) Add(o Scalars) Scalars {
	return Scalars{Rho: s.Rho + o.Rho, H: s.H + o.H, G: s.G + o.G, D: s.D + o.D}
}

// Scale multiplies every component by f.
func (s Scalars) Scale(f float64) Scalars {
	return Scalars{Rho: s.Rho * f, H: s.H * f, G: s.G * f, D: s.D * f}
}

// Metrics carries the scalars together with the raw counts they came from.
type Metrics struct {
	Scalars
	Alive     uint64
	Nodes     int
	Histogram [4]uint64
}

// FromCounts derives the scalar tuple from an alive count and a joint
// histogram.
func FromCounts(alive uint64, nodes int, hist [4]uint64) Metrics {
	m := Metrics{Alive: alive, Nodes: nodes, Histogram: hist}
	if nodes > 0 {
		m.Rho = float64(alive) / float64(nodes)
	}
	if alive > 0 && alive < uint64(nodes) {
		m.H = MarginalEntropy(m.Rho)
	}
	m.G = ConditionalEntropy(hist)
	m.D = Complexity(m.H, m.G)
	return m
}

// MarginalEntropy is the binary Shannon entropy of rho in bits. It is zero
// at (and within 1e-12 of) both ends.
func MarginalEntropy(rho float64) float64 {
	const eps = 1e-12
	if rho <= eps || rho >= 1-eps {
		return 0
	}
	return -(rho*math.Log2(rho) + (1-rho)*math.Log2(1-rho))
}

// ConditionalEntropy returns H(S | neighbor state) from a joint histogram
// over directed edges. An empty histogram yields zero.
func ConditionalEntropy(hist [4]uint64) float64 {
	total := hist[Bin00] + hist[Bin01] + hist[Bin10] + hist[Bin11]
	if total == 0 {
		return 0
	}
	t := float64(total)
	var p [4]float64
	for i, c := range hist {
		p[i] = float64(c) / t
	}
	// Marginals over the neighbor's state x.
	pu := [2]float64{p[Bin00] + p[Bin10], p[Bin01] + p[Bin11]}

	g := 0.0
	for bin, psx := range p {
		x := bin & 1
		if psx <= 0 || pu[x] <= 0 {
			continue
		}
		g -= psx * math.Log2(psx/pu[x])
	}
	return g
}

// Complexity is max(0, h-g).
func Complexity(h, g float64) float64 {
	return math.Max(0, h-g)
}

// Compute measures a whole state on g.
func Compute(g *graph.Graph, state []uint8) (Metrics, error) {
	ms, err := ComputeBlocks(g, state, 1, 1)
	if err != nil {
		return Metrics{}, err
	}
	return ms[0], nil
}

// ComputeBlocks measures each of blocks equally sized node ranges of state
// separately, for replicated graphs whose copies share no edges. The alive
// counts and histograms are accumulated per partition and merged afterwards.
func ComputeBlocks(g *graph.Graph, state []uint8, blocks, workers int) ([]Metrics, error) {
	n := g.NodeCount()
	if len(state) != n {
		return nil, errors.Wrapf(ErrStateSize, "got %d want %d", len(state), n)
	}
	if blocks <= 0 || n%blocks != 0 {
		return nil, errors.Wrapf(ErrBlocks, "%d nodes in %d blocks", n, blocks)
	}
	blockSize := n / blocks
	workers = core.Workers(workers)

	type partial struct {
		alive []uint64
		hist  [][4]uint64
	}
	spans := core.Partition(n, workers)
	parts := make([]partial, len(spans))
	for i := range parts {
		parts[i] = partial{alive: make([]uint64, blocks), hist: make([][4]uint64, blocks)}
	}

	core.ParallelFor(n, workers, func(part int, span core.Span) {
		local := &parts[part]
		for v := span.Lo; v < span.Hi; v++ {
			b := v / blockSize
			sv := state[v] & 1
			local.alive[b] += uint64(sv)
			h := &local.hist[b]
			for _, u := range g.Neighbors(v) {
				h[sv<<1|state[u]&1]++
			}
		}
	})

	out := make([]Metrics, blocks)
	for b := range out {
		var alive uint64
		var hist [4]uint64
		for _, p := range parts {
			alive += p.alive[b]
			for i := range hist {
				hist[i] += p.hist[b][i]
			}
		}
		out[b] = FromCounts(alive, blockSize, hist)
	}
	return out, nil
}
