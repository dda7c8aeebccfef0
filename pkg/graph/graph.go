// Package graph holds the immutable adjacency structure that cellular
// automata are evaluated on. A regular grid is just a graph whose edges are
// generated algorithmically (see Torus and Bounded).
package graph

import (
	"github.com/pkg/errors"
)

var (
	ErrNodeCount       = errors.New("invalid node count")
	ErrNodeOutOfRange  = errors.New("edge endpoint out of range")
	ErrSelfLoop        = errors.New("self-loop edge")
	ErrMissingField    = errors.New("missing field in graph description")
	ErrReplicaCount    = errors.New("invalid replica count")
	ErrLatticeTooSmall = errors.New("lattice dimensions too small")
)

// Edge is an undirected connection between two nodes. Type is informational
// (e.g. "side" or "diagonal") and does not affect dynamics.
type Edge struct {
	Source int
	Target int
	Type   string
}

// Graph is a compressed adjacency list. Neighbor order follows edge-list
// order and duplicate edges are kept, so a node may list a neighbor twice.
type Graph struct {
	n         int
	offsets   []int
	targets   []int32
	maxDegree int
}

// New builds a graph with n nodes from an undirected edge list. For every
// edge both endpoints list each other. Malformed edges fail the whole build.
func New(n int, edges []Edge) (*Graph, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrNodeCount, "n=%d", n)
	}
	degree := make([]int, n)
	for i, e := range edges {
		if e.Source < 0 || e.Source >= n || e.Target < 0 || e.Target >= n {
			return nil, errors.Wrapf(ErrNodeOutOfRange, "edge %d (%d-%d) with n=%d", i, e.Source, e.Target, n)
		}
		if e.Source == e.Target {
			return nil, errors.Wrapf(ErrSelfLoop, "edge %d on node %d", i, e.Source)
		}
		degree[e.Source]++
		degree[e.Target]++
	}

	g := &Graph{n: n, offsets: make([]int, n+1)}
	for v, d := range degree {
		g.offsets[v+1] = g.offsets[v] + d
		g.maxDegree = max(g.maxDegree, d)
	}
	g.targets = make([]int32, g.offsets[n])
	cursor := append([]int(nil), g.offsets[:n]...)
	for _, e := range edges {
		g.targets[cursor[e.Source]] = int32(e.Target)
		cursor[e.Source]++
		g.targets[cursor[e.Target]] = int32(e.Source)
		cursor[e.Target]++
	}
	return g, nil
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return g.n }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int { return len(g.targets) / 2 }

// DirectedEdgeCount returns the number of (node, neighbor) pairs, i.e. twice
// the undirected edge count.
func (g *Graph) DirectedEdgeCount() int { return len(g.targets) }

// MaxDegree returns the longest neighbor list length.
func (g *Graph) MaxDegree() int { return g.maxDegree }

// Degree returns the neighbor list length of v.
func (g *Graph) Degree(v int) int { return g.offsets[v+1] - g.offsets[v] }

// Neighbors returns the neighbor list of v. The slice aliases internal
// storage and must not be modified.
func (g *Graph) Neighbors(v int) []int32 {
	return g.targets[g.offsets[v]:g.offsets[v+1]]
}

// Edges reconstructs an undirected edge list equivalent to the graph: each
// pair is reported once from its lower-numbered endpoint. Edge types are not
// retained by the graph and come back empty.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.EdgeCount())
	for v := 0; v < g.n; v++ {
		for _, u := range g.Neighbors(v) {
			if int(u) > v {
				edges = append(edges, Edge{Source: v, Target: int(u)})
			}
		}
	}
	return edges
}

// Replicate packs k independent copies of g into one graph. Copy c occupies
// nodes [c*n, (c+1)*n) and no edge crosses between copies, so a single
// synchronous pass advances k simulations that never interact.
func (g *Graph) Replicate(k int) (*Graph, error) {
	if k <= 0 {
		return nil, errors.Wrapf(ErrReplicaCount, "k=%d", k)
	}
	if k == 1 {
		return g, nil
	}
	n := g.n
	r := &Graph{
		n:         k * n,
		offsets:   make([]int, k*n+1),
		targets:   make([]int32, k*len(g.targets)),
		maxDegree: g.maxDegree,
	}
	for c := 0; c < k; c++ {
		nodeShift := c * n
		slotShift := c * len(g.targets)
		for v := 0; v < n; v++ {
			r.offsets[nodeShift+v+1] = slotShift + g.offsets[v+1]
		}
		for i, u := range g.targets {
			r.targets[slotShift+i] = u + int32(nodeShift)
		}
	}
	return r, nil
}
