package sim

import (
	"fmt"

	"github.com/pkg/errors"

	"lifegraph/pkg/graph"
	"lifegraph/pkg/rules"
)

// Mismatch describes a node whose recorded next state disagrees with the rule.
type Mismatch struct {
	Node      int
	Alive     bool
	Neighbors int
	Want      bool
	Got       bool
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("node %d (alive=%v) with %d live neighbors should be %v, got %v",
		m.Node, m.Alive, m.Neighbors, m.Want, m.Got)
}

// Verify checks that next is the synchronous successor of prev under r. It
// returns a *Mismatch for the first offending node.
func Verify(g *graph.Graph, r rules.Rule, prev, next []uint8) error {
	n := g.NodeCount()
	if len(prev) != n || len(next) != n {
		return errors.Wrapf(ErrStateSize, "prev=%d next=%d nodes=%d", len(prev), len(next), n)
	}
	for v := 0; v < n; v++ {
		live := 0
		for _, u := range g.Neighbors(v) {
			if prev[u] != 0 {
				live++
			}
		}
		alive := prev[v] != 0
		want := r.Next(alive, live)
		if got := next[v] != 0; got != want {
			return &Mismatch{Node: v, Alive: alive, Neighbors: live, Want: want, Got: got}
		}
	}
	return nil
}
