// Package nearest ranks the rules of a result table by how close their
// metrics are to those of a reference rule.
package nearest

import (
	"math"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/pkg/errors"

	"lifegraph/internal/explore"
	"lifegraph/pkg/metrics"
	"lifegraph/pkg/rules"
)

var (
	ErrReference = errors.New("reference rule not in table")
	ErrMetric    = errors.New("unknown metric")
)

// Combined names the ranking on Euclidean distance over all chosen metrics.
const Combined = "combined"

// Match is one ranked rule.
type Match struct {
	Result explore.Result
	// Position is the rule's row in the input table.
	Position int
	// Distance is the absolute difference for a per-metric ranking, or the
	// Euclidean distance for the combined one.
	Distance float64
}

// Ranking is the closest rules by one criterion, nearest first.
type Ranking struct {
	Metric  string
	Matches []Match
}

// Report holds every ranking for one query.
type Report struct {
	Reference explore.Result
	PerMetric []Ranking
	Combined  Ranking
}

type key struct {
	dist float64
	pos  int
}

func compareKeys(a, b interface{}) int {
	ka, kb := a.(key), b.(key)
	switch {
	case ka.dist < kb.dist:
		return -1
	case ka.dist > kb.dist:
		return 1
	case ka.pos < kb.pos:
		return -1
	case ka.pos > kb.pos:
		return 1
	}
	return 0
}

// topN keeps the n smallest keys; ties resolve to the earlier table row.
type topN struct {
	n    int
	tree *redblacktree.Tree
}

func newTopN(n int) *topN {
	return &topN{n: n, tree: redblacktree.NewWith(compareKeys)}
}

func (t *topN) offer(k key) {
	t.tree.Put(k, nil)
	if t.n > 0 && t.tree.Size() > t.n {
		t.tree.Remove(t.tree.Right().Key)
	}
}

func (t *topN) matches(results []explore.Result) []Match {
	out := make([]Match, 0, t.tree.Size())
	it := t.tree.Iterator()
	for it.Next() {
		k := it.Key().(key)
		out = append(out, Match{Result: results[k.pos], Position: k.pos, Distance: k.dist})
	}
	return out
}

// Find ranks every rule except the reference against it. Each name in
// names gets its own ranking by absolute difference, and Combined ranks by
// Euclidean distance over all of them. n <= 0 keeps every rule. Empty names
// default to metrics.DynamicsNames.
func Find(results []explore.Result, ref rules.Index, names []string, n int) (Report, error) {
	if len(names) == 0 {
		names = metrics.DynamicsNames
	}
	for _, name := range names {
		if _, ok := (metrics.Summary{}).Get(name); !ok {
			return Report{}, errors.Wrapf(ErrMetric, "%q", name)
		}
	}

	refPos := -1
	for i, r := range results {
		if r.Index == ref {
			refPos = i
			break
		}
	}
	if refPos < 0 {
		return Report{}, errors.Wrapf(ErrReference, "rule %d", ref)
	}
	reference := results[refPos]

	refVals := make([]float64, len(names))
	for j, name := range names {
		refVals[j], _ = reference.Metrics.Get(name)
	}

	per := make([]*topN, len(names))
	for j := range per {
		per[j] = newTopN(n)
	}
	combined := newTopN(n)

	for i, r := range results {
		if i == refPos || r.Index == ref {
			continue
		}
		sq := 0.0
		for j, name := range names {
			v, _ := r.Metrics.Get(name)
			d := math.Abs(v - refVals[j])
			per[j].offer(key{dist: d, pos: i})
			sq += d * d
		}
		combined.offer(key{dist: math.Sqrt(sq), pos: i})
	}

	rep := Report{Reference: reference, PerMetric: make([]Ranking, len(names))}
	for j, name := range names {
		rep.PerMetric[j] = Ranking{Metric: name, Matches: per[j].matches(results)}
	}
	rep.Combined = Ranking{Metric: Combined, Matches: combined.matches(results)}
	return rep, nil
}
