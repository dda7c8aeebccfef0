package rules

import (
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
)

// Enumeration is an ordered, random-access sequence of rule indices. A sweep
// can resume from any position.
type Enumeration interface {
	Len() int
	At(pos int) Index
	Degree() int
}

type fullSpace struct{ d int }

// FullSpace enumerates every index of the degree-d rule space in ascending order.
func FullSpace(d int) (Enumeration, error) {
	if err := checkDegree(d); err != nil {
		return nil, err
	}
	return fullSpace{d: d}, nil
}

func (f fullSpace) Len() int         { return int(SpaceSize(f.d)) }
func (f fullSpace) At(pos int) Index { return Index(pos) }
func (f fullSpace) Degree() int      { return f.d }

type subset struct {
	d       int
	indices []Index
}

// Subset enumerates the rules whose birth counts are a subset of birthDigits
// and whose survival counts are a subset of surviveDigits: the powerset of
// each digit string crossed pairwise. Useful to probe the neighborhood of a
// known rule (e.g. Subset("36", "238", 8) around B3/S23). Indices come out
// ascending and de-duplicated.
func Subset(birthDigits, surviveDigits string, d int) (Enumeration, error) {
	if err := checkDegree(d); err != nil {
		return nil, err
	}
	birth, err := ParseDigits(birthDigits)
	if err != nil {
		return nil, err
	}
	survive, err := ParseDigits(surviveDigits)
	if err != nil {
		return nil, err
	}

	set := treeset.NewWith(utils.UInt64Comparator)
	for _, b := range powerset(birth) {
		for _, s := range powerset(survive) {
			r, err := FromCounts(b, s, d)
			if err != nil {
				return nil, err
			}
			set.Add(uint64(r.Encode()))
		}
	}
	out := subset{d: d, indices: make([]Index, 0, set.Size())}
	for _, v := range set.Values() {
		out.indices = append(out.indices, Index(v.(uint64)))
	}
	return out, nil
}

func (s subset) Len() int         { return len(s.indices) }
func (s subset) At(pos int) Index { return s.indices[pos] }
func (s subset) Degree() int      { return s.d }

func powerset(items []int) [][]int {
	sets := [][]int{{}}
	for _, it := range items {
		for _, prev := range sets[:len(sets):len(sets)] {
			next := append(append([]int(nil), prev...), it)
			sets = append(sets, next)
		}
	}
	return sets
}
