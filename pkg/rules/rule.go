// Package rules encodes Life-like birth/survival predicates indexed by
// live-neighbor count, generalized to graphs of arbitrary degree.
//
// For a working maximum neighbor count D, bit k (0 <= k <= D) of a rule index
// sets Birth[k] and bit D+1+k sets Survive[k], so there are 2^(2(D+1)) rules.
// Conway's Game of Life, B3/S23 at D = 8, is index 6152.
package rules

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MaxDegreeCeiling bounds the working neighbor count so the rule space stays
// enumerable (2^18 rules at the ceiling).
const MaxDegreeCeiling = 8

var (
	ErrDegree     = errors.New("neighbor degree outside [0, ceiling]")
	ErrIndexRange = errors.New("rule index outside rule space")
	ErrLength     = errors.New("birth/survive length mismatch")
	ErrSyntax     = errors.New("malformed rule string")
)

// Index addresses one rule within the space for a given degree.
type Index uint64

// Rule is an immutable birth/survival predicate pair of length D+1.
type Rule struct {
	birth   []bool
	survive []bool
}

// Degree clamps a graph's maximum degree to the working neighbor count: the
// smaller of maxDegree, limit and MaxDegreeCeiling. A negative limit means
// no extra limit; zero is a real clamp to D = 0.
func Degree(maxDegree, limit int) int {
	d := min(maxDegree, MaxDegreeCeiling)
	if limit >= 0 {
		d = min(d, limit)
	}
	return max(d, 0)
}

// SpaceSize returns the number of rule indices for degree d.
func SpaceSize(d int) uint64 { return 1 << (2 * (d + 1)) }

func checkDegree(d int) error {
	if d < 0 || d > MaxDegreeCeiling {
		return errors.Wrapf(ErrDegree, "d=%d", d)
	}
	return nil
}

// New builds a rule from explicit birth/survive tables. The slices are copied.
func New(birth, survive []bool) (Rule, error) {
	if len(birth) != len(survive) || len(birth) == 0 {
		return Rule{}, errors.Wrapf(ErrLength, "birth=%d survive=%d", len(birth), len(survive))
	}
	if err := checkDegree(len(birth) - 1); err != nil {
		return Rule{}, err
	}
	return Rule{
		birth:   append([]bool(nil), birth...),
		survive: append([]bool(nil), survive...),
	}, nil
}

// FromCounts builds a degree-d rule from neighbor counts.
func FromCounts(birth, survive []int, d int) (Rule, error) {
	if err := checkDegree(d); err != nil {
		return Rule{}, err
	}
	r := Rule{birth: make([]bool, d+1), survive: make([]bool, d+1)}
	for _, k := range birth {
		if k < 0 || k > d {
			return Rule{}, errors.Wrapf(ErrSyntax, "birth count %d exceeds degree %d", k, d)
		}
		r.birth[k] = true
	}
	for _, k := range survive {
		if k < 0 || k > d {
			return Rule{}, errors.Wrapf(ErrSyntax, "survive count %d exceeds degree %d", k, d)
		}
		r.survive[k] = true
	}
	return r, nil
}

// Decode expands index i into a degree-d rule. Indices outside the rule space
// are rejected before any bit is read.
func Decode(i Index, d int) (Rule, error) {
	if err := checkDegree(d); err != nil {
		return Rule{}, err
	}
	if uint64(i) >= SpaceSize(d) {
		return Rule{}, errors.Wrapf(ErrIndexRange, "index %d with d=%d (size %d)", i, d, SpaceSize(d))
	}
	r := Rule{birth: make([]bool, d+1), survive: make([]bool, d+1)}
	for k := 0; k <= d; k++ {
		r.birth[k] = i&(1<<k) != 0
		r.survive[k] = i&(1<<(d+1+k)) != 0
	}
	return r, nil
}

// Encode returns the index of r; Decode(r.Encode(), r.Degree()) == r.
func (r Rule) Encode() Index {
	d := r.Degree()
	var i Index
	for k := 0; k <= d; k++ {
		if r.birth[k] {
			i |= 1 << k
		}
		if r.survive[k] {
			i |= 1 << (d + 1 + k)
		}
	}
	return i
}

// Degree returns D, the largest neighbor count the rule addresses.
func (r Rule) Degree() int { return len(r.birth) - 1 }

// IsZero reports whether r is the zero value (no tables).
func (r Rule) IsZero() bool { return len(r.birth) == 0 }

// Birth reports whether a dead node with k live neighbors is born. Counts
// above the degree never match.
func (r Rule) Birth(k int) bool { return k >= 0 && k < len(r.birth) && r.birth[k] }

// Survive reports whether a live node with k live neighbors stays alive.
func (r Rule) Survive(k int) bool { return k >= 0 && k < len(r.survive) && r.survive[k] }

// Next returns the next state of a node given its state and live-neighbor count.
func (r Rule) Next(alive bool, k int) bool {
	if alive {
		return r.Survive(k)
	}
	return r.Birth(k)
}

// BirthTable returns a copy of the birth table.
func (r Rule) BirthTable() []bool { return append([]bool(nil), r.birth...) }

// SurviveTable returns a copy of the survival table.
func (r Rule) SurviveTable() []bool { return append([]bool(nil), r.survive...) }

// Equal reports whether two rules have identical tables.
func (r Rule) Equal(o Rule) bool {
	if len(r.birth) != len(o.birth) {
		return false
	}
	for k := range r.birth {
		if r.birth[k] != o.birth[k] || r.survive[k] != o.survive[k] {
			return false
		}
	}
	return true
}

// String renders the canonical B<digits>/S<digits> form, e.g. "B3/S23".
func (r Rule) String() string {
	var sb strings.Builder
	sb.WriteByte('B')
	writeCounts(&sb, r.birth)
	sb.WriteString("/S")
	writeCounts(&sb, r.survive)
	return sb.String()
}

func writeCounts(sb *strings.Builder, table []bool) {
	for k, set := range table {
		if set {
			sb.WriteString(strconv.Itoa(k))
		}
	}
}

// Life returns Conway's Game of Life (B3/S23) at degree d.
func Life(d int) (Rule, error) {
	return FromCounts([]int{3}, []int{2, 3}, d)
}
