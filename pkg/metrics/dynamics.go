package metrics

import (
	"math"

	"github.com/pkg/errors"
)

// Dynamics summarises how a single run evolved over time.
type Dynamics struct {
	// AveragePopulation is the mean alive fraction over the states reached
	// after each step.
	AveragePopulation float64 `json:"avg_pop"`
	// Activity is the number of node flips per node per step.
	Activity float64 `json:"activity"`
	// FinalAlive is the alive fraction of the last state.
	FinalAlive float64 `json:"final_alive"`
}

// Tracker accumulates Dynamics from per-step alive and flip counts.
type Tracker struct {
	nodes  int
	steps  int
	popSum float64
	flips  uint64
	final  uint64
}

// NewTracker starts tracking a run on nodes nodes whose initial state has
// alive live nodes.
func NewTracker(nodes int, alive uint64) *Tracker {
	return &Tracker{nodes: nodes, final: alive}
}

// Observe records the state produced by one step.
func (t *Tracker) Observe(alive, changes uint64) {
	t.steps++
	t.popSum += t.fraction(alive)
	t.flips += changes
	t.final = alive
}

// Steps returns the number of observed steps.
func (t *Tracker) Steps() int { return t.steps }

// Dynamics returns the summary so far. Without any step the average
// population is the initial fraction and activity is zero.
func (t *Tracker) Dynamics() Dynamics {
	d := Dynamics{FinalAlive: t.fraction(t.final)}
	if t.steps == 0 || t.nodes == 0 {
		d.AveragePopulation = d.FinalAlive
		return d
	}
	d.AveragePopulation = t.popSum / float64(t.steps)
	d.Activity = float64(t.flips) / (float64(t.nodes) * float64(t.steps))
	return d
}

func (t *Tracker) fraction(alive uint64) float64 {
	if t.nodes == 0 {
		return 0
	}
	return float64(alive) / float64(t.nodes)
}

// Summary is everything recorded for one restart, or the mean over several.
type Summary struct {
	Scalars
	Dynamics
}

// Names lists the summary fields in table order.
var Names = []string{"rho", "H", "G", "D", "avg_pop", "activity", "final_alive"}

// DynamicsNames are the metrics compared by default when ranking rules.
var DynamicsNames = []string{"avg_pop", "activity", "final_alive"}

// Get returns the named field.
func (s Summary) Get(name string) (float64, bool) {
	switch name {
	case "rho":
		return s.Rho, true
	case "H":
		return s.H, true
	case "G":
		return s.G, true
	case "D":
		return s.D, true
	case "avg_pop":
		return s.AveragePopulation, true
	case "activity":
		return s.Activity, true
	case "final_alive":
		return s.FinalAlive, true
	}
	return 0, false
}

// Map returns the summary keyed by Names.
func (s Summary) Map() map[string]float64 {
	m := make(map[string]float64, len(Names))
	for _, n := range Names {
		m[n], _ = s.Get(n)
	}
	return m
}

// SummaryFromMap is the inverse of Map; missing names stay zero.
func SummaryFromMap(m map[string]float64) Summary {
	return Summary{
		Scalars: Scalars{Rho: m["rho"], H: m["H"], G: m["G"], D: m["D"]},
		Dynamics: Dynamics{
			AveragePopulation: m["avg_pop"],
			Activity:          m["activity"],
			FinalAlive:        m["final_alive"],
		},
	}
}

// Check reports ErrNonFinite if any field is NaN or infinite.
func (s Summary) Check() error {
	for _, n := range Names {
		v, _ := s.Get(n)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrNonFinite, "%s=%v", n, v)
		}
	}
	return nil
}

// Mean averages summaries arithmetically. The order of Add calls does not
// matter beyond floating-point rounding.
type Mean struct {
	n   int
	sum Summary
}

// Add folds one summary into the mean.
func (m *Mean) Add(s Summary) {
	m.n++
	m.sum.Scalars = m.sum.Scalars.Add(s.Scalars)
	m.sum.AveragePopulation += s.AveragePopulation
	m.sum.Activity += s.Activity
	m.sum.FinalAlive += s.FinalAlive
}

// Count returns how many summaries were added.
func (m *Mean) Count() int { return m.n }

// Value returns the mean, or the zero Summary when nothing was added.
func (m *Mean) Value() Summary {
	if m.n == 0 {
		return Summary{}
	}
	f := 1 / float64(m.n)
	return Summary{
		Scalars: m.sum.Scalars.Scale(f),
		Dynamics: Dynamics{
			AveragePopulation: m.sum.AveragePopulation * f,
			Activity:          m.sum.Activity * f,
			FinalAlive:        m.sum.FinalAlive * f,
		},
	}
}

// SeriesMean averages per-iteration scalars across restarts.
type SeriesMean struct {
	n    int
	sums []Scalars
}

// NewSeriesMean prepares a mean over series of the given length.
func NewSeriesMean(length int) *SeriesMean {
	return &SeriesMean{sums: make([]Scalars, length)}
}

// Add folds one restart's series into the mean; series must have the
// length given to NewSeriesMean.
func (m *SeriesMean) Add(series []Scalars) {
	m.n++
	for i := range m.sums {
		m.sums[i] = m.sums[i].Add(series[i])
	}
}

// Value returns the per-iteration mean.
func (m *SeriesMean) Value() []Scalars {
	out := make([]Scalars, len(m.sums))
	if m.n == 0 {
		return out
	}
	f := 1 / float64(m.n)
	for i, s := range m.sums {
		out[i] = s.Scale(f)
	}
	return out
}
