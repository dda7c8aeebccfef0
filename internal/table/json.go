package table

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"lifegraph/internal/explore"
	"lifegraph/pkg/metrics"
	"lifegraph/pkg/rules"
)

// RunReport is the JSON output of a single-rule run. Every slice holds one
// entry per recorded state, the initial one included.
type RunReport struct {
	Rule               string    `json:"rule"`
	RuleIndex          uint64    `json:"rule_index"`
	Density            []float64 `json:"density"`
	MarginalEntropy    []float64 `json:"marginal_entropy"`
	ConditionalEntropy []float64 `json:"conditional_entropy"`
	Complexity         []float64 `json:"complexity"`
	AliveCounts        []uint64  `json:"alive_counts"`
	States             [][]int   `json:"states,omitempty"`
}

// NewRunReport collects per-state metrics, and the states if given, into a
// report.
func NewRunReport(r rules.Rule, ms []metrics.Metrics, states [][]uint8) RunReport {
	rep := RunReport{
		Rule:               r.String(),
		RuleIndex:          uint64(r.Encode()),
		Density:            make([]float64, len(ms)),
		MarginalEntropy:    make([]float64, len(ms)),
		ConditionalEntropy: make([]float64, len(ms)),
		Complexity:         make([]float64, len(ms)),
		AliveCounts:        make([]uint64, len(ms)),
	}
	for i, m := range ms {
		rep.Density[i] = m.Rho
		rep.MarginalEntropy[i] = m.H
		rep.ConditionalEntropy[i] = m.G
		rep.Complexity[i] = m.D
		rep.AliveCounts[i] = m.Alive
	}
	if states != nil {
		rep.States = make([][]int, len(states))
		for i, s := range states {
			row := make([]int, len(s))
			for j, v := range s {
				row[j] = int(v)
			}
			rep.States[i] = row
		}
	}
	return rep
}

// Encode writes the report as indented JSON.
func (r RunReport) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// StateMatrix is a sequence of states, one row per iteration, as read by
// the transition checker.
type StateMatrix [][]uint8

// DecodeStates reads either a bare [[0,1,...],...] matrix or a run report
// carrying "states".
func DecodeStates(r io.Reader) (StateMatrix, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode states")
	}
	var rows [][]int
	if err := json.Unmarshal(raw, &rows); err != nil {
		var rep RunReport
		if err := json.Unmarshal(raw, &rep); err != nil {
			return nil, errors.Wrap(err, "decode states")
		}
		rows = rep.States
	}
	out := make(StateMatrix, len(rows))
	for i, row := range rows {
		out[i] = make([]uint8, len(row))
		for j, v := range row {
			if v != 0 {
				out[i][j] = 1
			}
		}
	}
	return out, nil
}

// RuleTable is the JSON rule table consumed by nearest-rule queries.
type RuleTable struct {
	MaxNeighbors int         `json:"max_neighbors"`
	Rules        []RuleEntry `json:"rules"`
}

// RuleEntry is one row of a RuleTable.
type RuleEntry struct {
	RuleIndex   uint64             `json:"rule_index"`
	RuleFormat  string             `json:"rule_format"`
	RuleMetrics map[string]float64 `json:"rule_metrics"`
}

// NewRuleTable converts sweep results into a rule table.
func NewRuleTable(degree int, results []explore.Result) RuleTable {
	t := RuleTable{MaxNeighbors: degree, Rules: make([]RuleEntry, len(results))}
	for i, r := range results {
		t.Rules[i] = RuleEntry{
			RuleIndex:   uint64(r.Index),
			RuleFormat:  r.Rule,
			RuleMetrics: r.Metrics.Map(),
		}
	}
	return t
}

// Results converts the table back into sweep results, in table order.
func (t RuleTable) Results() []explore.Result {
	out := make([]explore.Result, len(t.Rules))
	for i, e := range t.Rules {
		out[i] = explore.Result{
			Index:   rules.Index(e.RuleIndex),
			Rule:    e.RuleFormat,
			Metrics: metrics.SummaryFromMap(e.RuleMetrics),
		}
	}
	return out
}

// Encode writes the table as indented JSON.
func (t RuleTable) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// DecodeRuleTable reads a rule table.
func DecodeRuleTable(r io.Reader) (RuleTable, error) {
	var t RuleTable
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return t, errors.Wrap(err, "decode rule table")
	}
	return t, nil
}
