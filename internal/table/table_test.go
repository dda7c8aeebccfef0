package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifegraph/internal/explore"
	"lifegraph/pkg/metrics"
	"lifegraph/pkg/rules"
)

func sample(idx rules.Index, rule string) explore.Result {
	return explore.Result{
		Index: idx,
		Rule:  rule,
		Metrics: metrics.Summary{
			Scalars:  metrics.Scalars{Rho: 0.25, H: 0.811, G: 0.5, D: 0.311},
			Dynamics: metrics.Dynamics{AveragePopulation: 0.3, Activity: 0.05, FinalAlive: 0.25},
		},
	}
}

func TestFinalModeCSV(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewSweepWriter(&buf, false, true)
	require.NoError(t, err)
	require.NoError(t, w.Write(sample(6152, "B3/S23")))
	require.NoError(t, w.Write(sample(0, "B/S")))
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "rule,rulestr,rho,H,G,D,avg_pop,activity,final_alive", lines[0])
	assert.Equal(t, "6152,B3/S23,0.25,0.811,0.5,0.311,0.3,0.05,0.25", lines[1])

	back, err := ReadSweep(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, []explore.Result{sample(6152, "B3/S23"), sample(0, "B/S")}, back)
}

func TestSeriesModeCSV(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewSweepWriter(&buf, true, true)
	require.NoError(t, err)
	r := sample(6152, "B3/S23")
	r.Series = []metrics.Scalars{{Rho: 0.5, H: 1}, {Rho: 0.25, H: 0.811, G: 0.5, D: 0.311}}
	require.NoError(t, w.Write(r))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "rule,rulestr,iter,rho,H,G,D", lines[0])
	assert.Equal(t, "6152,B3/S23,0,0.5,1,0,0", lines[1])
	assert.Equal(t, "6152,B3/S23,1,0.25,0.811,0.5,0.311", lines[2])

	err = w.Write(sample(1, "B0/S"))
	assert.True(t, errors.Is(err, ErrSeries))
}

func TestSweepFileAppendsWithoutSecondHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.csv")
	for _, idx := range []rules.Index{1, 2} {
		w, err := OpenSweepFile(path, false)
		require.NoError(t, err)
		require.NoError(t, w.Write(sample(idx, "B/S")))
		require.NoError(t, w.Close())
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "rule,rulestr"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rs, err := ReadSweep(f)
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, rules.Index(2), rs[1].Index)
}

func TestReadSweepKeepsLastRowPerRule(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewSweepWriter(&buf, false, true)
	require.NoError(t, err)
	require.NoError(t, w.Write(sample(4, "B2/S")))
	require.NoError(t, w.Write(sample(5, "B02/S")))
	again := sample(4, "B2/S")
	again.Metrics.Rho = 0.75
	require.NoError(t, w.Write(again))

	rs, err := ReadSweep(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, rules.Index(4), rs[0].Index)
	assert.Equal(t, 0.75, rs[0].Metrics.Rho)
	assert.Equal(t, rules.Index(5), rs[1].Index)
}

func TestReadSweepRejectsBadInput(t *testing.T) {
	_, err := ReadSweep(strings.NewReader("a,b,c,d,e,f,g,h,i\n"))
	assert.True(t, errors.Is(err, ErrHeader))

	_, err = ReadSweep(strings.NewReader(strings.Join(FinalHeader, ",") + "\nx,B/S,0,0,0,0,0,0,0\n"))
	assert.True(t, errors.Is(err, ErrRow))

	rs, err := ReadSweep(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestRunReport(t *testing.T) {
	life, err := rules.Life(8)
	require.NoError(t, err)
	ms := []metrics.Metrics{
		metrics.FromCounts(3, 9, [4]uint64{24, 12, 12, 24}),
		metrics.FromCounts(9, 9, [4]uint64{0, 0, 0, 72}),
	}
	rep := NewRunReport(life, ms, [][]uint8{{0, 1, 0, 0, 1, 0, 0, 1, 0}, {1, 1, 1, 1, 1, 1, 1, 1, 1}})
	var buf bytes.Buffer
	require.NoError(t, rep.Encode(&buf))
	out := buf.String()
	for _, key := range []string{`"density"`, `"marginal_entropy"`, `"conditional_entropy"`, `"complexity"`, `"alive_counts"`, `"states"`} {
		assert.Contains(t, out, key)
	}
	assert.Equal(t, []uint64{3, 9}, rep.AliveCounts)
	assert.Equal(t, 1.0, rep.Density[1])

	states, err := DecodeStates(&buf)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, []uint8{0, 1, 0, 0, 1, 0, 0, 1, 0}, states[0])

	bare, err := DecodeStates(strings.NewReader("[[0,2],[1,0]]"))
	require.NoError(t, err)
	assert.Equal(t, StateMatrix{{0, 1}, {1, 0}}, bare)
}

func TestRuleTableRoundTrip(t *testing.T) {
	results := []explore.Result{sample(6152, "B3/S23"), sample(4, "B2/S")}
	tbl := NewRuleTable(8, results)
	var buf bytes.Buffer
	require.NoError(t, tbl.Encode(&buf))
	assert.Contains(t, buf.String(), `"max_neighbors": 8`)
	assert.Contains(t, buf.String(), `"rule_format": "B3/S23"`)

	back, err := DecodeRuleTable(&buf)
	require.NoError(t, err)
	assert.Equal(t, 8, back.MaxNeighbors)
	assert.Equal(t, results, back.Results())
}
