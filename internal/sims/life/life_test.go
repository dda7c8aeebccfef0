package life

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifegraph/internal/core"
	"lifegraph/pkg/rules"
)

func load(t *testing.T, l *Life, alive ...[2]int) {
	t.Helper()
	w := l.Size().W
	state := make([]uint8, len(l.Cells()))
	for _, c := range alive {
		state[c[1]*w+c[0]] = 1
	}
	require.NoError(t, l.engine.Load(state))
	l.measure()
}

func aliveSet(l *Life) map[[2]int]bool {
	w := l.Size().W
	out := map[[2]int]bool{}
	for i, c := range l.Cells() {
		if c != 0 {
			out[[2]int{i % w, i / w}] = true
		}
	}
	return out
}

func TestBlinkerOscillation(t *testing.T) {
	l, err := New(5, 5)
	require.NoError(t, err)
	load(t, l, [2]int{2, 1}, [2]int{2, 2}, [2]int{2, 3})

	l.Step()
	require.NoError(t, l.Err())
	assert.Equal(t, map[[2]int]bool{{1, 2}: true, {2, 2}: true, {3, 2}: true}, aliveSet(l))
	assert.Equal(t, 4, int(l.Flips()[1*5+2]+l.Flips()[3*5+2]+l.Flips()[2*5+1]+l.Flips()[2*5+3]))

	l.Step()
	assert.Equal(t, map[[2]int]bool{{2, 1}: true, {2, 2}: true, {2, 3}: true}, aliveSet(l))
	assert.Equal(t, 2, l.Generation())
	assert.EqualValues(t, 3, l.Metrics().Alive)
}

func TestResetDeterministic(t *testing.T) {
	a, err := New(16, 16)
	require.NoError(t, err)
	b, err := New(16, 16)
	require.NoError(t, err)

	a.Reset(42)
	b.Reset(42)
	require.Equal(t, a.Cells(), b.Cells())
	for i := 0; i < 5; i++ {
		a.Step()
		b.Step()
	}
	assert.Equal(t, a.Cells(), b.Cells())
	assert.Equal(t, a.Metrics(), b.Metrics())
	assert.NoError(t, a.Err())
}

func TestSetIntParameterSwitchesRule(t *testing.T) {
	l, err := New(8, 8)
	require.NoError(t, err)
	assert.Equal(t, rules.Index(6152), l.Rule().Encode())

	// B/S: everything dies in one step.
	require.True(t, l.SetIntParameter("rule_index", 0))
	l.Reset(3)
	l.Step()
	assert.Zero(t, l.Metrics().Alive)

	assert.False(t, l.SetIntParameter("rule_index", -1))
	assert.False(t, l.SetIntParameter("rule_index", int(rules.SpaceSize(8))))
	assert.False(t, l.SetIntParameter("unknown", 1))
}

func TestSetFloatParameterReseeds(t *testing.T) {
	l, err := New(8, 8)
	require.NoError(t, err)
	l.Reset(7)

	require.True(t, l.SetFloatParameter("p", 1))
	assert.EqualValues(t, 64, l.Metrics().Alive)
	assert.Equal(t, 0, l.Generation())

	require.True(t, l.SetFloatParameter("p", 0))
	assert.Zero(t, l.Metrics().Alive)
	assert.False(t, l.SetFloatParameter("p", 1.5))
}

func TestParametersExposeMetrics(t *testing.T) {
	l, err := New(4, 4)
	require.NoError(t, err)
	l.Reset(1)

	snap := l.Parameters()
	require.Len(t, snap.Groups, 2)
	values := map[string]string{}
	for _, g := range snap.Groups {
		for _, p := range g.Params {
			values[p.Key] = p.Value
		}
	}
	assert.Equal(t, "B3/S23", values["rule"])
	assert.Equal(t, "6152", values["rule_index"])
	assert.Equal(t, "0", values["generation"])
	assert.Contains(t, values, "D")

	controls := l.ParameterControls()
	require.Len(t, controls, 2)
	assert.Equal(t, float64(rules.SpaceSize(8)-1), controls[0].Max)
}

func TestFromMap(t *testing.T) {
	c := FromMap(map[string]string{"w": "32", "h": "2", "rule": "B36/S23", "p": "0.25", "seed": "9"})
	assert.Equal(t, 32, c.Width)
	assert.Equal(t, DefaultConfig().Height, c.Height)
	assert.Equal(t, "B36/S23", c.Rule)
	assert.Equal(t, 0.25, c.P)
	assert.EqualValues(t, 9, c.Seed)

	c = FromMap(map[string]string{"max_neighbors": "2", "rule": "B1/S02"})
	assert.Equal(t, 2, c.MaxNeighbors)
	assert.Equal(t, "B1/S02", c.Rule)

	c = FromMap(map[string]string{"max_neighbors": "0"})
	assert.Equal(t, DefaultConfig().MaxNeighbors, c.MaxNeighbors)

	c = FromMap(map[string]string{"rule": "B9", "p": "2"})
	assert.Equal(t, DefaultConfig().Rule, c.Rule)
	assert.Equal(t, DefaultConfig().P, c.P)
}

func TestRegistered(t *testing.T) {
	factory, ok := core.Sims()["life"]
	require.True(t, ok)
	s := factory(map[string]string{"w": "10", "h": "6"})
	assert.Equal(t, core.Size{W: 10, H: 6}, s.Size())
	assert.Equal(t, "life", s.Name())
}
