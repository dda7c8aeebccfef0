package sim

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifegraph/pkg/core"
	"lifegraph/pkg/graph"
	"lifegraph/pkg/rules"
)

func lifeRule(t *testing.T) rules.Rule {
	t.Helper()
	r, err := rules.Life(8)
	require.NoError(t, err)
	return r
}

func TestBlinkerOnThreeByThreeTorus(t *testing.T) {
	g, err := graph.Torus(3, 3)
	require.NoError(t, err)
	l := graph.Lattice{W: 3, H: 3}

	e := New(g)
	require.NoError(t, e.SetRule(lifeRule(t)))

	state := make([]uint8, 9)
	for y := 0; y < 3; y++ {
		state[l.Index(1, y)] = 1
	}
	require.NoError(t, e.Load(state))
	assert.EqualValues(t, 3, e.Alive(0))

	// Every cell of a 3x3 torus neighbors all eight others: live cells see
	// 2 live neighbors and survive, dead cells see 3 and are born.
	require.NoError(t, e.Step())
	for i, s := range e.State() {
		assert.EqualValues(t, 1, s, "cell %d", i)
	}
	assert.EqualValues(t, 9, e.Alive(0))
	assert.EqualValues(t, 6, e.Changes(0))

	// Eight live neighbors everywhere: everything dies.
	require.NoError(t, e.Step())
	for i, s := range e.State() {
		assert.EqualValues(t, 0, s, "cell %d", i)
	}
	assert.Equal(t, 2, e.Generation())
}

func TestBlinkerOscillationOnFiveByFiveTorus(t *testing.T) {
	g, err := graph.Torus(5, 5)
	require.NoError(t, err)
	l := graph.Lattice{W: 5, H: 5}

	e, err := NewWithConfig(g, Config{Blocks: 1, Workers: 4})
	require.NoError(t, err)
	require.NoError(t, e.SetRule(lifeRule(t)))

	vertical := make([]uint8, 25)
	horizontal := make([]uint8, 25)
	for d := -1; d <= 1; d++ {
		vertical[l.Index(2, 2+d)] = 1
		horizontal[l.Index(2+d, 2)] = 1
	}
	require.NoError(t, e.Load(vertical))

	require.NoError(t, e.Step())
	assert.Equal(t, horizontal, e.State())
	require.NoError(t, e.Step())
	assert.Equal(t, vertical, e.State())
}

func TestStepRequiresInitialization(t *testing.T) {
	g, err := graph.Torus(3, 3)
	require.NoError(t, err)
	e := New(g)
	assert.True(t, errors.Is(e.Step(), ErrUninitialized))

	require.NoError(t, e.Load(make([]uint8, 9)))
	assert.True(t, errors.Is(e.Step(), ErrNoRule))

	require.NoError(t, e.SetRule(lifeRule(t)))
	require.NoError(t, e.Step())
	e.Reset()
	assert.Equal(t, Uninitialized, e.Phase())
	assert.Equal(t, 0, e.Generation())
	assert.NotContains(t, e.State(), uint8(1))
	assert.True(t, errors.Is(e.Step(), ErrUninitialized))
}

func TestIsolatedNodesFollowZeroCountBits(t *testing.T) {
	g, err := graph.New(4, nil)
	require.NoError(t, err)
	e := New(g)

	// B0/S: dead isolated nodes are born, live ones die.
	r, err := rules.FromCounts([]int{0}, nil, 0)
	require.NoError(t, err)
	require.NoError(t, e.SetRule(r))
	require.NoError(t, e.Load([]uint8{1, 0, 1, 0}))
	require.NoError(t, e.Step())
	assert.Equal(t, []uint8{0, 1, 0, 1}, e.State())

	// B/S0: live nodes persist, dead ones stay dead.
	r, err = rules.FromCounts(nil, []int{0}, 0)
	require.NoError(t, err)
	require.NoError(t, e.SetRule(r))
	require.NoError(t, e.Load([]uint8{1, 0, 1, 0}))
	require.NoError(t, e.Run(5))
	assert.Equal(t, []uint8{1, 0, 1, 0}, e.State())
}

func TestCountsAboveRuleDegreeNeverMatch(t *testing.T) {
	// Star: node 0 has four neighbors, the rule only addresses counts 0..2.
	g, err := graph.New(5, []graph.Edge{{Source: 0, Target: 1}, {Source: 0, Target: 2}, {Source: 0, Target: 3}, {Source: 0, Target: 4}})
	require.NoError(t, err)
	r, err := rules.FromCounts([]int{1, 2}, []int{0, 1, 2}, 2)
	require.NoError(t, err)

	e := New(g)
	require.NoError(t, e.SetRule(r))
	require.NoError(t, e.Load([]uint8{1, 1, 1, 1, 1}))
	require.NoError(t, e.Step())
	assert.EqualValues(t, 0, e.State()[0], "4 live neighbors exceeds the rule degree")
	assert.EqualValues(t, 1, e.State()[1])
}

func TestParallelStepMatchesSerial(t *testing.T) {
	g, err := graph.Torus(17, 13)
	require.NoError(t, err)
	r, err := rules.Parse("B36/S23", 8)
	require.NoError(t, err)

	serial := New(g)
	parallel, err := NewWithConfig(g, Config{Blocks: 1, Workers: 5})
	require.NoError(t, err)
	for _, e := range []*Engine{serial, parallel} {
		require.NoError(t, e.SetRule(r))
		require.NoError(t, e.Randomize(0.35, 99))
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, serial.Step())
		require.NoError(t, parallel.Step())
		require.Equal(t, serial.State(), parallel.State(), "step %d", i)
		require.Equal(t, serial.Alive(0), parallel.Alive(0))
		require.Equal(t, serial.Changes(0), parallel.Changes(0))
	}
}

func TestReplicatedBatchMatchesSequentialRestarts(t *testing.T) {
	base, err := graph.Torus(6, 5)
	require.NoError(t, err)
	r := lifeRule(t)

	const k = 4
	seeds := make([]uint64, k)
	for i := range seeds {
		seeds[i] = core.DeriveSeed(1234, uint64(r.Encode()), uint64(i))
	}

	replicated, err := base.Replicate(k)
	require.NoError(t, err)
	batch, err := NewWithConfig(replicated, Config{Blocks: k, Workers: 3})
	require.NoError(t, err)
	require.NoError(t, batch.SetRule(r))
	require.NoError(t, batch.Randomize(0.4, seeds...))
	require.NoError(t, batch.Run(12))

	single := New(base)
	require.NoError(t, single.SetRule(r))
	for i, seed := range seeds {
		require.NoError(t, single.Randomize(0.4, seed))
		require.NoError(t, single.Run(12))
		assert.Equal(t, single.State(), batch.BlockState(i), "restart %d", i)
		assert.Equal(t, single.Alive(0), batch.Alive(i))
		assert.Equal(t, single.Changes(0), batch.Changes(i))
	}
}

func TestRandomizeValidatesInput(t *testing.T) {
	g, err := graph.Torus(3, 3)
	require.NoError(t, err)
	e := New(g)
	assert.True(t, errors.Is(e.Randomize(1.5, 1), ErrProbability))
	assert.True(t, errors.Is(e.Randomize(0.5, 1, 2), ErrBlocks))
	assert.True(t, errors.Is(e.Load(make([]uint8, 4)), ErrStateSize))

	_, err = NewWithConfig(g, Config{Blocks: 2})
	assert.True(t, errors.Is(err, ErrBlocks))
}

func TestVerify(t *testing.T) {
	g, err := graph.Torus(5, 5)
	require.NoError(t, err)
	r := lifeRule(t)

	e := New(g)
	require.NoError(t, e.SetRule(r))
	require.NoError(t, e.Randomize(0.5, 7))
	prev := append([]uint8(nil), e.State()...)
	require.NoError(t, e.Step())
	next := append([]uint8(nil), e.State()...)

	require.NoError(t, Verify(g, r, prev, next))

	next[12] ^= 1
	err = Verify(g, r, prev, next)
	var m *Mismatch
	require.True(t, errors.As(err, &m))
	assert.Equal(t, 12, m.Node)
}
