package store

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifegraph/internal/explore"
	"lifegraph/pkg/graph"
	"lifegraph/pkg/metrics"
	"lifegraph/pkg/rules"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func result(idx rules.Index, rho float64) explore.Result {
	return explore.Result{
		Index:   idx,
		Rule:    "B3/S23",
		Metrics: metrics.Summary{Scalars: metrics.Scalars{Rho: rho, H: 0.5}},
	}
}

func TestPutGetHas(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	ok, err := s.Has(ctx, "fp", 6152)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "fp", result(6152, 0.25)))
	ok, err = s.Has(ctx, "fp", 6152)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Has(ctx, "other", 6152)
	require.NoError(t, err)
	assert.False(t, ok, "fingerprints are isolated")

	got, err := s.Get(ctx, "fp", 6152)
	require.NoError(t, err)
	assert.Equal(t, result(6152, 0.25), got)

	_, err = s.Get(ctx, "fp", 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestResultsAreAscending(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	for _, idx := range []rules.Index{300, 2, 65536, 7, 256} {
		require.NoError(t, s.Put(ctx, "fp", result(idx, 0.1)))
	}
	require.NoError(t, s.Put(ctx, "fp2", result(1, 0.1)))

	rs, err := s.Results(ctx, "fp")
	require.NoError(t, err)
	var got []rules.Index
	for _, r := range rs {
		got = append(got, r.Index)
	}
	assert.Equal(t, []rules.Index{2, 7, 256, 300, 65536}, got)

	n, err := s.Count(ctx, "fp")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestSessions(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutSession(ctx, Session{ID: "b", Fingerprint: "fp", Started: now.Add(time.Hour), Rules: 4}))
	require.NoError(t, s.PutSession(ctx, Session{ID: "a", Fingerprint: "fp", Started: now, Rules: 16}))
	require.NoError(t, s.PutSession(ctx, Session{ID: "c", Fingerprint: "zz", Started: now}))

	sessions, err := s.Sessions(ctx, "fp")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "a", sessions[0].ID)
	assert.Equal(t, 16, sessions[0].Rules)

	all, err := s.Sessions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestClosedStore(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, err = s.Has(context.Background(), "fp", 1)
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestResumeThroughStore(t *testing.T) {
	s := openTest(t)
	g, err := graph.Torus(4, 4)
	require.NoError(t, err)
	opts := explore.DefaultOptions()
	opts.Iterations = 4
	opts.Restarts = 2
	opts.Degree = 1
	opts.Workers = 2

	enum, err := rules.FullSpace(1)
	require.NoError(t, err)

	ex, err := explore.New(g, opts, nil)
	require.NoError(t, err)
	ex.WithProgress(s)
	var first []explore.Result
	_, err = ex.Run(context.Background(), enum, 10, explore.SinkFunc(func(r explore.Result) error {
		first = append(first, r)
		return nil
	}))
	require.NoError(t, err)
	require.Len(t, first, 6)

	again, err := explore.New(g, opts, nil)
	require.NoError(t, err)
	again.WithProgress(s)
	var second []explore.Result
	stats, err := again.Run(context.Background(), enum, 0, explore.SinkFunc(func(r explore.Result) error {
		second = append(second, r)
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Skipped)
	assert.Len(t, second, 10)

	stored, err := s.Results(context.Background(), ex.Fingerprint())
	require.NoError(t, err)
	require.Len(t, stored, 16)
	assert.Equal(t, first[0], stored[10])
}
