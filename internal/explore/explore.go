// Package explore sweeps a rule space: every rule of an enumeration is run
// from several random initial states and its metrics are averaged into one
// Result.
package explore

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"lifegraph/internal/logging"
	"lifegraph/internal/telemetry"
	"lifegraph/pkg/core"
	"lifegraph/pkg/graph"
	"lifegraph/pkg/metrics"
	"lifegraph/pkg/rules"
)

var (
	ErrOptions = errors.New("invalid sweep options")
	ErrStart   = errors.New("start position outside enumeration")
)

// Options controls one sweep.
type Options struct {
	// P is the probability that a node starts alive.
	P float64
	// Iterations is the number of steps per restart.
	Iterations int
	// Restarts is the number of independent initial states per rule.
	Restarts int
	// Seed is the base from which every restart's random stream is derived.
	Seed uint64
	// Degree clamps the rule degree D; see rules.Degree. 0 gives D = 0.
	Degree int
	// Batch packs all restarts of a rule into one replicated graph.
	Batch bool
	// Series records the metrics after every step instead of only the last.
	Series bool
	// Workers is the number of rules run concurrently.
	Workers int
	// NodeWorkers parallelises each step over nodes.
	NodeWorkers int
	// LogInterval throttles progress messages.
	LogInterval time.Duration
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		P:           0.5,
		Iterations:  100,
		Restarts:    10,
		Degree:      rules.MaxDegreeCeiling,
		Workers:     0,
		NodeWorkers: 1,
		LogInterval: 5 * time.Second,
	}
}

func (o Options) validate() error {
	switch {
	case o.P < 0 || o.P > 1:
		return errors.Wrapf(ErrOptions, "p=%v", o.P)
	case o.Iterations < 0:
		return errors.Wrapf(ErrOptions, "iterations=%d", o.Iterations)
	case o.Restarts < 1:
		return errors.Wrapf(ErrOptions, "restarts=%d", o.Restarts)
	case o.Degree < 0 || o.Degree > rules.MaxDegreeCeiling:
		return errors.Wrapf(ErrOptions, "degree=%d", o.Degree)
	}
	return nil
}

// Result is the averaged outcome for one rule.
type Result struct {
	Index   rules.Index       `json:"rule_index"`
	Rule    string            `json:"rule_format"`
	Metrics metrics.Summary   `json:"rule_metrics"`
	Series  []metrics.Scalars `json:"series,omitempty"`
}

// Sink receives results in enumeration order.
type Sink interface {
	Write(Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Result) error

func (f SinkFunc) Write(r Result) error { return f(r) }

// Progress remembers which rules a sweep with a given fingerprint has
// already finished.
type Progress interface {
	Has(ctx context.Context, fingerprint string, idx rules.Index) (bool, error)
	Put(ctx context.Context, fingerprint string, r Result) error
}

// Stats summarises a finished or interrupted sweep.
type Stats struct {
	Session   string
	Total     int
	Skipped   int
	Completed int
	Elapsed   time.Duration
}

// Explorer runs sweeps over one graph.
type Explorer struct {
	g        *graph.Graph
	opts     Options
	logger   *slog.Logger
	progress Progress
	session  string
	fp       string
}

// New validates opts against g. The rule degree is clamped to the graph.
func New(g *graph.Graph, opts Options, logger *slog.Logger) (*Explorer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.Degree = rules.Degree(g.MaxDegree(), opts.Degree)
	opts.Workers = core.Workers(opts.Workers)
	if opts.NodeWorkers <= 0 {
		opts.NodeWorkers = 1
	}
	if opts.LogInterval <= 0 {
		opts.LogInterval = DefaultOptions().LogInterval
	}
	e := &Explorer{
		g:       g,
		opts:    opts,
		logger:  logging.OrDiscard(logger),
		session: uuid.NewString(),
	}
	e.fp = fingerprint(g, opts)
	return e, nil
}

// WithProgress makes Run skip rules already recorded in p and record every
// rule it emits.
func (e *Explorer) WithProgress(p Progress) *Explorer {
	e.progress = p
	return e
}

// Options returns the effective options.
func (e *Explorer) Options() Options { return e.opts }

// Degree returns the effective rule degree.
func (e *Explorer) Degree() int { return e.opts.Degree }

// Session identifies this Explorer instance in logs and stored metadata.
func (e *Explorer) Session() string { return e.session }

// Fingerprint identifies everything that influences a rule's result: the
// graph and the options that feed the simulation. Worker counts and
// batching do not change results and are left out.
func (e *Explorer) Fingerprint() string { return e.fp }

func fingerprint(g *graph.Graph, o Options) string {
	h := sha256.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.BigEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	put(uint64(g.NodeCount()))
	for v := 0; v < g.NodeCount(); v++ {
		nb := g.Neighbors(v)
		put(uint64(len(nb)))
		for _, u := range nb {
			put(uint64(u))
		}
	}
	put(math.Float64bits(o.P))
	put(uint64(o.Iterations))
	put(uint64(o.Restarts))
	put(o.Seed)
	put(uint64(o.Degree))
	if o.Series {
		put(1)
	} else {
		put(0)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// RunRule evaluates a single rule on a fresh runner.
func (e *Explorer) RunRule(idx rules.Index) (Result, error) {
	r, err := e.newRunner()
	if err != nil {
		return Result{}, err
	}
	return r.run(idx)
}

type job struct {
	ord int
	idx rules.Index
}

type outcome struct {
	ord int
	res Result
}

// Run sweeps enum from position start. Results reach sink in enumeration
// order. Cancelling ctx stops the workers; results already emitted stay
// valid and a later Run with the same progress store resumes after them.
func (e *Explorer) Run(ctx context.Context, enum rules.Enumeration, start int, sink Sink) (Stats, error) {
	began := time.Now()
	stats := Stats{Session: e.session}
	if enum.Degree() != e.opts.Degree {
		return stats, errors.Wrapf(ErrOptions, "enumeration degree %d, sweep degree %d", enum.Degree(), e.opts.Degree)
	}
	if start < 0 || start > enum.Len() {
		return stats, errors.Wrapf(ErrStart, "start=%d len=%d", start, enum.Len())
	}

	pending := make([]rules.Index, 0, enum.Len()-start)
	for pos := start; pos < enum.Len(); pos++ {
		idx := enum.At(pos)
		if e.progress != nil {
			done, err := e.progress.Has(ctx, e.fp, idx)
			if err != nil {
				return stats, errors.Wrap(err, "check progress")
			}
			if done {
				stats.Skipped++
				telemetry.RulesSkipped.Inc()
				continue
			}
		}
		pending = append(pending, idx)
	}
	stats.Total = len(pending) + stats.Skipped

	e.logger.Info("sweep started",
		slog.String("session", e.session),
		slog.String("fingerprint", e.fp),
		slog.Int("rules", len(pending)),
		slog.Int("skipped", stats.Skipped),
		slog.Int("degree", e.opts.Degree),
		slog.Int("restarts", e.opts.Restarts),
		slog.Int("iterations", e.opts.Iterations),
		slog.Bool("batch", e.opts.Batch),
		slog.Int("workers", e.opts.Workers))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, gctx := errgroup.WithContext(runCtx)
	jobs := make(chan job)
	results := make(chan outcome, e.opts.Workers)

	eg.Go(func() error {
		defer close(jobs)
		for ord, idx := range pending {
			select {
			case jobs <- job{ord: ord, idx: idx}:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	workers := min(e.opts.Workers, max(len(pending), 1))
	var pool errgroup.Group
	for i := 0; i < workers; i++ {
		pool.Go(func() error {
			r, err := e.newRunner()
			if err != nil {
				cancel()
				return err
			}
			for j := range jobs {
				telemetry.ActiveWorkers.Inc()
				res, err := r.run(j.idx)
				telemetry.ActiveWorkers.Dec()
				if err != nil {
					cancel()
					return err
				}
				select {
				case results <- outcome{ord: j.ord, res: res}:
				case <-gctx.Done():
					return nil
				}
			}
			return nil
		})
	}
	eg.Go(func() error {
		defer close(results)
		return pool.Wait()
	})

	emitted, err := e.collect(context.WithoutCancel(ctx), results, sink, len(pending), cancel)
	stats.Completed = emitted
	if werr := eg.Wait(); err == nil {
		err = werr
	}
	if err == nil && emitted < len(pending) {
		err = ctx.Err()
	}
	stats.Elapsed = time.Since(began)

	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
	}
	e.logger.Log(context.Background(), level, "sweep finished",
		slog.String("session", e.session),
		slog.Int("completed", stats.Completed),
		slog.Int("skipped", stats.Skipped),
		slog.Duration("elapsed", stats.Elapsed),
		slog.Any("error", err))
	return stats, err
}

// collect reorders outcomes by ordinal and emits the contiguous prefix.
// A failing sink or store cancels the sweep through stop.
func (e *Explorer) collect(ctx context.Context, results <-chan outcome, sink Sink, total int, stop context.CancelFunc) (int, error) {
	buffered := make(map[int]Result)
	next := 0
	every := rate.Sometimes{Interval: e.opts.LogInterval}
	var failed error

	for out := range results {
		if failed != nil {
			continue
		}
		buffered[out.ord] = out.res
		for {
			res, ok := buffered[next]
			if !ok {
				break
			}
			delete(buffered, next)
			if err := sink.Write(res); err != nil {
				failed = errors.Wrapf(err, "write rule %d", res.Index)
				stop()
				break
			}
			if e.progress != nil {
				if err := e.progress.Put(ctx, e.fp, res); err != nil {
					failed = errors.Wrapf(err, "record rule %d", res.Index)
					stop()
					break
				}
			}
			next++
			telemetry.RulesCompleted.Inc()
			every.Do(func() {
				e.logger.Info("sweep progress",
					slog.Int("done", next),
					slog.Int("total", total),
					slog.Uint64("rule", uint64(res.Index)),
					slog.String("rulestr", res.Rule))
			})
		}
	}
	return next, failed
}
