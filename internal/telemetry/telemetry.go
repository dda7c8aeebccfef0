// Package telemetry exposes sweep progress as Prometheus metrics.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RulesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lifegraph_rules_completed_total",
		Help: "Rules whose restarts all finished",
	})

	RulesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lifegraph_rules_skipped_total",
		Help: "Rules skipped because a previous run already recorded them",
	})

	StepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lifegraph_steps_total",
		Help: "Synchronous steps executed, counting a batched step once",
	})

	NonFinite = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lifegraph_nonfinite_metrics_total",
		Help: "Rule runs that produced a NaN or infinite metric",
	})

	RuleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lifegraph_rule_duration_seconds",
		Help:    "Wall time to run every restart of one rule",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lifegraph_active_workers",
		Help: "Sweep workers currently running a rule",
	})
)

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	if logger != nil {
		logger.Info("metrics endpoint listening", slog.String("addr", addr))
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
