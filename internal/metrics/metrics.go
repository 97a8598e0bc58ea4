// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes run counters in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "clause_engine"

// Metrics owns a private registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry
	items    *prometheus.CounterVec
	faults   *prometheus.CounterVec
	shards   *prometheus.CounterVec
}

// New returns a Metrics with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counted_items_total",
			Help:      "Items that reached a counting stage, by counter name.",
		}, []string{"counter"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_faults_total",
			Help:      "Items discarded because a stage failed, by stage.",
		}, []string{"stage"}),
		shards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shards_total",
			Help:      "Shards read, by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.items, m.faults, m.shards)
	return m
}

// Counter returns the counter backing the named counting stage.
func (m *Metrics) Counter(name string) prometheus.Counter {
	return m.items.WithLabelValues(name)
}

// Fault records a stage fault.
func (m *Metrics) Fault(stage string) {
	m.faults.WithLabelValues(stage).Inc()
}

// Shard records a shard event: "read" when a shard is opened, "malformed"
// for every block skipped inside one, "failed" when a shard is abandoned.
func (m *Metrics) Shard(outcome string) {
	m.shards.WithLabelValues(outcome).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics listener started", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
