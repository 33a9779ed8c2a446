// Package metrics provides a sink that counts events with Prometheus.
package metrics

import (
	"context"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
)

// MetricsSinkOption configures the metrics sink.
type MetricsSinkOption func(*metricsSinkConfig)

type metricsSinkConfig struct {
	namespace string
	registry  prometheus.Registerer
}

// WithNamespace sets the metric namespace (default: "diag").
func WithNamespace(ns string) MetricsSinkOption {
	return func(c *metricsSinkConfig) {
		c.namespace = ns
	}
}

// WithRegisterer registers the collectors on r instead of the default registry.
func WithRegisterer(r prometheus.Registerer) MetricsSinkOption {
	return func(c *metricsSinkConfig) {
		c.registry = r
	}
}

// Sink counts events. It never fails a write.
//
// Exported series:
//
//	<ns>_events_total{severity, error_type}
//	<ns>_failures_by_file_total{error_type, file}   (failures only)
type Sink struct {
	events   *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewMetricsSink creates the counters and registers them.
// Registration fails if the same namespace is already registered on the
// registry.
func NewMetricsSink(opts ...MetricsSinkOption) (*Sink, error) {
	cfg := &metricsSinkConfig{
		namespace: "diag",
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Sink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "events_total",
			Help:      "Diagnostic events by severity and type.",
		}, []string{"severity", "error_type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "failures_by_file_total",
			Help:      "Failed checks by type and source file.",
		}, []string{"error_type", "file"}),
	}

	for _, c := range []prometheus.Collector{s.events, s.failures} {
		if err := cfg.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Write increments the counters for the event.
func (s *Sink) Write(ctx context.Context, event diag.ErrorEvent) error {
	s.events.WithLabelValues(event.Severity.String(), event.ErrorType).Inc()
	if event.ErrorType != diag.ErrorTypeLog && event.File != "" {
		s.failures.WithLabelValues(event.ErrorType, filepath.Base(event.File)).Inc()
	}
	return nil
}

// Flush is a no-op; Prometheus scrapes the counters.
func (s *Sink) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op. The counters stay registered.
func (s *Sink) Close() error {
	return nil
}
