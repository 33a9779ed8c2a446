// build.go turns a Config into a Callback backed by the configured sinks.

package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	cxdbclient "github.com/strongdm/ai-cxdb/clients/go"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
	"github.com/strongdm/ai-cxdb-diag/pkg/diag/sinks/async"
	"github.com/strongdm/ai-cxdb-diag/pkg/diag/sinks/cxdb"
	"github.com/strongdm/ai-cxdb-diag/pkg/diag/sinks/metrics"
	"github.com/strongdm/ai-cxdb-diag/pkg/diag/sinks/multi"
	"github.com/strongdm/ai-cxdb-diag/pkg/diag/sinks/stderr"
)

// BuildOption adjusts how Build constructs sinks.
type BuildOption func(*buildConfig)

type buildConfig struct {
	registerer prometheus.Registerer
	logger     *log.Logger
	output     io.Writer
	cxdbClient cxdb.CXDBClient
	extra      []diag.Sink
}

// WithRegisterer registers metrics on r instead of the default registry.
func WithRegisterer(r prometheus.Registerer) BuildOption {
	return func(c *buildConfig) {
		c.registerer = r
	}
}

// WithLogger sets the logger used when recording events fails.
func WithLogger(logger *log.Logger) BuildOption {
	return func(c *buildConfig) {
		c.logger = logger
	}
}

// WithStderrOutput redirects the stderr sink.
func WithStderrOutput(w io.Writer) BuildOption {
	return func(c *buildConfig) {
		c.output = w
	}
}

// WithCXDBClient uses client for the cxdb sink instead of dialing
// Sinks.CXDB.Address.
func WithCXDBClient(client cxdb.CXDBClient) BuildOption {
	return func(c *buildConfig) {
		c.cxdbClient = client
	}
}

// WithExtraSink adds a sink next to the configured ones.
func WithExtraSink(sink diag.Sink) BuildOption {
	return func(c *buildConfig) {
		c.extra = append(c.extra, sink)
	}
}

// Runtime is the result of Build.
type Runtime struct {
	Callback  *diag.CollectorCallback
	Collector diag.Collector

	closers []func() error
}

// Install sets the process log level and returns ctx with the callback
// registered.
func (r *Runtime) Install(ctx context.Context, level diag.Severity) context.Context {
	diag.SetLogLevel(level)
	return diag.WithCallback(ctx, r.Callback)
}

// Close flushes and closes the collector, then releases connections.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if err := r.Collector.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}
	if err := r.Collector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close collector: %w", err))
	}
	for _, closer := range r.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build constructs the sinks, collector and callback described by cfg.
func Build(cfg *Config, opts ...BuildOption) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bc := &buildConfig{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(bc)
	}

	rt := &Runtime{}
	var sinks []diag.Sink

	if cfg.Sinks.Stderr.Enabled {
		var sopts []stderr.StderrSinkOption
		if cfg.Sinks.Stderr.Verbose {
			sopts = append(sopts, stderr.WithVerbose())
		}
		if bc.output != nil {
			sopts = append(sopts, stderr.WithOutput(bc.output))
		}
		sinks = append(sinks, stderr.NewStderrSink(sopts...))
	}

	if cfg.Sinks.Metrics.Enabled {
		m, err := metrics.NewMetricsSink(
			metrics.WithNamespace(cfg.Sinks.Metrics.Namespace),
			metrics.WithRegisterer(bc.registerer),
		)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		sinks = append(sinks, m)
	}

	if client, err := cxdbClient(cfg.Sinks.CXDB, bc, rt); err != nil {
		return nil, err
	} else if client != nil {
		minSev, _ := diag.ParseSeverity(cfg.Sinks.CXDB.MinSeverity)
		copts := []cxdb.CXDBSinkOption{
			cxdb.WithClientTag(cfg.Sinks.CXDB.ClientTag),
			cxdb.WithMinSeverity(minSev),
		}
		if len(cfg.Sinks.CXDB.OrphanLabels) > 0 {
			copts = append(copts, cxdb.WithOrphanLabels(cfg.Sinks.CXDB.OrphanLabels))
		}
		sinks = append(sinks, cxdb.NewCXDBSink(client, copts...))
	}

	sinks = append(sinks, bc.extra...)

	var sink diag.Sink
	switch len(sinks) {
	case 0:
	case 1:
		sink = sinks[0]
	default:
		sink = multi.NewMultiSink(sinks...)
	}
	if sink != nil && cfg.Sinks.Async.Enabled {
		sink = async.NewAsyncSink(sink, async.WithQueueSize(cfg.Sinks.Async.QueueSize))
	}

	copts := []diag.CollectorOption{diag.WithSink(sink)}
	if sink == nil {
		copts = nil
	}
	if cfg.Scrubbing == nil || *cfg.Scrubbing {
		copts = append(copts, diag.WithDefaultScrubbing())
	}
	rt.Collector = diag.NewCollector(copts...)
	rt.Callback = diag.NewCollectorCallback(rt.Collector,
		diag.WithCallbackFatalPolicy(cfg.Policy()),
		diag.WithCallbackLogger(bc.logger),
	)
	return rt, nil
}

// cxdbClient returns the injected client, dials the configured address, or
// returns nil when cxdb is not configured.
func cxdbClient(cfg CXDBConfig, bc *buildConfig, rt *Runtime) (cxdb.CXDBClient, error) {
	if bc.cxdbClient != nil {
		return bc.cxdbClient, nil
	}
	if cfg.Address == "" {
		return nil, nil
	}
	client, err := cxdbclient.Dial(cfg.Address, cxdbclient.WithClientTag(cfg.ClientTag))
	if err != nil {
		return nil, fmt.Errorf("connect to cxdb at %s: %w", cfg.Address, err)
	}
	rt.closers = append(rt.closers, func() error {
		client.Close()
		return nil
	})
	return client, nil
}
