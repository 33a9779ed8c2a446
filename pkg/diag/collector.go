// collector.go provides the Collector interface and default implementation.

package diag

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Collector records events to a configured sink.
type Collector interface {
	// Record captures an event. Blocks until the sink accepted it.
	// Applies scrubbing and fingerprinting before delegating to the sink.
	Record(ctx context.Context, event ErrorEvent) error

	// Flush ensures any buffered events are persisted.
	Flush(ctx context.Context) error

	// Close releases resources held by the collector.
	Close() error
}

// CollectorOption configures a Collector.
type CollectorOption func(*collectorConfig)

type collectorConfig struct {
	sink     Sink
	scrubber *Scrubber
}

// WithSink sets the sink for the collector.
func WithSink(sink Sink) CollectorOption {
	return func(c *collectorConfig) {
		c.sink = sink
	}
}

// WithScrubber configures the collector with a custom scrubber configuration.
func WithScrubber(cfg ScrubberConfig) CollectorOption {
	return func(c *collectorConfig) {
		c.scrubber = NewScrubber(cfg)
	}
}

// WithDefaultScrubbing enables scrubbing with production-safe defaults.
func WithDefaultScrubbing() CollectorOption {
	return func(c *collectorConfig) {
		c.scrubber = NewScrubber(DefaultScrubberConfig())
	}
}

type defaultCollector struct {
	sink     Sink
	scrubber *Scrubber
}

// NewCollector creates a new Collector with the given options.
// Without a sink, events are discarded.
func NewCollector(opts ...CollectorOption) Collector {
	cfg := &collectorConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.sink == nil {
		cfg.sink = discardSink{}
	}

	return &defaultCollector{
		sink:     cfg.sink,
		scrubber: cfg.scrubber,
	}
}

// Record fills identity fields, scrubs, fingerprints and writes the event.
func (c *defaultCollector) Record(ctx context.Context, event ErrorEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RunID == "" {
		event.RunID, _ = RunIDFromContext(ctx)
	}
	if event.ContextID == nil {
		if id, ok := ContextIDFromContext(ctx); ok {
			event.ContextID = &id
		}
	}

	if c.scrubber != nil {
		event.Message = c.scrubber.ScrubMessage(event.Message)
		event.Condition = c.scrubber.ScrubMessage(event.Condition)
		event.Context = c.scrubber.ScrubLines(event.Context)
		event.StackTrace = c.scrubber.ScrubStackTrace(event.StackTrace)
		event.Metadata = c.scrubber.ScrubMetadata(event.Metadata)
	}

	event.Fingerprint = Fingerprint(event)

	return c.sink.Write(ctx, event)
}

// Flush delegates to the sink.
func (c *defaultCollector) Flush(ctx context.Context) error {
	return c.sink.Flush(ctx)
}

// Close delegates to the sink.
func (c *defaultCollector) Close() error {
	return c.sink.Close()
}

// discardSink is an internal noop sink to avoid import cycles.
type discardSink struct{}

func (discardSink) Write(ctx context.Context, event ErrorEvent) error { return nil }
func (discardSink) Flush(ctx context.Context) error                   { return nil }
func (discardSink) Close() error                                      { return nil }
