// collector_callback.go implements a Callback that records to a Collector.

package diag

import (
	"context"
	"log"
	"os"
	"time"
)

// CollectorCallbackOption configures a CollectorCallback.
type CollectorCallbackOption func(*CollectorCallback)

// WithCallbackFatalPolicy sets what OnFatal does after recording
// (default: FatalPanic).
func WithCallbackFatalPolicy(p FatalPolicy) CollectorCallbackOption {
	return func(c *CollectorCallback) {
		c.policy = p
	}
}

// WithCallbackLogger sets the logger used when recording fails.
// A nil logger discards those messages.
func WithCallbackLogger(logger *log.Logger) CollectorCallbackOption {
	return func(c *CollectorCallback) {
		c.logger = logger
	}
}

// WithStartTime sets the process start used for uptime in system state.
func WithStartTime(t time.Time) CollectorCallbackOption {
	return func(c *CollectorCallback) {
		c.startTime = t
	}
}

// WithFlushTimeout bounds recording and flushing the fatal event before the
// fatal policy applies (default: 2s).
func WithFlushTimeout(d time.Duration) CollectorCallbackOption {
	return func(c *CollectorCallback) {
		if d > 0 {
			c.flushTimeout = d
		}
	}
}

// WithCallbackExitFunc replaces os.Exit for FatalExit.
func WithCallbackExitFunc(exit func(int)) CollectorCallbackOption {
	return func(c *CollectorCallback) {
		if exit != nil {
			c.exit = exit
		}
	}
}

// CollectorCallback records failures and log lines as events.
// Recoverable failures are recorded with SeverityError, fatal ones with
// SeverityFatal and system state; the collector is flushed before the fatal
// policy applies. Recording errors never affect the caller.
type CollectorCallback struct {
	collector    Collector
	policy       FatalPolicy
	logger       *log.Logger
	startTime    time.Time
	flushTimeout time.Duration
	exit         func(int)
}

// NewCollectorCallback creates a Callback that records to collector.
func NewCollectorCallback(collector Collector, opts ...CollectorCallbackOption) *CollectorCallback {
	c := &CollectorCallback{
		collector:    collector,
		policy:       FatalPanic,
		startTime:    time.Now(),
		flushTimeout: 2 * time.Second,
		exit:         os.Exit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnRecoverable records the failure and returns.
func (c *CollectorCallback) OnRecoverable(ctx context.Context, f *Failure) {
	c.safeRecord(ctx, EventFromFailure(f, SeverityError))
}

// OnFatal records the failure, flushes, then panics or exits.
func (c *CollectorCallback) OnFatal(ctx context.Context, f *Failure) {
	event := EventFromFailure(f, SeverityFatal)
	event.SystemState = CaptureSystemState(c.startTime)

	// Recording and flushing share one deadline so the policy always applies.
	boundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flushTimeout)
	c.safeRecord(boundCtx, event)
	if err := c.collector.Flush(boundCtx); err != nil {
		c.logf("diag: failed to flush before fatal failure: %v", err)
	}
	cancel()

	c.policy.apply(f, c.exit)
}

// LogMessage records the line as an event with the line's severity.
func (c *CollectorCallback) LogMessage(ctx context.Context, text string) {
	c.safeRecord(ctx, EventFromLog(text))
}

// safeRecord records an event, logging any errors rather than propagating them.
func (c *CollectorCallback) safeRecord(ctx context.Context, event ErrorEvent) {
	if err := c.collector.Record(ctx, event); err != nil {
		c.logf("diag: failed to record event: %v", err)
	}
}

func (c *CollectorCallback) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
