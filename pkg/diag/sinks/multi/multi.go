// Package multi provides a sink that fans out to multiple sinks, optionally
// routing by severity.
package multi

import (
	"context"
	"errors"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
)

// multiSink fans out to multiple sinks.
type multiSink struct {
	sinks []diag.Sink
}

// NewMultiSink creates a sink that writes to multiple sinks.
// Every sink receives every event it accepts. Errors are aggregated via
// errors.Join and never stop delivery to the remaining sinks.
func NewMultiSink(sinks ...diag.Sink) diag.Sink {
	return &multiSink{
		sinks: sinks,
	}
}

func (s *multiSink) Write(ctx context.Context, event diag.ErrorEvent) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *multiSink) Flush(ctx context.Context) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *multiSink) Close() error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// minSeveritySink drops events below a severity.
type minSeveritySink struct {
	diag.Sink
	min diag.Severity
}

// AtLeast wraps sink so it only receives events with severity >= threshold.
// Typical use keeps debug output off remote sinks:
//
//	multi.NewMultiSink(stderr.NewStderrSink(), multi.AtLeast(diag.SeverityError, remote))
func AtLeast(threshold diag.Severity, sink diag.Sink) diag.Sink {
	return &minSeveritySink{Sink: sink, min: threshold}
}

func (s *minSeveritySink) Write(ctx context.Context, event diag.ErrorEvent) error {
	if event.Severity < s.min {
		return nil
	}
	return s.Sink.Write(ctx, event)
}
