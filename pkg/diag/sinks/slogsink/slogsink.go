// Package slogsink provides a sink that writes events to a log/slog logger.
package slogsink

import (
	"context"
	"log/slog"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
)

// LevelFatal is the slog level used for fatal events.
const LevelFatal = slog.LevelError + 4

// Sink writes each event as one structured record.
type Sink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink that logs to logger, or to slog.Default when
// logger is nil.
func NewSlogSink(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger}
}

// Level maps a diag severity to a slog level.
func Level(s diag.Severity) slog.Level {
	switch s {
	case diag.SeverityDebug:
		return slog.LevelDebug
	case diag.SeverityInfo:
		return slog.LevelInfo
	case diag.SeverityWarning:
		return slog.LevelWarn
	case diag.SeverityError:
		return slog.LevelError
	default:
		return LevelFatal
	}
}

// Write logs the event message with its identity, location and context as
// attributes.
func (s *Sink) Write(ctx context.Context, event diag.ErrorEvent) error {
	attrs := []slog.Attr{
		slog.String("type", event.ErrorType),
	}
	if event.File != "" {
		attrs = append(attrs, slog.String("file", event.File), slog.Int("line", event.Line))
	}
	if event.EventID != "" {
		attrs = append(attrs, slog.String("event_id", event.EventID))
	}
	if event.Fingerprint != "" && event.ErrorType != diag.ErrorTypeLog {
		attrs = append(attrs, slog.String("fingerprint", event.Fingerprint))
	}
	if event.RunID != "" {
		attrs = append(attrs, slog.String("run_id", event.RunID))
	}
	if len(event.Context) > 0 {
		attrs = append(attrs, slog.Any("context", event.Context))
	}
	if len(event.Metadata) > 0 {
		meta := make([]any, 0, len(event.Metadata))
		for k, v := range event.Metadata {
			meta = append(meta, slog.String(k, v))
		}
		attrs = append(attrs, slog.Group("details", meta...))
	}

	s.logger.LogAttrs(ctx, Level(event.Severity), event.Message, attrs...)
	return nil
}

// Flush is a no-op; slog handlers write synchronously.
func (s *Sink) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Sink) Close() error {
	return nil
}
