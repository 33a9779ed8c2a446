// Package stderr provides a sink that prints events in human-readable form.
// Useful for development and debugging.
package stderr

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
)

// StderrSinkOption configures the stderr sink.
type StderrSinkOption func(*stderrSinkConfig)

type stderrSinkConfig struct {
	verbose bool
	w       io.Writer
}

// WithVerbose enables full event details including stack traces.
func WithVerbose() StderrSinkOption {
	return func(c *stderrSinkConfig) {
		c.verbose = true
	}
}

// WithOutput writes to w instead of os.Stderr.
func WithOutput(w io.Writer) StderrSinkOption {
	return func(c *stderrSinkConfig) {
		if w != nil {
			c.w = w
		}
	}
}

// stderrSink writes events to a writer in human-readable format.
type stderrSink struct {
	mu      sync.Mutex
	verbose bool
	w       io.Writer
}

// NewStderrSink creates a sink that writes to stderr.
func NewStderrSink(opts ...StderrSinkOption) diag.Sink {
	cfg := &stderrSinkConfig{w: os.Stderr}
	for _, opt := range opts {
		opt(cfg)
	}
	return &stderrSink{
		verbose: cfg.verbose,
		w:       cfg.w,
	}
}

// Write formats the event:
//
//	[DIAG] <timestamp> <SEVERITY> <error_type> at <file>:<line>
//	        Context: <context line>
//	        Message: <message>
//	        Fingerprint: <fingerprint>
func (s *stderrSink) Write(ctx context.Context, event diag.ErrorEvent) error {
	var b strings.Builder

	severity := strings.ToUpper(event.Severity.String())
	timestamp := event.Timestamp.Format("2006-01-02T15:04:05Z07:00")

	parts := []string{"[DIAG]", timestamp, severity, event.ErrorType}
	if event.File != "" {
		parts = append(parts, fmt.Sprintf("at %s:%d", event.File, event.Line))
	}
	b.WriteString(strings.Join(parts, " "))
	b.WriteByte('\n')

	for _, line := range event.Context {
		fmt.Fprintf(&b, "        Context: %s\n", line)
	}

	if event.Message != "" {
		fmt.Fprintf(&b, "        Message: %s\n", event.Message)
	}

	if event.Fingerprint != "" && event.ErrorType != diag.ErrorTypeLog {
		fmt.Fprintf(&b, "        Fingerprint: %s\n", event.Fingerprint)
	}

	if event.RunID != "" {
		fmt.Fprintf(&b, "        Run: %s\n", event.RunID)
	}

	if event.ContextID != nil {
		fmt.Fprintf(&b, "        CXDB context: %d\n", *event.ContextID)
	}

	if s.verbose && event.StackTrace != "" {
		b.WriteString("        Stack trace:\n")
		for _, line := range strings.Split(strings.TrimRight(event.StackTrace, "\n"), "\n") {
			fmt.Fprintf(&b, "          %s\n", line)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, b.String())
	return err
}

// Flush is a no-op for stderr sink.
func (s *stderrSink) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op for stderr sink.
func (s *stderrSink) Close() error {
	return nil
}
