// Package memory provides a sink that keeps events in memory.
// Useful in tests and for exposing recent failures on a debug endpoint.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("memory sink is closed")

// Sink stores events in arrival order. When a limit is set, the oldest
// events are evicted first.
type Sink struct {
	mu     sync.Mutex
	events []diag.ErrorEvent
	limit  int
	closed bool
}

// NewMemorySink creates a sink that keeps at most limit events.
// A limit of zero or less keeps everything.
func NewMemorySink(limit int) *Sink {
	return &Sink{limit: limit}
}

// Write stores the event.
func (s *Sink) Write(ctx context.Context, event diag.ErrorEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.events = append(s.events, event)
	if s.limit > 0 && len(s.events) > s.limit {
		s.events = append(s.events[:0:0], s.events[len(s.events)-s.limit:]...)
	}
	return nil
}

// Events returns a copy of the stored events, oldest first.
func (s *Sink) Events() []diag.ErrorEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]diag.ErrorEvent, len(s.events))
	copy(result, s.events)
	return result
}

// Reset discards the stored events.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// Flush is a no-op.
func (s *Sink) Flush(ctx context.Context) error {
	return nil
}

// Close rejects further writes. Stored events remain readable.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
