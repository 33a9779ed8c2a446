// Package async provides a sink wrapper with a bounded queue for high-throughput scenarios.
// Events are queued and processed asynchronously; oldest events are dropped when full.
// Fatal events bypass the queue: the process may end right after they are
// written, so they are delivered synchronously after the queue is drained.
package async

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("async sink is closed")

// AsyncSinkOption configures the async sink.
type AsyncSinkOption func(*asyncSinkConfig)

type asyncSinkConfig struct {
	queueSize int
	onDropped func(count int)
}

// WithQueueSize sets the maximum number of queued events (default: 1000).
func WithQueueSize(size int) AsyncSinkOption {
	return func(c *asyncSinkConfig) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithOnDropped sets a callback invoked when events are dropped due to queue overflow.
func WithOnDropped(fn func(count int)) AsyncSinkOption {
	return func(c *asyncSinkConfig) {
		c.onDropped = fn
	}
}

// asyncSink wraps a sink with a bounded queue.
type asyncSink struct {
	inner     diag.Sink
	queue     chan diag.ErrorEvent
	done      chan struct{}
	closeOnce sync.Once
	closeMu   sync.RWMutex
	closed    bool
	wg        sync.WaitGroup
	onDropped func(count int)

	// pending counts events accepted by Write and not yet delivered or dropped.
	// idle is closed whenever pending drops to zero.
	pendingMu sync.Mutex
	idle      chan struct{}
	pending   int
}

// NewAsyncSink wraps a sink with a bounded queue for async writes.
// Write returns immediately for non-fatal events; they are processed in the
// background. When the queue is full, the oldest event is dropped to make room.
func NewAsyncSink(inner diag.Sink, opts ...AsyncSinkOption) diag.Sink {
	cfg := &asyncSinkConfig{
		queueSize: 1000,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &asyncSink{
		inner:     inner,
		queue:     make(chan diag.ErrorEvent, cfg.queueSize),
		done:      make(chan struct{}),
		onDropped: cfg.onDropped,
	}
	s.idle = make(chan struct{})
	close(s.idle)

	s.wg.Add(1)
	go s.processLoop()

	return s
}

// processLoop drains the queue and writes to the inner sink.
func (s *asyncSink) processLoop() {
	defer s.wg.Done()
	for {
		select {
		case event := <-s.queue:
			s.deliver(event)
		case <-s.done:
			for {
				select {
				case event := <-s.queue:
					s.deliver(event)
				default:
					return
				}
			}
		}
	}
}

// deliver writes one queued event; inner errors are dropped (fire and forget).
func (s *asyncSink) deliver(event diag.ErrorEvent) {
	defer s.addPending(-1)
	_ = s.inner.Write(context.Background(), event)
}

// Write enqueues an event for async processing, or writes a fatal event
// synchronously once everything queued before it has been delivered.
// A fatal write gives up when ctx ends before the queue drains.
func (s *asyncSink) Write(ctx context.Context, event diag.ErrorEvent) error {
	if event.Severity >= diag.SeverityFatal {
		if s.isClosed() {
			return ErrClosed
		}
		if err := s.waitIdle(ctx); err != nil {
			return fmt.Errorf("fatal event not written: %w", err)
		}
		return s.inner.Write(ctx, event)
	}

	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	s.addPending(1)
	select {
	case s.queue <- event:
	default:
		s.dropOldestAndEnqueue(event)
	}
	return nil
}

// dropOldestAndEnqueue drops the oldest event and enqueues the new one.
// The caller has already counted event as pending.
func (s *asyncSink) dropOldestAndEnqueue(event diag.ErrorEvent) {
	select {
	case <-s.queue:
		s.addPending(-1)
		s.dropped(1)
	default:
		// Queue was emptied by processor, try again
	}

	select {
	case s.queue <- event:
	default:
		// Still full, just drop the new event
		s.addPending(-1)
		s.dropped(1)
	}
}

func (s *asyncSink) isClosed() bool {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	return s.closed
}

func (s *asyncSink) addPending(n int) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	prev := s.pending
	s.pending += n
	switch {
	case prev == 0 && s.pending > 0:
		s.idle = make(chan struct{})
	case prev > 0 && s.pending == 0:
		close(s.idle)
	}
}

// waitIdle blocks until every accepted event has been delivered or dropped,
// or until ctx is done.
func (s *asyncSink) waitIdle(ctx context.Context) error {
	s.pendingMu.Lock()
	idle := s.idle
	s.pendingMu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *asyncSink) dropped(n int) {
	if s.onDropped != nil {
		s.onDropped(n)
	}
}

// Flush blocks until all queued events are delivered, then flushes the inner sink.
func (s *asyncSink) Flush(ctx context.Context) error {
	if err := s.waitIdle(ctx); err != nil {
		return err
	}
	return s.inner.Flush(ctx)
}

// Close stops the async processor after draining and closes the inner sink.
func (s *asyncSink) Close() error {
	s.closeOnce.Do(func() {
		s.closeMu.Lock()
		s.closed = true
		s.closeMu.Unlock()

		close(s.done)
		s.wg.Wait()
	})

	return s.inner.Close()
}
