// Package cxdb provides a sink that persists failures to cxdb as SystemMessage items.
package cxdb

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	cxdbclient "github.com/strongdm/ai-cxdb/clients/go"
	cxdtypes "github.com/strongdm/ai-cxdb/clients/go/types"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
)

// CXDBClient is the minimal interface for cxdb client operations.
// The real *cxdb.Client satisfies this interface.
type CXDBClient interface {
	CreateContext(ctx context.Context, baseTurnID uint64) (*cxdbclient.ContextHead, error)
	AppendTurn(ctx context.Context, req *cxdbclient.AppendRequest) (*cxdbclient.AppendResult, error)
}

// CXDBSinkOption configures the CXDB sink.
type CXDBSinkOption func(*cxdbSinkConfig)

type cxdbSinkConfig struct {
	orphanLabels []string
	clientTag    string
	minSeverity  diag.Severity
}

// WithOrphanLabels sets labels for orphan failure contexts.
func WithOrphanLabels(labels []string) CXDBSinkOption {
	return func(c *cxdbSinkConfig) {
		c.orphanLabels = labels
	}
}

// WithClientTag sets the client tag for orphan contexts.
func WithClientTag(tag string) CXDBSinkOption {
	return func(c *cxdbSinkConfig) {
		c.clientTag = tag
	}
}

// WithMinSeverity sets the lowest severity persisted (default: warning).
// Log lines below it are dropped without a round trip.
func WithMinSeverity(s diag.Severity) CXDBSinkOption {
	return func(c *cxdbSinkConfig) {
		c.minSeverity = s
	}
}

// cxdbSink writes events to cxdb as SystemMessage items.
type cxdbSink struct {
	client       CXDBClient
	orphanLabels []string
	clientTag    string
	minSeverity  diag.Severity
}

// NewCXDBSink creates a sink that writes to cxdb.
func NewCXDBSink(client CXDBClient, opts ...CXDBSinkOption) diag.Sink {
	cfg := &cxdbSinkConfig{
		orphanLabels: []string{"diag", "unlinked"},
		clientTag:    "diag",
		minSeverity:  diag.SeverityWarning,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &cxdbSink{
		client:       client,
		orphanLabels: cfg.orphanLabels,
		clientTag:    cfg.clientTag,
		minSeverity:  cfg.minSeverity,
	}
}

// Write appends the event to its linked cxdb context, or to a new orphan
// context when the event is not linked.
func (s *cxdbSink) Write(ctx context.Context, event diag.ErrorEvent) error {
	if event.Severity < s.minSeverity {
		return nil
	}

	var contextID uint64
	isOrphan := false

	if event.ContextID != nil {
		contextID = *event.ContextID
	} else {
		head, err := s.client.CreateContext(ctx, 0)
		if err != nil {
			return fmt.Errorf("create orphan context: %w", err)
		}
		contextID = head.ContextID
		isOrphan = true
	}

	item := s.buildConversationItem(event, isOrphan)

	payload, err := cxdbclient.EncodeMsgpack(item)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req := &cxdbclient.AppendRequest{
		ContextID:      contextID,
		ParentTurnID:   0,
		TypeID:         cxdtypes.TypeIDConversationItem,
		TypeVersion:    cxdtypes.TypeVersionConversationItem,
		Payload:        payload,
		IdempotencyKey: event.EventID,
	}

	if _, err := s.client.AppendTurn(ctx, req); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}

	return nil
}

// buildConversationItem creates a SystemMessage item titled
// "<error_type>: <message>" and carrying the full event as JSON.
func (s *cxdbSink) buildConversationItem(event diag.ErrorEvent, isOrphan bool) *cxdtypes.ConversationItem {
	item := &cxdtypes.ConversationItem{
		ItemType:  cxdtypes.ItemTypeSystem,
		Status:    cxdtypes.ItemStatusComplete,
		Timestamp: event.Timestamp.UnixMilli(),
		ID:        event.EventID,
		System: &cxdtypes.SystemMessage{
			Kind:    cxdtypes.SystemKindError,
			Title:   buildTitle(event),
			Content: buildEventDetails(event),
		},
	}

	// cxdb expects context metadata on the first turn of a new context.
	if isOrphan {
		item.ContextMetadata = &cxdtypes.ContextMetadata{
			Labels:    s.orphanLabels,
			ClientTag: s.clientTag,
		}
	}

	return item
}

const (
	maxTitleMessageLen = 80
	maxTitleLen        = 100
)

// buildTitle limits are counted in runes so multi-byte characters stay whole.
func buildTitle(event diag.ErrorEvent) string {
	title := event.ErrorType
	if event.Message != "" {
		title = event.ErrorType + ": " + truncateRunes(event.Message, maxTitleMessageLen, "...")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		title = truncateRunes(title, maxTitleLen-3, "...")
	}
	return title
}

// truncateRunes cuts s to at most n runes, appending suffix when it cut.
func truncateRunes(s string, n int, suffix string) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + suffix
		}
		count++
	}
	return s
}

// eventDetails is the JSON document stored in SystemMessage.Content.
type eventDetails struct {
	EventID     string            `json:"event_id"`
	Severity    string            `json:"severity"`
	ErrorType   string            `json:"error_type"`
	Message     string            `json:"message"`
	Fingerprint string            `json:"fingerprint"`
	File        string            `json:"file,omitempty"`
	Line        int               `json:"line,omitempty"`
	Condition   string            `json:"condition,omitempty"`
	Context     []string          `json:"context,omitempty"`
	StackTrace  string            `json:"stack_trace,omitempty"`
	RunID       string            `json:"run_id,omitempty"`
	ContextID   *uint64           `json:"context_id,omitempty"`
	SystemState *systemState      `json:"system_state,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type systemState struct {
	MemoryBytes    int64  `json:"memory_bytes"`
	GoroutineCount int    `json:"goroutine_count"`
	UptimeMs       int64  `json:"uptime_ms"`
	HostName       string `json:"host_name"`
	PID            int    `json:"pid"`
	GoVersion      string `json:"go_version"`
}

// buildEventDetails encodes the full event as JSON.
func buildEventDetails(event diag.ErrorEvent) string {
	details := eventDetails{
		EventID:     event.EventID,
		Severity:    event.Severity.String(),
		ErrorType:   event.ErrorType,
		Message:     event.Message,
		Fingerprint: event.Fingerprint,
		File:        event.File,
		Line:        event.Line,
		Condition:   event.Condition,
		Context:     event.Context,
		StackTrace:  event.StackTrace,
		RunID:       event.RunID,
		ContextID:   event.ContextID,
		Metadata:    event.Metadata,
	}
	if st := event.SystemState; st != nil {
		details.SystemState = &systemState{
			MemoryBytes:    st.MemoryBytes,
			GoroutineCount: st.GoroutineCount,
			UptimeMs:       st.UptimeMs,
			HostName:       st.HostName,
			PID:            st.PID,
			GoVersion:      st.GoVersion,
		}
	}

	jsonBytes, err := json.Marshal(details)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to encode details: %s"}`, err)
	}
	return string(jsonBytes)
}

// Flush is a no-op for the cxdb sink (writes are synchronous).
func (s *cxdbSink) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op for the cxdb sink.
func (s *cxdbSink) Close() error {
	return nil
}
