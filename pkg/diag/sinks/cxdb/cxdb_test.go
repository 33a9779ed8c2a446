package cxdb

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	cxdbclient "github.com/strongdm/ai-cxdb/clients/go"
	cxdtypes "github.com/strongdm/ai-cxdb/clients/go/types"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
)

// mockCXDBClient is a test double for the cxdb client.
type mockCXDBClient struct {
	mu             sync.Mutex
	createContexts int
	appendRequests []*cxdbclient.AppendRequest
	nextContextID  uint64
	createErr      error
	appendErr      error
}

func (m *mockCXDBClient) CreateContext(ctx context.Context, baseTurnID uint64) (*cxdbclient.ContextHead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.createContexts++
	m.nextContextID++
	return &cxdbclient.ContextHead{ContextID: m.nextContextID}, nil
}

func (m *mockCXDBClient) AppendTurn(ctx context.Context, req *cxdbclient.AppendRequest) (*cxdbclient.AppendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	m.appendRequests = append(m.appendRequests, req)
	return &cxdbclient.AppendResult{ContextID: req.ContextID, TurnID: 1, Depth: 1}, nil
}

func (m *mockCXDBClient) requests() []*cxdbclient.AppendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*cxdbclient.AppendRequest, len(m.appendRequests))
	copy(result, m.appendRequests)
	return result
}

func decodeConversationItem(t *testing.T, payload []byte) cxdtypes.ConversationItem {
	t.Helper()
	var item cxdtypes.ConversationItem
	if err := cxdbclient.DecodeMsgpackInto(payload, &item); err != nil {
		t.Fatalf("DecodeMsgpackInto failed: %v", err)
	}
	return item
}

func decodeDetailsJSON(t *testing.T, content string) map[string]any {
	t.Helper()
	var details map[string]any
	if err := json.Unmarshal([]byte(content), &details); err != nil {
		t.Fatalf("details JSON unmarshal failed: %v", err)
	}
	return details
}

func failureEvent() diag.ErrorEvent {
	return diag.ErrorEvent{
		EventID:     "evt-123",
		Timestamp:   time.Date(2025, 1, 26, 12, 0, 0, 0, time.UTC),
		Fingerprint: "fp",
		Severity:    diag.SeverityFatal,
		ErrorType:   "bug",
		Message:     "bug in code: expected offset < size; offset = 10",
		File:        "/app/store/journal.go",
		Line:        42,
		Condition:   "offset < size",
		Context:     []string{"/app/main.go:9: context: replaying journal"},
		Metadata:    map[string]string{"offset": "10"},
		SystemState: &diag.SystemState{PID: 7, GoVersion: "go1.25"},
	}
}

func TestCXDBSink_ImplementsSinkInterface(t *testing.T) {
	var _ diag.Sink = NewCXDBSink(&mockCXDBClient{})
}

func TestCXDBSink_Write_LinkedContext(t *testing.T) {
	client := &mockCXDBClient{}
	sink := NewCXDBSink(client)

	contextID := uint64(12345)
	event := failureEvent()
	event.ContextID = &contextID

	if err := sink.Write(context.Background(), event); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	if client.createContexts != 0 {
		t.Errorf("Should not create context when ContextID is set, got %d", client.createContexts)
	}
	reqs := client.requests()
	if len(reqs) != 1 {
		t.Fatalf("Expected 1 append request, got %d", len(reqs))
	}
	req := reqs[0]
	if req.ContextID != contextID {
		t.Errorf("ContextID = %d, want %d", req.ContextID, contextID)
	}
	if req.TypeID != cxdtypes.TypeIDConversationItem || req.TypeVersion != cxdtypes.TypeVersionConversationItem {
		t.Errorf("type = %s v%d", req.TypeID, req.TypeVersion)
	}
	if req.IdempotencyKey != "evt-123" {
		t.Errorf("IdempotencyKey = %q, want evt-123", req.IdempotencyKey)
	}

	item := decodeConversationItem(t, req.Payload)
	if item.ItemType != cxdtypes.ItemTypeSystem {
		t.Errorf("ItemType = %q, want system", item.ItemType)
	}
	if item.ContextMetadata != nil {
		t.Error("linked events must not carry context metadata")
	}
	if item.System == nil {
		t.Fatal("System message missing")
	}
	if item.System.Kind != cxdtypes.SystemKindError {
		t.Errorf("Kind = %q", item.System.Kind)
	}
	if item.System.Title != "bug: bug in code: expected offset < size; offset = 10" {
		t.Errorf("Title = %q", item.System.Title)
	}

	details := decodeDetailsJSON(t, item.System.Content)
	if details["severity"] != "fatal" {
		t.Errorf("severity = %v", details["severity"])
	}
	if details["condition"] != "offset < size" {
		t.Errorf("condition = %v", details["condition"])
	}
	if details["line"] != float64(42) {
		t.Errorf("line = %v", details["line"])
	}
	if ctxLines, ok := details["context"].([]any); !ok || len(ctxLines) != 1 {
		t.Errorf("context = %v", details["context"])
	}
	state, ok := details["system_state"].(map[string]any)
	if !ok || state["pid"] != float64(7) {
		t.Errorf("system_state = %v", details["system_state"])
	}
}

func TestCXDBSink_Write_OrphanContext(t *testing.T) {
	client := &mockCXDBClient{}
	sink := NewCXDBSink(client, WithOrphanLabels([]string{"svc", "orphan"}), WithClientTag("store"))

	if err := sink.Write(context.Background(), failureEvent()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	if client.createContexts != 1 {
		t.Fatalf("Expected 1 CreateContext call, got %d", client.createContexts)
	}
	reqs := client.requests()
	if len(reqs) != 1 || reqs[0].ContextID != 1 {
		t.Fatalf("append requests = %+v", reqs)
	}
	item := decodeConversationItem(t, reqs[0].Payload)
	if item.ContextMetadata == nil {
		t.Fatal("orphan events need context metadata")
	}
	if item.ContextMetadata.ClientTag != "store" {
		t.Errorf("ClientTag = %q", item.ContextMetadata.ClientTag)
	}
	if strings.Join(item.ContextMetadata.Labels, ",") != "svc,orphan" {
		t.Errorf("Labels = %v", item.ContextMetadata.Labels)
	}
}

func TestCXDBSink_Write_BelowMinSeverity(t *testing.T) {
	client := &mockCXDBClient{}
	sink := NewCXDBSink(client, WithMinSeverity(diag.SeverityError))

	event := diag.EventFromLog("warning: a.go:1: slow\n")
	if err := sink.Write(context.Background(), event); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if client.createContexts != 0 || len(client.requests()) != 0 {
		t.Error("events below the minimum severity must not reach cxdb")
	}
}

func TestCXDBSink_Write_Errors(t *testing.T) {
	createErr := errors.New("create failed")
	sink := NewCXDBSink(&mockCXDBClient{createErr: createErr})
	if err := sink.Write(context.Background(), failureEvent()); !errors.Is(err, createErr) {
		t.Errorf("Write = %v, want wrapped create error", err)
	}

	appendErr := errors.New("append failed")
	sink = NewCXDBSink(&mockCXDBClient{appendErr: appendErr})
	err := sink.Write(context.Background(), failureEvent())
	if !errors.Is(err, appendErr) {
		t.Errorf("Write = %v, want wrapped append error", err)
	}
	if !strings.HasPrefix(err.Error(), "append turn: ") {
		t.Errorf("error = %q", err)
	}
}

func TestBuildTitle(t *testing.T) {
	tests := []struct {
		name  string
		event diag.ErrorEvent
		want  string
	}{
		{"no message", diag.ErrorEvent{ErrorType: "bug"}, "bug"},
		{"short", diag.ErrorEvent{ErrorType: "log", Message: "hi"}, "log: hi"},
		{"long message", diag.ErrorEvent{ErrorType: "bug", Message: strings.Repeat("m", 200)}, "bug: " + strings.Repeat("m", 80) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildTitle(tt.event); got != tt.want {
				t.Errorf("buildTitle() = %q, want %q", got, tt.want)
			}
		})
	}

	long := buildTitle(diag.ErrorEvent{ErrorType: strings.Repeat("t", 50), Message: strings.Repeat("m", 80)})
	if len(long) != maxTitleLen || !strings.HasSuffix(long, "...") {
		t.Errorf("title length = %d, want %d", len(long), maxTitleLen)
	}

	wide := buildTitle(diag.ErrorEvent{ErrorType: "bug", Message: strings.Repeat("é", 120)})
	if !utf8.ValidString(wide) {
		t.Errorf("title %q is not valid UTF-8", wide)
	}
	if want := "bug: " + strings.Repeat("é", 80) + "..."; wide != want {
		t.Errorf("buildTitle() = %q, want %q", wide, want)
	}

	wideType := buildTitle(diag.ErrorEvent{ErrorType: strings.Repeat("ü", 50), Message: strings.Repeat("m", 80)})
	if !utf8.ValidString(wideType) || utf8.RuneCountInString(wideType) != maxTitleLen {
		t.Errorf("title %q: want %d valid runes", wideType, maxTitleLen)
	}
}

func TestCXDBSink_FlushAndClose(t *testing.T) {
	sink := NewCXDBSink(&mockCXDBClient{})
	if err := sink.Flush(context.Background()); err != nil {
		t.Errorf("Flush: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
