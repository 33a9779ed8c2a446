package agentssdk

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/strongdm/ai-agents-sdk/pkg/agents"
	llmsdk "github.com/strongdm/ai-llm-sdk/pkg/llm"
	llmmock "github.com/strongdm/ai-llm-sdk/pkg/llm/mock"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
	"github.com/strongdm/ai-cxdb-diag/pkg/diag/sinks/memory"
)

func newMockClient(adapter *llmmock.Adapter) *llmsdk.Client {
	return llmsdk.NewClient(
		map[llmsdk.Provider]llmsdk.ProviderAdapter{llmsdk.ProviderOpenAI: adapter},
		llmsdk.WithDefaultProvider(llmsdk.ProviderOpenAI),
	)
}

func enqueueToolCall(adapter *llmmock.Adapter, toolName, callID string) {
	call := llmsdk.ToolCall{
		ID:        callID,
		Name:      toolName,
		Arguments: json.RawMessage(`{"path":"/tmp/x"}`),
	}
	resp := llmsdk.Response{
		Model:        "test-model",
		Message:      llmsdk.Message{Role: llmsdk.RoleAssistant},
		ToolCalls:    []llmsdk.ToolCall{call},
		FinishReason: llmsdk.FinishReasonToolCalls,
	}
	adapter.EnqueueComplete(resp, nil)
}

func TestE2E_FatalFailureInToolBecomesRunError(t *testing.T) {
	adapter := &llmmock.Adapter{}
	enqueueToolCall(adapter, "ReadFile", "call-1")

	mem := memory.NewMemorySink(0)
	callback := diag.NewCollectorCallback(diag.NewCollector(diag.WithSink(mem)))
	wrapped := Instrument(agents.NewRunner(newMockClient(adapter)), WithCallback(callback))

	tool := agents.Tool{
		Name: "ReadFile",
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			ctx = diag.WithContext(ctx, "reading file", diag.V("args", string(args)))
			diag.Require(ctx, false, "path is allowed")
			return "", nil
		},
	}
	agent := agents.NewAgent(agents.AgentConfig{
		Name:         "e2e-agent",
		Instructions: "be helpful",
		Model:        "test-model",
		Tools:        []agents.Tool{tool},
	})

	spy := &mockRunHooks{}
	_, err := wrapped.Run(context.Background(), agent, "read it", nil, &agents.RunConfig{Hooks: spy, MaxTurns: 2})

	var f *diag.Failure
	if !errors.As(err, &f) {
		t.Fatalf("Run error = %v, want *diag.Failure", err)
	}
	if len(f.Context) != 2 {
		t.Fatalf("Context = %v, want agent run and tool entries", f.Context)
	}
	if !strings.HasPrefix(f.Context[0].Message, "running agent; agent = e2e-agent") {
		t.Errorf("outer context = %q", f.Context[0].Message)
	}
	if !strings.HasPrefix(f.Context[1].Message, "reading file") {
		t.Errorf("inner context = %q", f.Context[1].Message)
	}

	events := mem.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 recorded event, got %d", len(events))
	}
	if events[0].Severity != diag.SeverityFatal || events[0].RunID == "" {
		t.Errorf("event = %+v", events[0])
	}
	if !spy.toolStartCalled || !spy.llmStartCalled {
		t.Error("inner hooks should still run")
	}
}

func TestE2E_LLMErrorIsLoggedAndReturned(t *testing.T) {
	adapter := &llmmock.Adapter{}
	adapter.EnqueueComplete(llmsdk.Response{}, errors.New("llm failed"))

	mem := memory.NewMemorySink(0)
	callback := diag.NewCollectorCallback(diag.NewCollector(diag.WithSink(mem)))
	wrapped := Instrument(agents.NewRunner(newMockClient(adapter)), WithCallback(callback))

	agent := agents.NewAgent(agents.AgentConfig{
		Name:         "context-agent",
		Instructions: "be helpful",
		Model:        "test-model",
	})

	contextID := uint64(424242)
	ctx := diag.WithContextID(context.Background(), contextID)

	_, err := wrapped.Run(ctx, agent, "hi", nil, nil)
	if err == nil {
		t.Fatal("expected llm error")
	}
	var f *diag.Failure
	if errors.As(err, &f) {
		t.Fatalf("ordinary run errors must not become failures: %v", err)
	}

	events := mem.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 captured event, got %d", len(events))
	}
	e := events[0]
	if e.ErrorType != diag.ErrorTypeLog || e.Severity != diag.SeverityError {
		t.Errorf("event type/severity = %s/%v", e.ErrorType, e.Severity)
	}
	if !strings.HasPrefix(e.Message, "agent run failed; error = ") {
		t.Errorf("Message = %q", e.Message)
	}
	if e.ContextID == nil || *e.ContextID != contextID {
		t.Errorf("ContextID = %v, want %d", e.ContextID, contextID)
	}
}
