// hooks.go implements RunHooks that log agent activity through diag.

package agentssdk

import (
	"context"

	"github.com/strongdm/ai-agents-sdk/pkg/agents"
	llmsdk "github.com/strongdm/ai-llm-sdk/pkg/llm"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
)

// HookAdapter implements agents.RunHooks. It emits debug and info lines
// through the active diag Callback and delegates to inner hooks.
type HookAdapter struct {
	inner agents.RunHooks
}

// NewHookAdapter wraps existing hooks; inner may be nil. Only errors from
// inner are returned.
func NewHookAdapter(inner agents.RunHooks) agents.RunHooks {
	return &HookAdapter{inner: inner}
}

func (h *HookAdapter) OnAgentStart(ctx context.Context, runCtx *agents.AgentHookContext, agent *agents.Agent) error {
	diag.Log(ctx, diag.SeverityDebug, "agent started", diag.V("agent", agentName(agent)))

	if h.inner != nil {
		return h.inner.OnAgentStart(ctx, runCtx, agent)
	}
	return nil
}

func (h *HookAdapter) OnAgentEnd(ctx context.Context, runCtx *agents.AgentHookContext, agent *agents.Agent, result agents.RunResult) error {
	if h.inner != nil {
		return h.inner.OnAgentEnd(ctx, runCtx, agent, result)
	}
	return nil
}

func (h *HookAdapter) OnHandoff(ctx context.Context, runCtx *agents.RunContext, from *agents.Agent, to *agents.Agent) error {
	diag.Log(ctx, diag.SeverityInfo, "agent handoff", diag.V("from", agentName(from)), diag.V("to", agentName(to)))

	if h.inner != nil {
		return h.inner.OnHandoff(ctx, runCtx, from, to)
	}
	return nil
}

func (h *HookAdapter) OnToolStart(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, tool agents.Tool, call llmsdk.ToolCall) error {
	diag.Log(ctx, diag.SeverityDebug, "tool call",
		diag.V("agent", agentName(agent)),
		diag.V("tool", tool.Name),
		diag.V("call_id", call.ID),
	)

	if h.inner != nil {
		return h.inner.OnToolStart(ctx, runCtx, agent, tool, call)
	}
	return nil
}

func (h *HookAdapter) OnToolEnd(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, tool agents.Tool, output string) error {
	if h.inner != nil {
		return h.inner.OnToolEnd(ctx, runCtx, agent, tool, output)
	}
	return nil
}

func (h *HookAdapter) OnLLMStart(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, req llmsdk.Request) error {
	diag.Log(ctx, diag.SeverityDebug, "llm request",
		diag.V("agent", agentName(agent)),
		diag.V("model", req.Model),
	)

	if h.inner != nil {
		return h.inner.OnLLMStart(ctx, runCtx, agent, req)
	}
	return nil
}

func (h *HookAdapter) OnLLMEnd(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, resp llmsdk.Response) error {
	if h.inner != nil {
		return h.inner.OnLLMEnd(ctx, runCtx, agent, resp)
	}
	return nil
}
