// wrapper.go implements WrappedRunner around agents.Runner.

package agentssdk

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/strongdm/ai-agents-sdk/pkg/agents"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
)

type runFunc func(ctx context.Context, agent *agents.Agent, input string, session agents.Session, cfg *agents.RunConfig) (agents.RunResult, error)

// WrappedRunner wraps an agents.Runner so each run executes in a diag scope.
type WrappedRunner struct {
	inner    *agents.Runner
	callback diag.Callback
	logger   *log.Logger

	run     runFunc
	runOnce func(ctx context.Context, agent *agents.Agent, input string, cfg *agents.RunConfig) (agents.RunResult, error)
}

// Run executes the agent in a diag scope. A fatal failure escalated during
// the run is returned as a *diag.Failure error.
func (w *WrappedRunner) Run(ctx context.Context, agent *agents.Agent, input string, session agents.Session, cfg *agents.RunConfig) (result agents.RunResult, err error) {
	ctx = w.scope(ctx, agent, session)
	defer w.finish(ctx, &err)

	return w.run(ctx, agent, input, session, w.wrapRunConfig(cfg))
}

// RunOnce executes a single turn of the agent in a diag scope.
func (w *WrappedRunner) RunOnce(ctx context.Context, agent *agents.Agent, input string, cfg *agents.RunConfig) (result agents.RunResult, err error) {
	ctx = w.scope(ctx, agent, nil)
	defer w.finish(ctx, &err)

	return w.runOnce(ctx, agent, input, w.wrapRunConfig(cfg))
}

// RunStream starts a streaming run. Only failures while starting the stream
// are converted; the stream itself outlives this call.
func (w *WrappedRunner) RunStream(ctx context.Context, agent *agents.Agent, input string, session agents.Session, cfg *agents.RunConfig) (stream *agents.StreamingRun, err error) {
	ctx = w.scope(ctx, agent, session)
	defer w.finish(ctx, &err)

	return w.inner.RunStream(ctx, agent, input, session, w.wrapRunConfig(cfg))
}

// scope attaches the run ID, cxdb context ID, context entry and callback.
func (w *WrappedRunner) scope(ctx context.Context, agent *agents.Agent, session agents.Session) context.Context {
	runID := uuid.New().String()
	ctx = diag.WithRunID(ctx, runID)

	if _, ok := diag.ContextIDFromContext(ctx); !ok {
		if id, ok := contextIDFromSession(ctx, session); ok {
			ctx = diag.WithContextID(ctx, id)
		}
	}

	if w.callback != nil {
		ctx = diag.WithCallback(ctx, w.callback)
	}

	return diag.WithContext(ctx, "running agent", diag.V("agent", agentName(agent)), diag.V("run_id", runID))
}

// finish converts a fatal escalation into *errp and logs run errors.
// It must be deferred directly so recover sees the panic.
func (w *WrappedRunner) finish(ctx context.Context, errp *error) {
	if r := recover(); r != nil {
		f, ok := r.(*diag.Failure)
		if err, isErr := r.(error); !ok && isErr {
			ok = errors.As(err, &f)
		}
		if !ok {
			panic(r)
		}
		w.logf("diag: agent run aborted: %s", f.Line())
		*errp = f
		return
	}
	if *errp != nil {
		diag.Log(ctx, diag.SeverityError, "agent run failed", diag.V("error", *errp))
	}
}

// contextIDFromSession asks the session for its cxdb context ID when it
// implements diag.ContextIDProvider.
func contextIDFromSession(ctx context.Context, session any) (uint64, bool) {
	provider, ok := session.(diag.ContextIDProvider)
	if !ok {
		return 0, false
	}
	id, err := provider.ContextID(ctx)
	if err != nil {
		return 0, false
	}
	return id, true
}

// wrapRunConfig clones cfg and wraps hooks with HookAdapter.
func (w *WrappedRunner) wrapRunConfig(cfg *agents.RunConfig) *agents.RunConfig {
	var cloned agents.RunConfig
	if cfg != nil {
		cloned = *cfg
	}
	cloned.Hooks = NewHookAdapter(cloned.Hooks)
	return &cloned
}

func (w *WrappedRunner) logf(format string, args ...any) {
	if w.logger != nil {
		w.logger.Printf(format, args...)
	}
}

func agentName(agent *agents.Agent) string {
	if agent == nil {
		return "<nil>"
	}
	return agent.Name()
}

// Inner returns the underlying Runner for advanced usage.
func (w *WrappedRunner) Inner() *agents.Runner {
	return w.inner
}
