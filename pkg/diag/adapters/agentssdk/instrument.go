// instrument.go provides the Instrument entry point.

package agentssdk

import (
	"log"

	"github.com/strongdm/ai-agents-sdk/pkg/agents"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
)

// WrapOption configures a WrappedRunner.
type WrapOption func(*WrappedRunner)

// WithLogger sets the logger for runs aborted by a fatal failure.
func WithLogger(logger *log.Logger) WrapOption {
	return func(w *WrappedRunner) {
		w.logger = logger
	}
}

// WithCallback registers cb for the duration of every run.
func WithCallback(cb diag.Callback) WrapOption {
	return func(w *WrappedRunner) {
		w.callback = cb
	}
}

// Instrument wraps a Runner so every run executes in a diag scope.
//
// Example:
//
//	collector := diag.NewCollector(diag.WithSink(sink))
//	runner := agents.NewRunner(client)
//	wrapped := agentssdk.Instrument(runner, agentssdk.WithCallback(diag.NewCollectorCallback(collector)))
//	result, err := wrapped.Run(ctx, agent, input, session, nil)
func Instrument(baseRunner *agents.Runner, opts ...WrapOption) *WrappedRunner {
	w := &WrappedRunner{
		inner:   baseRunner,
		run:     baseRunner.Run,
		runOnce: baseRunner.RunOnce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}
