// Package diag provides structured diagnostics and failure escalation for
// low-level Go code.
//
// Code states its runtime expectations with Assert and Require, wraps OS
// calls with Syscall, and emits severity-leveled log lines with Log. When an
// expectation is violated the failure is not hard-wired to a specific action:
// it is rendered into a Failure and escalated to the active Callback, which
// decides what happens next.
//
// # Core Components
//
//   - Severity: ordered log levels and the process-wide threshold
//   - Callback: the pluggable failure policy (recoverable, fatal, log lines)
//   - Registration stack: WithCallback scopes a Callback to a context
//   - Context chain: WithContext annotates what the enclosing code is doing
//   - Failure: the immutable record handed to the Callback
//   - Collector and Sink: deliver failures and log lines to external systems
//
// # Recoverable and Fatal Failures
//
// Every check comes in two forms. The plain form (Assert, Require, Fail,
// Syscall) is fatal: the active Callback's OnFatal must not return, so the
// code after a failed check never runs. The "Or" form (AssertOr, RequireOr,
// FailOr, SyscallOr) takes a fallback; OnRecoverable is called, and once it
// returns the fallback runs and execution continues.
//
//	diag.Require(ctx, n >= 0, "n >= 0", diag.V("n", n))
//
//	diag.AssertOr(ctx, len(buf) <= max, "len(buf) <= max", func() {
//	    buf = buf[:max]
//	}, diag.V("len", len(buf)))
//
// # Scoping
//
// The registration stack and the context chain live on context.Context.
// Each WithCallback or WithContext returns a derived context; leaving the
// block that uses it pops the entry, on every exit path.
//
//	ctx = diag.WithContext(ctx, "loading segment", diag.V("path", path))
//	fd := diag.Syscall(ctx, "open(path)", func() (int, error) {
//	    return unix.Open(path, unix.O_RDONLY, 0)
//	})
//
// # Quick Start
//
//	collector := diag.NewCollector(
//	    diag.WithSink(stderr.NewStderrSink()),
//	    diag.WithDefaultScrubbing(),
//	)
//	ctx = diag.WithCallback(ctx, diag.NewCollectorCallback(collector))
//	defer diag.Recover(&err)
package diag
