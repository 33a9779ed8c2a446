// check.go implements the check/escalation engine and its public entry points.

package diag

import (
	"context"
	"errors"
	"fmt"
)

// ErrFatalReturned is the panic value's cause when a Callback's OnFatal
// returns instead of panicking or terminating.
var ErrFatalReturned = errors.New("diag: Callback.OnFatal returned")

// escalation is everything the engine needs to dispatch one failed check.
type escalation struct {
	kind      Kind
	condition string
	osErr     error
	loc       Location
	details   []Detail
	fallback  func()
}

// escalate builds the Failure and hands it to the active Callback. With a
// fallback the failure is recoverable: once OnRecoverable returns, the
// fallback runs exactly once. Without one OnFatal must not return.
//
// skip is the number of frames between escalate's caller and the user call
// site; the captured stack starts at the user call site.
func escalate(ctx context.Context, e escalation, skip int) *Failure {
	f := newFailure(e.kind, e.loc, e.condition, e.osErr, e.details, ContextTrace(ctx), captureStack(skip+1))
	cb := ActiveCallback(ctx)

	if e.fallback != nil {
		cb.OnRecoverable(ctx, f)
		e.fallback()
		return f
	}

	cb.OnFatal(ctx, f)
	panic(fmt.Errorf("%w: %s", ErrFatalReturned, f.Line()))
}

// Assert escalates a bug when cond is false. It is fatal: if cond is false,
// Assert does not return.
//
//	diag.Assert(ctx, n <= cap(buf), "n <= cap(buf)", diag.V("n", n))
func Assert(ctx context.Context, cond bool, condText string, details ...Detail) {
	if cond {
		return
	}
	escalate(ctx, escalation{kind: KindBug, condition: condText, loc: callerLocation(1), details: details}, 1)
}

// AssertOr is Assert with a fallback. If cond is false the active Callback's
// OnRecoverable is called, then fallback runs and AssertOr returns. A nil
// fallback makes the failure fatal.
func AssertOr(ctx context.Context, cond bool, condText string, fallback func(), details ...Detail) {
	if cond {
		return
	}
	escalate(ctx, escalation{kind: KindBug, condition: condText, loc: callerLocation(1), details: details, fallback: fallback}, 1)
}

// Require escalates an unmet precondition when cond is false. It is fatal.
func Require(ctx context.Context, cond bool, condText string, details ...Detail) {
	if cond {
		return
	}
	escalate(ctx, escalation{kind: KindRequirement, condition: condText, loc: callerLocation(1), details: details}, 1)
}

// RequireOr is Require with a fallback; see AssertOr.
func RequireOr(ctx context.Context, cond bool, condText string, fallback func(), details ...Detail) {
	if cond {
		return
	}
	escalate(ctx, escalation{kind: KindRequirement, condition: condText, loc: callerLocation(1), details: details, fallback: fallback}, 1)
}

// FailAssert unconditionally escalates a bug. It does not return.
// The failure line reads "bug in code: <details>".
func FailAssert(ctx context.Context, details ...Detail) {
	escalate(ctx, escalation{kind: KindBug, loc: callerLocation(1), details: details}, 1)
}

// FailRequire unconditionally escalates an unmet requirement.
// It does not return.
func FailRequire(ctx context.Context, details ...Detail) {
	escalate(ctx, escalation{kind: KindRequirement, loc: callerLocation(1), details: details}, 1)
}

// Fail is an explicit failure point. The failure line is just the details.
// It does not return.
func Fail(ctx context.Context, details ...Detail) {
	escalate(ctx, escalation{kind: KindExplicit, loc: callerLocation(1), details: details}, 1)
}

// FailOr is Fail with a fallback; see AssertOr.
func FailOr(ctx context.Context, fallback func(), details ...Detail) {
	escalate(ctx, escalation{kind: KindExplicit, loc: callerLocation(1), details: details, fallback: fallback}, 1)
}

// Log emits a log line through the active Callback if sev passes the
// threshold. Below the threshold nothing is rendered.
//
// The line reads "<severity>: <file>:<line>: <message>[; detail...]\n".
func Log(ctx context.Context, sev Severity, message string, details ...Detail) {
	if !ShouldLog(sev) {
		return
	}
	logAt(ctx, sev, callerLocation(1), message, details)
}

// Debug emits a debug line regardless of the threshold. It is meant for
// temporary debugging output, not for code that is checked in.
func Debug(ctx context.Context, message string, details ...Detail) {
	logAt(ctx, SeverityDebug, callerLocation(1), message, details)
}

func logAt(ctx context.Context, sev Severity, loc Location, message string, details []Detail) {
	text := sev.String() + ": " + loc.String() + ": " + joinMessage(message, details) + "\n"
	ActiveCallback(ctx).LogMessage(ctx, text)
}
