// callback.go defines the pluggable failure policy and its registration stack.

package diag

import "context"

// Callback decides what happens when a check fails or a log line is emitted.
type Callback interface {
	// OnRecoverable is called for a failed check that has a fallback.
	// It must return; the caller's fallback runs afterwards.
	OnRecoverable(ctx context.Context, f *Failure)

	// OnFatal is called for a failed check without a fallback.
	// It must not return: it panics (typically with f) or ends the process.
	// If it returns anyway the engine panics with ErrFatalReturned.
	OnFatal(ctx context.Context, f *Failure)

	// LogMessage receives a rendered, threshold-filtered log line
	// ending in "\n".
	LogMessage(ctx context.Context, text string)
}

type registrationKey struct{}

// registration is one entry of the registration stack.
type registration struct {
	callback Callback
	prev     *registration
	depth    int
}

// defaultCallback is active when nothing is registered.
var defaultCallback Callback = NewDefaultCallback()

// WithCallback returns a context in which cb is the active Callback.
// The previously active Callback is inert until code returns to using ctx.
func WithCallback(ctx context.Context, cb Callback) context.Context {
	prev := topRegistration(ctx)
	reg := &registration{callback: cb, prev: prev, depth: 1}
	if prev != nil {
		reg.depth = prev.depth + 1
	}
	return context.WithValue(ctx, registrationKey{}, reg)
}

func topRegistration(ctx context.Context) *registration {
	reg, _ := ctx.Value(registrationKey{}).(*registration)
	return reg
}

// ActiveCallback returns the most recently registered Callback on ctx, or
// the built-in default when none is registered.
func ActiveCallback(ctx context.Context) Callback {
	if reg := topRegistration(ctx); reg != nil {
		return reg.callback
	}
	return defaultCallback
}

// RegistrationDepth returns the number of registrations on ctx.
func RegistrationDepth(ctx context.Context) int {
	if reg := topRegistration(ctx); reg != nil {
		return reg.depth
	}
	return 0
}
