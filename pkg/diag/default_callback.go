// default_callback.go implements the Callback active when none is registered.

package diag

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// FatalPolicy selects how a Callback honors the "OnFatal must not return"
// contract.
type FatalPolicy int

const (
	// FatalPanic panics with the *Failure. Recover and Catch turn it back
	// into an error; uncaught, it terminates the program.
	FatalPanic FatalPolicy = iota

	// FatalExit terminates the process with exit status 1.
	FatalExit
)

// String returns the policy name used in configuration.
func (p FatalPolicy) String() string {
	switch p {
	case FatalPanic:
		return "panic"
	case FatalExit:
		return "exit"
	default:
		return "unknown"
	}
}

// ParseFatalPolicy parses "panic" or "exit".
func ParseFatalPolicy(name string) (FatalPolicy, error) {
	switch name {
	case "panic", "":
		return FatalPanic, nil
	case "exit":
		return FatalExit, nil
	default:
		return FatalPanic, fmt.Errorf("unknown fatal policy %q", name)
	}
}

// apply carries out the policy. It does not return.
func (p FatalPolicy) apply(f *Failure, exit func(int)) {
	if p == FatalExit {
		exit(1)
	}
	panic(f)
}

// DefaultCallbackOption configures the default callback.
type DefaultCallbackOption func(*DefaultCallback)

// WithWriter sets the destination for rendered output (default: os.Stderr).
func WithWriter(w io.Writer) DefaultCallbackOption {
	return func(c *DefaultCallback) {
		c.w = w
	}
}

// WithFatalPolicy sets what OnFatal does after printing (default: FatalPanic).
func WithFatalPolicy(p FatalPolicy) DefaultCallbackOption {
	return func(c *DefaultCallback) {
		c.policy = p
	}
}

// WithVerbose includes stack traces in printed failures.
func WithVerbose() DefaultCallbackOption {
	return func(c *DefaultCallback) {
		c.verbose = true
	}
}

// WithExitFunc replaces os.Exit for FatalExit.
func WithExitFunc(exit func(int)) DefaultCallbackOption {
	return func(c *DefaultCallback) {
		if exit != nil {
			c.exit = exit
		}
	}
}

// DefaultCallback prints failures and log lines to a writer.
type DefaultCallback struct {
	mu      sync.Mutex
	w       io.Writer
	policy  FatalPolicy
	verbose bool
	exit    func(int)
}

// NewDefaultCallback creates a callback that prints to stderr.
func NewDefaultCallback(opts ...DefaultCallbackOption) *DefaultCallback {
	c := &DefaultCallback{
		w:      os.Stderr,
		policy: FatalPanic,
		exit:   os.Exit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnRecoverable prints the failure and returns.
func (c *DefaultCallback) OnRecoverable(ctx context.Context, f *Failure) {
	c.print(f)
}

// OnFatal prints the failure, then panics or exits per the fatal policy.
func (c *DefaultCallback) OnFatal(ctx context.Context, f *Failure) {
	c.print(f)
	c.policy.apply(f, c.exit)
}

// LogMessage writes the line as is.
func (c *DefaultCallback) LogMessage(ctx context.Context, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.w, text)
}

func (c *DefaultCallback) print(f *Failure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.verbose {
		_, _ = fmt.Fprintf(c.w, "%+v\n", f)
		return
	}
	_, _ = fmt.Fprintf(c.w, "%v\n", f)
}
