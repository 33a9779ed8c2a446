// failure.go defines the record describing one failed check.

package diag

import (
	"fmt"
	"io"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	// KindBug is an internal invariant violation (Assert).
	KindBug Kind = iota

	// KindRequirement is a caller-supplied precondition violation (Require).
	KindRequirement

	// KindOSError is a system call that failed with something other than EINTR.
	KindOSError

	// KindExplicit is an unconditional failure point (Fail).
	KindExplicit
)

// Phrase returns the text that introduces a failure of this kind.
// KindExplicit has no phrase.
func (k Kind) Phrase() string {
	switch k {
	case KindBug:
		return "bug in code"
	case KindRequirement:
		return "requirement not met"
	case KindOSError:
		return "error from OS"
	default:
		return ""
	}
}

// String returns a short identifier for the kind, used as an event type.
func (k Kind) String() string {
	switch k {
	case KindBug:
		return "bug"
	case KindRequirement:
		return "requirement"
	case KindOSError:
		return "os_error"
	case KindExplicit:
		return "failure"
	default:
		return "unknown"
	}
}

// Failure describes one failed check. It is built once, handed to the
// active Callback and never modified afterwards; a Callback that needs it
// beyond the call may keep the pointer.
//
// Failure implements error. Error returns the context lines followed by the
// failure line; the %+v verb adds the stack trace.
type Failure struct {
	Kind     Kind
	Location Location

	// Condition is the source text of the failed expression. For OS errors it
	// holds the call text. Empty for unconditional failures.
	Condition string

	// Description is the failure line without the location prefix.
	Description string

	Details []Detail
	Context []ContextEntry
	Stack   Stack

	// Err is the OS error behind a KindOSError failure.
	Err error
}

// newFailure renders the description and snapshots the context chain.
func newFailure(kind Kind, loc Location, condition string, osErr error, details []Detail, trace []ContextEntry, stack Stack) *Failure {
	return &Failure{
		Kind:        kind,
		Location:    loc,
		Condition:   condition,
		Description: describe(kind, condition, osErr, details),
		Details:     details,
		Context:     trace,
		Stack:       stack,
		Err:         osErr,
	}
}

// describe builds the failure line:
//
//	bug in code: expected <cond>[; detail...]
//	bug in code: <detail>[; detail...]
//	error from OS: <call>: <strerror>[; detail...]
//	<detail>[; detail...]
func describe(kind Kind, condition string, osErr error, details []Detail) string {
	var head string
	phrase := kind.Phrase()
	switch {
	case kind == KindOSError:
		head = phrase + ": " + condition
		if osErr != nil {
			head += ": " + osErr.Error()
		}
		return joinMessage(head, details)
	case condition != "":
		head = phrase + ": expected " + condition
		return joinMessage(head, details)
	case phrase != "":
		rest := joinDetails(details)
		if rest == "" {
			return phrase
		}
		return phrase + ": " + rest
	default:
		return joinDetails(details)
	}
}

// Line returns the failure line: "<file>:<line>: <description>".
func (f *Failure) Line() string {
	return f.Location.String() + ": " + f.Description
}

// Error renders the context lines outer-to-inner, then the failure line.
func (f *Failure) Error() string {
	if len(f.Context) == 0 {
		return f.Line()
	}
	var b strings.Builder
	for _, c := range f.Context {
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	b.WriteString(f.Line())
	return b.String()
}

// Unwrap returns the OS error, if any.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Format implements fmt.Formatter. %+v appends the stack trace.
func (f *Failure) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		_, _ = io.WriteString(s, f.Error())
		if s.Flag('+') && len(f.Stack) > 0 {
			_, _ = io.WriteString(s, "\nstack:\n")
			f.Stack.writeTo(s)
		}
	case 's':
		_, _ = io.WriteString(s, f.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", f.Error())
	}
}
