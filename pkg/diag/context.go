// context.go carries the context chain and correlation IDs on context.Context.

package diag

import "context"

// Context key types (unexported to avoid collisions)
type contextChainKey struct{}
type runIDKey struct{}
type contextIDKey struct{}

// contextIDSet is used to distinguish "zero value" from "not set"
type contextIDSet struct {
	id uint64
}

// ContextEntry is one annotation of the context chain.
type ContextEntry struct {
	Location Location

	// Message is the annotation followed by its "; "-joined details.
	Message string
}

// String renders the entry as "<file>:<line>: context: <message>".
func (e ContextEntry) String() string {
	return e.Location.String() + ": context: " + e.Message
}

// contextNode links an entry to the previous top of the chain.
type contextNode struct {
	entry ContextEntry
	prev  *contextNode
	depth int
}

// WithContext returns a context whose chain has one more entry describing
// what the calling code is doing. Failures rendered with the returned
// context list the entry; code that goes back to using ctx no longer does.
func WithContext(ctx context.Context, message string, details ...Detail) context.Context {
	return withContextAt(ctx, callerLocation(1), message, details)
}

func withContextAt(ctx context.Context, loc Location, message string, details []Detail) context.Context {
	prev := topContext(ctx)
	node := &contextNode{
		entry: ContextEntry{
			Location: loc,
			Message:  joinMessage(message, details),
		},
		prev: prev,
	}
	if prev != nil {
		node.depth = prev.depth + 1
	}
	return context.WithValue(ctx, contextChainKey{}, node)
}

func topContext(ctx context.Context) *contextNode {
	node, _ := ctx.Value(contextChainKey{}).(*contextNode)
	return node
}

// ContextTrace returns a snapshot of the context chain, oldest entry first.
func ContextTrace(ctx context.Context) []ContextEntry {
	top := topContext(ctx)
	if top == nil {
		return nil
	}
	trace := make([]ContextEntry, top.depth+1)
	for n := top; n != nil; n = n.prev {
		trace[n.depth] = n.entry
	}
	return trace
}

// WithRunID returns a context with the run ID attached.
// The run ID correlates events recorded during one logical run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext extracts the run ID from context.
// Returns empty string and false if not set or if the run ID is empty.
func RunIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(runIDKey{})
	id, ok := v.(string)
	return id, ok && id != ""
}

// WithContextID returns a context with the cxdb context ID attached.
// Events recorded under it are linked to that conversation context.
func WithContextID(ctx context.Context, contextID uint64) context.Context {
	return context.WithValue(ctx, contextIDKey{}, contextIDSet{id: contextID})
}

// ContextIDFromContext extracts the cxdb context ID from context.
// Returns 0 and false if not set.
func ContextIDFromContext(ctx context.Context) (uint64, bool) {
	v := ctx.Value(contextIDKey{})
	if v == nil {
		return 0, false
	}
	set, ok := v.(contextIDSet)
	if !ok {
		return 0, false
	}
	return set.id, true
}

// ContextIDProvider is an optional interface that session implementations can
// satisfy to enable automatic context linkage for events.
type ContextIDProvider interface {
	ContextID(ctx context.Context) (uint64, error)
}
