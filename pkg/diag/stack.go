// stack.go captures backtraces for failure records.

package diag

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Frame is a single resolved call site.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Stack is a backtrace, most recent call first.
type Stack []Frame

// maxStackDepth bounds the frames captured per failure.
const maxStackDepth = 64

// captureStack records the stack above its caller, skipping skip additional
// frames. captureStack(0) starts at the function calling captureStack.
func captureStack(skip int) Stack {
	pc := make([]uintptr, maxStackDepth)
	// +2: runtime.Callers and captureStack itself.
	n := runtime.Callers(skip+2, pc)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pc[:n])
	out := make(Stack, 0, n)
	for {
		fr, more := frames.Next()
		out = append(out, Frame{
			Function: fr.Function,
			File:     fr.File,
			Line:     fr.Line,
		})
		if !more {
			break
		}
	}
	return out
}

// String renders the stack in the layout of runtime/debug.Stack:
// a function line followed by a tab-indented file:line line.
func (s Stack) String() string {
	var b strings.Builder
	s.writeTo(&b)
	return b.String()
}

func (s Stack) writeTo(w io.Writer) {
	for _, fr := range s {
		_, _ = fmt.Fprintf(w, "%s()\n\t%s:%d\n", fr.Function, fr.File, fr.Line)
	}
}
