// location.go captures source locations of diagnostic call sites.

package diag

import (
	"runtime"
	"strconv"
)

// Location is a source position.
type Location struct {
	File string
	Line int
}

// String renders the location as "<file>:<line>".
func (l Location) String() string {
	return l.File + ":" + strconv.Itoa(l.Line)
}

// Here returns the location of its caller.
func Here() Location {
	return callerLocation(1)
}

// callerLocation returns the location skip frames above its caller.
// callerLocation(0) is the function calling callerLocation.
func callerLocation(skip int) Location {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Location{File: "???", Line: 0}
	}
	return Location{File: file, Line: line}
}
