// event.go defines the event delivered to sinks for failures and log lines.

package diag

import (
	"strconv"
	"strings"
	"time"
)

// SystemState captures system metrics at the time of an event.
type SystemState struct {
	// MemoryBytes is the current memory allocation in bytes.
	MemoryBytes int64

	// GoroutineCount is the number of active goroutines.
	GoroutineCount int

	// UptimeMs is the process uptime in milliseconds.
	UptimeMs int64

	// HostName is the hostname of the machine where the event occurred.
	HostName string

	// PID is the process ID.
	PID int

	// GoVersion is the runtime version the process was built with.
	GoVersion string
}

// ErrorTypeLog is the ErrorType of events built from log lines.
const ErrorTypeLog = "log"

// ErrorEvent is the sink-facing form of a Failure or a log line.
// The collector fills EventID, Timestamp and Fingerprint before sinks see it.
type ErrorEvent struct {
	// Identity fields

	// EventID is a unique identifier for this event (UUID).
	EventID string

	// Timestamp is when the event occurred.
	Timestamp time.Time

	// Fingerprint is a hash for grouping similar failures.
	Fingerprint string

	// Failure details

	// Severity is error for recoverable failures and fatal for fatal ones.
	// Log lines keep their own severity.
	Severity Severity

	// ErrorType is the failure kind (bug, requirement, os_error, failure)
	// or "log".
	ErrorType string

	// Message is the failure line or log message, without the location.
	Message string

	// File and Line locate the failed check or log call.
	File string
	Line int

	// Condition is the failed expression or OS call text, if any.
	Condition string

	// Context holds the rendered context chain, outer to inner.
	Context []string

	// StackTrace is the optional scrubbed stack trace.
	StackTrace string

	// Correlation

	// RunID correlates events recorded during one logical run.
	RunID string

	// ContextID is the optional cxdb context ID for linking to conversation.
	// Uses pointer to distinguish "not set" from "zero value".
	ContextID *uint64

	// SystemState captures system metrics at event time.
	SystemState *SystemState

	// Metadata contains scrubbed key-value pairs for additional context.
	// Named details of a failure are copied here.
	Metadata map[string]string
}

// EventFromFailure converts a Failure into an event of the given severity.
func EventFromFailure(f *Failure, sev Severity) ErrorEvent {
	event := ErrorEvent{
		Severity:   sev,
		ErrorType:  f.Kind.String(),
		Message:    f.Description,
		File:       f.Location.File,
		Line:       f.Location.Line,
		Condition:  f.Condition,
		StackTrace: f.Stack.String(),
	}
	for _, c := range f.Context {
		event.Context = append(event.Context, c.String())
	}
	for _, d := range f.Details {
		if d.Name == "" {
			continue
		}
		if event.Metadata == nil {
			event.Metadata = make(map[string]string)
		}
		event.Metadata[d.Name] = d.Text
	}
	return event
}

// EventFromLog parses a rendered log line
// ("<severity>: <file>:<line>: <message>\n") into an event.
// Lines that do not follow that layout become an info event with the
// whole line as the message.
func EventFromLog(text string) ErrorEvent {
	text = strings.TrimSuffix(text, "\n")
	event := ErrorEvent{
		Severity:  SeverityInfo,
		ErrorType: ErrorTypeLog,
		Message:   text,
	}

	name, rest, ok := strings.Cut(text, ": ")
	if !ok {
		return event
	}
	sev, err := ParseSeverity(name)
	if err != nil {
		return event
	}
	event.Severity = sev
	event.Message = rest

	loc, msg, ok := strings.Cut(rest, ": ")
	if !ok {
		return event
	}
	i := strings.LastIndexByte(loc, ':')
	if i < 0 {
		return event
	}
	line, err := strconv.Atoi(loc[i+1:])
	if err != nil {
		return event
	}
	event.File = loc[:i]
	event.Line = line
	event.Message = msg
	return event
}
