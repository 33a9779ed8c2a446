// severity.go defines log severities and the process-wide log threshold.

package diag

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Severity is the level of a log message or failure event.
// Lower values are more verbose.
type Severity int

const (
	// SeverityDebug is verbose output useful while developing.
	SeverityDebug Severity = iota

	// SeverityInfo is informational output about normal operation.
	SeverityInfo

	// SeverityWarning indicates something unexpected that did not fail.
	SeverityWarning

	// SeverityError indicates an operation failed.
	SeverityError

	// SeverityFatal marks events produced by fatal escalations.
	// It is never a useful log threshold.
	SeverityFatal
)

// String returns the lower-case name used in rendered log lines.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ParseSeverity parses a severity name. Matching is case-insensitive and
// accepts "warn" as an alias for "warning".
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return SeverityDebug, nil
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "fatal":
		return SeverityFatal, nil
	default:
		return SeverityWarning, fmt.Errorf("unknown severity %q", name)
	}
}

// logLevel is the process-wide threshold. Readers may observe a stale value
// for a short time after SetLogLevel; verbosity is not correctness-critical.
var logLevel atomic.Int32

func init() {
	logLevel.Store(int32(SeverityWarning))
}

// SetLogLevel sets the minimum severity emitted by Log.
func SetLogLevel(s Severity) {
	logLevel.Store(int32(s))
}

// LogLevel returns the minimum severity emitted by Log.
func LogLevel() Severity {
	return Severity(logLevel.Load())
}

// ShouldLog reports whether a message of severity s passes the threshold.
func ShouldLog(s Severity) bool {
	return s >= LogLevel()
}
