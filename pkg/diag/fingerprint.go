// fingerprint.go generates stable hashes for grouping similar events.

package diag

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"
)

// Fingerprint generates a hash for grouping similar events.
// The fingerprint is based on:
//   - error type, condition and source file name
//   - First 3 stack frames (function names only, normalized)
//
// It ignores variable data like timestamps, event IDs, messages (which carry
// rendered values), line numbers and memory addresses.
func Fingerprint(event ErrorEvent) string {
	var parts []string
	parts = append(parts, event.ErrorType)
	parts = append(parts, event.Condition)
	if event.File != "" {
		parts = append(parts, filepath.Base(event.File))
	} else {
		parts = append(parts, "")
	}

	frames := normalizeStackTrace(event.StackTrace)
	parts = append(parts, frames...)

	input := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(input))

	// Return hex-encoded first 16 bytes (32 hex chars)
	return hex.EncodeToString(hash[:16])
}

// Regex patterns for stack trace parsing
var (
	// Match function names like "main.doSomething" or "pkg/subpkg.Function"
	funcNamePattern = regexp.MustCompile(`^([a-zA-Z0-9_./\[\]*()-]+\.[a-zA-Z0-9_\[\]]+)`)

	// Match memory addresses like "0x1234abcd"
	memAddrPattern = regexp.MustCompile(`0x[0-9a-fA-F]+`)

	// Match offset patterns like "+0x123"
	offsetPattern = regexp.MustCompile(`\+0x[0-9a-fA-F]+`)
)

// normalizeStackTrace extracts the first 3 function names from a stack trace,
// stripping line numbers, memory addresses, and other variable data.
func normalizeStackTrace(trace string) []string {
	if trace == "" {
		return nil
	}

	var frames []string
	for _, line := range strings.Split(trace, "\n") {
		// File path lines are tab-indented
		if strings.HasPrefix(line, "\t") {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "goroutine ") || strings.HasPrefix(line, "/") {
			continue
		}

		funcLine := offsetPattern.ReplaceAllString(line, "")
		funcLine = memAddrPattern.ReplaceAllString(funcLine, "")

		// Strip the argument list: "pkg.Func(0x1, 0x2)" -> "pkg.Func"
		if idx := strings.LastIndex(funcLine, "("); idx > 0 && strings.HasSuffix(funcLine, ")") {
			funcLine = funcLine[:idx]
		}

		funcLine = strings.TrimSpace(funcLine)
		if funcLine == "" {
			continue
		}

		if match := funcNamePattern.FindString(funcLine); match != "" {
			frames = append(frames, match)
			if len(frames) >= 3 {
				break
			}
		}
	}

	return frames
}
