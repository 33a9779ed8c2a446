// scrubber.go implements fail-closed sensitive data redaction for events.

package diag

import (
	"regexp"
	"strings"
)

// ScrubberConfig controls scrubbing behavior.
type ScrubberConfig struct {
	// SensitivePatterns contains additional regex patterns for sensitive metadata keys.
	SensitivePatterns []string

	// MaxMessageSize is the maximum length for messages and context lines (default: 4096).
	MaxMessageSize int

	// MaxStackTraceSize is the maximum length for stack traces (default: 32768).
	MaxStackTraceSize int

	// MaxMetadataValueSize is the maximum size per metadata value (default: 1024).
	MaxMetadataValueSize int

	// ScrubMessages enables scrubbing of messages for secrets/PII (default: true).
	ScrubMessages bool
}

// DefaultScrubberConfig returns production-safe defaults.
func DefaultScrubberConfig() ScrubberConfig {
	return ScrubberConfig{
		MaxMessageSize:       4096,
		MaxStackTraceSize:    32768,
		MaxMetadataValueSize: 1024,
		ScrubMessages:        true,
	}
}

// Compiled regex patterns for message scrubbing (compiled once at package init)
var messageScrubPatterns = []*regexp.Regexp{
	// API keys and tokens
	regexp.MustCompile(`(?i)(api[_-]?key|token)[=:\s]+['"]?[\w\-\.]+['"]?`),
	regexp.MustCompile(`(?i)(authorization|bearer)[=:\s]+['"]?[\w\-\.]+['"]?[\s]+['"]?[\w\-\.]+['"]?`), // Authorization: Bearer <token>
	regexp.MustCompile(`(?i)sk-[a-zA-Z0-9_-]{20,}`),                                // OpenAI-style keys (including sk-proj-)
	regexp.MustCompile(`(?i)ghp_[a-zA-Z0-9]{36}`),                                  // GitHub tokens
	regexp.MustCompile(`(?i)github_pat_[a-zA-Z0-9_]{22,}`),                         // GitHub PAT
	regexp.MustCompile(`(?i)xox[baprs]-[a-zA-Z0-9\-]{10,}`),                        // Slack tokens
	regexp.MustCompile(`(?i)eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), // JWT tokens

	// Credentials
	regexp.MustCompile(`(?i)password\s*[=:]\s*['"]?[^\s'";,]+['"]?`),
	regexp.MustCompile(`(?i)secret\s*[=:]\s*['"]?[^\s'";,]+['"]?`),
	regexp.MustCompile(`(?i)passwd\s*[=:]\s*['"]?[^\s'";,]+['"]?`),
	regexp.MustCompile(`(?i)credential\s*[=:]\s*['"]?[^\s'";,]+['"]?`),

	// PII
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), // Email
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),                               // SSN
	regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`),          // Credit card
}

// Sensitive metadata key patterns (case-insensitive substring match)
var sensitiveKeyPatterns = []string{
	"token",
	"key",
	"secret",
	"password",
	"credential",
	"auth",
	"passwd",
}

// Path patterns to normalize in stack traces
var pathNormalizationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/home/[^/]+/`),
	regexp.MustCompile(`/Users/[^/]+/`),
	regexp.MustCompile(`C:\\Users\\[^\\]+\\`),
}

var memAddrScrubPattern = regexp.MustCompile(`0x[0-9a-fA-F]+`)

// Scrubber redacts sensitive data from events.
type Scrubber struct {
	cfg       ScrubberConfig
	extraKeys []*regexp.Regexp
}

// NewScrubber creates a new scrubber with the given configuration.
// Invalid SensitivePatterns are ignored.
func NewScrubber(cfg ScrubberConfig) *Scrubber {
	s := &Scrubber{cfg: cfg}
	for _, p := range cfg.SensitivePatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			continue
		}
		s.extraKeys = append(s.extraKeys, re)
	}
	return s
}

// ScrubMessage scrubs sensitive patterns from a message.
func (s *Scrubber) ScrubMessage(msg string) string {
	if !s.cfg.ScrubMessages || msg == "" {
		return msg
	}

	if s.cfg.MaxMessageSize > 0 && len(msg) > s.cfg.MaxMessageSize {
		msg = truncateWithMarker(msg, s.cfg.MaxMessageSize)
	}

	result := msg
	for _, pattern := range messageScrubPatterns {
		result = pattern.ReplaceAllString(result, "[REDACTED]")
	}

	return result
}

// ScrubLines applies ScrubMessage to every line, returning a new slice.
func (s *Scrubber) ScrubLines(lines []string) []string {
	if lines == nil {
		return nil
	}
	result := make([]string, len(lines))
	for i, line := range lines {
		result[i] = s.ScrubMessage(line)
	}
	return result
}

// ScrubMetadata redacts sensitive keys from metadata.
func (s *Scrubber) ScrubMetadata(meta map[string]string) map[string]string {
	if meta == nil {
		return nil
	}

	result := make(map[string]string, len(meta))
	for key, value := range meta {
		if s.isSensitiveKey(key) {
			result[key] = "[REDACTED]"
			continue
		}
		if s.cfg.MaxMetadataValueSize > 0 && len(value) > s.cfg.MaxMetadataValueSize {
			value = truncateWithMarker(value, s.cfg.MaxMetadataValueSize)
		}
		result[key] = s.ScrubMessage(value)
	}

	return result
}

// ScrubStackTrace normalizes paths and limits stack trace size.
func (s *Scrubber) ScrubStackTrace(trace string) string {
	if trace == "" {
		return trace
	}

	result := trace
	for _, pattern := range pathNormalizationPatterns {
		result = pattern.ReplaceAllString(result, "/[PATH]/")
	}

	result = memAddrScrubPattern.ReplaceAllString(result, "0x...")

	if s.cfg.MaxStackTraceSize > 0 && len(result) > s.cfg.MaxStackTraceSize {
		result = truncateWithMarker(result, s.cfg.MaxStackTraceSize)
	}

	return result
}

// isSensitiveKey checks if a metadata key matches sensitive patterns.
func (s *Scrubber) isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	for _, re := range s.extraKeys {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// truncateWithMarker truncates a string and adds a truncation marker.
func truncateWithMarker(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	marker := "...[TRUNCATED]"
	if maxLen <= len(marker) {
		return marker[:maxLen]
	}
	return s[:maxLen-len(marker)] + marker
}
