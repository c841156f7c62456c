// Package security provides sanitization and limits for values bulkdock passes
// to the scheduler or records.
package security

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Limits
const (
	// MaxJobNameLength bounds encoded job names; the store column holds 255.
	MaxJobNameLength = 255

	// MaxAttempts is the hard limit for placement attempts per item.
	MaxAttempts = 100

	// MaxMessageLength is the maximum length for recorded failure reasons.
	MaxMessageLength = 4096
)

// ErrJobNameTooLong is returned for job names over MaxJobNameLength.
var ErrJobNameTooLong = errors.New("job name exceeds maximum length")

// ValidateJobNameLength rejects job names the store cannot hold.
func ValidateJobNameLength(name string) error {
	if len(name) > MaxJobNameLength {
		return ErrJobNameTooLong
	}
	return nil
}

// SanitizeMessage strips control characters and truncates to MaxMessageLength.
func SanitizeMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxMessageLength-3]) + "..."
	}

	return result
}

// ClampAttempts keeps an attempt count within [1, MaxAttempts].
func ClampAttempts(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxAttempts {
		return MaxAttempts
	}
	return n
}
