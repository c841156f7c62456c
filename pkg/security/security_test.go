package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateJobNameLength(t *testing.T) {
	assert.NoError(t, ValidateJobNameLength("BulkDock.place:3ERT:lib_split5_batch002.csv"))
	assert.NoError(t, ValidateJobNameLength(strings.Repeat("a", MaxJobNameLength)))
	assert.ErrorIs(t, ValidateJobNameLength(strings.Repeat("a", MaxJobNameLength+1)), ErrJobNameTooLong)
}

func TestSanitizeMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "normal message",
			input:    "exit 2: receptor file not found",
			expected: "exit 2: receptor file not found",
		},
		{
			name:     "message with newlines",
			input:    "error on\nline 2",
			expected: "error on\nline 2",
		},
		{
			name:     "terminal escapes",
			input:    "\x1b[31mfailed\x1b[0m",
			expected: "[31mfailed[0m",
		},
		{
			name:     "message with null bytes",
			input:    "error\x00with\x00nulls",
			expected: "errorwithnulls",
		},
		{
			name:     "empty message",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeMessage(tt.input))
		})
	}
}

func TestSanitizeMessage_Truncation(t *testing.T) {
	result := SanitizeMessage(strings.Repeat("a", 5000))

	assert.LessOrEqual(t, len(result), MaxMessageLength)
	assert.True(t, strings.HasSuffix(result, "..."))
}

func TestClampAttempts(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{-1, 1},
		{0, 1},
		{1, 1},
		{3, 3},
		{100, 100},
		{101, 100},
		{1000, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClampAttempts(tt.input), "ClampAttempts(%d)", tt.input)
	}
}
