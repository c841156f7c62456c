package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Level: "warn", Stderr: &buf})
	require.NoError(t, err)
	defer closeFn()

	logger.Info("hidden")
	logger.Warn("shown", "batch", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "batch=3")
}

func TestNew_JSONConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Format: "json", Stderr: &buf})
	require.NoError(t, err)

	logger.Info("submitted", "job_id", "101")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "submitted", rec["msg"])
	assert.Equal(t, "101", rec["job_id"])
}

func TestNew_UnknownFormat(t *testing.T) {
	_, _, err := New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestNew_FileSink(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "bulkdock.jsonl")

	logger, closeFn, err := New(Options{Level: "info", File: path, Stderr: &buf})
	require.NoError(t, err)

	logger.Debug("file only")
	logger.Info("both")
	require.NoError(t, closeFn())

	assert.NotContains(t, buf.String(), "file only")
	assert.Contains(t, buf.String(), "both")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg":"file only"`)
	assert.Contains(t, lines[1], `"msg":"both"`)
}

func TestSetup_InstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	closeFn, err := Setup(Options{Stderr: &buf})
	require.NoError(t, err)
	defer closeFn()

	slog.Info("via default")
	assert.Contains(t, buf.String(), "via default")
}
