package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarker(t *testing.T) {
	tests := []struct {
		line      string
		attempted int
		total     int
		ok        bool
	}{
		{"Placement task 7/20", 7, 20, true},
		{"2024-01-01 INFO Placement task 3/4 CCO", 3, 4, true},
		{"Placement task 0/5\n", 0, 5, true},
		{"Placement task", 0, 0, false},
		{"Placement task 7", 0, 0, false},
		{"Placement task a/20", 0, 0, false},
		{"Placement task 7/0", 0, 0, false},
		{"Placement task 9/3", 0, 0, false},
		{"Placement task -1/3", 0, 0, false},
		{"unrelated 7/20", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			a, n, ok := ParseMarker(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.attempted, a)
			assert.Equal(t, tt.total, n)
		})
	}
}

func TestLastMarker_LastOccurrenceWins(t *testing.T) {
	log := "starting\nPlacement task 1/20\nPlacement task 2/20\nnoise\nPlacement task 7/20\ntrailing output\n"
	a, n, ok := LastMarker(strings.NewReader(log))
	require.True(t, ok)
	assert.Equal(t, 7, a)
	assert.Equal(t, 20, n)
}

func TestLastMarker_MalformedLastLineFallsBack(t *testing.T) {
	a, n, ok := LastMarker(strings.NewReader("Placement task 4/9\nPlacement task 5/"))
	require.True(t, ok)
	assert.Equal(t, 4, a)
	assert.Equal(t, 9, n)
}

func TestLastMarker_None(t *testing.T) {
	_, _, ok := LastMarker(strings.NewReader(""))
	assert.False(t, ok)
	_, _, ok = LastMarker(strings.NewReader("loading receptor\n"))
	assert.False(t, ok)
}

func TestReadLogMarker_LargeLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1.log")
	var b strings.Builder
	b.WriteString("Placement task 1/500\n")
	for b.Len() < 2*tailSize {
		b.WriteString("some verbose placement output that is not a marker\n")
	}
	b.WriteString("Placement task 42/500\n")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	a, n, ok, err := ReadLogMarker(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, a)
	assert.Equal(t, 500, n)
}

func TestReadLogMarker_MarkerOnlyBeforeTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1.log")
	var b strings.Builder
	b.WriteString("Placement task 3/500\n")
	for b.Len() < 2*tailSize {
		b.WriteString("docking pose refinement chatter\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	a, _, ok, err := ReadLogMarker(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, a)
}

func TestReadLogMarker_Missing(t *testing.T) {
	_, _, ok, err := ReadLogMarker(filepath.Join(t.TempDir(), "nope.log"))
	assert.Error(t, err)
	assert.False(t, ok)
}
