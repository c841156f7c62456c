package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkdock/bulkdock/pkg/core"
)

func TestJobName_RoundTrip(t *testing.T) {
	want := JobName{Prefix: DefaultPrefix, Command: "place", Target: "A71EV2A", Descriptor: "lig_split5_batch002"}

	name, err := EncodeJobName(want)
	require.NoError(t, err)
	assert.Equal(t, "BulkDock.place:A71EV2A:lig_split5_batch002", name)

	got, err := DecodeJobName(name)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEncodeJobName_RejectsSeparators(t *testing.T) {
	base := JobName{Prefix: DefaultPrefix, Command: "place", Target: "t", Descriptor: "d"}

	cases := map[string]func(n *JobName){
		"colon in target":     func(n *JobName) { n.Target = "a:b" },
		"colon in descriptor": func(n *JobName) { n.Descriptor = "x:y" },
		"dot in command":      func(n *JobName) { n.Command = "pl.ace" },
		"dot in prefix":       func(n *JobName) { n.Prefix = "Bulk.Dock" },
		"empty target":        func(n *JobName) { n.Target = "" },
		"space in target":     func(n *JobName) { n.Target = "my target" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			n := base
			mutate(&n)
			_, err := EncodeJobName(n)
			assert.ErrorIs(t, err, core.ErrNaming)
		})
	}
}

func TestEncodeJobName_AllowsDotsInTarget(t *testing.T) {
	name, err := EncodeJobName(JobName{Prefix: "BulkDock", Command: "combine", Target: "x.y", Descriptor: "lig.v2"})
	require.NoError(t, err)

	got, err := DecodeJobName(name)
	require.NoError(t, err)
	assert.Equal(t, "x.y", got.Target)
	assert.Equal(t, "lig.v2", got.Descriptor)
}

func TestDecodeJobName_Malformed(t *testing.T) {
	for _, name := range []string{
		"",
		"BulkDock",
		"BulkDock.place",
		"BulkDock.place:target",
		"BulkDock.place:a:b:c",
		"place:a:b",
		".place:a:b",
		"BulkDock.:a:b",
		"bash",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeJobName(name)
			assert.ErrorIs(t, err, core.ErrNaming)
		})
	}
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("BulkDock.place:a:b", "BulkDock"))
	assert.False(t, HasPrefix("BulkDockX.place:a:b", "BulkDock"))
	assert.False(t, HasPrefix("interactive", "BulkDock"))
}

func TestEncodeJobName_TooLong(t *testing.T) {
	_, err := EncodeJobName(JobName{Prefix: DefaultPrefix, Command: "place", Target: "t", Descriptor: strings.Repeat("d", 300)})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNaming)
}
