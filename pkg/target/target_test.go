package target

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkdock/bulkdock/pkg/core"
)

func writeArchive(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "3ERT"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "flat"), nil, 0o644))

	path, err := Dir(root, "3ERT")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "3ERT"), path)

	_, err = Dir(root, "4ABC")
	var inputErr *core.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, filepath.Join(root, "4ABC"), inputErr.Path)
	assert.Equal(t, "target not found", inputErr.Reason)

	_, err = Dir(root, "flat")
	assert.ErrorIs(t, err, core.ErrInput)

	for _, name := range []string{"", "..", "a/b"} {
		_, err = Dir(root, name)
		assert.ErrorIs(t, err, core.ErrNaming, name)
	}
}

func TestExtract(t *testing.T) {
	root := t.TempDir()
	writeArchive(t, ArchivePath(root, "3ERT"), map[string]string{
		"receptor.pdb":    "ATOM\n",
		"ligands/ref.mol": "mol\n",
		"ligands/":        "",
	})

	n, err := Extract(root, "3ERT")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(filepath.Join(root, "3ERT", "ligands", "ref.mol"))
	require.NoError(t, err)
	assert.Equal(t, "mol\n", string(data))

	_, err = Dir(root, "3ERT")
	assert.NoError(t, err, "an extracted target is found by Dir")

	// Extracting again overwrites in place.
	n, err = Extract(root, "3ERT")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestExtract_MissingArchive(t *testing.T) {
	_, err := Extract(t.TempDir(), "3ERT")
	var inputErr *core.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "target archive not found", inputErr.Reason)
}

func TestExtract_RejectsEntriesOutsideTarget(t *testing.T) {
	root := t.TempDir()
	writeArchive(t, ArchivePath(root, "evil"), map[string]string{
		"../escaped.txt": "x",
	})

	_, err := Extract(root, "evil")
	assert.ErrorIs(t, err, core.ErrInput)
	assert.NoFileExists(t, filepath.Join(root, "escaped.txt"))
}
