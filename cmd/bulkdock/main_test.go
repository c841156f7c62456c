package main

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkdock/bulkdock/pkg/config"
	"github.com/bulkdock/bulkdock/pkg/core"
	"github.com/bulkdock/bulkdock/pkg/naming"
)

// fakeTools stands in for sbatch and squeue.
type fakeTools struct {
	mu     sync.Mutex
	nextID int
	calls  [][]string
	squeue string
}

func (f *fakeTools) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
	switch filepath.Base(name) {
	case "sbatch":
		f.nextID++
		return []byte(fmt.Sprintf("Submitted batch job %d\n", f.nextID)), nil, nil
	case "squeue":
		return []byte(f.squeue), nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected command %s", name)
}

type workspace struct {
	dir    string
	config string
	tools  *fakeTools
}

func newWorkspace(t *testing.T, extra string) workspace {
	t.Helper()
	dir := t.TempDir()
	extra = strings.ReplaceAll(extra, "$DIR", dir)
	cfg := fmt.Sprintf(`
dirs:
  input: %[1]s/inputs
  target: %[1]s/targets
  output: %[1]s/outputs
  results: %[1]s/results
  scratch: %[1]s/scratch
  logs: %[1]s/logs
scheduler:
  launcher: /opt/bulkdock/run.sh
  audit_log: %[1]s/audit/submissions.log
logging:
  level: error
%[2]s`, dir, extra)
	path := filepath.Join(dir, "bulkdock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "targets", "3ERT"), 0o755))
	return workspace{dir: dir, config: path, tools: &fakeTools{nextID: 100}}
}

func (w workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	a.runner = w.tools
	root := a.root()
	root.SetArgs(append([]string{"--config", w.config}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func (w workspace) writeInput(t *testing.T, name string, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("smiles,id\n")
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&b, "C%d,m%d\n", i, i)
	}
	dir := filepath.Join(w.dir, "inputs")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestCreateDirectories(t *testing.T) {
	w := newWorkspace(t, "")
	out, err := w.run(t, "create-directories")
	require.NoError(t, err)

	for _, d := range []string{"inputs", "targets", "outputs", "results", "scratch", "logs", "audit"} {
		assert.DirExists(t, filepath.Join(w.dir, d))
		assert.Contains(t, out, filepath.Join(w.dir, d))
	}
}

func TestSubmit(t *testing.T) {
	w := newWorkspace(t, "")
	w.writeInput(t, "lib.csv", 5)

	out, err := w.run(t, "submit", "lib.csv", "3ERT", "--batch-size", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "worker 101  batch 000  2 items")
	assert.Contains(t, out, "worker 103  batch 002  1 items")
	assert.Contains(t, out, "collation 104  after 101,102,103")
	require.Len(t, w.tools.calls, 4)
	assert.Contains(t, w.tools.calls[3], "--dependency=afterany:101:102:103")

	audit, err := os.ReadFile(filepath.Join(w.dir, "audit", "submissions.log"))
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(audit), "\n"))
	assert.True(t, strings.HasPrefix(string(audit), "101 "))

	assert.FileExists(t, filepath.Join(w.dir, "scratch", "lib_split2_batch000.csv"))
}

func TestSubmit_UnknownTarget(t *testing.T) {
	w := newWorkspace(t, "")
	w.writeInput(t, "lib.csv", 5)

	_, err := w.run(t, "submit", "lib.csv", "4XYZ", "--batch-size", "2")
	assert.ErrorIs(t, err, core.ErrInput)
	assert.ErrorContains(t, err, filepath.Join(w.dir, "targets", "4XYZ"))
	assert.Empty(t, w.tools.calls)
	assert.NoDirExists(t, filepath.Join(w.dir, "scratch"))
}

func TestExtract(t *testing.T) {
	w := newWorkspace(t, "")
	archive := filepath.Join(w.dir, "targets", "4XYZ.zip")
	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	entry, err := zw.Create("receptor.pdb")
	require.NoError(t, err)
	_, err = entry.Write([]byte("ATOM\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	out, err := w.run(t, "extract", "4XYZ")
	require.NoError(t, err)
	assert.Contains(t, out, "extracted 1 files")
	assert.FileExists(t, filepath.Join(w.dir, "targets", "4XYZ", "receptor.pdb"))

	w.writeInput(t, "lib.csv", 2)
	_, err = w.run(t, "submit", "lib.csv", "4XYZ")
	require.NoError(t, err)

	_, err = w.run(t, "extract", "5NOP")
	assert.ErrorIs(t, err, core.ErrInput)
}

func TestSubmit_UsesConfiguredBatchSize(t *testing.T) {
	w := newWorkspace(t, "splitter:\n  batch_size: 3\n")
	w.writeInput(t, "lib.csv", 5)

	_, err := w.run(t, "submit", "lib.csv", "3ERT")
	require.NoError(t, err)
	assert.Len(t, w.tools.calls, 3, "two workers and a collation job")
}

func TestStatus(t *testing.T) {
	w := newWorkspace(t, "")
	name, err := naming.EncodeJobName(naming.JobName{
		Prefix:     naming.DefaultPrefix,
		Command:    "place",
		Target:     "3ERT",
		Descriptor: "lib_split20_batch000.csv",
	})
	require.NoError(t, err)
	w.tools.squeue = fmt.Sprintf("201|%s|RUNNING|1:10\n202|other-job|RUNNING|5:00\n", name)

	logs := filepath.Join(w.dir, "logs")
	require.NoError(t, os.MkdirAll(logs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(logs, "201.log"), []byte("Placement task 7/20\n"), 0o644))

	out, err := w.run(t, "status", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "201")
	assert.Contains(t, out, "3ERT")
	assert.Contains(t, out, "7/20")
	assert.Contains(t, out, "35%")
	assert.NotContains(t, out, "202")
}

func TestStatus_RelativeLogsFromOtherDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bulkdock.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dirs:\n  logs: logs\nlogging:\n  level: error\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "201.log"), []byte("Placement task 3/4\n"), 0o644))
	t.Chdir(t.TempDir())

	name, err := naming.EncodeJobName(naming.JobName{
		Prefix:     naming.DefaultPrefix,
		Command:    "place",
		Target:     "3ERT",
		Descriptor: "lib_split4_batch000.csv",
	})
	require.NoError(t, err)
	w := workspace{dir: dir, config: path, tools: &fakeTools{squeue: "201|" + name + "|RUNNING|0:30\n"}}

	out, err := w.run(t, "status", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "3/4")
	assert.Contains(t, out, "75%")
}

func TestStatus_NoJobs(t *testing.T) {
	w := newWorkspace(t, "")
	out, err := w.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "no active jobs")
}

func TestPlaceThenCombine(t *testing.T) {
	w := newWorkspace(t, "worker:\n  command: echo\n  args: [\"placed-{payload}\"]\n  max_attempts: 1\n")
	w.writeInput(t, "lib.csv", 3)

	_, err := w.run(t, "submit", "lib.csv", "3ERT", "--batch-size", "2")
	require.NoError(t, err)

	for i, batch := range []string{"lib_split2_batch000.csv", "lib_split2_batch001.csv"} {
		t.Setenv("SLURM_JOB_ID", fmt.Sprint(500+i))
		out, err := w.run(t, "place", "3ERT", filepath.Join(w.dir, "scratch", batch))
		require.NoError(t, err)
		assert.Contains(t, out, "Placement task 1/")
	}

	out, err := w.run(t, "combine", "3ERT", "lib.csv", "--batch-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "merged 2 of 2 batches")

	merged, err := os.ReadFile(filepath.Join(w.dir, "results", "lib_combined.csv"))
	require.NoError(t, err)
	assert.Equal(t, "smiles,id,result\nC1,m1,placed-C1\nC2,m2,placed-C2\nC3,m3,placed-C3\n", string(merged))
}

func TestPlace_RequiresCommand(t *testing.T) {
	w := newWorkspace(t, "")
	_, err := w.run(t, "place", "3ERT", "lib_split2_batch000.csv")
	assert.ErrorContains(t, err, "worker.command")
}

func TestCombine_HasNoReferenceFlag(t *testing.T) {
	w := newWorkspace(t, "")
	_, err := w.run(t, "combine", "3ERT", "lib.csv", "--reference", "ref.pdb")
	assert.ErrorContains(t, err, "unknown flag: --reference")
}

func TestCombine_NothingToMerge(t *testing.T) {
	w := newWorkspace(t, "")
	w.writeInput(t, "lib.csv", 3)
	_, err := w.run(t, "combine", "3ERT", "lib.csv", "--batch-size", "2")
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	w := newWorkspace(t, "store:\n  enabled: true\n  dsn: $DIR/bulkdock.db\n")
	w.writeInput(t, "lib.csv", 4)

	_, err := w.run(t, "submit", "lib.csv", "3ERT", "--batch-size", "2")
	require.NoError(t, err)

	out, err := w.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "lib")
	assert.Contains(t, out, "3ERT")
	assert.Contains(t, out, "103")
}

func TestHistory_RequiresStore(t *testing.T) {
	w := newWorkspace(t, "")
	_, err := w.run(t, "history")
	assert.ErrorContains(t, err, "store.enabled")
}

func TestConfigure(t *testing.T) {
	w := newWorkspace(t, "")

	_, err := w.run(t, "configure", "scheduler.partition", "gpu")
	require.NoError(t, err)

	cfg, err := config.Load(w.config)
	require.NoError(t, err)
	assert.Equal(t, "gpu", cfg.Scheduler.Partition)
	assert.Equal(t, filepath.Join(w.dir, "scratch"), cfg.Dirs.Scratch, "existing keys survive")

	out, err := w.run(t, "configure", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "worker.timeout")

	_, err = w.run(t, "configure", "nope.key", "x")
	assert.Error(t, err)
}
