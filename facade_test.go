package bulkdock_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkdock/bulkdock"
	"github.com/bulkdock/bulkdock/pkg/scheduler/schedulertest"
)

func writeLibrary(t *testing.T, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("smiles\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "C%d\n", i)
	}
	path := filepath.Join(t.TempDir(), "library.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestFacade_SubmitAndSample(t *testing.T) {
	dir := t.TempDir()
	cfg := bulkdock.DefaultConfig()
	cfg.Dirs.Target = filepath.Join(dir, "targets")
	cfg.Dirs.Scratch = filepath.Join(dir, "scratch")
	cfg.Dirs.Logs = filepath.Join(dir, "logs")
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Dirs.Target, "3ERT"), 0o755))

	sched := schedulertest.New(10)
	orch := bulkdock.NewOrchestrator(bulkdock.SubmitConfigFrom(cfg), sched)

	res, err := orch.Submit(context.Background(), bulkdock.SubmitRequest{
		SourcePath: writeLibrary(t, 5),
		Target:     "3ERT",
		BatchSize:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "11", "12"}, res.WorkerJobIDs)
	assert.Equal(t, "13", res.CollationJobID)

	rows, err := bulkdock.NewMonitor(sched, bulkdock.LogDir(cfg.Dirs.Logs)).Sample(context.Background(), cfg.Scheduler.JobPrefix)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestFacade_SubmitConfigFrom(t *testing.T) {
	cfg := bulkdock.DefaultConfig()
	cfg.Scheduler.Partition = "gpu"
	cfg.Scheduler.ExtraArgs = []string{"--qos=low"}

	sc := bulkdock.SubmitConfigFrom(cfg)
	assert.Equal(t, cfg.Scheduler.Launcher, sc.Launcher)
	assert.Equal(t, cfg.Dirs.Target, sc.TargetDir)
	assert.Equal(t, cfg.Dirs.Scratch, sc.ScratchDir)
	assert.Equal(t, cfg.Dirs.Logs, sc.LogDir)
	assert.Equal(t, "gpu", sc.Partition)
	assert.Equal(t, []string{"--qos=low"}, sc.ExtraArgs)
}

func TestFacade_CollateNothing(t *testing.T) {
	_, err := bulkdock.NewCollator(t.TempDir()).Collate(context.Background(), bulkdock.CollateRequest{
		SourcePath: writeLibrary(t, 3),
		BatchSize:  2,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, bulkdock.ErrIncompleteCollation))

	var incomplete *bulkdock.IncompleteCollationError
	assert.ErrorAs(t, err, &incomplete)
}

func TestFacade_OpenStore(t *testing.T) {
	store, err := bulkdock.OpenStore(filepath.Join(t.TempDir(), "bulkdock.db"))
	require.NoError(t, err)
	defer store.Close()

	var s bulkdock.Store = store
	require.NoError(t, s.Migrate(context.Background()))
	subs, err := s.ListSubmissions(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestFacade_ErrorAliases(t *testing.T) {
	var err error = &bulkdock.InputError{Path: "x.csv", Reason: "empty"}
	assert.ErrorIs(t, err, bulkdock.ErrInput)

	_, err = bulkdock.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
