package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkdock/bulkdock/pkg/core"
)

func newTestSubmission(id, sourceKey string, created time.Time) *core.Submission {
	return &core.Submission{
		ID:         id,
		SourceKey:  sourceKey,
		SourcePath: "/data/" + sourceKey + ".csv",
		Target:     "3abc",
		BatchSize:  2,
		BatchCount: 3,
		TotalItems: 5,
		CreatedAt:  created,
	}
}

func newTestJob(submissionID, jobID string, role core.Role, index int) *core.SubmittedJob {
	return &core.SubmittedJob{
		JobID:        jobID,
		SubmissionID: submissionID,
		JobName:      fmt.Sprintf("BulkDock.%s:3abc:%d", role, index),
		Role:         role,
		Target:       "3abc",
		BatchIndex:   index,
		LogPath:      "/logs/" + jobID + ".log",
		CommandLine:  "sbatch run.sh",
	}
}

func TestGormStorage_SubmissionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	sub := newTestSubmission("sub-1", "lig", time.Now())
	require.NoError(t, s.SaveSubmission(ctx, sub))
	require.NoError(t, s.SetCollationJob(ctx, "sub-1", "104"))

	got, err := s.GetSubmission(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "lig", got.SourceKey)
	assert.Equal(t, 3, got.BatchCount)
	assert.Equal(t, "104", got.CollationJobID)
}

func TestGormStorage_SaveSubmissionRequiresID(t *testing.T) {
	s := newTestStorage(t)
	assert.Error(t, s.SaveSubmission(context.Background(), &core.Submission{SourceKey: "x"}))
}

func TestGormStorage_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, err := s.GetSubmission(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.SetCollationJob(ctx, "missing", "1"), ErrNotFound)
}

func TestGormStorage_JobsBySubmission(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	require.NoError(t, s.SaveSubmission(ctx, newTestSubmission("sub-1", "lig", time.Now())))

	collation := newTestJob("sub-1", "104", core.RoleCombine, -1)
	collation.DependsOn = []string{"101", "102", "103"}
	require.NoError(t, s.SaveJob(ctx, collation))
	// Saved out of batch order.
	require.NoError(t, s.SaveJob(ctx, newTestJob("sub-1", "103", core.RolePlace, 2)))
	require.NoError(t, s.SaveJob(ctx, newTestJob("sub-1", "101", core.RolePlace, 0)))
	require.NoError(t, s.SaveJob(ctx, newTestJob("sub-1", "102", core.RolePlace, 1)))
	require.NoError(t, s.SaveJob(ctx, newTestJob("sub-2", "200", core.RolePlace, 0)))

	jobs, err := s.GetJobsBySubmission(ctx, "sub-1")
	require.NoError(t, err)
	require.Len(t, jobs, 4)
	assert.Equal(t, "101", jobs[0].JobID)
	assert.Equal(t, "102", jobs[1].JobID)
	assert.Equal(t, "103", jobs[2].JobID)
	assert.Equal(t, "104", jobs[3].JobID)
	assert.Equal(t, []string{"101", "102", "103"}, jobs[3].DependsOn)
	assert.Empty(t, jobs[0].DependsOn)
}

func TestGormStorage_FirstBatchIndexIsKept(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.SaveJob(ctx, newTestJob("sub-1", "101", core.RolePlace, 0)))
	require.NoError(t, s.SaveJob(ctx, newTestJob("sub-1", "102", core.RoleCombine, -1)))

	worker, err := s.GetJob(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, 0, worker.BatchIndex)

	collation, err := s.GetJob(ctx, "102")
	require.NoError(t, err)
	assert.Equal(t, -1, collation.BatchIndex)
}

func TestGormStorage_SaveJobReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	job := newTestJob("sub-1", "7", core.RolePlace, 0)
	require.NoError(t, s.SaveJob(ctx, job))
	job.LogPath = "/elsewhere/7.log"
	require.NoError(t, s.SaveJob(ctx, job))

	got, err := s.GetJob(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/7.log", got.LogPath)
	assert.Equal(t, core.RolePlace, got.Role)
}

func TestGormStorage_ListSubmissions(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveSubmission(ctx, newTestSubmission("a", "lig", base)))
	require.NoError(t, s.SaveSubmission(ctx, newTestSubmission("b", "other", base.Add(time.Hour))))
	require.NoError(t, s.SaveSubmission(ctx, newTestSubmission("c", "lig", base.Add(2*time.Hour))))

	all, err := s.ListSubmissions(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	lig, err := s.ListSubmissions(ctx, "lig", 0)
	require.NoError(t, err)
	require.Len(t, lig, 2)
	assert.Equal(t, "c", lig[0].ID)

	limited, err := s.ListSubmissions(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].ID)
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "postgres://bulk:***@db:5432/bulkdock", redact("postgres://bulk:secret@db:5432/bulkdock"))
	assert.Equal(t, "bulkdock.db", redact("bulkdock.db"))
}
