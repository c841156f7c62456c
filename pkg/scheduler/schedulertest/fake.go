// Package schedulertest provides an in-memory scheduler for tests.
package schedulertest

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bulkdock/bulkdock/pkg/core"
	"github.com/bulkdock/bulkdock/pkg/scheduler"
)

// Fake records submissions and assigns sequential job ids starting at NextID.
type Fake struct {
	mu        sync.Mutex
	NextID    int
	Requests  []scheduler.SubmitRequest
	Jobs      []scheduler.Job
	FailAfter int   // >0: fail once this many submissions succeeded; <0: always fail
	Err       error // error returned on failure; defaults to a SchedulerError
	ListErr   error
}

var _ scheduler.Scheduler = (*Fake)(nil)

// New returns a Fake whose first job id is first.
func New(first int) *Fake {
	return &Fake{NextID: first}
}

// Submit implements scheduler.Submitter.
func (f *Fake) Submit(ctx context.Context, req scheduler.SubmitRequest) (*scheduler.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	cmdline := scheduler.CommandLine("sbatch", scheduler.SubmitArgs(req)...)
	if f.FailAfter > 0 && len(f.Requests) >= f.FailAfter || f.FailAfter < 0 {
		if f.Err != nil {
			return nil, f.Err
		}
		return nil, &core.SchedulerError{Command: cmdline, Output: "sbatch: error: fake failure"}
	}

	id := strconv.Itoa(f.NextID)
	f.NextID++
	f.Requests = append(f.Requests, req)
	f.Jobs = append(f.Jobs, scheduler.Job{
		JobID:   id,
		Name:    req.JobName,
		State:   core.StatePending,
		LogPath: scheduler.ExpandLogPath(req.LogPath, id),
	})
	return &scheduler.Receipt{JobID: id, CommandLine: cmdline, Output: fmt.Sprintf("Submitted batch job %s\n", id)}, nil
}

// List implements scheduler.Lister.
func (f *Fake) List(ctx context.Context) ([]scheduler.Job, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]scheduler.Job(nil), f.Jobs...), nil
}

// SetState updates a job's state and elapsed time in the listing.
func (f *Fake) SetState(jobID string, state core.JobState, elapsedSeconds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Jobs {
		if f.Jobs[i].JobID == jobID {
			f.Jobs[i].State = state
			f.Jobs[i].RawState = string(state)
			f.Jobs[i].Elapsed = time.Duration(elapsedSeconds) * time.Second
		}
	}
}

// Request returns the recorded request for a job id.
func (f *Fake) Request(jobID string) (scheduler.SubmitRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, j := range f.Jobs {
		if j.JobID == jobID && i < len(f.Requests) {
			return f.Requests[i], true
		}
	}
	return scheduler.SubmitRequest{}, false
}
