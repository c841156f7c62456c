package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/bulkdock/bulkdock/pkg/core"
)

// JobIDPlaceholder is substituted by the scheduler with the job id in output paths.
const JobIDPlaceholder = "%j"

// SubmitRequest describes one job submission.
type SubmitRequest struct {
	JobName    string
	LogPath    string // may contain JobIDPlaceholder
	Dependency string // e.g. "afterany:12:13"; empty for none
	ExtraArgs  []string
	Script     string
	Args       []string
}

// Receipt is what the scheduler handed back for an accepted submission.
type Receipt struct {
	JobID       string
	CommandLine string
	Output      string
}

// Job is one entry of the scheduler's job listing.
type Job struct {
	JobID    string
	Name     string
	State    core.JobState
	RawState string
	Elapsed  time.Duration
	LogPath  string // empty when the lister cannot report it
}

// Submitter submits jobs.
type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest) (*Receipt, error)
}

// Lister lists the scheduler's current jobs.
type Lister interface {
	List(ctx context.Context) ([]Job, error)
}

// Scheduler submits and lists jobs.
type Scheduler interface {
	Submitter
	Lister
}

// AfterAny builds a dependency satisfied once every listed job reaches any terminal state.
func AfterAny(jobIDs ...string) string {
	if len(jobIDs) == 0 {
		return ""
	}
	return "afterany:" + strings.Join(jobIDs, ":")
}

// AfterOK builds a dependency satisfied once every listed job completed successfully.
func AfterOK(jobIDs ...string) string {
	if len(jobIDs) == 0 {
		return ""
	}
	return "afterok:" + strings.Join(jobIDs, ":")
}

// ExpandLogPath substitutes the job id placeholder in a log path template.
func ExpandLogPath(template, jobID string) string {
	return strings.ReplaceAll(template, JobIDPlaceholder, jobID)
}
