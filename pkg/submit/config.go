package submit

import (
	"path/filepath"
	"time"

	"github.com/bulkdock/bulkdock/pkg/naming"
	"github.com/bulkdock/bulkdock/pkg/scheduler"
)

// Config is the static submission setup shared by every Submit call.
type Config struct {
	// Launcher is the script each job runs; it receives the role and its arguments.
	Launcher string
	// TargetDir holds one directory per target. When set, Submit refuses
	// targets that have no directory there.
	TargetDir string
	// ScratchDir receives the batch files.
	ScratchDir string
	// LogDir receives one log per job, named after the job id.
	LogDir string
	// AuditLog is appended one line per accepted submission. Empty disables it.
	AuditLog string
	// JobPrefix starts every job name. Default: naming.DefaultPrefix.
	JobPrefix string

	Partition string
	MailUser  string
	MailType  string
	// ExtraArgs are passed verbatim to the submission tool.
	ExtraArgs []string
}

func (c Config) prefix() string {
	if c.JobPrefix == "" {
		return naming.DefaultPrefix
	}
	return c.JobPrefix
}

// logTemplate is the job log path with the scheduler's job id placeholder.
// It is absolute so the log lands in the same place whatever directory the
// job starts in.
func (c Config) logTemplate() string {
	dir := c.LogDir
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Join(dir, scheduler.JobIDPlaceholder+".log")
}

// submitArgs are the static scheduler flags added to every job.
func (c Config) submitArgs() []string {
	var args []string
	if c.Partition != "" {
		args = append(args, "--partition="+c.Partition)
	}
	if c.MailUser != "" {
		args = append(args, "--mail-user="+c.MailUser)
		mailType := c.MailType
		if mailType == "" {
			mailType = "END,FAIL"
		}
		args = append(args, "--mail-type="+mailType)
	}
	return append(args, c.ExtraArgs...)
}

// Request describes one submission.
type Request struct {
	SourcePath string
	Target     string
	// BatchSize <= 0 submits the whole source as a single batch.
	BatchSize int
	// Stagger is slept between worker submissions, not before the first.
	Stagger time.Duration
	// DependsOn is an existing job id every worker waits on (afterok).
	DependsOn string
	// Reference is an optional opaque value forwarded to every placement job.
	Reference string
}

// Result lists the jobs created by a submission.
type Result struct {
	SubmissionID   string
	WorkerJobIDs   []string
	CollationJobID string
	Batches        []BatchJob
}

// BatchJob pairs a batch file with the worker job that processes it.
type BatchJob struct {
	BatchIndex int
	Path       string
	ItemCount  int
	JobID      string
	JobName    string
	LogPath    string
}
