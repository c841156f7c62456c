// Package bulkdock splits oversized screening workloads into SLURM worker jobs,
// tracks their progress from job logs and collates their outputs.
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	cfg, _ := bulkdock.LoadConfig("bulkdock.yaml")
//	sched := bulkdock.NewSlurm()
//	orch := bulkdock.NewOrchestrator(bulkdock.SubmitConfigFrom(cfg), sched)
//
//	// Submit 3 workers of 250 items and a collation job
//	res, _ := orch.Submit(ctx, bulkdock.SubmitRequest{
//	    SourcePath: "inputs/library.csv",
//	    Target:     "3ERT",
//	    BatchSize:  250,
//	})
//
//	// Sample progress
//	rows, _ := bulkdock.NewMonitor(sched, bulkdock.LogDir(cfg.Dirs.Logs)).Sample(ctx, cfg.Scheduler.JobPrefix)
package bulkdock

import (
	"github.com/bulkdock/bulkdock/pkg/collate"
	"github.com/bulkdock/bulkdock/pkg/config"
	"github.com/bulkdock/bulkdock/pkg/core"
	"github.com/bulkdock/bulkdock/pkg/monitor"
	"github.com/bulkdock/bulkdock/pkg/scheduler"
	"github.com/bulkdock/bulkdock/pkg/splitter"
	"github.com/bulkdock/bulkdock/pkg/storage"
	"github.com/bulkdock/bulkdock/pkg/submit"
)

// Type aliases
type (
	// Config is the file and environment configuration.
	Config = config.Config

	// BatchFile is one materialised batch of a source file.
	BatchFile = core.BatchFile

	// SubmittedJob is a scheduler job created by a submission.
	SubmittedJob = core.SubmittedJob

	// JobState is the scheduler-owned state of a job.
	JobState = core.JobState

	// ProgressSample is a point-in-time read of a running worker.
	ProgressSample = core.ProgressSample

	// CollationResult describes one merge of worker outputs.
	CollationResult = core.CollationResult

	// Store persists submissions and their jobs.
	Store = core.Store

	// Scheduler submits and lists batch jobs.
	Scheduler = scheduler.Scheduler

	// SubmitConfig is the static submission setup.
	SubmitConfig = submit.Config

	// SubmitRequest describes one submission.
	SubmitRequest = submit.Request

	// SubmitResult lists the jobs created by a submission.
	SubmitResult = submit.Result

	// Orchestrator submits worker and collation jobs.
	Orchestrator = submit.Orchestrator

	// Monitor samples active jobs.
	Monitor = monitor.Monitor

	// StatusRow is one sampled job.
	StatusRow = monitor.Row

	// Collator merges worker outputs.
	Collator = collate.Collator

	// CollateRequest describes one collation.
	CollateRequest = collate.Request

	// Splitter partitions source files into batches.
	Splitter = splitter.Splitter

	// GormStorage is the gorm-backed Store.
	GormStorage = storage.GormStorage
)

// Error types
type (
	InputError               = core.InputError
	NamingError              = core.NamingError
	SchedulerError           = core.SchedulerError
	PartialSubmissionError   = core.PartialSubmissionError
	BatchMixError            = core.BatchMixError
	IncompleteCollationError = core.IncompleteCollationError
)

// Error variables
var (
	ErrInput                = core.ErrInput
	ErrNaming               = core.ErrNaming
	ErrSchedulerUnavailable = core.ErrSchedulerUnavailable
	ErrPartialSubmission    = core.ErrPartialSubmission
	ErrUnsupportedBatchMix  = core.ErrUnsupportedBatchMix
	ErrIncompleteCollation  = core.ErrIncompleteCollation
)

// LoadConfig reads configuration from path and BULKDOCK_* environment variables.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return config.Default()
}

// SubmitConfigFrom maps file configuration onto the orchestrator's setup.
func SubmitConfigFrom(cfg *Config) SubmitConfig {
	s := cfg.Scheduler
	return SubmitConfig{
		Launcher:   s.Launcher,
		TargetDir:  cfg.Dirs.Target,
		ScratchDir: cfg.Dirs.Scratch,
		LogDir:     cfg.Dirs.Logs,
		AuditLog:   s.AuditLog,
		JobPrefix:  s.JobPrefix,
		Partition:  s.Partition,
		MailUser:   s.MailUser,
		MailType:   s.MailType,
		ExtraArgs:  s.ExtraArgs,
	}
}

// NewSlurm returns a scheduler driving sbatch and squeue.
func NewSlurm(opts ...scheduler.Option) *scheduler.Slurm {
	return scheduler.NewSlurm(opts...)
}

// NewSplitter creates a Splitter.
func NewSplitter(opts ...splitter.Option) *Splitter {
	return splitter.New(opts...)
}

// NewOrchestrator creates an Orchestrator submitting through sched.
func NewOrchestrator(cfg SubmitConfig, sched scheduler.Submitter, opts ...submit.Option) *Orchestrator {
	return submit.New(cfg, sched, opts...)
}

// NewMonitor creates a Monitor listing jobs through lister.
func NewMonitor(lister scheduler.Lister, opts ...monitor.Option) *Monitor {
	return monitor.New(lister, opts...)
}

// LogDir sets where a Monitor finds job logs.
func LogDir(dir string) monitor.Option {
	return monitor.LogDir(dir)
}

// NewCollator creates a Collator reading worker outputs from outputDir.
func NewCollator(outputDir string, opts ...collate.Option) *Collator {
	return collate.New(outputDir, opts...)
}

// OpenStore opens the job-state store for dsn: postgres:// URLs use
// PostgreSQL, anything else is a SQLite path.
func OpenStore(dsn string, opts ...storage.PoolOption) (*GormStorage, error) {
	return storage.Open(dsn, opts...)
}
