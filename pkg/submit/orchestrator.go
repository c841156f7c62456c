package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/bulkdock/bulkdock/pkg/core"
	"github.com/bulkdock/bulkdock/pkg/naming"
	"github.com/bulkdock/bulkdock/pkg/scheduler"
	"github.com/bulkdock/bulkdock/pkg/splitter"
	"github.com/bulkdock/bulkdock/pkg/target"
)

// Orchestrator submits batch job graphs. Submissions are serial.
type Orchestrator struct {
	config    Config
	scheduler scheduler.Submitter
	splitter  *splitter.Splitter
	store     core.Store
	audit     *auditLog
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures an Orchestrator.
type Option interface {
	apply(*Orchestrator)
}

type optionFunc func(*Orchestrator)

func (f optionFunc) apply(o *Orchestrator) { f(o) }

// WithSplitter sets the splitter used to materialise batches.
func WithSplitter(s *splitter.Splitter) Option {
	return optionFunc(func(o *Orchestrator) {
		if s != nil {
			o.splitter = s
		}
	})
}

// WithStore records submissions and jobs in store. Store failures are logged, never returned.
func WithStore(store core.Store) Option {
	return optionFunc(func(o *Orchestrator) {
		o.store = store
	})
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	})
}

// New creates an Orchestrator submitting through sched.
func New(cfg Config, sched scheduler.Submitter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		config:    cfg,
		scheduler: sched,
		audit:     &auditLog{path: cfg.AuditLog},
		logger:    slog.Default(),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt.apply(o)
	}
	if o.splitter == nil {
		o.splitter = splitter.New(splitter.WithLogger(o.logger))
	}
	return o
}

// Submit splits req.SourcePath, submits one worker job per batch in index order,
// then one collation job depending on exactly those workers with after-any semantics.
//
// If the first submission fails the error wraps core.ErrSchedulerUnavailable. A failure
// after at least one job was accepted returns *core.PartialSubmissionError; accepted
// jobs are left running.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Result, error) {
	if req.SourcePath == "" {
		return nil, &core.InputError{Path: req.SourcePath, Reason: "source path is required"}
	}
	if o.config.Launcher == "" {
		return nil, errors.New("submit: launcher script is not configured")
	}
	if o.config.TargetDir != "" {
		if _, err := target.Dir(o.config.TargetDir, req.Target); err != nil {
			return nil, err
		}
	}

	for _, dir := range []string{o.config.ScratchDir, o.config.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	batches, err := o.splitter.Split(req.SourcePath, req.BatchSize, o.config.ScratchDir)
	if err != nil {
		return nil, err
	}

	// Encode every job name up front so a bad target fails before anything is submitted.
	workerNames := make([]string, len(batches))
	for i, b := range batches {
		workerNames[i], err = naming.EncodeJobName(naming.JobName{
			Prefix:     o.config.prefix(),
			Command:    string(core.RolePlace),
			Target:     req.Target,
			Descriptor: filepath.Base(b.Path),
		})
		if err != nil {
			return nil, err
		}
	}
	collationName, err := naming.EncodeJobName(naming.JobName{
		Prefix:     o.config.prefix(),
		Command:    string(core.RoleCombine),
		Target:     req.Target,
		Descriptor: filepath.Base(req.SourcePath),
	})
	if err != nil {
		return nil, err
	}

	totalItems := 0
	for _, b := range batches {
		totalItems += b.ItemCount
	}
	batchSize := batches[0].BatchSize

	result := &Result{SubmissionID: uuid.NewString()}
	o.record(func() error {
		return o.store.SaveSubmission(ctx, &core.Submission{
			ID:         result.SubmissionID,
			SourceKey:  batches[0].SourceKey,
			SourcePath: req.SourcePath,
			Target:     req.Target,
			BatchSize:  batchSize,
			BatchCount: len(batches),
			TotalItems: totalItems,
		})
	})

	total := len(batches) + 1
	fail := func(err error) (*Result, error) {
		if len(result.WorkerJobIDs) == 0 {
			return nil, err
		}
		o.logger.Error("submission aborted after partial success",
			"submission_id", result.SubmissionID,
			"submitted", len(result.WorkerJobIDs),
			"total", total,
			"error", err)
		return result, &core.PartialSubmissionError{
			WorkerJobIDs: append([]string(nil), result.WorkerJobIDs...),
			Total:        total,
			Err:          err,
		}
	}

	var inherited string
	if req.DependsOn != "" {
		inherited = scheduler.AfterOK(req.DependsOn)
	}

	for i, b := range batches {
		if i > 0 && req.Stagger > 0 {
			if err := o.sleep(ctx, req.Stagger); err != nil {
				return fail(err)
			}
		}

		args := []string{string(core.RolePlace), req.Target, b.Path}
		if req.Reference != "" {
			args = append(args, "--reference", req.Reference)
		}
		job, err := o.submitJob(ctx, result.SubmissionID, scheduler.SubmitRequest{
			JobName:    workerNames[i],
			LogPath:    o.config.logTemplate(),
			Dependency: inherited,
			ExtraArgs:  o.config.submitArgs(),
			Script:     o.config.Launcher,
			Args:       args,
		}, core.RolePlace, req.Target, b.BatchIndex, b.Path, nil)
		if err != nil {
			return fail(err)
		}

		result.WorkerJobIDs = append(result.WorkerJobIDs, job.JobID)
		result.Batches = append(result.Batches, BatchJob{
			BatchIndex: b.BatchIndex,
			Path:       b.Path,
			ItemCount:  b.ItemCount,
			JobID:      job.JobID,
			JobName:    job.JobName,
			LogPath:    job.LogPath,
		})
	}

	deps := collationDependencies(result.WorkerJobIDs)
	if len(deps) != len(result.WorkerJobIDs) {
		o.logger.Warn("scheduler returned duplicate job ids", "job_ids", result.WorkerJobIDs)
	}

	// The reference only matters to placement; the collator never reads it.
	args := []string{string(core.RoleCombine), req.Target, req.SourcePath, "--batch-size", strconv.Itoa(batchSize)}
	job, err := o.submitJob(ctx, result.SubmissionID, scheduler.SubmitRequest{
		JobName:    collationName,
		LogPath:    o.config.logTemplate(),
		Dependency: scheduler.AfterAny(deps...),
		ExtraArgs:  o.config.submitArgs(),
		Script:     o.config.Launcher,
		Args:       args,
	}, core.RoleCombine, req.Target, -1, req.SourcePath, deps)
	if err != nil {
		return fail(err)
	}
	result.CollationJobID = job.JobID
	o.record(func() error {
		return o.store.SetCollationJob(ctx, result.SubmissionID, job.JobID)
	})

	o.logger.Info("submitted batch job graph",
		"submission_id", result.SubmissionID,
		"source", req.SourcePath,
		"target", req.Target,
		"workers", len(result.WorkerJobIDs),
		"collation_job_id", result.CollationJobID)
	return result, nil
}

func (o *Orchestrator) submitJob(ctx context.Context, submissionID string, req scheduler.SubmitRequest,
	role core.Role, target string, batchIndex int, batchPath string, dependsOn []string) (*core.SubmittedJob, error) {
	receipt, err := o.scheduler.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	job := &core.SubmittedJob{
		JobID:        receipt.JobID,
		SubmissionID: submissionID,
		JobName:      req.JobName,
		Role:         role,
		Target:       target,
		BatchIndex:   batchIndex,
		BatchPath:    batchPath,
		LogPath:      scheduler.ExpandLogPath(req.LogPath, receipt.JobID),
		DependsOn:    dependsOn,
		CommandLine:  receipt.CommandLine,
		State:        core.StatePending,
	}

	if err := o.audit.Record(job.JobID, job.CommandLine); err != nil {
		o.logger.Warn("failed to append audit log", "job_id", job.JobID, "error", err)
	}
	o.record(func() error { return o.store.SaveJob(ctx, job) })

	o.logger.Debug("submitted job", "job_id", job.JobID, "job_name", job.JobName, "role", role)
	return job, nil
}

// record runs a store write when a store is configured, logging any failure.
func (o *Orchestrator) record(fn func() error) {
	if o.store == nil {
		return
	}
	if err := fn(); err != nil {
		o.logger.Warn("failed to record submission in store", "error", err)
	}
}

// collationDependencies returns the distinct worker ids in submission order.
func collationDependencies(workerIDs []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	deps := make([]string, 0, len(workerIDs))
	for _, id := range workerIDs {
		if seen.Add(id) {
			deps = append(deps, id)
		}
	}
	return deps
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
