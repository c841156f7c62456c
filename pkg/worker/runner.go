package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bulkdock/bulkdock/pkg/core"
	"github.com/bulkdock/bulkdock/pkg/naming"
	"github.com/bulkdock/bulkdock/pkg/splitter"
)

// JobIDEnv is the environment variable the scheduler sets to the running job's id.
const JobIDEnv = "SLURM_JOB_ID"

// LocalJobID names outputs produced outside the scheduler.
const LocalJobID = "local"

// ItemFailure is an item that did not succeed within its attempts.
type ItemFailure struct {
	Index    int
	Payload  string
	Kind     OutcomeKind
	Reason   string
	Attempts int
}

// Report summarises one batch run.
type Report struct {
	JobID      string
	BatchPath  string
	OutputPath string
	Total      int
	Succeeded  int
	Failed     []ItemFailure
}

// Runner places every item of a batch file.
type Runner struct {
	placer Placer
	config RunnerConfig
	logger *slog.Logger
}

// NewRunner creates a Runner using placer for each item.
func NewRunner(placer Placer, opts ...RunnerOption) *Runner {
	config := RunnerConfig{
		JobID:         os.Getenv(JobIDEnv),
		PayloadColumn: splitter.DefaultPayloadColumn,
		Retry:         DefaultRetryConfig(),
		Writer:        FileResultWriter{},
		Progress:      os.Stdout,
		Logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt.ApplyRunner(&config)
	}
	if config.JobID == "" {
		config.JobID = LocalJobID
	}
	return &Runner{placer: placer, config: config, logger: config.Logger}
}

// Run places each item of batchPath in order and writes the successes to
// "<outputDir>/<batch stem>_job<jobID>.<ext>". A failed item never stops the
// batch; only unreadable input, a context error or a failed write does.
func (r *Runner) Run(ctx context.Context, task Task, batchPath string) (*Report, error) {
	name, ok := naming.DecodeBatchFileName(batchPath)
	if !ok || name.JobID != "" {
		return nil, &core.NamingError{Field: "batch file", Value: filepath.Base(batchPath), Reason: "not a batch input name"}
	}
	outName, err := naming.EncodeBatchFileName(name.WithJobID(r.config.JobID))
	if err != nil {
		return nil, err
	}

	table, err := splitter.ReadTable(batchPath)
	if err != nil {
		return nil, err
	}
	col := table.Column(r.config.PayloadColumn)
	if col < 0 {
		return nil, &core.InputError{Path: batchPath, Reason: fmt.Sprintf("missing payload column %q", r.config.PayloadColumn)}
	}

	report := &Report{
		JobID:      r.config.JobID,
		BatchPath:  batchPath,
		OutputPath: filepath.Join(r.config.OutputDir, outName),
		Total:      len(table.Rows),
	}
	r.logger.Info("placing batch",
		"job_id", report.JobID,
		"batch", filepath.Base(batchPath),
		"target", task.Target,
		"items", report.Total)

	var results []ItemResult
	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		item := Item{Index: i + 1, Header: table.Header, Fields: row, Payload: row[col]}
		fmt.Fprintf(r.config.Progress, "%s %d/%d\n", core.ProgressMarker, item.Index, report.Total)

		outcome, attempts := r.place(ctx, task, item)
		if outcome.Kind == KindSuccess {
			results = append(results, ItemResult{Item: item, Artifact: outcome.Artifact})
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Failed = append(report.Failed, ItemFailure{
			Index:    item.Index,
			Payload:  item.Payload,
			Kind:     outcome.Kind,
			Reason:   outcome.Reason,
			Attempts: attempts,
		})
		r.logger.Warn("item failed",
			"index", item.Index,
			"payload", item.Payload,
			"outcome", outcome.Kind.String(),
			"reason", outcome.Reason,
			"attempts", attempts)
	}
	report.Succeeded = len(results)

	if err := r.config.Writer.WriteResults(report.OutputPath, table.Header, results); err != nil {
		return report, fmt.Errorf("write batch output: %w", err)
	}
	r.logger.Info("batch placed",
		"job_id", report.JobID,
		"succeeded", report.Succeeded,
		"failed", len(report.Failed),
		"output", report.OutputPath)
	return report, nil
}

// place runs the placer with retries, returning the final outcome and the attempts used.
func (r *Runner) place(ctx context.Context, task Task, item Item) (Outcome, int) {
	var (
		last     Outcome
		attempts int
	)
	_ = retryWithBackoff(ctx, r.config.Retry, func() error {
		attempts++
		last = r.placer.Place(ctx, task, item)
		err := last.Err()
		if err != nil && IsRetryableError(err) && attempts < r.config.Retry.MaxAttempts {
			r.logger.Debug("retrying item", "index", item.Index, "attempt", attempts, "error", err)
		}
		return err
	})
	return last, attempts
}
