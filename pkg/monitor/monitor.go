package monitor

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/bulkdock/bulkdock/pkg/core"
	"github.com/bulkdock/bulkdock/pkg/naming"
	"github.com/bulkdock/bulkdock/pkg/schedule"
	"github.com/bulkdock/bulkdock/pkg/scheduler"
)

// Status describes what a listed job is doing from the monitor's point of view.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusStarting  Status = "starting"
	StatusPlacing   Status = "placing"
	StatusCollating Status = "collating"
)

// Row is one sampled job.
type Row struct {
	JobID      string
	JobName    string
	Command    string
	Target     string
	Descriptor string
	State      core.JobState
	Elapsed    time.Duration
	Status     Status
	// Progress is nil for collation jobs and for jobs with no marker yet.
	Progress *core.ProgressSample
}

// Monitor samples jobs through a scheduler listing. It never mutates job state.
type Monitor struct {
	lister scheduler.Lister
	logDir string
	logger *slog.Logger
}

// Option configures a Monitor.
type Option interface {
	apply(*Monitor)
}

type optionFunc func(*Monitor)

func (f optionFunc) apply(m *Monitor) { f(m) }

// LogDir sets the directory holding "<jobID>.log" files, used when the
// listing does not report a log path.
func LogDir(dir string) Option {
	return optionFunc(func(m *Monitor) {
		m.logDir = dir
	})
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	})
}

// New creates a Monitor reading from lister.
func New(lister scheduler.Lister, opts ...Option) *Monitor {
	m := &Monitor{
		lister: lister,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt.apply(m)
	}
	return m
}

// Sample makes one pass over the active jobs whose name carries prefix
// (naming.DefaultPrefix when empty). Only a failed listing is an error.
func (m *Monitor) Sample(ctx context.Context, prefix string) ([]Row, error) {
	if prefix == "" {
		prefix = naming.DefaultPrefix
	}
	jobs, err := m.lister.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(jobs))
	for _, job := range jobs {
		if !naming.HasPrefix(job.Name, prefix) || !job.State.Active() {
			continue
		}
		name, err := naming.DecodeJobName(job.Name)
		if err != nil {
			m.logger.Warn("skipping job with undecodable name", "job_id", job.JobID, "job_name", job.Name, "error", err)
			continue
		}
		rows = append(rows, m.sampleJob(job, name))
	}
	return rows, nil
}

func (m *Monitor) sampleJob(job scheduler.Job, name naming.JobName) Row {
	row := Row{
		JobID:      job.JobID,
		JobName:    job.Name,
		Command:    name.Command,
		Target:     name.Target,
		Descriptor: name.Descriptor,
		State:      job.State,
		Elapsed:    job.Elapsed,
	}

	switch core.Role(name.Command) {
	case core.RoleCombine:
		row.Status = StatusCollating
		if job.State == core.StatePending {
			row.Status = StatusQueued
		}
		return row
	case core.RolePlace:
	default:
		m.logger.Debug("unknown job command", "job_id", job.JobID, "command", name.Command)
		return row
	}

	if job.State == core.StatePending {
		row.Status = StatusQueued
		return row
	}

	// Until the first marker is logged the worker has attempted nothing.
	row.Status = StatusStarting
	row.Progress = &core.ProgressSample{Elapsed: job.Elapsed}
	logPath := m.logPath(job)
	if logPath == "" {
		return row
	}
	attempted, total, ok, err := ReadLogMarker(logPath)
	if err != nil {
		m.logger.Debug("job log not readable yet", "job_id", job.JobID, "path", logPath, "error", err)
		return row
	}
	if !ok {
		return row
	}
	row.Status = StatusPlacing
	row.Progress = &core.ProgressSample{Attempted: attempted, Total: total, Elapsed: job.Elapsed}
	return row
}

func (m *Monitor) logPath(job scheduler.Job) string {
	if job.LogPath != "" {
		return job.LogPath
	}
	if m.logDir == "" {
		return ""
	}
	return filepath.Join(m.logDir, job.JobID+".log")
}

// Watch samples on every tick of s and hands the rows to fn until ctx is done
// or fn returns an error. A failed listing is passed to fn with nil rows.
func (m *Monitor) Watch(ctx context.Context, s schedule.Schedule, prefix string, fn func([]Row, error) error) error {
	return schedule.Run(ctx, s, func(ctx context.Context) error {
		rows, err := m.Sample(ctx, prefix)
		return fn(rows, err)
	})
}
