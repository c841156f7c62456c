package worker

import (
	"io"
	"log/slog"

	"github.com/bulkdock/bulkdock/pkg/security"
)

// RunnerOption configures a Runner.
type RunnerOption interface {
	ApplyRunner(*RunnerConfig)
}

type runnerOptionFunc func(*RunnerConfig)

func (f runnerOptionFunc) ApplyRunner(c *RunnerConfig) { f(c) }

// RunnerConfig holds runner configuration.
type RunnerConfig struct {
	OutputDir     string
	JobID         string
	PayloadColumn string
	Retry         RetryConfig
	Writer        ResultWriter
	// Progress receives the marker lines; it is the job log when run under the scheduler.
	Progress io.Writer
	Logger   *slog.Logger
}

// OutputDir sets where batch outputs are written.
func OutputDir(dir string) RunnerOption {
	return runnerOptionFunc(func(c *RunnerConfig) {
		c.OutputDir = dir
	})
}

// JobID overrides the job id taken from the scheduler environment.
func JobID(id string) RunnerOption {
	return runnerOptionFunc(func(c *RunnerConfig) {
		c.JobID = id
	})
}

// PayloadColumn sets the column passed to the placer as the item payload.
func PayloadColumn(name string) RunnerOption {
	return runnerOptionFunc(func(c *RunnerConfig) {
		if name != "" {
			c.PayloadColumn = name
		}
	})
}

// WithRetry sets the per-item retry policy.
func WithRetry(cfg RetryConfig) RunnerOption {
	return runnerOptionFunc(func(c *RunnerConfig) {
		c.Retry = cfg
	})
}

// WithRetryAttempts sets the number of attempts per item, keeping default backoff.
func WithRetryAttempts(attempts int) RunnerOption {
	return runnerOptionFunc(func(c *RunnerConfig) {
		c.Retry.MaxAttempts = security.ClampAttempts(attempts)
	})
}

// DisableRetry makes every item a single attempt.
func DisableRetry() RunnerOption {
	return WithRetryAttempts(1)
}

// WithResultWriter replaces the output writer.
func WithResultWriter(w ResultWriter) RunnerOption {
	return runnerOptionFunc(func(c *RunnerConfig) {
		if w != nil {
			c.Writer = w
		}
	})
}

// ProgressTo sets where marker lines are written. Default: stdout.
func ProgressTo(w io.Writer) RunnerOption {
	return runnerOptionFunc(func(c *RunnerConfig) {
		if w != nil {
			c.Progress = w
		}
	})
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return runnerOptionFunc(func(c *RunnerConfig) {
		if l != nil {
			c.Logger = l
		}
	})
}
