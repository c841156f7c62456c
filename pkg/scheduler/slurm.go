package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bulkdock/bulkdock/pkg/core"
)

// squeue output columns: job id, name, state, elapsed.
const squeueFormat = "%i|%j|%T|%M"

var slurmJobID = regexp.MustCompile(`^\d+$`)

// Slurm drives sbatch and squeue.
type Slurm struct {
	submitCmd string
	listCmd   string
	user      string
	runner    Runner
	logger    *slog.Logger
}

var _ Scheduler = (*Slurm)(nil)

// Option configures Slurm.
type Option interface {
	apply(*Slurm)
}

type optionFunc func(*Slurm)

func (f optionFunc) apply(s *Slurm) { f(s) }

// SubmitCommand sets the submission binary (default "sbatch").
func SubmitCommand(path string) Option {
	return optionFunc(func(s *Slurm) {
		if path != "" {
			s.submitCmd = path
		}
	})
}

// ListCommand sets the listing binary (default "squeue").
func ListCommand(path string) Option {
	return optionFunc(func(s *Slurm) {
		if path != "" {
			s.listCmd = path
		}
	})
}

// User restricts listings to one user's jobs.
func User(name string) Option {
	return optionFunc(func(s *Slurm) {
		s.user = name
	})
}

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return optionFunc(func(s *Slurm) {
		if r != nil {
			s.runner = r
		}
	})
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(s *Slurm) {
		if l != nil {
			s.logger = l
		}
	})
}

// NewSlurm creates a SLURM scheduler client.
func NewSlurm(opts ...Option) *Slurm {
	s := &Slurm{
		submitCmd: "sbatch",
		listCmd:   "squeue",
		runner:    ExecRunner{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt.apply(s)
	}
	return s
}

// SubmitArgs returns the sbatch arguments for req.
func SubmitArgs(req SubmitRequest) []string {
	args := []string{
		"--job-name=" + req.JobName,
		"--output=" + req.LogPath,
		"--error=" + req.LogPath,
	}
	if req.Dependency != "" {
		args = append(args, "--dependency="+req.Dependency)
	}
	args = append(args, req.ExtraArgs...)
	args = append(args, req.Script)
	return append(args, req.Args...)
}

// Submit runs sbatch and parses the assigned job id.
// Any failure is a *core.SchedulerError carrying the command line and raw output.
func (s *Slurm) Submit(ctx context.Context, req SubmitRequest) (*Receipt, error) {
	args := SubmitArgs(req)
	cmdline := CommandLine(s.submitCmd, args...)

	stdout, stderr, err := s.runner.Run(ctx, s.submitCmd, args...)
	output := string(stdout) + string(stderr)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = fmt.Errorf("submission tool not found: %w", err)
		}
		return nil, &core.SchedulerError{Command: cmdline, Output: output, Err: err}
	}

	jobID, err := ParseJobID(string(stdout))
	if err != nil {
		return nil, &core.SchedulerError{Command: cmdline, Output: output, Err: err}
	}

	s.logger.Debug("submitted job", "job_id", jobID, "job_name", req.JobName)
	return &Receipt{JobID: jobID, CommandLine: cmdline, Output: output}, nil
}

// ParseJobID extracts the job id from sbatch output: the final whitespace-delimited
// token, with any ";cluster" suffix from --parsable removed.
func ParseJobID(output string) (string, error) {
	fields := strings.Fields(output)
	if len(fields) == 0 {
		return "", errors.New("no job id in submission output")
	}
	id, _, _ := strings.Cut(fields[len(fields)-1], ";")
	if !slurmJobID.MatchString(id) {
		return "", fmt.Errorf("unparseable job id %q", id)
	}
	return id, nil
}

// List runs squeue and parses its output.
func (s *Slurm) List(ctx context.Context) ([]Job, error) {
	args := []string{"--noheader", "--format=" + squeueFormat}
	if s.user != "" {
		args = append(args, "--user="+s.user)
	}

	stdout, stderr, err := s.runner.Run(ctx, s.listCmd, args...)
	if err != nil {
		return nil, &core.SchedulerError{
			Command: CommandLine(s.listCmd, args...),
			Output:  string(stdout) + string(stderr),
			Err:     err,
		}
	}
	return ParseSqueue(string(stdout), s.logger), nil
}

// ParseSqueue parses "%i|%j|%T|%M" lines. Unparseable lines are skipped with a warning.
func ParseSqueue(output string, logger *slog.Logger) []Job {
	var jobs []Job
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 4 {
			logger.Warn("skipping unparseable squeue line", "line", line)
			continue
		}
		n := len(fields)
		elapsed, err := ParseElapsed(fields[n-1])
		if err != nil {
			logger.Warn("unparseable elapsed time", "job_id", fields[0], "value", fields[n-1], "error", err)
		}
		jobs = append(jobs, Job{
			JobID:    strings.TrimSpace(fields[0]),
			Name:     strings.Join(fields[1:n-2], "|"),
			RawState: fields[n-2],
			State:    core.ParseJobState(fields[n-2]),
			Elapsed:  elapsed,
		})
	}
	return jobs
}

// ParseElapsed parses SLURM elapsed times: [days-][hours:]minutes:seconds.
// Empty and "INVALID" values (pending jobs) are zero.
func ParseElapsed(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "INVALID") || strings.EqualFold(s, "UNLIMITED") {
		return 0, nil
	}

	var days int
	if d, rest, found := strings.Cut(s, "-"); found {
		n, err := strconv.Atoi(d)
		if err != nil {
			return 0, fmt.Errorf("bad days in %q: %w", s, err)
		}
		days, s = n, rest
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("too many fields in %q", s)
	}
	var total time.Duration
	unit := time.Second
	for i := len(parts) - 1; i >= 0; i-- {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("bad field %q in elapsed time", parts[i])
		}
		total += time.Duration(n) * unit
		unit *= 60
	}
	return total + time.Duration(days)*24*time.Hour, nil
}
