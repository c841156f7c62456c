package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule computes the next poll time after from.
type Schedule interface {
	Next(from time.Time) time.Time
}

// everySchedule polls at fixed intervals.
type everySchedule struct {
	interval time.Duration
}

// Every creates a schedule that polls every d. Non-positive intervals are raised to one second.
func Every(d time.Duration) Schedule {
	if d <= 0 {
		d = time.Second
	}
	return &everySchedule{interval: d}
}

func (s *everySchedule) Next(from time.Time) time.Time {
	return from.Add(s.interval)
}

// cronSchedule wraps a cron expression.
type cronSchedule struct {
	schedule cron.Schedule
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Cron creates a schedule from a five-field cron expression or a descriptor such as "@every 1m".
func Cron(expr string) (Schedule, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return &cronSchedule{schedule: schedule}, nil
}

func (s *cronSchedule) Next(from time.Time) time.Time {
	return s.schedule.Next(from)
}

// Parse reads a duration ("30s", "2m") or, failing that, a cron expression.
func Parse(spec string) (Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty schedule")
	}
	if d, err := time.ParseDuration(spec); err == nil {
		if d <= 0 {
			return nil, fmt.Errorf("schedule interval must be positive, got %s", d)
		}
		return Every(d), nil
	}
	return Cron(spec)
}

// Run calls fn immediately and then at every time s yields, until ctx is done
// or fn returns an error. It returns nil when stopped by the context.
func Run(ctx context.Context, s Schedule, fn func(context.Context) error) error {
	for {
		if err := fn(ctx); err != nil {
			return err
		}

		now := time.Now()
		wait := s.Next(now).Sub(now)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
