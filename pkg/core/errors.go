package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy. Typed errors below unwrap to one of these.
var (
	ErrInput                = errors.New("bulkdock: invalid input")
	ErrNaming               = errors.New("bulkdock: invalid name")
	ErrSchedulerUnavailable = errors.New("bulkdock: scheduler unavailable")
	ErrPartialSubmission    = errors.New("bulkdock: partial submission")
	ErrUnsupportedBatchMix  = errors.New("bulkdock: unsupported batch size mix")
	ErrIncompleteCollation  = errors.New("bulkdock: incomplete collation")
)

// InputError reports a malformed, empty or missing source file.
type InputError struct {
	Path   string
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bulkdock: invalid input %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("bulkdock: invalid input %s: %s", e.Path, e.Reason)
}

func (e *InputError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInput, e.Err}
	}
	return []error{ErrInput}
}

// NamingError reports a component value that cannot be encoded, or an encoded name that cannot be decoded.
type NamingError struct {
	Field  string
	Value  string
	Reason string
}

func (e *NamingError) Error() string {
	return fmt.Sprintf("bulkdock: invalid name: %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *NamingError) Unwrap() error {
	return ErrNaming
}

// SchedulerError reports a submission command that was missing, exited non-zero,
// or printed no parseable job id.
type SchedulerError struct {
	Command string
	Output  string
	Err     error
}

func (e *SchedulerError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bulkdock: scheduler unavailable: %s", e.Command)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		fmt.Fprintf(&b, " (output: %s)", out)
	}
	return b.String()
}

func (e *SchedulerError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSchedulerUnavailable, e.Err}
	}
	return []error{ErrSchedulerUnavailable}
}

// PartialSubmissionError is returned when some, but not all, jobs were submitted.
// WorkerJobIDs lists the jobs already accepted by the scheduler; they are not cancelled.
type PartialSubmissionError struct {
	WorkerJobIDs []string
	Total        int
	Err          error
}

func (e *PartialSubmissionError) Error() string {
	return fmt.Sprintf("bulkdock: partial submission: %d/%d worker jobs submitted (%s): %v",
		len(e.WorkerJobIDs), e.Total, strings.Join(e.WorkerJobIDs, ","), e.Err)
}

func (e *PartialSubmissionError) Unwrap() []error {
	return []error{ErrPartialSubmission, e.Err}
}

// BatchMixError reports worker outputs of one source produced with different batch sizes.
type BatchMixError struct {
	SourceKey string
	Sizes     []int
}

func (e *BatchMixError) Error() string {
	return fmt.Sprintf("bulkdock: unsupported batch size mix for %s: %v", e.SourceKey, e.Sizes)
}

func (e *BatchMixError) Unwrap() error {
	return ErrUnsupportedBatchMix
}

// IncompleteCollationError lists batch indices that had no worker output.
// It is a warning: collation still produced an artifact from the remaining batches.
type IncompleteCollationError struct {
	SourceKey string
	Missing   []int
	Expected  int
}

func (e *IncompleteCollationError) Error() string {
	return fmt.Sprintf("bulkdock: incomplete collation for %s: %d/%d batches missing %v",
		e.SourceKey, len(e.Missing), e.Expected, e.Missing)
}

func (e *IncompleteCollationError) Unwrap() error {
	return ErrIncompleteCollation
}
