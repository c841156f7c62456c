package worker

import (
	"errors"
	"fmt"
)

// Outcome kinds. Rejected is permanent; TimedOut and Crashed may succeed on retry.
var (
	ErrTimedOut = errors.New("placement timed out")
	ErrCrashed  = errors.New("placement crashed")
	ErrRejected = errors.New("placement rejected")
)

// OutcomeKind tags an Outcome.
type OutcomeKind int

const (
	KindSuccess OutcomeKind = iota
	KindTimedOut
	KindCrashed
	KindRejected
)

func (k OutcomeKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindTimedOut:
		return "timed_out"
	case KindCrashed:
		return "crashed"
	case KindRejected:
		return "rejected"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of one placement attempt.
// Artifact is set only for KindSuccess; Reason only for failures.
type Outcome struct {
	Kind     OutcomeKind
	Artifact []byte
	Reason   string
}

// Success returns a successful outcome carrying artifact.
func Success(artifact []byte) Outcome {
	return Outcome{Kind: KindSuccess, Artifact: artifact}
}

// TimedOut returns an outcome for an attempt that exceeded its time limit.
func TimedOut() Outcome {
	return Outcome{Kind: KindTimedOut, Reason: "timed out"}
}

// Crashed returns an outcome for an attempt that failed unexpectedly.
func Crashed(reason string) Outcome {
	return Outcome{Kind: KindCrashed, Reason: reason}
}

// Rejected returns an outcome for input the placer will never accept.
func Rejected(reason string) Outcome {
	return Outcome{Kind: KindRejected, Reason: reason}
}

// Err converts a failed outcome into an error wrapping its kind sentinel, or nil on success.
func (o Outcome) Err() error {
	switch o.Kind {
	case KindSuccess:
		return nil
	case KindTimedOut:
		return ErrTimedOut
	case KindCrashed:
		return fmt.Errorf("%w: %s", ErrCrashed, o.Reason)
	case KindRejected:
		return fmt.Errorf("%w: %s", ErrRejected, o.Reason)
	default:
		return fmt.Errorf("unknown outcome %s", o.Kind)
	}
}
