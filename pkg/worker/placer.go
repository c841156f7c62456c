package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/bulkdock/bulkdock/pkg/security"
)

// Task is what every item of a batch is placed against.
type Task struct {
	Target    string
	Reference string
}

// Item is one row of a batch.
type Item struct {
	// Index is 1-based within the batch.
	Index   int
	Header  []string
	Fields  []string
	Payload string
}

// Placer performs the per-item computation.
type Placer interface {
	Place(ctx context.Context, task Task, item Item) Outcome
}

// PlacerFunc adapts a function to Placer.
type PlacerFunc func(ctx context.Context, task Task, item Item) Outcome

// Place implements Placer.
func (f PlacerFunc) Place(ctx context.Context, task Task, item Item) Outcome {
	return f(ctx, task, item)
}

// Argument placeholders understood by CommandPlacer.
const (
	ArgTarget    = "{target}"
	ArgPayload   = "{payload}"
	ArgReference = "{reference}"
	ArgIndex     = "{index}"
)

// CommandPlacer runs an external command once per item; its stdout is the artifact.
//
// Args may contain placeholders; when none is used, the target and payload are
// appended as the final two arguments.
type CommandPlacer struct {
	Command string
	Args    []string
	// Timeout bounds one attempt. Zero means no limit.
	Timeout time.Duration
	// RejectExitCodes are exit codes meaning the input is unusable; they are not retried.
	RejectExitCodes []int
}

var _ Placer = (*CommandPlacer)(nil)

// Place implements Placer.
func (p *CommandPlacer) Place(ctx context.Context, task Task, item Item) Outcome {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Command, p.args(task, item)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if err == nil {
		return Success(stdout.Bytes())
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return TimedOut()
	}
	if errors.Is(err, exec.ErrNotFound) {
		return Rejected(fmt.Sprintf("placement command %q not found", p.Command))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		for _, code := range p.RejectExitCodes {
			if exitErr.ExitCode() == code {
				return Rejected(fmt.Sprintf("exit %d: %s", code, lastLine(stderr.String())))
			}
		}
		return Crashed(fmt.Sprintf("exit %d: %s", exitErr.ExitCode(), lastLine(stderr.String())))
	}
	return Crashed(err.Error())
}

func (p *CommandPlacer) args(task Task, item Item) []string {
	r := strings.NewReplacer(
		ArgTarget, task.Target,
		ArgPayload, item.Payload,
		ArgReference, task.Reference,
		ArgIndex, strconv.Itoa(item.Index),
	)
	args := make([]string, 0, len(p.Args)+2)
	templated := false
	for _, a := range p.Args {
		if strings.Contains(a, ArgTarget) || strings.Contains(a, ArgPayload) ||
			strings.Contains(a, ArgReference) || strings.Contains(a, ArgIndex) {
			templated = true
		}
		args = append(args, r.Replace(a))
	}
	if !templated {
		args = append(args, task.Target, item.Payload)
	}
	return args
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return security.SanitizeMessage(s)
}
