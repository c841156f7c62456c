// Package core provides the domain models and interfaces for bulkdock.
package core

import (
	"strings"
	"time"
)

// JobState is the scheduler-owned state of a submitted job. bulkdock only observes it.
type JobState string

const (
	StatePending   JobState = "PENDING"
	StateRunning   JobState = "RUNNING"
	StateCompleted JobState = "COMPLETED"
	StateFailed    JobState = "FAILED"
	StateUnknown   JobState = "UNKNOWN"
)

// ParseJobState maps a scheduler state string onto JobState.
// Transitional and terminal SLURM states are folded into the closest bucket.
func ParseJobState(s string) JobState {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING", "CONFIGURING", "REQUEUED", "RESV_DEL_HOLD", "SUSPENDED":
		return StatePending
	case "RUNNING", "COMPLETING", "STAGE_OUT", "SIGNALING":
		return StateRunning
	case "COMPLETED":
		return StateCompleted
	case "FAILED", "CANCELLED", "TIMEOUT", "OUT_OF_MEMORY", "NODE_FAIL", "PREEMPTED", "BOOT_FAIL", "DEADLINE":
		return StateFailed
	default:
		return StateUnknown
	}
}

// Active reports whether the job has not yet reached a terminal state.
func (s JobState) Active() bool {
	return s == StatePending || s == StateRunning
}

// Role is the command a job runs: a worker placing one batch, or the collation step.
type Role string

const (
	RolePlace   Role = "place"
	RoleCombine Role = "combine"
)

// BatchFile is one materialised batch of a source file.
// Concatenating all batches of a SourceKey in BatchIndex order reproduces the source rows.
type BatchFile struct {
	SourceKey  string
	BatchSize  int
	BatchIndex int
	ItemCount  int
	Path       string
}

// Submission groups the jobs spawned by one Submit call.
type Submission struct {
	ID             string    `gorm:"primaryKey;size:36"`
	SourceKey      string    `gorm:"index;size:255;not null"`
	SourcePath     string    `gorm:"type:text"`
	Target         string    `gorm:"index;size:255"`
	BatchSize      int       `gorm:"default:0"`
	BatchCount     int       `gorm:"default:0"`
	TotalItems     int       `gorm:"default:0"`
	CollationJobID string    `gorm:"size:64"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// SubmittedJob is a scheduler job created by bulkdock.
// DependsOn is empty for worker jobs and holds exactly the worker job ids for a collation job.
type SubmittedJob struct {
	JobID        string        `gorm:"primaryKey;size:64"`
	SubmissionID string        `gorm:"index;size:36"`
	JobName      string        `gorm:"index;size:255;not null"`
	Role         Role          `gorm:"size:20"`
	Target       string        `gorm:"size:255"`
	BatchIndex   int           `gorm:"not null"` // -1 for collation jobs
	BatchPath    string        `gorm:"type:text"`
	LogPath      string        `gorm:"type:text"`
	DependsOn    []string      `gorm:"type:text;serializer:json"`
	CommandLine  string        `gorm:"type:text"`
	State        JobState      `gorm:"-"`
	Elapsed      time.Duration `gorm:"-"`
	SubmittedAt  time.Time     `gorm:"autoCreateTime"`
}
