package core

import "context"

// Store persists submissions and their jobs.
// It is an optional record alongside the naming convention, which stays the source of truth.
type Store interface {
	// Migrate creates the necessary database tables.
	Migrate(ctx context.Context) error

	SaveSubmission(ctx context.Context, sub *Submission) error
	SaveJob(ctx context.Context, job *SubmittedJob) error
	SetCollationJob(ctx context.Context, submissionID, jobID string) error

	// Queries
	GetSubmission(ctx context.Context, id string) (*Submission, error)
	ListSubmissions(ctx context.Context, sourceKey string, limit int) ([]*Submission, error)
	GetJobsBySubmission(ctx context.Context, submissionID string) ([]*SubmittedJob, error)
	GetJob(ctx context.Context, jobID string) (*SubmittedJob, error)
}
