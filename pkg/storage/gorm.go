package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/bulkdock/bulkdock/pkg/core"
)

// ErrNotFound is returned when a submission or job does not exist.
var ErrNotFound = errors.New("bulkdock: record not found")

// GormStorage implements core.Store using GORM.
type GormStorage struct {
	db *gorm.DB
}

var _ core.Store = (*GormStorage)(nil)

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// Open connects to dsn: "postgres://" and "postgresql://" URLs use PostgreSQL,
// anything else is a SQLite path (":memory:" included).
func Open(dsn string, opts ...PoolOption) (*GormStorage, error) {
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		dialector = postgres.Open(dsn)
	case dsn == "":
		return nil, errors.New("storage: empty dsn")
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", redact(dsn), err)
	}
	return NewGormStorageWithPool(db, opts...)
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&core.Submission{}, &core.SubmittedJob{})
}

// SaveSubmission inserts or replaces a submission.
func (s *GormStorage) SaveSubmission(ctx context.Context, sub *core.Submission) error {
	if sub.ID == "" {
		return errors.New("storage: submission id is required")
	}
	return s.db.WithContext(ctx).Save(sub).Error
}

// SaveJob inserts a job, replacing any earlier record with the same scheduler id.
func (s *GormStorage) SaveJob(ctx context.Context, job *core.SubmittedJob) error {
	if job.JobID == "" {
		return errors.New("storage: job id is required")
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(job).Error
}

// SetCollationJob records the collation job of a submission.
func (s *GormStorage) SetCollationJob(ctx context.Context, submissionID, jobID string) error {
	result := s.db.WithContext(ctx).
		Model(&core.Submission{}).
		Where("id = ?", submissionID).
		Update("collation_job_id", jobID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
	}
	return nil
}

// GetSubmission retrieves a submission by id.
func (s *GormStorage) GetSubmission(ctx context.Context, id string) (*core.Submission, error) {
	var sub core.Submission
	err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubmissions returns the newest submissions first, optionally for one source key.
// A non-positive limit returns all of them.
func (s *GormStorage) ListSubmissions(ctx context.Context, sourceKey string, limit int) ([]*core.Submission, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC, id ASC")
	if sourceKey != "" {
		query = query.Where("source_key = ?", sourceKey)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var subs []*core.Submission
	if err := query.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// GetJobsBySubmission returns the workers in batch order followed by the collation job.
func (s *GormStorage) GetJobsBySubmission(ctx context.Context, submissionID string) ([]*core.SubmittedJob, error) {
	var jobs []*core.SubmittedJob
	err := s.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("CASE WHEN batch_index < 0 THEN 1 ELSE 0 END, batch_index ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob retrieves a job by its scheduler id.
func (s *GormStorage) GetJob(ctx context.Context, jobID string) (*core.SubmittedJob, error) {
	var job core.SubmittedJob
	err := s.db.WithContext(ctx).First(&job, "job_id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Close releases the underlying connection pool.
func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// redact hides the password of a URL-style DSN.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, _ := strings.Cut(creds, ":")
	return scheme + "://" + user + ":***@" + host
}
