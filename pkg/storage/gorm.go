package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teacurran/village-jobs/pkg/core"
	"github.com/teacurran/village-jobs/pkg/security"
)

// GormStorage implements core.Storage using GORM.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// DB returns the underlying *gorm.DB.
func (s *GormStorage) DB() *gorm.DB {
	return s.db
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&core.Job{})
}

// Create persists a new job record.
func (s *GormStorage) Create(ctx context.Context, job *core.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.RunAt.IsZero() {
		job.RunAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(job).Error
}

// Claim atomically locks an eligible job and increments its attempt count.
//
// The eligibility check and the lock transition happen in a single
// conditional UPDATE; RowsAffected decides the race, so two workers claiming
// the same job concurrently can never both succeed.
func (s *GormStorage) Claim(ctx context.Context, jobID string) (*core.Job, error) {
	now := time.Now()

	result := s.db.WithContext(ctx).
		Model(&core.Job{}).
		Where("id = ? AND locked = ? AND complete = ? AND run_at <= ?", jobID, false, false, now).
		Updates(map[string]any{
			"locked":    true,
			"locked_at": now,
			"attempts":  gorm.Expr("attempts + 1"),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Missing, already locked, already complete, or not yet due.
		return nil, nil
	}

	var job core.Job
	if err := s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkSucceeded records a successful outcome on a claimed job.
func (s *GormStorage) MarkSucceeded(ctx context.Context, jobID string) error {
	now := time.Now()
	result := s.db.WithContext(ctx).
		Model(&core.Job{}).
		Where("id = ? AND locked = ?", jobID, true).
		Updates(map[string]any{
			"locked":                 false,
			"locked_at":              nil,
			"complete":               true,
			"completed_at":           now,
			"completed_with_failure": false,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrNotClaimed
	}
	return nil
}

// MarkFailed records a terminal failure: the job is complete and will never
// be retried. Error messages are sanitized before storage.
func (s *GormStorage) MarkFailed(ctx context.Context, jobID string, errMsg string) error {
	now := time.Now()
	result := s.db.WithContext(ctx).
		Model(&core.Job{}).
		Where("id = ? AND locked = ?", jobID, true).
		Updates(map[string]any{
			"locked":                 false,
			"locked_at":              nil,
			"complete":               true,
			"completed_at":           now,
			"completed_with_failure": true,
			"last_error":             security.SanitizeErrorMessage(errMsg),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrNotClaimed
	}
	return nil
}

// RecordRetry releases the lock after a recoverable failure and pushes RunAt
// forward. The job stays incomplete so a later claim can pick it up.
func (s *GormStorage) RecordRetry(ctx context.Context, jobID string, runAt time.Time, errMsg string) error {
	result := s.db.WithContext(ctx).
		Model(&core.Job{}).
		Where("id = ? AND locked = ?", jobID, true).
		Updates(map[string]any{
			"locked":     false,
			"locked_at":  nil,
			"run_at":     runAt,
			"last_error": security.SanitizeErrorMessage(errMsg),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrNotClaimed
	}
	return nil
}

// FindReadyToRun returns incomplete jobs whose RunAt has arrived, highest
// priority first, longest-waiting first within a priority.
func (s *GormStorage) FindReadyToRun(ctx context.Context, limit int) ([]*core.Job, error) {
	var jobList []*core.Job
	now := time.Now()

	err := s.db.WithContext(ctx).
		Where("complete = ?", false).
		Where("run_at <= ?", now).
		Order("priority DESC, run_at ASC").
		Limit(limit).
		Find(&jobList).Error

	return jobList, err
}

// GetJob retrieves a job by ID.
func (s *GormStorage) GetJob(ctx context.Context, jobID string) (*core.Job, error) {
	var job core.Job
	err := s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ReleaseStaleLocks unlocks incomplete jobs whose claim is older than
// olderThan. Jobs orphaned by a crashed worker become claimable again.
func (s *GormStorage) ReleaseStaleLocks(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result := s.db.WithContext(ctx).
		Model(&core.Job{}).
		Where("locked = ? AND complete = ?", true, false).
		Where("locked_at < ?", cutoff).
		Updates(map[string]any{
			"locked":    false,
			"locked_at": nil,
		})
	return result.RowsAffected, result.Error
}
