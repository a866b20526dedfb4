package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormJobRepository implements queue.JobRepository using GORM. Claiming uses
// FOR UPDATE SKIP LOCKED so multiple dispatcher instances polling the same
// table never receive the same job.
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GORM-based job repository
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// Save persists a new job
func (r *GormJobRepository) Save(ctx context.Context, job *queue.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return shared.ErrStorageUnavailable
	}
	return nil
}

// ClaimDue atomically claims due jobs, oldest first
func (r *GormJobRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*queue.Job, error) {
	var jobs []*queue.Job

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Options:  "SKIP LOCKED",
			}).
			Where("status = ? AND next_run_at <= ?", queue.JobStatusQueued, now).
			Order("next_run_at ASC, created_at ASC").
			Limit(limit).
			Find(&jobs).Error; err != nil {
			return err
		}

		if len(jobs) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(jobs))
		for i, j := range jobs {
			ids[i] = j.ID
		}

		claimedAt := time.Now()
		if err := tx.Model(&queue.Job{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":     queue.JobStatusRunning,
				"updated_at": claimedAt,
			}).Error; err != nil {
			return err
		}

		for _, j := range jobs {
			j.Status = queue.JobStatusRunning
			j.UpdatedAt = claimedAt
		}
		return nil
	})

	return jobs, err
}

// Update persists status/attempt changes to an existing job
func (r *GormJobRepository) Update(ctx context.Context, job *queue.Job) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// FindByID retrieves a job by id
func (r *GormJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*queue.Job, error) {
	var job queue.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// ReclaimStale re-queues RUNNING jobs untouched since the cutoff. Jobs whose
// retry budget is already spent are failed with a dead-letter record instead.
func (r *GormJobRepository) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	var reclaimed int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []*queue.Job
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Options:  "SKIP LOCKED",
			}).
			Where("status = ? AND updated_at < ?", queue.JobStatusRunning, cutoff).
			Find(&stale).Error; err != nil {
			return err
		}

		for _, job := range stale {
			if job.MarkFailedAttempt("reclaimed: stuck in RUNNING past stale timeout") {
				if err := tx.Create(queue.NewDeadLetter(job)).Error; err != nil {
					return err
				}
			} else {
				reclaimed++
			}
			if err := tx.Save(job).Error; err != nil {
				return err
			}
		}
		return nil
	})

	return reclaimed, err
}
