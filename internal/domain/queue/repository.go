package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobRepository is the store-agnostic persistence port for the job queue.
// Multiple dispatcher instances may poll the same queue concurrently;
// ClaimDue must hand each due job to exactly one caller.
type JobRepository interface {
	// Save persists a new job in QUEUED state.
	Save(ctx context.Context, job *Job) error

	// ClaimDue selects jobs with status QUEUED and next_run_at <= now,
	// oldest first, and atomically marks them RUNNING. Two concurrent
	// callers never receive the same job.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*Job, error)

	// Update persists status/attempt changes to an existing job.
	Update(ctx context.Context, job *Job) error

	// FindByID retrieves a job by id.
	FindByID(ctx context.Context, id uuid.UUID) (*Job, error)

	// ReclaimStale re-queues RUNNING jobs untouched since the cutoff,
	// incrementing their attempt count. A dispatcher crash mid-run leaves a
	// job stuck RUNNING; idempotent workers make the re-run safe.
	ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// DeadLetterRepository persists terminal job failures for inspection/replay.
type DeadLetterRepository interface {
	Save(ctx context.Context, dl *DeadLetter) error
	FindByID(ctx context.Context, id uuid.UUID) (*DeadLetter, error)
	List(ctx context.Context, page, pageSize int) ([]*DeadLetter, int64, error)
}
