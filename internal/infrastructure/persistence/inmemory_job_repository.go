package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
)

// InMemoryJobRepository implements queue.JobRepository with a mutex-guarded
// map. Suitable for single-instance deployments and tests; the claim is a
// compare-and-swap under the lock, so it gives the same exactly-one-claimer
// guarantee as the SQL implementation within one process.
type InMemoryJobRepository struct {
	mu          sync.Mutex
	jobs        map[uuid.UUID]*queue.Job
	deadLetters []*queue.DeadLetter
}

// NewInMemoryJobRepository creates an empty in-memory job repository
func NewInMemoryJobRepository() *InMemoryJobRepository {
	return &InMemoryJobRepository{jobs: make(map[uuid.UUID]*queue.Job)}
}

// Save persists a new job
func (r *InMemoryJobRepository) Save(ctx context.Context, job *queue.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

// ClaimDue atomically claims due jobs, oldest first
func (r *InMemoryJobRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*queue.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []*queue.Job
	for _, j := range r.jobs {
		if j.IsDue(now) {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(i, k int) bool {
		if !due[i].NextRunAt.Equal(due[k].NextRunAt) {
			return due[i].NextRunAt.Before(due[k].NextRunAt)
		}
		return due[i].CreatedAt.Before(due[k].CreatedAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]*queue.Job, 0, len(due))
	for _, j := range due {
		j.Status = queue.JobStatusRunning
		j.UpdatedAt = time.Now()
		cp := *j
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

// Update persists status/attempt changes to an existing job
func (r *InMemoryJobRepository) Update(ctx context.Context, job *queue.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return shared.ErrNotFound
	}
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

// FindByID retrieves a job by id
func (r *InMemoryJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*queue.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

// ReclaimStale re-queues RUNNING jobs untouched since the cutoff
func (r *InMemoryJobRepository) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reclaimed int64
	for _, j := range r.jobs {
		if j.Status != queue.JobStatusRunning || !j.UpdatedAt.Before(cutoff) {
			continue
		}
		if j.MarkFailedAttempt("reclaimed: stuck in RUNNING past stale timeout") {
			r.deadLetters = append(r.deadLetters, queue.NewDeadLetter(j))
		} else {
			reclaimed++
		}
	}
	return reclaimed, nil
}

// DeadLetters returns dead letters produced by stale reclaims
func (r *InMemoryJobRepository) DeadLetters() []*queue.DeadLetter {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*queue.DeadLetter, len(r.deadLetters))
	copy(out, r.deadLetters)
	return out
}
