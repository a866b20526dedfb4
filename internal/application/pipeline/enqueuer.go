package pipeline

import (
	"context"

	"github.com/santabrisa/backend/internal/domain/queue"
	"go.uber.org/zap"
)

// Enqueuer creates queued jobs from typed payloads. It is the single write
// path into the queue for API handlers and for workers that chain dependent
// jobs; a dependent job is only enqueued after the triggering write has
// committed, which gives causal ordering within one chain.
type Enqueuer struct {
	jobs        queue.JobRepository
	maxAttempts int
	logger      *zap.Logger
}

// EnqueuerOption is a functional option for configuring the enqueuer
type EnqueuerOption func(*Enqueuer)

// WithDefaultMaxAttempts sets the retry budget applied to every job this
// enqueuer creates. Callers can still override it per job.
func WithDefaultMaxAttempts(n int) EnqueuerOption {
	return func(e *Enqueuer) {
		e.maxAttempts = n
	}
}

// NewEnqueuer creates a new enqueuer.
func NewEnqueuer(jobs queue.JobRepository, logger *zap.Logger, opts ...EnqueuerOption) *Enqueuer {
	e := &Enqueuer{
		jobs:   jobs,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enqueue encodes the payload and persists a new QUEUED job.
func (e *Enqueuer) Enqueue(ctx context.Context, kind queue.JobKind, payload any, opts ...queue.JobOption) (*queue.Job, error) {
	data, err := queue.EncodePayload(payload)
	if err != nil {
		return nil, err
	}

	if e.maxAttempts > 0 {
		opts = append([]queue.JobOption{queue.WithMaxAttempts(e.maxAttempts)}, opts...)
	}
	job := queue.NewJob(kind, data, opts...)
	if err := e.jobs.Save(ctx, job); err != nil {
		return nil, err
	}

	e.logger.Info("job enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("kind", job.Kind.String()),
		zap.String("correlation_id", job.CorrelationID),
		zap.Time("next_run_at", job.NextRunAt),
	)
	return job, nil
}
