package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/santabrisa/backend/internal/domain/integration"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DispatcherConfig holds configuration for the dispatcher
type DispatcherConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	StaleAfter    time.Duration
	SweepInterval time.Duration
}

// DefaultDispatcherConfig returns default configuration
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		BatchSize:     25,
		PollInterval:  5 * time.Second,
		StaleAfter:    10 * time.Minute,
		SweepInterval: time.Minute,
	}
}

// Dispatcher polls the job queue and executes due jobs through the worker
// registry. Multiple dispatcher instances may poll the same queue; the
// atomic claim in ClaimDue keeps each job with exactly one of them.
//
// Error classification lives here and nowhere else: a nil error completes
// the job, a terminal error (shared.TerminalError, or an APIError whose
// status marks a permanent rejection) fails it immediately and writes a
// dead letter, and anything else consumes one retry with backoff.
type Dispatcher struct {
	jobs        queue.JobRepository
	deadLetters queue.DeadLetterRepository
	registry    *Registry
	config      DispatcherConfig
	metrics     *telemetry.PipelineMetrics
	logger      *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// DispatcherOption is a functional option for configuring the dispatcher
type DispatcherOption func(*Dispatcher)

// WithPipelineMetrics attaches metrics recording to the dispatcher
func WithPipelineMetrics(m *telemetry.PipelineMetrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(
	jobs queue.JobRepository,
	deadLetters queue.DeadLetterRepository,
	registry *Registry,
	config DispatcherConfig,
	logger *zap.Logger,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		jobs:        jobs,
		deadLetters: deadLetters,
		registry:    registry,
		config:      config,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start starts the poll loop and the stale-job sweep loop.
func (d *Dispatcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.pollLoop(ctx)

	d.wg.Add(1)
	go d.sweepLoop(ctx)

	d.logger.Info("dispatcher started",
		zap.Int("batch_size", d.config.BatchSize),
		zap.Duration("poll_interval", d.config.PollInterval),
		zap.Duration("stale_after", d.config.StaleAfter),
		zap.Int("registered_kinds", len(d.registry.Kinds())),
	)
	return nil
}

// Stop gracefully stops the dispatcher, waiting for in-flight jobs.
func (d *Dispatcher) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) pollLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runBatch(ctx)
		}
	}
}

// runBatch claims one batch of due jobs and executes them in sequence. A
// stuck job cannot stall the instance forever; the stale sweep of another
// instance reclaims anything left RUNNING past the threshold.
func (d *Dispatcher) runBatch(ctx context.Context) {
	claimed, err := d.jobs.ClaimDue(ctx, time.Now(), d.config.BatchSize)
	if err != nil {
		d.logger.Error("failed to claim due jobs", zap.Error(err))
		return
	}

	for _, job := range claimed {
		if ctx.Err() != nil {
			return
		}
		d.runJob(ctx, job)
	}
}

// runJob executes a single claimed job and classifies its outcome.
func (d *Dispatcher) runJob(ctx context.Context, job *queue.Job) {
	if d.metrics != nil {
		d.metrics.RecordJobClaimed(ctx, job.Kind.String())
	}

	worker, ok := d.registry.Lookup(job.Kind)
	if !ok {
		d.failTerminal(ctx, job, fmt.Sprintf("no worker registered for kind %q", job.Kind))
		return
	}

	started := time.Now()
	result, err := worker.Execute(ctx, job)
	elapsed := time.Since(started)

	if err == nil {
		job.MarkDone(result)
		if updateErr := d.jobs.Update(ctx, job); updateErr != nil {
			d.logger.Error("failed to mark job done",
				zap.String("job_id", job.ID.String()),
				zap.Error(updateErr),
			)
			return
		}
		if d.metrics != nil {
			d.metrics.RecordJobCompleted(ctx, job.Kind.String(), elapsed)
		}
		d.logger.Debug("job completed",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", job.Kind.String()),
			zap.Duration("elapsed", elapsed),
		)
		return
	}

	if isTerminal(err) {
		d.failTerminal(ctx, job, err.Error())
		return
	}

	exhausted := job.MarkFailedAttempt(err.Error())
	if updateErr := d.jobs.Update(ctx, job); updateErr != nil {
		d.logger.Error("failed to record job failure",
			zap.String("job_id", job.ID.String()),
			zap.Error(updateErr),
		)
		return
	}

	if exhausted {
		d.writeDeadLetter(ctx, job)
		d.logger.Warn("job failed terminally, retry budget exhausted",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", job.Kind.String()),
			zap.Int("attempts", job.Attempts),
			zap.String("last_error", job.LastError),
		)
		return
	}

	if d.metrics != nil {
		d.metrics.RecordJobRetried(ctx, job.Kind.String())
	}
	d.logger.Info("job failed, retry scheduled",
		zap.String("job_id", job.ID.String()),
		zap.String("kind", job.Kind.String()),
		zap.Int("attempts", job.Attempts),
		zap.Time("next_run_at", job.NextRunAt),
		zap.String("error", err.Error()),
	)
}

// failTerminal fails the job immediately without consuming remaining
// retries and writes its dead letter.
func (d *Dispatcher) failTerminal(ctx context.Context, job *queue.Job, errMsg string) {
	job.MarkFailedTerminal(errMsg)
	if err := d.jobs.Update(ctx, job); err != nil {
		d.logger.Error("failed to mark job terminally failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return
	}
	d.writeDeadLetter(ctx, job)
	d.logger.Warn("job failed terminally",
		zap.String("job_id", job.ID.String()),
		zap.String("kind", job.Kind.String()),
		zap.String("last_error", job.LastError),
	)
}

func (d *Dispatcher) writeDeadLetter(ctx context.Context, job *queue.Job) {
	if err := d.deadLetters.Save(ctx, queue.NewDeadLetter(job)); err != nil {
		d.logger.Error("failed to write dead letter",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return
	}
	if d.metrics != nil {
		d.metrics.RecordJobDeadLettered(ctx, job.Kind.String())
	}
}

func (d *Dispatcher) sweepLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sweepStale(ctx)
		}
	}
}

// sweepStale re-queues RUNNING jobs untouched past the stale threshold.
// A dispatcher crash mid-run leaves its claimed jobs stuck RUNNING; the
// re-run after reclaim is safe because workers are idempotent.
func (d *Dispatcher) sweepStale(ctx context.Context) {
	cutoff := time.Now().Add(-d.config.StaleAfter)
	reclaimed, err := d.jobs.ReclaimStale(ctx, cutoff)
	if err != nil {
		d.logger.Error("failed to reclaim stale jobs", zap.Error(err))
		return
	}
	if reclaimed > 0 {
		if d.metrics != nil {
			d.metrics.RecordJobsReclaimed(ctx, reclaimed)
		}
		d.logger.Warn("reclaimed stale running jobs", zap.Int64("count", reclaimed))
	}
}

// isTerminal reports whether an error is unrecoverable: retrying cannot
// change the outcome, so the job fails fast instead of burning attempts.
func isTerminal(err error) bool {
	if shared.IsTerminal(err) {
		return true
	}
	if apiErr, ok := integration.AsAPIError(err); ok {
		return !apiErr.Retryable()
	}
	return false
}
