// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// PipelineMetrics tracks the health of the job queue and webhook intake.
type PipelineMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	jobsClaimed      *Counter
	jobsCompleted    *Counter
	jobsRetried      *Counter
	jobsDeadLettered *Counter
	jobsReclaimed    *Counter
	jobDuration      *Histogram

	webhooksReceived  *Counter
	webhooksDuplicate *Counter
	webhooksRejected  *Counter
}

// PipelineMetricsConfig holds configuration for pipeline metrics.
type PipelineMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewPipelineMetrics creates a new PipelineMetrics instance.
func NewPipelineMetrics(cfg PipelineMetricsConfig) (*PipelineMetrics, error) {
	if cfg.Meter == nil {
		return nil, fmt.Errorf("meter cannot be nil")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &PipelineMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error
	if pm.jobsClaimed, err = NewCounter(cfg.Meter,
		"pipeline.jobs.claimed", "Jobs claimed by the dispatcher", "{job}"); err != nil {
		return nil, err
	}
	if pm.jobsCompleted, err = NewCounter(cfg.Meter,
		"pipeline.jobs.completed", "Jobs that finished successfully", "{job}"); err != nil {
		return nil, err
	}
	if pm.jobsRetried, err = NewCounter(cfg.Meter,
		"pipeline.jobs.retried", "Jobs re-queued after a transient failure", "{job}"); err != nil {
		return nil, err
	}
	if pm.jobsDeadLettered, err = NewCounter(cfg.Meter,
		"pipeline.jobs.dead_lettered", "Jobs moved to the dead-letter table", "{job}"); err != nil {
		return nil, err
	}
	if pm.jobsReclaimed, err = NewCounter(cfg.Meter,
		"pipeline.jobs.reclaimed", "Stale RUNNING jobs swept back to the queue", "{job}"); err != nil {
		return nil, err
	}
	if pm.jobDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "pipeline.job.duration",
		Description: "Worker execution duration",
		Unit:        "s",
		Boundaries:  []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}); err != nil {
		return nil, err
	}

	if pm.webhooksReceived, err = NewCounter(cfg.Meter,
		"intake.webhooks.received", "Webhook deliveries accepted for processing", "{event}"); err != nil {
		return nil, err
	}
	if pm.webhooksDuplicate, err = NewCounter(cfg.Meter,
		"intake.webhooks.duplicate", "Webhook deliveries short-circuited as duplicates", "{event}"); err != nil {
		return nil, err
	}
	if pm.webhooksRejected, err = NewCounter(cfg.Meter,
		"intake.webhooks.rejected", "Webhook deliveries rejected for bad signatures", "{event}"); err != nil {
		return nil, err
	}

	return pm, nil
}

// RecordJobClaimed records a claimed job
func (pm *PipelineMetrics) RecordJobClaimed(ctx context.Context, kind string) {
	pm.jobsClaimed.Inc(ctx, AttrJobKind.String(kind))
}

// RecordJobCompleted records a successful job with its duration
func (pm *PipelineMetrics) RecordJobCompleted(ctx context.Context, kind string, d time.Duration) {
	pm.jobsCompleted.Inc(ctx, AttrJobKind.String(kind))
	pm.jobDuration.RecordDuration(ctx, d, AttrJobKind.String(kind), AttrJobOutcome.String("ok"))
}

// RecordJobRetried records a job re-queued with backoff
func (pm *PipelineMetrics) RecordJobRetried(ctx context.Context, kind string) {
	pm.jobsRetried.Inc(ctx, AttrJobKind.String(kind))
}

// RecordJobDeadLettered records a job moved to the dead-letter table
func (pm *PipelineMetrics) RecordJobDeadLettered(ctx context.Context, kind string) {
	pm.jobsDeadLettered.Inc(ctx, AttrJobKind.String(kind))
}

// RecordJobsReclaimed records stale jobs swept back to the queue
func (pm *PipelineMetrics) RecordJobsReclaimed(ctx context.Context, count int64) {
	pm.jobsReclaimed.Add(ctx, count)
}

// RecordWebhookReceived records an accepted webhook delivery
func (pm *PipelineMetrics) RecordWebhookReceived(ctx context.Context, source, topic string) {
	pm.webhooksReceived.Inc(ctx, AttrWebhookSource.String(source), AttrWebhookTopic.String(topic))
}

// RecordWebhookDuplicate records a duplicate webhook delivery
func (pm *PipelineMetrics) RecordWebhookDuplicate(ctx context.Context, source string) {
	pm.webhooksDuplicate.Inc(ctx, AttrWebhookSource.String(source))
}

// RecordWebhookRejected records a rejected webhook delivery
func (pm *PipelineMetrics) RecordWebhookRejected(ctx context.Context, source string) {
	pm.webhooksRejected.Inc(ctx, AttrWebhookSource.String(source))
}
