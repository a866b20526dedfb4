// Package scheduler triggers the nightly synchronization sweep. Webhooks
// keep the system current during the day; the sweep catches anything a
// missed delivery or a platform outage left behind.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/santabrisa/backend/internal/application/pipeline"
	"github.com/santabrisa/backend/internal/domain/queue"
)

// SyncTriggerConfig holds configuration for the nightly sync trigger
type SyncTriggerConfig struct {
	// DailyHour and DailyMinute set the time of day to run (24h clock)
	DailyHour   int
	DailyMinute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	// ReconcileWindow bounds the carrier-side label lookup
	ReconcileWindow time.Duration
}

// DefaultSyncTriggerConfig returns default sync trigger configuration
func DefaultSyncTriggerConfig() SyncTriggerConfig {
	return SyncTriggerConfig{
		DailyHour:       3, // 3am, after the platforms' own nightly batches
		DailyMinute:     0,
		CheckInterval:   time.Minute,
		ReconcileWindow: 24 * time.Hour,
	}
}

// SyncTrigger enqueues the nightly sync and reconciliation jobs
type SyncTrigger struct {
	config   SyncTriggerConfig
	enqueuer *pipeline.Enqueuer
	logger   *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string // Track which date we last ran for
}

// NewSyncTrigger creates a new sync trigger
func NewSyncTrigger(config SyncTriggerConfig, enqueuer *pipeline.Enqueuer, logger *zap.Logger) *SyncTrigger {
	return &SyncTrigger{
		config:   config,
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// Start starts the sync trigger
func (s *SyncTrigger) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Sync trigger started",
		zap.Int("daily_hour", s.config.DailyHour),
		zap.Int("daily_minute", s.config.DailyMinute),
		zap.Duration("check_interval", s.config.CheckInterval),
	)

	return nil
}

// Stop stops the sync trigger
func (s *SyncTrigger) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop checks periodically if it's time to run the nightly sweep
func (s *SyncTrigger) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger checks if it's time to run and enqueues the sweep
func (s *SyncTrigger) checkAndTrigger(ctx context.Context) {
	now := time.Now()
	currentDate := now.Format("2006-01-02")

	// Skip if we already ran today
	s.mu.Lock()
	if s.lastRunDate == currentDate {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if now.Hour() != s.config.DailyHour || now.Minute() != s.config.DailyMinute {
		return
	}

	s.mu.Lock()
	s.lastRunDate = currentDate
	s.mu.Unlock()

	s.logger.Info("Triggering nightly synchronization sweep")
	s.TriggerSweep(ctx)
}

// TriggerSweep enqueues the first page of each catalog pull, an order
// backfill and a label reconciliation run. A failed enqueue is logged and
// the rest of the sweep continues; the next night retries from scratch.
func (s *SyncTrigger) TriggerSweep(ctx context.Context) {
	correlation := "nightly:" + time.Now().Format("2006-01-02")

	pulls := []queue.JobKind{
		queue.JobKindSyncContacts,
		queue.JobKindSyncPurchases,
		queue.JobKindSyncProducts,
	}
	for _, kind := range pulls {
		if _, err := s.enqueuer.Enqueue(ctx, kind, queue.SyncPagePayload{Page: 1},
			queue.WithCorrelationID(correlation)); err != nil {
			s.logger.Error("Failed to enqueue nightly sync job",
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
	}

	since := time.Now().Add(-s.config.ReconcileWindow).UTC().Format(time.RFC3339)
	if _, err := s.enqueuer.Enqueue(ctx, queue.JobKindBackfillOrders,
		queue.BackfillOrdersPayload{Since: since},
		queue.WithCorrelationID(correlation)); err != nil {
		s.logger.Error("Failed to enqueue order backfill job", zap.Error(err))
	}
	if _, err := s.enqueuer.Enqueue(ctx, queue.JobKindReconcileLabels,
		queue.ReconcileLabelsPayload{Since: since},
		queue.WithCorrelationID(correlation)); err != nil {
		s.logger.Error("Failed to enqueue label reconciliation job", zap.Error(err))
	}
}
