package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/santabrisa/backend/internal/application/pipeline"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/infrastructure/persistence"
)

func TestTriggerSweepEnqueuesAllPulls(t *testing.T) {
	jobs := persistence.NewInMemoryJobRepository()
	trigger := NewSyncTrigger(DefaultSyncTriggerConfig(), pipeline.NewEnqueuer(jobs, zap.NewNop()), zap.NewNop())

	trigger.TriggerSweep(context.Background())

	claimed, err := jobs.ClaimDue(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, claimed, 5)

	kinds := make(map[queue.JobKind]*queue.Job, len(claimed))
	for _, job := range claimed {
		kinds[job.Kind] = job
	}
	assert.Contains(t, kinds, queue.JobKindSyncContacts)
	assert.Contains(t, kinds, queue.JobKindSyncPurchases)
	assert.Contains(t, kinds, queue.JobKindSyncProducts)
	assert.Contains(t, kinds, queue.JobKindBackfillOrders)
	assert.Contains(t, kinds, queue.JobKindReconcileLabels)

	for _, job := range claimed {
		assert.Equal(t, "nightly:"+time.Now().Format("2006-01-02"), job.CorrelationID)
	}
}

func TestStartAndStopAreIdempotent(t *testing.T) {
	jobs := persistence.NewInMemoryJobRepository()
	cfg := DefaultSyncTriggerConfig()
	cfg.CheckInterval = 10 * time.Millisecond
	trigger := NewSyncTrigger(cfg, pipeline.NewEnqueuer(jobs, zap.NewNop()), zap.NewNop())

	ctx := context.Background()
	require.NoError(t, trigger.Start(ctx))
	require.NoError(t, trigger.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, trigger.Stop(stopCtx))
	require.NoError(t, trigger.Stop(stopCtx))
}
