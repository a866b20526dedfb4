package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryJobRepository_ClaimDue(t *testing.T) {
	t.Run("claims oldest due jobs first", func(t *testing.T) {
		repo := NewInMemoryJobRepository()
		ctx := context.Background()

		later := queue.NewJob(queue.JobKindSyncContacts, []byte(`{}`), queue.WithDelay(time.Minute))
		due := queue.NewJob(queue.JobKindSyncProducts, []byte(`{}`))
		require.NoError(t, repo.Save(ctx, later))
		require.NoError(t, repo.Save(ctx, due))

		claimed, err := repo.ClaimDue(ctx, time.Now(), 10)

		require.NoError(t, err)
		require.Len(t, claimed, 1)
		assert.Equal(t, due.ID, claimed[0].ID)
		assert.Equal(t, queue.JobStatusRunning, claimed[0].Status)
	})

	t.Run("a claimed job is not claimed again", func(t *testing.T) {
		repo := NewInMemoryJobRepository()
		ctx := context.Background()

		job := queue.NewJob(queue.JobKindMarkShipped, []byte(`{}`))
		require.NoError(t, repo.Save(ctx, job))

		first, err := repo.ClaimDue(ctx, time.Now(), 10)
		require.NoError(t, err)
		require.Len(t, first, 1)

		second, err := repo.ClaimDue(ctx, time.Now(), 10)
		require.NoError(t, err)
		assert.Empty(t, second)
	})

	t.Run("concurrent claimers never share a job", func(t *testing.T) {
		repo := NewInMemoryJobRepository()
		ctx := context.Background()

		const jobCount = 50
		for i := 0; i < jobCount; i++ {
			require.NoError(t, repo.Save(ctx, queue.NewJob(queue.JobKindCreateDeliveryNote, []byte(`{}`))))
		}

		const claimers = 8
		var wg sync.WaitGroup
		results := make(chan uuid.UUID, jobCount*2)
		for c := 0; c < claimers; c++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					claimed, err := repo.ClaimDue(ctx, time.Now(), 5)
					assert.NoError(t, err)
					if len(claimed) == 0 {
						return
					}
					for _, j := range claimed {
						results <- j.ID
					}
				}
			}()
		}
		wg.Wait()
		close(results)

		seen := make(map[uuid.UUID]int)
		for id := range results {
			seen[id]++
		}
		assert.Len(t, seen, jobCount)
		for id, n := range seen {
			assert.Equal(t, 1, n, "job %s claimed %d times", id, n)
		}
	})
}

func TestInMemoryJobRepository_Update(t *testing.T) {
	t.Run("persists status changes", func(t *testing.T) {
		repo := NewInMemoryJobRepository()
		ctx := context.Background()

		job := queue.NewJob(queue.JobKindCreateCarrierLabel, []byte(`{}`))
		require.NoError(t, repo.Save(ctx, job))

		claimed, err := repo.ClaimDue(ctx, time.Now(), 1)
		require.NoError(t, err)
		require.Len(t, claimed, 1)

		claimed[0].MarkDone([]byte(`{"ok":true}`))
		require.NoError(t, repo.Update(ctx, claimed[0]))

		stored, err := repo.FindByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.JobStatusDone, stored.Status)
	})

	t.Run("returns ErrNotFound for unknown job", func(t *testing.T) {
		repo := NewInMemoryJobRepository()

		job := queue.NewJob(queue.JobKindSyncPurchases, []byte(`{}`))

		err := repo.Update(context.Background(), job)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestInMemoryJobRepository_ReclaimStale(t *testing.T) {
	t.Run("requeues a stuck running job with backoff", func(t *testing.T) {
		repo := NewInMemoryJobRepository()
		ctx := context.Background()

		job := queue.NewJob(queue.JobKindUpsertInboundOrder, []byte(`{}`))
		require.NoError(t, repo.Save(ctx, job))

		claimed, err := repo.ClaimDue(ctx, time.Now(), 1)
		require.NoError(t, err)
		require.Len(t, claimed, 1)

		reclaimed, err := repo.ReclaimStale(ctx, time.Now().Add(time.Second))
		require.NoError(t, err)
		assert.Equal(t, int64(1), reclaimed)

		stored, err := repo.FindByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.JobStatusQueued, stored.Status)
		assert.Equal(t, 1, stored.Attempts)
		assert.True(t, stored.NextRunAt.After(time.Now()))
	})

	t.Run("dead-letters a stuck job with no retry budget left", func(t *testing.T) {
		repo := NewInMemoryJobRepository()
		ctx := context.Background()

		job := queue.NewJob(queue.JobKindReconcileLabels, []byte(`{}`), queue.WithMaxAttempts(1))
		require.NoError(t, repo.Save(ctx, job))

		_, err := repo.ClaimDue(ctx, time.Now(), 1)
		require.NoError(t, err)

		reclaimed, err := repo.ReclaimStale(ctx, time.Now().Add(time.Second))
		require.NoError(t, err)
		assert.Equal(t, int64(0), reclaimed)

		stored, err := repo.FindByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.JobStatusFailed, stored.Status)

		letters := repo.DeadLetters()
		require.Len(t, letters, 1)
		assert.Equal(t, job.ID, letters[0].JobID)
	})

	t.Run("leaves recently claimed jobs alone", func(t *testing.T) {
		repo := NewInMemoryJobRepository()
		ctx := context.Background()

		job := queue.NewJob(queue.JobKindCreateShipmentFromOrder, []byte(`{}`))
		require.NoError(t, repo.Save(ctx, job))

		_, err := repo.ClaimDue(ctx, time.Now(), 1)
		require.NoError(t, err)

		reclaimed, err := repo.ReclaimStale(ctx, time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(0), reclaimed)

		stored, err := repo.FindByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.JobStatusRunning, stored.Status)
	})
}
