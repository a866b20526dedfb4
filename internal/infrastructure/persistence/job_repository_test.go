package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockJobRepository creates a GormJobRepository with a mocked SQL connection
func newMockJobRepository(t *testing.T) (*GormJobRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormJobRepository(gormDB), mock, mockDB
}

func jobRows(jobs ...*queue.Job) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "kind", "payload", "status", "attempts", "max_attempts",
		"next_run_at", "correlation_id", "result", "last_error", "created_at", "updated_at",
	})
	for _, j := range jobs {
		rows.AddRow(j.ID, j.Kind, j.Payload, j.Status, j.Attempts, j.MaxAttempts,
			j.NextRunAt, j.CorrelationID, j.Result, j.LastError, j.CreatedAt, j.UpdatedAt)
	}
	return rows
}

func TestGormJobRepository_Save(t *testing.T) {
	t.Run("persists a new job", func(t *testing.T) {
		repo, mock, mockDB := newMockJobRepository(t)
		defer mockDB.Close()

		job := queue.NewJob(queue.JobKindCreateShipmentFromOrder, []byte(`{}`))

		mock.ExpectExec(`INSERT INTO "jobs"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(context.Background(), job)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps insert failure to storage unavailable", func(t *testing.T) {
		repo, mock, mockDB := newMockJobRepository(t)
		defer mockDB.Close()

		job := queue.NewJob(queue.JobKindCreateInvoiceFromOrder, []byte(`{}`))

		mock.ExpectExec(`INSERT INTO "jobs"`).
			WillReturnError(errors.New("connection refused"))

		err := repo.Save(context.Background(), job)

		assert.Equal(t, shared.ErrStorageUnavailable, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormJobRepository_ClaimDue(t *testing.T) {
	t.Run("claims due jobs and marks them running", func(t *testing.T) {
		repo, mock, mockDB := newMockJobRepository(t)
		defer mockDB.Close()

		job := queue.NewJob(queue.JobKindValidateShipment, []byte(`{}`))
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE status = \$1 AND next_run_at <= \$2 ORDER BY next_run_at ASC, created_at ASC LIMIT \$3 FOR UPDATE SKIP LOCKED`).
			WithArgs(queue.JobStatusQueued, sqlmock.AnyArg(), 10).
			WillReturnRows(jobRows(job))
		mock.ExpectExec(`UPDATE "jobs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		claimed, err := repo.ClaimDue(context.Background(), now, 10)

		require.NoError(t, err)
		require.Len(t, claimed, 1)
		assert.Equal(t, job.ID, claimed[0].ID)
		assert.Equal(t, queue.JobStatusRunning, claimed[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns no jobs without issuing an update", func(t *testing.T) {
		repo, mock, mockDB := newMockJobRepository(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE status = \$1 AND next_run_at <= \$2`).
			WithArgs(queue.JobStatusQueued, sqlmock.AnyArg(), 10).
			WillReturnRows(jobRows())
		mock.ExpectCommit()

		claimed, err := repo.ClaimDue(context.Background(), time.Now(), 10)

		assert.NoError(t, err)
		assert.Empty(t, claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormJobRepository_FindByID(t *testing.T) {
	t.Run("returns ErrNotFound for missing job", func(t *testing.T) {
		repo, mock, mockDB := newMockJobRepository(t)
		defer mockDB.Close()

		id := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		job, err := repo.FindByID(context.Background(), id)

		assert.Nil(t, job)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
