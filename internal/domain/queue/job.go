package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/shared"
)

// JobStatus represents the lifecycle status of a job
type JobStatus string

const (
	JobStatusQueued  JobStatus = "QUEUED"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusDone    JobStatus = "DONE"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobKind identifies the worker that executes a job. The set is closed: the
// dispatcher terminally fails any job whose kind has no registered worker.
type JobKind string

const (
	JobKindCreateShipmentFromOrder JobKind = "create_shipment_from_order"
	JobKindValidateShipment        JobKind = "validate_shipment"
	JobKindCreateDeliveryNote      JobKind = "create_delivery_note"
	JobKindCreateCarrierLabel      JobKind = "create_carrier_label"
	JobKindMarkShipped             JobKind = "mark_shipped"
	JobKindCreateInvoiceFromOrder  JobKind = "create_invoice_from_order"
	JobKindUpsertInboundOrder      JobKind = "upsert_inbound_order"
	JobKindSyncContacts            JobKind = "sync_contacts"
	JobKindSyncPurchases           JobKind = "sync_purchases"
	JobKindSyncProducts            JobKind = "sync_products"
	JobKindReconcileLabels         JobKind = "reconcile_labels"
	JobKindBackfillOrders          JobKind = "backfill_orders"
)

// IsValid checks if the kind is a known JobKind
func (k JobKind) IsValid() bool {
	switch k {
	case JobKindCreateShipmentFromOrder, JobKindValidateShipment,
		JobKindCreateDeliveryNote, JobKindCreateCarrierLabel,
		JobKindMarkShipped, JobKindCreateInvoiceFromOrder,
		JobKindUpsertInboundOrder, JobKindSyncContacts,
		JobKindSyncPurchases, JobKindSyncProducts, JobKindReconcileLabels,
		JobKindBackfillOrders:
		return true
	}
	return false
}

// String returns the string representation of JobKind
func (k JobKind) String() string {
	return string(k)
}

// DefaultMaxAttempts is the retry budget when the caller does not specify one.
const DefaultMaxAttempts = 5

// Job is a unit of deferred, retryable work. Jobs are append-only history:
// they are never deleted, only transitioned between statuses.
type Job struct {
	ID            uuid.UUID
	Kind          JobKind
	Payload       []byte
	Status        JobStatus
	Attempts      int
	MaxAttempts   int
	NextRunAt     time.Time
	CorrelationID string
	Result        []byte
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for GORM
func (Job) TableName() string {
	return "jobs"
}

// JobOption customizes a job at enqueue time
type JobOption func(*Job)

// WithCorrelationID links the job to a business identifier for tracing
func WithCorrelationID(id string) JobOption {
	return func(j *Job) {
		j.CorrelationID = id
	}
}

// WithMaxAttempts overrides the default retry budget
func WithMaxAttempts(n int) JobOption {
	return func(j *Job) {
		if n > 0 {
			j.MaxAttempts = n
		}
	}
}

// WithDelay schedules the first run after the given delay
func WithDelay(d time.Duration) JobOption {
	return func(j *Job) {
		if d > 0 {
			j.NextRunAt = j.NextRunAt.Add(d)
		}
	}
}

// NewJob creates a queued job ready for its first run.
func NewJob(kind JobKind, payload []byte, opts ...JobOption) *Job {
	now := time.Now()
	j := &Job{
		ID:          uuid.New(),
		Kind:        kind,
		Payload:     payload,
		Status:      JobStatusQueued,
		Attempts:    0,
		MaxAttempts: DefaultMaxAttempts,
		NextRunAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// MarkRunning transitions the job to RUNNING when claimed by a dispatcher.
func (j *Job) MarkRunning() error {
	if j.Status != JobStatusQueued {
		return shared.ErrInvalidState
	}
	j.Status = JobStatusRunning
	j.UpdatedAt = time.Now()
	return nil
}

// MarkDone records a successful run and its result payload.
func (j *Job) MarkDone(result []byte) {
	now := time.Now()
	j.Status = JobStatusDone
	j.Result = result
	j.UpdatedAt = now
}

// MarkFailedAttempt records a failed run. The job is re-queued with backoff
// while the retry budget lasts, and terminally FAILED once it is exhausted.
// Returns true when the failure is terminal.
//
// NextRunAt never decreases across retries of the same job.
func (j *Job) MarkFailedAttempt(errMsg string) bool {
	now := time.Now()
	j.Attempts++
	j.LastError = errMsg
	j.UpdatedAt = now

	if j.Attempts >= j.MaxAttempts {
		j.Status = JobStatusFailed
		return true
	}

	next := now.Add(NextBackoff(j.Attempts))
	if next.After(j.NextRunAt) {
		j.NextRunAt = next
	}
	j.Status = JobStatusQueued
	return false
}

// MarkFailedTerminal fails the job immediately without consuming the retry
// budget. Used for unrecoverable input: retrying cannot change the outcome.
func (j *Job) MarkFailedTerminal(errMsg string) {
	j.Attempts++
	j.LastError = errMsg
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
}

// IsDue reports whether the job is ready to be claimed at the given time.
func (j *Job) IsDue(now time.Time) bool {
	return j.Status == JobStatusQueued && !j.NextRunAt.After(now)
}
