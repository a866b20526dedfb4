package queue

import (
	"time"

	"github.com/google/uuid"
)

// DeadLetter is written when a job fails terminally, either by exhausting its
// retry budget or by hitting an unrecoverable error. It keeps enough context
// for manual inspection and replay.
type DeadLetter struct {
	ID        uuid.UUID
	JobID     uuid.UUID
	Kind      JobKind
	Payload   []byte
	LastError string
	Attempts  int
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (DeadLetter) TableName() string {
	return "dead_letters"
}

// NewDeadLetter creates a dead-letter record for a terminally failed job.
func NewDeadLetter(job *Job) *DeadLetter {
	return &DeadLetter{
		ID:        uuid.New(),
		JobID:     job.ID,
		Kind:      job.Kind,
		Payload:   job.Payload,
		LastError: job.LastError,
		Attempts:  job.Attempts,
		CreatedAt: time.Now(),
	}
}
