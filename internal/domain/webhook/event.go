package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventStatus is the terminal outcome of processing a webhook delivery
type EventStatus string

const (
	EventStatusPending EventStatus = "PENDING"
	EventStatusOK      EventStatus = "OK"
	EventStatusSkipped EventStatus = "SKIPPED"
	EventStatusError   EventStatus = "ERROR"
)

// Source identifies the external platform that sent a webhook
type Source string

const (
	SourceShopify   Source = "shopify"
	SourceSendcloud Source = "sendcloud"
	SourceHolded    Source = "holded"
)

// Event is one entry in the deduplication ledger. External platforms deliver
// webhooks at-least-once; the ledger keys every delivery by ExternalID so a
// redelivery of an already processed event is a no-op.
type Event struct {
	ID          uuid.UUID
	ExternalID  string `gorm:"uniqueIndex"` // unique: source + the platform's event/object id
	Topic       string
	Shop        string
	RawPayload  []byte
	Status      EventStatus
	DerivedID   string // id of the entity the event produced, e.g. an order
	LastError   string
	ReceivedAt  time.Time
	ProcessedAt *time.Time
}

// TableName returns the table name for GORM
func (Event) TableName() string {
	return "webhook_events"
}

// ExternalID builds the composite ledger key for an event of a given source.
func ExternalID(source Source, id string) string {
	return fmt.Sprintf("%s:%s", source, id)
}

// NewEvent creates a pending ledger entry for an inbound delivery.
func NewEvent(source Source, externalID, topic, shop string, raw []byte) *Event {
	return &Event{
		ID:         uuid.New(),
		ExternalID: ExternalID(source, externalID),
		Topic:      topic,
		Shop:       shop,
		RawPayload: raw,
		Status:     EventStatusPending,
		ReceivedAt: time.Now(),
	}
}

// IsProcessed reports whether the event has reached a terminal status.
func (e *Event) IsProcessed() bool {
	return e.ProcessedAt != nil
}

// MarkProcessed records the terminal outcome of a processing attempt.
func (e *Event) MarkProcessed(status EventStatus, derivedID, errMsg string) {
	now := time.Now()
	e.Status = status
	e.DerivedID = derivedID
	e.LastError = errMsg
	e.ProcessedAt = &now
}

// RecordResult is the outcome of EventRepository.RecordIfNew
type RecordResult struct {
	// IsNew is false when a ledger entry for the external id already exists
	// and has been processed; the caller must short-circuit.
	IsNew bool
	Event *Event
}

// EventRepository is the persistence port for the dedup ledger.
type EventRepository interface {
	// RecordIfNew atomically creates a PENDING entry unless one already
	// exists for the event's ExternalID. When an existing entry is already
	// terminal, IsNew is false; when it exists but is still PENDING (an
	// earlier attempt crashed before finishing), the existing entry is
	// returned with IsNew true so processing is retried.
	RecordIfNew(ctx context.Context, event *Event) (RecordResult, error)

	// Update persists the terminal status of an entry.
	Update(ctx context.Context, event *Event) error

	// FindByExternalID retrieves a ledger entry by its composite key.
	FindByExternalID(ctx context.Context, externalID string) (*Event, error)
}
