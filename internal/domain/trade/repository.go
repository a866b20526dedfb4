package trade

import (
	"context"

	"github.com/google/uuid"
)

// OrderPatch is a field-level merge update. Only non-nil fields are written,
// so concurrent writers to different fields of the same order do not clobber
// each other.
type OrderPatch struct {
	Status        *OrderStatus
	BillingStatus *BillingStatus
	InvoiceNumber *string
}

// OrderRepository is the persistence port for orders.
type OrderRepository interface {
	// Save persists a new order with its lines.
	Save(ctx context.Context, order *Order) error
	// Upsert creates the order or, when a row with the same id exists,
	// replaces its mutable fields and lines. Used by inbound webhook
	// processing where the id is deterministic.
	Upsert(ctx context.Context, order *Order) error
	// Patch merges the non-nil fields of patch into the stored order.
	Patch(ctx context.Context, id uuid.UUID, patch OrderPatch) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByExternalID(ctx context.Context, source OrderSource, externalID string) (*Order, error)
}
