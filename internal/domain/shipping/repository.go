package shipping

import (
	"context"

	"github.com/google/uuid"
)

// ShipmentPatch is a field-level merge update. Only non-nil fields are
// written; a worker updating the carrier must not erase a concurrently
// written label URL.
type ShipmentPatch struct {
	Status             *ShipmentStatus
	VisualOK           *bool
	Carrier            *string
	WeightKg           *float64
	DimsCm             *string
	TrackingCode       *string
	LabelURL           *string
	DeliveryNoteNumber *string
	InvoiceNumber      *string
}

// ShipmentRepository is the persistence port for shipments.
type ShipmentRepository interface {
	// Save persists a new shipment with its lines.
	Save(ctx context.Context, shipment *Shipment) error
	// Patch merges the non-nil fields of patch into the stored shipment.
	Patch(ctx context.Context, id uuid.UUID, patch ShipmentPatch) error
	// UpdateLines replaces the lot assignment on shipment lines.
	UpdateLines(ctx context.Context, shipment *Shipment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error)
	// FindByOrderID returns the shipment for an order, or shared.ErrNotFound.
	// The idempotency guard in shipment creation checks by query, not by
	// relying on a unique-constraint side effect.
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Shipment, error)
	// FindByTrackingCode resolves a shipment from a carrier tracking code.
	FindByTrackingCode(ctx context.Context, code string) (*Shipment, error)
}
