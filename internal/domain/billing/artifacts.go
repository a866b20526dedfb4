package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DeliveryNote is the document that accompanies a shipment. Exactly one per
// shipment; creation is idempotent.
type DeliveryNote struct {
	ID          uuid.UUID
	Number      string // business number, e.g. ALB-2026-7KQ4M
	ShipmentID  uuid.UUID
	OrderID     uuid.UUID
	DocumentURL string
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (DeliveryNote) TableName() string {
	return "delivery_notes"
}

// NewDeliveryNote creates a delivery note with a generated business number.
func NewDeliveryNote(shipmentID, orderID uuid.UUID) *DeliveryNote {
	return &DeliveryNote{
		ID:         uuid.New(),
		Number:     shared.NewDocumentNumber(shared.SeriesDeliveryNote),
		ShipmentID: shipmentID,
		OrderID:    orderID,
		CreatedAt:  time.Now(),
	}
}

// Invoice is the finance artifact for an order. Exactly one per order under
// normal flow; creation is idempotent.
type Invoice struct {
	ID               uuid.UUID
	Number           string // business number, e.g. FAC-2026-M3R9W
	OrderID          uuid.UUID
	AccountID        uuid.UUID
	HoldedDocumentID string // id of the invoice on the invoicing platform
	TotalAmount      decimal.Decimal
	Currency         string
	DocumentURL      string
	IssuedAt         time.Time
	CreatedAt        time.Time
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates an invoice with a generated business number.
func NewInvoice(orderID, accountID uuid.UUID, total decimal.Decimal, currency string) *Invoice {
	now := time.Now()
	return &Invoice{
		ID:          uuid.New(),
		Number:      shared.NewDocumentNumber(shared.SeriesInvoice),
		OrderID:     orderID,
		AccountID:   accountID,
		TotalAmount: total,
		Currency:    currency,
		IssuedAt:    now,
		CreatedAt:   now,
	}
}

// DeliveryNoteRepository is the persistence port for delivery notes.
type DeliveryNoteRepository interface {
	Save(ctx context.Context, note *DeliveryNote) error
	FindByShipmentID(ctx context.Context, shipmentID uuid.UUID) (*DeliveryNote, error)
	FindByNumber(ctx context.Context, number string) (*DeliveryNote, error)
}

// InvoiceRepository is the persistence port for invoices.
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *Invoice) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, number string) (*Invoice, error)
}
