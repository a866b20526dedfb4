package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/billing"
	"github.com/santabrisa/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormDeliveryNoteRepository implements billing.DeliveryNoteRepository using GORM
type GormDeliveryNoteRepository struct {
	db *gorm.DB
}

// NewGormDeliveryNoteRepository creates a new GORM-based delivery note repository
func NewGormDeliveryNoteRepository(db *gorm.DB) *GormDeliveryNoteRepository {
	return &GormDeliveryNoteRepository{db: db}
}

// Save persists a delivery note
func (r *GormDeliveryNoteRepository) Save(ctx context.Context, note *billing.DeliveryNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

// FindByShipmentID retrieves the delivery note for a shipment
func (r *GormDeliveryNoteRepository) FindByShipmentID(ctx context.Context, shipmentID uuid.UUID) (*billing.DeliveryNote, error) {
	var note billing.DeliveryNote
	if err := r.db.WithContext(ctx).First(&note, "shipment_id = ?", shipmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &note, nil
}

// FindByNumber retrieves a delivery note by business number
func (r *GormDeliveryNoteRepository) FindByNumber(ctx context.Context, number string) (*billing.DeliveryNote, error) {
	var note billing.DeliveryNote
	if err := r.db.WithContext(ctx).First(&note, "number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &note, nil
}

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GORM-based invoice repository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Save persists an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

// FindByOrderID retrieves the invoice for an order
func (r *GormInvoiceRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := r.db.WithContext(ctx).First(&invoice, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByNumber retrieves an invoice by business number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, number string) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := r.db.WithContext(ctx).First(&invoice, "number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}
