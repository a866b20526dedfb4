package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseDocument is the local mirror of a purchase/expense document on the
// invoicing platform, pulled by the periodic sync for finance reporting.
type PurchaseDocument struct {
	ID               uuid.UUID
	HoldedDocumentID string `gorm:"uniqueIndex"`
	DocType          string
	ContactName      string
	Total            decimal.Decimal
	Currency         string
	IssuedAt         time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (PurchaseDocument) TableName() string {
	return "purchase_documents"
}

// NewPurchaseDocument creates a purchase mirror entry.
func NewPurchaseDocument(holdedID, docType, contactName string, total decimal.Decimal, currency string, issuedAt time.Time) *PurchaseDocument {
	now := time.Now()
	return &PurchaseDocument{
		ID:               uuid.New(),
		HoldedDocumentID: holdedID,
		DocType:          docType,
		ContactName:      contactName,
		Total:            total,
		Currency:         currency,
		IssuedAt:         issuedAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// PurchaseDocumentRepository is the persistence port for purchase mirrors.
type PurchaseDocumentRepository interface {
	// Upsert creates the document or refreshes the existing row with the
	// same platform document id.
	Upsert(ctx context.Context, doc *PurchaseDocument) error
	FindByHoldedDocumentID(ctx context.Context, holdedID string) (*PurchaseDocument, error)
}
