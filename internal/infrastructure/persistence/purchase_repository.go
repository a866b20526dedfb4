package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/santabrisa/backend/internal/domain/billing"
	"github.com/santabrisa/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseDocumentRepository implements billing.PurchaseDocumentRepository using GORM
type GormPurchaseDocumentRepository struct {
	db *gorm.DB
}

// NewGormPurchaseDocumentRepository creates a new GORM-based purchase document repository
func NewGormPurchaseDocumentRepository(db *gorm.DB) *GormPurchaseDocumentRepository {
	return &GormPurchaseDocumentRepository{db: db}
}

// Upsert creates the document or refreshes the row with the same platform id
func (r *GormPurchaseDocumentRepository) Upsert(ctx context.Context, doc *billing.PurchaseDocument) error {
	doc.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "holded_document_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"doc_type", "contact_name", "total", "currency", "issued_at", "updated_at",
		}),
	}).Create(doc).Error
}

// FindByHoldedDocumentID retrieves a purchase document by platform id
func (r *GormPurchaseDocumentRepository) FindByHoldedDocumentID(ctx context.Context, holdedID string) (*billing.PurchaseDocument, error) {
	var doc billing.PurchaseDocument
	if err := r.db.WithContext(ctx).First(&doc, "holded_document_id = ?", holdedID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}
