package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is the local mirror of a product on the invoicing platform. The
// sync job keeps it fresh; SKU is the join key with order and shipment lines.
type Product struct {
	ID              uuid.UUID
	SKU             string `gorm:"uniqueIndex"`
	Name            string
	HoldedProductID string
	Price           decimal.Decimal
	Stock           decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a product mirror entry.
func NewProduct(sku, name string) (*Product, error) {
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	now := time.Now()
	return &Product{
		ID:        uuid.New(),
		SKU:       sku,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ProductRepository is the persistence port for the product mirror.
type ProductRepository interface {
	// Upsert creates the product or refreshes the existing row with the
	// same SKU.
	Upsert(ctx context.Context, product *Product) error
	FindBySKU(ctx context.Context, sku string) (*Product, error)
}
