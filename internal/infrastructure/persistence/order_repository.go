package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM-based order repository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save persists a new order with its lines
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Create(order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if len(order.Lines) > 0 {
			if err := tx.Create(&order.Lines).Error; err != nil {
				return fmt.Errorf("create order lines: %w", err)
			}
		}
		return nil
	})
}

// Upsert creates the order or replaces the mutable fields and lines of the
// existing row with the same id. Inbound webhook processing derives the id
// deterministically, so redelivered payloads converge here.
func (r *GormOrderRepository) Upsert(ctx context.Context, order *trade.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing trade.Order
		err := tx.First(&existing, "id = ?", order.ID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Omit("Lines").Create(order).Error; err != nil {
				return fmt.Errorf("create order: %w", err)
			}
		case err != nil:
			return err
		default:
			order.CreatedAt = existing.CreatedAt
			order.UpdatedAt = time.Now()
			// A redelivery never moves the order backward.
			merged := *order
			merged.Status = existing.Status
			if err := merged.AdvanceTo(order.Status); err != nil {
				merged.Status = existing.Status
			}
			order.Status = merged.Status
			// Billing fields are owned by the invoice worker; inbound
			// payloads never carry them, so the stored values survive
			// a replay.
			order.BillingStatus = trade.LaterBillingStatus(existing.BillingStatus, order.BillingStatus)
			if order.InvoiceNumber == "" {
				order.InvoiceNumber = existing.InvoiceNumber
			}
			if err := tx.Omit("Lines").Save(order).Error; err != nil {
				return fmt.Errorf("update order: %w", err)
			}
			if err := tx.Where("order_id = ?", order.ID).Delete(&trade.OrderLine{}).Error; err != nil {
				return fmt.Errorf("clear order lines: %w", err)
			}
		}
		if len(order.Lines) > 0 {
			if err := tx.Create(&order.Lines).Error; err != nil {
				return fmt.Errorf("create order lines: %w", err)
			}
		}
		return nil
	})
}

// Patch merges the non-nil fields of patch into the stored order
func (r *GormOrderRepository) Patch(ctx context.Context, id uuid.UUID, patch trade.OrderPatch) error {
	updates := map[string]any{}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.BillingStatus != nil {
		updates["billing_status"] = *patch.BillingStatus
	}
	if patch.InvoiceNumber != nil {
		updates["invoice_number"] = *patch.InvoiceNumber
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).Model(&trade.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID retrieves an order with its lines
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var order trade.Order
	if err := r.db.WithContext(ctx).Preload("Lines").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByExternalID retrieves an order by source platform and external id
func (r *GormOrderRepository) FindByExternalID(ctx context.Context, source trade.OrderSource, externalID string) (*trade.Order, error) {
	var order trade.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&order, "source = ? AND external_id = ?", source, externalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}
