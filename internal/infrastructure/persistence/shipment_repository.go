package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/shipping"
	"gorm.io/gorm"
)

// GormShipmentRepository implements shipping.ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GORM-based shipment repository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// Save persists a new shipment with its lines
func (r *GormShipmentRepository) Save(ctx context.Context, shipment *shipping.Shipment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Create(shipment).Error; err != nil {
			return fmt.Errorf("create shipment: %w", err)
		}
		if len(shipment.Lines) > 0 {
			if err := tx.Create(&shipment.Lines).Error; err != nil {
				return fmt.Errorf("create shipment lines: %w", err)
			}
		}
		return nil
	})
}

// Patch merges the non-nil fields of patch into the stored shipment
func (r *GormShipmentRepository) Patch(ctx context.Context, id uuid.UUID, patch shipping.ShipmentPatch) error {
	updates := map[string]any{}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.VisualOK != nil {
		updates["visual_ok"] = *patch.VisualOK
	}
	if patch.Carrier != nil {
		updates["carrier"] = *patch.Carrier
	}
	if patch.WeightKg != nil {
		updates["weight_kg"] = *patch.WeightKg
	}
	if patch.DimsCm != nil {
		updates["dims_cm"] = *patch.DimsCm
	}
	if patch.TrackingCode != nil {
		updates["tracking_code"] = *patch.TrackingCode
	}
	if patch.LabelURL != nil {
		updates["label_url"] = *patch.LabelURL
	}
	if patch.DeliveryNoteNumber != nil {
		updates["delivery_note_number"] = *patch.DeliveryNoteNumber
	}
	if patch.InvoiceNumber != nil {
		updates["invoice_number"] = *patch.InvoiceNumber
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).Model(&shipping.Shipment{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateLines replaces the stored shipment lines with the in-memory ones
func (r *GormShipmentRepository) UpdateLines(ctx context.Context, shipment *shipping.Shipment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shipment_id = ?", shipment.ID).Delete(&shipping.ShipmentLine{}).Error; err != nil {
			return fmt.Errorf("clear shipment lines: %w", err)
		}
		if len(shipment.Lines) > 0 {
			if err := tx.Create(&shipment.Lines).Error; err != nil {
				return fmt.Errorf("create shipment lines: %w", err)
			}
		}
		return nil
	})
}

// FindByID retrieves a shipment with its lines
func (r *GormShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Shipment, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByOrderID returns the shipment for an order
func (r *GormShipmentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*shipping.Shipment, error) {
	return r.findOne(ctx, "order_id = ?", orderID)
}

// FindByTrackingCode resolves a shipment from a carrier tracking code
func (r *GormShipmentRepository) FindByTrackingCode(ctx context.Context, code string) (*shipping.Shipment, error) {
	return r.findOne(ctx, "tracking_code = ?", code)
}

func (r *GormShipmentRepository) findOne(ctx context.Context, query string, arg any) (*shipping.Shipment, error) {
	var shipment shipping.Shipment
	if err := r.db.WithContext(ctx).Preload("Lines").First(&shipment, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &shipment, nil
}
