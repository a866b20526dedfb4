package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/webhook"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEventRepository implements webhook.EventRepository using GORM
type GormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new GORM-based webhook ledger repository
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// RecordIfNew inserts a pending ledger entry unless one already exists for the
// same external id. The insert races with concurrent deliveries of the same
// event; ON CONFLICT DO NOTHING makes exactly one of them win.
func (r *GormEventRepository) RecordIfNew(ctx context.Context, event *webhook.Event) (webhook.RecordResult, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(event)
	if res.Error != nil {
		return webhook.RecordResult{}, fmt.Errorf("record webhook event: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return webhook.RecordResult{IsNew: true, Event: event}, nil
	}

	existing, err := r.FindByExternalID(ctx, event.ExternalID)
	if err != nil {
		return webhook.RecordResult{}, err
	}
	// A pending entry means an earlier attempt crashed mid-flight; hand it
	// back so the caller reprocesses it.
	return webhook.RecordResult{IsNew: !existing.IsProcessed(), Event: existing}, nil
}

// Update persists the terminal status of a ledger entry
func (r *GormEventRepository) Update(ctx context.Context, event *webhook.Event) error {
	return r.db.WithContext(ctx).Save(event).Error
}

// FindByExternalID retrieves a ledger entry by its composite key
func (r *GormEventRepository) FindByExternalID(ctx context.Context, externalID string) (*webhook.Event, error) {
	var event webhook.Event
	if err := r.db.WithContext(ctx).First(&event, "external_id = ?", externalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}
