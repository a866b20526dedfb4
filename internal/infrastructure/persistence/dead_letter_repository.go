package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormDeadLetterRepository implements queue.DeadLetterRepository using GORM
type GormDeadLetterRepository struct {
	db *gorm.DB
}

// NewGormDeadLetterRepository creates a new GORM-based dead-letter repository
func NewGormDeadLetterRepository(db *gorm.DB) *GormDeadLetterRepository {
	return &GormDeadLetterRepository{db: db}
}

// Save persists a dead-letter record
func (r *GormDeadLetterRepository) Save(ctx context.Context, dl *queue.DeadLetter) error {
	return r.db.WithContext(ctx).Create(dl).Error
}

// FindByID retrieves a dead letter by id
func (r *GormDeadLetterRepository) FindByID(ctx context.Context, id uuid.UUID) (*queue.DeadLetter, error) {
	var dl queue.DeadLetter
	if err := r.db.WithContext(ctx).First(&dl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &dl, nil
}

// List retrieves dead letters with pagination, newest first
func (r *GormDeadLetterRepository) List(ctx context.Context, page, pageSize int) ([]*queue.DeadLetter, int64, error) {
	var entries []*queue.DeadLetter
	var total int64

	if err := r.db.WithContext(ctx).
		Model(&queue.DeadLetter{}).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
