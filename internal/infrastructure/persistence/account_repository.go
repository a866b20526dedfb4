package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/partner"
	"github.com/santabrisa/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormAccountRepository implements partner.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GORM-based account repository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// Save persists a new account
func (r *GormAccountRepository) Save(ctx context.Context, account *partner.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// Update persists changes to an existing account
func (r *GormAccountRepository) Update(ctx context.Context, account *partner.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// FindByID retrieves an account by id
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Account, error) {
	var account partner.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByExternalCustomerID resolves an account by the e-commerce platform's customer id
func (r *GormAccountRepository) FindByExternalCustomerID(ctx context.Context, externalID string) (*partner.Account, error) {
	return r.findOne(ctx, "external_customer_id = ?", externalID)
}

// FindByEmail resolves an account by normalized contact email
func (r *GormAccountRepository) FindByEmail(ctx context.Context, email string) (*partner.Account, error) {
	return r.findOne(ctx, "email = ?", partner.NormalizeEmail(email))
}

// FindByHoldedContactID resolves an account by invoicing-platform contact id
func (r *GormAccountRepository) FindByHoldedContactID(ctx context.Context, contactID string) (*partner.Account, error) {
	return r.findOne(ctx, "holded_contact_id = ?", contactID)
}

func (r *GormAccountRepository) findOne(ctx context.Context, query string, arg any) (*partner.Account, error) {
	var account partner.Account
	if err := r.db.WithContext(ctx).First(&account, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}
