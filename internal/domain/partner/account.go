package partner

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/shared"
)

// Account is a customer account. Accounts are created manually, from inbound
// e-commerce orders, or from the invoicing-platform contact sync; external
// ids keep the three systems of record correlated.
type Account struct {
	ID                 uuid.UUID
	Name               string
	Email              string
	ExternalCustomerID string // e-commerce platform customer id
	HoldedContactID    string // invoicing platform contact id
	Phone              string
	BillingAddress     string
	ShippingAddress    string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// NewAccount creates an account with normalized contact data.
func NewAccount(name, email string) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name cannot be empty")
	}
	now := time.Now()
	return &Account{
		ID:        uuid.New(),
		Name:      name,
		Email:     NormalizeEmail(email),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NormalizeEmail lowercases and trims an email so lookups converge on one
// representation regardless of how the external platform sent it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AccountRepository is the persistence port for accounts.
type AccountRepository interface {
	Save(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	// FindByExternalCustomerID resolves an account by the e-commerce
	// platform's customer id.
	FindByExternalCustomerID(ctx context.Context, externalID string) (*Account, error)
	// FindByEmail resolves an account by normalized contact email.
	FindByEmail(ctx context.Context, email string) (*Account, error)
	// FindByHoldedContactID resolves an account by invoicing-platform contact id.
	FindByHoldedContactID(ctx context.Context, contactID string) (*Account, error)
}
