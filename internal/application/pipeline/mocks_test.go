package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/billing"
	"github.com/santabrisa/backend/internal/domain/catalog"
	"github.com/santabrisa/backend/internal/domain/integration"
	"github.com/santabrisa/backend/internal/domain/partner"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shipping"
	"github.com/santabrisa/backend/internal/domain/trade"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of trade.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Upsert(ctx context.Context, order *trade.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Patch(ctx context.Context, id uuid.UUID, patch trade.OrderPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByExternalID(ctx context.Context, source trade.OrderSource, externalID string) (*trade.Order, error) {
	args := m.Called(ctx, source, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

// MockShipmentRepository is a mock implementation of shipping.ShipmentRepository
type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) Save(ctx context.Context, shipment *shipping.Shipment) error {
	args := m.Called(ctx, shipment)
	return args.Error(0)
}

func (m *MockShipmentRepository) Patch(ctx context.Context, id uuid.UUID, patch shipping.ShipmentPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockShipmentRepository) UpdateLines(ctx context.Context, shipment *shipping.Shipment) error {
	args := m.Called(ctx, shipment)
	return args.Error(0)
}

func (m *MockShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Shipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*shipping.Shipment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) FindByTrackingCode(ctx context.Context, code string) (*shipping.Shipment, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Shipment), args.Error(1)
}

// MockAccountRepository is a mock implementation of partner.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Save(ctx context.Context, account *partner.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Update(ctx context.Context, account *partner.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByExternalCustomerID(ctx context.Context, externalID string) (*partner.Account, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*partner.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByHoldedContactID(ctx context.Context, contactID string) (*partner.Account, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Account), args.Error(1)
}

// MockDeliveryNoteRepository is a mock implementation of billing.DeliveryNoteRepository
type MockDeliveryNoteRepository struct {
	mock.Mock
}

func (m *MockDeliveryNoteRepository) Save(ctx context.Context, note *billing.DeliveryNote) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockDeliveryNoteRepository) FindByShipmentID(ctx context.Context, shipmentID uuid.UUID) (*billing.DeliveryNote, error) {
	args := m.Called(ctx, shipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.DeliveryNote), args.Error(1)
}

func (m *MockDeliveryNoteRepository) FindByNumber(ctx context.Context, number string) (*billing.DeliveryNote, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.DeliveryNote), args.Error(1)
}

// MockInvoiceRepository is a mock implementation of billing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, number string) (*billing.Invoice, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Upsert(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

// MockPurchaseDocumentRepository is a mock implementation of billing.PurchaseDocumentRepository
type MockPurchaseDocumentRepository struct {
	mock.Mock
}

func (m *MockPurchaseDocumentRepository) Upsert(ctx context.Context, doc *billing.PurchaseDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockPurchaseDocumentRepository) FindByHoldedDocumentID(ctx context.Context, holdedID string) (*billing.PurchaseDocument, error) {
	args := m.Called(ctx, holdedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PurchaseDocument), args.Error(1)
}

// MockHoldedClient is a mock implementation of integration.HoldedClient
type MockHoldedClient struct {
	mock.Mock
}

func (m *MockHoldedClient) FetchContacts(ctx context.Context, page int) ([]integration.HoldedContact, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.HoldedContact), args.Error(1)
}

func (m *MockHoldedClient) FetchPurchases(ctx context.Context, page int) ([]integration.HoldedDocument, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.HoldedDocument), args.Error(1)
}

func (m *MockHoldedClient) FetchProducts(ctx context.Context, page int) ([]integration.HoldedProduct, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.HoldedProduct), args.Error(1)
}

func (m *MockHoldedClient) CreateInvoice(ctx context.Context, spec integration.HoldedInvoiceSpec) (integration.HoldedCreatedInvoice, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).(integration.HoldedCreatedInvoice), args.Error(1)
}

// MockSendcloudClient is a mock implementation of integration.SendcloudClient
type MockSendcloudClient struct {
	mock.Mock
}

func (m *MockSendcloudClient) CreateParcel(ctx context.Context, spec integration.ParcelSpec) (integration.CreatedParcel, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).(integration.CreatedParcel), args.Error(1)
}

func (m *MockSendcloudClient) FetchParcels(ctx context.Context, since time.Time) ([]integration.CreatedParcel, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.CreatedParcel), args.Error(1)
}

// MockShopifyClient is a mock implementation of integration.ShopifyClient
type MockShopifyClient struct {
	mock.Mock
}

func (m *MockShopifyClient) FetchOrders(ctx context.Context, updatedSince time.Time) ([]integration.ShopifyOrder, error) {
	args := m.Called(ctx, updatedSince)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ShopifyOrder), args.Error(1)
}

// memDeadLetters collects dead letters in memory for dispatcher tests
type memDeadLetters struct {
	letters []*queue.DeadLetter
}

func (m *memDeadLetters) Save(ctx context.Context, dl *queue.DeadLetter) error {
	m.letters = append(m.letters, dl)
	return nil
}

func (m *memDeadLetters) FindByID(ctx context.Context, id uuid.UUID) (*queue.DeadLetter, error) {
	for _, dl := range m.letters {
		if dl.ID == id {
			return dl, nil
		}
	}
	return nil, nil
}

func (m *memDeadLetters) List(ctx context.Context, page, pageSize int) ([]*queue.DeadLetter, int64, error) {
	return m.letters, int64(len(m.letters)), nil
}

// mustPayload encodes a payload or panics; test inputs are always valid
func mustPayload(v any) []byte {
	data, err := queue.EncodePayload(v)
	if err != nil {
		panic(err)
	}
	return data
}
