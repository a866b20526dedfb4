package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/santabrisa/backend/internal/domain/billing"
	"github.com/santabrisa/backend/internal/domain/integration"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/shipping"
	"github.com/santabrisa/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newInvoiceWorker(orders *MockOrderRepository, accounts *MockAccountRepository,
	invoices *MockInvoiceRepository, shipments *MockShipmentRepository,
	holded *MockHoldedClient) *InvoiceWorker {
	return NewInvoiceWorker(orders, accounts, invoices, shipments, holded,
		&fakeRenderer{}, newFakeDocStore(), zap.NewNop())
}

func TestCreateInvoiceRegistersOnPlatformAndLinksOrder(t *testing.T) {
	orders := new(MockOrderRepository)
	accounts := new(MockAccountRepository)
	invoices := new(MockInvoiceRepository)
	shipments := new(MockShipmentRepository)
	holded := new(MockHoldedClient)
	worker := newInvoiceWorker(orders, accounts, invoices, shipments, holded)

	account := testAccount(t)
	account.HoldedContactID = "contact-77"
	order := confirmedOrder(t, trade.OrderSourceShopify, 6)
	order.AccountID = account.ID

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	invoices.On("FindByOrderID", mock.Anything, order.ID).Return(nil, shared.ErrNotFound)
	accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)

	var spec integration.HoldedInvoiceSpec
	holded.On("CreateInvoice", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		spec = args.Get(1).(integration.HoldedInvoiceSpec)
	}).Return(integration.HoldedCreatedInvoice{ID: "doc-900", DocumentURL: "https://holded.example/doc-900"}, nil)

	var saved *billing.Invoice
	invoices.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*billing.Invoice)
	}).Return(nil)

	var orderPatch trade.OrderPatch
	orders.On("Patch", mock.Anything, order.ID, mock.Anything).Run(func(args mock.Arguments) {
		orderPatch = args.Get(2).(trade.OrderPatch)
	}).Return(nil)
	shipments.On("FindByOrderID", mock.Anything, order.ID).Return(nil, shared.ErrNotFound)

	_, err := worker.Execute(context.Background(),
		shipmentJob(t, queue.JobKindCreateInvoiceFromOrder, queue.CreateInvoicePayload{OrderID: order.ID.String()}))
	require.NoError(t, err)

	assert.Equal(t, "contact-77", spec.ContactID)
	require.Len(t, spec.Items, 1)
	assert.Equal(t, "SB-750", spec.Items[0].SKU)
	assert.InDelta(t, 111.00, spec.Items[0].Subtotal, 0.001)

	require.NotNil(t, saved)
	assert.True(t, strings.HasPrefix(saved.Number, "FAC-"), "invoice number carries the FAC series")
	assert.Equal(t, "doc-900", saved.HoldedDocumentID)
	assert.True(t, saved.TotalAmount.Equal(decimal.RequireFromString("111.00")))

	require.NotNil(t, orderPatch.BillingStatus)
	assert.Equal(t, trade.BillingStatusInvoiced, *orderPatch.BillingStatus)
	require.NotNil(t, orderPatch.InvoiceNumber)
	assert.Equal(t, saved.Number, *orderPatch.InvoiceNumber)
	require.NotNil(t, orderPatch.Status)
	assert.Equal(t, trade.OrderStatusInvoiced, *orderPatch.Status)
}

func TestCreateInvoiceIsNoOpWhenAlreadyInvoiced(t *testing.T) {
	orders := new(MockOrderRepository)
	invoices := new(MockInvoiceRepository)
	holded := new(MockHoldedClient)
	worker := newInvoiceWorker(orders, new(MockAccountRepository), invoices, new(MockShipmentRepository), holded)

	order := confirmedOrder(t, trade.OrderSourceShopify, 6)
	order.BillingStatus = trade.BillingStatusInvoiced
	order.InvoiceNumber = "FAC-2026-M3R9W"
	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	_, err := worker.Execute(context.Background(),
		shipmentJob(t, queue.JobKindCreateInvoiceFromOrder, queue.CreateInvoicePayload{OrderID: order.ID.String()}))
	require.NoError(t, err)

	holded.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
	invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateInvoiceRepairsLostOrderLink(t *testing.T) {
	orders := new(MockOrderRepository)
	invoices := new(MockInvoiceRepository)
	shipments := new(MockShipmentRepository)
	holded := new(MockHoldedClient)
	worker := newInvoiceWorker(orders, new(MockAccountRepository), invoices, shipments, holded)

	order := confirmedOrder(t, trade.OrderSourceShopify, 6)
	existing := billing.NewInvoice(order.ID, order.AccountID, order.TotalAmount, "EUR")

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	invoices.On("FindByOrderID", mock.Anything, order.ID).Return(existing, nil)

	var orderPatch trade.OrderPatch
	orders.On("Patch", mock.Anything, order.ID, mock.Anything).Run(func(args mock.Arguments) {
		orderPatch = args.Get(2).(trade.OrderPatch)
	}).Return(nil)
	shipments.On("FindByOrderID", mock.Anything, order.ID).Return(nil, shared.ErrNotFound)

	_, err := worker.Execute(context.Background(),
		shipmentJob(t, queue.JobKindCreateInvoiceFromOrder, queue.CreateInvoicePayload{OrderID: order.ID.String()}))
	require.NoError(t, err)

	require.NotNil(t, orderPatch.InvoiceNumber)
	assert.Equal(t, existing.Number, *orderPatch.InvoiceNumber)
	holded.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
	invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateInvoiceBackLinksShipment(t *testing.T) {
	orders := new(MockOrderRepository)
	accounts := new(MockAccountRepository)
	invoices := new(MockInvoiceRepository)
	shipments := new(MockShipmentRepository)
	holded := new(MockHoldedClient)
	worker := newInvoiceWorker(orders, accounts, invoices, shipments, holded)

	account := testAccount(t)
	order := confirmedOrder(t, trade.OrderSourceShopify, 6)
	order.AccountID = account.ID
	shipment := shipping.NewShipment(order.ID, account.ID, shipping.ModeParcel)

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	invoices.On("FindByOrderID", mock.Anything, order.ID).Return(nil, shared.ErrNotFound)
	accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	holded.On("CreateInvoice", mock.Anything, mock.Anything).
		Return(integration.HoldedCreatedInvoice{ID: "doc-901", DocumentURL: "https://holded.example/doc-901"}, nil)
	invoices.On("Save", mock.Anything, mock.Anything).Return(nil)
	orders.On("Patch", mock.Anything, order.ID, mock.Anything).Return(nil)
	shipments.On("FindByOrderID", mock.Anything, order.ID).Return(shipment, nil)

	var shipmentPatch shipping.ShipmentPatch
	shipments.On("Patch", mock.Anything, shipment.ID, mock.Anything).Run(func(args mock.Arguments) {
		shipmentPatch = args.Get(2).(shipping.ShipmentPatch)
	}).Return(nil)

	_, err := worker.Execute(context.Background(),
		shipmentJob(t, queue.JobKindCreateInvoiceFromOrder, queue.CreateInvoicePayload{OrderID: order.ID.String()}))
	require.NoError(t, err)

	require.NotNil(t, shipmentPatch.InvoiceNumber)
	assert.True(t, strings.HasPrefix(*shipmentPatch.InvoiceNumber, "FAC-"))
}

func TestCreateInvoicePlatformOutageIsRetryable(t *testing.T) {
	orders := new(MockOrderRepository)
	accounts := new(MockAccountRepository)
	invoices := new(MockInvoiceRepository)
	holded := new(MockHoldedClient)
	worker := newInvoiceWorker(orders, accounts, invoices, new(MockShipmentRepository), holded)

	account := testAccount(t)
	order := confirmedOrder(t, trade.OrderSourceShopify, 6)
	order.AccountID = account.ID

	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	invoices.On("FindByOrderID", mock.Anything, order.ID).Return(nil, shared.ErrNotFound)
	accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	holded.On("CreateInvoice", mock.Anything, mock.Anything).
		Return(integration.HoldedCreatedInvoice{}, &integration.APIError{Platform: "holded", Status: 503})

	_, err := worker.Execute(context.Background(),
		shipmentJob(t, queue.JobKindCreateInvoiceFromOrder, queue.CreateInvoicePayload{OrderID: order.ID.String()}))
	require.Error(t, err)

	assert.False(t, shared.IsTerminal(err))
	apiErr, ok := integration.AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.Retryable())
	invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
