package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/billing"
	"github.com/santabrisa/backend/internal/domain/integration"
	"github.com/santabrisa/backend/internal/domain/partner"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/shipping"
	"github.com/santabrisa/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// InvoiceWorker creates the invoice for an order: totals from the order
// lines, the document registered on the invoicing platform, a rendered copy
// archived, and the order's billing status advanced.
type InvoiceWorker struct {
	orders    trade.OrderRepository
	accounts  partner.AccountRepository
	invoices  billing.InvoiceRepository
	shipments shipping.ShipmentRepository
	holded    integration.HoldedClient
	renderer  Renderer
	store     DocumentStore
	logger    *zap.Logger
}

// NewInvoiceWorker creates a new worker.
func NewInvoiceWorker(
	orders trade.OrderRepository,
	accounts partner.AccountRepository,
	invoices billing.InvoiceRepository,
	shipments shipping.ShipmentRepository,
	holded integration.HoldedClient,
	renderer Renderer,
	store DocumentStore,
	logger *zap.Logger,
) *InvoiceWorker {
	return &InvoiceWorker{
		orders:    orders,
		accounts:  accounts,
		invoices:  invoices,
		shipments: shipments,
		holded:    holded,
		renderer:  renderer,
		store:     store,
		logger:    logger,
	}
}

// Kind returns the job kind this worker executes.
func (w *InvoiceWorker) Kind() queue.JobKind {
	return queue.JobKindCreateInvoiceFromOrder
}

// Execute creates the invoice. An order that is already invoiced is a
// no-op; a crash between saving the invoice and patching the order
// converges on re-run because the existing invoice is found by order id.
func (w *InvoiceWorker) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
	var p queue.CreateInvoicePayload
	if err := queue.DecodePayload(job.Payload, &p); err != nil {
		return nil, err
	}
	orderID, err := uuid.Parse(p.OrderID)
	if err != nil {
		return nil, shared.Terminalf("invalid order id %q: %v", p.OrderID, err)
	}

	order, err := w.orders.FindByID(ctx, orderID)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.Terminalf("order %s not found", orderID)
		}
		return nil, err
	}

	if order.InvoiceNumber != "" || order.BillingStatus != trade.BillingStatusPending {
		return nil, nil
	}
	if len(order.Lines) == 0 {
		return nil, shared.Terminalf("order %s has no lines to invoice", orderID)
	}

	existing, err := w.invoices.FindByOrderID(ctx, orderID)
	if err == nil {
		if err := w.linkOrder(ctx, order, existing.Number); err != nil {
			return nil, err
		}
		return queue.EncodePayload(invoiceResult{Number: existing.Number, HoldedDocumentID: existing.HoldedDocumentID})
	}
	if err != shared.ErrNotFound {
		return nil, err
	}

	account, err := w.accounts.FindByID(ctx, order.AccountID)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.Terminalf("account %s for order %s not found", order.AccountID, orderID)
		}
		return nil, err
	}

	order.RecalculateTotal()
	invoice := billing.NewInvoice(order.ID, order.AccountID, order.TotalAmount, order.Currency)

	items := make([]integration.HoldedInvoiceItem, 0, len(order.Lines))
	for _, l := range order.Lines {
		items = append(items, integration.HoldedInvoiceItem{
			Name:     l.Name,
			SKU:      l.SKU,
			Units:    l.Qty.InexactFloat64(),
			Subtotal: l.Amount.InexactFloat64(),
		})
	}
	created, err := w.holded.CreateInvoice(ctx, integration.HoldedInvoiceSpec{
		ContactID: account.HoldedContactID,
		Number:    invoice.Number,
		Currency:  order.Currency,
		Items:     items,
	})
	if err != nil {
		return nil, err
	}
	invoice.HoldedDocumentID = created.ID
	invoice.DocumentURL = created.DocumentURL

	if invoice.DocumentURL == "" {
		invoice.DocumentURL, err = w.archiveCopy(ctx, invoice, order, account)
		if err != nil {
			return nil, err
		}
	}

	if err := w.invoices.Save(ctx, invoice); err != nil {
		return nil, err
	}
	if err := w.linkOrder(ctx, order, invoice.Number); err != nil {
		return nil, err
	}

	w.logger.Info("invoice created",
		zap.String("order_id", orderID.String()),
		zap.String("number", invoice.Number),
		zap.String("holded_document_id", invoice.HoldedDocumentID),
		zap.String("total", invoice.TotalAmount.StringFixed(2)),
	)
	return queue.EncodePayload(invoiceResult{Number: invoice.Number, HoldedDocumentID: invoice.HoldedDocumentID})
}

// linkOrder stamps the invoice number onto the order, flips its billing
// status and advances the order status. It also back-links the shipment
// when one exists.
func (w *InvoiceWorker) linkOrder(ctx context.Context, order *trade.Order, number string) error {
	billingStatus := trade.BillingStatusInvoiced
	patch := trade.OrderPatch{
		BillingStatus: &billingStatus,
		InvoiceNumber: &number,
	}
	if err := order.AdvanceTo(trade.OrderStatusInvoiced); err == nil && order.Status == trade.OrderStatusInvoiced {
		status := trade.OrderStatusInvoiced
		patch.Status = &status
	}
	if err := w.orders.Patch(ctx, order.ID, patch); err != nil {
		return err
	}

	shipment, err := w.shipments.FindByOrderID(ctx, order.ID)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil
		}
		return err
	}
	return w.shipments.Patch(ctx, shipment.ID, shipping.ShipmentPatch{InvoiceNumber: &number})
}

// archiveCopy renders the invoice and stores it, for when the invoicing
// platform does not hand back a document URL.
func (w *InvoiceWorker) archiveCopy(ctx context.Context, invoice *billing.Invoice, order *trade.Order, account *partner.Account) (string, error) {
	lines := make([]map[string]any, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, map[string]any{
			"SKU":       l.SKU,
			"Name":      l.Name,
			"Qty":       l.Qty.String(),
			"UnitPrice": l.UnitPrice.StringFixed(2),
			"Amount":    l.Amount.StringFixed(2),
		})
	}
	doc, contentType, err := w.renderer.Render(ctx, &RenderRequest{
		Kind:   DocumentKindInvoice,
		Number: invoice.Number,
		Data: map[string]any{
			"AccountName":    account.Name,
			"BillingAddress": account.BillingAddress,
			"Lines":          lines,
			"Total":          invoice.TotalAmount,
			"Currency":       invoice.Currency,
		},
	})
	if err != nil {
		return "", shared.Terminalf("render invoice for order %s: %v", order.ID, err)
	}
	return w.store.Store(ctx, fmt.Sprintf("invoices/%s.html", invoice.Number), doc, contentType)
}

type invoiceResult struct {
	Number           string `json:"number"`
	HoldedDocumentID string `json:"holdedDocumentId"`
}

var _ Worker = (*InvoiceWorker)(nil)
