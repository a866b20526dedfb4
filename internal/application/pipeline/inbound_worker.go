package pipeline

import (
	"context"
	"time"

	"github.com/santabrisa/backend/internal/domain/partner"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// invoiceChainDelay spaces the dependent invoice job out so a burst of
// webhook redeliveries settles on the order row before invoicing reads it.
const invoiceChainDelay = 30 * time.Second

// InboundOrderWorker maps an e-commerce order payload into a local account
// and order. The order id is deterministic over the external order id, so
// repeated webhook delivery converges on one row instead of duplicating.
type InboundOrderWorker struct {
	accounts partner.AccountRepository
	orders   trade.OrderRepository
	enqueuer *Enqueuer
	logger   *zap.Logger
}

// NewInboundOrderWorker creates a new worker.
func NewInboundOrderWorker(
	accounts partner.AccountRepository,
	orders trade.OrderRepository,
	enqueuer *Enqueuer,
	logger *zap.Logger,
) *InboundOrderWorker {
	return &InboundOrderWorker{
		accounts: accounts,
		orders:   orders,
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// Kind returns the job kind this worker executes.
func (w *InboundOrderWorker) Kind() queue.JobKind {
	return queue.JobKindUpsertInboundOrder
}

// Execute upserts the order and enqueues the dependent jobs. The
// dependents are only enqueued after the order write has committed, which
// is what gives the chain its causal ordering.
func (w *InboundOrderWorker) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
	var p queue.UpsertInboundOrderPayload
	if err := queue.DecodePayload(job.Payload, &p); err != nil {
		return nil, err
	}
	if p.ExternalOrderID == "" {
		return nil, shared.Terminalf("inbound order payload has no external order id")
	}
	if len(p.Lines) == 0 {
		return nil, shared.Terminalf("inbound order %s has no lines", p.ExternalOrderID)
	}

	account, err := w.resolveAccount(ctx, &p)
	if err != nil {
		return nil, err
	}

	orderID := trade.DeterministicOrderID(trade.OrderSourceShopify, p.ExternalOrderID)
	currency := p.Currency
	if currency == "" {
		currency = "EUR"
	}
	order := trade.NewOrder(account.ID, trade.OrderSourceShopify, currency)
	order.ID = orderID
	order.ExternalID = p.ExternalOrderID
	// The platform only fires the order webhook once payment clears, so
	// the order arrives confirmed.
	order.Status = trade.OrderStatusConfirmed

	for _, line := range p.Lines {
		qty, err := decimal.NewFromString(line.Qty)
		if err != nil {
			return nil, shared.Terminalf("inbound order %s: bad quantity %q for sku %s", p.ExternalOrderID, line.Qty, line.SKU)
		}
		price, err := decimal.NewFromString(line.UnitPrice)
		if err != nil {
			return nil, shared.Terminalf("inbound order %s: bad unit price %q for sku %s", p.ExternalOrderID, line.UnitPrice, line.SKU)
		}
		ol, err := trade.NewOrderLine(orderID, line.SKU, line.Name, qty, price)
		if err != nil {
			return nil, shared.Terminal(err)
		}
		order.Lines = append(order.Lines, *ol)
	}
	order.RecalculateTotal()

	if err := w.orders.Upsert(ctx, order); err != nil {
		return nil, err
	}

	correlation := job.CorrelationID
	if correlation == "" {
		correlation = p.ExternalOrderID
	}
	if _, err := w.enqueuer.Enqueue(ctx, queue.JobKindCreateShipmentFromOrder,
		queue.CreateShipmentPayload{OrderID: orderID.String()},
		queue.WithCorrelationID(correlation),
	); err != nil {
		return nil, err
	}
	if _, err := w.enqueuer.Enqueue(ctx, queue.JobKindCreateInvoiceFromOrder,
		queue.CreateInvoicePayload{OrderID: orderID.String()},
		queue.WithCorrelationID(correlation),
		queue.WithDelay(invoiceChainDelay),
	); err != nil {
		return nil, err
	}

	w.logger.Info("inbound order upserted",
		zap.String("external_order_id", p.ExternalOrderID),
		zap.String("order_id", orderID.String()),
		zap.String("account_id", account.ID.String()),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)
	return queue.EncodePayload(queue.CreateShipmentPayload{OrderID: orderID.String()})
}

// resolveAccount finds the customer account by external customer id first,
// then by contact email, and creates one when neither matches.
func (w *InboundOrderWorker) resolveAccount(ctx context.Context, p *queue.UpsertInboundOrderPayload) (*partner.Account, error) {
	if p.CustomerExtID != "" {
		account, err := w.accounts.FindByExternalCustomerID(ctx, p.CustomerExtID)
		if err == nil {
			return account, nil
		}
		if err != shared.ErrNotFound {
			return nil, err
		}
	}

	if p.CustomerEmail != "" {
		account, err := w.accounts.FindByEmail(ctx, p.CustomerEmail)
		if err == nil {
			if account.ExternalCustomerID == "" && p.CustomerExtID != "" {
				account.ExternalCustomerID = p.CustomerExtID
				if err := w.accounts.Update(ctx, account); err != nil {
					return nil, err
				}
			}
			return account, nil
		}
		if err != shared.ErrNotFound {
			return nil, err
		}
	}

	name := p.CustomerName
	if name == "" {
		name = p.CustomerEmail
	}
	account, err := partner.NewAccount(name, p.CustomerEmail)
	if err != nil {
		return nil, shared.Terminal(err)
	}
	account.ExternalCustomerID = p.CustomerExtID
	if err := w.accounts.Save(ctx, account); err != nil {
		return nil, err
	}

	w.logger.Info("account created from inbound order",
		zap.String("account_id", account.ID.String()),
		zap.String("external_customer_id", account.ExternalCustomerID),
	)
	return account, nil
}

var _ Worker = (*InboundOrderWorker)(nil)
