package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/santabrisa/backend/internal/domain/integration"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/webhook"
	"go.uber.org/zap"
)

// defaultBackfillWindow bounds the platform-side lookup when the payload
// does not carry an explicit starting point.
const defaultBackfillWindow = 24 * time.Hour

// BackfillOrdersWorker pulls orders updated on the e-commerce platform and
// replays them through the inbound upsert path. Webhooks are the primary
// intake; the backfill recovers orders whose deliveries were lost while the
// endpoint was down. The deterministic order id makes replaying an order the
// webhook already delivered a no-op.
type BackfillOrdersWorker struct {
	shopify    integration.ShopifyClient
	enqueuer   *Enqueuer
	shopDomain string
	logger     *zap.Logger
}

// NewBackfillOrdersWorker creates a new worker.
func NewBackfillOrdersWorker(
	shopify integration.ShopifyClient,
	enqueuer *Enqueuer,
	shopDomain string,
	logger *zap.Logger,
) *BackfillOrdersWorker {
	return &BackfillOrdersWorker{
		shopify:    shopify,
		enqueuer:   enqueuer,
		shopDomain: shopDomain,
		logger:     logger,
	}
}

// Kind returns the job kind this worker executes.
func (w *BackfillOrdersWorker) Kind() queue.JobKind {
	return queue.JobKindBackfillOrders
}

// Execute fetches the updated orders and enqueues one upsert job per order.
func (w *BackfillOrdersWorker) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
	var p queue.BackfillOrdersPayload
	if len(job.Payload) > 0 {
		if err := queue.DecodePayload(job.Payload, &p); err != nil {
			return nil, err
		}
	}

	since := time.Now().Add(-defaultBackfillWindow)
	if p.Since != "" {
		parsed, err := time.Parse(time.RFC3339, p.Since)
		if err != nil {
			return nil, shared.Terminalf("invalid since timestamp %q: %v", p.Since, err)
		}
		since = parsed
	}

	orders, err := w.shopify.FetchOrders(ctx, since)
	if err != nil {
		return nil, err
	}

	enqueued := 0
	for _, order := range orders {
		if order.ID == "" || len(order.LineItems) == 0 {
			w.logger.Warn("skipping unusable backfill order",
				zap.String("order_id", order.ID),
				zap.String("order_number", order.OrderNumber),
			)
			continue
		}

		if _, err := w.enqueuer.Enqueue(ctx, queue.JobKindUpsertInboundOrder,
			w.toUpsertPayload(order),
			queue.WithCorrelationID(webhook.ExternalID(webhook.SourceShopify, order.ID)),
		); err != nil {
			return nil, err
		}
		enqueued++
	}

	w.logger.Info("order backfill finished",
		zap.Time("since", since),
		zap.Int("fetched", len(orders)),
		zap.Int("enqueued", enqueued),
	)
	return queue.EncodePayload(backfillResult{Fetched: len(orders), Enqueued: enqueued})
}

func (w *BackfillOrdersWorker) toUpsertPayload(order integration.ShopifyOrder) queue.UpsertInboundOrderPayload {
	p := queue.UpsertInboundOrderPayload{
		ExternalOrderID: order.ID,
		Shop:            w.shopDomain,
		CustomerExtID:   order.CustomerID,
		CustomerEmail:   order.Email,
		CustomerName:    order.CustomerName,
		Currency:        order.Currency,
	}
	for _, item := range order.LineItems {
		p.Lines = append(p.Lines, queue.InboundOrderLine{
			SKU:       item.SKU,
			Name:      item.Title,
			Qty:       strconv.Itoa(item.Quantity),
			UnitPrice: item.Price,
		})
	}
	return p
}

type backfillResult struct {
	Fetched  int `json:"fetched"`
	Enqueued int `json:"enqueued"`
}

var _ Worker = (*BackfillOrdersWorker)(nil)
