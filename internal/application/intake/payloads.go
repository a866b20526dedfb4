package intake

import (
	"strconv"
	"strings"

	"github.com/santabrisa/backend/internal/domain/queue"
)

// shopifyOrderWebhook is the subset of the Shopify order payload the
// pipeline needs. Everything else in the (large) webhook body is ignored;
// the raw body is kept verbatim on the ledger entry for later inspection.
type shopifyOrderWebhook struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Currency string `json:"currency"`
	Customer *struct {
		ID        int64  `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"customer"`
	LineItems []struct {
		SKU      string `json:"sku"`
		Title    string `json:"title"`
		Quantity int    `json:"quantity"`
		Price    string `json:"price"`
	} `json:"line_items"`
}

func (w *shopifyOrderWebhook) toJobPayload(shop string) queue.UpsertInboundOrderPayload {
	p := queue.UpsertInboundOrderPayload{
		ExternalOrderID: strconv.FormatInt(w.ID, 10),
		Shop:            shop,
		CustomerEmail:   w.Email,
		Currency:        w.Currency,
	}
	if w.Customer != nil {
		if w.Customer.ID != 0 {
			p.CustomerExtID = strconv.FormatInt(w.Customer.ID, 10)
		}
		if p.CustomerEmail == "" {
			p.CustomerEmail = w.Customer.Email
		}
		p.CustomerName = strings.TrimSpace(w.Customer.FirstName + " " + w.Customer.LastName)
	}
	for _, item := range w.LineItems {
		p.Lines = append(p.Lines, queue.InboundOrderLine{
			SKU:       item.SKU,
			Name:      item.Title,
			Qty:       strconv.Itoa(item.Quantity),
			UnitPrice: item.Price,
		})
	}
	return p
}

// sendcloudWebhook is the subset of the Sendcloud parcel status payload
// the intake needs to build a dedup key and decide whether to nudge the
// reconciliation job.
type sendcloudWebhook struct {
	Action string `json:"action"`
	Parcel struct {
		ID             int64  `json:"id"`
		TrackingNumber string `json:"tracking_number"`
		OrderNumber    string `json:"order_number"`
		Status         struct {
			ID      int    `json:"id"`
			Message string `json:"message"`
		} `json:"status"`
	} `json:"parcel"`
}
