package queue

import (
	"encoding/json"

	"github.com/santabrisa/backend/internal/domain/shared"
)

// Each job kind carries its own payload shape. The dispatcher does not
// validate payloads generically; workers decode their own kind with
// DecodePayload and raise a terminal error on malformed input.

// CreateShipmentPayload is the payload for JobKindCreateShipmentFromOrder
type CreateShipmentPayload struct {
	OrderID string `json:"orderId"`
}

// ValidateShipmentPayload is the payload for JobKindValidateShipment
type ValidateShipmentPayload struct {
	ShipmentID string  `json:"shipmentId"`
	VisualOK   bool    `json:"visualOk"`
	Carrier    string  `json:"carrier,omitempty"`
	WeightKg   float64 `json:"weightKg,omitempty"`
	DimsCm     string  `json:"dimsCm,omitempty"`
	// LotMap assigns lot quantities per SKU: sku -> lot number -> quantity.
	LotMap map[string]map[string]float64 `json:"lotMap,omitempty"`
}

// ShipmentRefPayload is the payload for the shipment-scoped kinds
// (create_delivery_note, create_carrier_label, mark_shipped).
type ShipmentRefPayload struct {
	ShipmentID string `json:"shipmentId"`
}

// CreateInvoicePayload is the payload for JobKindCreateInvoiceFromOrder
type CreateInvoicePayload struct {
	OrderID string `json:"orderId"`
}

// UpsertInboundOrderPayload is the payload for JobKindUpsertInboundOrder.
// It carries the mapped external order as received from the e-commerce
// platform webhook.
type UpsertInboundOrderPayload struct {
	ExternalOrderID string             `json:"externalOrderId"`
	Shop            string             `json:"shop"`
	CustomerExtID   string             `json:"customerExtId,omitempty"`
	CustomerEmail   string             `json:"customerEmail,omitempty"`
	CustomerName    string             `json:"customerName,omitempty"`
	Currency        string             `json:"currency,omitempty"`
	Lines           []InboundOrderLine `json:"lines"`
}

// InboundOrderLine is one order line from an external platform
type InboundOrderLine struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Qty       string `json:"qty"`
	UnitPrice string `json:"unitPrice"`
}

// SyncPagePayload is the payload for the paginated Holded pull kinds.
// Page is 1-based; each full page enqueues the next page as a new job.
type SyncPagePayload struct {
	Page int `json:"page"`
}

// BackfillOrdersPayload is the payload for JobKindBackfillOrders. The
// backfill pulls orders the platform updated inside the window and replays
// them through the regular inbound upsert path.
type BackfillOrdersPayload struct {
	// Since bounds the platform-side lookup window, RFC 3339.
	Since string `json:"since,omitempty"`
}

// ReconcileLabelsPayload is the payload for JobKindReconcileLabels
type ReconcileLabelsPayload struct {
	// Since bounds the carrier-side lookup window, RFC 3339.
	Since string `json:"since,omitempty"`
}

// EncodePayload marshals a typed payload for enqueueing.
func EncodePayload(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, shared.Terminalf("encode job payload: %v", err)
	}
	return b, nil
}

// DecodePayload unmarshals a job payload into its typed shape. A payload
// that does not decode is a terminal error: retrying cannot repair it.
func DecodePayload(data []byte, v any) error {
	if len(data) == 0 {
		return shared.Terminalf("empty job payload")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return shared.Terminalf("decode job payload: %v", err)
	}
	return nil
}
