package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusInvoiced  OrderStatus = "invoiced"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusLost      OrderStatus = "lost"
)

// statusRank orders the forward progression of an order. Cancelled/lost sit
// outside the progression and are reached only by explicit cancellation.
var statusRank = map[OrderStatus]int{
	OrderStatusOpen:      0,
	OrderStatusConfirmed: 1,
	OrderStatusShipped:   2,
	OrderStatusInvoiced:  3,
	OrderStatusPaid:      4,
}

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusOpen, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusInvoiced, OrderStatusPaid, OrderStatusCancelled, OrderStatusLost:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status ends the order's lifecycle.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled || s == OrderStatusLost
}

// BillingStatus tracks invoicing progress independently of fulfilment
type BillingStatus string

const (
	BillingStatusPending  BillingStatus = "PENDING"
	BillingStatusInvoiced BillingStatus = "INVOICED"
	BillingStatusPaid     BillingStatus = "PAID"
)

var billingRank = map[BillingStatus]int{
	BillingStatusPending:  0,
	BillingStatusInvoiced: 1,
	BillingStatusPaid:     2,
}

// LaterBillingStatus returns whichever of the two billing states is further
// along. Billing only moves forward; unknown values rank lowest.
func LaterBillingStatus(a, b BillingStatus) BillingStatus {
	if billingRank[b] > billingRank[a] {
		return b
	}
	return a
}

// OrderSource identifies where an order originated
type OrderSource string

const (
	OrderSourceManual  OrderSource = "MANUAL"
	OrderSourceShopify OrderSource = "SHOPIFY"
	OrderSourceHolded  OrderSource = "HOLDED"
)

// OrderLine is a line item on an order
type OrderLine struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	SKU       string
	Name      string
	Qty       decimal.Decimal
	UnitPrice decimal.Decimal
	Amount    decimal.Decimal
}

// TableName returns the table name for GORM
func (OrderLine) TableName() string {
	return "order_lines"
}

// NewOrderLine creates an order line and derives its amount.
func NewOrderLine(orderID uuid.UUID, sku, name string, qty, unitPrice decimal.Decimal) (*OrderLine, error) {
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Line SKU cannot be empty")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return &OrderLine{
		ID:        uuid.New(),
		OrderID:   orderID,
		SKU:       sku,
		Name:      name,
		Qty:       qty,
		UnitPrice: unitPrice,
		Amount:    qty.Mul(unitPrice),
	}, nil
}

// orderNamespace derives deterministic order ids from external order ids, so
// repeated webhook delivery of the same external order converges on one row.
var orderNamespace = uuid.MustParse("5f2b1c5a-9d3e-4c21-8f67-3a7d90b51f04")

// DeterministicOrderID maps an external order reference to a stable uuid.
func DeterministicOrderID(source OrderSource, externalID string) uuid.UUID {
	return uuid.NewSHA1(orderNamespace, []byte(string(source)+":"+externalID))
}

// Order is the subset of the sales order relevant to the pipeline. Its status
// is the join point several workers race to update; writers use field-level
// merge updates so concurrent writes to unrelated fields survive.
type Order struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	Status        OrderStatus
	BillingStatus BillingStatus
	Source        OrderSource
	ExternalID    string // e-commerce platform order id
	InvoiceNumber string // business number of the invoice, once created
	Currency      string
	TotalAmount   decimal.Decimal
	Lines         []OrderLine
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates an order in open status.
func NewOrder(accountID uuid.UUID, source OrderSource, currency string) *Order {
	now := time.Now()
	return &Order{
		ID:            uuid.New(),
		AccountID:     accountID,
		Status:        OrderStatusOpen,
		BillingStatus: BillingStatusPending,
		Source:        source,
		Currency:      currency,
		TotalAmount:   decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RecalculateTotal sums the line amounts into TotalAmount.
func (o *Order) RecalculateTotal() {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Amount)
	}
	o.TotalAmount = total
}

// CanAdvanceTo reports whether the order may move forward to target. Forward
// moves may skip intermediate states; backward moves are never allowed.
func (o *Order) CanAdvanceTo(target OrderStatus) bool {
	if target == OrderStatusCancelled || target == OrderStatusLost {
		return !o.Status.IsTerminal()
	}
	cur, ok := statusRank[o.Status]
	if !ok {
		return false
	}
	tgt, ok := statusRank[target]
	if !ok {
		return false
	}
	return tgt > cur
}

// AdvanceTo moves the order forward. Advancing to the current or an earlier
// status is a no-op, keeping concurrent workers convergent rather than
// failing the later writer.
func (o *Order) AdvanceTo(target OrderStatus) error {
	if o.Status == target {
		return nil
	}
	if cur, ok := statusRank[o.Status]; ok {
		if tgt, tok := statusRank[target]; tok && tgt < cur {
			return nil
		}
	}
	if !o.CanAdvanceTo(target) {
		return shared.ErrInvalidState
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}

// IsShippable reports whether a shipment may be created for the order.
func (o *Order) IsShippable() bool {
	return o.Status == OrderStatusConfirmed || o.Status == OrderStatusShipped
}
