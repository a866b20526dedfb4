package shipping

import (
	"time"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ShipmentMode distinguishes small parcel shipments from palletized freight
type ShipmentMode string

const (
	ModeParcel ShipmentMode = "PARCEL"
	ModePallet ShipmentMode = "PALLET"
)

// ShipmentStatus represents the fulfilment state of a shipment
type ShipmentStatus string

const (
	StatusPending     ShipmentStatus = "pending"
	StatusPicking     ShipmentStatus = "picking"
	StatusReadyToShip ShipmentStatus = "ready_to_ship"
	StatusShipped     ShipmentStatus = "shipped"
	StatusDelivered   ShipmentStatus = "delivered"
	StatusException   ShipmentStatus = "exception"
	StatusCancelled   ShipmentStatus = "cancelled"
)

// statusRank orders the happy path; exception/cancelled sit outside it.
var statusRank = map[ShipmentStatus]int{
	StatusPending:     0,
	StatusPicking:     1,
	StatusReadyToShip: 2,
	StatusShipped:     3,
	StatusDelivered:   4,
}

// IsTerminal reports whether no further transitions are allowed.
func (s ShipmentStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// String returns the string representation of ShipmentStatus
func (s ShipmentStatus) String() string {
	return string(s)
}

// ShipmentLine is one picked line of a shipment
type ShipmentLine struct {
	ID         uuid.UUID
	ShipmentID uuid.UUID
	SKU        string
	Name       string
	Qty        decimal.Decimal
	UOM        string
	LotNumber  string
}

// TableName returns the table name for GORM
func (ShipmentLine) TableName() string {
	return "shipment_lines"
}

// Shipment is the unit of fulfilment for an order. Under normal flow there is
// exactly one shipment per order; idempotent creation enforces that.
type Shipment struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	AccountID          uuid.UUID
	Mode               ShipmentMode
	Status             ShipmentStatus
	Lines              []ShipmentLine
	VisualOK           bool
	Carrier            string
	WeightKg           float64
	DimsCm             string
	TrackingCode       string
	LabelURL           string
	DeliveryNoteNumber string
	InvoiceNumber      string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName returns the table name for GORM
func (Shipment) TableName() string {
	return "shipments"
}

// NewShipment creates a pending shipment for an order.
func NewShipment(orderID, accountID uuid.UUID, mode ShipmentMode) *Shipment {
	now := time.Now()
	return &Shipment{
		ID:        uuid.New(),
		OrderID:   orderID,
		AccountID: accountID,
		Mode:      mode,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanTransitionTo checks the shipment state machine:
// pending → picking → ready_to_ship → shipped → delivered, picking optional,
// with cancelled/exception reachable from any non-terminal state.
func (s *Shipment) CanTransitionTo(target ShipmentStatus) bool {
	if s.Status.IsTerminal() {
		return false
	}
	if target == StatusCancelled || target == StatusException {
		return true
	}
	if s.Status == StatusException {
		// Exceptions resolve back into the happy path at any point.
		_, ok := statusRank[target]
		return ok
	}
	cur, ok := statusRank[s.Status]
	if !ok {
		return false
	}
	tgt, ok := statusRank[target]
	if !ok {
		return false
	}
	// Forward only; picking may be skipped but shipped requires
	// ready_to_ship first.
	if tgt <= cur {
		return false
	}
	return tgt-cur == 1 || (s.Status == StatusPending && target == StatusReadyToShip)
}

// AdvanceTo moves the shipment forward, refusing invalid transitions.
// Advancing to a status already reached (or passed) is a no-op.
func (s *Shipment) AdvanceTo(target ShipmentStatus) error {
	if s.Status == target {
		return nil
	}
	if cur, ok := statusRank[s.Status]; ok {
		if tgt, tok := statusRank[target]; tok && tgt <= cur {
			return nil
		}
	}
	if !s.CanTransitionTo(target) {
		return shared.ErrInvalidState
	}
	s.Status = target
	s.UpdatedAt = time.Now()
	return nil
}

// CanCreateDeliveryNote guards delivery-note creation: the visual check must
// have passed first.
func (s *Shipment) CanCreateDeliveryNote() bool {
	return s.VisualOK
}

// CanCreateLabel guards carrier-label creation: the delivery note precedes
// the label, and the carrier needs weight and dimensions.
func (s *Shipment) CanCreateLabel() bool {
	return s.DeliveryNoteNumber != "" && s.Carrier != "" && s.WeightKg > 0 && s.DimsCm != ""
}

// CanMarkShipped guards the shipped transition: a PARCEL needs a tracking
// code, a PALLET needs a label.
func (s *Shipment) CanMarkShipped() bool {
	switch s.Mode {
	case ModeParcel:
		return s.TrackingCode != ""
	case ModePallet:
		return s.LabelURL != ""
	}
	return false
}

// LotMap assigns lot quantities per SKU: sku -> lot number -> quantity.
type LotMap map[string]map[string]float64

// ValidateLotMap checks that the lot quantities assigned to each SKU sum to
// exactly that SKU's line quantity. A mismatch is a data-integrity problem,
// not a transient one.
func (s *Shipment) ValidateLotMap(lots LotMap) error {
	for sku, byLot := range lots {
		var line *ShipmentLine
		for i := range s.Lines {
			if s.Lines[i].SKU == sku {
				line = &s.Lines[i]
				break
			}
		}
		if line == nil {
			return shared.NewDomainError("UNKNOWN_SKU", "Lot map references SKU not on shipment: "+sku)
		}
		sum := decimal.Zero
		for _, qty := range byLot {
			sum = sum.Add(decimal.NewFromFloat(qty))
		}
		if !sum.Equal(line.Qty) {
			return shared.NewDomainError("LOT_QTY_MISMATCH",
				"Lot quantities for SKU "+sku+" sum to "+sum.String()+", line quantity is "+line.Qty.String())
		}
	}
	return nil
}

// ApplyLotMap stamps lot numbers onto lines. Lines whose SKU has a single
// lot get that lot number; multi-lot SKUs keep the lot detail in the map
// (one line per lot is a warehouse-side split, out of pipeline scope).
func (s *Shipment) ApplyLotMap(lots LotMap) {
	for i := range s.Lines {
		byLot, ok := lots[s.Lines[i].SKU]
		if !ok || len(byLot) != 1 {
			continue
		}
		for lot := range byLot {
			s.Lines[i].LotNumber = lot
		}
	}
	s.UpdatedAt = time.Now()
}
