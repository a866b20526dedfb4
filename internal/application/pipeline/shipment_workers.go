package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/shipping"
	"github.com/santabrisa/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// parcelQtyThreshold is the unit count above which a manually entered order
// ships palletized instead of as a parcel.
var parcelQtyThreshold = decimal.NewFromInt(24)

// CreateShipmentWorker creates the shipment for a confirmed order. Exactly
// one shipment per order: the guard is an explicit query, not a
// unique-constraint side effect.
type CreateShipmentWorker struct {
	orders    trade.OrderRepository
	shipments shipping.ShipmentRepository
	logger    *zap.Logger
}

// NewCreateShipmentWorker creates a new worker.
func NewCreateShipmentWorker(
	orders trade.OrderRepository,
	shipments shipping.ShipmentRepository,
	logger *zap.Logger,
) *CreateShipmentWorker {
	return &CreateShipmentWorker{
		orders:    orders,
		shipments: shipments,
		logger:    logger,
	}
}

// Kind returns the job kind this worker executes.
func (w *CreateShipmentWorker) Kind() queue.JobKind {
	return queue.JobKindCreateShipmentFromOrder
}

// Execute creates a pending shipment with the order's lines copied over.
func (w *CreateShipmentWorker) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
	var p queue.CreateShipmentPayload
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
	// The existing-shipment guard runs first: a replayed job for an order
	// that has moved on since (invoiced, paid) is still a no-op, not a
	// failure.
	existing, err := w.shipments.FindByOrderID(ctx, orderID)
	if err == nil {
		w.logger.Info("shipment already exists for order, skipping",
			zap.String("order_id", orderID.String()),
			zap.String("shipment_id", existing.ID.String()),
		)
		return queue.EncodePayload(queue.ShipmentRefPayload{ShipmentID: existing.ID.String()})
	}
	if err != shared.ErrNotFound {
		return nil, err
	}

	if !order.IsShippable() {
		return nil, shared.Terminalf("order %s is not shippable in status %s", orderID, order.Status)
	}

	shipment := shipping.NewShipment(order.ID, order.AccountID, deriveShipmentMode(order))
	for _, line := range order.Lines {
		shipment.Lines = append(shipment.Lines, shipping.ShipmentLine{
			ID:         uuid.New(),
			ShipmentID: shipment.ID,
			SKU:        line.SKU,
			Name:       line.Name,
			Qty:        line.Qty,
			UOM:        "ud",
		})
	}
	if err := w.shipments.Save(ctx, shipment); err != nil {
		return nil, err
	}

	w.logger.Info("shipment created",
		zap.String("order_id", order.ID.String()),
		zap.String("shipment_id", shipment.ID.String()),
		zap.String("mode", string(shipment.Mode)),
	)
	return queue.EncodePayload(queue.ShipmentRefPayload{ShipmentID: shipment.ID.String()})
}

// deriveShipmentMode picks the fulfilment mode. Online orders and small
// manual orders go out as parcels; larger manual orders are palletized.
func deriveShipmentMode(order *trade.Order) shipping.ShipmentMode {
	if order.Source == trade.OrderSourceShopify {
		return shipping.ModeParcel
	}
	total := decimal.Zero
	for _, l := range order.Lines {
		total = total.Add(l.Qty)
	}
	if total.LessThanOrEqual(parcelQtyThreshold) {
		return shipping.ModeParcel
	}
	return shipping.ModePallet
}

// ValidateShipmentWorker records the warehouse check on a shipment: lot
// assignment, carrier and physical measurements, and the visual inspection
// result.
type ValidateShipmentWorker struct {
	shipments shipping.ShipmentRepository
	logger    *zap.Logger
}

// NewValidateShipmentWorker creates a new worker.
func NewValidateShipmentWorker(shipments shipping.ShipmentRepository, logger *zap.Logger) *ValidateShipmentWorker {
	return &ValidateShipmentWorker{
		shipments: shipments,
		logger:    logger,
	}
}

// Kind returns the job kind this worker executes.
func (w *ValidateShipmentWorker) Kind() queue.JobKind {
	return queue.JobKindValidateShipment
}

// Execute validates the lot map, merges the provided fields into the
// shipment and, when the visual check passed, advances it to ready_to_ship.
// A lot quantity mismatch is a data-integrity problem and fails without
// writing anything.
func (w *ValidateShipmentWorker) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
	var p queue.ValidateShipmentPayload
	if err := queue.DecodePayload(job.Payload, &p); err != nil {
		return nil, err
	}
	shipmentID, err := uuid.Parse(p.ShipmentID)
	if err != nil {
		return nil, shared.Terminalf("invalid shipment id %q: %v", p.ShipmentID, err)
	}

	shipment, err := w.shipments.FindByID(ctx, shipmentID)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.Terminalf("shipment %s not found", shipmentID)
		}
		return nil, err
	}

	if len(p.LotMap) > 0 {
		lots := shipping.LotMap(p.LotMap)
		if err := shipment.ValidateLotMap(lots); err != nil {
			return nil, shared.Terminal(err)
		}
		shipment.ApplyLotMap(lots)
		if err := w.shipments.UpdateLines(ctx, shipment); err != nil {
			return nil, err
		}
	}

	patch := shipping.ShipmentPatch{VisualOK: &p.VisualOK}
	if p.Carrier != "" {
		patch.Carrier = &p.Carrier
	}
	if p.WeightKg > 0 {
		patch.WeightKg = &p.WeightKg
	}
	if p.DimsCm != "" {
		patch.DimsCm = &p.DimsCm
	}

	if p.VisualOK {
		prev := shipment.Status
		if err := shipment.AdvanceTo(shipping.StatusReadyToShip); err != nil {
			return nil, shared.Terminalf("shipment %s cannot become ready to ship from status %s", shipmentID, prev)
		}
		if shipment.Status != prev {
			status := shipment.Status
			patch.Status = &status
		}
	}

	if err := w.shipments.Patch(ctx, shipmentID, patch); err != nil {
		return nil, err
	}

	w.logger.Info("shipment validated",
		zap.String("shipment_id", shipmentID.String()),
		zap.Bool("visual_ok", p.VisualOK),
		zap.Int("lot_skus", len(p.LotMap)),
	)
	return nil, nil
}

// MarkShippedWorker transitions a shipment to shipped and propagates the
// status to its order.
type MarkShippedWorker struct {
	shipments shipping.ShipmentRepository
	orders    trade.OrderRepository
	logger    *zap.Logger
}

// NewMarkShippedWorker creates a new worker.
func NewMarkShippedWorker(
	shipments shipping.ShipmentRepository,
	orders trade.OrderRepository,
	logger *zap.Logger,
) *MarkShippedWorker {
	return &MarkShippedWorker{
		shipments: shipments,
		orders:    orders,
		logger:    logger,
	}
}

// Kind returns the job kind this worker executes.
func (w *MarkShippedWorker) Kind() queue.JobKind {
	return queue.JobKindMarkShipped
}

// Execute marks the shipment shipped. A parcel needs its tracking code and
// a pallet its label first; missing either is an ordering bug upstream, not
// a transient condition.
func (w *MarkShippedWorker) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
	var p queue.ShipmentRefPayload
	if err := queue.DecodePayload(job.Payload, &p); err != nil {
		return nil, err
	}
	shipmentID, err := uuid.Parse(p.ShipmentID)
	if err != nil {
		return nil, shared.Terminalf("invalid shipment id %q: %v", p.ShipmentID, err)
	}

	shipment, err := w.shipments.FindByID(ctx, shipmentID)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.Terminalf("shipment %s not found", shipmentID)
		}
		return nil, err
	}

	if shipment.Status == shipping.StatusShipped || shipment.Status == shipping.StatusDelivered {
		return nil, nil
	}
	if !shipment.CanMarkShipped() {
		switch shipment.Mode {
		case shipping.ModeParcel:
			return nil, shared.Terminalf("parcel shipment %s has no tracking code", shipmentID)
		default:
			return nil, shared.Terminalf("pallet shipment %s has no label", shipmentID)
		}
	}
	if err := shipment.AdvanceTo(shipping.StatusShipped); err != nil {
		return nil, shared.Terminalf("shipment %s cannot ship from status %s", shipmentID, shipment.Status)
	}

	status := shipping.StatusShipped
	if err := w.shipments.Patch(ctx, shipmentID, shipping.ShipmentPatch{Status: &status}); err != nil {
		return nil, err
	}

	order, err := w.orders.FindByID(ctx, shipment.OrderID)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.Terminalf("order %s for shipment %s not found", shipment.OrderID, shipmentID)
		}
		return nil, err
	}
	if err := order.AdvanceTo(trade.OrderStatusShipped); err == nil && order.Status == trade.OrderStatusShipped {
		orderStatus := trade.OrderStatusShipped
		if err := w.orders.Patch(ctx, order.ID, trade.OrderPatch{Status: &orderStatus}); err != nil {
			return nil, err
		}
	}

	w.logger.Info("shipment shipped",
		zap.String("shipment_id", shipmentID.String()),
		zap.String("order_id", shipment.OrderID.String()),
		zap.String("tracking_code", shipment.TrackingCode),
	)
	return nil, nil
}

var (
	_ Worker = (*CreateShipmentWorker)(nil)
	_ Worker = (*ValidateShipmentWorker)(nil)
	_ Worker = (*MarkShippedWorker)(nil)
)
