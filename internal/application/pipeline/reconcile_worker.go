package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/integration"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/shipping"
	"go.uber.org/zap"
)

// defaultReconcileWindow bounds the carrier-side lookup when the payload
// does not carry an explicit starting point.
const defaultReconcileWindow = 24 * time.Hour

// LabelReconcileWorker cross-checks carrier-side parcels against local
// shipments. A label write lost to a crash after the carrier call leaves a
// shipment without its label URL or tracking code; this job repairs those
// from the carrier's record.
type LabelReconcileWorker struct {
	carrier   integration.SendcloudClient
	shipments shipping.ShipmentRepository
	logger    *zap.Logger
}

// NewLabelReconcileWorker creates a new worker.
func NewLabelReconcileWorker(
	carrier integration.SendcloudClient,
	shipments shipping.ShipmentRepository,
	logger *zap.Logger,
) *LabelReconcileWorker {
	return &LabelReconcileWorker{
		carrier:   carrier,
		shipments: shipments,
		logger:    logger,
	}
}

// Kind returns the job kind this worker executes.
func (w *LabelReconcileWorker) Kind() queue.JobKind {
	return queue.JobKindReconcileLabels
}

// Execute fetches recent carrier parcels and patches any missing label
// fields on the matching shipments. Parcels that do not match a local
// shipment are skipped; the carrier account may carry traffic from outside
// this system.
func (w *LabelReconcileWorker) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
	var p queue.ReconcileLabelsPayload
	if len(job.Payload) > 0 {
		if err := queue.DecodePayload(job.Payload, &p); err != nil {
			return nil, err
		}
	}

	since := time.Now().Add(-defaultReconcileWindow)
	if p.Since != "" {
		parsed, err := time.Parse(time.RFC3339, p.Since)
		if err != nil {
			return nil, shared.Terminalf("invalid since timestamp %q: %v", p.Since, err)
		}
		since = parsed
	}

	parcels, err := w.carrier.FetchParcels(ctx, since)
	if err != nil {
		return nil, err
	}

	repaired := 0
	for _, parcel := range parcels {
		shipment, err := w.matchShipment(ctx, parcel)
		if err != nil {
			return nil, err
		}
		if shipment == nil {
			continue
		}

		patch := shipping.ShipmentPatch{}
		if shipment.LabelURL == "" && parcel.LabelURL != "" {
			patch.LabelURL = &parcel.LabelURL
		}
		if shipment.TrackingCode == "" && parcel.TrackingCode != "" {
			patch.TrackingCode = &parcel.TrackingCode
		}
		if patch.LabelURL == nil && patch.TrackingCode == nil {
			continue
		}
		if err := w.shipments.Patch(ctx, shipment.ID, patch); err != nil {
			return nil, err
		}
		repaired++
		w.logger.Warn("repaired shipment from carrier record",
			zap.String("shipment_id", shipment.ID.String()),
			zap.String("parcel_id", parcel.ID),
			zap.String("tracking_code", parcel.TrackingCode),
		)
	}

	w.logger.Info("label reconciliation finished",
		zap.Time("since", since),
		zap.Int("parcels", len(parcels)),
		zap.Int("repaired", repaired),
	)
	return queue.EncodePayload(reconcileResult{Checked: len(parcels), Repaired: repaired})
}

// matchShipment resolves the local shipment for a carrier parcel: by
// tracking code first, then by the shipment id the label worker plants in
// the carrier-side order number.
func (w *LabelReconcileWorker) matchShipment(ctx context.Context, parcel integration.CreatedParcel) (*shipping.Shipment, error) {
	if parcel.TrackingCode != "" {
		shipment, err := w.shipments.FindByTrackingCode(ctx, parcel.TrackingCode)
		if err == nil {
			return shipment, nil
		}
		if err != shared.ErrNotFound {
			return nil, err
		}
	}

	shipmentID, err := uuid.Parse(parcel.OrderNumber)
	if err != nil {
		return nil, nil
	}
	shipment, err := w.shipments.FindByID(ctx, shipmentID)
	if err == nil {
		return shipment, nil
	}
	if err != shared.ErrNotFound {
		return nil, err
	}
	return nil, nil
}

type reconcileResult struct {
	Checked  int `json:"checked"`
	Repaired int `json:"repaired"`
}

var _ Worker = (*LabelReconcileWorker)(nil)
