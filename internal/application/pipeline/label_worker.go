package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/integration"
	"github.com/santabrisa/backend/internal/domain/partner"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/shipping"
	"go.uber.org/zap"
)

// CarrierLabelWorker requests a parcel and shipping label from the carrier
// platform and stores the resulting label URL and tracking code.
type CarrierLabelWorker struct {
	shipments shipping.ShipmentRepository
	accounts  partner.AccountRepository
	carrier   integration.SendcloudClient
	logger    *zap.Logger
}

// NewCarrierLabelWorker creates a new worker.
func NewCarrierLabelWorker(
	shipments shipping.ShipmentRepository,
	accounts partner.AccountRepository,
	carrier integration.SendcloudClient,
	logger *zap.Logger,
) *CarrierLabelWorker {
	return &CarrierLabelWorker{
		shipments: shipments,
		accounts:  accounts,
		carrier:   carrier,
		logger:    logger,
	}
}

// Kind returns the job kind this worker executes.
func (w *CarrierLabelWorker) Kind() queue.JobKind {
	return queue.JobKindCreateCarrierLabel
}

// Execute creates the carrier label. The delivery note and the carrier,
// weight and dimensions must be set first; missing any of them is an
// ordering bug upstream. A shipment that already has its label is a no-op,
// which keeps the worker safe under redelivery and stale reclaim.
func (w *CarrierLabelWorker) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
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

	if shipment.LabelURL != "" {
		return nil, nil
	}
	if !shipment.CanCreateLabel() {
		return nil, shared.Terminalf(
			"shipment %s is missing label preconditions: delivery note %q, carrier %q, weight %.2f, dims %q",
			shipmentID, shipment.DeliveryNoteNumber, shipment.Carrier, shipment.WeightKg, shipment.DimsCm,
		)
	}

	account, err := w.accounts.FindByID(ctx, shipment.AccountID)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.Terminalf("account %s for shipment %s not found", shipment.AccountID, shipmentID)
		}
		return nil, err
	}

	parcel, err := w.carrier.CreateParcel(ctx, integration.ParcelSpec{
		// The shipment id rides along as the carrier-side order number so
		// the reconciliation job can match parcels back to shipments.
		OrderNumber: shipment.ID.String(),
		Name:        account.Name,
		Address:     account.ShippingAddress,
		Country:     "ES",
		Carrier:     shipment.Carrier,
		WeightKg:    shipment.WeightKg,
		DimsCm:      shipment.DimsCm,
	})
	if err != nil {
		return nil, err
	}

	patch := shipping.ShipmentPatch{}
	if parcel.LabelURL != "" {
		patch.LabelURL = &parcel.LabelURL
	}
	if parcel.TrackingCode != "" {
		patch.TrackingCode = &parcel.TrackingCode
	}
	if err := w.shipments.Patch(ctx, shipmentID, patch); err != nil {
		return nil, err
	}

	w.logger.Info("carrier label created",
		zap.String("shipment_id", shipmentID.String()),
		zap.String("parcel_id", parcel.ID),
		zap.String("tracking_code", parcel.TrackingCode),
		zap.String("carrier", shipment.Carrier),
	)
	return queue.EncodePayload(carrierLabelResult{
		ParcelID:     parcel.ID,
		TrackingCode: parcel.TrackingCode,
		LabelURL:     parcel.LabelURL,
	})
}

type carrierLabelResult struct {
	ParcelID     string `json:"parcelId"`
	TrackingCode string `json:"trackingCode"`
	LabelURL     string `json:"labelUrl"`
}

var _ Worker = (*CarrierLabelWorker)(nil)
