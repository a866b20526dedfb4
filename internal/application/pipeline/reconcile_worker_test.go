package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/santabrisa/backend/internal/domain/integration"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/shipping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReconcileLabelsRepairsLostWrite(t *testing.T) {
	carrier := new(MockSendcloudClient)
	shipments := new(MockShipmentRepository)
	worker := NewLabelReconcileWorker(carrier, shipments, zap.NewNop())

	// Label was created on the carrier side but the local write never
	// landed: the shipment has neither tracking code nor label URL.
	shipment := labelReadyShipment()

	carrier.On("FetchParcels", mock.Anything, mock.Anything).Return([]integration.CreatedParcel{{
		ID:           "8812",
		OrderNumber:  shipment.ID.String(),
		TrackingCode: "SC123456789NL",
		LabelURL:     "https://panel.sendcloud.sc/labels/8812.pdf",
	}}, nil)
	shipments.On("FindByTrackingCode", mock.Anything, "SC123456789NL").Return(nil, shared.ErrNotFound)
	shipments.On("FindByID", mock.Anything, shipment.ID).Return(shipment, nil)

	var patch shipping.ShipmentPatch
	shipments.On("Patch", mock.Anything, shipment.ID, mock.Anything).Run(func(args mock.Arguments) {
		patch = args.Get(2).(shipping.ShipmentPatch)
	}).Return(nil)

	result, err := worker.Execute(context.Background(),
		queue.NewJob(queue.JobKindReconcileLabels, mustPayload(queue.ReconcileLabelsPayload{})))
	require.NoError(t, err)

	require.NotNil(t, patch.TrackingCode)
	assert.Equal(t, "SC123456789NL", *patch.TrackingCode)
	require.NotNil(t, patch.LabelURL)
	assert.JSONEq(t, `{"checked":1,"repaired":1}`, string(result))
}

func TestReconcileLabelsLeavesConsistentShipmentsAlone(t *testing.T) {
	carrier := new(MockSendcloudClient)
	shipments := new(MockShipmentRepository)
	worker := NewLabelReconcileWorker(carrier, shipments, zap.NewNop())

	shipment := labelReadyShipment()
	shipment.TrackingCode = "SC123456789NL"
	shipment.LabelURL = "https://panel.sendcloud.sc/labels/8812.pdf"

	carrier.On("FetchParcels", mock.Anything, mock.Anything).Return([]integration.CreatedParcel{{
		ID:           "8812",
		OrderNumber:  shipment.ID.String(),
		TrackingCode: "SC123456789NL",
		LabelURL:     shipment.LabelURL,
	}}, nil)
	shipments.On("FindByTrackingCode", mock.Anything, "SC123456789NL").Return(shipment, nil)

	result, err := worker.Execute(context.Background(),
		queue.NewJob(queue.JobKindReconcileLabels, mustPayload(queue.ReconcileLabelsPayload{})))
	require.NoError(t, err)

	shipments.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything)
	assert.JSONEq(t, `{"checked":1,"repaired":0}`, string(result))
}

func TestReconcileLabelsSkipsForeignParcels(t *testing.T) {
	carrier := new(MockSendcloudClient)
	shipments := new(MockShipmentRepository)
	worker := NewLabelReconcileWorker(carrier, shipments, zap.NewNop())

	// Parcel created outside this system: order number is not a shipment id.
	carrier.On("FetchParcels", mock.Anything, mock.Anything).Return([]integration.CreatedParcel{{
		ID:           "9001",
		OrderNumber:  "amazon-417",
		TrackingCode: "SC999999999NL",
	}}, nil)
	shipments.On("FindByTrackingCode", mock.Anything, "SC999999999NL").Return(nil, shared.ErrNotFound)

	result, err := worker.Execute(context.Background(),
		queue.NewJob(queue.JobKindReconcileLabels, mustPayload(queue.ReconcileLabelsPayload{})))
	require.NoError(t, err)

	shipments.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything)
	assert.JSONEq(t, `{"checked":1,"repaired":0}`, string(result))
}

func TestReconcileLabelsHonorsSinceBound(t *testing.T) {
	carrier := new(MockSendcloudClient)
	shipments := new(MockShipmentRepository)
	worker := NewLabelReconcileWorker(carrier, shipments, zap.NewNop())

	since := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	var got time.Time
	carrier.On("FetchParcels", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(1).(time.Time)
	}).Return([]integration.CreatedParcel{}, nil)

	_, err := worker.Execute(context.Background(), queue.NewJob(queue.JobKindReconcileLabels,
		mustPayload(queue.ReconcileLabelsPayload{Since: since.Format(time.RFC3339)})))
	require.NoError(t, err)
	assert.True(t, got.Equal(since))
}

func TestReconcileLabelsRejectsBadTimestamp(t *testing.T) {
	worker := NewLabelReconcileWorker(new(MockSendcloudClient), new(MockShipmentRepository), zap.NewNop())

	_, err := worker.Execute(context.Background(), queue.NewJob(queue.JobKindReconcileLabels,
		mustPayload(queue.ReconcileLabelsPayload{Since: "ayer"})))
	assert.True(t, shared.IsTerminal(err))
}
