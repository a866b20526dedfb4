package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/santabrisa/backend/internal/application/pipeline"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/shipping"
	"github.com/santabrisa/backend/internal/infrastructure/persistence"
)

// memShipments is a map-backed shipment repository for handler tests.
type memShipments struct {
	byID map[uuid.UUID]*shipping.Shipment
}

func newMemShipments(shipments ...*shipping.Shipment) *memShipments {
	m := &memShipments{byID: make(map[uuid.UUID]*shipping.Shipment)}
	for _, s := range shipments {
		m.byID[s.ID] = s
	}
	return m
}

func (m *memShipments) Save(ctx context.Context, s *shipping.Shipment) error {
	m.byID[s.ID] = s
	return nil
}

func (m *memShipments) Patch(ctx context.Context, id uuid.UUID, patch shipping.ShipmentPatch) error {
	return nil
}

func (m *memShipments) UpdateLines(ctx context.Context, s *shipping.Shipment) error {
	return nil
}

func (m *memShipments) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Shipment, error) {
	if s, ok := m.byID[id]; ok {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memShipments) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*shipping.Shipment, error) {
	for _, s := range m.byID {
		if s.OrderID == orderID {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memShipments) FindByTrackingCode(ctx context.Context, code string) (*shipping.Shipment, error) {
	for _, s := range m.byID {
		if s.TrackingCode == code {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func newShipmentTestRouter(t *testing.T, shipments ...*shipping.Shipment) (*gin.Engine, *persistence.InMemoryJobRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jobs := persistence.NewInMemoryJobRepository()
	engine := gin.New()
	api := engine.Group("/api/v1")
	NewShipmentHandler(pipeline.NewEnqueuer(jobs, zap.NewNop()), newMemShipments(shipments...)).RegisterRoutes(api)
	return engine, jobs
}

func claimOne(t *testing.T, jobs *persistence.InMemoryJobRepository) *queue.Job {
	t.Helper()
	claimed, err := jobs.ClaimDue(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	return claimed[0]
}

func TestValidateShipmentEnqueuesJob(t *testing.T) {
	shipment := shipping.NewShipment(uuid.New(), uuid.New(), shipping.ModeParcel)
	shipment.Lines = []shipping.ShipmentLine{{SKU: "SB-750", Qty: decimal.NewFromInt(6), UOM: "ud"}}
	engine, jobs := newShipmentTestRouter(t, shipment)

	body := []byte(`{
		"visual_ok": true,
		"carrier": "dpd",
		"weight_kg": 7.2,
		"dims_cm": "40x30x25",
		"lot_map": {"SB-750": {"L2026-014": 6}}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/"+shipment.ID.String()+"/validate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	job := claimOne(t, jobs)
	assert.Equal(t, queue.JobKindValidateShipment, job.Kind)

	var payload queue.ValidateShipmentPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, shipment.ID.String(), payload.ShipmentID)
	assert.True(t, payload.VisualOK)
	assert.Equal(t, "dpd", payload.Carrier)
	assert.Equal(t, 6.0, payload.LotMap["SB-750"]["L2026-014"])
}

func TestShipmentLifecycleEndpointsEnqueue(t *testing.T) {
	cases := []struct {
		path string
		kind queue.JobKind
	}{
		{"delivery-note", queue.JobKindCreateDeliveryNote},
		{"label", queue.JobKindCreateCarrierLabel},
		{"ship", queue.JobKindMarkShipped},
	}
	for _, tc := range cases {
		shipment := shipping.NewShipment(uuid.New(), uuid.New(), shipping.ModeParcel)
		engine, jobs := newShipmentTestRouter(t, shipment)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/"+shipment.ID.String()+"/"+tc.path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code, tc.path)
		assert.Equal(t, tc.kind, claimOne(t, jobs).Kind, tc.path)
	}
}

func TestShipmentEndpointsRejectUnknownShipment(t *testing.T) {
	engine, jobs := newShipmentTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/"+uuid.NewString()+"/ship", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	claimed, err := jobs.ClaimDue(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestShipmentEndpointsRejectBadID(t *testing.T) {
	engine, _ := newShipmentTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/not-a-uuid/ship", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateShipmentFromOrderEnqueues(t *testing.T) {
	engine, jobs := newShipmentTestRouter(t)
	orderID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/shipment", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	job := claimOne(t, jobs)
	assert.Equal(t, queue.JobKindCreateShipmentFromOrder, job.Kind)
	assert.Equal(t, "order:"+orderID.String(), job.CorrelationID)
}

func TestGetShipmentReturnsLines(t *testing.T) {
	shipment := shipping.NewShipment(uuid.New(), uuid.New(), shipping.ModePallet)
	shipment.Lines = []shipping.ShipmentLine{{SKU: "SB-750", Name: "Santa Brisa 750ml", Qty: decimal.NewFromInt(120), UOM: "ud"}}
	engine, _ := newShipmentTestRouter(t, shipment)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments/"+shipment.ID.String(), nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"PALLET"`)
	assert.Contains(t, w.Body.String(), `"sku":"SB-750"`)
}
