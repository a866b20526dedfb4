package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/santabrisa/backend/internal/application/pipeline"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shipping"
)

// ShipmentHandler exposes the warehouse-facing shipment operations. Every
// POST enqueues a job and answers 202; the workers do the actual writes.
type ShipmentHandler struct {
	BaseHandler
	enqueuer  *pipeline.Enqueuer
	shipments shipping.ShipmentRepository
}

// NewShipmentHandler creates a new shipment handler
func NewShipmentHandler(enqueuer *pipeline.Enqueuer, shipments shipping.ShipmentRepository) *ShipmentHandler {
	return &ShipmentHandler{
		enqueuer:  enqueuer,
		shipments: shipments,
	}
}

// RegisterRoutes registers shipment routes
func (h *ShipmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("/:id/shipment", h.CreateFromOrder)
	}
	shipments := rg.Group("/shipments")
	{
		shipments.GET("/:id", h.Get)
		shipments.POST("/:id/validate", h.Validate)
		shipments.POST("/:id/delivery-note", h.CreateDeliveryNote)
		shipments.POST("/:id/label", h.CreateLabel)
		shipments.POST("/:id/ship", h.MarkShipped)
	}
}

// CreateFromOrder enqueues shipment creation for a confirmed manual order.
func (h *ShipmentHandler) CreateFromOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	job, err := h.enqueuer.Enqueue(c.Request.Context(), queue.JobKindCreateShipmentFromOrder,
		queue.CreateShipmentPayload{OrderID: id.String()},
		queue.WithCorrelationID("order:"+id.String()),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, toJobResponse(job))
}

// Get retrieves a shipment with its lines.
func (h *ShipmentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid shipment ID")
		return
	}

	shipment, err := h.shipments.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toShipmentResponse(shipment))
}

// ValidateShipmentRequest carries the warehouse validation input
type ValidateShipmentRequest struct {
	VisualOK bool                          `json:"visual_ok"`
	Carrier  string                        `json:"carrier"`
	WeightKg float64                       `json:"weight_kg" binding:"omitempty,gt=0"`
	DimsCm   string                        `json:"dims_cm"`
	LotMap   map[string]map[string]float64 `json:"lot_map"`
}

// Validate enqueues the warehouse validation of a shipment.
func (h *ShipmentHandler) Validate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid shipment ID")
		return
	}

	var req ValidateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	job, err := h.enqueueForShipment(c, id, queue.JobKindValidateShipment, queue.ValidateShipmentPayload{
		ShipmentID: id.String(),
		VisualOK:   req.VisualOK,
		Carrier:    req.Carrier,
		WeightKg:   req.WeightKg,
		DimsCm:     req.DimsCm,
		LotMap:     req.LotMap,
	})
	if err != nil {
		return
	}
	h.Accepted(c, toJobResponse(job))
}

// CreateDeliveryNote enqueues delivery-note generation for a shipment.
func (h *ShipmentHandler) CreateDeliveryNote(c *gin.Context) {
	h.enqueueRef(c, queue.JobKindCreateDeliveryNote)
}

// CreateLabel enqueues carrier-label creation for a shipment.
func (h *ShipmentHandler) CreateLabel(c *gin.Context) {
	h.enqueueRef(c, queue.JobKindCreateCarrierLabel)
}

// MarkShipped enqueues the shipped transition for a shipment.
func (h *ShipmentHandler) MarkShipped(c *gin.Context) {
	h.enqueueRef(c, queue.JobKindMarkShipped)
}

func (h *ShipmentHandler) enqueueRef(c *gin.Context, kind queue.JobKind) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid shipment ID")
		return
	}

	job, err := h.enqueueForShipment(c, id, kind, queue.ShipmentRefPayload{ShipmentID: id.String()})
	if err != nil {
		return
	}
	h.Accepted(c, toJobResponse(job))
}

// enqueueForShipment checks the shipment exists and enqueues the job. An
// unknown id gets a 404 now rather than a dead-lettered job later.
func (h *ShipmentHandler) enqueueForShipment(c *gin.Context, id uuid.UUID, kind queue.JobKind, payload any) (*queue.Job, error) {
	if _, err := h.shipments.FindByID(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return nil, err
	}

	job, err := h.enqueuer.Enqueue(c.Request.Context(), kind, payload,
		queue.WithCorrelationID("shipment:"+id.String()),
	)
	if err != nil {
		h.HandleError(c, err)
		return nil, err
	}
	return job, nil
}

// ShipmentLineResponse represents one shipment line
type ShipmentLineResponse struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Qty       string `json:"qty"`
	UOM       string `json:"uom"`
	LotNumber string `json:"lot_number,omitempty"`
}

// ShipmentResponse represents a shipment
type ShipmentResponse struct {
	ID                 string                 `json:"id"`
	OrderID            string                 `json:"order_id"`
	Mode               string                 `json:"mode"`
	Status             string                 `json:"status"`
	VisualOK           bool                   `json:"visual_ok"`
	Carrier            string                 `json:"carrier,omitempty"`
	WeightKg           float64                `json:"weight_kg,omitempty"`
	DimsCm             string                 `json:"dims_cm,omitempty"`
	TrackingCode       string                 `json:"tracking_code,omitempty"`
	LabelURL           string                 `json:"label_url,omitempty"`
	DeliveryNoteNumber string                 `json:"delivery_note_number,omitempty"`
	InvoiceNumber      string                 `json:"invoice_number,omitempty"`
	Lines              []ShipmentLineResponse `json:"lines"`
}

func toShipmentResponse(s *shipping.Shipment) ShipmentResponse {
	resp := ShipmentResponse{
		ID:                 s.ID.String(),
		OrderID:            s.OrderID.String(),
		Mode:               string(s.Mode),
		Status:             s.Status.String(),
		VisualOK:           s.VisualOK,
		Carrier:            s.Carrier,
		WeightKg:           s.WeightKg,
		DimsCm:             s.DimsCm,
		TrackingCode:       s.TrackingCode,
		LabelURL:           s.LabelURL,
		DeliveryNoteNumber: s.DeliveryNoteNumber,
		InvoiceNumber:      s.InvoiceNumber,
		Lines:              make([]ShipmentLineResponse, 0, len(s.Lines)),
	}
	for _, l := range s.Lines {
		resp.Lines = append(resp.Lines, ShipmentLineResponse{
			SKU:       l.SKU,
			Name:      l.Name,
			Qty:       l.Qty.String(),
			UOM:       l.UOM,
			LotNumber: l.LotNumber,
		})
	}
	return resp
}
