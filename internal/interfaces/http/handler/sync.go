package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/santabrisa/backend/internal/application/pipeline"
	"github.com/santabrisa/backend/internal/domain/queue"
)

// syncTargets maps API sync target names to job kinds.
var syncTargets = map[string]queue.JobKind{
	"contacts":  queue.JobKindSyncContacts,
	"purchases": queue.JobKindSyncPurchases,
	"products":  queue.JobKindSyncProducts,
}

// SyncHandler triggers the pull-based platform syncs on demand. The same
// jobs also run on the daily schedule; this endpoint exists for manual
// kicks after fixing data on the platform side.
type SyncHandler struct {
	BaseHandler
	enqueuer *pipeline.Enqueuer
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(enqueuer *pipeline.Enqueuer) *SyncHandler {
	return &SyncHandler{enqueuer: enqueuer}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/:target", h.Trigger)
	}
	reconcile := rg.Group("/reconcile")
	{
		reconcile.POST("/labels", h.ReconcileLabels)
	}
	backfill := rg.Group("/backfill")
	{
		backfill.POST("/orders", h.BackfillOrders)
	}
}

// Trigger enqueues the first page of a platform sync.
func (h *SyncHandler) Trigger(c *gin.Context) {
	target := c.Param("target")
	kind, ok := syncTargets[target]
	if !ok {
		h.BadRequest(c, "Unknown sync target: "+target)
		return
	}

	job, err := h.enqueuer.Enqueue(c.Request.Context(), kind,
		queue.SyncPagePayload{Page: 1},
		queue.WithCorrelationID("sync:"+target),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, toJobResponse(job))
}

// BackfillOrdersRequest bounds a manual order backfill run
type BackfillOrdersRequest struct {
	Since string `json:"since" binding:"omitempty,rfc3339"`
}

// BackfillOrders enqueues an order backfill against the e-commerce
// platform, replaying anything missed while the webhook endpoint was down.
func (h *SyncHandler) BackfillOrders(c *gin.Context) {
	var req BackfillOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BindError(c, err)
		return
	}

	job, err := h.enqueuer.Enqueue(c.Request.Context(), queue.JobKindBackfillOrders,
		queue.BackfillOrdersPayload{Since: req.Since},
		queue.WithCorrelationID("backfill:orders"),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, toJobResponse(job))
}

// ReconcileLabelsRequest bounds a manual reconciliation run
type ReconcileLabelsRequest struct {
	Since string `json:"since" binding:"omitempty,rfc3339"`
}

// ReconcileLabels enqueues a carrier-side reconciliation run.
func (h *SyncHandler) ReconcileLabels(c *gin.Context) {
	var req ReconcileLabelsRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BindError(c, err)
		return
	}

	job, err := h.enqueuer.Enqueue(c.Request.Context(), queue.JobKindReconcileLabels,
		queue.ReconcileLabelsPayload{Since: req.Since},
		queue.WithCorrelationID("reconcile:labels"),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, toJobResponse(job))
}
