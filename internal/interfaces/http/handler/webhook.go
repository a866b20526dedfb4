package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/santabrisa/backend/internal/application/intake"
)

// Webhook signature and metadata headers per platform.
const (
	headerShopifyHmac    = "X-Shopify-Hmac-Sha256"
	headerShopifyTopic   = "X-Shopify-Topic"
	headerShopifyEventID = "X-Shopify-Webhook-Id"
	headerShopifyShop    = "X-Shopify-Shop-Domain"

	headerSendcloudSignature = "Sendcloud-Signature"
)

// WebhookHandler receives inbound platform webhooks and hands them to the
// intake service. The raw request body is passed through untouched; the
// signature is computed over the exact transmitted bytes.
type WebhookHandler struct {
	BaseHandler
	intake *intake.Service
	logger *zap.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(intakeService *intake.Service, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		intake: intakeService,
		logger: logger,
	}
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/shopify", h.Shopify)
		webhooks.POST("/sendcloud", h.Sendcloud)
	}
}

// Shopify handles an e-commerce order webhook delivery.
func (h *WebhookHandler) Shopify(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Unable to read request body")
		return
	}

	outcome, err := h.intake.ProcessShopify(c.Request.Context(), intake.Delivery{
		EventID:   c.GetHeader(headerShopifyEventID),
		Topic:     c.GetHeader(headerShopifyTopic),
		Shop:      c.GetHeader(headerShopifyShop),
		Signature: c.GetHeader(headerShopifyHmac),
		RawBody:   body,
	})
	h.respond(c, outcome, err)
}

// Sendcloud handles a carrier parcel-status webhook delivery.
func (h *WebhookHandler) Sendcloud(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Unable to read request body")
		return
	}

	outcome, err := h.intake.ProcessSendcloud(c.Request.Context(), intake.Delivery{
		Topic:     "parcel_status_changed",
		Signature: c.GetHeader(headerSendcloudSignature),
		RawBody:   body,
	})
	h.respond(c, outcome, err)
}

// respond maps an intake outcome to a response. Everything except a
// rejected signature or a server-side failure answers 200: the platform
// must stop redelivering what has been durably recorded.
func (h *WebhookHandler) respond(c *gin.Context, outcome intake.Outcome, err error) {
	if err != nil {
		h.logger.Error("webhook processing failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		h.InternalError(c, "Webhook processing failed")
		return
	}
	if outcome == intake.OutcomeRejected {
		h.Unauthorized(c, "Webhook signature verification failed")
		return
	}
	h.Success(c, gin.H{"outcome": string(outcome)})
}
