package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sketchly/billing-service/internal/domain"
	"github.com/sketchly/billing-service/internal/integration/razorpay"
	"github.com/sketchly/billing-service/internal/service"
	"github.com/sketchly/billing-service/pkg/logger"
	"github.com/sketchly/billing-service/pkg/res"
)

// Webhook bodies larger than this are rejected before reading further.
const maxWebhookBodyBytes = 1 << 20

// WebhookHandler receives gateway callback deliveries. The endpoint is
// unauthenticated; the body signature is the only credential.
type WebhookHandler struct {
	service *service.SubscriptionService
	log     *logger.Logger
}

// NewWebhookHandler creates the handler.
func NewWebhookHandler(svc *service.SubscriptionService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{service: svc, log: log}
}

// Handle verifies the delivery signature over the raw body, then applies
// the event. Internal processing failures still return 200 so the gateway
// does not retry a delivery we have already recorded.
func (h *WebhookHandler) Handle(c *gin.Context) {
	if !h.service.GatewayConfigured() {
		respondError(c, h.log, domain.ErrNotConfigured)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.log.Warnw("Failed to read webhook body", "error", err)
		respondError(c, h.log, domain.ErrInvalidInput)
		return
	}

	signature := c.GetHeader(razorpay.SignatureHeader)
	if !razorpay.VerifySignature(body, signature, h.service.WebhookSecret()) {
		h.log.Warnw("Webhook signature verification failed")
		respondError(c, h.log, domain.ErrInvalidSignature)
		return
	}

	eventID := c.GetHeader(razorpay.EventIDHeader)
	if err := h.service.HandleWebhookEvent(c.Request.Context(), eventID, body); err != nil {
		h.log.Errorw("Webhook processing failed", "error", err, "eventID", eventID)
	}
	res.JsonResponse(c.Writer, gin.H{"received": true}, http.StatusOK)
}
