package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sketchly/billing-service/internal/domain"
	"github.com/sketchly/billing-service/internal/middleware"
	"github.com/sketchly/billing-service/internal/service"
	"github.com/sketchly/billing-service/pkg/logger"
	"github.com/sketchly/billing-service/pkg/req"
	"github.com/sketchly/billing-service/pkg/res"
)

// CheckoutRequest optionally carries the user's email for the gateway's
// subscription notes.
type CheckoutRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

// VerifyCheckoutRequest is the checkout callback payload produced by the
// gateway's frontend widget.
type VerifyCheckoutRequest struct {
	PaymentID      string `json:"razorpay_payment_id" validate:"required"`
	SubscriptionID string `json:"razorpay_subscription_id" validate:"required"`
	Signature      string `json:"razorpay_signature" validate:"required"`
}

// SubscriptionHandler exposes the billing endpoints.
type SubscriptionHandler struct {
	service *service.SubscriptionService
	log     *logger.Logger
}

// NewSubscriptionHandler creates the handler.
func NewSubscriptionHandler(svc *service.SubscriptionService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{service: svc, log: log}
}

// Checkout creates a gateway subscription and returns the checkout session.
func (h *SubscriptionHandler) Checkout(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, h.log, domain.ErrUnauthenticated)
		return
	}

	// Body is optional; absence of an email is fine.
	var body CheckoutRequest
	_ = c.ShouldBindJSON(&body)

	session, err := h.service.Checkout(c.Request.Context(), userID, body.Email)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, session, http.StatusOK)
}

// VerifyCheckout validates the checkout signature and persists the record.
func (h *SubscriptionHandler) VerifyCheckout(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, h.log, domain.ErrUnauthenticated)
		return
	}

	body, err := req.HandleBody[VerifyCheckoutRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	if _, err := h.service.VerifyCheckout(c.Request.Context(), userID, body.PaymentID, body.SubscriptionID, body.Signature); err != nil {
		respondError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, gin.H{"success": true}, http.StatusOK)
}

// Current returns the caller's record plus the evaluated active flag.
func (h *SubscriptionHandler) Current(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, h.log, domain.ErrUnauthenticated)
		return
	}

	current, err := h.service.Current(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, current, http.StatusOK)
}

// BillingPortal returns the billing-management page URL for subscribers.
func (h *SubscriptionHandler) BillingPortal(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, h.log, domain.ErrUnauthenticated)
		return
	}

	url, err := h.service.BillingPortalURL(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, gin.H{"url": url}, http.StatusOK)
}
