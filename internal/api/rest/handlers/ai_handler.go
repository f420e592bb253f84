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

// RemoveBackgroundRequest carries the image reference to process.
type RemoveBackgroundRequest struct {
	Image string `json:"image" validate:"required"`
}

// GenerateImageRequest carries the text prompt to render.
type GenerateImageRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// AIHandler exposes the subscription-gated AI proxy endpoints.
type AIHandler struct {
	service *service.AIService
	log     *logger.Logger
}

// NewAIHandler creates the handler.
func NewAIHandler(svc *service.AIService, log *logger.Logger) *AIHandler {
	return &AIHandler{service: svc, log: log}
}

// RemoveBackground proxies a background removal request.
func (h *AIHandler) RemoveBackground(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, h.log, domain.ErrUnauthenticated)
		return
	}

	body, err := req.HandleBody[RemoveBackgroundRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	data, err := h.service.RemoveBackground(c.Request.Context(), userID, body.Image)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, gin.H{"data": data}, http.StatusOK)
}

// GenerateImage proxies a text-to-image request.
func (h *AIHandler) GenerateImage(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, h.log, domain.ErrUnauthenticated)
		return
	}

	body, err := req.HandleBody[GenerateImageRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	data, err := h.service.GenerateImage(c.Request.Context(), userID, body.Prompt)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, gin.H{"data": data}, http.StatusOK)
}
