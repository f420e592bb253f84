package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sketchly/billing-service/internal/domain"
	"github.com/sketchly/billing-service/pkg/logger"
	"github.com/sketchly/billing-service/pkg/res"
)

// respondError maps application errors onto HTTP statuses. The mapping is
// shared by every handler so a given failure always looks the same on the
// wire.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var status int
	var message string

	var extErr *domain.ExternalServiceError

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrSubscriptionRequired):
		status, message = http.StatusForbidden, "Active subscription required"
	case errors.Is(err, domain.ErrInvalidSignature):
		status, message = http.StatusBadRequest, "Invalid signature"
	case errors.Is(err, domain.ErrNotConfigured):
		status, message = http.StatusServiceUnavailable, "Service not configured"
	case errors.Is(err, domain.ErrInvalidInput):
		status, message = http.StatusBadRequest, "Invalid request body"
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	case errors.As(err, &extErr):
		status, message = http.StatusInternalServerError, "Upstream service error"
	default:
		status, message = http.StatusInternalServerError, "Internal server error"
	}

	if status >= http.StatusInternalServerError {
		log.Errorw("Request failed", "status", status, "error", err)
	} else {
		log.Debugw("Request rejected", "status", status, "error", err)
	}
	res.JsonResponse(c.Writer, res.ErrorResponse{Error: message}, status)
}
