package res

import (
	"encoding/json"
	"net/http"

	"github.com/sketchly/billing-service/pkg/logger"
)

// ErrorResponse is the JSON envelope used for error replies.
type ErrorResponse struct {
	Error     string `json:"error"`                // Human-readable message
	ErrorCode int    `json:"error_code,omitempty"` // Code for programmatic handling
	Details   any    `json:"details,omitempty"`    // Validation details, when present
}

// JsonResponse writes a JSON body with the given status.
func JsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// JsonErrorResponse writes a JSON error body and logs it.
func JsonErrorResponse(w http.ResponseWriter, errResponse ErrorResponse, status int, log *logger.Logger) {
	JsonResponse(w, errResponse, status)
	log.Errorw("Request failed", "status", status, "error", errResponse.Error)
}
