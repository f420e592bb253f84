package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrNotFound no matching record
	ErrNotFound = errors.New("record not found")

	// ErrUnauthenticated missing or invalid caller identity
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrSubscriptionRequired caller has no active entitlement
	ErrSubscriptionRequired = errors.New("active subscription required")

	// ErrInvalidSignature HMAC verification failed
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrNotConfigured a required external integration is disabled
	ErrNotConfigured = errors.New("integration not configured")

	// ErrInvalidInput malformed request data
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal internal error
	ErrInternal = errors.New("internal error")
)

// ExternalServiceError wraps a failure reported by an external provider.
type ExternalServiceError struct {
	Service     string
	Message     string
	StatusCode  int
	OriginalErr error
}

// Error implements the error interface
func (e *ExternalServiceError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s service error: %s: %v", e.Service, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("%s service error: %s", e.Service, e.Message)
}

// Unwrap returns the original error
func (e *ExternalServiceError) Unwrap() error {
	return e.OriginalErr
}

// NewExternalServiceError creates a new external service error
func NewExternalServiceError(service, message string, statusCode int, err error) *ExternalServiceError {
	return &ExternalServiceError{
		Service:     service,
		Message:     message,
		StatusCode:  statusCode,
		OriginalErr: err,
	}
}
