package repository

import (
	"context"
	"errors"

	"github.com/sketchly/billing-service/internal/models"
)

// ErrNotFound is returned when no matching record exists.
var ErrNotFound = errors.New("record not found")

// SubscriptionRepository is the storage contract for the per-user
// subscription record.
type SubscriptionRepository interface {
	// Upsert inserts the record, replacing any existing row for the same
	// user. The zero-or-one-row-per-user invariant is enforced here.
	Upsert(ctx context.Context, sub *models.Subscription) error

	// GetByUserID returns the user's record, or ErrNotFound.
	GetByUserID(ctx context.Context, userID string) (*models.Subscription, error)

	// GetBySubscriptionID returns the record carrying the given gateway
	// subscription ID, or ErrNotFound.
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Subscription, error)

	// Update persists the mutable fields (status, current_period_end).
	Update(ctx context.Context, sub *models.Subscription) error

	// UpdateStatus sets the status for a gateway subscription ID. Updating
	// a row that does not exist is a no-op, not an error.
	UpdateStatus(ctx context.Context, subscriptionID, status string) error
}

// WebhookEventRepository tracks processed gateway deliveries so duplicate
// webhook deliveries can be acknowledged without reapplying transitions.
type WebhookEventRepository interface {
	// MarkProcessed records the event ID. Returns false when the event was
	// already recorded by an earlier delivery.
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}
