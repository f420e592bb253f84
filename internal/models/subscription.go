package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is the single billing record kept per user. It is created
// only by the verified-checkout flow and afterwards mutated in place by
// gateway webhook events; it is never deleted.
type Subscription struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"user_id"`                               // Owning user; at most one row per user
	SubscriptionID   string     `db:"subscription_id" json:"subscription_id"`               // Gateway subscription ID, unique
	CustomerID       string     `db:"customer_id" json:"customer_id"`                       // Gateway customer ID, may be empty
	PriceID          string     `db:"price_id" json:"price_id"`                             // Gateway plan ID
	Status           string     `db:"status" json:"status"`                                 // Gateway status vocabulary (e.g. active, cancelled)
	CurrentPeriodEnd *time.Time `db:"current_period_end" json:"current_period_end,omitempty"` // End of the paid period
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}
