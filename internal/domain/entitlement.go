package domain

import (
	"time"

	"github.com/sketchly/billing-service/internal/models"
)

// Subscription status tokens mirrored from the payment gateway vocabulary.
// Only the two that drive entitlement decisions are named here; other
// gateway statuses are stored verbatim.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
)

// IsActive reports whether a subscription grants entitlement at the given
// instant. A nil record never grants access. There is no grace window:
// the paid period must not have elapsed.
//
// Every gate in the system (billing portal, AI proxies, /current) must go
// through this predicate.
func IsActive(sub *models.Subscription, now time.Time) bool {
	if sub == nil {
		return false
	}
	if sub.Status != SubscriptionStatusActive {
		return false
	}
	if sub.CurrentPeriodEnd == nil {
		return false
	}
	return sub.CurrentPeriodEnd.After(now)
}
