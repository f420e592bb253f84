package razorpay

import "encoding/json"

// Webhook event types handled by the reconciliation dispatcher. Any other
// event type is acknowledged and ignored.
const (
	EventSubscriptionCharged   = "subscription.charged"
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionCancelled = "subscription.cancelled"
)

// SignatureHeader carries the webhook body signature.
const SignatureHeader = "X-Razorpay-Signature"

// EventIDHeader carries the gateway's delivery ID, used for deduplication.
const EventIDHeader = "X-Razorpay-Event-Id"

// WebhookEvent is the envelope the gateway posts to the webhook endpoint.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Subscription struct {
			Entity SubscriptionEntity `json:"entity"`
		} `json:"subscription"`
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// SubscriptionEntity is the gateway's representation of a subscription.
type SubscriptionEntity struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
	CurrentEnd int64  `json:"current_end"` // Epoch seconds; 0 when absent
}

// PaymentEntity is the payment attached to a charge event.
type PaymentEntity struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// ParseWebhookEvent decodes a verified webhook body.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
