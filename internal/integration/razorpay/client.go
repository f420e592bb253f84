package razorpay

import (
	"context"

	razorpaygo "github.com/razorpay/razorpay-go"

	"github.com/sketchly/billing-service/internal/domain"
	"github.com/sketchly/billing-service/pkg/logger"
)

// Plan is the billing plan a checkout subscribes to.
type Plan struct {
	ID       string
	Amount   int64 // Smallest currency unit
	Currency string
}

// Client defines the gateway operations the service layer needs.
type Client interface {
	// FetchPlan returns the configured billing plan.
	FetchPlan(ctx context.Context, planID string) (*Plan, error)

	// CreateSubscription creates a gateway-side subscription for the plan,
	// tagged with the user's identity in the subscription notes.
	CreateSubscription(ctx context.Context, planID, userID, email string) (*SubscriptionEntity, error)

	// FetchSubscription returns the gateway's view of a subscription.
	FetchSubscription(ctx context.Context, subscriptionID string) (*SubscriptionEntity, error)
}

// Billing cycles requested per subscription: one year of monthly charges.
const subscriptionTotalCount = 12

// client wraps the Razorpay SDK. The SDK does not accept a context; the
// ctx parameter keeps the interface stable for callers and fakes.
type client struct {
	api *razorpaygo.Client
	log *logger.Logger
}

// NewClient creates a gateway client from API credentials.
func NewClient(keyID, keySecret string, log *logger.Logger) Client {
	return &client{
		api: razorpaygo.NewClient(keyID, keySecret),
		log: log,
	}
}

// FetchPlan fetches the billing plan by ID.
func (c *client) FetchPlan(_ context.Context, planID string) (*Plan, error) {
	body, err := c.api.Plan.Fetch(planID, nil, nil)
	if err != nil {
		c.log.Errorw("Failed to fetch plan from gateway", "error", err, "planID", planID)
		return nil, domain.NewExternalServiceError("razorpay", "failed to fetch plan", 0, err)
	}

	plan := &Plan{ID: stringField(body, "id")}
	if item, ok := body["item"].(map[string]interface{}); ok {
		plan.Amount = intField(item, "amount")
		plan.Currency = stringField(item, "currency")
	}

	c.log.Debugw("Fetched gateway plan", "planID", plan.ID, "amount", plan.Amount, "currency", plan.Currency)
	return plan, nil
}

// CreateSubscription creates a subscription on the gateway.
func (c *client) CreateSubscription(_ context.Context, planID, userID, email string) (*SubscriptionEntity, error) {
	data := map[string]interface{}{
		"plan_id":         planID,
		"customer_notify": 1,
		"total_count":     subscriptionTotalCount,
		"notes": map[string]interface{}{
			"user_id": userID,
			"email":   email,
		},
	}

	body, err := c.api.Subscription.Create(data, nil)
	if err != nil {
		c.log.Errorw("Failed to create gateway subscription", "error", err, "planID", planID, "userID", userID)
		return nil, domain.NewExternalServiceError("razorpay", "failed to create subscription", 0, err)
	}

	sub := entityFromMap(body)
	c.log.Infow("Gateway subscription created", "subscriptionID", sub.ID, "planID", sub.PlanID, "userID", userID)
	return sub, nil
}

// FetchSubscription fetches a subscription by gateway ID.
func (c *client) FetchSubscription(_ context.Context, subscriptionID string) (*SubscriptionEntity, error) {
	body, err := c.api.Subscription.Fetch(subscriptionID, nil, nil)
	if err != nil {
		c.log.Errorw("Failed to fetch gateway subscription", "error", err, "subscriptionID", subscriptionID)
		return nil, domain.NewExternalServiceError("razorpay", "failed to fetch subscription", 0, err)
	}

	sub := entityFromMap(body)
	c.log.Debugw("Fetched gateway subscription", "subscriptionID", sub.ID, "status", sub.Status)
	return sub, nil
}

// entityFromMap converts the SDK's generic response into a typed entity.
func entityFromMap(body map[string]interface{}) *SubscriptionEntity {
	return &SubscriptionEntity{
		ID:         stringField(body, "id"),
		PlanID:     stringField(body, "plan_id"),
		CustomerID: stringField(body, "customer_id"),
		Status:     stringField(body, "status"),
		CurrentEnd: intField(body, "current_end"),
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// intField tolerates the JSON float64 decoding of numeric fields.
func intField(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
