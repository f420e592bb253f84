package service

import (
	"context"
	"errors"
	"time"

	"github.com/sketchly/billing-service/internal/domain"
	"github.com/sketchly/billing-service/internal/integration/razorpay"
	"github.com/sketchly/billing-service/internal/kafka"
	"github.com/sketchly/billing-service/internal/metrics"
	"github.com/sketchly/billing-service/internal/models"
	"github.com/sketchly/billing-service/internal/repository"
	"github.com/sketchly/billing-service/pkg/logger"
)

// CheckoutSession holds everything the frontend needs to open the gateway's
// checkout widget.
type CheckoutSession struct {
	SubscriptionID string `json:"subscriptionId"`
	PlanID         string `json:"planId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"keyId"`
}

// CurrentSubscription is the user's record plus the evaluated entitlement.
type CurrentSubscription struct {
	Subscription *models.Subscription `json:"subscription"`
	Active       bool                 `json:"active"`
}

// SubscriptionServiceDeps bundles the collaborators of SubscriptionService.
type SubscriptionServiceDeps struct {
	Gateway       razorpay.Client // nil when billing is not configured
	Repo          repository.SubscriptionRepository
	Events        repository.WebhookEventRepository
	Producer      kafka.Producer // nil disables event publishing
	Metrics       metrics.BillingMetrics
	KeyID         string
	PlanID        string
	KeySecret     string
	WebhookSecret string
	PublicURL     string
	Log           *logger.Logger
}

// SubscriptionService owns checkout, entitlement lookups and webhook
// reconciliation.
type SubscriptionService struct {
	gateway       razorpay.Client
	repo          repository.SubscriptionRepository
	events        repository.WebhookEventRepository
	producer      kafka.Producer
	metrics       metrics.BillingMetrics
	keyID         string
	planID        string
	keySecret     string
	webhookSecret string
	publicURL     string
	log           *logger.Logger
	now           func() time.Time
}

// NewSubscriptionService creates the service.
func NewSubscriptionService(deps SubscriptionServiceDeps) *SubscriptionService {
	return &SubscriptionService{
		gateway:       deps.Gateway,
		repo:          deps.Repo,
		events:        deps.Events,
		producer:      deps.Producer,
		metrics:       deps.Metrics,
		keyID:         deps.KeyID,
		planID:        deps.PlanID,
		keySecret:     deps.KeySecret,
		webhookSecret: deps.WebhookSecret,
		publicURL:     deps.PublicURL,
		log:           deps.Log,
		now:           time.Now,
	}
}

// GatewayConfigured reports whether billing credentials are present.
func (s *SubscriptionService) GatewayConfigured() bool {
	return s.gateway != nil
}

// WebhookSecret returns the shared secret webhook bodies are signed with.
func (s *SubscriptionService) WebhookSecret() string {
	return s.webhookSecret
}

// Checkout creates a gateway subscription for the configured plan and
// returns the checkout session data for the frontend widget.
func (s *SubscriptionService) Checkout(ctx context.Context, userID, email string) (*CheckoutSession, error) {
	if s.gateway == nil {
		return nil, domain.ErrNotConfigured
	}

	plan, err := s.gateway.FetchPlan(ctx, s.planID)
	if err != nil {
		return nil, err
	}

	sub, err := s.gateway.CreateSubscription(ctx, s.planID, userID, email)
	if err != nil {
		return nil, err
	}

	s.log.Infow("Checkout session created", "userID", userID, "subscriptionID", sub.ID)
	return &CheckoutSession{
		SubscriptionID: sub.ID,
		PlanID:         plan.ID,
		Amount:         plan.Amount,
		Currency:       plan.Currency,
		KeyID:          s.keyID,
	}, nil
}

// VerifyCheckout validates the checkout callback signature, fetches the
// authoritative subscription state from the gateway and persists the user's
// record. A bad signature leaves the store untouched.
func (s *SubscriptionService) VerifyCheckout(ctx context.Context, userID, paymentID, subscriptionID, signature string) (*models.Subscription, error) {
	if s.gateway == nil {
		return nil, domain.ErrNotConfigured
	}

	message := razorpay.CheckoutMessage(paymentID, subscriptionID)
	if !razorpay.VerifySignature(message, signature, s.keySecret) {
		s.log.Warnw("Checkout signature verification failed", "userID", userID, "subscriptionID", subscriptionID)
		return nil, domain.ErrInvalidSignature
	}

	entity, err := s.gateway.FetchSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		UserID:           userID,
		SubscriptionID:   entity.ID,
		CustomerID:       entity.CustomerID,
		PriceID:          entity.PlanID,
		Status:           entity.Status,
		CurrentPeriodEnd: periodEndFromEpoch(entity.CurrentEnd),
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		s.log.Errorw("Failed to persist verified subscription", "error", err, "userID", userID, "subscriptionID", subscriptionID)
		return nil, err
	}

	s.publishEvent(ctx, kafka.TopicSubscriptionCreated, sub)
	s.log.Infow("Checkout verified", "userID", userID, "subscriptionID", subscriptionID, "status", sub.Status)
	return sub, nil
}

// Current returns the user's subscription record with the entitlement flag.
// When billing is not configured the whole product runs unmetered, so the
// flag is forced to true.
func (s *SubscriptionService) Current(ctx context.Context, userID string) (*CurrentSubscription, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if s.gateway == nil {
		return &CurrentSubscription{Subscription: sub, Active: true}, nil
	}
	return &CurrentSubscription{Subscription: sub, Active: domain.IsActive(sub, s.now())}, nil
}

// BillingPortalURL returns the billing management page for subscribed users.
func (s *SubscriptionService) BillingPortalURL(ctx context.Context, userID string) (string, error) {
	if _, err := s.repo.GetByUserID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return s.publicURL + "/billing", nil
}

// RequireActiveSubscription loads the caller's record and checks the
// entitlement. Gated features call this before doing any work.
func (s *SubscriptionService) RequireActiveSubscription(ctx context.Context, userID string) error {
	if s.gateway == nil {
		// Billing disabled: everything is allowed.
		return nil
	}

	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrSubscriptionRequired
		}
		return err
	}
	if !domain.IsActive(sub, s.now()) {
		return domain.ErrSubscriptionRequired
	}
	return nil
}

// HandleWebhookEvent applies a verified gateway webhook delivery. Unknown
// event types and events for unknown subscriptions are acknowledged without
// effect; duplicate deliveries are skipped.
func (s *SubscriptionService) HandleWebhookEvent(ctx context.Context, eventID string, body []byte) error {
	event, err := razorpay.ParseWebhookEvent(body)
	if err != nil {
		s.log.Warnw("Failed to parse webhook body", "error", err, "eventID", eventID)
		s.countWebhook("unparseable", "error")
		return domain.ErrInvalidInput
	}

	if eventID != "" && s.events != nil {
		fresh, err := s.events.MarkProcessed(ctx, eventID, event.Event)
		if err != nil {
			s.log.Errorw("Failed to record webhook delivery", "error", err, "eventID", eventID)
			return err
		}
		if !fresh {
			s.log.Infow("Duplicate webhook delivery skipped", "eventID", eventID, "event", event.Event)
			s.countWebhook(event.Event, "duplicate")
			return nil
		}
	}

	entity := event.Payload.Subscription.Entity

	switch event.Event {
	case razorpay.EventSubscriptionCharged:
		return s.applyCharged(ctx, event.Event, &entity)
	case razorpay.EventSubscriptionActivated:
		return s.applyActivated(ctx, event.Event, &entity)
	case razorpay.EventSubscriptionCancelled:
		return s.applyCancelled(ctx, event.Event, &entity)
	default:
		s.log.Debugw("Ignoring webhook event type", "event", event.Event, "eventID", eventID)
		s.countWebhook(event.Event, "ignored")
		return nil
	}
}

// applyCharged refreshes status and period end after a successful charge.
// A charge for a subscription nobody verified locally is dropped.
func (s *SubscriptionService) applyCharged(ctx context.Context, eventType string, entity *razorpay.SubscriptionEntity) error {
	sub, err := s.repo.GetBySubscriptionID(ctx, entity.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Infow("Charge event for unknown subscription ignored", "subscriptionID", entity.ID)
			s.countWebhook(eventType, "ignored")
			return nil
		}
		s.countWebhook(eventType, "error")
		return err
	}

	sub.Status = entity.Status
	if sub.Status == "" {
		sub.Status = domain.SubscriptionStatusActive
	}
	if end := periodEndFromEpoch(entity.CurrentEnd); end != nil {
		sub.CurrentPeriodEnd = end
	}
	if err := s.repo.Update(ctx, sub); err != nil {
		s.countWebhook(eventType, "error")
		return err
	}

	s.publishEvent(ctx, kafka.TopicSubscriptionCharged, sub)
	s.countWebhook(eventType, "applied")
	s.log.Infow("Subscription charge applied", "subscriptionID", sub.SubscriptionID, "status", sub.Status)
	return nil
}

// applyActivated forces the record active once the gateway reports the
// subscription live.
func (s *SubscriptionService) applyActivated(ctx context.Context, eventType string, entity *razorpay.SubscriptionEntity) error {
	sub, err := s.repo.GetBySubscriptionID(ctx, entity.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Infow("Activation event for unknown subscription ignored", "subscriptionID", entity.ID)
			s.countWebhook(eventType, "ignored")
			return nil
		}
		s.countWebhook(eventType, "error")
		return err
	}

	sub.Status = domain.SubscriptionStatusActive
	if end := periodEndFromEpoch(entity.CurrentEnd); end != nil {
		sub.CurrentPeriodEnd = end
	}
	if err := s.repo.Update(ctx, sub); err != nil {
		s.countWebhook(eventType, "error")
		return err
	}

	s.publishEvent(ctx, kafka.TopicSubscriptionActivated, sub)
	s.countWebhook(eventType, "applied")
	s.log.Infow("Subscription activated", "subscriptionID", sub.SubscriptionID)
	return nil
}

// applyCancelled marks the record cancelled. The status write is
// unconditional; a missing row is simply a no-op.
func (s *SubscriptionService) applyCancelled(ctx context.Context, eventType string, entity *razorpay.SubscriptionEntity) error {
	if err := s.repo.UpdateStatus(ctx, entity.ID, domain.SubscriptionStatusCancelled); err != nil {
		s.countWebhook(eventType, "error")
		return err
	}

	s.publishEvent(ctx, kafka.TopicSubscriptionCancelled, &models.Subscription{
		SubscriptionID: entity.ID,
		Status:         domain.SubscriptionStatusCancelled,
	})
	s.countWebhook(eventType, "applied")
	s.log.Infow("Subscription cancelled", "subscriptionID", entity.ID)
	return nil
}

// publishEvent is best-effort: a broker outage must not fail the billing
// flow that triggered it.
func (s *SubscriptionService) publishEvent(ctx context.Context, topic string, sub *models.Subscription) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishSubscriptionEvent(ctx, topic, sub); err != nil {
		s.log.Errorw("Failed to publish subscription event", "error", err, "topic", topic, "subscriptionID", sub.SubscriptionID)
	}
}

func (s *SubscriptionService) countWebhook(eventType, result string) {
	if s.metrics != nil {
		s.metrics.IncWebhookEvent(eventType, result)
	}
}

// periodEndFromEpoch converts the gateway's epoch-seconds period end.
// Zero means the gateway did not report one.
func periodEndFromEpoch(epoch int64) *time.Time {
	if epoch <= 0 {
		return nil
	}
	t := time.Unix(epoch, 0).UTC()
	return &t
}
