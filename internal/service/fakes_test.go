package service

import (
	"context"
	"io"

	"github.com/sketchly/billing-service/internal/integration/razorpay"
	"github.com/sketchly/billing-service/internal/kafka"
	"github.com/sketchly/billing-service/internal/models"
	"github.com/sketchly/billing-service/internal/repository"
	"github.com/sketchly/billing-service/pkg/logger"
)

func testLogger() *logger.Logger {
	log := logger.New(logger.FATAL)
	log.SetOutput(io.Discard)
	return log
}

// fakeRepo is an in-memory SubscriptionRepository that counts writes.
type fakeRepo struct {
	byUser map[string]*models.Subscription
	bySub  map[string]*models.Subscription

	upserts       int
	updates       int
	statusUpdates int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byUser: make(map[string]*models.Subscription),
		bySub:  make(map[string]*models.Subscription),
	}
}

func (r *fakeRepo) seed(sub *models.Subscription) {
	r.byUser[sub.UserID] = sub
	r.bySub[sub.SubscriptionID] = sub
}

func (r *fakeRepo) Upsert(_ context.Context, sub *models.Subscription) error {
	r.upserts++
	r.seed(sub)
	return nil
}

func (r *fakeRepo) GetByUserID(_ context.Context, userID string) (*models.Subscription, error) {
	sub, ok := r.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return sub, nil
}

func (r *fakeRepo) GetBySubscriptionID(_ context.Context, subscriptionID string) (*models.Subscription, error) {
	sub, ok := r.bySub[subscriptionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return sub, nil
}

func (r *fakeRepo) Update(_ context.Context, sub *models.Subscription) error {
	r.updates++
	r.seed(sub)
	return nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, subscriptionID, status string) error {
	r.statusUpdates++
	if sub, ok := r.bySub[subscriptionID]; ok {
		sub.Status = status
	}
	return nil
}

// fakeEvents remembers which delivery IDs it has seen.
type fakeEvents struct {
	seen map[string]bool
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{seen: make(map[string]bool)}
}

func (e *fakeEvents) MarkProcessed(_ context.Context, eventID, _ string) (bool, error) {
	if e.seen[eventID] {
		return false, nil
	}
	e.seen[eventID] = true
	return true, nil
}

// fakeGateway returns canned gateway responses.
type fakeGateway struct {
	plan         *razorpay.Plan
	subscription *razorpay.SubscriptionEntity

	fetchPlanCalls int
	createCalls    int
	fetchSubCalls  int
}

func (g *fakeGateway) FetchPlan(_ context.Context, _ string) (*razorpay.Plan, error) {
	g.fetchPlanCalls++
	return g.plan, nil
}

func (g *fakeGateway) CreateSubscription(_ context.Context, _, _, _ string) (*razorpay.SubscriptionEntity, error) {
	g.createCalls++
	return g.subscription, nil
}

func (g *fakeGateway) FetchSubscription(_ context.Context, _ string) (*razorpay.SubscriptionEntity, error) {
	g.fetchSubCalls++
	return g.subscription, nil
}

// fakeProducer records published topics.
type fakeProducer struct {
	published []string
}

func (p *fakeProducer) PublishSubscriptionEvent(_ context.Context, topic string, _ *models.Subscription) error {
	p.published = append(p.published, topic)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

var _ kafka.Producer = (*fakeProducer)(nil)
var _ razorpay.Client = (*fakeGateway)(nil)
var _ repository.SubscriptionRepository = (*fakeRepo)(nil)
var _ repository.WebhookEventRepository = (*fakeEvents)(nil)
