package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchly/billing-service/internal/api/rest"
	"github.com/sketchly/billing-service/internal/domain"
	"github.com/sketchly/billing-service/internal/integration/razorpay"
	"github.com/sketchly/billing-service/internal/middleware"
	"github.com/sketchly/billing-service/internal/models"
	"github.com/sketchly/billing-service/internal/repository"
	"github.com/sketchly/billing-service/internal/service"
	"github.com/sketchly/billing-service/pkg/logger"
)

const (
	testJWTSecret     = "test-jwt-secret"
	testWebhookSecret = "test-webhook-secret"
	testKeySecret     = "test-key-secret"
)

type memoryRepo struct {
	byUser map[string]*models.Subscription
	bySub  map[string]*models.Subscription

	writes int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		byUser: make(map[string]*models.Subscription),
		bySub:  make(map[string]*models.Subscription),
	}
}

func (r *memoryRepo) seed(sub *models.Subscription) {
	r.byUser[sub.UserID] = sub
	r.bySub[sub.SubscriptionID] = sub
}

func (r *memoryRepo) Upsert(_ context.Context, sub *models.Subscription) error {
	r.writes++
	r.seed(sub)
	return nil
}

func (r *memoryRepo) GetByUserID(_ context.Context, userID string) (*models.Subscription, error) {
	if sub, ok := r.byUser[userID]; ok {
		return sub, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepo) GetBySubscriptionID(_ context.Context, subscriptionID string) (*models.Subscription, error) {
	if sub, ok := r.bySub[subscriptionID]; ok {
		return sub, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepo) Update(_ context.Context, sub *models.Subscription) error {
	r.writes++
	r.seed(sub)
	return nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, subscriptionID, status string) error {
	r.writes++
	if sub, ok := r.bySub[subscriptionID]; ok {
		sub.Status = status
	}
	return nil
}

type memoryEvents struct {
	seen map[string]bool
}

func (e *memoryEvents) MarkProcessed(_ context.Context, eventID, _ string) (bool, error) {
	if e.seen == nil {
		e.seen = make(map[string]bool)
	}
	if e.seen[eventID] {
		return false, nil
	}
	e.seen[eventID] = true
	return true, nil
}

type stubGateway struct {
	subscription *razorpay.SubscriptionEntity
}

func (g *stubGateway) FetchPlan(_ context.Context, planID string) (*razorpay.Plan, error) {
	return &razorpay.Plan{ID: planID, Amount: 49900, Currency: "INR"}, nil
}

func (g *stubGateway) CreateSubscription(_ context.Context, planID, _, _ string) (*razorpay.SubscriptionEntity, error) {
	return &razorpay.SubscriptionEntity{ID: "sub_new", PlanID: planID, Status: "created"}, nil
}

func (g *stubGateway) FetchSubscription(_ context.Context, _ string) (*razorpay.SubscriptionEntity, error) {
	return g.subscription, nil
}

type stubGenerator struct {
	calls int
}

func (g *stubGenerator) GenerateImage(_ context.Context, _ string) (string, error) {
	g.calls++
	return "data:image/webp;base64,AAAA", nil
}

type stubRemover struct {
	calls int
}

func (r *stubRemover) RemoveBackground(_ context.Context, _ string) (string, error) {
	r.calls++
	return "https://cdn.example.com/out.png", nil
}

func testLogger() *logger.Logger {
	log := logger.New(logger.FATAL)
	log.SetOutput(io.Discard)
	return log
}

type testEnv struct {
	engine    *gin.Engine
	repo      *memoryRepo
	generator *stubGenerator
	remover   *stubRemover
}

func newTestEnv(t *testing.T, gateway razorpay.Client) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testLogger()

	repo := newMemoryRepo()
	subscriptionService := service.NewSubscriptionService(service.SubscriptionServiceDeps{
		Gateway:       gateway,
		Repo:          repo,
		Events:        &memoryEvents{},
		KeyID:         "rzp_test_key",
		PlanID:        "plan_basic",
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
		PublicURL:     "https://app.example.com",
		Log:           log,
	})

	generator := &stubGenerator{}
	remover := &stubRemover{}
	aiService := service.NewAIService(subscriptionService, remover, generator, nil, log)

	engine := gin.New()
	rest.RegisterRoutes(engine, rest.RouterDeps{
		SubscriptionService: subscriptionService,
		AIService:           aiService,
		TokenValidator:      middleware.NewDefaultTokenValidator(testJWTSecret),
		Log:                 log,
	})

	return &testEnv{engine: engine, repo: repo, generator: generator, remover: remover}
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(env *testEnv, method, path, auth string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	return rec
}

func activeSubscription(userID string) *models.Subscription {
	end := time.Now().Add(30 * 24 * time.Hour)
	return &models.Subscription{
		UserID:           userID,
		SubscriptionID:   "sub_123",
		Status:           "active",
		CurrentPeriodEnd: &end,
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	rec := doRequest(env, http.MethodGet, "/health", "", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCurrentRequiresAuth(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	rec := doRequest(env, http.MethodGet, "/api/subscriptions/current", "", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentReturnsActiveFlag(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})
	env.repo.seed(activeSubscription("user-1"))

	rec := doRequest(env, http.MethodGet, "/api/subscriptions/current", bearerToken(t, "user-1"), nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Active       bool                 `json:"active"`
		Subscription *models.Subscription `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Active)
	assert.Equal(t, "sub_123", body.Subscription.SubscriptionID)
}

func TestCheckoutReturnsSession(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	rec := doRequest(env, http.MethodPost, "/api/subscriptions/checkout", bearerToken(t, "user-1"), []byte(`{}`), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		SubscriptionID string `json:"subscriptionId"`
		PlanID         string `json:"planId"`
		Amount         int64  `json:"amount"`
		Currency       string `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "sub_new", body.SubscriptionID)
	assert.Equal(t, "plan_basic", body.PlanID)
	assert.Equal(t, int64(49900), body.Amount)
	assert.Equal(t, "INR", body.Currency)
}

func TestCheckoutUnavailableWithoutGateway(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := doRequest(env, http.MethodPost, "/api/subscriptions/checkout", bearerToken(t, "user-1"), []byte(`{}`), nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestVerifyEndpoint(t *testing.T) {
	end := time.Now().Add(30 * 24 * time.Hour).Unix()
	gateway := &stubGateway{subscription: &razorpay.SubscriptionEntity{
		ID: "sub_123", PlanID: "plan_basic", Status: "active", CurrentEnd: end,
	}}
	env := newTestEnv(t, gateway)

	signature := razorpay.ComputeSignature(razorpay.CheckoutMessage("pay_1", "sub_123"), testKeySecret)
	payload, _ := json.Marshal(map[string]string{
		"razorpay_payment_id":      "pay_1",
		"razorpay_subscription_id": "sub_123",
		"razorpay_signature":       signature,
	})

	rec := doRequest(env, http.MethodPost, "/api/subscriptions/verify", bearerToken(t, "user-1"), payload, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true}`, rec.Body.String())
	assert.Equal(t, 1, env.repo.writes)
}

func TestVerifyEndpointRejectsForgedSignature(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	payload, _ := json.Marshal(map[string]string{
		"razorpay_payment_id":      "pay_1",
		"razorpay_subscription_id": "sub_123",
		"razorpay_signature":       "forged",
	})

	rec := doRequest(env, http.MethodPost, "/api/subscriptions/verify", bearerToken(t, "user-1"), payload, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid signature")
	assert.Equal(t, 0, env.repo.writes)
}

func TestBillingEndpoint(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})
	env.repo.seed(activeSubscription("user-1"))

	rec := doRequest(env, http.MethodPost, "/api/subscriptions/billing", bearerToken(t, "user-1"), nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"url": "https://app.example.com/billing"}`, rec.Body.String())
}

func TestBillingEndpointWithoutSubscription(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	rec := doRequest(env, http.MethodPost, "/api/subscriptions/billing", bearerToken(t, "user-1"), nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookAppliesCancellation(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})
	env.repo.seed(activeSubscription("user-1"))

	var event razorpay.WebhookEvent
	event.Event = razorpay.EventSubscriptionCancelled
	event.Payload.Subscription.Entity = razorpay.SubscriptionEntity{ID: "sub_123"}
	body, _ := json.Marshal(event)

	rec := doRequest(env, http.MethodPost, "/api/subscriptions/webhook", "", body, map[string]string{
		razorpay.SignatureHeader: razorpay.ComputeSignature(body, testWebhookSecret),
		razorpay.EventIDHeader:   "evt_1",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SubscriptionStatusCancelled, env.repo.bySub["sub_123"].Status)

	// The cancelled user is now rejected by the gated AI endpoints.
	aiRec := doRequest(env, http.MethodPost, "/api/ai/generate-image", bearerToken(t, "user-1"),
		[]byte(`{"prompt": "a red bicycle"}`), nil)
	assert.Equal(t, http.StatusForbidden, aiRec.Code)
	assert.Equal(t, 0, env.generator.calls)
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})
	env.repo.seed(activeSubscription("user-1"))

	var event razorpay.WebhookEvent
	event.Event = razorpay.EventSubscriptionCancelled
	event.Payload.Subscription.Entity = razorpay.SubscriptionEntity{ID: "sub_123"}
	body, _ := json.Marshal(event)
	signature := razorpay.ComputeSignature(body, testWebhookSecret)

	tampered := bytes.Replace(body, []byte("sub_123"), []byte("sub_999"), 1)

	rec := doRequest(env, http.MethodPost, "/api/subscriptions/webhook", "", tampered, map[string]string{
		razorpay.SignatureHeader: signature,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid signature")
	// The stored record must be untouched.
	assert.Equal(t, "active", env.repo.bySub["sub_123"].Status)
}

func TestWebhookUnavailableWithoutGateway(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := doRequest(env, http.MethodPost, "/api/subscriptions/webhook", "", []byte(`{}`), nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGenerateImageForSubscriber(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})
	env.repo.seed(activeSubscription("user-1"))

	rec := doRequest(env, http.MethodPost, "/api/ai/generate-image", bearerToken(t, "user-1"),
		[]byte(`{"prompt": "a red bicycle"}`), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data": "data:image/webp;base64,AAAA"}`, rec.Body.String())
	assert.Equal(t, 1, env.generator.calls)
}

func TestGenerateImageRejectsEmptyPrompt(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})
	env.repo.seed(activeSubscription("user-1"))

	rec := doRequest(env, http.MethodPost, "/api/ai/generate-image", bearerToken(t, "user-1"),
		[]byte(`{"prompt": ""}`), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.generator.calls)
}

func TestRemoveBackgroundForSubscriber(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})
	env.repo.seed(activeSubscription("user-1"))

	rec := doRequest(env, http.MethodPost, "/api/ai/remove-bg", bearerToken(t, "user-1"),
		[]byte(`{"image": "https://cdn.example.com/in.png"}`), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data": "https://cdn.example.com/out.png"}`, rec.Body.String())
	assert.Equal(t, 1, env.remover.calls)
}

func TestRemoveBackgroundRequiresSubscription(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	rec := doRequest(env, http.MethodPost, "/api/ai/remove-bg", bearerToken(t, "user-1"),
		[]byte(`{"image": "img"}`), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, env.remover.calls)
}

func TestAIEndpointsRequireAuth(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	rec := doRequest(env, http.MethodPost, "/api/ai/generate-image", "", []byte(`{"prompt": "x"}`), nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, env.generator.calls)
}
