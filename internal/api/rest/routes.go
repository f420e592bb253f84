package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sketchly/billing-service/internal/api/rest/handlers"
	"github.com/sketchly/billing-service/internal/middleware"
	"github.com/sketchly/billing-service/internal/service"
	"github.com/sketchly/billing-service/pkg/logger"
)

// RouterDeps bundles everything route registration needs.
type RouterDeps struct {
	SubscriptionService *service.SubscriptionService
	AIService           *service.AIService
	TokenValidator      middleware.TokenValidator
	MetricsRegistry     *prometheus.Registry
	Log                 *logger.Logger
}

// RegisterRoutes wires all endpoints onto the engine.
func RegisterRoutes(engine *gin.Engine, deps RouterDeps) {
	subscriptionHandler := handlers.NewSubscriptionHandler(deps.SubscriptionService, deps.Log)
	webhookHandler := handlers.NewWebhookHandler(deps.SubscriptionService, deps.Log)
	aiHandler := handlers.NewAIHandler(deps.AIService, deps.Log)

	engine.GET("/health", handlers.Health)
	if deps.MetricsRegistry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api")

	subscriptions := api.Group("/subscriptions")
	// Webhook authenticates via the body signature, not a bearer token.
	subscriptions.POST("/webhook", webhookHandler.Handle)

	authed := subscriptions.Group("", middleware.RequireAuth(deps.TokenValidator, deps.Log))
	authed.POST("/checkout", subscriptionHandler.Checkout)
	authed.POST("/verify", subscriptionHandler.VerifyCheckout)
	authed.GET("/current", subscriptionHandler.Current)
	authed.POST("/billing", subscriptionHandler.BillingPortal)

	ai := api.Group("/ai", middleware.RequireAuth(deps.TokenValidator, deps.Log))
	ai.POST("/remove-bg", aiHandler.RemoveBackground)
	ai.POST("/generate-image", aiHandler.GenerateImage)
}
