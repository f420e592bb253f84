package service

import (
	"context"
	"time"

	"github.com/sketchly/billing-service/internal/domain"
	"github.com/sketchly/billing-service/internal/integration/replicate"
	"github.com/sketchly/billing-service/internal/integration/stability"
	"github.com/sketchly/billing-service/internal/metrics"
	"github.com/sketchly/billing-service/pkg/logger"
)

// Feature labels used for AI proxy metrics.
const (
	featureRemoveBackground = "remove_background"
	featureGenerateImage    = "generate_image"
)

// Entitlements gates paid features. Satisfied by SubscriptionService.
type Entitlements interface {
	RequireActiveSubscription(ctx context.Context, userID string) error
}

// AIService proxies AI provider calls for subscribed users. Credentials
// never reach the client; the entitlement check runs before any upstream
// request is made.
type AIService struct {
	entitlements Entitlements
	remover      replicate.BackgroundRemover // nil when not configured
	generator    stability.ImageGenerator    // nil when not configured
	metrics      metrics.BillingMetrics
	log          *logger.Logger
}

// NewAIService creates the AI proxy service.
func NewAIService(entitlements Entitlements, remover replicate.BackgroundRemover, generator stability.ImageGenerator, m metrics.BillingMetrics, log *logger.Logger) *AIService {
	return &AIService{
		entitlements: entitlements,
		remover:      remover,
		generator:    generator,
		metrics:      m,
		log:          log,
	}
}

// RemoveBackground strips the background from the given image for a
// subscribed user.
func (s *AIService) RemoveBackground(ctx context.Context, userID, image string) (string, error) {
	if err := s.entitlements.RequireActiveSubscription(ctx, userID); err != nil {
		s.count(featureRemoveBackground, "denied")
		return "", err
	}
	if s.remover == nil {
		s.count(featureRemoveBackground, "unconfigured")
		return "", domain.ErrNotConfigured
	}

	start := time.Now()
	result, err := s.remover.RemoveBackground(ctx, image)
	s.observe(featureRemoveBackground, time.Since(start))
	if err != nil {
		s.count(featureRemoveBackground, "error")
		return "", err
	}

	s.count(featureRemoveBackground, "ok")
	s.log.Infow("Background removal completed", "userID", userID)
	return result, nil
}

// GenerateImage produces an image from a text prompt for a subscribed user.
func (s *AIService) GenerateImage(ctx context.Context, userID, prompt string) (string, error) {
	if err := s.entitlements.RequireActiveSubscription(ctx, userID); err != nil {
		s.count(featureGenerateImage, "denied")
		return "", err
	}
	if s.generator == nil {
		s.count(featureGenerateImage, "unconfigured")
		return "", domain.ErrNotConfigured
	}

	start := time.Now()
	result, err := s.generator.GenerateImage(ctx, prompt)
	s.observe(featureGenerateImage, time.Since(start))
	if err != nil {
		s.count(featureGenerateImage, "error")
		return "", err
	}

	s.count(featureGenerateImage, "ok")
	s.log.Infow("Image generation completed", "userID", userID)
	return result, nil
}

func (s *AIService) count(feature, status string) {
	if s.metrics != nil {
		s.metrics.IncAIProxyRequest(feature, status)
	}
}

func (s *AIService) observe(feature string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveAIProxyDuration(feature, d.Seconds())
	}
}
