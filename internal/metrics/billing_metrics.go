package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sketchly/billing-service/pkg/logger"
)

// BillingMetrics counts webhook processing and AI proxy traffic.
type BillingMetrics interface {
	IncWebhookEvent(eventType, result string)
	IncAIProxyRequest(feature, status string)
	ObserveAIProxyDuration(feature string, seconds float64)
}

type billingMetrics struct {
	log              *logger.Logger
	webhookEvents    *prometheus.CounterVec
	aiProxyRequests  *prometheus.CounterVec
	aiProxyDurations *prometheus.HistogramVec
}

// NewBillingMetrics registers the metric vectors on the given registry.
func NewBillingMetrics(registry *prometheus.Registry, log *logger.Logger) BillingMetrics {
	webhookEvents := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "The total number of gateway webhook events by type and result",
		},
		[]string{"event", "result"},
	)

	aiProxyRequests := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_proxy_requests_total",
			Help: "The total number of AI proxy requests by feature and status",
		},
		[]string{"feature", "status"},
	)

	aiProxyDurations := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_proxy_duration_seconds",
			Help:    "AI proxy upstream call durations",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s .. 32s
		},
		[]string{"feature"},
	)

	return &billingMetrics{
		log:              log,
		webhookEvents:    webhookEvents,
		aiProxyRequests:  aiProxyRequests,
		aiProxyDurations: aiProxyDurations,
	}
}

// IncWebhookEvent counts a processed webhook delivery.
func (m *billingMetrics) IncWebhookEvent(eventType, result string) {
	m.webhookEvents.WithLabelValues(eventType, result).Inc()
}

// IncAIProxyRequest counts an AI proxy request.
func (m *billingMetrics) IncAIProxyRequest(feature, status string) {
	m.aiProxyRequests.WithLabelValues(feature, status).Inc()
}

// ObserveAIProxyDuration records an upstream call duration.
func (m *billingMetrics) ObserveAIProxyDuration(feature string, seconds float64) {
	m.aiProxyDurations.WithLabelValues(feature).Observe(seconds)
}
