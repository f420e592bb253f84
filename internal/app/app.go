package app

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sketchly/billing-service/internal/api/rest"
	"github.com/sketchly/billing-service/internal/config"
	"github.com/sketchly/billing-service/internal/db"
	"github.com/sketchly/billing-service/internal/integration/razorpay"
	"github.com/sketchly/billing-service/internal/integration/replicate"
	"github.com/sketchly/billing-service/internal/integration/stability"
	"github.com/sketchly/billing-service/internal/kafka"
	"github.com/sketchly/billing-service/internal/metrics"
	"github.com/sketchly/billing-service/internal/middleware"
	"github.com/sketchly/billing-service/internal/repository"
	"github.com/sketchly/billing-service/internal/service"
	"github.com/sketchly/billing-service/pkg/logger"
)

// App is the assembled application: the HTTP engine plus the resources
// that need closing on shutdown.
type App struct {
	Engine *gin.Engine

	dbClient *db.DBClient
	cache    *repository.RedisCacheRepository
	producer kafka.Producer
	log      *logger.Logger
}

// New wires the whole application from configuration. Redis and Kafka are
// optional: when unconfigured the service runs without caching or event
// publishing. Missing gateway or AI credentials disable the corresponding
// endpoints with 503 instead of failing startup.
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	dbClient, err := db.NewDBClient(cfg.Database.DSN, log)
	if err != nil {
		return nil, err
	}

	subscriptionRepo := repository.NewPostgresSubscriptionRepository(dbClient.DB(), log)
	eventRepo := repository.NewPostgresWebhookEventRepository(dbClient.DB(), log)

	var cache *repository.RedisCacheRepository
	if cfg.Redis.Addr != "" {
		cache, err = repository.NewRedisCacheRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Warnw("Redis unavailable, continuing without cache", "error", err)
		} else {
			subscriptionRepo = repository.NewCachedSubscriptionRepository(subscriptionRepo, cache, log)
		}
	}

	var producer kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		if err := kafka.EnsureKafkaTopics(cfg.Kafka.Brokers, log); err != nil {
			log.Warnw("Kafka topic setup failed, continuing without event publishing", "error", err)
		} else if producer, err = kafka.NewKafkaProducer(cfg.Kafka.Brokers, log); err != nil {
			log.Warnw("Kafka producer unavailable, continuing without event publishing", "error", err)
			producer = nil
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	billingMetrics := metrics.NewBillingMetrics(registry, log)

	var gateway razorpay.Client
	if cfg.RazorpayConfigured() {
		gateway = razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, log)
	} else {
		log.Warnw("Payment gateway credentials missing, subscription endpoints disabled")
	}

	var remover replicate.BackgroundRemover
	if cfg.Replicate.APIToken != "" {
		remover, err = replicate.NewClient(cfg.Replicate.APIToken, log)
		if err != nil {
			return nil, err
		}
	} else {
		log.Warnw("Replicate token missing, background removal disabled")
	}

	var generator stability.ImageGenerator
	if cfg.Stability.APIKey != "" {
		generator = stability.NewClient(cfg.Stability.APIKey, log)
	} else {
		log.Warnw("Stability API key missing, image generation disabled")
	}

	subscriptionService := service.NewSubscriptionService(service.SubscriptionServiceDeps{
		Gateway:       gateway,
		Repo:          subscriptionRepo,
		Events:        eventRepo,
		Producer:      producer,
		Metrics:       billingMetrics,
		KeyID:         cfg.Razorpay.KeyID,
		PlanID:        cfg.Razorpay.PlanID,
		KeySecret:     cfg.Razorpay.KeySecret,
		WebhookSecret: cfg.Razorpay.WebhookSecret,
		PublicURL:     cfg.App.PublicURL,
		Log:           log,
	})
	aiService := service.NewAIService(subscriptionService, remover, generator, billingMetrics, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.RequestLogger(log), gin.Recovery())

	rest.RegisterRoutes(engine, rest.RouterDeps{
		SubscriptionService: subscriptionService,
		AIService:           aiService,
		TokenValidator:      middleware.NewDefaultTokenValidator(cfg.Auth.JWTSecret),
		MetricsRegistry:     registry,
		Log:                 log,
	})

	return &App{
		Engine:   engine,
		dbClient: dbClient,
		cache:    cache,
		producer: producer,
		log:      log,
	}, nil
}

// Close releases all held resources.
func (a *App) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Errorw("Failed to close Kafka producer", "error", err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Errorw("Failed to close Redis connection", "error", err)
		}
	}
	if a.dbClient != nil {
		if err := a.dbClient.Close(); err != nil {
			a.log.Errorw("Failed to close database connection", "error", err)
		}
	}
}
