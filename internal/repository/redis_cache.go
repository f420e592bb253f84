package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sketchly/billing-service/internal/models"
	"github.com/sketchly/billing-service/pkg/logger"
)

const (
	// Key prefixes for the two lookup paths
	subscriptionKeyPrefix     = "subscription:"
	userSubscriptionKeyPrefix = "user_subscription:"

	defaultCacheTTL = 15 * time.Minute
)

// RedisCacheRepository caches subscription records in Redis.
type RedisCacheRepository struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCacheRepository connects to Redis and returns the cache.
func NewRedisCacheRepository(redisAddr, redisPassword string, redisDB int, log *logger.Logger) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis", "addr", redisAddr)
	return &RedisCacheRepository{
		client: client,
		log:    log,
	}, nil
}

// Close closes the Redis connection.
func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}

// CacheSubscription stores the record under both lookup keys.
func (r *RedisCacheRepository) CacheSubscription(ctx context.Context, sub *models.Subscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		r.log.Errorw("Failed to marshal subscription for caching", "error", err, "subscriptionID", sub.SubscriptionID)
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, subscriptionKeyPrefix+sub.SubscriptionID, data, defaultCacheTTL)
	pipe.Set(ctx, userSubscriptionKeyPrefix+sub.UserID, data, defaultCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Errorw("Failed to cache subscription", "error", err, "subscriptionID", sub.SubscriptionID)
		return fmt.Errorf("failed to cache subscription: %w", err)
	}

	r.log.Debugw("Subscription cached", "subscriptionID", sub.SubscriptionID, "userID", sub.UserID)
	return nil
}

// GetCachedSubscription looks up a record by gateway subscription ID.
// A cache miss returns (nil, nil).
func (r *RedisCacheRepository) GetCachedSubscription(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	return r.getByKey(ctx, subscriptionKeyPrefix+subscriptionID)
}

// GetCachedUserSubscription looks up a record by user ID.
// A cache miss returns (nil, nil).
func (r *RedisCacheRepository) GetCachedUserSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	return r.getByKey(ctx, userSubscriptionKeyPrefix+userID)
}

func (r *RedisCacheRepository) getByKey(ctx context.Context, key string) (*models.Subscription, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.log.Errorw("Error reading subscription from Redis", "error", err, "key", key)
		return nil, fmt.Errorf("failed to get subscription from cache: %w", err)
	}

	var sub models.Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		r.log.Errorw("Failed to unmarshal cached subscription", "error", err, "key", key)
		return nil, fmt.Errorf("failed to unmarshal cached subscription: %w", err)
	}

	return &sub, nil
}

// InvalidateSubscription drops both cache keys for a record.
func (r *RedisCacheRepository) InvalidateSubscription(ctx context.Context, subscriptionID, userID string) error {
	keys := []string{subscriptionKeyPrefix + subscriptionID}
	if userID != "" {
		keys = append(keys, userSubscriptionKeyPrefix+userID)
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.log.Errorw("Failed to invalidate subscription cache", "error", err, "subscriptionID", subscriptionID)
		return fmt.Errorf("failed to invalidate subscription cache: %w", err)
	}

	r.log.Debugw("Subscription cache invalidated", "subscriptionID", subscriptionID, "userID", userID)
	return nil
}
