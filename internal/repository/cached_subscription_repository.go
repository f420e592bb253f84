package repository

import (
	"context"

	"github.com/sketchly/billing-service/internal/models"
	"github.com/sketchly/billing-service/pkg/logger"
)

// CachedSubscriptionRepository decorates SubscriptionRepository with a
// Redis read-through cache. Cache failures degrade to the inner store.
type CachedSubscriptionRepository struct {
	repo  SubscriptionRepository
	cache *RedisCacheRepository
	log   *logger.Logger
}

// NewCachedSubscriptionRepository wraps a repository with caching.
func NewCachedSubscriptionRepository(
	repo SubscriptionRepository,
	cache *RedisCacheRepository,
	log *logger.Logger,
) SubscriptionRepository {
	return &CachedSubscriptionRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Upsert writes to the store and refreshes the cache.
func (r *CachedSubscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	if err := r.repo.Upsert(ctx, sub); err != nil {
		return err
	}

	if err := r.cache.CacheSubscription(ctx, sub); err != nil {
		r.log.Warnw("Failed to cache subscription after upsert", "error", err, "subscriptionID", sub.SubscriptionID)
	}

	return nil
}

// GetByUserID checks the cache before the store.
func (r *CachedSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	cached, err := r.cache.GetCachedUserSubscription(ctx, userID)
	if err != nil {
		r.log.Warnw("Error reading user subscription from cache", "error", err, "userID", userID)
	}
	if cached != nil {
		return cached, nil
	}

	sub, err := r.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.CacheSubscription(ctx, sub); err != nil {
		r.log.Warnw("Failed to cache subscription after fetch", "error", err, "userID", userID)
	}

	return sub, nil
}

// GetBySubscriptionID checks the cache before the store.
func (r *CachedSubscriptionRepository) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	cached, err := r.cache.GetCachedSubscription(ctx, subscriptionID)
	if err != nil {
		r.log.Warnw("Error reading subscription from cache", "error", err, "subscriptionID", subscriptionID)
	}
	if cached != nil {
		return cached, nil
	}

	sub, err := r.repo.GetBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.CacheSubscription(ctx, sub); err != nil {
		r.log.Warnw("Failed to cache subscription after fetch", "error", err, "subscriptionID", subscriptionID)
	}

	return sub, nil
}

// Update writes to the store and refreshes the cache.
func (r *CachedSubscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	if err := r.repo.Update(ctx, sub); err != nil {
		return err
	}

	if err := r.cache.CacheSubscription(ctx, sub); err != nil {
		r.log.Warnw("Failed to refresh subscription cache after update", "error", err, "subscriptionID", sub.SubscriptionID)
	}

	return nil
}

// UpdateStatus writes to the store and invalidates whatever was cached.
// The owning user is only known from the cached copy, so invalidation is
// best effort.
func (r *CachedSubscriptionRepository) UpdateStatus(ctx context.Context, subscriptionID, status string) error {
	if err := r.repo.UpdateStatus(ctx, subscriptionID, status); err != nil {
		return err
	}

	userID := ""
	if cached, err := r.cache.GetCachedSubscription(ctx, subscriptionID); err == nil && cached != nil {
		userID = cached.UserID
	}
	if err := r.cache.InvalidateSubscription(ctx, subscriptionID, userID); err != nil {
		r.log.Warnw("Failed to invalidate subscription cache after status update", "error", err, "subscriptionID", subscriptionID)
	}

	return nil
}
