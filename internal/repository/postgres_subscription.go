package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sketchly/billing-service/internal/models"
	"github.com/sketchly/billing-service/pkg/logger"
)

// postgresSubscriptionRepo implements SubscriptionRepository for PostgreSQL.
type postgresSubscriptionRepo struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewPostgresSubscriptionRepository creates a PostgreSQL-backed repository.
func NewPostgresSubscriptionRepository(db *sqlx.DB, log *logger.Logger) SubscriptionRepository {
	return &postgresSubscriptionRepo{
		db:  db,
		log: log,
	}
}

// Upsert inserts the subscription, replacing any existing row for the user.
func (r *postgresSubscriptionRepo) Upsert(ctx context.Context, sub *models.Subscription) error {
	now := time.Now()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	sub.CreatedAt = now
	sub.UpdatedAt = now

	query := `
        INSERT INTO subscriptions (
            id, user_id, subscription_id, customer_id, price_id, status,
            current_period_end, created_at, updated_at
        ) VALUES (
            :id, :user_id, :subscription_id, :customer_id, :price_id, :status,
            :current_period_end, :created_at, :updated_at
        )
        ON CONFLICT (user_id) DO UPDATE SET
            subscription_id = EXCLUDED.subscription_id,
            customer_id = EXCLUDED.customer_id,
            price_id = EXCLUDED.price_id,
            status = EXCLUDED.status,
            current_period_end = EXCLUDED.current_period_end,
            updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, sub)
	if err != nil {
		r.log.Errorw("Failed to upsert subscription", "error", err, "subscriptionID", sub.SubscriptionID, "userID", sub.UserID)
		return fmt.Errorf("repository: failed to upsert subscription: %w", err)
	}

	r.log.Debugw("Subscription upserted", "subscriptionID", sub.SubscriptionID, "userID", sub.UserID)
	return nil
}

// GetByUserID returns the user's subscription record.
func (r *postgresSubscriptionRepo) GetByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	query := `
        SELECT id, user_id, subscription_id, customer_id, price_id, status,
               current_period_end, created_at, updated_at
        FROM subscriptions
        WHERE user_id = $1`

	err := r.db.GetContext(ctx, &sub, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Debugw("No subscription for user", "userID", userID)
			return nil, ErrNotFound
		}
		r.log.Errorw("Failed to get subscription by user ID", "error", err, "userID", userID)
		return nil, fmt.Errorf("repository: failed to get subscription by user ID: %w", err)
	}

	return &sub, nil
}

// GetBySubscriptionID returns the record for a gateway subscription ID.
func (r *postgresSubscriptionRepo) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	query := `
        SELECT id, user_id, subscription_id, customer_id, price_id, status,
               current_period_end, created_at, updated_at
        FROM subscriptions
        WHERE subscription_id = $1`

	err := r.db.GetContext(ctx, &sub, query, subscriptionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Debugw("Subscription not found by gateway ID", "subscriptionID", subscriptionID)
			return nil, ErrNotFound
		}
		r.log.Errorw("Failed to get subscription by gateway ID", "error", err, "subscriptionID", subscriptionID)
		return nil, fmt.Errorf("repository: failed to get subscription by gateway ID: %w", err)
	}

	return &sub, nil
}

// Update persists the mutable fields of an existing subscription.
func (r *postgresSubscriptionRepo) Update(ctx context.Context, sub *models.Subscription) error {
	sub.UpdatedAt = time.Now()

	query := `
        UPDATE subscriptions SET
            status = :status,
            current_period_end = :current_period_end,
            updated_at = :updated_at
        WHERE subscription_id = :subscription_id`

	result, err := r.db.NamedExecContext(ctx, query, sub)
	if err != nil {
		r.log.Errorw("Failed to update subscription", "error", err, "subscriptionID", sub.SubscriptionID)
		return fmt.Errorf("repository: failed to update subscription: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorw("Failed to read rows affected after update", "error", err, "subscriptionID", sub.SubscriptionID)
	}
	if rowsAffected == 0 {
		r.log.Warnw("Subscription update affected 0 rows", "subscriptionID", sub.SubscriptionID)
	}

	return nil
}

// UpdateStatus sets the status for a gateway subscription ID. A missing row
// is a no-op so cancellation events for unknown subscriptions are ignored.
func (r *postgresSubscriptionRepo) UpdateStatus(ctx context.Context, subscriptionID, status string) error {
	query := `
        UPDATE subscriptions SET
            status = $1,
            updated_at = $2
        WHERE subscription_id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), subscriptionID)
	if err != nil {
		r.log.Errorw("Failed to update subscription status", "error", err, "subscriptionID", subscriptionID, "status", status)
		return fmt.Errorf("repository: failed to update subscription status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorw("Failed to read rows affected after status update", "error", err, "subscriptionID", subscriptionID)
		return nil
	}
	if rowsAffected == 0 {
		r.log.Debugw("Status update matched no rows", "subscriptionID", subscriptionID, "status", status)
	}

	return nil
}
