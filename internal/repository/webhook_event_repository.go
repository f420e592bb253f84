package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sketchly/billing-service/internal/models"
	"github.com/sketchly/billing-service/pkg/logger"
)

// postgresWebhookEventRepo implements WebhookEventRepository for PostgreSQL.
type postgresWebhookEventRepo struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewPostgresWebhookEventRepository creates the processed-event repository.
func NewPostgresWebhookEventRepository(db *sqlx.DB, log *logger.Logger) WebhookEventRepository {
	return &postgresWebhookEventRepo{
		db:  db,
		log: log,
	}
}

// MarkProcessed inserts the event ID, relying on the primary key to detect
// duplicate deliveries. Returns false when the row already existed.
func (r *postgresWebhookEventRepo) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	event := &models.WebhookEvent{
		EventID:    eventID,
		EventType:  eventType,
		ReceivedAt: time.Now(),
	}

	query := `
        INSERT INTO processed_webhook_events (event_id, event_type, received_at)
        VALUES (:event_id, :event_type, :received_at)
        ON CONFLICT (event_id) DO NOTHING`

	result, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		r.log.Errorw("Failed to record webhook event", "error", err, "eventID", eventID, "eventType", eventType)
		return false, fmt.Errorf("repository: failed to record webhook event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorw("Failed to read rows affected after event insert", "error", err, "eventID", eventID)
		return false, fmt.Errorf("repository: failed to read rows affected: %w", err)
	}

	if rowsAffected == 0 {
		r.log.Infow("Duplicate webhook delivery detected", "eventID", eventID, "eventType", eventType)
		return false, nil
	}

	return true, nil
}
