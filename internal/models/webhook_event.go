package models

import "time"

// WebhookEvent records a processed gateway delivery for idempotency.
// The gateway delivers at-least-once; replays of a recorded event ID are
// acknowledged without reapplying their state transition.
type WebhookEvent struct {
	EventID    string    `db:"event_id" json:"event_id"`
	EventType  string    `db:"event_type" json:"event_type"`
	ReceivedAt time.Time `db:"received_at" json:"received_at"`
}
