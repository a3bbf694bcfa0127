package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/hydration/internal/events"
)

// NotificationLogHandler records delivered notification events in notification_event_log.
// Redelivered offsets are ignored.
type NotificationLogHandler struct {
	pool *pgxpool.Pool
}

// NewNotificationLogHandler constructs a handler backed by the provided pool.
func NewNotificationLogHandler(pool *pgxpool.Pool) *NotificationLogHandler {
	return &NotificationLogHandler{pool: pool}
}

// Handle stores notification.created events and skips every other event type.
func (h *NotificationLogHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.TypeNotificationCreated {
		return ErrSkip
	}

	var event events.NotificationCreated
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("decode %s payload: %w", msg.EventType, err)
	}
	if event.NotificationID == "" {
		return fmt.Errorf("%s payload without notification_id", msg.EventType)
	}

	_, err := h.pool.Exec(ctx,
		`INSERT INTO notification_event_log (topic, partition, kafka_offset, event_type, notification_id, recommendation_id, notification_type, payload)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
         ON CONFLICT (topic, partition, kafka_offset) DO NOTHING`,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		msg.EventType,
		event.NotificationID,
		event.RecommendationID,
		event.Type,
		msg.Payload,
	)
	return err
}
