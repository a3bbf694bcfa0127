// Package events defines the payloads published for downstream consumers.
package events

import "time"

// Event types written to the outbox.
const (
	TypeRecommendationCreated = "recommendation.created"
	TypeNotificationCreated   = "notification.created"
)

// RecommendationCreated is emitted when a rule fires for an intake.
type RecommendationCreated struct {
	RecommendationID string    `json:"recommendation_id"`
	IntakeID         string    `json:"intake_id"`
	DailyPlanID      string    `json:"dailyplan_id"`
	Type             string    `json:"recommend_type"`
	Severity         string    `json:"severity"`
	Message          string    `json:"message"`
	CreatedAt        time.Time `json:"created_at"`
}

// NotificationCreated is emitted when a notification is synthesised for a recommendation.
type NotificationCreated struct {
	NotificationID   string    `json:"notification_id"`
	RecommendationID string    `json:"recommendation_id"`
	Type             string    `json:"notification_type"`
	Title            string    `json:"title"`
	Body             string    `json:"body"`
	Channel          string    `json:"channel"`
	Status           string    `json:"status"`
	SentAt           time.Time `json:"sent_at"`
}
