package outbox

import "example.com/hydration/internal/events"

// Topics the outbox publishes to.
const (
	TopicRecommendations = "hydration_recommendations"
	TopicNotifications   = "hydration_notifications"
)

const recommendationCreatedSchema = `{
  "type": "object",
  "title": "RecommendationCreated",
  "properties": {
    "recommendation_id": {"type": "string"},
    "intake_id": {"type": "string"},
    "dailyplan_id": {"type": "string"},
    "recommend_type": {"type": "string"},
    "severity": {"type": "string", "enum": ["low", "medium", "high"]},
    "message": {"type": "string"},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["recommendation_id", "intake_id", "dailyplan_id", "recommend_type", "severity", "message", "created_at"],
  "additionalProperties": false
}`

const notificationCreatedSchema = `{
  "type": "object",
  "title": "NotificationCreated",
  "properties": {
    "notification_id": {"type": "string"},
    "recommendation_id": {"type": "string"},
    "notification_type": {"type": "string", "enum": ["warning", "urgent"]},
    "title": {"type": "string"},
    "body": {"type": "string"},
    "channel": {"type": "string"},
    "status": {"type": "string"},
    "sent_at": {"type": "string", "format": "date-time"}
  },
  "required": ["notification_id", "recommendation_id", "notification_type", "title", "body", "channel", "status", "sent_at"],
  "additionalProperties": false
}`

// Route describes where an event type is published and which schema frames it.
type Route struct {
	AggregateType string
	Topic         string
	SchemaSubject string
	Schema        string
}

var catalog = map[string]Route{
	events.TypeRecommendationCreated: {
		AggregateType: "recommendation",
		Topic:         TopicRecommendations,
		SchemaSubject: TopicRecommendations + "-value",
		Schema:        recommendationCreatedSchema,
	},
	events.TypeNotificationCreated: {
		AggregateType: "notification",
		Topic:         TopicNotifications,
		SchemaSubject: TopicNotifications + "-value",
		Schema:        notificationCreatedSchema,
	},
}

// RouteFor looks up the routing metadata for an event type.
func RouteFor(eventType string) (Route, bool) {
	route, ok := catalog[eventType]
	return route, ok
}
