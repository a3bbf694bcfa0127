// Package notification turns medium and high severity recommendations into push notifications.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/observability"
)

// Notification types, delivery channel and status written on every dispatched notification.
const (
	TypeWarning = "warning"
	TypeUrgent  = "urgent"

	ChannelPush = "push"
	StatusSent  = "sent"

	fallbackTitle = "Hydration recommendation"
)

var titles = map[domain.RecommendationType]string{
	domain.RecommendationLateBehind:         "Behind schedule",
	domain.RecommendationStrongBehind:       "Far behind schedule",
	domain.RecommendationTooLargePortion:    "Portion too large",
	domain.RecommendationActivityExtraWater: "After physical activity",
	domain.RecommendationTooRareIntakes:     "Infrequent water intake",
}

// Title returns the headline shown for a recommendation type.
func Title(kind domain.RecommendationType) string {
	if title, ok := titles[kind]; ok {
		return title
	}
	return fallbackTitle
}

// TypeForSeverity maps severity to a notification type; ok is false when no notification is due.
func TypeForSeverity(severity domain.Severity) (string, bool) {
	switch severity {
	case domain.SeverityMedium:
		return TypeWarning, true
	case domain.SeverityHigh:
		return TypeUrgent, true
	default:
		return "", false
	}
}

// Dispatcher synthesises and stores notifications.
type Dispatcher struct {
	store  domain.NotificationRepository
	logger *zap.Logger
	now    func() time.Time
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock overrides the clock used for sent_at.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(store domain.NotificationRepository, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:  store,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch stores a notification for the recommendation. Low severity returns (nil, nil).
func (d *Dispatcher) Dispatch(ctx context.Context, rec domain.Recommendation) (*domain.Notification, error) {
	kind, ok := TypeForSeverity(rec.Severity)
	if !ok {
		return nil, nil
	}

	n := domain.Notification{
		ID:               uuid.NewString(),
		RecommendationID: rec.ID,
		Type:             kind,
		Title:            Title(rec.Type),
		Body:             rec.Message,
		Channel:          ChannelPush,
		Status:           StatusSent,
		SentAt:           d.now(),
	}
	if err := d.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification for recommendation %s: %w", rec.ID, err)
	}

	observability.RecordNotification(kind)
	d.logger.Debug("notification dispatched",
		zap.String("notification_id", n.ID),
		zap.String("recommendation_id", rec.ID),
		zap.String("type", kind),
	)
	return &n, nil
}

// Get fetches a notification by id.
func (d *Dispatcher) Get(ctx context.Context, id string) (*domain.Notification, error) {
	n, err := d.store.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, domain.NotFound("Notification", id)
	}
	return n, nil
}

// List returns notifications matching the filter.
func (d *Dispatcher) List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, error) {
	return d.store.ListNotifications(ctx, filter)
}
