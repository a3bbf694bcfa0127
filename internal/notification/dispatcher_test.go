package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/hydration/internal/domain"
)

type recordingStore struct {
	created []domain.Notification
	err     error
}

func (s *recordingStore) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	for _, n := range s.created {
		if n.ID == id {
			found := n
			return &found, nil
		}
	}
	return nil, nil
}

func (s *recordingStore) CreateNotification(ctx context.Context, n domain.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, n)
	return nil
}

func (s *recordingStore) ListNotifications(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, error) {
	return s.created, nil
}

func TestDispatchBySeverity(t *testing.T) {
	sentAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		rec       domain.Recommendation
		wantType  string
		wantTitle string
	}{
		{
			name:      "medium becomes warning",
			rec:       domain.Recommendation{ID: "r1", Type: domain.RecommendationLateBehind, Severity: domain.SeverityMedium, Message: "drink"},
			wantType:  TypeWarning,
			wantTitle: "Behind schedule",
		},
		{
			name:      "high becomes urgent",
			rec:       domain.Recommendation{ID: "r2", Type: domain.RecommendationStrongBehind, Severity: domain.SeverityHigh, Message: "drink now"},
			wantType:  TypeUrgent,
			wantTitle: "Far behind schedule",
		},
		{
			name:      "unknown type falls back",
			rec:       domain.Recommendation{ID: "r3", Type: "CUSTOM", Severity: domain.SeverityMedium},
			wantType:  TypeWarning,
			wantTitle: fallbackTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{}
			d := NewDispatcher(store, WithClock(func() time.Time { return sentAt }))

			n, err := d.Dispatch(context.Background(), tt.rec)
			require.NoError(t, err)
			require.NotNil(t, n)
			require.Equal(t, tt.wantType, n.Type)
			require.Equal(t, tt.wantTitle, n.Title)
			require.Equal(t, tt.rec.Message, n.Body)
			require.Equal(t, ChannelPush, n.Channel)
			require.Equal(t, StatusSent, n.Status)
			require.Equal(t, sentAt, n.SentAt)
			require.Len(t, store.created, 1)
		})
	}
}

func TestDispatchSkipsLowSeverity(t *testing.T) {
	store := &recordingStore{}
	d := NewDispatcher(store)

	for _, severity := range []domain.Severity{domain.SeverityLow, "", "critical"} {
		n, err := d.Dispatch(context.Background(), domain.Recommendation{ID: "r", Type: domain.RecommendationGoodPace, Severity: severity})
		require.NoError(t, err)
		require.Nil(t, n)
	}
	require.Empty(t, store.created)
}

func TestDispatchPropagatesStoreError(t *testing.T) {
	d := NewDispatcher(&recordingStore{err: errors.New("db down")})
	_, err := d.Dispatch(context.Background(), domain.Recommendation{ID: "r", Severity: domain.SeverityHigh})
	require.ErrorContains(t, err, "db down")
}

func TestGetUnknownNotification(t *testing.T) {
	d := NewDispatcher(&recordingStore{})
	_, err := d.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
