//go:build integration

package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"example.com/hydration/internal/events"
	"example.com/hydration/internal/testsupport"
)

func TestDispatcherPublishesMessages(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	require.NotZero(t, seedOutbox(t, ctx, pool, events.TypeNotificationCreated))

	producer := &stubProducer{}
	dispatcher := NewDispatcher(pool, producer, &stubRegistry{id: 42}, nil, 10*time.Millisecond, 5)

	beforeDelivered := testutil.ToFloat64(deliveredCounter)
	beforeHistogram := histogramSampleCount(t)

	require.NoError(t, dispatcher.processBatch(ctx))

	require.Len(t, producer.writes, 1)
	require.Equal(t, TopicNotifications, producer.writes[0].topic)
	require.InDelta(t, beforeDelivered+1, testutil.ToFloat64(deliveredCounter), 0.0001)
	require.Greater(t, histogramSampleCount(t), beforeHistogram)

	var published int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NOT NULL`).Scan(&published))
	require.Equal(t, 1, published)
}

func TestDispatcherRoutesFailuresThroughDLQAndReplays(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	eventID := seedOutbox(t, ctx, pool, events.TypeRecommendationCreated)

	failing := NewDispatcher(pool, &stubProducer{err: errors.New("kafka write failed")}, &stubRegistry{id: 7}, nil, 10*time.Millisecond, 5)
	beforeDLQ := testutil.ToFloat64(dlqCounter.WithLabelValues(TopicRecommendations))
	require.NoError(t, failing.processBatch(ctx))
	require.InDelta(t, beforeDLQ+1, testutil.ToFloat64(dlqCounter.WithLabelValues(TopicRecommendations)), 0.0001)

	var reason string
	require.NoError(t, pool.QueryRow(ctx, `SELECT reason FROM outbox_dlq WHERE event_id = $1`, eventID).Scan(&reason))
	require.Contains(t, reason, "kafka write failed")

	manager := NewDLQManager(pool, nil, 3, time.Second)
	replayed, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, replayed)

	var remaining int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq`).Scan(&remaining))
	require.Zero(t, remaining)

	producer := &stubProducer{}
	healthy := NewDispatcher(pool, producer, &stubRegistry{id: 7}, nil, 10*time.Millisecond, 5)
	require.NoError(t, healthy.processBatch(ctx))
	require.Len(t, producer.writes, 1)
}

func TestDLQManagerQuarantinesExhaustedEntries(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)

	_, err := pool.Exec(ctx, `INSERT INTO outbox_dlq (event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key, retry_count, next_retry_at)
        VALUES (1, $1, $2, '{}', 'boom', 'notification', 'n', $3, 'r', 3, NOW())`,
		events.TypeNotificationCreated, TopicNotifications, TopicNotifications+"-value")
	require.NoError(t, err)

	manager := NewDLQManager(pool, nil, 3, time.Second)
	before := testutil.ToFloat64(dlqOutcomes.WithLabelValues(dlqQuarantined, TopicNotifications, events.TypeNotificationCreated))
	processed, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)
	require.InDelta(t, before+1, testutil.ToFloat64(dlqOutcomes.WithLabelValues(dlqQuarantined, TopicNotifications, events.TypeNotificationCreated)), 0.0001)

	var quarantined int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NOT NULL`).Scan(&quarantined))
	require.Equal(t, 1, quarantined)
}

func histogramSampleCount(t *testing.T) uint64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, batchDuration.Write(metric))
	return metric.GetHistogram().GetSampleCount()
}

func seedOutbox(t *testing.T, ctx context.Context, pool *pgxpool.Pool, eventType string) int64 {
	t.Helper()
	route, ok := RouteFor(eventType)
	require.True(t, ok)

	var eventID int64
	err := pool.QueryRow(ctx,
		`INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
         VALUES ($1,$2,$3,$4,$5,$6,$7)
         RETURNING event_id`,
		route.AggregateType, "aggregate-1", eventType, route.Topic, route.SchemaSubject, "key-1", []byte(`{}`),
	).Scan(&eventID)
	require.NoError(t, err)
	return eventID
}
