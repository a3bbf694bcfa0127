package consumer

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/hydration/internal/events"
)

func framed(schemaID uint32, payload []byte) []byte {
	value := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(value[1:5], schemaID)
	copy(value[5:], payload)
	return value
}

func notificationRecord(offset int64, payload []byte) kafka.Message {
	return kafka.Message{
		Topic:     "hydration_notifications",
		Partition: 0,
		Offset:    offset,
		Time:      time.Now().UTC(),
		Value:     framed(42, payload),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.TypeNotificationCreated)},
			{Key: "aggregate_id", Value: []byte("notif-1")},
			{Key: "schema_subject", Value: []byte("hydration_notifications-value")},
		},
	}
}

func TestProcessorCommitsOnSuccess(t *testing.T) {
	payload := []byte(`{"notification_id":"notif-1"}`)
	reader := &stubReader{messages: []kafka.Message{notificationRecord(10, payload)}}
	handler := &stubHandler{}

	before := testutil.ToFloat64(messagesCounter.WithLabelValues("hydration_notifications", events.TypeNotificationCreated, outcomeProcessed))
	err := NewProcessor(reader, handler, WithLogger(zaptest.NewLogger(t))).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, events.TypeNotificationCreated, handler.last.EventType)
	require.Equal(t, "notif-1", handler.last.AggregateID)
	require.Equal(t, 42, handler.last.SchemaID)
	require.JSONEq(t, string(payload), string(handler.last.Payload))
	require.InDelta(t, before+1, testutil.ToFloat64(messagesCounter.WithLabelValues("hydration_notifications", events.TypeNotificationCreated, outcomeProcessed)), 0.0001)
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{notificationRecord(20, []byte(`{}`))}}
	handler := &stubHandler{err: errors.New("boom")}

	err := NewProcessor(reader, handler, WithLogger(zaptest.NewLogger(t))).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Zero(t, reader.commitCalls)
}

func TestProcessorCommitsMalformedRecords(t *testing.T) {
	tooShort := notificationRecord(30, nil)
	tooShort.Value = []byte{0, 1}
	noHeader := notificationRecord(31, []byte(`{}`))
	noHeader.Headers = nil

	reader := &stubReader{messages: []kafka.Message{tooShort, noHeader}}
	handler := &stubHandler{}

	before := testutil.ToFloat64(messagesCounter.WithLabelValues("hydration_notifications", "", outcomeDecodeError))
	err := NewProcessor(reader, handler).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Zero(t, handler.calls)
	require.Equal(t, 2, reader.commitCalls)
	require.InDelta(t, before+2, testutil.ToFloat64(messagesCounter.WithLabelValues("hydration_notifications", "", outcomeDecodeError)), 0.0001)
}

func TestProcessorStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewProcessor(&stubReader{}, &stubHandler{}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessorBacksOffAfterFetchError(t *testing.T) {
	reader := &stubReader{
		fetchErrs: []error{errors.New("broker unavailable")},
		messages:  []kafka.Message{notificationRecord(40, []byte(`{}`))},
	}
	handler := &stubHandler{}

	err := NewProcessor(reader, handler, WithFetchBackoff(time.Millisecond)).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
}

func TestProcessorCommitsSkippedEvents(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{notificationRecord(50, []byte(`{}`))}}
	handler := &stubHandler{err: ErrSkip}

	before := testutil.ToFloat64(messagesCounter.WithLabelValues("hydration_notifications", events.TypeNotificationCreated, outcomeSkipped))
	err := NewProcessor(reader, handler).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, reader.commitCalls)
	require.InDelta(t, before+1, testutil.ToFloat64(messagesCounter.WithLabelValues("hydration_notifications", events.TypeNotificationCreated, outcomeSkipped)), 0.0001)
}

type stubReader struct {
	fetchErrs   []error
	messages    []kafka.Message
	index       int
	commitCalls int
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		return kafka.Message{}, err
	}
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}
