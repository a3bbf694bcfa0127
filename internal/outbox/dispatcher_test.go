package outbox

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/hydration/internal/events"
)

type stubProducer struct {
	mu     sync.Mutex
	err    error
	writes []writtenBatch
}

type writtenBatch struct {
	topic    string
	messages []kafka.Message
}

func (s *stubProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	copied := make([]kafka.Message, len(msgs))
	copy(copied, msgs)
	s.writes = append(s.writes, writtenBatch{topic: topic, messages: copied})
	return nil
}

type stubRegistry struct {
	mu    sync.Mutex
	id    int
	err   error
	calls []string
}

func (s *stubRegistry) EnsureSchema(ctx context.Context, subject, schema string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, subject)
	if s.err != nil {
		return 0, s.err
	}
	return s.id, nil
}

func notificationMessage(id int64) Message {
	payload, _ := json.Marshal(events.NotificationCreated{NotificationID: "n", RecommendationID: "r"})
	return Message{
		EventID:       id,
		AggregateType: "notification",
		AggregateID:   "n",
		EventType:     events.TypeNotificationCreated,
		Topic:         TopicNotifications,
		SchemaSubject: TopicNotifications + "-value",
		PartitionKey:  "r",
		Payload:       payload,
	}
}

func TestEncodeWireFormat(t *testing.T) {
	frame := encodeWireFormat(258, []byte(`{"a":1}`))
	require.Equal(t, byte(0), frame[0])
	require.Equal(t, uint32(258), binary.BigEndian.Uint32(frame[1:5]))
	require.Equal(t, `{"a":1}`, string(frame[5:]))
}

func TestDeliverGroupsByTopicAndCachesSchemaIDs(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{id: 21}
	d := NewDispatcher(nil, producer, registry, nil, time.Second, 10)

	require.NoError(t, d.deliver(context.Background(), []Message{notificationMessage(1), notificationMessage(2)}))

	require.Len(t, producer.writes, 1)
	require.Equal(t, TopicNotifications, producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 2)
	require.Len(t, registry.calls, 1)

	msg := producer.writes[0].messages[0]
	require.Equal(t, []byte("r"), msg.Key)
	require.Equal(t, uint32(21), binary.BigEndian.Uint32(msg.Value[1:5]))
	require.Contains(t, msg.Headers, kafka.Header{Key: "event_type", Value: []byte(events.TypeNotificationCreated)})
}

func TestDeliverRejectsUnknownEventType(t *testing.T) {
	registry := &stubRegistry{id: 1}
	d := NewDispatcher(nil, &stubProducer{}, registry, nil, time.Second, 10)

	msg := notificationMessage(1)
	msg.EventType = "plan.exploded"
	err := d.deliver(context.Background(), []Message{msg})
	require.ErrorContains(t, err, "no schema metadata for event_type=plan.exploded")
	require.Empty(t, registry.calls)
}

func TestDeliverSurfacesProducerErrors(t *testing.T) {
	d := NewDispatcher(nil, &stubProducer{err: errors.New("broker down")}, &stubRegistry{id: 3}, nil, time.Second, 10)
	err := d.deliver(context.Background(), []Message{notificationMessage(1)})
	require.ErrorContains(t, err, "broker down")
}

func TestBackoffDelay(t *testing.T) {
	require.Equal(t, time.Minute, backoffDelay(time.Minute, 1))
	require.Equal(t, 4*time.Minute, backoffDelay(time.Minute, 3))
	require.Equal(t, time.Hour, backoffDelay(time.Minute, 7))
	require.Equal(t, time.Hour, backoffDelay(time.Minute, 64))
}

func TestSchemaRegistryRegistersMissingSubject(t *testing.T) {
	var registered bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/subjects/hydration_notifications-value/versions/latest":
			if !registered {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(`{"id": 11}`))
		case r.Method == http.MethodPost && r.URL.Path == "/subjects/hydration_notifications-value/versions":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "JSON", body["schemaType"])
			registered = true
			_, _ = w.Write([]byte(`{"id": 11}`))
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer server.Close()

	client := NewSchemaRegistryClient(server.URL + "/")
	id, err := client.EnsureSchema(context.Background(), "hydration_notifications-value", notificationCreatedSchema)
	require.NoError(t, err)
	require.Equal(t, 11, id)
	require.True(t, registered)

	id, err = client.EnsureSchema(context.Background(), "hydration_notifications-value", notificationCreatedSchema)
	require.NoError(t, err)
	require.Equal(t, 11, id)
}

func TestSchemaRegistrySurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "registry overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewSchemaRegistryClient(server.URL).EnsureSchema(context.Background(), "s", "{}")
	require.ErrorContains(t, err, "status 503")
}
