package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded per consumed message.
const (
	outcomeProcessed    = "processed"
	outcomeSkipped      = "skipped"
	outcomeHandlerError = "handler_error"
	outcomeDecodeError  = "decode_error"
)

var (
	messagesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hydration_service",
		Subsystem: "consumer",
		Name:      "messages_total",
		Help:      "Consumed Kafka messages by topic, event type and outcome.",
	}, []string{"topic", "event_type", "outcome"})

	lastMessageGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hydration_service",
		Subsystem: "consumer",
		Name:      "last_message_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successfully processed message per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(messagesCounter, lastMessageGauge)
}

func recordOutcome(msg Message, outcome string) {
	messagesCounter.WithLabelValues(msg.Topic, msg.EventType, outcome).Inc()
	if outcome == outcomeProcessed && !msg.Timestamp.IsZero() {
		lastMessageGauge.WithLabelValues(msg.Topic).Set(float64(msg.Timestamp.Unix()))
	}
}
