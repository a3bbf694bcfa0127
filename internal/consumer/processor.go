// Package consumer reads hydration events back from Kafka for downstream processing.
package consumer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Reader is the part of *kafka.Reader the processor depends on.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler receives decoded messages.
type Handler interface {
	Handle(context.Context, Message) error
}

// ErrSkip is returned by a Handler for events it does not consume. The offset is still committed.
var ErrSkip = errors.New("consumer: event not handled")

// Message is a record published by the outbox dispatcher with its framing removed.
type Message struct {
	Topic         string
	Partition     int
	Offset        int64
	Timestamp     time.Time
	EventType     string
	AggregateID   string
	SchemaSubject string
	SchemaID      int
	Payload       json.RawMessage
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for fetch, decode and handler failures.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFetchBackoff sets the pause after a failed fetch.
func WithFetchBackoff(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.fetchBackoff = d
		}
	}
}

// Processor pulls messages, decodes them and hands them to a Handler. Offsets are committed
// after the handler succeeds, so a failing message is redelivered to the group.
type Processor struct {
	reader       Reader
	handler      Handler
	logger       *zap.Logger
	fetchBackoff time.Duration
}

// NewProcessor constructs a Processor.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:       reader,
		handler:      handler,
		logger:       zap.NewNop(),
		fetchBackoff: time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("consumer")
	return p
}

// Run processes messages until ctx is cancelled or the reader reports cancellation.
func (p *Processor) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		record, err := p.reader.FetchMessage(ctx)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		case err != nil:
			p.logger.Warn("fetch failed", zap.Error(err), zap.Duration("backoff", p.fetchBackoff))
			if !sleep(ctx, p.fetchBackoff) {
				return ctx.Err()
			}
			continue
		}

		if p.process(ctx, record) {
			if err := p.reader.CommitMessages(ctx, record); err != nil {
				p.logger.Error("commit failed",
					zap.String("topic", record.Topic),
					zap.Int64("offset", record.Offset),
					zap.Error(err))
			}
		}
	}
	return ctx.Err()
}

// process reports whether the record's offset may be committed.
func (p *Processor) process(ctx context.Context, record kafka.Message) bool {
	msg, err := decodeMessage(record)
	if err != nil {
		p.logger.Warn("dropping undecodable record",
			zap.String("topic", record.Topic),
			zap.Int("partition", record.Partition),
			zap.Int64("offset", record.Offset),
			zap.Error(err))
		recordOutcome(Message{Topic: record.Topic}, outcomeDecodeError)
		// Committed anyway; a poison record must not block the partition.
		return true
	}

	err = p.handler.Handle(ctx, msg)
	if errors.Is(err, ErrSkip) {
		recordOutcome(msg, outcomeSkipped)
		return true
	}
	if err != nil {
		p.logger.Error("handler failed",
			zap.String("event_type", msg.EventType),
			zap.String("aggregate_id", msg.AggregateID),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		recordOutcome(msg, outcomeHandlerError)
		return false
	}
	recordOutcome(msg, outcomeProcessed)
	return true
}

func decodeMessage(record kafka.Message) (Message, error) {
	if len(record.Value) < 5 {
		return Message{}, fmt.Errorf("frame too short: %d bytes", len(record.Value))
	}
	if magic := record.Value[0]; magic != 0 {
		return Message{}, fmt.Errorf("unexpected magic byte %d", magic)
	}

	headers := make(map[string]string, len(record.Headers))
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	eventType, ok := headers["event_type"]
	if !ok || eventType == "" {
		return Message{}, errors.New("missing event_type header")
	}

	return Message{
		Topic:         record.Topic,
		Partition:     record.Partition,
		Offset:        record.Offset,
		Timestamp:     record.Time,
		EventType:     eventType,
		AggregateID:   headers["aggregate_id"],
		SchemaSubject: headers["schema_subject"],
		SchemaID:      int(binary.BigEndian.Uint32(record.Value[1:5])),
		Payload:       json.RawMessage(append([]byte(nil), record.Value[5:]...)),
	}, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
