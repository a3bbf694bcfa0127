package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaProducer publishes framed outbox events. Writers are created lazily, one per topic, and
// share the broker list.
type KafkaProducer struct {
	brokers      []string
	batchTimeout time.Duration
	errorLog     kafka.Logger

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaProducer creates a KafkaProducer. Writer errors are reported through logger.
func NewKafkaProducer(brokers []string, logger *zap.Logger) *KafkaProducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	sugar := logger.Named("kafka").Sugar()
	return &KafkaProducer{
		brokers:      brokers,
		batchTimeout: 50 * time.Millisecond,
		errorLog:     kafka.LoggerFunc(sugar.Errorf),
		writers:      make(map[string]*kafka.Writer),
	}
}

// WriteMessages blocks until every message of the batch is acknowledged by all in-sync replicas.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	writer, err := p.writer(topic)
	if err != nil {
		return err
	}
	return writer.WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writer(topic string) (*kafka.Writer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writers == nil {
		return nil, fmt.Errorf("kafka producer closed")
	}
	if w, ok := p.writers[topic]; ok {
		return w, nil
	}
	// Keys are intake or recommendation ids; hashing keeps one aggregate on one partition.
	w := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		BatchTimeout: p.batchTimeout,
		ErrorLogger:  p.errorLog,
	}
	p.writers[topic] = w
	return w, nil
}

// Close flushes and releases all writers. Later writes fail.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	writers := p.writers
	p.writers = nil
	p.mu.Unlock()

	var errs []error
	for topic, w := range writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer %s: %w", topic, err))
		}
	}
	return errors.Join(errs...)
}
