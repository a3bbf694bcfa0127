package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const maxBackoff = time.Hour

// DLQManager replays parked events into the outbox and quarantines those that keep failing.
type DLQManager struct {
	pool       *pgxpool.Pool
	logger     *zap.Logger
	maxRetries int
	baseDelay  time.Duration
}

// NewDLQManager constructs a DLQManager with the provided pool and retry configuration.
func NewDLQManager(pool *pgxpool.Pool, logger *zap.Logger, maxRetries int, baseDelay time.Duration) *DLQManager {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DLQManager{pool: pool, logger: logger.Named("dlq"), maxRetries: maxRetries, baseDelay: baseDelay}
}

// Run calls RunOnce every interval until ctx is cancelled.
func (m *DLQManager) Run(ctx context.Context, interval time.Duration, batchSize int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			processed, err := m.RunOnce(ctx, batchSize)
			if err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error("dlq pass failed", zap.Error(err))
			} else if processed > 0 {
				m.logger.Info("dlq pass complete", zap.Int("processed", processed))
			}
			updateBacklogGauge(ctx, m.pool)
		}
	}
}

// RunOnce handles up to batchSize due entries and returns how many it settled. Entries locked by
// another manager are left alone.
func (m *DLQManager) RunOnce(ctx context.Context, batchSize int) (int, error) {
	rows, err := m.pool.Query(ctx,
		`SELECT dlq_id FROM outbox_dlq
          WHERE quarantined_at IS NULL AND (next_retry_at IS NULL OR next_retry_at <= NOW())
          ORDER BY created_at
          LIMIT $1`, batchSize)
	if err != nil {
		return 0, fmt.Errorf("select due dlq entries: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, fmt.Errorf("select due dlq entries: %w", err)
	}

	settled := 0
	var errs []error
	for _, id := range ids {
		handled, err := m.settle(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("dlq entry %d: %w", id, err))
			continue
		}
		if handled {
			settled++
		}
	}
	return settled, errors.Join(errs...)
}

func (m *DLQManager) settle(ctx context.Context, id int64) (bool, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT dlq_id, event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id,
                schema_subject, partition_key, retry_count
           FROM outbox_dlq
          WHERE dlq_id = $1 AND quarantined_at IS NULL
          FOR UPDATE SKIP LOCKED`, id)
	if err != nil {
		return false, err
	}
	entry, err := pgx.CollectExactlyOneRow(rows, scanDLQEntry)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if entry.RetryCount >= m.maxRetries {
		return true, m.quarantine(ctx, tx, entry)
	}

	if _, err := tx.Exec(ctx, "SAVEPOINT requeue"); err != nil {
		return false, err
	}
	if requeueErr := requeueOutbox(ctx, tx, entry); requeueErr != nil {
		if _, err := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT requeue"); err != nil {
			return false, err
		}
		return true, m.reschedule(ctx, tx, entry, requeueErr)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM outbox_dlq WHERE dlq_id = $1`, entry.ID); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	recordDLQ(dlqRequeued, entry)
	return true, nil
}

func (m *DLQManager) quarantine(ctx context.Context, tx pgx.Tx, entry dlqEntry) error {
	if _, err := tx.Exec(ctx,
		`UPDATE outbox_dlq SET quarantined_at = NOW(), quarantine_reason = $1 WHERE dlq_id = $2`,
		"retry limit reached", entry.ID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	recordDLQ(dlqQuarantined, entry)
	m.logger.Warn("entry quarantined",
		zap.Int64("dlq_id", entry.ID),
		zap.String("event_type", entry.EventType),
		zap.Int("retries", entry.RetryCount))
	return nil
}

func (m *DLQManager) reschedule(ctx context.Context, tx pgx.Tx, entry dlqEntry, cause error) error {
	delay := backoffDelay(m.baseDelay, entry.RetryCount+1)
	if _, err := tx.Exec(ctx,
		`UPDATE outbox_dlq
            SET retry_count = retry_count + 1,
                last_attempt_at = NOW(),
                next_retry_at = NOW() + $1::interval,
                reason = $2
          WHERE dlq_id = $3`,
		delay, cause.Error(), entry.ID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	recordDLQ(dlqRetry, entry)
	m.logger.Info("requeue failed, retry scheduled",
		zap.Int64("dlq_id", entry.ID),
		zap.Duration("delay", delay),
		zap.Error(cause))
	return nil
}

// backoffDelay doubles base for every attempt, capped at one hour.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 20 {
		return maxBackoff
	}
	delay := time.Duration(1<<uint(attempt-1)) * base
	if delay > maxBackoff || delay <= 0 {
		return maxBackoff
	}
	return delay
}

func requeueOutbox(ctx context.Context, tx pgx.Tx, entry dlqEntry) error {
	if entry.SchemaSubject == "" {
		return fmt.Errorf("missing schema_subject for dlq entry %d", entry.ID)
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
                   VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := tx.Exec(ctx, stmt,
		entry.AggregateType,
		entry.AggregateID,
		entry.EventType,
		entry.Topic,
		entry.SchemaSubject,
		entry.PartitionKey,
		entry.Payload,
	)
	return err
}

type dlqEntry struct {
	ID            int64
	EventID       int64
	EventType     string
	Topic         string
	Payload       []byte
	Reason        string
	AggregateType string
	AggregateID   string
	SchemaSubject string
	PartitionKey  string
	RetryCount    int
}

func scanDLQEntry(row pgx.CollectableRow) (dlqEntry, error) {
	var entry dlqEntry
	err := row.Scan(&entry.ID, &entry.EventID, &entry.EventType, &entry.Topic, &entry.Payload, &entry.Reason, &entry.AggregateType, &entry.AggregateID, &entry.SchemaSubject, &entry.PartitionKey, &entry.RetryCount)
	return entry, err
}
