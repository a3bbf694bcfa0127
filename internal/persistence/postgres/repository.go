// Package postgres implements domain.Store on PostgreSQL and writes outbox events in the same
// transaction as the rows they describe.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/outbox"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
)

// Repository provides Postgres-backed persistence for the hydration domain.
type Repository struct {
	pool *pgxpool.Pool
}

var _ domain.Store = (*Repository)(nil)

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// missing reports whether a lookup found nothing. Malformed ids cannot match any row.
func missing(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || pgCode(err) == codeInvalidText
}

// translate maps constraint violations onto domain errors. parent names the referenced resource
// a foreign key violation points at.
func translate(err error, conflict string, parent, parentID string) error {
	switch pgCode(err) {
	case codeUniqueViolation:
		return domain.Conflict("%s", conflict)
	case codeForeignKeyViolation, codeInvalidText:
		return domain.NotFound(parent, parentID)
	}
	return err
}

func expectOne(tag pgconn.CommandTag, resource, id string) error {
	if tag.RowsAffected() == 0 {
		return domain.NotFound(resource, id)
	}
	return nil
}

func (r *Repository) inTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertOutbox(ctx context.Context, tx pgx.Tx, aggregateID, eventType, partitionKey string, payload any) error {
	route, ok := outbox.RouteFor(eventType)
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (dedupe_key) DO NOTHING`

	_, err = tx.Exec(ctx, stmt,
		route.AggregateType,
		aggregateID,
		eventType,
		route.Topic,
		route.SchemaSubject,
		partitionKey,
		body,
		fmt.Sprintf("%s:%s", aggregateID, eventType),
	)
	return err
}
