package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/events"
)

const recommendationColumns = `recommendation_id, intake_id, recommend_type, message, severity, created_at`

func scanRecommendation(row pgx.CollectableRow) (domain.Recommendation, error) {
	var (
		rec      domain.Recommendation
		kind     string
		severity string
	)
	err := row.Scan(&rec.ID, &rec.IntakeID, &kind, &rec.Message, &severity, &rec.CreatedAt)
	rec.Type = domain.RecommendationType(kind)
	rec.Severity = domain.Severity(severity)
	return rec, err
}

// GetRecommendation implements domain.RecommendationRepository.
func (r *Repository) GetRecommendation(ctx context.Context, id string) (*domain.Recommendation, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+recommendationColumns+` FROM recommendations WHERE recommendation_id = $1`, id)
	if err != nil {
		return nil, err
	}
	rec, err := pgx.CollectExactlyOneRow(rows, scanRecommendation)
	if missing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// HasRecommendation implements domain.RecommendationRepository.
func (r *Repository) HasRecommendation(ctx context.Context, intakeID string, kind domain.RecommendationType) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM recommendations WHERE intake_id = $1 AND recommend_type = $2)`,
		intakeID, string(kind),
	).Scan(&exists)
	if pgCode(err) == codeInvalidText {
		return false, nil
	}
	return exists, err
}

// CreateRecommendation implements domain.RecommendationRepository and queues a
// recommendation.created event.
func (r *Repository) CreateRecommendation(ctx context.Context, rec domain.Recommendation) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var planID string
		if err := tx.QueryRow(ctx, `SELECT dailyplan_id FROM intakes WHERE intake_id = $1`, rec.IntakeID).Scan(&planID); err != nil {
			if missing(err) {
				return domain.NotFound("Intake", rec.IntakeID)
			}
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO recommendations (recommendation_id, intake_id, recommend_type, message, severity, created_at)
             VALUES ($1,$2,$3,$4,$5,$6)`,
			rec.ID, rec.IntakeID, string(rec.Type), rec.Message, string(rec.Severity), rec.CreatedAt,
		); err != nil {
			return translate(err, "recommendation "+rec.ID+" already exists", "Intake", rec.IntakeID)
		}

		return insertOutbox(ctx, tx, rec.ID, events.TypeRecommendationCreated, rec.IntakeID, events.RecommendationCreated{
			RecommendationID: rec.ID,
			IntakeID:         rec.IntakeID,
			DailyPlanID:      planID,
			Type:             string(rec.Type),
			Severity:         string(rec.Severity),
			Message:          rec.Message,
			CreatedAt:        rec.CreatedAt,
		})
	})
}

// ListRecommendations implements domain.RecommendationRepository. Results are newest first.
func (r *Repository) ListRecommendations(ctx context.Context, filter domain.RecommendationFilter) ([]domain.Recommendation, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.IntakeIDs != nil {
		if len(filter.IntakeIDs) == 0 {
			return []domain.Recommendation{}, nil
		}
		args = append(args, filter.IntakeIDs)
		clauses = append(clauses, fmt.Sprintf("intake_id = ANY($%d::uuid[])", len(args)))
	}
	if filter.Severity != "" {
		args = append(args, string(filter.Severity))
		clauses = append(clauses, fmt.Sprintf("severity = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		clauses = append(clauses, fmt.Sprintf("recommend_type = $%d", len(args)))
	}

	query := `SELECT ` + recommendationColumns + ` FROM recommendations`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC, seq DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	recs, err := pgx.CollectRows(rows, scanRecommendation)
	if pgCode(err) == codeInvalidText {
		return []domain.Recommendation{}, nil
	}
	return recs, err
}

const notificationColumns = `notification_id, recommendation_id, notification_type, title, body, channel, status, sent_at`

func scanNotification(row pgx.CollectableRow) (domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(&n.ID, &n.RecommendationID, &n.Type, &n.Title, &n.Body, &n.Channel, &n.Status, &n.SentAt)
	return n, err
}

// GetNotification implements domain.NotificationRepository.
func (r *Repository) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE notification_id = $1`, id)
	if err != nil {
		return nil, err
	}
	n, err := pgx.CollectExactlyOneRow(rows, scanNotification)
	if missing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateNotification implements domain.NotificationRepository and queues a notification.created
// event keyed by the recommendation.
func (r *Repository) CreateNotification(ctx context.Context, n domain.Notification) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO notifications (notification_id, recommendation_id, notification_type, title, body, channel, status, sent_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			n.ID, n.RecommendationID, n.Type, n.Title, n.Body, n.Channel, n.Status, n.SentAt,
		); err != nil {
			return translate(err, "notification "+n.ID+" already exists", "Recommendation", n.RecommendationID)
		}

		return insertOutbox(ctx, tx, n.ID, events.TypeNotificationCreated, n.RecommendationID, events.NotificationCreated{
			NotificationID:   n.ID,
			RecommendationID: n.RecommendationID,
			Type:             n.Type,
			Title:            n.Title,
			Body:             n.Body,
			Channel:          n.Channel,
			Status:           n.Status,
			SentAt:           n.SentAt,
		})
	})
}

// ListNotifications implements domain.NotificationRepository. Results are newest first.
func (r *Repository) ListNotifications(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.RecommendationID != "" {
		args = append(args, filter.RecommendationID)
		clauses = append(clauses, fmt.Sprintf("recommendation_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Channel != "" {
		args = append(args, filter.Channel)
		clauses = append(clauses, fmt.Sprintf("channel = $%d", len(args)))
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY sent_at DESC, notification_id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	notifications, err := pgx.CollectRows(rows, scanNotification)
	if pgCode(err) == codeInvalidText {
		return []domain.Notification{}, nil
	}
	return notifications, err
}
