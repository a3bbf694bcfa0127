package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/hydration/internal/domain"
)

const intakeColumns = `intake_id, dailyplan_id, volume_ml, intake_time, created_at`

func scanIntake(row pgx.CollectableRow) (domain.Intake, error) {
	var in domain.Intake
	err := row.Scan(&in.ID, &in.DailyPlanID, &in.VolumeMl, &in.IntakeTime, &in.CreatedAt)
	in.IntakeTime = in.IntakeTime.UTC()
	return in, err
}

func (r *Repository) queryIntakes(ctx context.Context, query string, args ...any) ([]domain.Intake, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	intakes, err := pgx.CollectRows(rows, scanIntake)
	if pgCode(err) == codeInvalidText {
		return []domain.Intake{}, nil
	}
	return intakes, err
}

// GetIntake implements domain.IntakeRepository.
func (r *Repository) GetIntake(ctx context.Context, id string) (*domain.Intake, error) {
	intakes, err := r.queryIntakes(ctx, `SELECT `+intakeColumns+` FROM intakes WHERE intake_id = $1`, id)
	if err != nil || len(intakes) == 0 {
		return nil, err
	}
	return &intakes[0], nil
}

// ListIntakesByPlan implements domain.IntakeRepository.
func (r *Repository) ListIntakesByPlan(ctx context.Context, planID string) ([]domain.Intake, error) {
	return r.queryIntakes(ctx,
		`SELECT `+intakeColumns+` FROM intakes WHERE dailyplan_id = $1 ORDER BY intake_time DESC, intake_id DESC`, planID)
}

// ListIntakes implements domain.IntakeRepository using keyset pagination on (intake_time, intake_id).
func (r *Repository) ListIntakes(ctx context.Context, filter domain.IntakeFilter) ([]domain.Intake, *domain.IntakeCursor, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.DailyPlanID != "" {
		args = append(args, filter.DailyPlanID)
		clauses = append(clauses, fmt.Sprintf("dailyplan_id = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		clauses = append(clauses, fmt.Sprintf("intake_time >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		clauses = append(clauses, fmt.Sprintf("intake_time <= $%d", len(args)))
	}
	if c := filter.Cursor; c != nil {
		args = append(args, c.IntakeTime, c.ID)
		clauses = append(clauses, fmt.Sprintf("(intake_time, intake_id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	query := `SELECT ` + intakeColumns + ` FROM intakes`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY intake_time DESC, intake_id DESC`
	if filter.Limit > 0 {
		// One extra row tells whether another page exists.
		args = append(args, filter.Limit+1)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	intakes, err := r.queryIntakes(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	if filter.Limit <= 0 || len(intakes) <= filter.Limit {
		return intakes, nil, nil
	}
	page := intakes[:filter.Limit]
	last := page[len(page)-1]
	return page, &domain.IntakeCursor{IntakeTime: last.IntakeTime, ID: last.ID}, nil
}

// PreviousIntake implements domain.IntakeRepository.
func (r *Repository) PreviousIntake(ctx context.Context, planID string, before time.Time) (*domain.Intake, error) {
	intakes, err := r.queryIntakes(ctx,
		`SELECT `+intakeColumns+` FROM intakes
          WHERE dailyplan_id = $1 AND intake_time < $2
          ORDER BY intake_time DESC, intake_id DESC
          LIMIT 1`, planID, before)
	if err != nil || len(intakes) == 0 {
		return nil, err
	}
	return &intakes[0], nil
}

// LatestIntakes implements domain.IntakeRepository.
func (r *Repository) LatestIntakes(ctx context.Context, planID string, limit int) ([]domain.Intake, error) {
	query := `SELECT ` + intakeColumns + ` FROM intakes WHERE dailyplan_id = $1 ORDER BY intake_time DESC, intake_id DESC`
	if limit > 0 {
		return r.queryIntakes(ctx, query+` LIMIT $2`, planID, limit)
	}
	return r.queryIntakes(ctx, query, planID)
}

// CreateIntake implements domain.IntakeRepository.
func (r *Repository) CreateIntake(ctx context.Context, intake domain.Intake) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO intakes (intake_id, dailyplan_id, volume_ml, intake_time, created_at) VALUES ($1,$2,$3,$4,$5)`,
		intake.ID, intake.DailyPlanID, intake.VolumeMl, intake.IntakeTime, intake.CreatedAt,
	)
	if err != nil {
		return translate(err, "intake "+intake.ID+" already exists", "DailyPlan", intake.DailyPlanID)
	}
	return nil
}

// UpdateIntake implements domain.IntakeRepository.
func (r *Repository) UpdateIntake(ctx context.Context, intake domain.Intake) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE intakes SET dailyplan_id = $2, volume_ml = $3, intake_time = $4 WHERE intake_id = $1`,
		intake.ID, intake.DailyPlanID, intake.VolumeMl, intake.IntakeTime,
	)
	if err != nil {
		return translate(err, "intake conflict", "DailyPlan", intake.DailyPlanID)
	}
	return expectOne(tag, "Intake", intake.ID)
}

// DeleteIntake implements domain.IntakeRepository. Recommendations and their notifications cascade.
func (r *Repository) DeleteIntake(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM intakes WHERE intake_id = $1`, id)
	if err != nil {
		if missing(err) {
			return domain.NotFound("Intake", id)
		}
		return err
	}
	return expectOne(tag, "Intake", id)
}
