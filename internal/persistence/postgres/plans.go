package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/hydration/internal/domain"
)

const planColumns = `dailyplan_id, user_id, plan_date, target_ml, total_intake_ml, deviation_ml, amount_of_intakes, created_at, updated_at`

func scanPlan(row pgx.Row) (domain.DailyPlan, error) {
	var p domain.DailyPlan
	err := row.Scan(&p.ID, &p.UserID, &p.Date, &p.TargetMl, &p.TotalIntakeMl, &p.DeviationMl, &p.AmountOfIntakes, &p.CreatedAt, &p.UpdatedAt)
	p.Date = p.Date.UTC()
	return p, err
}

func planConflict(plan domain.DailyPlan) string {
	return fmt.Sprintf("daily plan for user %s on %s already exists", plan.UserID, plan.Date.Format(time.DateOnly))
}

// GetPlan implements domain.PlanRepository.
func (r *Repository) GetPlan(ctx context.Context, id string) (*domain.DailyPlan, error) {
	plan, err := scanPlan(r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM daily_plans WHERE dailyplan_id = $1`, id))
	if missing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// FindPlanByUserDate implements domain.PlanRepository.
func (r *Repository) FindPlanByUserDate(ctx context.Context, userID string, date time.Time) (*domain.DailyPlan, error) {
	plan, err := scanPlan(r.pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM daily_plans WHERE user_id = $1 AND plan_date = $2`, userID, date))
	if missing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListPlans implements domain.PlanRepository. Plans are ordered by date, newest first.
func (r *Repository) ListPlans(ctx context.Context, filter domain.PlanFilter) ([]domain.DailyPlan, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		clauses = append(clauses, fmt.Sprintf("plan_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		clauses = append(clauses, fmt.Sprintf("plan_date <= $%d", len(args)))
	}

	query := `SELECT ` + planColumns + ` FROM daily_plans`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY plan_date DESC, dailyplan_id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	plans, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DailyPlan, error) {
		return scanPlan(row)
	})
	if pgCode(err) == codeInvalidText {
		return []domain.DailyPlan{}, nil
	}
	return plans, err
}

// CreatePlan implements domain.PlanRepository.
func (r *Repository) CreatePlan(ctx context.Context, plan domain.DailyPlan) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO daily_plans (dailyplan_id, user_id, plan_date, target_ml, total_intake_ml, deviation_ml, amount_of_intakes, created_at, updated_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		plan.ID, plan.UserID, plan.Date, plan.TargetMl, plan.TotalIntakeMl, plan.DeviationMl, plan.AmountOfIntakes, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return translate(err, planConflict(plan), "User", plan.UserID)
	}
	return nil
}

// UpdatePlan implements domain.PlanRepository.
func (r *Repository) UpdatePlan(ctx context.Context, plan domain.DailyPlan) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE daily_plans
            SET user_id = $2, plan_date = $3, target_ml = $4, total_intake_ml = $5, deviation_ml = $6, amount_of_intakes = $7, updated_at = $8
          WHERE dailyplan_id = $1`,
		plan.ID, plan.UserID, plan.Date, plan.TargetMl, plan.TotalIntakeMl, plan.DeviationMl, plan.AmountOfIntakes, plan.UpdatedAt,
	)
	if err != nil {
		return translate(err, planConflict(plan), "User", plan.UserID)
	}
	return expectOne(tag, "DailyPlan", plan.ID)
}

// DeletePlan implements domain.PlanRepository. Intakes, activities and recommendations cascade.
func (r *Repository) DeletePlan(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM daily_plans WHERE dailyplan_id = $1`, id)
	if err != nil {
		if missing(err) {
			return domain.NotFound("DailyPlan", id)
		}
		return err
	}
	return expectOne(tag, "DailyPlan", id)
}
