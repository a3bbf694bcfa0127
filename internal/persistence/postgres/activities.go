package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"example.com/hydration/internal/domain"
)

const activityColumns = `activity_id, dailyplan_id, activity_type, intensity, start_time, end_time, duration_min, water_bonus_ml, created_at`

func scanActivity(row pgx.CollectableRow) (domain.Activity, error) {
	var (
		a         domain.Activity
		intensity string
	)
	err := row.Scan(&a.ID, &a.DailyPlanID, &a.ActivityType, &intensity, &a.StartTime, &a.EndTime, &a.DurationMin, &a.WaterBonusMl, &a.CreatedAt)
	a.Intensity = domain.Intensity(intensity)
	return a, err
}

func (r *Repository) queryActivities(ctx context.Context, query string, args ...any) ([]domain.Activity, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	activities, err := pgx.CollectRows(rows, scanActivity)
	if pgCode(err) == codeInvalidText {
		return []domain.Activity{}, nil
	}
	return activities, err
}

// GetActivity implements domain.ActivityRepository.
func (r *Repository) GetActivity(ctx context.Context, id string) (*domain.Activity, error) {
	activities, err := r.queryActivities(ctx, `SELECT `+activityColumns+` FROM activities WHERE activity_id = $1`, id)
	if err != nil || len(activities) == 0 {
		return nil, err
	}
	return &activities[0], nil
}

// ListActivitiesByPlan implements domain.ActivityRepository. Activities are ordered by creation.
func (r *Repository) ListActivitiesByPlan(ctx context.Context, planID string) ([]domain.Activity, error) {
	return r.queryActivities(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE dailyplan_id = $1 ORDER BY created_at, activity_id`, planID)
}

// CreateActivity implements domain.ActivityRepository.
func (r *Repository) CreateActivity(ctx context.Context, a domain.Activity) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO activities (activity_id, dailyplan_id, activity_type, intensity, start_time, end_time, duration_min, water_bonus_ml, created_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.DailyPlanID, a.ActivityType, string(a.Intensity), a.StartTime, a.EndTime, a.DurationMin, a.WaterBonusMl, a.CreatedAt,
	)
	if err != nil {
		return translate(err, "activity "+a.ID+" already exists", "DailyPlan", a.DailyPlanID)
	}
	return nil
}

// UpdateActivity implements domain.ActivityRepository.
func (r *Repository) UpdateActivity(ctx context.Context, a domain.Activity) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE activities
            SET dailyplan_id = $2, activity_type = $3, intensity = $4, start_time = $5, end_time = $6, duration_min = $7, water_bonus_ml = $8
          WHERE activity_id = $1`,
		a.ID, a.DailyPlanID, a.ActivityType, string(a.Intensity), a.StartTime, a.EndTime, a.DurationMin, a.WaterBonusMl,
	)
	if err != nil {
		return translate(err, "activity conflict", "DailyPlan", a.DailyPlanID)
	}
	return expectOne(tag, "Activity", a.ID)
}

// DeleteActivity implements domain.ActivityRepository.
func (r *Repository) DeleteActivity(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE activity_id = $1`, id)
	if err != nil {
		if missing(err) {
			return domain.NotFound("Activity", id)
		}
		return err
	}
	return expectOne(tag, "Activity", id)
}
