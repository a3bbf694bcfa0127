// Package tracking records intakes, activities, profiles and users, and runs the cascade each
// mutation owes the daily plan: recalculate first, then evaluate advice.
package tracking

import (
	"context"

	"go.uber.org/zap"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/observability"
)

// PlanEngine recomputes plan state after a mutation.
type PlanEngine interface {
	RecalculateFromIntakes(ctx context.Context, id string) (*domain.DailyPlan, error)
	RecalculateFromActivities(ctx context.Context, id string) (*domain.DailyPlan, error)
	FindOrCreateToday(ctx context.Context, userID string, profile domain.UserProfile) (*domain.DailyPlan, error)
}

// Evaluator produces recommendations for a freshly recalculated plan.
type Evaluator interface {
	EvaluateIntake(ctx context.Context, intakeID string) ([]domain.Recommendation, error)
	EvaluateActivity(ctx context.Context, activityID string) ([]domain.Recommendation, error)
}

// advise runs an evaluation whose failure must not undo the committed mutation.
func advise(ctx context.Context, logger *zap.Logger, subject, id string, eval func(context.Context, string) ([]domain.Recommendation, error)) []domain.Recommendation {
	recs, err := eval(ctx, id)
	if err != nil {
		observability.RecordCascadeFailure("recommendation")
		logger.Warn("recommendation evaluation failed",
			zap.String(subject, id),
			zap.Error(err),
		)
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	return recs
}

func requirePlan(ctx context.Context, plans domain.PlanRepository, id string) (*domain.DailyPlan, error) {
	plan, err := plans.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.NotFound("DailyPlan", id)
	}
	return plan, nil
}
