package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/hydration"
)

var activityTypes = map[string]struct{}{
	"running": {}, "cycling": {}, "swimming": {}, "walking": {}, "gym": {}, "yoga": {},
	"dancing": {}, "hiking": {}, "tennis": {}, "basketball": {}, "football": {}, "other": {},
}

// ActivityStore is the storage the activity service needs.
type ActivityStore interface {
	domain.PlanRepository
	domain.ActivityRepository
}

// ActivityService records workouts against a plan.
type ActivityService struct {
	store     ActivityStore
	engine    PlanEngine
	evaluator Evaluator
	logger    *zap.Logger
	now       func() time.Time
}

// NewActivityService constructs an ActivityService.
func NewActivityService(store ActivityStore, engine PlanEngine, evaluator Evaluator, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		store:     store,
		engine:    engine,
		evaluator: evaluator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateActivityInput captures a new activity.
type CreateActivityInput struct {
	DailyPlanID  string
	ActivityType string
	Intensity    domain.Intensity
	StartTime    *time.Time
	EndTime      *time.Time
	DurationMin  *int
}

// ActivityPatch captures a partial activity update.
type ActivityPatch struct {
	DailyPlanID  *string
	ActivityType *string
	Intensity    *domain.Intensity
	StartTime    *time.Time
	EndTime      *time.Time
	DurationMin  *int
}

// ActivityRecorded is the outcome of a recorded activity.
type ActivityRecorded struct {
	Activity        domain.Activity
	Plan            domain.DailyPlan
	Recommendations []domain.Recommendation
}

// Create stores the activity with its water bonus, raises the plan target and evaluates the
// activity rule.
func (s *ActivityService) Create(ctx context.Context, input CreateActivityInput) (*ActivityRecorded, error) {
	activity := domain.Activity{
		ID:           uuid.NewString(),
		DailyPlanID:  input.DailyPlanID,
		ActivityType: input.ActivityType,
		Intensity:    input.Intensity,
		StartTime:    utcPtr(input.StartTime),
		EndTime:      utcPtr(input.EndTime),
		DurationMin:  input.DurationMin,
		CreatedAt:    s.now(),
	}
	if err := validateActivity(activity); err != nil {
		return nil, err
	}
	if _, err := requirePlan(ctx, s.store, activity.DailyPlanID); err != nil {
		return nil, err
	}
	activity.WaterBonusMl = hydration.WaterBonus(activity.DurationMin, activity.Intensity)

	if err := s.store.CreateActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}
	plan, err := s.engine.RecalculateFromActivities(ctx, activity.DailyPlanID)
	if err != nil {
		return nil, err
	}
	recs := advise(ctx, s.logger, "activity_id", activity.ID, s.evaluator.EvaluateActivity)

	return &ActivityRecorded{Activity: activity, Plan: *plan, Recommendations: recs}, nil
}

// Update applies a partial update and recomputes the water bonus. Moving an activity between
// plans recalculates both plans.
func (s *ActivityService) Update(ctx context.Context, id string, patch ActivityPatch) (*domain.Activity, error) {
	activity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previousPlan := activity.DailyPlanID

	if patch.DailyPlanID != nil && *patch.DailyPlanID != activity.DailyPlanID {
		if _, err := requirePlan(ctx, s.store, *patch.DailyPlanID); err != nil {
			return nil, err
		}
		activity.DailyPlanID = *patch.DailyPlanID
	}
	if patch.ActivityType != nil {
		activity.ActivityType = *patch.ActivityType
	}
	if patch.Intensity != nil {
		activity.Intensity = *patch.Intensity
	}
	if patch.StartTime != nil {
		activity.StartTime = utcPtr(patch.StartTime)
	}
	if patch.EndTime != nil {
		activity.EndTime = utcPtr(patch.EndTime)
	}
	if patch.DurationMin != nil {
		activity.DurationMin = patch.DurationMin
	}
	if err := validateActivity(*activity); err != nil {
		return nil, err
	}
	activity.WaterBonusMl = hydration.WaterBonus(activity.DurationMin, activity.Intensity)

	if err := s.store.UpdateActivity(ctx, *activity); err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}
	if _, err := s.engine.RecalculateFromActivities(ctx, previousPlan); err != nil {
		return nil, err
	}
	if activity.DailyPlanID != previousPlan {
		if _, err := s.engine.RecalculateFromActivities(ctx, activity.DailyPlanID); err != nil {
			return nil, err
		}
	}
	return activity, nil
}

// Delete removes the activity and recalculates its plan.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	activity, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteActivity(ctx, id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	_, err = s.engine.RecalculateFromActivities(ctx, activity.DailyPlanID)
	return err
}

// Get fetches an activity by id.
func (s *ActivityService) Get(ctx context.Context, id string) (*domain.Activity, error) {
	activity, err := s.store.GetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, domain.NotFound("Activity", id)
	}
	return activity, nil
}

// ListByPlan returns the activities logged against a plan.
func (s *ActivityService) ListByPlan(ctx context.Context, planID string) ([]domain.Activity, error) {
	if _, err := requirePlan(ctx, s.store, planID); err != nil {
		return nil, err
	}
	return s.store.ListActivitiesByPlan(ctx, planID)
}

func validateActivity(a domain.Activity) error {
	if a.ActivityType != "" {
		if _, ok := activityTypes[a.ActivityType]; !ok {
			return domain.Invalid("activity_type %q is not supported", a.ActivityType)
		}
	}
	if !a.Intensity.Valid() {
		return domain.Invalid("intensity must be one of low, medium, high")
	}
	if a.DurationMin != nil && *a.DurationMin <= 0 {
		return domain.Invalid("duration_min must be a positive number of minutes")
	}
	if a.StartTime != nil && a.EndTime != nil && !a.StartTime.Before(*a.EndTime) {
		return domain.Invalid("start_time must be less than end_time")
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
