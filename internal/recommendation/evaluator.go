// Package recommendation evaluates hydration rules against a plan's freshly recalculated state and
// records the advice that applies.
package recommendation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/observability"
)

const (
	feedIntakeWindow = 10
	feedLimit        = 20
)

// Store is the storage the evaluator reads and writes.
type Store interface {
	GetPlan(ctx context.Context, id string) (*domain.DailyPlan, error)
	GetIntake(ctx context.Context, id string) (*domain.Intake, error)
	PreviousIntake(ctx context.Context, planID string, before time.Time) (*domain.Intake, error)
	LatestIntakes(ctx context.Context, planID string, limit int) ([]domain.Intake, error)
	GetActivity(ctx context.Context, id string) (*domain.Activity, error)
	domain.RecommendationRepository
}

// Notifier synthesises a notification for a stored recommendation.
type Notifier interface {
	Dispatch(ctx context.Context, rec domain.Recommendation) (*domain.Notification, error)
}

// Evaluator applies the rule table and hands every created recommendation to the notifier.
type Evaluator struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// Option customises an Evaluator.
type Option func(*Evaluator)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the clock used for created_at.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(store Store, notifier Notifier, opts ...Option) *Evaluator {
	e := &Evaluator{
		store:    store,
		notifier: notifier,
		logger:   zap.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateIntake runs every intake rule against the intake and its plan's current deviation.
// Several recommendations may fire for one intake.
func (e *Evaluator) EvaluateIntake(ctx context.Context, intakeID string) ([]domain.Recommendation, error) {
	intake, err := e.store.GetIntake(ctx, intakeID)
	if err != nil {
		return nil, err
	}
	if intake == nil {
		return nil, domain.NotFound("Intake", intakeID)
	}
	plan, err := e.store.GetPlan(ctx, intake.DailyPlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.NotFound("DailyPlan", intake.DailyPlanID)
	}

	f := facts{deviation: plan.DeviationMl, volumeMl: intake.VolumeMl}
	previous, err := e.store.PreviousIntake(ctx, plan.ID, intake.IntakeTime)
	if err != nil {
		return nil, fmt.Errorf("load previous intake: %w", err)
	}
	if previous != nil {
		f.hasPrevious = true
		f.gapMinutes = intake.IntakeTime.Sub(previous.IntakeTime).Minutes()
	}

	var created []domain.Recommendation
	for _, r := range intakeRules {
		if !r.fires(f) {
			continue
		}
		rec, err := e.record(ctx, intake.ID, r)
		if err != nil {
			return created, err
		}
		if rec != nil {
			e.notify(ctx, *rec)
			created = append(created, *rec)
		}
	}
	return created, nil
}

// EvaluateActivity recommends extra water when an activity's bonus exceeds the threshold. The
// recommendation is attached to the most recent intake on the plan; without one nothing fires.
func (e *Evaluator) EvaluateActivity(ctx context.Context, activityID string) ([]domain.Recommendation, error) {
	activity, err := e.store.GetActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, domain.NotFound("Activity", activityID)
	}
	if activity.WaterBonusMl == nil || *activity.WaterBonusMl <= activityBonusMl {
		return nil, nil
	}
	plan, err := e.store.GetPlan(ctx, activity.DailyPlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.NotFound("DailyPlan", activity.DailyPlanID)
	}

	latest, err := e.store.LatestIntakes(ctx, plan.ID, 1)
	if err != nil {
		return nil, fmt.Errorf("load latest intake: %w", err)
	}
	if len(latest) == 0 {
		return nil, nil
	}

	rec, err := e.record(ctx, latest[0].ID, activityRule)
	if err != nil || rec == nil {
		return nil, err
	}
	e.notify(ctx, *rec)
	return []domain.Recommendation{*rec}, nil
}

// Feed returns the newest recommendations attached to the plan's latest intakes.
func (e *Evaluator) Feed(ctx context.Context, planID string) ([]domain.Recommendation, error) {
	plan, err := e.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.NotFound("DailyPlan", planID)
	}
	intakes, err := e.store.LatestIntakes(ctx, planID, feedIntakeWindow)
	if err != nil {
		return nil, err
	}
	if len(intakes) == 0 {
		return []domain.Recommendation{}, nil
	}
	ids := make([]string, len(intakes))
	for i, intake := range intakes {
		ids[i] = intake.ID
	}
	return e.store.ListRecommendations(ctx, domain.RecommendationFilter{IntakeIDs: ids, Limit: feedLimit})
}

// Get fetches a recommendation by id.
func (e *Evaluator) Get(ctx context.Context, id string) (*domain.Recommendation, error) {
	rec, err := e.store.GetRecommendation(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.NotFound("Recommendation", id)
	}
	return rec, nil
}

// List returns recommendations matching the filter.
func (e *Evaluator) List(ctx context.Context, filter domain.RecommendationFilter) ([]domain.Recommendation, error) {
	return e.store.ListRecommendations(ctx, filter)
}

func (e *Evaluator) record(ctx context.Context, intakeID string, r rule) (*domain.Recommendation, error) {
	if r.dedupe {
		exists, err := e.store.HasRecommendation(ctx, intakeID, r.kind)
		if err != nil {
			return nil, fmt.Errorf("check existing %s: %w", r.kind, err)
		}
		if exists {
			return nil, nil
		}
	}

	rec := domain.Recommendation{
		ID:        uuid.NewString(),
		IntakeID:  intakeID,
		Type:      r.kind,
		Message:   r.message,
		Severity:  r.severity,
		CreatedAt: e.now(),
	}
	if err := e.store.CreateRecommendation(ctx, rec); err != nil {
		return nil, fmt.Errorf("store %s recommendation: %w", r.kind, err)
	}
	observability.RecordRecommendation(string(rec.Type), string(rec.Severity))
	return &rec, nil
}

// notify dispatches the notification for a stored recommendation. Failures are logged so that the
// recommendation survives.
func (e *Evaluator) notify(ctx context.Context, rec domain.Recommendation) {
	if e.notifier == nil {
		return
	}
	if _, err := e.notifier.Dispatch(ctx, rec); err != nil {
		observability.RecordCascadeFailure("notification")
		e.logger.Warn("notification dispatch failed",
			zap.String("recommendation_id", rec.ID),
			zap.String("type", string(rec.Type)),
			zap.Error(err),
		)
	}
}
