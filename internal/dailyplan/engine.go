// Package dailyplan owns the per-user, per-day hydration plan and keeps its cached totals consistent
// with the intakes, activities and profile behind it.
package dailyplan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/hydration"
	"example.com/hydration/internal/observability"
)

// Store is the storage the engine reads and writes.
type Store interface {
	domain.UserRepository
	domain.ProfileRepository
	domain.PlanRepository
	domain.IntakeRepository
	domain.ActivityRepository
}

// Engine orchestrates plan creation and recalculation. Every mutation of a plan's cached fields
// holds that plan's stripe lock, so recalculations of one plan never interleave.
type Engine struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
	locks  stripedLocks
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the wall clock used for "today" and deviation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine constructs an Engine.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateInput captures the fields accepted when creating a plan directly.
type CreateInput struct {
	UserID          string
	Date            *time.Time
	TargetMl        *int
	TotalIntakeMl   *int
	DeviationMl     *int
	AmountOfIntakes *int
}

// Patch captures a partial plan update; nil fields are left untouched.
type Patch struct {
	UserID          *string
	Date            *time.Time
	TargetMl        *int
	TotalIntakeMl   *int
	DeviationMl     *int
	AmountOfIntakes *int
}

// Get fetches a plan by id.
func (e *Engine) Get(ctx context.Context, id string) (*domain.DailyPlan, error) {
	plan, err := e.store.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.NotFound("DailyPlan", id)
	}
	return plan, nil
}

// List returns plans matching the filter.
func (e *Engine) List(ctx context.Context, filter domain.PlanFilter) ([]domain.DailyPlan, error) {
	return e.store.ListPlans(ctx, filter)
}

// Create persists a plan for an existing user. The date is normalised to midnight UTC and defaults
// to today. When a target is supplied the deviation is reconciled against it immediately.
func (e *Engine) Create(ctx context.Context, input CreateInput) (*domain.DailyPlan, error) {
	if err := e.requireUser(ctx, input.UserID); err != nil {
		return nil, err
	}
	if err := validateAmounts(input.TargetMl, input.TotalIntakeMl, input.AmountOfIntakes); err != nil {
		return nil, err
	}

	now := e.now()
	date := now
	if input.Date != nil {
		date = *input.Date
	}
	total := 0
	if input.TotalIntakeMl != nil {
		total = *input.TotalIntakeMl
	}

	plan := domain.DailyPlan{
		ID:              uuid.NewString(),
		UserID:          input.UserID,
		Date:            hydration.StartOfDay(date),
		TargetMl:        input.TargetMl,
		TotalIntakeMl:   total,
		DeviationMl:     input.DeviationMl,
		AmountOfIntakes: input.AmountOfIntakes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	unlock := e.locks.lock(plan.ID)
	defer unlock()

	if err := e.store.CreatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("create daily plan: %w", err)
	}
	observability.RecordPlanCreated()

	// A zero target carries no pace, so a supplied deviation is kept as given.
	if plan.TargetMl == nil || *plan.TargetMl == 0 {
		return &plan, nil
	}
	deviation := hydration.Deviation(plan.TargetMl, plan.Date, plan.TotalIntakeMl, now)
	if equalInt(deviation, plan.DeviationMl) {
		return &plan, nil
	}
	plan.DeviationMl = deviation
	plan.UpdatedAt = now
	if err := e.store.UpdatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("reconcile deviation: %w", err)
	}
	return &plan, nil
}

// CreateManual creates a plan the way a user would from the planner: only today or a future date
// is accepted, and a missing target is derived from the user's profile when one exists.
func (e *Engine) CreateManual(ctx context.Context, input CreateInput) (*domain.DailyPlan, error) {
	if input.Date != nil && hydration.StartOfDay(*input.Date).Before(hydration.StartOfDay(e.now())) {
		return nil, domain.Invalid("date must be today or in the future")
	}
	if input.TargetMl == nil && input.UserID != "" {
		profile, err := e.store.FindProfileByUser(ctx, input.UserID)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			input.TargetMl = hydration.TargetForProfile(profile)
			if input.AmountOfIntakes == nil {
				input.AmountOfIntakes = hydration.AmountOfIntakes(input.TargetMl)
			}
		}
	}
	return e.Create(ctx, input)
}

// Update applies a partial patch verbatim. Changing the owner requires the new user to exist.
func (e *Engine) Update(ctx context.Context, id string, patch Patch) (*domain.DailyPlan, error) {
	if err := validateAmounts(patch.TargetMl, patch.TotalIntakeMl, patch.AmountOfIntakes); err != nil {
		return nil, err
	}

	unlock := e.locks.lock(id)
	defer unlock()

	plan, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.UserID != nil && *patch.UserID != plan.UserID {
		if err := e.requireUser(ctx, *patch.UserID); err != nil {
			return nil, err
		}
		plan.UserID = *patch.UserID
	}
	if patch.Date != nil {
		plan.Date = hydration.StartOfDay(*patch.Date)
	}
	if patch.TargetMl != nil {
		plan.TargetMl = patch.TargetMl
	}
	if patch.TotalIntakeMl != nil {
		plan.TotalIntakeMl = *patch.TotalIntakeMl
	}
	if patch.DeviationMl != nil {
		plan.DeviationMl = patch.DeviationMl
	}
	if patch.AmountOfIntakes != nil {
		plan.AmountOfIntakes = patch.AmountOfIntakes
	}
	plan.UpdatedAt = e.now()

	if err := e.store.UpdatePlan(ctx, *plan); err != nil {
		return nil, fmt.Errorf("update daily plan: %w", err)
	}
	return plan, nil
}

// Delete removes a plan. Its intakes and activities go with it at the storage layer.
func (e *Engine) Delete(ctx context.Context, id string) error {
	unlock := e.locks.lock(id)
	defer unlock()

	if _, err := e.Get(ctx, id); err != nil {
		return err
	}
	return e.store.DeletePlan(ctx, id)
}

// RecalculateFromIntakes re-sums the plan's intakes and recomputes its deviation.
func (e *Engine) RecalculateFromIntakes(ctx context.Context, id string) (*domain.DailyPlan, error) {
	unlock := e.locks.lock(id)
	defer unlock()
	return e.recalculateFromIntakes(ctx, id)
}

// RecalculateFromActivities re-sums the plan's water bonus, rebuilds the target from the owner's
// profile and then refreshes the intake totals against the new target.
func (e *Engine) RecalculateFromActivities(ctx context.Context, id string) (*domain.DailyPlan, error) {
	unlock := e.locks.lock(id)
	defer unlock()
	return e.recalculateFromActivities(ctx, id)
}

// FindOrCreateToday returns the user's plan for today, creating it from the profile when missing.
// An existing plan gets its intake count and target refreshed from the profile.
func (e *Engine) FindOrCreateToday(ctx context.Context, userID string, profile domain.UserProfile) (*domain.DailyPlan, error) {
	today := hydration.StartOfDay(e.now())

	existing, err := e.store.FindPlanByUserDate(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return e.refreshToday(ctx, existing.ID, profile)
	}

	target := hydration.Target(profile.WeightKg, profile.ActivityLevel, profile.GoalType)
	zero := 0
	plan, err := e.Create(ctx, CreateInput{
		UserID:          userID,
		Date:            &today,
		TargetMl:        target,
		TotalIntakeMl:   &zero,
		DeviationMl:     &zero,
		AmountOfIntakes: hydration.AmountOfIntakes(target),
	})
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return nil, err
	}

	// Lost the create race; the winner's plan is authoritative.
	e.logger.Info("daily plan created concurrently, refreshing existing",
		zap.String("user_id", userID),
		zap.Time("date", today),
	)
	existing, err = e.store.FindPlanByUserDate(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("daily plan for user %s vanished after conflict: %w", userID, domain.ErrConflict)
	}
	return e.refreshToday(ctx, existing.ID, profile)
}

func (e *Engine) refreshToday(ctx context.Context, id string, profile domain.UserProfile) (*domain.DailyPlan, error) {
	unlock := e.locks.lock(id)
	defer unlock()

	plan, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	target := hydration.Target(profile.WeightKg, profile.ActivityLevel, profile.GoalType)
	plan.AmountOfIntakes = hydration.AmountOfIntakes(target)
	plan.UpdatedAt = e.now()
	if err := e.store.UpdatePlan(ctx, *plan); err != nil {
		return nil, fmt.Errorf("update intake count: %w", err)
	}
	return e.recalculateFromActivities(ctx, id)
}

func (e *Engine) recalculateFromIntakes(ctx context.Context, id string) (*domain.DailyPlan, error) {
	started := time.Now()
	plan, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	intakes, err := e.store.ListIntakesByPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list intakes: %w", err)
	}

	total := 0
	for _, intake := range intakes {
		total += intake.VolumeMl
	}
	now := e.now()
	plan.TotalIntakeMl = total
	plan.DeviationMl = hydration.Deviation(plan.TargetMl, plan.Date, total, now)
	plan.UpdatedAt = now

	if err := e.store.UpdatePlan(ctx, *plan); err != nil {
		return nil, fmt.Errorf("persist intake totals: %w", err)
	}
	observability.RecordPlanRecalculated("intakes", started)
	return plan, nil
}

func (e *Engine) recalculateFromActivities(ctx context.Context, id string) (*domain.DailyPlan, error) {
	started := time.Now()
	plan, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	activities, err := e.store.ListActivitiesByPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	bonus := 0
	for _, activity := range activities {
		if activity.WaterBonusMl != nil {
			bonus += *activity.WaterBonusMl
		}
	}

	profile, err := e.store.FindProfileByUser(ctx, plan.UserID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	// Without a profile there is no base to rebuild from, so the bonus stacks onto the stored target.
	base := plan.TargetMl
	if profile != nil {
		base = hydration.TargetForProfile(profile)
	}
	target := bonus
	if base != nil {
		target += *base
	}
	if target > 0 {
		plan.TargetMl = &target
	} else {
		plan.TargetMl = nil
	}
	plan.UpdatedAt = e.now()

	if err := e.store.UpdatePlan(ctx, *plan); err != nil {
		return nil, fmt.Errorf("persist target: %w", err)
	}
	observability.RecordPlanRecalculated("activities", started)
	return e.recalculateFromIntakes(ctx, id)
}

func (e *Engine) requireUser(ctx context.Context, userID string) error {
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.NotFound("User", userID)
	}
	return nil
}

func validateAmounts(target, total, amount *int) error {
	if target != nil && *target < 0 {
		return domain.Invalid("target_ml must not be negative")
	}
	if total != nil && *total < 0 {
		return domain.Invalid("total_intake_ml must not be negative")
	}
	if amount != nil && *amount < 0 {
		return domain.Invalid("amount_of_intakes must not be negative")
	}
	return nil
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
