package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/observability"
)

// IntakeStore is the storage the intake service needs.
type IntakeStore interface {
	domain.PlanRepository
	domain.IntakeRepository
}

// IntakeService records drinks against a plan.
type IntakeService struct {
	store     IntakeStore
	engine    PlanEngine
	evaluator Evaluator
	logger    *zap.Logger
	now       func() time.Time
}

// NewIntakeService constructs an IntakeService.
func NewIntakeService(store IntakeStore, engine PlanEngine, evaluator Evaluator, logger *zap.Logger) *IntakeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeService{
		store:     store,
		engine:    engine,
		evaluator: evaluator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateIntakeInput captures a new intake. IntakeTime defaults to now.
type CreateIntakeInput struct {
	DailyPlanID string
	VolumeMl    int
	IntakeTime  *time.Time
}

// IntakePatch captures a partial intake update.
type IntakePatch struct {
	DailyPlanID *string
	VolumeMl    *int
	IntakeTime  *time.Time
}

// IntakeRecorded is the outcome of a recorded intake: the intake, the recalculated plan and any
// advice it triggered.
type IntakeRecorded struct {
	Intake          domain.Intake
	Plan            domain.DailyPlan
	Recommendations []domain.Recommendation
}

// Create stores the intake, recalculates its plan and evaluates the intake rules.
func (s *IntakeService) Create(ctx context.Context, input CreateIntakeInput) (*IntakeRecorded, error) {
	if input.VolumeMl < 0 {
		return nil, domain.Invalid("volume_ml must not be negative")
	}
	if _, err := requirePlan(ctx, s.store, input.DailyPlanID); err != nil {
		return nil, err
	}

	now := s.now()
	at := now
	if input.IntakeTime != nil {
		at = input.IntakeTime.UTC()
	}
	intake := domain.Intake{
		ID:          uuid.NewString(),
		DailyPlanID: input.DailyPlanID,
		VolumeMl:    input.VolumeMl,
		IntakeTime:  at,
		CreatedAt:   now,
	}
	if err := s.store.CreateIntake(ctx, intake); err != nil {
		return nil, fmt.Errorf("create intake: %w", err)
	}
	observability.RecordIntake(at)

	plan, err := s.engine.RecalculateFromIntakes(ctx, intake.DailyPlanID)
	if err != nil {
		return nil, err
	}
	recs := advise(ctx, s.logger, "intake_id", intake.ID, s.evaluator.EvaluateIntake)

	return &IntakeRecorded{Intake: intake, Plan: *plan, Recommendations: recs}, nil
}

// Update applies a partial update. Moving an intake between plans recalculates both plans.
func (s *IntakeService) Update(ctx context.Context, id string, patch IntakePatch) (*domain.Intake, error) {
	if patch.VolumeMl != nil && *patch.VolumeMl < 0 {
		return nil, domain.Invalid("volume_ml must not be negative")
	}
	intake, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previousPlan := intake.DailyPlanID

	if patch.DailyPlanID != nil && *patch.DailyPlanID != intake.DailyPlanID {
		if _, err := requirePlan(ctx, s.store, *patch.DailyPlanID); err != nil {
			return nil, err
		}
		intake.DailyPlanID = *patch.DailyPlanID
	}
	if patch.VolumeMl != nil {
		intake.VolumeMl = *patch.VolumeMl
	}
	if patch.IntakeTime != nil {
		intake.IntakeTime = patch.IntakeTime.UTC()
	}

	if err := s.store.UpdateIntake(ctx, *intake); err != nil {
		return nil, fmt.Errorf("update intake: %w", err)
	}
	if _, err := s.engine.RecalculateFromIntakes(ctx, previousPlan); err != nil {
		return nil, err
	}
	if intake.DailyPlanID != previousPlan {
		if _, err := s.engine.RecalculateFromIntakes(ctx, intake.DailyPlanID); err != nil {
			return nil, err
		}
	}
	return intake, nil
}

// Delete removes the intake and recalculates its plan.
func (s *IntakeService) Delete(ctx context.Context, id string) error {
	intake, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteIntake(ctx, id); err != nil {
		return fmt.Errorf("delete intake: %w", err)
	}
	_, err = s.engine.RecalculateFromIntakes(ctx, intake.DailyPlanID)
	return err
}

// Get fetches an intake by id.
func (s *IntakeService) Get(ctx context.Context, id string) (*domain.Intake, error) {
	intake, err := s.store.GetIntake(ctx, id)
	if err != nil {
		return nil, err
	}
	if intake == nil {
		return nil, domain.NotFound("Intake", id)
	}
	return intake, nil
}

// List pages through intakes, newest first.
func (s *IntakeService) List(ctx context.Context, filter domain.IntakeFilter) ([]domain.Intake, *domain.IntakeCursor, error) {
	return s.store.ListIntakes(ctx, filter)
}
