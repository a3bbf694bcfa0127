package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/hydration/internal/domain"
)

const (
	minWeightKg = 20
	maxWeightKg = 300
)

// ProfileStore is the storage the profile service needs.
type ProfileStore interface {
	domain.UserRepository
	domain.ProfileRepository
}

// ProfileService maintains user profiles and keeps today's plan in step with them.
type ProfileService struct {
	store  ProfileStore
	engine PlanEngine
	logger *zap.Logger
	now    func() time.Time
}

// NewProfileService constructs a ProfileService.
func NewProfileService(store ProfileStore, engine PlanEngine, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		store:  store,
		engine: engine,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateProfileInput captures a new profile.
type CreateProfileInput struct {
	UserID        string
	WeightKg      *float64
	ActivityLevel domain.ActivityLevel
	GoalType      domain.GoalType
	DateOfBirth   *time.Time
}

// ProfilePatch captures a partial profile update.
type ProfilePatch struct {
	UserID        *string
	WeightKg      *float64
	ActivityLevel *domain.ActivityLevel
	GoalType      *domain.GoalType
	DateOfBirth   *time.Time
}

// ProfileSaved pairs a stored profile with the plan it produced for today.
type ProfileSaved struct {
	Profile domain.UserProfile
	Plan    *domain.DailyPlan
}

// Create stores the profile and builds today's plan from it.
func (s *ProfileService) Create(ctx context.Context, input CreateProfileInput) (*ProfileSaved, error) {
	if err := s.requireUser(ctx, input.UserID); err != nil {
		return nil, err
	}
	now := s.now()
	profile := domain.UserProfile{
		ID:            uuid.NewString(),
		UserID:        input.UserID,
		WeightKg:      input.WeightKg,
		ActivityLevel: input.ActivityLevel,
		GoalType:      input.GoalType,
		DateOfBirth:   input.DateOfBirth,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	plan, err := s.engine.FindOrCreateToday(ctx, profile.UserID, profile)
	if err != nil {
		return nil, err
	}
	return &ProfileSaved{Profile: profile, Plan: plan}, nil
}

// Update applies a partial update. Today's plan is found or created whenever the patch supplies a
// field feeding the target, even if its value is unchanged.
func (s *ProfileService) Update(ctx context.Context, id string, patch ProfilePatch) (*ProfileSaved, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *current

	if patch.UserID != nil && *patch.UserID != current.UserID {
		if err := s.requireUser(ctx, *patch.UserID); err != nil {
			return nil, err
		}
		updated.UserID = *patch.UserID
	}
	if patch.WeightKg != nil {
		updated.WeightKg = patch.WeightKg
	}
	if patch.ActivityLevel != nil {
		updated.ActivityLevel = *patch.ActivityLevel
	}
	if patch.GoalType != nil {
		updated.GoalType = *patch.GoalType
	}
	if patch.DateOfBirth != nil {
		updated.DateOfBirth = patch.DateOfBirth
	}
	if err := validateProfile(updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now()

	if err := s.store.UpdateProfile(ctx, updated); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	saved := &ProfileSaved{Profile: updated}
	if !patch.touchesTarget() {
		return saved, nil
	}
	plan, err := s.engine.FindOrCreateToday(ctx, current.UserID, updated)
	if err != nil {
		return nil, err
	}
	saved.Plan = plan
	return saved, nil
}

// Get fetches a profile by id.
func (s *ProfileService) Get(ctx context.Context, id string) (*domain.UserProfile, error) {
	profile, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.NotFound("UserProfile", id)
	}
	return profile, nil
}

// GetByUser fetches the profile owned by a user.
func (s *ProfileService) GetByUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	profile, err := s.store.FindProfileByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.NotFound("UserProfile", "for user "+userID)
	}
	return profile, nil
}

func (s *ProfileService) requireUser(ctx context.Context, userID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.NotFound("User", userID)
	}
	return nil
}

func validateProfile(p domain.UserProfile) error {
	if p.WeightKg != nil && (*p.WeightKg < minWeightKg || *p.WeightKg > maxWeightKg) {
		return domain.Invalid("weight must be between %d and %d kg", minWeightKg, maxWeightKg)
	}
	if !p.ActivityLevel.Valid() {
		return domain.Invalid("activity_level must be one of low, medium, high")
	}
	if !p.GoalType.Valid() {
		return domain.Invalid("goal_type must be one of lose_weight, maintain, gain_muscle")
	}
	return nil
}

func (p ProfilePatch) touchesTarget() bool {
	return p.WeightKg != nil || p.ActivityLevel != nil || p.GoalType != nil
}
