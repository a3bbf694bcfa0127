package domain

import (
	"context"
	"time"
)

// Get* lookups return (nil, nil) when the record does not exist; callers decide whether that is an error.

// UserRepository persists accounts.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user User) error
}

// ProfileRepository persists user profiles.
type ProfileRepository interface {
	GetProfile(ctx context.Context, id string) (*UserProfile, error)
	FindProfileByUser(ctx context.Context, userID string) (*UserProfile, error)
	CreateProfile(ctx context.Context, profile UserProfile) error
	UpdateProfile(ctx context.Context, profile UserProfile) error
}

// PlanFilter narrows plan listings. Zero values are ignored; From and To are inclusive.
type PlanFilter struct {
	UserID string
	From   time.Time
	To     time.Time
}

// PlanRepository persists daily plans. CreatePlan returns an error wrapping ErrConflict when a plan
// for the same (user, date) already exists.
type PlanRepository interface {
	GetPlan(ctx context.Context, id string) (*DailyPlan, error)
	FindPlanByUserDate(ctx context.Context, userID string, date time.Time) (*DailyPlan, error)
	ListPlans(ctx context.Context, filter PlanFilter) ([]DailyPlan, error)
	CreatePlan(ctx context.Context, plan DailyPlan) error
	UpdatePlan(ctx context.Context, plan DailyPlan) error
	DeletePlan(ctx context.Context, id string) error
}

// IntakeCursor models the intake pagination token.
type IntakeCursor struct {
	IntakeTime time.Time
	ID         string
}

// IntakeFilter narrows intake listings. Results are ordered by intake time, newest first.
type IntakeFilter struct {
	DailyPlanID string
	From        time.Time
	To          time.Time
	Cursor      *IntakeCursor
	Limit       int
}

// IntakeRepository persists intakes.
type IntakeRepository interface {
	GetIntake(ctx context.Context, id string) (*Intake, error)
	ListIntakesByPlan(ctx context.Context, planID string) ([]Intake, error)
	ListIntakes(ctx context.Context, filter IntakeFilter) ([]Intake, *IntakeCursor, error)
	// PreviousIntake returns the latest intake on the plan strictly before the given instant.
	PreviousIntake(ctx context.Context, planID string, before time.Time) (*Intake, error)
	// LatestIntakes returns up to limit intakes of the plan, newest first.
	LatestIntakes(ctx context.Context, planID string, limit int) ([]Intake, error)
	CreateIntake(ctx context.Context, intake Intake) error
	UpdateIntake(ctx context.Context, intake Intake) error
	DeleteIntake(ctx context.Context, id string) error
}

// ActivityRepository persists activities.
type ActivityRepository interface {
	GetActivity(ctx context.Context, id string) (*Activity, error)
	ListActivitiesByPlan(ctx context.Context, planID string) ([]Activity, error)
	CreateActivity(ctx context.Context, activity Activity) error
	UpdateActivity(ctx context.Context, activity Activity) error
	DeleteActivity(ctx context.Context, id string) error
}

// RecommendationFilter narrows recommendation listings. Results are ordered newest first.
type RecommendationFilter struct {
	IntakeIDs []string
	Severity  Severity
	Type      RecommendationType
	Limit     int
}

// RecommendationRepository persists recommendations.
type RecommendationRepository interface {
	GetRecommendation(ctx context.Context, id string) (*Recommendation, error)
	HasRecommendation(ctx context.Context, intakeID string, kind RecommendationType) (bool, error)
	CreateRecommendation(ctx context.Context, rec Recommendation) error
	ListRecommendations(ctx context.Context, filter RecommendationFilter) ([]Recommendation, error)
}

// NotificationFilter narrows notification listings.
type NotificationFilter struct {
	RecommendationID string
	Status           string
	Channel          string
}

// NotificationRepository persists notifications.
type NotificationRepository interface {
	GetNotification(ctx context.Context, id string) (*Notification, error)
	CreateNotification(ctx context.Context, notification Notification) error
	ListNotifications(ctx context.Context, filter NotificationFilter) ([]Notification, error)
}

// Store is the full storage collaborator implemented by the memory and postgres backends.
type Store interface {
	UserRepository
	ProfileRepository
	PlanRepository
	IntakeRepository
	ActivityRepository
	RecommendationRepository
	NotificationRepository
}
