package domain

import "time"

// ActivityLevel describes how physically active a user is day to day.
type ActivityLevel string

const (
	ActivityLevelLow    ActivityLevel = "low"
	ActivityLevelMedium ActivityLevel = "medium"
	ActivityLevelHigh   ActivityLevel = "high"
)

// Valid reports whether the level is one of the known values. The empty level means unset.
func (l ActivityLevel) Valid() bool {
	switch l {
	case "", ActivityLevelLow, ActivityLevelMedium, ActivityLevelHigh:
		return true
	}
	return false
}

// GoalType is the body goal a user pursues.
type GoalType string

const (
	GoalLoseWeight GoalType = "lose_weight"
	GoalMaintain   GoalType = "maintain"
	GoalGainMuscle GoalType = "gain_muscle"
)

// Valid reports whether the goal is one of the known values. The empty goal means unset.
func (g GoalType) Valid() bool {
	switch g {
	case "", GoalLoseWeight, GoalMaintain, GoalGainMuscle:
		return true
	}
	return false
}

// Intensity grades the effort of a logged activity.
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// Valid reports whether the intensity is one of the known values. The empty intensity means unset.
func (i Intensity) Valid() bool {
	switch i {
	case "", IntensityLow, IntensityMedium, IntensityHigh:
		return true
	}
	return false
}

// Severity is the urgency tier of a recommendation.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RecommendationType identifies the rule that produced a recommendation.
type RecommendationType string

const (
	RecommendationLateBehind         RecommendationType = "LATE_BEHIND"
	RecommendationStrongBehind       RecommendationType = "STRONG_BEHIND"
	RecommendationTooLargePortion    RecommendationType = "TOO_LARGE_PORTION"
	RecommendationActivityExtraWater RecommendationType = "ACTIVITY_EXTRA_WATER"
	RecommendationGoodPace           RecommendationType = "GOOD_PACE"
	RecommendationExcellentPace      RecommendationType = "EXCELLENT_PACE"
	RecommendationTooRareIntakes     RecommendationType = "TOO_RARE_INTAKES"
)

// User is the account that owns profiles and plans.
type User struct {
	ID        string
	Email     string
	Role      string
	Status    string
	CreatedAt time.Time
}

// UserProfile holds the body parameters the hydration target is derived from.
type UserProfile struct {
	ID            string
	UserID        string
	WeightKg      *float64
	ActivityLevel ActivityLevel
	GoalType      GoalType
	DateOfBirth   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DailyPlan is the per-user, per-day hydration target with its cached running totals.
// TotalIntakeMl and DeviationMl are derived from the plan's intakes and are always recomputed in full.
type DailyPlan struct {
	ID              string
	UserID          string
	Date            time.Time
	TargetMl        *int
	TotalIntakeMl   int
	DeviationMl     *int
	AmountOfIntakes *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Intake is a single drink logged against a plan.
type Intake struct {
	ID          string
	DailyPlanID string
	VolumeMl    int
	IntakeTime  time.Time
	CreatedAt   time.Time
}

// Activity is a workout logged against a plan; WaterBonusMl raises the plan target.
type Activity struct {
	ID           string
	DailyPlanID  string
	ActivityType string
	Intensity    Intensity
	StartTime    *time.Time
	EndTime      *time.Time
	DurationMin  *int
	WaterBonusMl *int
	CreatedAt    time.Time
}

// Recommendation is an advisory attached to an intake.
type Recommendation struct {
	ID        string
	IntakeID  string
	Type      RecommendationType
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

// Notification is the record synthesised for a recommendation of medium or high severity.
type Notification struct {
	ID               string
	RecommendationID string
	Type             string
	Title            string
	Body             string
	Channel          string
	Status           string
	SentAt           time.Time
}
