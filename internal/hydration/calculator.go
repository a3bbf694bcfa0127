// Package hydration holds the pure target, deviation and water bonus formulas.
package hydration

import (
	"math"
	"time"

	"example.com/hydration/internal/domain"
)

const (
	// BaseMlPerKg is the daily water need per kilogram of body weight.
	BaseMlPerKg = 35
	// PortionMl is the reference portion used to derive the intake count.
	PortionMl = 250
	// StepMl is the smoothing granularity applied to targets and deviations.
	StepMl = 100
)

// ActivityFactor scales the base need by the user's activity level.
func ActivityFactor(level domain.ActivityLevel) float64 {
	switch level {
	case domain.ActivityLevelMedium:
		return 1.1
	case domain.ActivityLevelHigh:
		return 1.2
	default:
		return 1.0
	}
}

// GoalFactor scales the base need by the user's goal.
func GoalFactor(goal domain.GoalType) float64 {
	switch goal {
	case domain.GoalLoseWeight:
		return 1.05
	case domain.GoalGainMuscle:
		return 1.10
	default:
		return 1.0
	}
}

// IntensityFactor is the ml of water owed per minute of activity.
func IntensityFactor(intensity domain.Intensity) int {
	switch intensity {
	case domain.IntensityLow:
		return 4
	case domain.IntensityMedium:
		return 7
	case domain.IntensityHigh:
		return 10
	default:
		return 0
	}
}

// Target returns the daily target in ml rounded to StepMl, or nil when the weight is unknown.
func Target(weightKg *float64, level domain.ActivityLevel, goal domain.GoalType) *int {
	if weightKg == nil || *weightKg == 0 || math.IsNaN(*weightKg) {
		return nil
	}
	raw := *weightKg * BaseMlPerKg * ActivityFactor(level) * GoalFactor(goal)
	target := roundHalfUp(raw/StepMl) * StepMl
	return &target
}

// TargetForProfile is Target applied to a stored profile. A nil profile has no target.
func TargetForProfile(profile *domain.UserProfile) *int {
	if profile == nil {
		return nil
	}
	return Target(profile.WeightKg, profile.ActivityLevel, profile.GoalType)
}

// AmountOfIntakes returns how many reference portions make up the target.
func AmountOfIntakes(target *int) *int {
	if target == nil || *target == 0 {
		return nil
	}
	amount := roundHalfUp(float64(*target) / PortionMl)
	return &amount
}

// ExpectedIntake is the share of target that should have been consumed after elapsed hours,
// clamped to [0, 24] hours.
func ExpectedIntake(target int, elapsedHours float64) float64 {
	hours := math.Min(math.Max(elapsedHours, 0), 24)
	return float64(target) * hours / 24
}

// Deviation compares the total intake with the linear expectation at now for a plan starting at
// startOfDay. It is nil when the plan has no target. A plan dated in the future expects nothing.
func Deviation(target *int, startOfDay time.Time, totalIntakeMl int, now time.Time) *int {
	if target == nil || *target == 0 {
		return nil
	}
	elapsed := now.Sub(startOfDay).Hours()
	if elapsed < 0 {
		deviation := roundToStep(float64(totalIntakeMl))
		return &deviation
	}
	deviation := roundToStep(float64(totalIntakeMl) - ExpectedIntake(*target, elapsed))
	return &deviation
}

// WaterBonus returns the extra ml an activity adds to the target, or nil when duration or
// intensity is missing.
func WaterBonus(durationMin *int, intensity domain.Intensity) *int {
	if durationMin == nil || *durationMin == 0 || intensity == "" {
		return nil
	}
	bonus := *durationMin * IntensityFactor(intensity)
	return &bonus
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func roundToStep(v float64) int {
	return roundHalfUp(v/StepMl) * StepMl
}

// roundHalfUp rounds ties toward positive infinity, so -5.5 becomes -5.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
