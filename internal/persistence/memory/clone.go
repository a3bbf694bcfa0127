package memory

import "example.com/hydration/internal/domain"

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func clonePlan(plan domain.DailyPlan) *domain.DailyPlan {
	plan.TargetMl = clonePtr(plan.TargetMl)
	plan.DeviationMl = clonePtr(plan.DeviationMl)
	plan.AmountOfIntakes = clonePtr(plan.AmountOfIntakes)
	return &plan
}

func cloneProfile(profile domain.UserProfile) *domain.UserProfile {
	profile.WeightKg = clonePtr(profile.WeightKg)
	profile.DateOfBirth = clonePtr(profile.DateOfBirth)
	return &profile
}

func cloneActivity(activity domain.Activity) *domain.Activity {
	activity.StartTime = clonePtr(activity.StartTime)
	activity.EndTime = clonePtr(activity.EndTime)
	activity.DurationMin = clonePtr(activity.DurationMin)
	activity.WaterBonusMl = clonePtr(activity.WaterBonusMl)
	return &activity
}
