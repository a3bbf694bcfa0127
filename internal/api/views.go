package api

import (
	"strings"
	"time"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/statistics"
)

// UserView is the JSON representation of a user.
type UserView struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserRequest is the payload for POST /v1/users.
type CreateUserRequest struct {
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// Validate ensures request correctness.
func (r CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return domain.Invalid("email is required")
	}
	return nil
}

func toUserView(u domain.User) UserView {
	return UserView{UserID: u.ID, Email: u.Email, Role: u.Role, Status: u.Status, CreatedAt: u.CreatedAt}
}

// ProfileView is the JSON representation of a user profile.
type ProfileView struct {
	ProfileID     string    `json:"profile_id"`
	UserID        string    `json:"user_id"`
	Weight        *float64  `json:"weight"`
	ActivityLevel *string   `json:"activity_level"`
	GoalType      *string   `json:"goal_type"`
	DateOfBirth   *string   `json:"date_of_birth"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProfileRequest is the payload for POST and PATCH /v1/profiles.
type ProfileRequest struct {
	UserID        *string  `json:"user_id"`
	Weight        *float64 `json:"weight"`
	ActivityLevel *string  `json:"activity_level"`
	GoalType      *string  `json:"goal_type"`
	DateOfBirth   *string  `json:"date_of_birth"`
}

// ProfileResponse returns the saved profile with the plan refreshed for today.
type ProfileResponse struct {
	Profile   ProfileView    `json:"profile"`
	DailyPlan *DailyPlanView `json:"daily_plan,omitempty"`
}

func toProfileView(p domain.UserProfile) ProfileView {
	view := ProfileView{
		ProfileID: p.ID,
		UserID:    p.UserID,
		Weight:    p.WeightKg,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.ActivityLevel != "" {
		level := string(p.ActivityLevel)
		view.ActivityLevel = &level
	}
	if p.GoalType != "" {
		goal := string(p.GoalType)
		view.GoalType = &goal
	}
	if p.DateOfBirth != nil {
		dob := p.DateOfBirth.Format(time.DateOnly)
		view.DateOfBirth = &dob
	}
	return view
}

// DailyPlanView is the JSON representation of a daily plan.
type DailyPlanView struct {
	DailyPlanID     string    `json:"dailyplan_id"`
	UserID          string    `json:"user_id"`
	Date            string    `json:"date"`
	Target          *int      `json:"target"`
	TotalIntakeMl   int       `json:"total_intake_ml"`
	DeviationMl     *int      `json:"deviation_ml"`
	AmountOfIntakes *int      `json:"amount_of_intakes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DailyPlanRequest is the payload for POST and PATCH /v1/daily-plans.
type DailyPlanRequest struct {
	UserID          *string `json:"user_id"`
	Date            *string `json:"date"`
	Target          *int    `json:"target"`
	TotalIntakeMl   *int    `json:"total_intake_ml"`
	DeviationMl     *int    `json:"deviation_ml"`
	AmountOfIntakes *int    `json:"amount_of_intakes"`
}

func toPlanView(p domain.DailyPlan) DailyPlanView {
	return DailyPlanView{
		DailyPlanID:     p.ID,
		UserID:          p.UserID,
		Date:            p.Date.Format(time.DateOnly),
		Target:          p.TargetMl,
		TotalIntakeMl:   p.TotalIntakeMl,
		DeviationMl:     p.DeviationMl,
		AmountOfIntakes: p.AmountOfIntakes,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toPlanViews(plans []domain.DailyPlan) []DailyPlanView {
	out := make([]DailyPlanView, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanView(p))
	}
	return out
}

// IntakeView is the JSON representation of an intake.
type IntakeView struct {
	IntakeID    string    `json:"intake_id"`
	DailyPlanID string    `json:"dailyplan_id"`
	VolumeMl    int       `json:"volume_ml"`
	IntakeTime  time.Time `json:"intake_time"`
	CreatedAt   time.Time `json:"created_at"`
}

// IntakeRequest is the payload for POST and PATCH /v1/intakes.
type IntakeRequest struct {
	DailyPlanID *string    `json:"dailyplan_id"`
	VolumeMl    *int       `json:"volume_ml"`
	IntakeTime  *time.Time `json:"intake_time"`
}

// IntakeResponse returns the recorded intake with the cascade's outcome.
type IntakeResponse struct {
	Intake          IntakeView           `json:"intake"`
	DailyPlan       DailyPlanView        `json:"daily_plan"`
	Recommendations []RecommendationView `json:"recommendations"`
}

// ListIntakesResponse packages a page of intakes.
type ListIntakesResponse struct {
	Items      []IntakeView `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func toIntakeView(in domain.Intake) IntakeView {
	return IntakeView{
		IntakeID:    in.ID,
		DailyPlanID: in.DailyPlanID,
		VolumeMl:    in.VolumeMl,
		IntakeTime:  in.IntakeTime,
		CreatedAt:   in.CreatedAt,
	}
}

// ActivityView is the JSON representation of an activity.
type ActivityView struct {
	ActivityID   string     `json:"activity_id"`
	DailyPlanID  string     `json:"dailyplan_id"`
	ActivityType string     `json:"activity_type"`
	Intensity    *string    `json:"intensity"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	DurationMin  *int       `json:"duration_min"`
	WaterBonusMl *int       `json:"water_bonus_ml"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ActivityRequest is the payload for POST and PATCH /v1/activities.
type ActivityRequest struct {
	DailyPlanID  *string    `json:"dailyplan_id"`
	ActivityType *string    `json:"activity_type"`
	Intensity    *string    `json:"intensity"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	DurationMin  *int       `json:"duration_min"`
}

// ActivityResponse returns the recorded activity with the cascade's outcome.
type ActivityResponse struct {
	Activity        ActivityView         `json:"activity"`
	DailyPlan       DailyPlanView        `json:"daily_plan"`
	Recommendations []RecommendationView `json:"recommendations"`
}

func toActivityView(a domain.Activity) ActivityView {
	view := ActivityView{
		ActivityID:   a.ID,
		DailyPlanID:  a.DailyPlanID,
		ActivityType: a.ActivityType,
		StartTime:    a.StartTime,
		EndTime:      a.EndTime,
		DurationMin:  a.DurationMin,
		WaterBonusMl: a.WaterBonusMl,
		CreatedAt:    a.CreatedAt,
	}
	if a.Intensity != "" {
		intensity := string(a.Intensity)
		view.Intensity = &intensity
	}
	return view
}

// RecommendationView is the JSON representation of a recommendation.
type RecommendationView struct {
	RecommendationID string    `json:"recommendation_id"`
	IntakeID         string    `json:"intake_id"`
	RecommendType    string    `json:"recommend_type"`
	Message          string    `json:"message"`
	Severity         string    `json:"severity"`
	CreatedAt        time.Time `json:"created_at"`
}

func toRecommendationViews(recs []domain.Recommendation) []RecommendationView {
	out := make([]RecommendationView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, RecommendationView{
			RecommendationID: rec.ID,
			IntakeID:         rec.IntakeID,
			RecommendType:    string(rec.Type),
			Message:          rec.Message,
			Severity:         string(rec.Severity),
			CreatedAt:        rec.CreatedAt,
		})
	}
	return out
}

// NotificationView is the JSON representation of a notification.
type NotificationView struct {
	NotificationID   string    `json:"notification_id"`
	RecommendationID string    `json:"recommendation_id"`
	NotificationType string    `json:"notification_type"`
	Title            string    `json:"title"`
	Body             string    `json:"body"`
	Channel          string    `json:"channel"`
	Status           string    `json:"status"`
	SentAt           time.Time `json:"sent_at"`
}

func toNotificationView(n domain.Notification) NotificationView {
	return NotificationView{
		NotificationID:   n.ID,
		RecommendationID: n.RecommendationID,
		NotificationType: n.Type,
		Title:            n.Title,
		Body:             n.Body,
		Channel:          n.Channel,
		Status:           n.Status,
		SentAt:           n.SentAt,
	}
}

// WaterStatisticsResponse is the body of GET /v1/statistics/water.
type WaterStatisticsResponse struct {
	AverageTarget           int          `json:"average_target"`
	AverageIntake           int          `json:"average_intake"`
	AverageIntakePerPortion int          `json:"average_intake_per_portion"`
	CompletionPercentage    float64      `json:"completion_percentage"`
	Breakdown               []BucketView `json:"breakdown"`
}

// BucketView is one group of the water statistics breakdown.
type BucketView struct {
	Group                string  `json:"group"`
	Plans                int     `json:"plans"`
	AverageTarget        int     `json:"average_target"`
	AverageIntake        int     `json:"average_intake"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

func toWaterResponse(stats statistics.WaterStats) WaterStatisticsResponse {
	resp := WaterStatisticsResponse{
		AverageTarget:           stats.AverageTarget,
		AverageIntake:           stats.AverageIntake,
		AverageIntakePerPortion: stats.AverageIntakePerPortion,
		CompletionPercentage:    stats.CompletionPercentage,
		Breakdown:               make([]BucketView, 0, len(stats.Breakdown)),
	}
	for _, b := range stats.Breakdown {
		resp.Breakdown = append(resp.Breakdown, BucketView(b))
	}
	return resp
}

// ActivityStatisticsResponse is the body of GET /v1/statistics/activities.
type ActivityStatisticsResponse struct {
	TotalActivities          int             `json:"total_activities"`
	AverageActivitiesPerUser float64         `json:"average_activities_per_user"`
	PopularActivityTypes     []TypeShareView `json:"popular_activity_types"`
	AverageWaterBonus        int             `json:"average_water_bonus"`
}

// TypeShareView is how often an activity type was logged.
type TypeShareView struct {
	ActivityType string  `json:"activity_type"`
	Count        int     `json:"count"`
	Percentage   float64 `json:"percentage"`
}

func toActivityStatsResponse(stats statistics.ActivityStats) ActivityStatisticsResponse {
	resp := ActivityStatisticsResponse{
		TotalActivities:          stats.TotalActivities,
		AverageActivitiesPerUser: stats.AverageActivitiesPerUser,
		PopularActivityTypes:     make([]TypeShareView, 0, len(stats.PopularActivityTypes)),
		AverageWaterBonus:        stats.AverageWaterBonus,
	}
	for _, share := range stats.PopularActivityTypes {
		resp.PopularActivityTypes = append(resp.PopularActivityTypes, TypeShareView(share))
	}
	return resp
}
