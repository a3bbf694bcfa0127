// Package memory provides an in-process domain.Store for local development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/hydration/internal/domain"
)

// Store keeps every entity in maps guarded by a single RWMutex.
type Store struct {
	mu              sync.RWMutex
	users           map[string]domain.User
	profiles        map[string]domain.UserProfile
	plans           map[string]domain.DailyPlan
	intakes         map[string]domain.Intake
	activities      map[string]domain.Activity
	recommendations map[string]storedRecommendation
	notifications   map[string]domain.Notification
	seq             int64
}

type storedRecommendation struct {
	domain.Recommendation
	seq int64
}

var _ domain.Store = (*Store)(nil)

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		users:           make(map[string]domain.User),
		profiles:        make(map[string]domain.UserProfile),
		plans:           make(map[string]domain.DailyPlan),
		intakes:         make(map[string]domain.Intake),
		activities:      make(map[string]domain.Activity),
		recommendations: make(map[string]storedRecommendation),
		notifications:   make(map[string]domain.Notification),
	}
}

func ensureID(id string) string {
	if strings.TrimSpace(id) == "" {
		return uuid.NewString()
	}
	return id
}

// GetUser implements domain.UserRepository.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// FindUserByEmail implements domain.UserRepository. Emails compare case-insensitively.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			found := user
			return &found, nil
		}
	}
	return nil, nil
}

// CreateUser implements domain.UserRepository.
func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.Conflict("user with email %s already exists", user.Email)
		}
	}
	user.ID = ensureID(user.ID)
	s.users[user.ID] = user
	return nil
}

// GetProfile implements domain.ProfileRepository.
func (s *Store) GetProfile(ctx context.Context, id string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	return cloneProfile(profile), nil
}

// FindProfileByUser implements domain.ProfileRepository.
func (s *Store) FindProfileByUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, profile := range s.profiles {
		if profile.UserID == userID {
			return cloneProfile(profile), nil
		}
	}
	return nil, nil
}

// CreateProfile implements domain.ProfileRepository.
func (s *Store) CreateProfile(ctx context.Context, profile domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profiles {
		if existing.UserID == profile.UserID {
			return domain.Conflict("profile for user %s already exists", profile.UserID)
		}
	}
	profile.ID = ensureID(profile.ID)
	s.profiles[profile.ID] = *cloneProfile(profile)
	return nil
}

// UpdateProfile implements domain.ProfileRepository.
func (s *Store) UpdateProfile(ctx context.Context, profile domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.ID]; !ok {
		return domain.NotFound("UserProfile", profile.ID)
	}
	s.profiles[profile.ID] = *cloneProfile(profile)
	return nil
}

// GetPlan implements domain.PlanRepository.
func (s *Store) GetPlan(ctx context.Context, id string) (*domain.DailyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[id]
	if !ok {
		return nil, nil
	}
	return clonePlan(plan), nil
}

// FindPlanByUserDate implements domain.PlanRepository.
func (s *Store) FindPlanByUserDate(ctx context.Context, userID string, date time.Time) (*domain.DailyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, plan := range s.plans {
		if plan.UserID == userID && plan.Date.Equal(date) {
			return clonePlan(plan), nil
		}
	}
	return nil, nil
}

// ListPlans implements domain.PlanRepository. Plans are ordered by date, newest first.
func (s *Store) ListPlans(ctx context.Context, filter domain.PlanFilter) ([]domain.DailyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plans := make([]domain.DailyPlan, 0, len(s.plans))
	for _, plan := range s.plans {
		if filter.UserID != "" && plan.UserID != filter.UserID {
			continue
		}
		if !filter.From.IsZero() && plan.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && plan.Date.After(filter.To) {
			continue
		}
		plans = append(plans, *clonePlan(plan))
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].Date.Equal(plans[j].Date) {
			return plans[i].ID < plans[j].ID
		}
		return plans[i].Date.After(plans[j].Date)
	})
	return plans, nil
}

// CreatePlan implements domain.PlanRepository; a second plan for the same user and day conflicts.
func (s *Store) CreatePlan(ctx context.Context, plan domain.DailyPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.plans {
		if existing.UserID == plan.UserID && existing.Date.Equal(plan.Date) {
			return domain.Conflict("daily plan for user %s on %s already exists", plan.UserID, plan.Date.Format(time.DateOnly))
		}
	}
	plan.ID = ensureID(plan.ID)
	s.plans[plan.ID] = *clonePlan(plan)
	return nil
}

// UpdatePlan implements domain.PlanRepository.
func (s *Store) UpdatePlan(ctx context.Context, plan domain.DailyPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[plan.ID]; !ok {
		return domain.NotFound("DailyPlan", plan.ID)
	}
	for _, existing := range s.plans {
		if existing.ID != plan.ID && existing.UserID == plan.UserID && existing.Date.Equal(plan.Date) {
			return domain.Conflict("daily plan for user %s on %s already exists", plan.UserID, plan.Date.Format(time.DateOnly))
		}
	}
	s.plans[plan.ID] = *clonePlan(plan)
	return nil
}

// DeletePlan implements domain.PlanRepository and cascades to the plan's intakes, activities and
// their recommendations.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[id]; !ok {
		return domain.NotFound("DailyPlan", id)
	}
	delete(s.plans, id)
	for intakeID, intake := range s.intakes {
		if intake.DailyPlanID == id {
			s.deleteIntakeLocked(intakeID)
		}
	}
	for activityID, activity := range s.activities {
		if activity.DailyPlanID == id {
			delete(s.activities, activityID)
		}
	}
	return nil
}

// GetIntake implements domain.IntakeRepository.
func (s *Store) GetIntake(ctx context.Context, id string) (*domain.Intake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	intake, ok := s.intakes[id]
	if !ok {
		return nil, nil
	}
	return &intake, nil
}

// ListIntakesByPlan implements domain.IntakeRepository.
func (s *Store) ListIntakesByPlan(ctx context.Context, planID string) ([]domain.Intake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedIntakes(func(in domain.Intake) bool { return in.DailyPlanID == planID }), nil
}

// ListIntakes implements domain.IntakeRepository using keyset pagination on (intake_time, id).
func (s *Store) ListIntakes(ctx context.Context, filter domain.IntakeFilter) ([]domain.Intake, *domain.IntakeCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	intakes := s.sortedIntakes(func(in domain.Intake) bool {
		if filter.DailyPlanID != "" && in.DailyPlanID != filter.DailyPlanID {
			return false
		}
		if !filter.From.IsZero() && in.IntakeTime.Before(filter.From) {
			return false
		}
		if !filter.To.IsZero() && in.IntakeTime.After(filter.To) {
			return false
		}
		if c := filter.Cursor; c != nil {
			if in.IntakeTime.After(c.IntakeTime) {
				return false
			}
			if in.IntakeTime.Equal(c.IntakeTime) && in.ID >= c.ID {
				return false
			}
		}
		return true
	})

	limit := filter.Limit
	if limit <= 0 || limit > len(intakes) {
		return intakes, nil, nil
	}
	page := intakes[:limit]
	if len(intakes) == limit {
		return page, nil, nil
	}
	last := page[len(page)-1]
	return page, &domain.IntakeCursor{IntakeTime: last.IntakeTime, ID: last.ID}, nil
}

// PreviousIntake implements domain.IntakeRepository.
func (s *Store) PreviousIntake(ctx context.Context, planID string, before time.Time) (*domain.Intake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	intakes := s.sortedIntakes(func(in domain.Intake) bool {
		return in.DailyPlanID == planID && in.IntakeTime.Before(before)
	})
	if len(intakes) == 0 {
		return nil, nil
	}
	return &intakes[0], nil
}

// LatestIntakes implements domain.IntakeRepository.
func (s *Store) LatestIntakes(ctx context.Context, planID string, limit int) ([]domain.Intake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	intakes := s.sortedIntakes(func(in domain.Intake) bool { return in.DailyPlanID == planID })
	if limit > 0 && len(intakes) > limit {
		intakes = intakes[:limit]
	}
	return intakes, nil
}

// CreateIntake implements domain.IntakeRepository.
func (s *Store) CreateIntake(ctx context.Context, intake domain.Intake) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[intake.DailyPlanID]; !ok {
		return domain.NotFound("DailyPlan", intake.DailyPlanID)
	}
	intake.ID = ensureID(intake.ID)
	s.intakes[intake.ID] = intake
	return nil
}

// UpdateIntake implements domain.IntakeRepository.
func (s *Store) UpdateIntake(ctx context.Context, intake domain.Intake) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.intakes[intake.ID]; !ok {
		return domain.NotFound("Intake", intake.ID)
	}
	if _, ok := s.plans[intake.DailyPlanID]; !ok {
		return domain.NotFound("DailyPlan", intake.DailyPlanID)
	}
	s.intakes[intake.ID] = intake
	return nil
}

// DeleteIntake implements domain.IntakeRepository.
func (s *Store) DeleteIntake(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.intakes[id]; !ok {
		return domain.NotFound("Intake", id)
	}
	s.deleteIntakeLocked(id)
	return nil
}

func (s *Store) deleteIntakeLocked(id string) {
	delete(s.intakes, id)
	for recID, rec := range s.recommendations {
		if rec.IntakeID != id {
			continue
		}
		delete(s.recommendations, recID)
		for notifID, n := range s.notifications {
			if n.RecommendationID == recID {
				delete(s.notifications, notifID)
			}
		}
	}
}

func (s *Store) sortedIntakes(keep func(domain.Intake) bool) []domain.Intake {
	intakes := make([]domain.Intake, 0)
	for _, intake := range s.intakes {
		if keep(intake) {
			intakes = append(intakes, intake)
		}
	}
	sort.Slice(intakes, func(i, j int) bool {
		if intakes[i].IntakeTime.Equal(intakes[j].IntakeTime) {
			return intakes[i].ID > intakes[j].ID
		}
		return intakes[i].IntakeTime.After(intakes[j].IntakeTime)
	})
	return intakes
}

// GetActivity implements domain.ActivityRepository.
func (s *Store) GetActivity(ctx context.Context, id string) (*domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activity, ok := s.activities[id]
	if !ok {
		return nil, nil
	}
	return cloneActivity(activity), nil
}

// ListActivitiesByPlan implements domain.ActivityRepository.
func (s *Store) ListActivitiesByPlan(ctx context.Context, planID string) ([]domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activities := make([]domain.Activity, 0)
	for _, activity := range s.activities {
		if activity.DailyPlanID == planID {
			activities = append(activities, *cloneActivity(activity))
		}
	}
	sort.Slice(activities, func(i, j int) bool {
		if activities[i].CreatedAt.Equal(activities[j].CreatedAt) {
			return activities[i].ID < activities[j].ID
		}
		return activities[i].CreatedAt.Before(activities[j].CreatedAt)
	})
	return activities, nil
}

// CreateActivity implements domain.ActivityRepository.
func (s *Store) CreateActivity(ctx context.Context, activity domain.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[activity.DailyPlanID]; !ok {
		return domain.NotFound("DailyPlan", activity.DailyPlanID)
	}
	activity.ID = ensureID(activity.ID)
	s.activities[activity.ID] = *cloneActivity(activity)
	return nil
}

// UpdateActivity implements domain.ActivityRepository.
func (s *Store) UpdateActivity(ctx context.Context, activity domain.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[activity.ID]; !ok {
		return domain.NotFound("Activity", activity.ID)
	}
	s.activities[activity.ID] = *cloneActivity(activity)
	return nil
}

// DeleteActivity implements domain.ActivityRepository.
func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[id]; !ok {
		return domain.NotFound("Activity", id)
	}
	delete(s.activities, id)
	return nil
}

// GetRecommendation implements domain.RecommendationRepository.
func (s *Store) GetRecommendation(ctx context.Context, id string) (*domain.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recommendations[id]
	if !ok {
		return nil, nil
	}
	out := rec.Recommendation
	return &out, nil
}

// HasRecommendation implements domain.RecommendationRepository.
func (s *Store) HasRecommendation(ctx context.Context, intakeID string, kind domain.RecommendationType) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.recommendations {
		if rec.IntakeID == intakeID && rec.Type == kind {
			return true, nil
		}
	}
	return false, nil
}

// CreateRecommendation implements domain.RecommendationRepository.
func (s *Store) CreateRecommendation(ctx context.Context, rec domain.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.intakes[rec.IntakeID]; !ok {
		return domain.NotFound("Intake", rec.IntakeID)
	}
	rec.ID = ensureID(rec.ID)
	s.seq++
	s.recommendations[rec.ID] = storedRecommendation{Recommendation: rec, seq: s.seq}
	return nil
}

// ListRecommendations implements domain.RecommendationRepository. Newest first, insertion order
// breaking ties.
func (s *Store) ListRecommendations(ctx context.Context, filter domain.RecommendationFilter) ([]domain.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var intakeSet map[string]struct{}
	if filter.IntakeIDs != nil {
		intakeSet = make(map[string]struct{}, len(filter.IntakeIDs))
		for _, id := range filter.IntakeIDs {
			intakeSet[id] = struct{}{}
		}
	}

	matched := make([]storedRecommendation, 0)
	for _, rec := range s.recommendations {
		if intakeSet != nil {
			if _, ok := intakeSet[rec.IntakeID]; !ok {
				continue
			}
		}
		if filter.Severity != "" && rec.Severity != filter.Severity {
			continue
		}
		if filter.Type != "" && rec.Type != filter.Type {
			continue
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].seq > matched[j].seq
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	recs := make([]domain.Recommendation, len(matched))
	for i, rec := range matched {
		recs[i] = rec.Recommendation
	}
	return recs, nil
}

// GetNotification implements domain.NotificationRepository.
func (s *Store) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

// CreateNotification implements domain.NotificationRepository.
func (s *Store) CreateNotification(ctx context.Context, notification domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recommendations[notification.RecommendationID]; !ok {
		return domain.NotFound("Recommendation", notification.RecommendationID)
	}
	notification.ID = ensureID(notification.ID)
	s.notifications[notification.ID] = notification
	return nil
}

// ListNotifications implements domain.NotificationRepository. Most recently sent first.
func (s *Store) ListNotifications(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Notification, 0)
	for _, n := range s.notifications {
		if filter.RecommendationID != "" && n.RecommendationID != filter.RecommendationID {
			continue
		}
		if filter.Status != "" && n.Status != filter.Status {
			continue
		}
		if filter.Channel != "" && n.Channel != filter.Channel {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SentAt.After(out[j].SentAt)
	})
	return out, nil
}
