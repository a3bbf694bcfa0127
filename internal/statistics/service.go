// Package statistics aggregates plans, intakes and activities into hydration and activity reports.
package statistics

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"example.com/hydration/internal/domain"
)

// Breakdown groupings accepted by WaterStats.
const (
	GroupByDay           = "day"
	GroupByUser          = "user"
	GroupByActivityLevel = "activity_level"
)

const fanOutLimit = 8

// Store is the storage the statistics service reads.
type Store interface {
	ListPlans(ctx context.Context, filter domain.PlanFilter) ([]domain.DailyPlan, error)
	ListIntakesByPlan(ctx context.Context, planID string) ([]domain.Intake, error)
	ListActivitiesByPlan(ctx context.Context, planID string) ([]domain.Activity, error)
	FindProfileByUser(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// Service computes read-only aggregates.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Filter narrows the plans a report covers. GroupBy applies to WaterStats only.
type Filter struct {
	UserID  string
	From    time.Time
	To      time.Time
	GroupBy string
}

// WaterStats summarises targets against actual intake.
type WaterStats struct {
	AverageTarget           int
	AverageIntake           int
	AverageIntakePerPortion int
	CompletionPercentage    float64
	Breakdown               []Bucket
}

// Bucket is one group of a WaterStats breakdown.
type Bucket struct {
	Group                string
	Plans                int
	AverageTarget        int
	AverageIntake        int
	CompletionPercentage float64
}

// ActivityStats summarises logged activities.
type ActivityStats struct {
	TotalActivities          int
	AverageActivitiesPerUser float64
	PopularActivityTypes     []TypeShare
	AverageWaterBonus        int
}

// TypeShare is how often an activity type was logged.
type TypeShare struct {
	ActivityType string
	Count        int
	Percentage   float64
}

// Water reports averages over plans that have a target.
func (s *Service) Water(ctx context.Context, filter Filter) (*WaterStats, error) {
	switch filter.GroupBy {
	case "", GroupByDay, GroupByUser, GroupByActivityLevel:
	default:
		return nil, domain.Invalid("group_by must be one of day, user, activity_level")
	}

	plans, err := s.store.ListPlans(ctx, domain.PlanFilter{UserID: filter.UserID, From: filter.From, To: filter.To})
	if err != nil {
		return nil, err
	}
	targeted := make([]domain.DailyPlan, 0, len(plans))
	for _, plan := range plans {
		if plan.TargetMl != nil {
			targeted = append(targeted, plan)
		}
	}

	stats := &WaterStats{Breakdown: []Bucket{}}
	if len(targeted) == 0 {
		return stats, nil
	}

	portionCounts, err := s.countIntakes(ctx, targeted)
	if err != nil {
		return nil, err
	}

	var targetSum, intakeSum, portions int
	for i, plan := range targeted {
		targetSum += *plan.TargetMl
		intakeSum += plan.TotalIntakeMl
		portions += portionCounts[i]
	}
	stats.AverageTarget = roundInt(float64(targetSum) / float64(len(targeted)))
	stats.AverageIntake = roundInt(float64(intakeSum) / float64(len(targeted)))
	if portions > 0 {
		stats.AverageIntakePerPortion = roundInt(float64(intakeSum) / float64(portions))
	}
	stats.CompletionPercentage = completion(intakeSum, targetSum)

	if filter.GroupBy != "" {
		stats.Breakdown, err = s.breakdown(ctx, targeted, filter.GroupBy)
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// Activities reports activity frequency and average water bonus over the filtered plans.
func (s *Service) Activities(ctx context.Context, filter Filter) (*ActivityStats, error) {
	plans, err := s.store.ListPlans(ctx, domain.PlanFilter{UserID: filter.UserID, From: filter.From, To: filter.To})
	if err != nil {
		return nil, err
	}

	perPlan := make([][]domain.Activity, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for i, plan := range plans {
		g.Go(func() error {
			activities, err := s.store.ListActivitiesByPlan(gctx, plan.ID)
			if err != nil {
				return err
			}
			perPlan[i] = activities
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &ActivityStats{PopularActivityTypes: []TypeShare{}}
	users := make(map[string]struct{})
	typeCounts := make(map[string]int)
	var bonusSum, bonusCount int
	for i, activities := range perPlan {
		for _, activity := range activities {
			stats.TotalActivities++
			users[plans[i].UserID] = struct{}{}
			kind := activity.ActivityType
			if kind == "" {
				kind = "other"
			}
			typeCounts[kind]++
			if activity.WaterBonusMl != nil {
				bonusSum += *activity.WaterBonusMl
				bonusCount++
			}
		}
	}
	if stats.TotalActivities == 0 {
		return stats, nil
	}

	stats.AverageActivitiesPerUser = round2(float64(stats.TotalActivities) / float64(len(users)))
	if bonusCount > 0 {
		stats.AverageWaterBonus = roundInt(float64(bonusSum) / float64(bonusCount))
	}
	for kind, count := range typeCounts {
		stats.PopularActivityTypes = append(stats.PopularActivityTypes, TypeShare{
			ActivityType: kind,
			Count:        count,
			Percentage:   round2(float64(count) * 100 / float64(stats.TotalActivities)),
		})
	}
	sort.Slice(stats.PopularActivityTypes, func(i, j int) bool {
		a, b := stats.PopularActivityTypes[i], stats.PopularActivityTypes[j]
		if a.Count == b.Count {
			return a.ActivityType < b.ActivityType
		}
		return a.Count > b.Count
	})
	return stats, nil
}

func (s *Service) countIntakes(ctx context.Context, plans []domain.DailyPlan) ([]int, error) {
	counts := make([]int, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for i, plan := range plans {
		g.Go(func() error {
			intakes, err := s.store.ListIntakesByPlan(gctx, plan.ID)
			if err != nil {
				return err
			}
			counts[i] = len(intakes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

type accumulator struct {
	plans  int
	target int
	intake int
}

func (s *Service) breakdown(ctx context.Context, plans []domain.DailyPlan, groupBy string) ([]Bucket, error) {
	levels := make(map[string]string)
	if groupBy == GroupByActivityLevel {
		for _, plan := range plans {
			if _, seen := levels[plan.UserID]; seen {
				continue
			}
			profile, err := s.store.FindProfileByUser(ctx, plan.UserID)
			if err != nil {
				return nil, err
			}
			level := "unknown"
			if profile != nil && profile.ActivityLevel != "" {
				level = string(profile.ActivityLevel)
			}
			levels[plan.UserID] = level
		}
	}

	groups := make(map[string]*accumulator)
	for _, plan := range plans {
		var key string
		switch groupBy {
		case GroupByDay:
			key = plan.Date.UTC().Format(time.DateOnly)
		case GroupByUser:
			key = plan.UserID
		case GroupByActivityLevel:
			key = levels[plan.UserID]
		}
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{}
			groups[key] = acc
		}
		acc.plans++
		acc.target += *plan.TargetMl
		acc.intake += plan.TotalIntakeMl
	}

	buckets := make([]Bucket, 0, len(groups))
	for key, acc := range groups {
		buckets = append(buckets, Bucket{
			Group:                key,
			Plans:                acc.plans,
			AverageTarget:        roundInt(float64(acc.target) / float64(acc.plans)),
			AverageIntake:        roundInt(float64(acc.intake) / float64(acc.plans)),
			CompletionPercentage: completion(acc.intake, acc.target),
		})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Group < buckets[j].Group })
	return buckets, nil
}

func completion(intake, target int) float64 {
	if target == 0 {
		return 0
	}
	return round2(float64(intake) * 100 / float64(target))
}

func roundInt(v float64) int {
	return int(math.Floor(v + 0.5))
}

func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
