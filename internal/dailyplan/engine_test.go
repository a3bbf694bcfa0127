package dailyplan

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/persistence/memory"
)

var noon = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newEngine(t *testing.T) (*Engine, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.CreateUser(context.Background(), domain.User{ID: "user-1", Email: "a@example.com"}))
	return NewEngine(store, WithClock(func() time.Time { return noon })), store
}

func addIntake(t *testing.T, store *memory.Store, planID string, volume int, at time.Time) string {
	t.Helper()
	intake := domain.Intake{ID: "intake-" + at.Format("150405") + planID, DailyPlanID: planID, VolumeMl: volume, IntakeTime: at}
	require.NoError(t, store.CreateIntake(context.Background(), intake))
	return intake.ID
}

func TestCreateReconcilesDeviation(t *testing.T) {
	engine, _ := newEngine(t)

	plan, err := engine.Create(context.Background(), CreateInput{
		UserID:        "user-1",
		Date:          ptr(noon.Add(3 * time.Hour)),
		TargetMl:      ptr(2000),
		TotalIntakeMl: ptr(400),
	})
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), plan.Date)
	require.Equal(t, -600, *plan.DeviationMl)

	stored, err := engine.Get(context.Background(), plan.ID)
	require.NoError(t, err)
	require.Equal(t, -600, *stored.DeviationMl)
}

func TestCreateRequiresUser(t *testing.T) {
	engine, _ := newEngine(t)
	_, err := engine.Create(context.Background(), CreateInput{UserID: "ghost"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateWithoutTargetKeepsDeviationUnset(t *testing.T) {
	engine, _ := newEngine(t)
	plan, err := engine.Create(context.Background(), CreateInput{UserID: "user-1"})
	require.NoError(t, err)
	require.Nil(t, plan.TargetMl)
	require.Nil(t, plan.DeviationMl)
	require.Zero(t, plan.TotalIntakeMl)
}

func TestCreateWithZeroTargetKeepsSuppliedDeviation(t *testing.T) {
	engine, _ := newEngine(t)
	plan, err := engine.Create(context.Background(), CreateInput{
		UserID:      "user-1",
		TargetMl:    ptr(0),
		DeviationMl: ptr(-300),
	})
	require.NoError(t, err)
	require.Equal(t, -300, *plan.DeviationMl)

	stored, err := engine.Get(context.Background(), plan.ID)
	require.NoError(t, err)
	require.Equal(t, -300, *stored.DeviationMl)
}

func TestCreateManualRejectsPastDates(t *testing.T) {
	engine, _ := newEngine(t)
	_, err := engine.CreateManual(context.Background(), CreateInput{UserID: "user-1", Date: ptr(noon.AddDate(0, 0, -1))})
	require.ErrorIs(t, err, domain.ErrValidation)

	plan, err := engine.CreateManual(context.Background(), CreateInput{UserID: "user-1", Date: ptr(noon.AddDate(0, 0, 2))})
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), plan.Date)
}

func TestCreateManualDerivesTargetFromProfile(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	require.NoError(t, store.CreateProfile(ctx, domain.UserProfile{
		ID: "profile-1", UserID: "user-1", WeightKg: ptr(70.0),
		ActivityLevel: domain.ActivityLevelMedium, GoalType: domain.GoalMaintain,
	}))

	plan, err := engine.CreateManual(ctx, CreateInput{UserID: "user-1", Date: ptr(noon.AddDate(0, 0, 1))})
	require.NoError(t, err)
	require.Equal(t, 2700, *plan.TargetMl)
	require.Equal(t, 11, *plan.AmountOfIntakes)
	require.Equal(t, 0, *plan.DeviationMl)

	explicit, err := engine.CreateManual(ctx, CreateInput{UserID: "user-1", TargetMl: ptr(1500)})
	require.NoError(t, err)
	require.Equal(t, 1500, *explicit.TargetMl)
	require.Nil(t, explicit.AmountOfIntakes)
}

func TestRecalculateFromIntakesIsIdempotent(t *testing.T) {
	engine, store := newEngine(t)
	plan, err := engine.Create(context.Background(), CreateInput{UserID: "user-1", TargetMl: ptr(2000)})
	require.NoError(t, err)

	addIntake(t, store, plan.ID, 250, noon.Add(-3*time.Hour))
	addIntake(t, store, plan.ID, 150, noon.Add(-1*time.Hour))

	first, err := engine.RecalculateFromIntakes(context.Background(), plan.ID)
	require.NoError(t, err)
	require.Equal(t, 400, first.TotalIntakeMl)
	require.Equal(t, -600, *first.DeviationMl)

	second, err := engine.RecalculateFromIntakes(context.Background(), plan.ID)
	require.NoError(t, err)
	require.Equal(t, first.TotalIntakeMl, second.TotalIntakeMl)
	require.Equal(t, *first.DeviationMl, *second.DeviationMl)
}

func TestRecalculateFromIntakesUnknownPlan(t *testing.T) {
	engine, _ := newEngine(t)
	_, err := engine.RecalculateFromIntakes(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecalculateFromActivitiesUsesProfileBase(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	require.NoError(t, store.CreateProfile(ctx, domain.UserProfile{
		ID: "profile-1", UserID: "user-1", WeightKg: ptr(70.0),
		ActivityLevel: domain.ActivityLevelMedium, GoalType: domain.GoalMaintain,
	}))
	plan, err := engine.Create(ctx, CreateInput{UserID: "user-1", TargetMl: ptr(1000)})
	require.NoError(t, err)
	require.NoError(t, store.CreateActivity(ctx, domain.Activity{ID: "run", DailyPlanID: plan.ID, WaterBonusMl: ptr(600)}))
	require.NoError(t, store.CreateActivity(ctx, domain.Activity{ID: "walk", DailyPlanID: plan.ID}))

	updated, err := engine.RecalculateFromActivities(ctx, plan.ID)
	require.NoError(t, err)
	require.Equal(t, 3300, *updated.TargetMl)

	again, err := engine.RecalculateFromActivities(ctx, plan.ID)
	require.NoError(t, err)
	require.Equal(t, 3300, *again.TargetMl)
	require.Equal(t, -1600, *again.DeviationMl)
}

func TestRecalculateFromActivitiesWithoutProfile(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()

	plan, err := engine.Create(ctx, CreateInput{UserID: "user-1", TargetMl: ptr(2000)})
	require.NoError(t, err)
	require.NoError(t, store.CreateActivity(ctx, domain.Activity{ID: "swim", DailyPlanID: plan.ID, WaterBonusMl: ptr(300)}))

	updated, err := engine.RecalculateFromActivities(ctx, plan.ID)
	require.NoError(t, err)
	require.Equal(t, 2300, *updated.TargetMl)

	empty, err := engine.Create(ctx, CreateInput{UserID: "user-1", Date: ptr(noon.AddDate(0, 0, 1))})
	require.NoError(t, err)
	cleared, err := engine.RecalculateFromActivities(ctx, empty.ID)
	require.NoError(t, err)
	require.Nil(t, cleared.TargetMl)
	require.Nil(t, cleared.DeviationMl)
}

func TestFindOrCreateTodayCreatesThenRefreshes(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	profile := domain.UserProfile{ID: "profile-1", UserID: "user-1", WeightKg: ptr(70.0), ActivityLevel: domain.ActivityLevelMedium, GoalType: domain.GoalMaintain}
	require.NoError(t, store.CreateProfile(ctx, profile))

	plan, err := engine.FindOrCreateToday(ctx, "user-1", profile)
	require.NoError(t, err)
	require.Equal(t, 2700, *plan.TargetMl)
	require.Equal(t, 11, *plan.AmountOfIntakes)
	require.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), plan.Date)
	require.Equal(t, -1300, *plan.DeviationMl)

	profile.WeightKg = ptr(80.0)
	require.NoError(t, store.UpdateProfile(ctx, profile))
	refreshed, err := engine.FindOrCreateToday(ctx, "user-1", profile)
	require.NoError(t, err)
	require.Equal(t, plan.ID, refreshed.ID)
	require.Equal(t, 3100, *refreshed.TargetMl)
	require.Equal(t, 12, *refreshed.AmountOfIntakes)

	plans, err := engine.List(ctx, domain.PlanFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, plans, 1)
}

func TestFindOrCreateTodayConcurrentCallsShareOnePlan(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	profile := domain.UserProfile{ID: "profile-1", UserID: "user-1", WeightKg: ptr(60.0)}
	require.NoError(t, store.CreateProfile(ctx, profile))

	var wg sync.WaitGroup
	ids := make([]string, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plan, err := engine.FindOrCreateToday(ctx, "user-1", profile)
			errs[i] = err
			if err == nil {
				ids[i] = plan.ID
			}
		}(i)
	}
	wg.Wait()

	for i, id := range ids {
		require.NoError(t, errs[i])
		require.Equal(t, ids[0], id)
	}
	plans, err := engine.List(ctx, domain.PlanFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, plans, 1)
}

func TestUpdateAndDelete(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, domain.User{ID: "user-2", Email: "b@example.com"}))

	plan, err := engine.Create(ctx, CreateInput{UserID: "user-1"})
	require.NoError(t, err)

	_, err = engine.Update(ctx, plan.ID, Patch{UserID: ptr("ghost")})
	require.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := engine.Update(ctx, plan.ID, Patch{UserID: ptr("user-2"), TargetMl: ptr(1800)})
	require.NoError(t, err)
	require.Equal(t, "user-2", updated.UserID)
	require.Equal(t, 1800, *updated.TargetMl)
	require.Nil(t, updated.DeviationMl)

	_, err = engine.Update(ctx, plan.ID, Patch{TargetMl: ptr(-5)})
	require.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, engine.Delete(ctx, plan.ID))
	require.ErrorIs(t, engine.Delete(ctx, plan.ID), domain.ErrNotFound)
}
