package recommendation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/notification"
	"example.com/hydration/internal/persistence/memory"
)

var base = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	store     *memory.Store
	evaluator *Evaluator
	planID    string
}

func newFixture(t *testing.T, deviation *int) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.CreateUser(ctx, domain.User{ID: "user-1", Email: "a@example.com"}))
	plan := domain.DailyPlan{ID: "plan-1", UserID: "user-1", Date: base.Truncate(24 * time.Hour), TargetMl: ptr(2000), DeviationMl: deviation}
	require.NoError(t, store.CreatePlan(ctx, plan))

	clock := func() time.Time { return base }
	dispatcher := notification.NewDispatcher(store, notification.WithClock(clock))
	return fixture{
		store:     store,
		evaluator: NewEvaluator(store, dispatcher, WithClock(clock)),
		planID:    plan.ID,
	}
}

func (f fixture) intake(t *testing.T, id string, volume int, at time.Time) {
	t.Helper()
	require.NoError(t, f.store.CreateIntake(context.Background(), domain.Intake{ID: id, DailyPlanID: f.planID, VolumeMl: volume, IntakeTime: at}))
}

func kinds(recs []domain.Recommendation) []domain.RecommendationType {
	out := make([]domain.RecommendationType, len(recs))
	for i, rec := range recs {
		out[i] = rec.Type
	}
	return out
}

func TestEvaluateIntakeRules(t *testing.T) {
	tests := []struct {
		name      string
		deviation *int
		volume    int
		want      []domain.RecommendationType
		notified  int
	}{
		{"late behind only", ptr(-600), 300, []domain.RecommendationType{domain.RecommendationLateBehind}, 1},
		{"strongly behind with large portion", ptr(-900), 500, []domain.RecommendationType{
			domain.RecommendationLateBehind, domain.RecommendationStrongBehind, domain.RecommendationTooLargePortion,
		}, 3},
		{"well ahead fires nothing", ptr(900), 300, nil, 0},
		{"large portion regardless of deviation", ptr(900), 500, []domain.RecommendationType{domain.RecommendationTooLargePortion}, 1},
		{"good and excellent pace overlap", ptr(100), 200, []domain.RecommendationType{
			domain.RecommendationGoodPace, domain.RecommendationExcellentPace,
		}, 0},
		{"on pace exactly", ptr(0), 200, []domain.RecommendationType{domain.RecommendationGoodPace}, 0},
		{"no target means no pace rules", nil, 200, nil, 0},
		{"exactly 400 behind is not late", ptr(-400), 200, nil, 0},
		{"exactly 800 behind is late but not strong", ptr(-800), 200, []domain.RecommendationType{domain.RecommendationLateBehind}, 1},
		{"100 behind is still good pace", ptr(-100), 200, []domain.RecommendationType{domain.RecommendationGoodPace}, 0},
		{"200 behind is outside good pace", ptr(-200), 200, nil, 0},
		{"200 ahead is outside both pace bands", ptr(200), 200, nil, 0},
		{"portion of exactly 400 is not too large", ptr(900), 400, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.deviation)
			f.intake(t, "intake-1", tt.volume, base)

			recs, err := f.evaluator.EvaluateIntake(context.Background(), "intake-1")
			require.NoError(t, err)
			if tt.want == nil {
				require.Empty(t, recs)
			} else {
				require.Equal(t, tt.want, kinds(recs))
			}

			notes, err := f.store.ListNotifications(context.Background(), domain.NotificationFilter{})
			require.NoError(t, err)
			require.Len(t, notes, tt.notified)
		})
	}
}

func TestEvaluateIntakeRareGap(t *testing.T) {
	f := newFixture(t, ptr(900))
	f.intake(t, "earlier", 200, base.Add(-3*time.Hour))
	f.intake(t, "now", 200, base)

	recs, err := f.evaluator.EvaluateIntake(context.Background(), "now")
	require.NoError(t, err)
	require.Equal(t, []domain.RecommendationType{domain.RecommendationTooRareIntakes}, kinds(recs))

	recs, err = f.evaluator.EvaluateIntake(context.Background(), "earlier")
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestEvaluateIntakeShortGapDoesNotFire(t *testing.T) {
	f := newFixture(t, ptr(900))
	f.intake(t, "earlier", 200, base.Add(-90*time.Minute))
	f.intake(t, "now", 200, base)

	recs, err := f.evaluator.EvaluateIntake(context.Background(), "now")
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestEvaluateIntakeGapOfExactlyTwoHoursDoesNotFire(t *testing.T) {
	f := newFixture(t, ptr(900))
	f.intake(t, "earlier", 200, base.Add(-120*time.Minute))
	f.intake(t, "now", 200, base)

	recs, err := f.evaluator.EvaluateIntake(context.Background(), "now")
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestEvaluateIntakeDeduplicatesPerIntake(t *testing.T) {
	f := newFixture(t, ptr(-600))
	f.intake(t, "intake-1", 500, base)

	_, err := f.evaluator.EvaluateIntake(context.Background(), "intake-1")
	require.NoError(t, err)
	again, err := f.evaluator.EvaluateIntake(context.Background(), "intake-1")
	require.NoError(t, err)
	require.Equal(t, []domain.RecommendationType{domain.RecommendationTooLargePortion}, kinds(again))

	f.intake(t, "intake-2", 100, base.Add(time.Minute))
	other, err := f.evaluator.EvaluateIntake(context.Background(), "intake-2")
	require.NoError(t, err)
	require.Equal(t, []domain.RecommendationType{domain.RecommendationLateBehind}, kinds(other))
}

func TestEvaluateIntakeUnknownIntake(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.evaluator.EvaluateIntake(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEvaluateActivity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, ptr(0))
	require.NoError(t, f.store.CreateActivity(ctx, domain.Activity{ID: "run", DailyPlanID: f.planID, WaterBonusMl: ptr(600)}))
	require.NoError(t, f.store.CreateActivity(ctx, domain.Activity{ID: "stroll", DailyPlanID: f.planID, WaterBonusMl: ptr(300)}))

	recs, err := f.evaluator.EvaluateActivity(ctx, "run")
	require.NoError(t, err)
	require.Empty(t, recs, "no intake to attach to")

	f.intake(t, "older", 200, base.Add(-time.Hour))
	f.intake(t, "latest", 200, base)

	recs, err = f.evaluator.EvaluateActivity(ctx, "run")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, domain.RecommendationActivityExtraWater, recs[0].Type)
	require.Equal(t, "latest", recs[0].IntakeID)
	require.Equal(t, domain.SeverityMedium, recs[0].Severity)

	recs, err = f.evaluator.EvaluateActivity(ctx, "run")
	require.NoError(t, err)
	require.Empty(t, recs, "already attached to latest intake")

	recs, err = f.evaluator.EvaluateActivity(ctx, "stroll")
	require.NoError(t, err)
	require.Empty(t, recs, "bonus at threshold")

	notes, err := f.store.ListNotifications(ctx, domain.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "After physical activity", notes[0].Title)
}

type failingNotifier struct{ calls int }

func (n *failingNotifier) Dispatch(ctx context.Context, rec domain.Recommendation) (*domain.Notification, error) {
	n.calls++
	return nil, errors.New("push gateway unavailable")
}

func TestNotificationFailureKeepsRecommendations(t *testing.T) {
	f := newFixture(t, ptr(-900))
	notifier := &failingNotifier{}
	f.evaluator.notifier = notifier
	f.intake(t, "intake-1", 200, base)

	recs, err := f.evaluator.EvaluateIntake(context.Background(), "intake-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, 2, notifier.calls)

	stored, err := f.store.ListRecommendations(context.Background(), domain.RecommendationFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 2)
}

// flakyStore fails the nth CreateRecommendation call.
type flakyStore struct {
	*memory.Store
	failOn int
	calls  int
}

func (s *flakyStore) CreateRecommendation(ctx context.Context, rec domain.Recommendation) error {
	s.calls++
	if s.calls == s.failOn {
		return errors.New("backend unavailable")
	}
	return s.Store.CreateRecommendation(ctx, rec)
}

func TestStoredRecommendationsAreNotifiedWhenALaterRuleFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, ptr(-600))
	f.intake(t, "intake-1", 500, base)

	clock := func() time.Time { return base }
	store := &flakyStore{Store: f.store, failOn: 2}
	evaluator := NewEvaluator(store, notification.NewDispatcher(f.store, notification.WithClock(clock)), WithClock(clock))

	recs, err := evaluator.EvaluateIntake(ctx, "intake-1")
	require.ErrorContains(t, err, "backend unavailable")
	require.Equal(t, []domain.RecommendationType{domain.RecommendationLateBehind}, kinds(recs))

	notes, err := f.store.ListNotifications(ctx, domain.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, recs[0].ID, notes[0].RecommendationID)
}

func TestFeedReturnsNewestForLatestIntakes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, ptr(-600))
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("intake-%02d", i)
		f.intake(t, id, 100, base.Add(time.Duration(i)*time.Minute))
		_, err := f.evaluator.EvaluateIntake(ctx, id)
		require.NoError(t, err)
	}

	feed, err := f.evaluator.Feed(ctx, f.planID)
	require.NoError(t, err)
	require.Len(t, feed, 10)
	require.Equal(t, "intake-11", feed[0].IntakeID)
	for _, rec := range feed {
		require.NotEqual(t, "intake-00", rec.IntakeID)
		require.NotEqual(t, "intake-01", rec.IntakeID)
	}

	_, err = f.evaluator.Feed(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
