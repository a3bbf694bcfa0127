//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/events"
	"example.com/hydration/internal/outbox"
	"example.com/hydration/internal/testsupport"
)

func intPtr(v int) *int { return &v }

func seedPlan(t *testing.T, ctx context.Context, repo *Repository, date time.Time) (domain.User, domain.DailyPlan) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{ID: uuid.NewString(), Email: uuid.NewString() + "@example.com", Role: "user", Status: "active", CreatedAt: now}
	require.NoError(t, repo.CreateUser(ctx, user))

	plan := domain.DailyPlan{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		Date:            date,
		TargetMl:        intPtr(2000),
		AmountOfIntakes: intPtr(8),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, repo.CreatePlan(ctx, plan))
	return user, plan
}

func TestRepositoryPlanLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testsupport.StartPostgres(ctx, t))
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	user, plan := seedPlan(t, ctx, repo, date)

	found, err := repo.FindPlanByUserDate(ctx, user.ID, date)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, plan.ID, found.ID)
	require.Equal(t, 2000, *found.TargetMl)
	require.Nil(t, found.DeviationMl)

	duplicate := plan
	duplicate.ID = uuid.NewString()
	require.ErrorIs(t, repo.CreatePlan(ctx, duplicate), domain.ErrConflict)

	found.TotalIntakeMl = 750
	found.DeviationMl = intPtr(-250)
	require.NoError(t, repo.UpdatePlan(ctx, *found))

	plans, err := repo.ListPlans(ctx, domain.PlanFilter{UserID: user.ID, From: date, To: date})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.Equal(t, 750, plans[0].TotalIntakeMl)

	missing, err := repo.GetPlan(ctx, "not-a-uuid")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, repo.DeletePlan(ctx, plan.ID))
	require.ErrorIs(t, repo.DeletePlan(ctx, plan.ID), domain.ErrNotFound)
}

func TestRepositoryIntakePagination(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testsupport.StartPostgres(ctx, t))
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	_, plan := seedPlan(t, ctx, repo, date)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateIntake(ctx, domain.Intake{
			ID:          uuid.NewString(),
			DailyPlanID: plan.ID,
			VolumeMl:    100 * (i + 1),
			IntakeTime:  date.Add(time.Duration(8+i) * time.Hour),
			CreatedAt:   time.Now().UTC(),
		}))
	}

	page, cursor, err := repo.ListIntakes(ctx, domain.IntakeFilter{DailyPlanID: plan.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, cursor)
	require.Equal(t, 500, page[0].VolumeMl)

	next, cursor, err := repo.ListIntakes(ctx, domain.IntakeFilter{DailyPlanID: plan.ID, Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, next, 2)
	require.Equal(t, 300, next[0].VolumeMl)

	last, cursor, err := repo.ListIntakes(ctx, domain.IntakeFilter{DailyPlanID: plan.ID, Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, last, 1)
	require.Nil(t, cursor)

	prev, err := repo.PreviousIntake(ctx, plan.ID, date.Add(10*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 200, prev.VolumeMl)

	err = repo.CreateIntake(ctx, domain.Intake{ID: uuid.NewString(), DailyPlanID: uuid.NewString(), VolumeMl: 100, IntakeTime: date})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepositoryRecommendationWritesOutbox(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	repo := NewRepository(pool)
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	_, plan := seedPlan(t, ctx, repo, date)

	intake := domain.Intake{ID: uuid.NewString(), DailyPlanID: plan.ID, VolumeMl: 500, IntakeTime: date.Add(9 * time.Hour), CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateIntake(ctx, intake))

	rec := domain.Recommendation{
		ID:        uuid.NewString(),
		IntakeID:  intake.ID,
		Type:      domain.RecommendationTooLargePortion,
		Message:   "Spread your intake",
		Severity:  domain.SeverityMedium,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateRecommendation(ctx, rec))

	has, err := repo.HasRecommendation(ctx, intake.ID, domain.RecommendationTooLargePortion)
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, repo.CreateNotification(ctx, domain.Notification{
		ID:               uuid.NewString(),
		RecommendationID: rec.ID,
		Type:             "warning",
		Title:            "Portion too large",
		Body:             rec.Message,
		Channel:          "push",
		Status:           "sent",
		SentAt:           time.Now().UTC(),
	}))

	var (
		topic   string
		key     string
		payload []byte
	)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT topic, partition_key, payload FROM outbox WHERE event_type = $1`, events.TypeRecommendationCreated,
	).Scan(&topic, &key, &payload))
	require.Equal(t, outbox.TopicRecommendations, topic)
	require.Equal(t, intake.ID, key)

	var event events.RecommendationCreated
	require.NoError(t, json.Unmarshal(payload, &event))
	require.Equal(t, plan.ID, event.DailyPlanID)

	var notificationKey string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT partition_key FROM outbox WHERE event_type = $1`, events.TypeNotificationCreated,
	).Scan(&notificationKey))
	require.Equal(t, rec.ID, notificationKey)

	recs, err := repo.ListRecommendations(ctx, domain.RecommendationFilter{IntakeIDs: []string{intake.ID}})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	require.NoError(t, repo.DeleteIntake(ctx, intake.ID))
	gone, err := repo.GetRecommendation(ctx, rec.ID)
	require.NoError(t, err)
	require.Nil(t, gone)
}
