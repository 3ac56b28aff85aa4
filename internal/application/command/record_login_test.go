package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse-hub/edupulse-insights/internal/application/saga"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

func newLoginHandler(statsRepo *fakeStatsRepo, badgeRepo *fakeBadgeRepo, pub *fakePublisher) *RecordLoginHandler {
	flow := saga.NewBadgeFlowSaga(statsRepo, badgeRepo, pub, nil)
	return NewRecordLoginHandler(statsRepo, flow, pub, nil)
}

func TestRecordLogin_FirstLogin(t *testing.T) {
	statsRepo := newFakeStatsRepo()
	pub := &fakePublisher{}
	handler := newLoginHandler(statsRepo, newFakeBadgeRepo(nil), pub)

	ts := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	result, err := handler.Handle(context.Background(), RecordLoginCommand{
		UserID:    testUser,
		Timestamp: ts,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, 1, result.LongestStreak)
	assert.True(t, result.StreakExtended)
	assert.False(t, result.StreakBroken)
	assert.Equal(t, 1, result.LoginDays)
	assert.Equal(t, DefaultLoginPoints, result.PointsAwarded)

	assert.Equal(t,
		[]shared.EventType{shared.EventStreakUpdated, shared.EventPointsAwarded},
		pub.typesPublished())
}

func TestRecordLogin_ConsecutiveDays(t *testing.T) {
	statsRepo := newFakeStatsRepo()
	handler := newLoginHandler(statsRepo, newFakeBadgeRepo(nil), &fakePublisher{})

	day := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := handler.Handle(context.Background(), RecordLoginCommand{
			UserID:    testUser,
			Timestamp: day.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	stored, err := statsRepo.FindByUser(context.Background(), shared.UserID(testUser))
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Streaks.Current)
	assert.Equal(t, 3*DefaultLoginPoints, stored.Points.Total)
}

func TestRecordLogin_BrokenStreak(t *testing.T) {
	statsRepo := newFakeStatsRepo()
	pub := &fakePublisher{}
	handler := newLoginHandler(statsRepo, newFakeBadgeRepo(nil), pub)

	day := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		_, err := handler.Handle(context.Background(), RecordLoginCommand{
			UserID:    testUser,
			Timestamp: day.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	result, err := handler.Handle(context.Background(), RecordLoginCommand{
		UserID:    testUser,
		Timestamp: day.AddDate(0, 0, 5),
	})
	require.NoError(t, err)

	assert.True(t, result.StreakBroken)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, 2, result.LongestStreak)
	assert.Equal(t, 3, result.DaysMissed)

	// The broken-streak event precedes the regular streak update.
	types := pub.typesPublished()
	require.NotEmpty(t, types)
	assert.Contains(t, types, shared.EventStreakBroken)
}

func TestRecordLogin_StreakBadgeGranted(t *testing.T) {
	statsRepo := newFakeStatsRepo()
	handler := newLoginHandler(statsRepo, newFakeBadgeRepo(testCatalog()), &fakePublisher{})

	day := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	var last *RecordLoginResult
	for i := 0; i < 7; i++ {
		result, err := handler.Handle(context.Background(), RecordLoginCommand{
			UserID:    testUser,
			Timestamp: day.AddDate(0, 0, i),
		})
		require.NoError(t, err)
		last = result
	}

	// The seventh consecutive day satisfies the Week Warrior criterion.
	assert.Equal(t, 7, last.CurrentStreak)
	assert.Equal(t, []string{"Week Warrior"}, last.BadgesAwarded)
}

func TestRecordLogin_PointsOverride(t *testing.T) {
	handler := newLoginHandler(newFakeStatsRepo(), newFakeBadgeRepo(nil), &fakePublisher{})

	result, err := handler.Handle(context.Background(), RecordLoginCommand{
		UserID: testUser,
		Points: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, result.PointsAwarded)
}

func TestRecordLogin_Validation(t *testing.T) {
	handler := newLoginHandler(newFakeStatsRepo(), newFakeBadgeRepo(nil), &fakePublisher{})

	_, err := handler.Handle(context.Background(), RecordLoginCommand{UserID: ""})
	assert.Error(t, err)

	_, err = handler.Handle(context.Background(), RecordLoginCommand{UserID: testUser, Points: -1})
	assert.ErrorIs(t, err, shared.ErrNegativePointAmount)
}

func TestSeedBadges_Handle(t *testing.T) {
	repo := newFakeBadgeRepo(nil)
	handler := NewSeedBadgesHandler(repo, nil)

	result, err := handler.Handle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(gamification.CatalogBadges()), result.CatalogSize)
	assert.Equal(t, 1, repo.upsertCalls)

	catalog, err := repo.Catalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, catalog, result.CatalogSize)

	// Идемпотентность: повторный сид безопасен.
	_, err = handler.Handle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.upsertCalls)
}
