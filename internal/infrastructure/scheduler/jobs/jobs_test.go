package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/leaderboard"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

type stubBoardRepo struct {
	entries map[leaderboard.RankingType][]*leaderboard.Entry
	topErrs map[leaderboard.RankingType]error
}

func (r *stubBoardRepo) Top(ctx context.Context, t leaderboard.RankingType, limit int) ([]*leaderboard.Entry, error) {
	if err := r.topErrs[t]; err != nil {
		return nil, err
	}
	entries := r.entries[t]
	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *stubBoardRepo) UserRank(ctx context.Context, userID shared.UserID, t leaderboard.RankingType) (*leaderboard.Entry, error) {
	return nil, shared.ErrUserNotInLeaderboard
}

func (r *stubBoardRepo) TotalCount(ctx context.Context) (int64, error) {
	return 0, nil
}

type stubBoardCache struct {
	rebuilt     map[leaderboard.RankingType][]*leaderboard.Entry
	invalidated []leaderboard.RankingType
	rebuildErr  error
	invalErr    error
}

func newStubBoardCache() *stubBoardCache {
	return &stubBoardCache{rebuilt: make(map[leaderboard.RankingType][]*leaderboard.Entry)}
}

func (c *stubBoardCache) Rebuild(ctx context.Context, t leaderboard.RankingType, entries []*leaderboard.Entry) error {
	if c.rebuildErr != nil {
		return c.rebuildErr
	}
	c.rebuilt[t] = entries
	return nil
}

func (c *stubBoardCache) Top(ctx context.Context, t leaderboard.RankingType, limit int) ([]*leaderboard.Entry, error) {
	return nil, shared.ErrLeaderboardCacheMiss
}

func (c *stubBoardCache) UpdateScore(ctx context.Context, t leaderboard.RankingType, userID shared.UserID, score int64) error {
	return nil
}

func (c *stubBoardCache) Invalidate(ctx context.Context, t leaderboard.RankingType) error {
	if c.invalErr != nil {
		return c.invalErr
	}
	c.invalidated = append(c.invalidated, t)
	return nil
}

type stubWindowResetRepo struct {
	affected  int64
	resetErr  error
	windows   []string
	callCount int
}

func (r *stubWindowResetRepo) FindByUser(ctx context.Context, userID shared.UserID) (*gamification.UserStats, error) {
	return nil, shared.ErrStatsNotFound
}

func (r *stubWindowResetRepo) FindOrCreate(ctx context.Context, userID shared.UserID) (*gamification.UserStats, error) {
	return gamification.NewUserStats(userID), nil
}

func (r *stubWindowResetRepo) Save(ctx context.Context, stats *gamification.UserStats) error {
	return nil
}

func (r *stubWindowResetRepo) TopByPoints(ctx context.Context, window string, limit int) ([]*gamification.UserStats, error) {
	return nil, nil
}

func (r *stubWindowResetRepo) TopByStreak(ctx context.Context, limit int) ([]*gamification.UserStats, error) {
	return nil, nil
}

func (r *stubWindowResetRepo) ResetWindow(ctx context.Context, window string) (int64, error) {
	r.callCount++
	r.windows = append(r.windows, window)
	if r.resetErr != nil {
		return 0, r.resetErr
	}
	return r.affected, nil
}

func boardEntry(userID string, score int64) *leaderboard.Entry {
	return &leaderboard.Entry{UserID: shared.UserID(userID), Score: score, UpdatedAt: time.Now().UTC()}
}

func TestRebuildLeaderboard_AllRankingTypes(t *testing.T) {
	repo := &stubBoardRepo{entries: map[leaderboard.RankingType][]*leaderboard.Entry{
		leaderboard.RankingTotal:   {boardEntry("user-a", 900), boardEntry("user-b", 500)},
		leaderboard.RankingWeekly:  {boardEntry("user-a", 40)},
		leaderboard.RankingMonthly: {boardEntry("user-b", 120)},
		leaderboard.RankingStreak:  {boardEntry("user-a", 7)},
	}}
	cache := newStubBoardCache()
	job := NewRebuildLeaderboardJob(repo, cache, 50, nil)

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, cache.rebuilt, 4)
	assert.Len(t, cache.rebuilt[leaderboard.RankingTotal], 2)
	assert.Len(t, cache.rebuilt[leaderboard.RankingStreak], 1)
}

func TestRebuildLeaderboard_DepthCapsEntries(t *testing.T) {
	repo := &stubBoardRepo{entries: map[leaderboard.RankingType][]*leaderboard.Entry{
		leaderboard.RankingTotal: {boardEntry("user-a", 3), boardEntry("user-b", 2), boardEntry("user-c", 1)},
	}}
	cache := newStubBoardCache()
	job := NewRebuildLeaderboardJob(repo, cache, 2, nil)

	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, cache.rebuilt[leaderboard.RankingTotal], 2)
}

func TestRebuildLeaderboard_OneFailureDoesNotStopOthers(t *testing.T) {
	repo := &stubBoardRepo{
		entries: map[leaderboard.RankingType][]*leaderboard.Entry{
			leaderboard.RankingTotal:  {boardEntry("user-a", 1)},
			leaderboard.RankingStreak: {boardEntry("user-a", 7)},
		},
		topErrs: map[leaderboard.RankingType]error{
			leaderboard.RankingWeekly: errors.New("pg: down"),
		},
	}
	cache := newStubBoardCache()
	job := NewRebuildLeaderboardJob(repo, cache, 50, nil)

	err := job.Run(context.Background())
	require.Error(t, err)

	// Остальные типы пересобраны несмотря на сбой одного.
	assert.Contains(t, cache.rebuilt, leaderboard.RankingTotal)
	assert.Contains(t, cache.rebuilt, leaderboard.RankingStreak)
	assert.NotContains(t, cache.rebuilt, leaderboard.RankingWeekly)
}

func TestWeeklyResetJob(t *testing.T) {
	statsRepo := &stubWindowResetRepo{affected: 42}
	cache := newStubBoardCache()
	job := NewWeeklyResetJob(statsRepo, cache, nil)

	assert.Equal(t, "reset_weekly_points", job.Name())
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, []string{"weekly"}, statsRepo.windows)
	assert.Equal(t, []leaderboard.RankingType{leaderboard.RankingWeekly}, cache.invalidated)
}

func TestMonthlyResetJob(t *testing.T) {
	statsRepo := &stubWindowResetRepo{}
	cache := newStubBoardCache()
	job := NewMonthlyResetJob(statsRepo, cache, nil)

	assert.Equal(t, "reset_monthly_points", job.Name())
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, []string{"monthly"}, statsRepo.windows)
	assert.Equal(t, []leaderboard.RankingType{leaderboard.RankingMonthly}, cache.invalidated)
}

func TestResetJob_StoreFailureIsAnError(t *testing.T) {
	statsRepo := &stubWindowResetRepo{resetErr: errors.New("pg: down")}
	cache := newStubBoardCache()
	job := NewWeeklyResetJob(statsRepo, cache, nil)

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, cache.invalidated)
}

func TestResetJob_CacheFailureIsLoggedOnly(t *testing.T) {
	statsRepo := &stubWindowResetRepo{affected: 3}
	cache := newStubBoardCache()
	cache.invalErr = errors.New("redis: down")
	job := NewWeeklyResetJob(statsRepo, cache, nil)

	// TTL кеша доедает устаревший набор; задание не падает.
	assert.NoError(t, job.Run(context.Background()))
}

func TestResetJob_NilCache(t *testing.T) {
	statsRepo := &stubWindowResetRepo{}
	job := NewWeeklyResetJob(statsRepo, nil, nil)

	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, statsRepo.callCount)
}
