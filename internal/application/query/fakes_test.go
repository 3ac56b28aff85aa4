package query

import (
	"context"
	"sync"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/activity"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/leaderboard"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/prediction"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// In-memory fakes shared by the query handler tests.

type fakeActivityRepo struct {
	records []*activity.Record
}

func (r *fakeActivityRepo) Save(ctx context.Context, record *activity.Record) error {
	r.records = append(r.records, record)
	return nil
}

func (r *fakeActivityRepo) FindByUser(ctx context.Context, userID shared.UserID) ([]*activity.Record, error) {
	var out []*activity.Record
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeActivityRepo) FindByUserAndSubject(ctx context.Context, userID shared.UserID, subject shared.Subject) ([]*activity.Record, error) {
	var out []*activity.Record
	for _, rec := range r.records {
		if rec.UserID == userID && rec.SubjectOrDefault() == subject.OrDefault() {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeActivityRepo) ActiveUserIDs(ctx context.Context, since time.Time) ([]shared.UserID, error) {
	seen := make(map[shared.UserID]bool)
	var out []shared.UserID
	for _, rec := range r.records {
		if !rec.RecordedAt.Before(since) && !seen[rec.UserID] {
			seen[rec.UserID] = true
			out = append(out, rec.UserID)
		}
	}
	return out, nil
}

type fakeStatsRepo struct {
	stats map[shared.UserID]*gamification.UserStats
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{stats: make(map[shared.UserID]*gamification.UserStats)}
}

func (r *fakeStatsRepo) FindByUser(ctx context.Context, userID shared.UserID) (*gamification.UserStats, error) {
	s, ok := r.stats[userID]
	if !ok {
		return nil, shared.ErrStatsNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStatsRepo) FindOrCreate(ctx context.Context, userID shared.UserID) (*gamification.UserStats, error) {
	if s, ok := r.stats[userID]; ok {
		cp := *s
		return &cp, nil
	}
	s := gamification.NewUserStats(userID)
	r.stats[userID] = s
	cp := *s
	return &cp, nil
}

func (r *fakeStatsRepo) Save(ctx context.Context, stats *gamification.UserStats) error {
	cp := *stats
	cp.Version++
	r.stats[stats.UserID] = &cp
	return nil
}

func (r *fakeStatsRepo) TopByPoints(ctx context.Context, window string, limit int) ([]*gamification.UserStats, error) {
	return nil, nil
}

func (r *fakeStatsRepo) TopByStreak(ctx context.Context, limit int) ([]*gamification.UserStats, error) {
	return nil, nil
}

func (r *fakeStatsRepo) ResetWindow(ctx context.Context, window string) (int64, error) {
	return 0, nil
}

type fakeBadgeRepo struct {
	catalog []gamification.Badge
	earned  map[shared.UserID][]*gamification.UserBadge
}

func newFakeBadgeRepo(catalog []gamification.Badge) *fakeBadgeRepo {
	return &fakeBadgeRepo{
		catalog: catalog,
		earned:  make(map[shared.UserID][]*gamification.UserBadge),
	}
}

func (r *fakeBadgeRepo) UpsertCatalog(ctx context.Context, badges []gamification.Badge) error {
	r.catalog = badges
	return nil
}

func (r *fakeBadgeRepo) Catalog(ctx context.Context) ([]gamification.Badge, error) {
	return r.catalog, nil
}

func (r *fakeBadgeRepo) FindByName(ctx context.Context, name string) (*gamification.Badge, error) {
	for i := range r.catalog {
		if r.catalog[i].Name == name {
			b := r.catalog[i]
			return &b, nil
		}
	}
	return nil, shared.ErrBadgeNotFound
}

func (r *fakeBadgeRepo) EarnedByUser(ctx context.Context, userID shared.UserID) ([]*gamification.UserBadge, error) {
	return r.earned[userID], nil
}

func (r *fakeBadgeRepo) InsertUserBadge(ctx context.Context, ub *gamification.UserBadge) (bool, error) {
	for _, existing := range r.earned[ub.UserID] {
		if existing.BadgeID == ub.BadgeID {
			return false, nil
		}
	}
	r.earned[ub.UserID] = append(r.earned[ub.UserID], ub)
	return true, nil
}

type fakePredictionRepo struct {
	mu      sync.Mutex
	records map[shared.UserID]map[shared.Subject]*prediction.Record
	upserts int
}

func newFakePredictionRepo() *fakePredictionRepo {
	return &fakePredictionRepo{records: make(map[shared.UserID]map[shared.Subject]*prediction.Record)}
}

func (r *fakePredictionRepo) Upsert(ctx context.Context, record *prediction.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.records[record.UserID] == nil {
		r.records[record.UserID] = make(map[shared.Subject]*prediction.Record)
	}
	r.records[record.UserID][record.Subject] = record
	return nil
}

func (r *fakePredictionRepo) FindByUser(ctx context.Context, userID shared.UserID) ([]*prediction.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*prediction.Record
	for _, rec := range r.records[userID] {
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakePredictionRepo) FindByUserAndSubject(ctx context.Context, userID shared.UserID, subject shared.Subject) (*prediction.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[userID][subject]
	if !ok {
		return nil, shared.ErrPredictionNotFound
	}
	return rec, nil
}

type fakeLeaderboardRepo struct {
	entries  []*leaderboard.Entry
	total    int64
	topErr   error
	totalErr error
	topCalls int
}

func (r *fakeLeaderboardRepo) Top(ctx context.Context, t leaderboard.RankingType, limit int) ([]*leaderboard.Entry, error) {
	r.topCalls++
	if r.topErr != nil {
		return nil, r.topErr
	}
	if limit > len(r.entries) {
		limit = len(r.entries)
	}
	return r.entries[:limit], nil
}

func (r *fakeLeaderboardRepo) UserRank(ctx context.Context, userID shared.UserID, t leaderboard.RankingType) (*leaderboard.Entry, error) {
	for _, e := range r.entries {
		if e.UserID == userID {
			return e, nil
		}
	}
	return nil, shared.ErrUserNotInLeaderboard
}

func (r *fakeLeaderboardRepo) TotalCount(ctx context.Context) (int64, error) {
	if r.totalErr != nil {
		return 0, r.totalErr
	}
	return r.total, nil
}

type fakeLeaderboardCache struct {
	entries  []*leaderboard.Entry
	topErr   error
	topCalls int
}

func (c *fakeLeaderboardCache) Rebuild(ctx context.Context, t leaderboard.RankingType, entries []*leaderboard.Entry) error {
	c.entries = entries
	return nil
}

func (c *fakeLeaderboardCache) Top(ctx context.Context, t leaderboard.RankingType, limit int) ([]*leaderboard.Entry, error) {
	c.topCalls++
	if c.topErr != nil {
		return nil, c.topErr
	}
	if limit > len(c.entries) {
		limit = len(c.entries)
	}
	return c.entries[:limit], nil
}

func (c *fakeLeaderboardCache) UpdateScore(ctx context.Context, t leaderboard.RankingType, userID shared.UserID, score int64) error {
	return nil
}

func (c *fakeLeaderboardCache) Invalidate(ctx context.Context, t leaderboard.RankingType) error {
	c.entries = nil
	return nil
}

type capturingPublisher struct {
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}
