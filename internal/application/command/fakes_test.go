package command

import (
	"context"
	"sync"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/activity"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// In-memory repository fakes shared by the command handler tests.

type fakeStatsRepo struct {
	mu    sync.Mutex
	stats map[shared.UserID]*gamification.UserStats

	// saveConflicts makes the next N Save calls fail with a version conflict.
	saveConflicts int
	saveCalls     int
	findCalls     int
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{stats: make(map[shared.UserID]*gamification.UserStats)}
}

func (r *fakeStatsRepo) FindByUser(ctx context.Context, userID shared.UserID) (*gamification.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	s, ok := r.stats[userID]
	if !ok {
		return nil, shared.ErrStatsNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStatsRepo) FindOrCreate(ctx context.Context, userID shared.UserID) (*gamification.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
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
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCalls++
	if r.saveConflicts > 0 {
		r.saveConflicts--
		return shared.ErrStatsVersionConflict
	}
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
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.stats {
		switch window {
		case "weekly":
			s.Points.Weekly = 0
		case "monthly":
			s.Points.Monthly = 0
		}
		n++
	}
	return n, nil
}

type fakeBadgeRepo struct {
	mu      sync.Mutex
	catalog []gamification.Badge
	earned  map[shared.UserID]map[shared.BadgeID]*gamification.UserBadge

	upsertCalls int
	upsertErr   error
}

func newFakeBadgeRepo(catalog []gamification.Badge) *fakeBadgeRepo {
	return &fakeBadgeRepo{
		catalog: catalog,
		earned:  make(map[shared.UserID]map[shared.BadgeID]*gamification.UserBadge),
	}
}

func (r *fakeBadgeRepo) UpsertCatalog(ctx context.Context, badges []gamification.Badge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertCalls++
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.catalog = badges
	return nil
}

func (r *fakeBadgeRepo) Catalog(ctx context.Context) ([]gamification.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]gamification.Badge(nil), r.catalog...), nil
}

func (r *fakeBadgeRepo) FindByName(ctx context.Context, name string) (*gamification.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.catalog {
		if r.catalog[i].Name == name {
			b := r.catalog[i]
			return &b, nil
		}
	}
	return nil, shared.ErrBadgeNotFound
}

func (r *fakeBadgeRepo) EarnedByUser(ctx context.Context, userID shared.UserID) ([]*gamification.UserBadge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*gamification.UserBadge
	for _, ub := range r.earned[userID] {
		out = append(out, ub)
	}
	return out, nil
}

func (r *fakeBadgeRepo) InsertUserBadge(ctx context.Context, ub *gamification.UserBadge) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.earned[ub.UserID] == nil {
		r.earned[ub.UserID] = make(map[shared.BadgeID]*gamification.UserBadge)
	}
	if _, exists := r.earned[ub.UserID][ub.BadgeID]; exists {
		return false, nil
	}
	r.earned[ub.UserID][ub.BadgeID] = ub
	return true, nil
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	records []*activity.Record
	saveErr error
}

func (r *fakeActivityRepo) Save(ctx context.Context, record *activity.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.records = append(r.records, record)
	return nil
}

func (r *fakeActivityRepo) FindByUser(ctx context.Context, userID shared.UserID) ([]*activity.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*activity.Record
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeActivityRepo) FindByUserAndSubject(ctx context.Context, userID shared.UserID, subject shared.Subject) ([]*activity.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*activity.Record
	for _, rec := range r.records {
		if rec.UserID == userID && rec.SubjectOrDefault() == subject.OrDefault() {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeActivityRepo) ActiveUserIDs(ctx context.Context, since time.Time) ([]shared.UserID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[shared.UserID]bool)
	var out []shared.UserID
	for _, rec := range r.records {
		if rec.RecordedAt.Before(since) || seen[rec.UserID] {
			continue
		}
		seen[rec.UserID] = true
		out = append(out, rec.UserID)
	}
	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) typesPublished() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}
