package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse-hub/edupulse-insights/internal/application/query"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/activity"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/prediction"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

const (
	refreshUserA = "4f8c3c1e-9b0a-4f6d-8d2e-1a2b3c4d5e6f"
	refreshUserB = "5a9d4d2f-1c1b-4a7e-9e3f-2b3c4d5e6f70"
)

type memoryActivityRepo struct {
	records []*activity.Record
}

func (r *memoryActivityRepo) Save(ctx context.Context, record *activity.Record) error {
	r.records = append(r.records, record)
	return nil
}

func (r *memoryActivityRepo) FindByUser(ctx context.Context, userID shared.UserID) ([]*activity.Record, error) {
	var out []*activity.Record
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memoryActivityRepo) FindByUserAndSubject(ctx context.Context, userID shared.UserID, subject shared.Subject) ([]*activity.Record, error) {
	var out []*activity.Record
	for _, rec := range r.records {
		if rec.UserID == userID && rec.SubjectOrDefault() == subject.OrDefault() {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memoryActivityRepo) ActiveUserIDs(ctx context.Context, since time.Time) ([]shared.UserID, error) {
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

type memoryPredictionRepo struct {
	mu      sync.Mutex
	records map[shared.UserID]map[shared.Subject]*prediction.Record
}

func newMemoryPredictionRepo() *memoryPredictionRepo {
	return &memoryPredictionRepo{records: make(map[shared.UserID]map[shared.Subject]*prediction.Record)}
}

func (r *memoryPredictionRepo) Upsert(ctx context.Context, record *prediction.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.records[record.UserID] == nil {
		r.records[record.UserID] = make(map[shared.Subject]*prediction.Record)
	}
	r.records[record.UserID][record.Subject] = record
	return nil
}

func (r *memoryPredictionRepo) FindByUser(ctx context.Context, userID shared.UserID) ([]*prediction.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*prediction.Record
	for _, rec := range r.records[userID] {
		out = append(out, rec)
	}
	return out, nil
}

func (r *memoryPredictionRepo) FindByUserAndSubject(ctx context.Context, userID shared.UserID, subject shared.Subject) (*prediction.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[userID][subject]
	if !ok {
		return nil, shared.ErrPredictionNotFound
	}
	return rec, nil
}

type emptyBadgeRepo struct{}

func (emptyBadgeRepo) UpsertCatalog(ctx context.Context, badges []gamification.Badge) error {
	return nil
}

func (emptyBadgeRepo) Catalog(ctx context.Context) ([]gamification.Badge, error) {
	return nil, nil
}

func (emptyBadgeRepo) FindByName(ctx context.Context, name string) (*gamification.Badge, error) {
	return nil, shared.ErrBadgeNotFound
}

func (emptyBadgeRepo) EarnedByUser(ctx context.Context, userID shared.UserID) ([]*gamification.UserBadge, error) {
	return nil, nil
}

func (emptyBadgeRepo) InsertUserBadge(ctx context.Context, ub *gamification.UserBadge) (bool, error) {
	return true, nil
}

func examAt(userID, subject string, daysAgo int, score float64) *activity.Record {
	s := shared.Score(score)
	return &activity.Record{
		UserID:     shared.UserID(userID),
		Subject:    shared.Subject(subject),
		ExamScore:  &s,
		RecordedAt: time.Now().UTC().AddDate(0, 0, -daysAgo),
	}
}

func newRefreshJob(actRepo *memoryActivityRepo, predRepo *memoryPredictionRepo, cfg RefreshPredictionsConfig) *RefreshPredictionsJob {
	handler := query.NewGetPredictionHandler(
		actRepo,
		&stubWindowResetRepo{},
		emptyBadgeRepo{},
		predRepo,
		nil,
		nil,
	)
	return NewRefreshPredictionsJob(actRepo, handler, cfg, nil)
}

func TestRefreshPredictions_RefreshesActiveUsers(t *testing.T) {
	actRepo := &memoryActivityRepo{records: []*activity.Record{
		examAt(refreshUserA, "Math", 2, 70),
		examAt(refreshUserA, "Math", 1, 80),
		examAt(refreshUserB, "Physics", 1, 60),
	}}
	predRepo := newMemoryPredictionRepo()
	job := newRefreshJob(actRepo, predRepo, DefaultRefreshPredictionsConfig())

	require.NoError(t, job.Run(context.Background()))

	_, err := predRepo.FindByUserAndSubject(context.Background(), shared.UserID(refreshUserA), "Math")
	assert.NoError(t, err)
	_, err = predRepo.FindByUserAndSubject(context.Background(), shared.UserID(refreshUserB), "Physics")
	assert.NoError(t, err)
}

func TestRefreshPredictions_ActivityWindowExcludesStaleUsers(t *testing.T) {
	actRepo := &memoryActivityRepo{records: []*activity.Record{
		examAt(refreshUserA, "Math", 1, 80),
		// Пользователь B активен только месяц назад.
		examAt(refreshUserB, "Physics", 30, 60),
	}}
	predRepo := newMemoryPredictionRepo()
	job := newRefreshJob(actRepo, predRepo, RefreshPredictionsConfig{ActivityWindow: 7 * 24 * time.Hour})

	require.NoError(t, job.Run(context.Background()))

	_, err := predRepo.FindByUserAndSubject(context.Background(), shared.UserID(refreshUserA), "Math")
	assert.NoError(t, err)
	records, err := predRepo.FindByUser(context.Background(), shared.UserID(refreshUserB))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRefreshPredictions_MaxUsersPerRunCapsWork(t *testing.T) {
	actRepo := &memoryActivityRepo{records: []*activity.Record{
		examAt(refreshUserA, "Math", 2, 70),
		examAt(refreshUserB, "Physics", 1, 60),
	}}
	predRepo := newMemoryPredictionRepo()
	job := newRefreshJob(actRepo, predRepo, RefreshPredictionsConfig{
		ActivityWindow: 7 * 24 * time.Hour,
		MaxUsersPerRun: 1,
	})

	require.NoError(t, job.Run(context.Background()))

	total := 0
	for _, userID := range []string{refreshUserA, refreshUserB} {
		records, err := predRepo.FindByUser(context.Background(), shared.UserID(userID))
		require.NoError(t, err)
		total += len(records)
	}
	assert.Equal(t, 1, total)
}

func TestRefreshPredictions_CancelledContextStopsRun(t *testing.T) {
	actRepo := &memoryActivityRepo{records: []*activity.Record{
		examAt(refreshUserA, "Math", 1, 80),
	}}
	predRepo := newMemoryPredictionRepo()
	job := newRefreshJob(actRepo, predRepo, DefaultRefreshPredictionsConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, job.Run(ctx), context.Canceled)
}
