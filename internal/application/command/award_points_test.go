package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

const testUser = "4f8c3c1e-9b0a-4f6d-8d2e-1a2b3c4d5e6f"

func TestAwardPoints_Handle(t *testing.T) {
	repo := newFakeStatsRepo()
	pub := &fakePublisher{}
	handler := NewAwardPointsHandler(repo, pub)

	result, err := handler.Handle(context.Background(), AwardPointsCommand{
		UserID: testUser,
		Amount: 50,
		Source: SourceManual,
	})
	require.NoError(t, err)

	assert.Equal(t, 50, result.Amount)
	assert.Equal(t, 50, result.NewTotal)
	assert.False(t, result.LeveledUp)

	stored, err := repo.FindByUser(context.Background(), shared.UserID(testUser))
	require.NoError(t, err)
	assert.Equal(t, 50, stored.Points.Total)
	assert.Equal(t, int64(1), stored.Version)

	assert.Equal(t, []shared.EventType{shared.EventPointsAwarded}, pub.typesPublished())
}

func TestAwardPoints_LevelUpEvent(t *testing.T) {
	repo := newFakeStatsRepo()
	pub := &fakePublisher{}
	handler := NewAwardPointsHandler(repo, pub)

	result, err := handler.Handle(context.Background(), AwardPointsCommand{
		UserID: testUser,
		Amount: 250,
		Source: SourceManual,
	})
	require.NoError(t, err)

	assert.True(t, result.LeveledUp)
	assert.Equal(t, 1, result.OldLevel)
	assert.Equal(t, 2, result.NewLevel)

	assert.Equal(t,
		[]shared.EventType{shared.EventPointsAwarded, shared.EventLevelUp},
		pub.typesPublished())
}

func TestAwardPoints_RetriesVersionConflict(t *testing.T) {
	repo := newFakeStatsRepo()
	repo.saveConflicts = 2
	handler := NewAwardPointsHandler(repo, &fakePublisher{})

	result, err := handler.Handle(context.Background(), AwardPointsCommand{
		UserID: testUser,
		Amount: 30,
		Source: SourceManual,
	})
	require.NoError(t, err)

	// Two conflicting saves, then a clean re-application on the third try.
	assert.Equal(t, 3, repo.saveCalls)
	assert.Equal(t, 30, result.NewTotal)

	stored, err := repo.FindByUser(context.Background(), shared.UserID(testUser))
	require.NoError(t, err)
	assert.Equal(t, 30, stored.Points.Total)
}

func TestAwardPoints_ConflictsExhaustRetries(t *testing.T) {
	repo := newFakeStatsRepo()
	repo.saveConflicts = 100
	handler := NewAwardPointsHandler(repo, &fakePublisher{})

	_, err := handler.Handle(context.Background(), AwardPointsCommand{
		UserID: testUser,
		Amount: 30,
		Source: SourceManual,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrOptimisticLock)
	// OptimisticLockRetrier allows five attempts.
	assert.Equal(t, 5, repo.saveCalls)
}

func TestAwardPoints_Validation(t *testing.T) {
	handler := NewAwardPointsHandler(newFakeStatsRepo(), nil)

	_, err := handler.Handle(context.Background(), AwardPointsCommand{UserID: "not-a-uuid", Amount: 10})
	assert.Error(t, err)

	_, err = handler.Handle(context.Background(), AwardPointsCommand{UserID: testUser, Amount: -1})
	assert.ErrorIs(t, err, shared.ErrNegativePointAmount)
}
