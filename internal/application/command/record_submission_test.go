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

func floatPtr(v float64) *float64 { return &v }

func testCatalog() []gamification.Badge {
	return []gamification.Badge{
		{ID: "11111111-1111-1111-1111-111111111111", Name: "First Steps",
			Criteria: gamification.Criteria{Type: gamification.CriteriaAssignmentCount, Value: 1},
			Points:   10, Rarity: gamification.RarityCommon},
		{ID: "22222222-2222-2222-2222-222222222222", Name: "Week Warrior",
			Criteria: gamification.Criteria{Type: gamification.CriteriaStreakDays, Value: 7},
			Points:   30, Rarity: gamification.RarityRare},
	}
}

func newSubmissionHandler(statsRepo *fakeStatsRepo, badgeRepo *fakeBadgeRepo, pub *fakePublisher) (*RecordSubmissionHandler, *fakeActivityRepo) {
	activityRepo := &fakeActivityRepo{}
	flow := saga.NewBadgeFlowSaga(statsRepo, badgeRepo, pub, nil)
	return NewRecordSubmissionHandler(activityRepo, statsRepo, flow, pub, nil), activityRepo
}

func TestRecordSubmission_Handle(t *testing.T) {
	statsRepo := newFakeStatsRepo()
	pub := &fakePublisher{}
	handler, activityRepo := newSubmissionHandler(statsRepo, newFakeBadgeRepo(testCatalog()), pub)

	ts := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	result, err := handler.Handle(context.Background(), RecordSubmissionCommand{
		UserID:    testUser,
		Subject:   "Math",
		Score:     floatPtr(80),
		Timestamp: ts,
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultSubmissionPoints, result.PointsAwarded)
	assert.Equal(t, 1, result.AssignmentsCompleted)
	assert.InDelta(t, 80.0, result.AverageScore, 0.0001)
	assert.Equal(t, ts, result.RecordedAt)

	// The activity record lands with the score as an assignment result.
	require.Len(t, activityRepo.records, 1)
	rec := activityRepo.records[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, shared.Subject("Math"), rec.Subject)
	require.NotNil(t, rec.AssignmentScore)
	assert.Equal(t, shared.Score(80), *rec.AssignmentScore)

	// One completed assignment satisfies the First Steps criterion.
	assert.Equal(t, []string{"First Steps"}, result.BadgesAwarded)

	stored, err := statsRepo.FindByUser(context.Background(), shared.UserID(testUser))
	require.NoError(t, err)
	// Submission credit plus the badge bonus.
	assert.Equal(t, DefaultSubmissionPoints+10, stored.Points.Total)
	assert.Equal(t, 1, stored.Achievements.BadgesEarned)
}

func TestRecordSubmission_HighScoreBonus(t *testing.T) {
	statsRepo := newFakeStatsRepo()
	handler, _ := newSubmissionHandler(statsRepo, newFakeBadgeRepo(nil), &fakePublisher{})

	result, err := handler.Handle(context.Background(), RecordSubmissionCommand{
		UserID: testUser,
		Score:  floatPtr(95),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultSubmissionPoints+HighScoreBonus, result.PointsAwarded)

	// Exactly at the threshold still earns the bonus.
	result, err = handler.Handle(context.Background(), RecordSubmissionCommand{
		UserID: testUser,
		Score:  floatPtr(90),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultSubmissionPoints+HighScoreBonus, result.PointsAwarded)
}

func TestRecordSubmission_PointsOverride(t *testing.T) {
	handler, _ := newSubmissionHandler(newFakeStatsRepo(), newFakeBadgeRepo(nil), &fakePublisher{})

	result, err := handler.Handle(context.Background(), RecordSubmissionCommand{
		UserID: testUser,
		Score:  floatPtr(95),
		Points: 3,
	})
	require.NoError(t, err)
	// An explicit credit replaces both the default and the bonus.
	assert.Equal(t, 3, result.PointsAwarded)
}

func TestRecordSubmission_UngradedSubmission(t *testing.T) {
	statsRepo := newFakeStatsRepo()
	handler, activityRepo := newSubmissionHandler(statsRepo, newFakeBadgeRepo(nil), &fakePublisher{})

	result, err := handler.Handle(context.Background(), RecordSubmissionCommand{UserID: testUser})
	require.NoError(t, err)

	assert.Equal(t, 1, result.AssignmentsCompleted)
	assert.Zero(t, result.AverageScore)
	assert.Nil(t, activityRepo.records[0].AssignmentScore)
}

func TestRecordSubmission_BlankSubjectDefaults(t *testing.T) {
	handler, activityRepo := newSubmissionHandler(newFakeStatsRepo(), newFakeBadgeRepo(nil), &fakePublisher{})

	_, err := handler.Handle(context.Background(), RecordSubmissionCommand{UserID: testUser})
	require.NoError(t, err)
	assert.Equal(t, shared.DefaultSubject, activityRepo.records[0].Subject)
}

func TestRecordSubmission_PublishesEvents(t *testing.T) {
	pub := &fakePublisher{}
	handler, _ := newSubmissionHandler(newFakeStatsRepo(), newFakeBadgeRepo(nil), pub)

	_, err := handler.Handle(context.Background(), RecordSubmissionCommand{
		UserID:        testUser,
		Score:         floatPtr(70),
		CorrelationID: "corr-1",
	})
	require.NoError(t, err)

	types := pub.typesPublished()
	assert.Equal(t, []shared.EventType{shared.EventActivityRecorded, shared.EventPointsAwarded}, types)
}

func TestRecordSubmission_Validation(t *testing.T) {
	handler, _ := newSubmissionHandler(newFakeStatsRepo(), newFakeBadgeRepo(nil), &fakePublisher{})

	_, err := handler.Handle(context.Background(), RecordSubmissionCommand{UserID: "bogus"})
	assert.Error(t, err)

	_, err = handler.Handle(context.Background(), RecordSubmissionCommand{
		UserID: testUser,
		Score:  floatPtr(120),
	})
	assert.ErrorIs(t, err, shared.ErrInvalidScore)

	_, err = handler.Handle(context.Background(), RecordSubmissionCommand{
		UserID: testUser,
		Points: -10,
	})
	assert.ErrorIs(t, err, shared.ErrNegativePointAmount)
}
