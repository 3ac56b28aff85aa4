package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edupulse-hub/edupulse-insights/internal/application/saga"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/activity"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
	"github.com/edupulse-hub/edupulse-insights/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD SUBMISSION COMMAND
// Ingests a completed assignment: stores the activity record, updates the
// gamification counters, credits points, and runs the badge flow.
// ══════════════════════════════════════════════════════════════════════════════

// Default point credits per event type. Callers may override per event.
const (
	DefaultSubmissionPoints = 10
	HighScoreBonus          = 5
	highScoreThreshold      = 90.0
)

// RecordSubmissionCommand contains the data for a submission event.
type RecordSubmissionCommand struct {
	// UserID is the learner who submitted.
	UserID string

	// Subject is the course subject; blank maps to "General".
	Subject string

	// Score is the graded result, when the submission was graded.
	Score *float64

	// Points overrides the default credit when positive.
	Points int

	// Timestamp is when the submission happened (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordSubmissionCommand) Validate() error {
	if _, err := shared.NewUserID(c.UserID); err != nil {
		return fmt.Errorf("record_submission: %w", err)
	}
	if c.Score != nil {
		if _, err := shared.NewScore(*c.Score); err != nil {
			return fmt.Errorf("record_submission: %w", err)
		}
	}
	if c.Points < 0 {
		return fmt.Errorf("record_submission: %w", shared.ErrNegativePointAmount)
	}
	return nil
}

// pointAmount resolves the credit for this submission.
func (c RecordSubmissionCommand) pointAmount() int {
	if c.Points > 0 {
		return c.Points
	}
	amount := DefaultSubmissionPoints
	if c.Score != nil && *c.Score >= highScoreThreshold {
		amount += HighScoreBonus
	}
	return amount
}

// RecordSubmissionResult contains the result of a submission event.
type RecordSubmissionResult struct {
	// RecordID is the stored activity record's ID.
	RecordID string

	// UserID is the learner.
	UserID string

	// PointsAwarded is the credited amount.
	PointsAwarded int

	// NewTotal is the all-time point total after the credit.
	NewTotal int

	// LeveledUp reports whether the credit crossed a level threshold.
	LeveledUp bool

	// NewLevel is the level after the credit.
	NewLevel int

	// AssignmentsCompleted is the updated completion counter.
	AssignmentsCompleted int

	// AverageScore is the updated running average.
	AverageScore float64

	// BadgesAwarded lists names of badges granted by this event.
	BadgesAwarded []string

	// RecordedAt is when the event was processed.
	RecordedAt time.Time
}

// RecordSubmissionHandler handles the RecordSubmissionCommand.
type RecordSubmissionHandler struct {
	activityRepo activity.Repository
	statsRepo    gamification.StatsRepository
	badgeFlow    *saga.BadgeFlowSaga
	publisher    shared.EventPublisher
	log          *logger.Logger
	retrier      *retry.Retrier
}

// NewRecordSubmissionHandler creates a new RecordSubmissionHandler.
func NewRecordSubmissionHandler(
	activityRepo activity.Repository,
	statsRepo gamification.StatsRepository,
	badgeFlow *saga.BadgeFlowSaga,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *RecordSubmissionHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordSubmissionHandler{
		activityRepo: activityRepo,
		statsRepo:    statsRepo,
		badgeFlow:    badgeFlow,
		publisher:    publisher,
		log:          log.With(logger.String("component", "record_submission")),
		retrier:      retry.OptimisticLockRetrier(),
	}
}

// Handle executes the record submission command.
func (h *RecordSubmissionHandler) Handle(ctx context.Context, cmd RecordSubmissionCommand) (*RecordSubmissionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	userID := shared.UserID(cmd.UserID)
	record := h.buildRecord(cmd, userID, timestamp)

	if err := h.activityRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("record_submission: save activity: %w", err)
	}

	amount := cmd.pointAmount()

	var (
		outcome gamification.AwardOutcome
		after   *gamification.UserStats
	)
	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		stats, err := h.statsRepo.FindOrCreate(ctx, userID)
		if err != nil {
			return retry.Permanent(err)
		}

		stats.RecordSubmission(cmd.Score)
		outcome, err = stats.AwardPoints(amount)
		if err != nil {
			return retry.Permanent(err)
		}

		after = stats
		return classifySaveError(h.statsRepo.Save(ctx, stats))
	})
	if err != nil {
		return nil, fmt.Errorf("record_submission: update stats for %s: %w", cmd.UserID, err)
	}

	result := &RecordSubmissionResult{
		RecordID:             record.ID,
		UserID:               cmd.UserID,
		PointsAwarded:        outcome.Amount,
		NewTotal:             outcome.NewTotal,
		LeveledUp:            outcome.LeveledUp(),
		NewLevel:             outcome.NewLevel,
		AssignmentsCompleted: after.Achievements.AssignmentsCompleted,
		AverageScore:         after.Achievements.AverageScore,
		RecordedAt:           timestamp,
	}

	h.publishEvents(cmd, record, outcome, after)

	if h.badgeFlow != nil {
		flow, err := h.badgeFlow.Run(ctx, userID)
		if err != nil {
			// Badge evaluation failing must not fail the submission itself.
			h.log.Error("badge flow failed after submission",
				logger.UserID(cmd.UserID), logger.Err(err))
		} else {
			for _, a := range flow.Awarded {
				result.BadgesAwarded = append(result.BadgesAwarded, a.Badge.Name)
			}
		}
	}

	return result, nil
}

func (h *RecordSubmissionHandler) buildRecord(cmd RecordSubmissionCommand, userID shared.UserID, ts time.Time) *activity.Record {
	record := &activity.Record{
		ID:         uuid.NewString(),
		UserID:     userID,
		Subject:    shared.Subject(cmd.Subject).OrDefault(),
		RecordedAt: ts,
	}
	if cmd.Score != nil {
		score := shared.Score(*cmd.Score)
		record.AssignmentScore = &score
	}
	return record
}

func (h *RecordSubmissionHandler) publishEvents(
	cmd RecordSubmissionCommand,
	record *activity.Record,
	outcome gamification.AwardOutcome,
	after *gamification.UserStats,
) {
	if h.publisher == nil {
		return
	}

	activityEvent := shared.NewActivityRecordedEvent(cmd.UserID, record.Subject.String(), record.ID)
	activityEvent.BaseEvent = activityEvent.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	_ = h.publisher.Publish(activityEvent)

	_ = h.publisher.Publish(shared.NewPointsAwardedEvent(
		cmd.UserID, outcome.Amount, outcome.NewTotal, string(SourceSubmission)))

	if outcome.LeveledUp() {
		_ = h.publisher.Publish(shared.NewLevelUpEvent(
			cmd.UserID, outcome.OldLevel, outcome.NewLevel, after.Level.XP, after.Level.XPToNext))
	}
}
