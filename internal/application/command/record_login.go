package command

import (
	"context"
	"fmt"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/application/saga"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
	"github.com/edupulse-hub/edupulse-insights/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD LOGIN COMMAND
// Ingests a daily login: advances or resets the streak, credits the login
// points, and runs the badge flow. Repeat logins on the same day leave the
// streak untouched but still count toward LoginDays.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultLoginPoints is the credit for a daily login event.
const DefaultLoginPoints = 5

// RecordLoginCommand contains the data for a login event.
type RecordLoginCommand struct {
	// UserID is the learner who logged in.
	UserID string

	// Points overrides the default credit when positive.
	Points int

	// Timestamp is when the login happened (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordLoginCommand) Validate() error {
	if _, err := shared.NewUserID(c.UserID); err != nil {
		return fmt.Errorf("record_login: %w", err)
	}
	if c.Points < 0 {
		return fmt.Errorf("record_login: %w", shared.ErrNegativePointAmount)
	}
	return nil
}

// RecordLoginResult contains the result of a login event.
type RecordLoginResult struct {
	// UserID is the learner.
	UserID string

	// CurrentStreak is the streak after this login.
	CurrentStreak int

	// LongestStreak is the best streak on record.
	LongestStreak int

	// StreakExtended reports whether the streak grew by one day.
	StreakExtended bool

	// StreakBroken reports whether a missed gap reset the streak.
	StreakBroken bool

	// DaysMissed is the gap length when the streak broke.
	DaysMissed int

	// LoginDays is the cumulative login-day counter.
	LoginDays int

	// PointsAwarded is the credited amount.
	PointsAwarded int

	// LeveledUp reports whether the credit crossed a level threshold.
	LeveledUp bool

	// NewLevel is the level after the credit.
	NewLevel int

	// BadgesAwarded lists names of badges granted by this event.
	BadgesAwarded []string

	// RecordedAt is when the event was processed.
	RecordedAt time.Time
}

// RecordLoginHandler handles the RecordLoginCommand.
type RecordLoginHandler struct {
	statsRepo gamification.StatsRepository
	badgeFlow *saga.BadgeFlowSaga
	publisher shared.EventPublisher
	log       *logger.Logger
	retrier   *retry.Retrier
}

// NewRecordLoginHandler creates a new RecordLoginHandler.
func NewRecordLoginHandler(
	statsRepo gamification.StatsRepository,
	badgeFlow *saga.BadgeFlowSaga,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *RecordLoginHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordLoginHandler{
		statsRepo: statsRepo,
		badgeFlow: badgeFlow,
		publisher: publisher,
		log:       log.With(logger.String("component", "record_login")),
		retrier:   retry.OptimisticLockRetrier(),
	}
}

// Handle executes the record login command.
func (h *RecordLoginHandler) Handle(ctx context.Context, cmd RecordLoginCommand) (*RecordLoginResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	userID := shared.UserID(cmd.UserID)

	amount := cmd.Points
	if amount == 0 {
		amount = DefaultLoginPoints
	}

	var (
		streak gamification.StreakOutcome
		award  gamification.AwardOutcome
		after  *gamification.UserStats
	)
	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		stats, err := h.statsRepo.FindOrCreate(ctx, userID)
		if err != nil {
			return retry.Permanent(err)
		}

		streak = stats.RecordLogin(timestamp)
		award, err = stats.AwardPoints(amount)
		if err != nil {
			return retry.Permanent(err)
		}

		after = stats
		return classifySaveError(h.statsRepo.Save(ctx, stats))
	})
	if err != nil {
		return nil, fmt.Errorf("record_login: update stats for %s: %w", cmd.UserID, err)
	}

	result := &RecordLoginResult{
		UserID:         cmd.UserID,
		CurrentStreak:  streak.Current,
		LongestStreak:  streak.Longest,
		StreakExtended: streak.Extended,
		StreakBroken:   streak.Broken,
		DaysMissed:     streak.DaysMissed,
		LoginDays:      after.Achievements.LoginDays,
		PointsAwarded:  award.Amount,
		LeveledUp:      award.LeveledUp(),
		NewLevel:       award.NewLevel,
		RecordedAt:     timestamp,
	}

	h.publishEvents(cmd, streak, award, after)

	if h.badgeFlow != nil {
		flow, err := h.badgeFlow.Run(ctx, userID)
		if err != nil {
			h.log.Error("badge flow failed after login",
				logger.UserID(cmd.UserID), logger.Err(err))
		} else {
			for _, a := range flow.Awarded {
				result.BadgesAwarded = append(result.BadgesAwarded, a.Badge.Name)
			}
		}
	}

	return result, nil
}

func (h *RecordLoginHandler) publishEvents(
	cmd RecordLoginCommand,
	streak gamification.StreakOutcome,
	award gamification.AwardOutcome,
	after *gamification.UserStats,
) {
	if h.publisher == nil {
		return
	}

	if streak.Broken {
		_ = h.publisher.Publish(shared.NewStreakBrokenEvent(cmd.UserID, streak.Previous, streak.DaysMissed))
	}

	streakEvent := shared.NewStreakUpdatedEvent(
		cmd.UserID, streak.Current, streak.Longest, streak.Extended, after.Achievements.LoginDays)
	streakEvent.BaseEvent = streakEvent.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	_ = h.publisher.Publish(streakEvent)

	_ = h.publisher.Publish(shared.NewPointsAwardedEvent(
		cmd.UserID, award.Amount, award.NewTotal, string(SourceLogin)))

	if award.LeveledUp() {
		_ = h.publisher.Publish(shared.NewLevelUpEvent(
			cmd.UserID, award.OldLevel, award.NewLevel, after.Level.XP, after.Level.XPToNext))
	}
}
