// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
	"github.com/edupulse-hub/edupulse-insights/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD POINTS COMMAND
// Credits points to a user, normalizes the level, and publishes the
// resulting events. This is the single entry point for every point credit
// in the system: submissions, logins, and badge bonuses all end up here
// or in the equivalent in-saga path.
// ══════════════════════════════════════════════════════════════════════════════

// PointSource identifies what triggered a point credit.
type PointSource string

const (
	SourceSubmission PointSource = "submission"
	SourceLogin      PointSource = "login"
	SourceBadge      PointSource = "badge"
	SourceManual     PointSource = "manual"
)

// AwardPointsCommand contains the data for a point credit.
type AwardPointsCommand struct {
	// UserID is the user to credit.
	UserID string

	// Amount is the number of points; must be non-negative.
	Amount int

	// Source identifies the trigger, for events and logs.
	Source PointSource

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AwardPointsCommand) Validate() error {
	if _, err := shared.NewUserID(c.UserID); err != nil {
		return fmt.Errorf("award_points: %w", err)
	}
	if c.Amount < 0 {
		return fmt.Errorf("award_points: %w", shared.ErrNegativePointAmount)
	}
	return nil
}

// AwardPointsResult contains the result of a point credit.
type AwardPointsResult struct {
	// UserID is the credited user.
	UserID string

	// Amount is the number of points credited.
	Amount int

	// NewTotal is the all-time point total after the credit.
	NewTotal int

	// OldLevel and NewLevel bracket any level change.
	OldLevel int
	NewLevel int

	// LeveledUp reports whether the credit crossed a level threshold.
	LeveledUp bool

	// AwardedAt is when the credit was persisted.
	AwardedAt time.Time
}

// AwardPointsHandler handles the AwardPointsCommand.
//
// Concurrency: the read-modify-write on UserStats races with other writers
// for the same user, so the save goes through optimistic version checking
// with a bounded retry. A conflicting writer causes a reload and a clean
// re-application of the credit, never a lost update.
type AwardPointsHandler struct {
	statsRepo gamification.StatsRepository
	publisher shared.EventPublisher
	retrier   *retry.Retrier
}

// NewAwardPointsHandler creates a new AwardPointsHandler.
func NewAwardPointsHandler(
	statsRepo gamification.StatsRepository,
	publisher shared.EventPublisher,
) *AwardPointsHandler {
	return &AwardPointsHandler{
		statsRepo: statsRepo,
		publisher: publisher,
		retrier:   retry.OptimisticLockRetrier(),
	}
}

// classifySaveError marks version conflicts as retryable and everything
// else as permanent, so the optimistic retrier reloads only on conflicts.
func classifySaveError(err error) error {
	if err == nil {
		return nil
	}
	if shared.IsRetryable(err) {
		return retry.Retryable(err)
	}
	return retry.Permanent(err)
}

// Handle executes the award points command.
func (h *AwardPointsHandler) Handle(ctx context.Context, cmd AwardPointsCommand) (*AwardPointsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	userID := shared.UserID(cmd.UserID)

	var (
		outcome    gamification.AwardOutcome
		levelAfter gamification.LevelState
	)
	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		stats, err := h.statsRepo.FindOrCreate(ctx, userID)
		if err != nil {
			return retry.Permanent(err)
		}

		outcome, err = stats.AwardPoints(cmd.Amount)
		if err != nil {
			return retry.Permanent(err)
		}

		levelAfter = stats.Level
		return classifySaveError(h.statsRepo.Save(ctx, stats))
	})
	if err != nil {
		return nil, fmt.Errorf("award_points: failed to credit %d points to %s: %w", cmd.Amount, cmd.UserID, err)
	}

	result := &AwardPointsResult{
		UserID:    cmd.UserID,
		Amount:    outcome.Amount,
		NewTotal:  outcome.NewTotal,
		OldLevel:  outcome.OldLevel,
		NewLevel:  outcome.NewLevel,
		LeveledUp: outcome.LeveledUp(),
		AwardedAt: time.Now().UTC(),
	}

	h.publishEvents(cmd, outcome, levelAfter)

	return result, nil
}

func (h *AwardPointsHandler) publishEvents(cmd AwardPointsCommand, outcome gamification.AwardOutcome, level gamification.LevelState) {
	if h.publisher == nil {
		return
	}

	event := shared.NewPointsAwardedEvent(cmd.UserID, outcome.Amount, outcome.NewTotal, string(cmd.Source))
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	_ = h.publisher.Publish(event)

	if outcome.LeveledUp() {
		_ = h.publisher.Publish(shared.NewLevelUpEvent(
			cmd.UserID, outcome.OldLevel, outcome.NewLevel, level.XP, level.XPToNext))
	}
}
