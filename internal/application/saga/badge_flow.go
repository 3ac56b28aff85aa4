// Package saga contains multi-step business processes that orchestrate
// several domain operations in a coordinated manner.
package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
	"github.com/edupulse-hub/edupulse-insights/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE FLOW SAGA
// Flow: Load Stats → Load Catalog → Load Earned Set → Evaluate Eligibility →
//
//	Insert UserBadge → Credit Badge Points → Publish Events
//
// The flow is idempotent end to end: already-earned badges are skipped on
// evaluation, and a concurrent duplicate insert surfaces as created=false
// from the repository and is treated as "already earned", never as an error.
// The UserBadge insert and the point credit are two independent writes with
// no cross-record transaction; when the credit fails the badge row stays,
// the failure is logged, and the next run of the flow reconciles nothing
// further for that badge (the points are forfeit to at-most-once crediting
// rather than risking a double credit).
// ══════════════════════════════════════════════════════════════════════════════

// AwardedBadge describes one badge granted by a flow run.
type AwardedBadge struct {
	// Badge is the catalog entry that was granted.
	Badge gamification.Badge

	// Progress is the criterion progress at grant time.
	Progress gamification.Progress

	// PointsCredited reports whether the badge bonus reached the stats row.
	PointsCredited bool
}

// BadgeFlowResult contains the outcome of one flow run.
type BadgeFlowResult struct {
	// UserID is the user the flow ran for.
	UserID shared.UserID

	// Awarded lists the badges granted in this run.
	Awarded []AwardedBadge

	// SkippedRaces counts badges another writer granted first.
	SkippedRaces int

	// TotalBonus is the sum of credited badge points.
	TotalBonus int

	// LeveledUp reports whether any credit crossed a level threshold.
	LeveledUp bool

	// ProcessedAt is when the flow completed.
	ProcessedAt time.Time
}

// HasAwards returns true if any badge was granted.
func (r *BadgeFlowResult) HasAwards() bool {
	return len(r.Awarded) > 0
}

// BadgeFlowSaga orchestrates badge eligibility checking and granting.
type BadgeFlowSaga struct {
	statsRepo gamification.StatsRepository
	badgeRepo gamification.BadgeRepository
	publisher shared.EventPublisher
	log       *logger.Logger
	retrier   *retry.Retrier
}

// NewBadgeFlowSaga creates a new BadgeFlowSaga.
func NewBadgeFlowSaga(
	statsRepo gamification.StatsRepository,
	badgeRepo gamification.BadgeRepository,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *BadgeFlowSaga {
	if log == nil {
		log = logger.Default()
	}
	return &BadgeFlowSaga{
		statsRepo: statsRepo,
		badgeRepo: badgeRepo,
		publisher: publisher,
		log:       log.With(logger.String("component", "badge_flow")),
		retrier:   retry.OptimisticLockRetrier(),
	}
}

// Run evaluates every catalog badge the user has not earned yet and grants
// the eligible ones. Safe to call after any gamification event and safe to
// call concurrently for the same user.
func (s *BadgeFlowSaga) Run(ctx context.Context, userID shared.UserID) (*BadgeFlowResult, error) {
	result := &BadgeFlowResult{UserID: userID, ProcessedAt: time.Now().UTC()}

	stats, err := s.statsRepo.FindByUser(ctx, userID)
	if err != nil {
		if shared.IsNotFound(err) {
			// No stats row means no gamification activity yet, nothing to grant.
			return result, nil
		}
		return nil, fmt.Errorf("badge_flow: load stats: %w", err)
	}

	catalog, err := s.badgeRepo.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("badge_flow: load catalog: %w", err)
	}

	earnedList, err := s.badgeRepo.EarnedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("badge_flow: load earned badges: %w", err)
	}
	earned := make(map[shared.BadgeID]bool, len(earnedList))
	for _, ub := range earnedList {
		earned[ub.BadgeID] = true
	}

	eligible, err := gamification.EvaluateEligibility(stats, catalog, earned)
	if err != nil {
		return nil, fmt.Errorf("badge_flow: evaluate eligibility: %w", err)
	}

	for _, e := range eligible {
		awarded, err := s.grant(ctx, userID, e)
		if err != nil {
			// One badge failing must not block the rest of the run.
			s.log.Error("badge grant failed",
				logger.UserID(userID.String()),
				logger.BadgeName(e.Badge.Name),
				logger.Err(err))
			continue
		}
		if awarded == nil {
			result.SkippedRaces++
			continue
		}
		result.Awarded = append(result.Awarded, *awarded)
		if awarded.PointsCredited {
			result.TotalBonus += awarded.Badge.PointValue()
		}
	}

	return result, nil
}

// grant performs the two writes for one badge. Returns nil when another
// writer inserted the badge first.
func (s *BadgeFlowSaga) grant(ctx context.Context, userID shared.UserID, e gamification.EligibleBadge) (*AwardedBadge, error) {
	ub := gamification.NewUserBadge(userID, e.Badge.ID, e.Progress)

	created, err := s.badgeRepo.InsertUserBadge(ctx, ub)
	if err != nil {
		return nil, fmt.Errorf("insert user badge: %w", err)
	}
	if !created {
		// Lost the race: the unique constraint on (user, badge) made the
		// duplicate insert a no-op. Not an error.
		return nil, nil
	}

	awarded := &AwardedBadge{Badge: e.Badge, Progress: e.Progress}

	if err := s.creditBadge(ctx, userID, e.Badge); err != nil {
		// Badge row exists, points were not credited. Logged and accepted.
		s.log.Warn("badge recorded but bonus points not credited",
			logger.UserID(userID.String()),
			logger.BadgeName(e.Badge.Name),
			logger.Points(e.Badge.PointValue()),
			logger.Err(err))
		s.publishBadgeEvent(userID, e.Badge)
		return awarded, nil
	}
	awarded.PointsCredited = true

	s.log.Info("badge earned",
		logger.UserID(userID.String()),
		logger.BadgeName(e.Badge.Name),
		logger.String("rarity", string(e.Badge.Rarity)),
		logger.Points(e.Badge.PointValue()))

	s.publishBadgeEvent(userID, e.Badge)
	return awarded, nil
}

// creditBadge applies the badge bonus to the stats row: BadgesEarned counter
// plus the badge's point value, saved under optimistic version checking.
func (s *BadgeFlowSaga) creditBadge(ctx context.Context, userID shared.UserID, badge gamification.Badge) error {
	return s.retrier.Do(ctx, func(ctx context.Context) error {
		stats, err := s.statsRepo.FindByUser(ctx, userID)
		if err != nil {
			return retry.Permanent(err)
		}

		stats.Achievements.BadgesEarned++
		outcome, err := stats.AwardPoints(badge.PointValue())
		if err != nil {
			return retry.Permanent(err)
		}

		if err := s.statsRepo.Save(ctx, stats); err != nil {
			if shared.IsRetryable(err) {
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		}

		if outcome.LeveledUp() && s.publisher != nil {
			_ = s.publisher.Publish(shared.NewLevelUpEvent(
				userID.String(), outcome.OldLevel, outcome.NewLevel, stats.Level.XP, stats.Level.XPToNext))
		}
		return nil
	})
}

func (s *BadgeFlowSaga) publishBadgeEvent(userID shared.UserID, badge gamification.Badge) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(shared.NewBadgeEarnedEvent(
		userID.String(), badge.ID.String(), badge.Name, string(badge.Rarity), badge.PointValue()))
}
