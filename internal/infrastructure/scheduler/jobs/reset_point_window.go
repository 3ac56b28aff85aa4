package jobs

import (
	"context"
	"fmt"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/leaderboard"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET POINT WINDOWS JOB
// ══════════════════════════════════════════════════════════════════════════════

// ResetPointWindowJob zeroes one rolling point window for every user and
// invalidates the matching leaderboard cache. Two instances are registered:
// the weekly one on Monday midnight, the monthly one on the first of the
// month. All-time points are never reset.
type ResetPointWindowJob struct {
	statsRepo gamification.StatsRepository
	cache     leaderboard.Cache
	window    string
	ranking   leaderboard.RankingType
	log       *logger.Logger
}

// NewWeeklyResetJob creates the weekly point window reset.
func NewWeeklyResetJob(statsRepo gamification.StatsRepository, cache leaderboard.Cache, log *logger.Logger) *ResetPointWindowJob {
	return newResetJob(statsRepo, cache, "weekly", leaderboard.RankingWeekly, log)
}

// NewMonthlyResetJob creates the monthly point window reset.
func NewMonthlyResetJob(statsRepo gamification.StatsRepository, cache leaderboard.Cache, log *logger.Logger) *ResetPointWindowJob {
	return newResetJob(statsRepo, cache, "monthly", leaderboard.RankingMonthly, log)
}

func newResetJob(
	statsRepo gamification.StatsRepository,
	cache leaderboard.Cache,
	window string,
	ranking leaderboard.RankingType,
	log *logger.Logger,
) *ResetPointWindowJob {
	if log == nil {
		log = logger.Default()
	}
	return &ResetPointWindowJob{
		statsRepo: statsRepo,
		cache:     cache,
		window:    window,
		ranking:   ranking,
		log:       log.With(logger.String("job", "reset_"+window+"_points")),
	}
}

// Name returns the job name.
func (j *ResetPointWindowJob) Name() string {
	return "reset_" + j.window + "_points"
}

// Description returns a human-readable description.
func (j *ResetPointWindowJob) Description() string {
	return fmt.Sprintf("Zeroes the %s point window and invalidates its leaderboard cache", j.window)
}

// Run resets the window, then drops the matching cached ranking. A cache
// invalidation failure is logged only: the TTL expires it soon enough.
func (j *ResetPointWindowJob) Run(ctx context.Context) error {
	affected, err := j.statsRepo.ResetWindow(ctx, j.window)
	if err != nil {
		return fmt.Errorf("reset %s window: %w", j.window, err)
	}

	if j.cache != nil {
		if err := j.cache.Invalidate(ctx, j.ranking); err != nil {
			j.log.Warn("leaderboard cache invalidation failed",
				logger.String("ranking_type", string(j.ranking)),
				logger.Err(err),
			)
		}
	}

	j.log.Info("point window reset",
		logger.String("window", j.window),
		logger.Int("users_affected", int(affected)),
	)
	return nil
}
