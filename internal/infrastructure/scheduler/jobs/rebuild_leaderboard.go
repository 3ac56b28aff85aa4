package jobs

import (
	"context"
	"fmt"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/leaderboard"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob regenerates the Redis leaderboard caches from the
// primary store. Incremental score updates keep the total and streak sets
// roughly current between runs; the full rebuild repairs drift and is the
// only writer for the weekly and monthly sets.
type RebuildLeaderboardJob struct {
	repo  leaderboard.Repository
	cache leaderboard.Cache
	log   *logger.Logger
	depth int
}

// DefaultCacheDepth is how many ranked entries each rebuilt set holds.
const DefaultCacheDepth = 100

// NewRebuildLeaderboardJob creates a new RebuildLeaderboardJob.
func NewRebuildLeaderboardJob(
	repo leaderboard.Repository,
	cache leaderboard.Cache,
	depth int,
	log *logger.Logger,
) *RebuildLeaderboardJob {
	if log == nil {
		log = logger.Default()
	}
	if depth <= 0 {
		depth = DefaultCacheDepth
	}
	return &RebuildLeaderboardJob{
		repo:  repo,
		cache: cache,
		log:   log.With(logger.String("job", "rebuild_leaderboard")),
		depth: depth,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Regenerates Redis leaderboard caches from PostgreSQL"
}

// Run rebuilds every ranking type. A failed type is reported but does not
// stop the others; readers fall back to PostgreSQL for a stale set anyway.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	rankingTypes := []leaderboard.RankingType{
		leaderboard.RankingTotal,
		leaderboard.RankingWeekly,
		leaderboard.RankingMonthly,
		leaderboard.RankingStreak,
	}

	var firstErr error
	for _, rankingType := range rankingTypes {
		if err := j.rebuildOne(ctx, rankingType); err != nil {
			j.log.Error("leaderboard rebuild failed",
				logger.String("ranking_type", string(rankingType)),
				logger.Err(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (j *RebuildLeaderboardJob) rebuildOne(ctx context.Context, rankingType leaderboard.RankingType) error {
	entries, err := j.repo.Top(ctx, rankingType, j.depth)
	if err != nil {
		return fmt.Errorf("load %s entries: %w", rankingType, err)
	}

	if err := j.cache.Rebuild(ctx, rankingType, entries); err != nil {
		return fmt.Errorf("rebuild %s cache: %w", rankingType, err)
	}

	j.log.Info("leaderboard cache rebuilt",
		logger.String("ranking_type", string(rankingType)),
		logger.Int("entries", len(entries)),
	)
	return nil
}
