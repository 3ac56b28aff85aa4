// Package jobs contains implementations of scheduled jobs for EduPulse Insights.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/application/query"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/activity"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH PREDICTIONS JOB
// ══════════════════════════════════════════════════════════════════════════════

// RefreshPredictionsJob recomputes predictions for every user with recent
// activity. Predictions are also computed on demand by the read path; this
// job keeps the persisted records and risk alerts warm for users nobody has
// queried lately.
type RefreshPredictionsJob struct {
	activityRepo activity.Repository
	predictions  *query.GetPredictionHandler
	log          *logger.Logger
	config       RefreshPredictionsConfig
}

// RefreshPredictionsConfig contains configuration for the refresh job.
type RefreshPredictionsConfig struct {
	// ActivityWindow bounds how far back a user's last activity may be
	// for them to still get a refresh.
	ActivityWindow time.Duration

	// MaxUsersPerRun caps one run's workload. Zero means no cap.
	MaxUsersPerRun int
}

// DefaultRefreshPredictionsConfig returns sensible defaults.
func DefaultRefreshPredictionsConfig() RefreshPredictionsConfig {
	return RefreshPredictionsConfig{
		ActivityWindow: 7 * 24 * time.Hour,
		MaxUsersPerRun: 1000,
	}
}

// NewRefreshPredictionsJob creates a new RefreshPredictionsJob.
func NewRefreshPredictionsJob(
	activityRepo activity.Repository,
	predictions *query.GetPredictionHandler,
	config RefreshPredictionsConfig,
	log *logger.Logger,
) *RefreshPredictionsJob {
	if log == nil {
		log = logger.Default()
	}
	if config.ActivityWindow <= 0 {
		config.ActivityWindow = 7 * 24 * time.Hour
	}
	return &RefreshPredictionsJob{
		activityRepo: activityRepo,
		predictions:  predictions,
		log:          log.With(logger.String("job", "refresh_predictions")),
		config:       config,
	}
}

// Name returns the job name.
func (j *RefreshPredictionsJob) Name() string {
	return "refresh_predictions"
}

// Description returns a human-readable description.
func (j *RefreshPredictionsJob) Description() string {
	return "Recomputes per-subject predictions for recently active users"
}

// Run refreshes predictions for every recently active user. Individual
// failures are logged and skipped so one bad user never blocks the rest.
func (j *RefreshPredictionsJob) Run(ctx context.Context) error {
	since := time.Now().UTC().Add(-j.config.ActivityWindow)

	userIDs, err := j.activityRepo.ActiveUserIDs(ctx, since)
	if err != nil {
		return fmt.Errorf("refresh_predictions: list active users: %w", err)
	}
	if j.config.MaxUsersPerRun > 0 && len(userIDs) > j.config.MaxUsersPerRun {
		userIDs = userIDs[:j.config.MaxUsersPerRun]
	}

	var refreshed, failed int
	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, err := j.predictions.Handle(ctx, query.GetPredictionQuery{UserID: userID.String()})
		if err != nil {
			failed++
			j.log.Warn("prediction refresh failed",
				logger.UserID(userID.String()),
				logger.Err(err),
			)
			continue
		}
		refreshed++
	}

	j.log.Info("prediction refresh finished",
		logger.Int("refreshed", refreshed),
		logger.Int("failed", failed),
	)
	return nil
}
