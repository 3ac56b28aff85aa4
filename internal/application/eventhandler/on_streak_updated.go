package eventhandler

import (
	"context"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/leaderboard"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON STREAK UPDATED HANDLER
// Обновляет счёт пользователя в кеше рейтинга серий после каждого
// пересчёта серии.
// ═══════════════════════════════════════════════════════════════════════════

// OnStreakUpdatedHandler обновляет кеш рейтинга серий.
type OnStreakUpdatedHandler struct {
	cache leaderboard.Cache
	log   *logger.Logger
}

// NewOnStreakUpdatedHandler создаёт обработчик.
func NewOnStreakUpdatedHandler(cache leaderboard.Cache, log *logger.Logger) *OnStreakUpdatedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnStreakUpdatedHandler{
		cache: cache,
		log:   log.With(logger.String("component", "on_streak_updated")),
	}
}

// Handle реализует shared.EventHandler.
func (h *OnStreakUpdatedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.StreakUpdatedEvent)
	if !ok {
		return nil
	}
	if h.cache == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheUpdateTimeout)
	defer cancel()

	userID := shared.UserID(e.AggregateID())
	if err := h.cache.UpdateScore(ctx, leaderboard.RankingStreak, userID, int64(e.Current)); err != nil {
		h.log.Warn("streak cache score update failed",
			logger.UserID(userID.String()), logger.Err(err))
	}
	return nil
}
