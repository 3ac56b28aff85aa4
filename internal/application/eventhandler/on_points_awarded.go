// Package eventhandler содержит обработчики доменных событий.
// Обработчики выполняют побочную работу (синхронизация кеша, журналирование)
// и никогда не влияют на исход породившей событие операции.
package eventhandler

import (
	"context"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/leaderboard"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON POINTS AWARDED HANDLER
// Держит кеш общего рейтинга в шаге с начислениями: после каждого
// начисления обновляет счёт пользователя в sorted set общего рейтинга.
// Недельный и месячный кеши пересобираются фоновой задачей целиком,
// поэтому здесь не трогаются.
// ═══════════════════════════════════════════════════════════════════════════

// cacheUpdateTimeout ограничивает обновление кеша из обработчика.
const cacheUpdateTimeout = 2 * time.Second

// OnPointsAwardedHandler обновляет кеш рейтинга после начисления очков.
type OnPointsAwardedHandler struct {
	cache leaderboard.Cache
	log   *logger.Logger
}

// NewOnPointsAwardedHandler создаёт обработчик.
func NewOnPointsAwardedHandler(cache leaderboard.Cache, log *logger.Logger) *OnPointsAwardedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnPointsAwardedHandler{
		cache: cache,
		log:   log.With(logger.String("component", "on_points_awarded")),
	}
}

// Handle реализует shared.EventHandler.
func (h *OnPointsAwardedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.PointsAwardedEvent)
	if !ok {
		return nil
	}
	if h.cache == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheUpdateTimeout)
	defer cancel()

	userID := shared.UserID(e.AggregateID())
	if err := h.cache.UpdateScore(ctx, leaderboard.RankingTotal, userID, int64(e.NewTotal)); err != nil {
		// Кеш пересоберётся фоновой задачей; ошибка не критична.
		h.log.Warn("leaderboard cache score update failed",
			logger.UserID(userID.String()), logger.Err(err))
	}
	return nil
}
