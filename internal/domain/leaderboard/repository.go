// Package leaderboard содержит доменную модель рейтингов EduPulse Insights.
package leaderboard

import (
	"context"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY AND CACHE CONTRACTS
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт чтения рейтингов из первичного хранилища.
// Реализация находится в infrastructure слое (PostgreSQL).
type Repository interface {
	// Top возвращает топ-N записей рейтинга выбранного типа.
	Top(ctx context.Context, rankingType RankingType, limit int) ([]*Entry, error)

	// UserRank возвращает позицию пользователя в рейтинге выбранного типа
	// или shared.ErrNotFound, если пользователь не участвует.
	UserRank(ctx context.Context, userID shared.UserID, rankingType RankingType) (*Entry, error)

	// TotalCount возвращает количество участников рейтинга.
	TotalCount(ctx context.Context) (int64, error)
}

// Cache определяет контракт кеша рейтингов (Redis sorted sets).
// Кеш - ускорение, не источник истины: промах или недоступность кеша
// переводит чтение на Repository.
type Cache interface {
	// Rebuild атомарно перестраивает кеш рейтинга из полного набора записей.
	Rebuild(ctx context.Context, rankingType RankingType, entries []*Entry) error

	// Top возвращает топ-N из кеша или shared.ErrLeaderboardCacheMiss.
	Top(ctx context.Context, rankingType RankingType, limit int) ([]*Entry, error)

	// UpdateScore обновляет счёт одного пользователя в кеше.
	UpdateScore(ctx context.Context, rankingType RankingType, userID shared.UserID, score int64) error

	// Invalidate сбрасывает кеш рейтинга выбранного типа.
	Invalidate(ctx context.Context, rankingType RankingType) error
}
