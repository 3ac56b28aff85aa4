// Package redis implements the Redis caching layer of EduPulse Insights.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/leaderboard"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// КЕШ РЕЙТИНГОВ
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache реализует leaderboard.Cache на Redis Sorted Sets.
//
// Схема ключей:
//   - sorted set "lb:rank:{type}" хранит userID -> счёт (ZREVRANGE даёт топ)
//   - hash "lb:entry:{type}" хранит userID -> JSON с деталями записи
//
// Полная перестройка (Rebuild) выполняется фоновой задачей из PostgreSQL;
// точечные обновления счёта приходят от обработчиков доменных событий.
type LeaderboardCache struct {
	client *Client
}

// Шаблоны ключей кеша рейтингов.
const (
	keyRankPrefix  = "lb:rank:"
	keyEntryPrefix = "lb:entry:"
)

// NewLeaderboardCache создаёт новый LeaderboardCache.
func NewLeaderboardCache(client *Client) *LeaderboardCache {
	return &LeaderboardCache{client: client}
}

// cachedEntry - сериализованная форма записи рейтинга в hash.
type cachedEntry struct {
	UserID        string    `json:"user_id"`
	TotalPoints   int       `json:"total_points"`
	CurrentStreak int       `json:"current_streak"`
	Level         int       `json:"level"`
	BadgesCount   int       `json:"badges_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Rebuild атомарно заменяет кеш рейтинга полным набором записей.
// Старый ключ удаляется и заполняется заново в одной транзакции, чтобы
// параллельные читатели не увидели полупустой рейтинг.
func (l *LeaderboardCache) Rebuild(ctx context.Context, rankingType leaderboard.RankingType, entries []*leaderboard.Entry) error {
	rankKey := keyRankPrefix + string(rankingType)
	entryKey := keyEntryPrefix + string(rankingType)

	members := make([]redis.Z, 0, len(entries))
	details := make(map[string]interface{}, len(entries))
	for _, e := range entries {
		members = append(members, redis.Z{
			Score:  float64(e.Score),
			Member: e.UserID.String(),
		})
		data, err := json.Marshal(cachedEntry{
			UserID:        e.UserID.String(),
			TotalPoints:   e.TotalPoints,
			CurrentStreak: e.CurrentStreak,
			Level:         e.Level,
			BadgesCount:   e.BadgesCount,
			UpdatedAt:     e.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("leaderboard_cache: marshal entry: %w", err)
		}
		details[e.UserID.String()] = data
	}

	pipe := l.client.Redis().TxPipeline()
	pipe.Del(ctx, rankKey, entryKey)
	if len(members) > 0 {
		pipe.ZAdd(ctx, rankKey, members...)
		pipe.HSet(ctx, entryKey, details)
		pipe.Expire(ctx, rankKey, TTLLeaderboard)
		pipe.Expire(ctx, entryKey, TTLLeaderboard)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard_cache: rebuild %s: %w", rankingType, err)
	}
	return nil
}

// Top возвращает топ-N из sorted set вместе с деталями из hash.
// Пустой или отсутствующий ключ считается промахом кеша.
func (l *LeaderboardCache) Top(ctx context.Context, rankingType leaderboard.RankingType, limit int) ([]*leaderboard.Entry, error) {
	rankKey := keyRankPrefix + string(rankingType)
	entryKey := keyEntryPrefix + string(rankingType)

	ranked, err := l.client.Redis().ZRevRangeWithScores(ctx, rankKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard_cache: top %s: %w", rankingType, err)
	}
	if len(ranked) == 0 {
		return nil, shared.ErrLeaderboardCacheMiss
	}

	ids := make([]string, 0, len(ranked))
	for _, z := range ranked {
		id, ok := z.Member.(string)
		if !ok {
			return nil, shared.ErrLeaderboardCacheMiss
		}
		ids = append(ids, id)
	}

	raw, err := l.client.Redis().HMGet(ctx, entryKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard_cache: entry details %s: %w", rankingType, err)
	}

	entries := make([]*leaderboard.Entry, 0, len(ranked))
	for i, z := range ranked {
		entry := &leaderboard.Entry{
			UserID: shared.UserID(ids[i]),
			Score:  int64(z.Score),
		}
		// Детали могли отстать от sorted set; ранжирование важнее деталей,
		// поэтому запись без деталей остаётся с нулевыми полями.
		if s, ok := raw[i].(string); ok {
			var detail cachedEntry
			if err := json.Unmarshal([]byte(s), &detail); err == nil {
				entry.TotalPoints = detail.TotalPoints
				entry.CurrentStreak = detail.CurrentStreak
				entry.Level = detail.Level
				entry.BadgesCount = detail.BadgesCount
				entry.UpdatedAt = detail.UpdatedAt
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// UpdateScore обновляет счёт одного пользователя в sorted set.
// Детали в hash не трогаются: их освежит ближайший Rebuild.
func (l *LeaderboardCache) UpdateScore(ctx context.Context, rankingType leaderboard.RankingType, userID shared.UserID, score int64) error {
	if userID.String() == "" {
		return ErrCacheKeyEmpty
	}
	rankKey := keyRankPrefix + string(rankingType)
	err := l.client.Redis().ZAdd(ctx, rankKey, redis.Z{
		Score:  float64(score),
		Member: userID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("leaderboard_cache: update score %s: %w", rankingType, err)
	}
	return nil
}

// Invalidate сбрасывает кеш рейтинга выбранного типа.
func (l *LeaderboardCache) Invalidate(ctx context.Context, rankingType leaderboard.RankingType) error {
	rankKey := keyRankPrefix + string(rankingType)
	entryKey := keyEntryPrefix + string(rankingType)
	if err := l.client.Redis().Del(ctx, rankKey, entryKey).Err(); err != nil {
		return fmt.Errorf("leaderboard_cache: invalidate %s: %w", rankingType, err)
	}
	return nil
}
