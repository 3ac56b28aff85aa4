package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/leaderboard"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
	"github.com/edupulse-hub/edupulse-insights/pkg/circuitbreaker"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Возвращает топ-N рейтинга выбранного типа. Чтение идёт через кеш за
// circuit breaker'ом; промах, ошибка кеша или открытый breaker переводят
// запрос на первичное хранилище. Кеш никогда не единственный путь.
// ══════════════════════════════════════════════════════════════════════════════

// Leaderboard size limits.
const (
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
)

// GetLeaderboardQuery contains the leaderboard request parameters.
type GetLeaderboardQuery struct {
	// Type selects the ranking: total, weekly, monthly or streak.
	// Empty means total.
	Type string

	// Limit is the number of entries (default 20, max 100).
	Limit int
}

// Validate validates and normalizes the query.
func (q *GetLeaderboardQuery) Validate() error {
	if _, err := leaderboard.ParseRankingType(q.Type); err != nil {
		return err
	}
	if q.Limit < 0 {
		return errors.New("get_leaderboard: limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = DefaultLeaderboardLimit
	}
	if q.Limit > MaxLeaderboardLimit {
		q.Limit = MaxLeaderboardLimit
	}
	return nil
}

// LeaderboardEntryDTO is one ranked row.
type LeaderboardEntryDTO struct {
	// Rank is the 1-based position.
	Rank int `json:"rank"`

	// UserID identifies the user.
	UserID string `json:"user_id"`

	// Score is the ranked counter: window points or streak length.
	Score int64 `json:"score"`

	// TotalPoints is the all-time point total.
	TotalPoints int `json:"total_points"`

	// CurrentStreak is the active-day streak.
	CurrentStreak int `json:"current_streak"`

	// Level is the current level.
	Level int `json:"level"`

	// BadgesCount is the number of earned badges.
	BadgesCount int `json:"badges_count"`
}

// GetLeaderboardResult contains the ranked slice.
type GetLeaderboardResult struct {
	// Type is the ranking that was served.
	Type string `json:"type"`

	// Entries is the ranked slice, best first.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// TotalParticipants is the number of users with a stats row.
	TotalParticipants int64 `json:"total_participants"`

	// FromCache reports whether the cache served this response.
	FromCache bool `json:"from_cache"`

	// GeneratedAt is when the result was assembled.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	repo    leaderboard.Repository
	cache   leaderboard.Cache
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
// cache may be nil; reads then always go to the primary store.
func NewGetLeaderboardHandler(
	repo leaderboard.Repository,
	cache leaderboard.Cache,
	log *logger.Logger,
) *GetLeaderboardHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetLeaderboardHandler{
		repo:    repo,
		cache:   cache,
		breaker: circuitbreaker.CacheBreaker(nil),
		log:     log.With(logger.String("component", "get_leaderboard")),
	}
}

// Handle executes the leaderboard query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rankingType, err := leaderboard.ParseRankingType(q.Type)
	if err != nil {
		return nil, err
	}

	entries, fromCache := h.load(ctx, rankingType, q.Limit)
	if entries == nil {
		entries, err = h.repo.Top(ctx, rankingType, q.Limit)
		if err != nil {
			return nil, fmt.Errorf("get_leaderboard: load %s top: %w", rankingType, err)
		}
	}

	total, err := h.repo.TotalCount(ctx)
	if err != nil {
		// Entry list is the payload; the participant count is decoration.
		h.log.Warn("participant count unavailable", logger.Err(err))
		total = 0
	}

	board := &leaderboard.Board{Type: rankingType, Entries: entries, GeneratedAt: time.Now().UTC()}
	board.AssignRanks()

	dtos := make([]LeaderboardEntryDTO, 0, len(board.Entries))
	for _, e := range board.Entries {
		dtos = append(dtos, LeaderboardEntryDTO{
			Rank:          int(e.Rank),
			UserID:        e.UserID.String(),
			Score:         e.Score,
			TotalPoints:   e.TotalPoints,
			CurrentStreak: e.CurrentStreak,
			Level:         e.Level,
			BadgesCount:   e.BadgesCount,
		})
	}

	return &GetLeaderboardResult{
		Type:              string(rankingType),
		Entries:           dtos,
		TotalParticipants: total,
		FromCache:         fromCache,
		GeneratedAt:       board.GeneratedAt,
	}, nil
}

// load tries the cache behind the breaker. A nil return means "go to the
// primary store"; cache trouble is never surfaced to the caller.
func (h *GetLeaderboardHandler) load(ctx context.Context, t leaderboard.RankingType, limit int) ([]*leaderboard.Entry, bool) {
	if h.cache == nil {
		return nil, false
	}

	var entries []*leaderboard.Entry
	err := h.breaker.Execute(ctx, func(ctx context.Context) error {
		var cacheErr error
		entries, cacheErr = h.cache.Top(ctx, t, limit)
		return cacheErr
	})
	if err != nil {
		if !shared.IsNotFound(err) {
			h.log.Warn("leaderboard cache read failed, falling back to store",
				logger.String("ranking", string(t)), logger.Err(err))
		}
		return nil, false
	}
	return entries, true
}
