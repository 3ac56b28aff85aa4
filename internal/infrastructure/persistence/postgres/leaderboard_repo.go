package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/leaderboard"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// LeaderboardRepository implements leaderboard.Repository over the user_stats
// table. This is the source of truth the Redis cache is rebuilt from; reads
// land here whenever the cache misses or is unavailable.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// Top returns the best N entries for the ranking type, ordered by score
// descending with user_id as a stable tie-break.
func (r *LeaderboardRepository) Top(ctx context.Context, rankingType leaderboard.RankingType, limit int) ([]*leaderboard.Entry, error) {
	column, err := rankingColumn(rankingType)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, `
		SELECT s.user_id, s.`+column+`, s.total_points, s.current_streak,
		       s.level, COUNT(ub.badge_id), s.updated_at
		FROM user_stats s
		LEFT JOIN user_badges ub ON ub.user_id = s.user_id
		GROUP BY s.user_id, s.`+column+`, s.total_points, s.current_streak,
		         s.level, s.updated_at
		ORDER BY s.`+column+` DESC, s.user_id ASC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: leaderboard top: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// UserRank returns the user's entry with its position in the ranking, or
// shared.ErrStatsNotFound when the user has no stats row. Rank is computed
// as 1 + the number of strictly better rows, matching the Top ordering.
func (r *LeaderboardRepository) UserRank(ctx context.Context, userID shared.UserID, rankingType leaderboard.RankingType) (*leaderboard.Entry, error) {
	column, err := rankingColumn(rankingType)
	if err != nil {
		return nil, err
	}

	row := r.conn.QueryRow(ctx, `
		SELECT s.user_id, s.`+column+`, s.total_points, s.current_streak,
		       s.level, COUNT(ub.badge_id), s.updated_at,
		       (SELECT COUNT(*) + 1 FROM user_stats o
		        WHERE o.`+column+` > s.`+column+`
		           OR (o.`+column+` = s.`+column+` AND o.user_id < s.user_id))
		FROM user_stats s
		LEFT JOIN user_badges ub ON ub.user_id = s.user_id
		WHERE s.user_id = $1
		GROUP BY s.user_id, s.`+column+`, s.total_points, s.current_streak,
		         s.level, s.updated_at`,
		userID.String(),
	)

	var (
		entry  leaderboard.Entry
		uid    string
		rank   int64
		badges int64
	)
	err = row.Scan(&uid, &entry.Score, &entry.TotalPoints, &entry.CurrentStreak,
		&entry.Level, &badges, &entry.UpdatedAt, &rank)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStatsNotFound
		}
		return nil, fmt.Errorf("postgres: user rank: %w", err)
	}
	entry.UserID = shared.UserID(uid)
	entry.BadgesCount = int(badges)
	entry.Rank = leaderboard.Rank(rank)
	return &entry, nil
}

// TotalCount returns the number of ranked users.
func (r *LeaderboardRepository) TotalCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM user_stats`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: leaderboard count: %w", err)
	}
	return count, nil
}

// rankingColumn maps a ranking type onto its fixed user_stats column. Only
// known types reach SQL; anything else is a validation error.
func rankingColumn(t leaderboard.RankingType) (string, error) {
	switch t {
	case leaderboard.RankingTotal:
		return "total_points", nil
	case leaderboard.RankingWeekly:
		return "weekly_points", nil
	case leaderboard.RankingMonthly:
		return "monthly_points", nil
	case leaderboard.RankingStreak:
		return "current_streak", nil
	default:
		return "", shared.ErrInvalidRankingType
	}
}

// scanEntry reads one leaderboard row without a rank; ranks are assigned by
// the caller after ordering is final.
func scanEntry(row pgx.Row) (*leaderboard.Entry, error) {
	var (
		entry  leaderboard.Entry
		uid    string
		badges int64
		score  int64
		at     time.Time
	)
	err := row.Scan(&uid, &score, &entry.TotalPoints, &entry.CurrentStreak,
		&entry.Level, &badges, &at)
	if err != nil {
		return nil, err
	}
	entry.UserID = shared.UserID(uid)
	entry.Score = score
	entry.BadgesCount = int(badges)
	entry.UpdatedAt = at
	return &entry, nil
}
