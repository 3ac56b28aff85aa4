package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// statsColumns is the shared select list for user_stats rows.
const statsColumns = `
	user_id, total_points, weekly_points, monthly_points,
	current_streak, longest_streak, last_activity,
	badges_earned, assignments_completed, graded_submissions,
	average_score, login_days,
	level, xp, xp_to_next, version, created_at, updated_at`

// StatsRepository implements gamification.StatsRepository using PostgreSQL.
//
// Every write is a full-row optimistic update guarded by the version
// column; zero rows affected means a concurrent writer won.
type StatsRepository struct {
	conn *Connection
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(conn *Connection) *StatsRepository {
	return &StatsRepository{conn: conn}
}

// FindByUser returns the stats row, or shared.ErrStatsNotFound.
func (r *StatsRepository) FindByUser(ctx context.Context, userID shared.UserID) (*gamification.UserStats, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT `+statsColumns+` FROM user_stats WHERE user_id = $1`,
		userID.String(),
	)
	stats, err := scanStats(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStatsNotFound
		}
		return nil, fmt.Errorf("postgres: find stats: %w", err)
	}
	return stats, nil
}

// FindOrCreate returns the stats row, inserting an empty one when absent.
// The insert races benignly: ON CONFLICT DO NOTHING plus a re-read give
// both racers the same row.
func (r *StatsRepository) FindOrCreate(ctx context.Context, userID shared.UserID) (*gamification.UserStats, error) {
	stats, err := r.FindByUser(ctx, userID)
	if err == nil {
		return stats, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	fresh := gamification.NewUserStats(userID)
	_, err = r.conn.Exec(ctx, `
		INSERT INTO user_stats (user_id, level, xp, xp_to_next, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO NOTHING`,
		userID.String(),
		fresh.Level.Current,
		fresh.Level.XP,
		fresh.Level.XPToNext,
		fresh.CreatedAt,
		fresh.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: create stats: %w", err)
	}

	return r.FindByUser(ctx, userID)
}

// Save writes the full row if its version still matches the loaded one,
// bumping the version. A zero-row update means a concurrent writer won and
// the caller must reload; that is reported as shared.ErrStatsVersionConflict.
func (r *StatsRepository) Save(ctx context.Context, stats *gamification.UserStats) error {
	if err := stats.CheckInvariants(); err != nil {
		return err
	}

	tag, err := r.conn.Exec(ctx, `
		UPDATE user_stats SET
			total_points = $2,
			weekly_points = $3,
			monthly_points = $4,
			current_streak = $5,
			longest_streak = $6,
			last_activity = $7,
			badges_earned = $8,
			assignments_completed = $9,
			graded_submissions = $10,
			average_score = $11,
			login_days = $12,
			level = $13,
			xp = $14,
			xp_to_next = $15,
			version = version + 1,
			updated_at = $16
		WHERE user_id = $1 AND version = $17`,
		stats.UserID.String(),
		stats.Points.Total,
		stats.Points.Weekly,
		stats.Points.Monthly,
		stats.Streaks.Current,
		stats.Streaks.Longest,
		nullableTime(stats.Streaks.LastActivity),
		stats.Achievements.BadgesEarned,
		stats.Achievements.AssignmentsCompleted,
		stats.Achievements.GradedSubmissions,
		stats.Achievements.AverageScore,
		stats.Achievements.LoginDays,
		stats.Level.Current,
		stats.Level.XP,
		stats.Level.XPToNext,
		stats.UpdatedAt,
		stats.Version,
	)
	if err != nil {
		return fmt.Errorf("postgres: save stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStatsVersionConflict
	}

	stats.Version++
	return nil
}

// TopByPoints returns the best rows for the given point window.
func (r *StatsRepository) TopByPoints(ctx context.Context, window string, limit int) ([]*gamification.UserStats, error) {
	column, err := pointsColumn(window)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx,
		`SELECT `+statsColumns+` FROM user_stats ORDER BY `+column+` DESC, user_id ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: top by points: %w", err)
	}
	defer rows.Close()

	return scanStatsRows(rows)
}

// TopByStreak returns the best rows by current streak.
func (r *StatsRepository) TopByStreak(ctx context.Context, limit int) ([]*gamification.UserStats, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+statsColumns+` FROM user_stats ORDER BY current_streak DESC, user_id ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: top by streak: %w", err)
	}
	defer rows.Close()

	return scanStatsRows(rows)
}

// ResetWindow zeroes one point window for every user and returns the number
// of affected rows. Runs at ISO-week and calendar-month boundaries.
func (r *StatsRepository) ResetWindow(ctx context.Context, window string) (int64, error) {
	column, err := pointsColumn(window)
	if err != nil {
		return 0, err
	}
	if column == "total_points" {
		return 0, shared.NewDomainError("gamification", "ResetWindow",
			shared.ErrInvalidInput, "the all-time window is never reset")
	}

	tag, err := r.conn.Exec(ctx,
		`UPDATE user_stats SET `+column+` = 0, version = version + 1, updated_at = NOW() WHERE `+column+` <> 0`,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: reset %s window: %w", window, err)
	}
	return tag.RowsAffected(), nil
}

// pointsColumn maps a window name onto its fixed column. Only known names
// reach SQL; anything else is a validation error, never string splicing.
func pointsColumn(window string) (string, error) {
	switch window {
	case "total":
		return "total_points", nil
	case "weekly":
		return "weekly_points", nil
	case "monthly":
		return "monthly_points", nil
	default:
		return "", shared.NewDomainError("gamification", "TopByPoints",
			shared.ErrInvalidInput, "unknown points window "+window)
	}
}

// scanStats reads one user_stats row.
func scanStats(row pgx.Row) (*gamification.UserStats, error) {
	var (
		stats        gamification.UserStats
		userID       string
		lastActivity *time.Time
	)
	err := row.Scan(
		&userID,
		&stats.Points.Total,
		&stats.Points.Weekly,
		&stats.Points.Monthly,
		&stats.Streaks.Current,
		&stats.Streaks.Longest,
		&lastActivity,
		&stats.Achievements.BadgesEarned,
		&stats.Achievements.AssignmentsCompleted,
		&stats.Achievements.GradedSubmissions,
		&stats.Achievements.AverageScore,
		&stats.Achievements.LoginDays,
		&stats.Level.Current,
		&stats.Level.XP,
		&stats.Level.XPToNext,
		&stats.Version,
		&stats.CreatedAt,
		&stats.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	stats.UserID = shared.UserID(userID)
	if lastActivity != nil {
		stats.Streaks.LastActivity = *lastActivity
	}
	return &stats, nil
}

func scanStatsRows(rows pgx.Rows) ([]*gamification.UserStats, error) {
	var result []*gamification.UserStats
	for rows.Next() {
		stats, err := scanStats(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan stats row: %w", err)
		}
		result = append(result, stats)
	}
	return result, rows.Err()
}

// nullableTime maps the zero time onto SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
