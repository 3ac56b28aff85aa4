package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: ACTIVITY RECORDS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create activity records
-- Version: 001

CREATE TABLE IF NOT EXISTS activity_records (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL,
    subject VARCHAR(100) NOT NULL DEFAULT 'General',
    exam_score DOUBLE PRECISION,
    test_score DOUBLE PRECISION,
    assignment_score DOUBLE PRECISION,
    attendance BOOLEAN,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_exam_score CHECK (exam_score IS NULL OR (exam_score >= 0 AND exam_score <= 100)),
    CONSTRAINT valid_test_score CHECK (test_score IS NULL OR (test_score >= 0 AND test_score <= 100)),
    CONSTRAINT valid_assignment_score CHECK (assignment_score IS NULL OR (assignment_score >= 0 AND assignment_score <= 100))
);

CREATE INDEX IF NOT EXISTS idx_activity_user ON activity_records(user_id, recorded_at);
CREATE INDEX IF NOT EXISTS idx_activity_user_subject ON activity_records(user_id, subject, recorded_at);
CREATE INDEX IF NOT EXISTS idx_activity_recorded_at ON activity_records(recorded_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS activity_records;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: GAMIFICATION STATE
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create gamification state
-- Version: 002

-- One row per user; created lazily, never deleted.
-- version supports optimistic concurrency on read-modify-write updates.
CREATE TABLE IF NOT EXISTS user_stats (
    user_id UUID PRIMARY KEY,
    total_points INTEGER NOT NULL DEFAULT 0,
    weekly_points INTEGER NOT NULL DEFAULT 0,
    monthly_points INTEGER NOT NULL DEFAULT 0,
    current_streak INTEGER NOT NULL DEFAULT 0,
    longest_streak INTEGER NOT NULL DEFAULT 0,
    last_activity TIMESTAMP WITH TIME ZONE,
    badges_earned INTEGER NOT NULL DEFAULT 0,
    assignments_completed INTEGER NOT NULL DEFAULT 0,
    graded_submissions INTEGER NOT NULL DEFAULT 0,
    average_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    login_days INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    xp INTEGER NOT NULL DEFAULT 0,
    xp_to_next INTEGER NOT NULL DEFAULT 100,
    version BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT non_negative_points CHECK (total_points >= 0 AND weekly_points >= 0 AND monthly_points >= 0),
    CONSTRAINT xp_below_threshold CHECK (xp < xp_to_next),
    CONSTRAINT streak_bounded CHECK (current_streak <= longest_streak),
    CONSTRAINT valid_level CHECK (level >= 1)
);

CREATE INDEX IF NOT EXISTS idx_user_stats_total ON user_stats(total_points DESC);
CREATE INDEX IF NOT EXISTS idx_user_stats_weekly ON user_stats(weekly_points DESC);
CREATE INDEX IF NOT EXISTS idx_user_stats_monthly ON user_stats(monthly_points DESC);
CREATE INDEX IF NOT EXISTS idx_user_stats_streak ON user_stats(current_streak DESC);

-- Badge catalog, keyed by unique name; seeded idempotently.
CREATE TABLE IF NOT EXISTS badges (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(100) NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    icon VARCHAR(20) NOT NULL DEFAULT '',
    criteria_type VARCHAR(30) NOT NULL,
    criteria_value DOUBLE PRECISION NOT NULL,
    points INTEGER NOT NULL DEFAULT 0,
    rarity VARCHAR(20) NOT NULL DEFAULT 'common',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_criteria_type CHECK (criteria_type IN ('assignment_count', 'performance_avg', 'streak_days', 'login_days')),
    CONSTRAINT valid_rarity CHECK (rarity IN ('common', 'rare', 'epic', 'legendary')),
    CONSTRAINT positive_criteria CHECK (criteria_value > 0)
);

-- Earned badges. The unique pair constraint is what makes concurrent
-- awards safe: the race loser's insert is a no-op.
CREATE TABLE IF NOT EXISTS user_badges (
    id SERIAL PRIMARY KEY,
    user_id UUID NOT NULL,
    badge_id UUID NOT NULL REFERENCES badges(id) ON DELETE CASCADE,
    earned_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    progress_current DOUBLE PRECISION NOT NULL DEFAULT 0,
    progress_target DOUBLE PRECISION NOT NULL DEFAULT 0,

    UNIQUE(user_id, badge_id)
);

CREATE INDEX IF NOT EXISTS idx_user_badges_user ON user_badges(user_id);
`

const migration002Down = `
DROP TABLE IF EXISTS user_badges;
DROP TABLE IF EXISTS badges;
DROP TABLE IF EXISTS user_stats;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: PREDICTIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create predictions
-- Version: 003

-- Derived state: recomputed and upserted, one row per (user, subject).
CREATE TABLE IF NOT EXISTS predictions (
    id SERIAL PRIMARY KEY,
    user_id UUID NOT NULL,
    subject VARCHAR(100) NOT NULL,
    next_score DOUBLE PRECISION NOT NULL,
    trend VARCHAR(20) NOT NULL,
    risk_level VARCHAR(20) NOT NULL,
    confidence DOUBLE PRECISION NOT NULL,
    historical_scores DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
    recommendations TEXT[] NOT NULL DEFAULT '{}',
    weak_areas TEXT[] NOT NULL DEFAULT '{}',
    strengths TEXT[] NOT NULL DEFAULT '{}',
    motivation_level VARCHAR(20) NOT NULL DEFAULT 'low',
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(user_id, subject),

    CONSTRAINT valid_trend CHECK (trend IN ('improving', 'stable', 'declining')),
    CONSTRAINT valid_risk CHECK (risk_level IN ('low', 'medium', 'high')),
    CONSTRAINT valid_next_score CHECK (next_score >= 0 AND next_score <= 100),
    CONSTRAINT valid_confidence CHECK (confidence >= 0 AND confidence <= 1)
);

CREATE INDEX IF NOT EXISTS idx_predictions_user ON predictions(user_id);
CREATE INDEX IF NOT EXISTS idx_predictions_risk ON predictions(risk_level) WHERE risk_level = 'high';
`

const migration003Down = `
DROP TABLE IF EXISTS predictions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt *time.Time
}

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_activity_records", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_gamification", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_predictions", UpSQL: migration003Up, DownSQL: migration003Down},
	}
}

// Migrator handles database migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
}

// NewMigrator creates a new migrator with embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, migrations: GetMigrations()}
}

// EnsureMigrationTable creates the migration tracking table if it doesn't exist.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: create migration table: %v", ErrMigrationFailed, err)
	}
	return nil
}

// GetAppliedMigrations returns all applied migrations.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.conn.Query(ctx, `SELECT version, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("%w: read applied migrations: %v", ErrMigrationFailed, err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("%w: scan migration row: %v", ErrMigrationFailed, err)
		}
		applied[version] = appliedAt
	}
	return applied, rows.Err()
}

// Migrate applies all pending migrations in version order.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	pending := make([]Migration, 0, len(m.migrations))
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; !ok {
			pending = append(pending, mig)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	for _, mig := range pending {
		err := m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("apply %03d_%s: %w", mig.Version, mig.Name, err)
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
				mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMigrationFailed, err)
		}
	}
	return nil
}

// Rollback rolls back the last applied migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return nil
	}

	last := 0
	for version := range applied {
		if version > last {
			last = version
		}
	}

	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == last {
			target = &m.migrations[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: unknown applied version %d", ErrMigrationFailed, last)
	}

	return m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, target.DownSQL); err != nil {
			return fmt.Errorf("rollback %03d_%s: %w", target.Version, target.Name, err)
		}
		_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, target.Version)
		return err
	})
}
