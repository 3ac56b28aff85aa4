package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// BadgeRepository implements gamification.BadgeRepository using PostgreSQL.
type BadgeRepository struct {
	conn *Connection
}

// NewBadgeRepository creates a new BadgeRepository.
func NewBadgeRepository(conn *Connection) *BadgeRepository {
	return &BadgeRepository{conn: conn}
}

// UpsertCatalog seeds the badge catalog, keyed by name. Existing badges
// keep their ID and any earned references; descriptions, criteria, points
// and rarity follow the catalog definition.
func (r *BadgeRepository) UpsertCatalog(ctx context.Context, badges []gamification.Badge) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		for i := range badges {
			b := &badges[i]
			_, err := tx.Exec(ctx, `
				INSERT INTO badges (name, description, icon, criteria_type, criteria_value, points, rarity)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (name) DO UPDATE SET
					description = EXCLUDED.description,
					icon = EXCLUDED.icon,
					criteria_type = EXCLUDED.criteria_type,
					criteria_value = EXCLUDED.criteria_value,
					points = EXCLUDED.points,
					rarity = EXCLUDED.rarity`,
				b.Name,
				b.Description,
				b.Icon,
				string(b.Criteria.Type),
				b.Criteria.Value,
				b.Points,
				string(b.Rarity),
			)
			if err != nil {
				return fmt.Errorf("postgres: upsert badge %q: %w", b.Name, err)
			}
		}
		return nil
	})
}

// Catalog returns every badge in the catalog, stable order by name.
func (r *BadgeRepository) Catalog(ctx context.Context) ([]gamification.Badge, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, name, description, icon, criteria_type, criteria_value, points, rarity
		FROM badges
		ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: load badge catalog: %w", err)
	}
	defer rows.Close()

	var catalog []gamification.Badge
	for rows.Next() {
		badge, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		catalog = append(catalog, badge)
	}
	return catalog, rows.Err()
}

// FindByName returns one catalog badge, or shared.ErrBadgeNotFound.
func (r *BadgeRepository) FindByName(ctx context.Context, name string) (*gamification.Badge, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, name, description, icon, criteria_type, criteria_value, points, rarity
		FROM badges
		WHERE name = $1`,
		name,
	)
	badge, err := scanBadge(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrBadgeNotFound
		}
		return nil, fmt.Errorf("postgres: find badge by name: %w", err)
	}
	return &badge, nil
}

// EarnedByUser returns the user's earned badges, oldest first.
func (r *BadgeRepository) EarnedByUser(ctx context.Context, userID shared.UserID) ([]*gamification.UserBadge, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT user_id, badge_id, earned_at, progress_current, progress_target
		FROM user_badges
		WHERE user_id = $1
		ORDER BY earned_at ASC`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: load earned badges: %w", err)
	}
	defer rows.Close()

	var earned []*gamification.UserBadge
	for rows.Next() {
		var (
			ub      gamification.UserBadge
			user    string
			badgeID string
		)
		if err := rows.Scan(&user, &badgeID, &ub.EarnedAt, &ub.Progress.Current, &ub.Progress.Target); err != nil {
			return nil, fmt.Errorf("postgres: scan earned badge: %w", err)
		}
		ub.UserID = shared.UserID(user)
		ub.BadgeID = shared.BadgeID(badgeID)
		earned = append(earned, &ub)
	}
	return earned, rows.Err()
}

// InsertUserBadge records a badge grant. The UNIQUE(user_id, badge_id)
// constraint makes concurrent grants safe: the race loser's insert affects
// zero rows and created comes back false, never an error.
func (r *BadgeRepository) InsertUserBadge(ctx context.Context, ub *gamification.UserBadge) (created bool, err error) {
	tag, err := r.conn.Exec(ctx, `
		INSERT INTO user_badges (user_id, badge_id, earned_at, progress_current, progress_target)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, badge_id) DO NOTHING`,
		ub.UserID.String(),
		ub.BadgeID.String(),
		ub.EarnedAt,
		ub.Progress.Current,
		ub.Progress.Target,
	)
	if err != nil {
		return false, fmt.Errorf("postgres: insert user badge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// scanBadge reads one catalog row.
func scanBadge(row pgx.Row) (gamification.Badge, error) {
	var (
		badge        gamification.Badge
		id           string
		criteriaType string
		rarity       string
	)
	err := row.Scan(
		&id,
		&badge.Name,
		&badge.Description,
		&badge.Icon,
		&criteriaType,
		&badge.Criteria.Value,
		&badge.Points,
		&rarity,
	)
	if err != nil {
		return gamification.Badge{}, err
	}
	badge.ID = shared.BadgeID(id)
	badge.Criteria.Type = gamification.CriteriaType(criteriaType)
	badge.Rarity = gamification.Rarity(rarity)
	return badge, nil
}
