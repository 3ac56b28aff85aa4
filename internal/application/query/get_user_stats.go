package query

import (
	"context"
	"fmt"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER STATS QUERY
// Возвращает статистику геймификации вместе с полученными бейджами.
// Пользователь без статистики получает нулевую запись, а не ошибку.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserStatsQuery contains the stats request parameters.
type GetUserStatsQuery struct {
	// UserID is the user to report on.
	UserID string
}

// Validate validates the query.
func (q *GetUserStatsQuery) Validate() error {
	if _, err := shared.NewUserID(q.UserID); err != nil {
		return fmt.Errorf("get_user_stats: %w", err)
	}
	return nil
}

// EarnedBadgeDTO is one earned badge with its grant context.
type EarnedBadgeDTO struct {
	// Name is the badge's unique name.
	Name string `json:"name"`

	// Description explains what the badge rewards.
	Description string `json:"description"`

	// Icon is the badge's emoji icon.
	Icon string `json:"icon"`

	// Rarity is common/rare/epic/legendary.
	Rarity string `json:"rarity"`

	// Points is the badge's point value.
	Points int `json:"points"`

	// EarnedAt is when the user earned it.
	EarnedAt time.Time `json:"earned_at"`

	// Progress is the criterion value at grant time over its target.
	Progress float64 `json:"progress"`
	Target   float64 `json:"target"`
}

// UserStatsDTO is the gamification state payload.
type UserStatsDTO struct {
	UserID        string  `json:"user_id"`
	TotalPoints   int     `json:"total_points"`
	WeeklyPoints  int     `json:"weekly_points"`
	MonthlyPoints int     `json:"monthly_points"`
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	Level         int     `json:"level"`
	XP            int     `json:"xp"`
	XPToNext      int     `json:"xp_to_next"`
	BadgesEarned  int     `json:"badges_earned"`
	Assignments   int     `json:"assignments_completed"`
	AverageScore  float64 `json:"average_score"`
	LoginDays     int     `json:"login_days"`

	// LastActivity is omitted for users with no activity yet.
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// GetUserStatsResult contains stats plus earned badges.
type GetUserStatsResult struct {
	Stats  UserStatsDTO     `json:"stats"`
	Badges []EarnedBadgeDTO `json:"badges"`

	// AchievementScore is the bounded composite (0-100).
	AchievementScore float64 `json:"achievement_score"`

	GeneratedAt time.Time `json:"generated_at"`
}

// GetUserStatsHandler handles the GetUserStatsQuery.
type GetUserStatsHandler struct {
	statsRepo gamification.StatsRepository
	badgeRepo gamification.BadgeRepository
}

// NewGetUserStatsHandler creates a new GetUserStatsHandler.
func NewGetUserStatsHandler(
	statsRepo gamification.StatsRepository,
	badgeRepo gamification.BadgeRepository,
) *GetUserStatsHandler {
	return &GetUserStatsHandler{statsRepo: statsRepo, badgeRepo: badgeRepo}
}

// Handle executes the stats query.
func (h *GetUserStatsHandler) Handle(ctx context.Context, q GetUserStatsQuery) (*GetUserStatsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	userID := shared.UserID(q.UserID)

	stats, err := h.statsRepo.FindByUser(ctx, userID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, fmt.Errorf("get_user_stats: load stats: %w", err)
		}
		// Lazily-created aggregate: absence means "no activity yet".
		stats = gamification.NewUserStats(userID)
	}

	earned, err := h.badgeRepo.EarnedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get_user_stats: load badges: %w", err)
	}

	catalog, err := h.badgeRepo.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_user_stats: load catalog: %w", err)
	}
	byID := make(map[shared.BadgeID]gamification.Badge, len(catalog))
	for i := range catalog {
		byID[catalog[i].ID] = catalog[i]
	}

	badgeDTOs := make([]EarnedBadgeDTO, 0, len(earned))
	badgeDefs := make([]gamification.Badge, 0, len(earned))
	for _, ub := range earned {
		def, ok := byID[ub.BadgeID]
		if !ok {
			continue
		}
		badgeDefs = append(badgeDefs, def)
		badgeDTOs = append(badgeDTOs, EarnedBadgeDTO{
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			Rarity:      string(def.Rarity),
			Points:      def.PointValue(),
			EarnedAt:    ub.EarnedAt,
			Progress:    ub.Progress.Current,
			Target:      ub.Progress.Target,
		})
	}

	dto := UserStatsDTO{
		UserID:        q.UserID,
		TotalPoints:   stats.Points.Total,
		WeeklyPoints:  stats.Points.Weekly,
		MonthlyPoints: stats.Points.Monthly,
		CurrentStreak: stats.Streaks.Current,
		LongestStreak: stats.Streaks.Longest,
		Level:         stats.Level.Current,
		XP:            stats.Level.XP,
		XPToNext:      stats.Level.XPToNext,
		BadgesEarned:  stats.Achievements.BadgesEarned,
		Assignments:   stats.Achievements.AssignmentsCompleted,
		AverageScore:  stats.Achievements.AverageScore,
		LoginDays:     stats.Achievements.LoginDays,
	}
	if !stats.Streaks.LastActivity.IsZero() {
		last := stats.Streaks.LastActivity
		dto.LastActivity = &last
	}

	return &GetUserStatsResult{
		Stats:            dto,
		Badges:           badgeDTOs,
		AchievementScore: gamification.AchievementScore(stats, badgeDefs),
		GeneratedAt:      time.Now().UTC(),
	}, nil
}
