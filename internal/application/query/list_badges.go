package query

import (
	"context"
	"fmt"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST BADGES QUERY
// Возвращает полный каталог бейджей с условиями получения.
// ══════════════════════════════════════════════════════════════════════════════

// BadgeDTO is one catalog entry.
type BadgeDTO struct {
	// ID is the badge identifier.
	ID string `json:"id"`

	// Name is the unique badge name.
	Name string `json:"name"`

	// Description explains what the badge rewards.
	Description string `json:"description"`

	// Icon is the emoji icon.
	Icon string `json:"icon"`

	// CriteriaType and CriteriaValue describe the earning condition.
	CriteriaType  string  `json:"criteria_type"`
	CriteriaValue float64 `json:"criteria_value"`

	// Points is the badge's point value (default applied).
	Points int `json:"points"`

	// Rarity is common/rare/epic/legendary.
	Rarity string `json:"rarity"`
}

// ListBadgesResult contains the catalog.
type ListBadgesResult struct {
	Badges      []BadgeDTO `json:"badges"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// ListBadgesHandler handles the badge catalog query.
type ListBadgesHandler struct {
	badgeRepo gamification.BadgeRepository
}

// NewListBadgesHandler creates a new ListBadgesHandler.
func NewListBadgesHandler(badgeRepo gamification.BadgeRepository) *ListBadgesHandler {
	return &ListBadgesHandler{badgeRepo: badgeRepo}
}

// Handle returns the full badge catalog.
func (h *ListBadgesHandler) Handle(ctx context.Context) (*ListBadgesResult, error) {
	catalog, err := h.badgeRepo.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_badges: load catalog: %w", err)
	}

	dtos := make([]BadgeDTO, 0, len(catalog))
	for i := range catalog {
		b := catalog[i]
		dtos = append(dtos, BadgeDTO{
			ID:            b.ID.String(),
			Name:          b.Name,
			Description:   b.Description,
			Icon:          b.Icon,
			CriteriaType:  string(b.Criteria.Type),
			CriteriaValue: b.Criteria.Value,
			Points:        b.PointValue(),
			Rarity:        string(b.Rarity),
		})
	}

	return &ListBadgesResult{Badges: dtos, GeneratedAt: time.Now().UTC()}, nil
}
