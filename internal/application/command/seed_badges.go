package command

import (
	"context"
	"fmt"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEED BADGES COMMAND
// Idempotent upsert of the fixed badge catalog, keyed by badge name.
// Runs on startup and on a slow interval; calling it any number of times
// has the same effect.
// ══════════════════════════════════════════════════════════════════════════════

// SeedBadgesResult contains the result of a catalog seed.
type SeedBadgesResult struct {
	// CatalogSize is the number of badges in the fixed catalog.
	CatalogSize int

	// SeededAt is when the upsert completed.
	SeededAt time.Time
}

// SeedBadgesHandler handles badge catalog seeding.
type SeedBadgesHandler struct {
	badgeRepo gamification.BadgeRepository
	log       *logger.Logger
}

// NewSeedBadgesHandler creates a new SeedBadgesHandler.
func NewSeedBadgesHandler(badgeRepo gamification.BadgeRepository, log *logger.Logger) *SeedBadgesHandler {
	if log == nil {
		log = logger.Default()
	}
	return &SeedBadgesHandler{
		badgeRepo: badgeRepo,
		log:       log.With(logger.String("component", "seed_badges")),
	}
}

// Handle upserts the fixed catalog.
func (h *SeedBadgesHandler) Handle(ctx context.Context) (*SeedBadgesResult, error) {
	catalog := gamification.CatalogBadges()

	for i := range catalog {
		if err := catalog[i].Validate(); err != nil {
			return nil, fmt.Errorf("seed_badges: invalid catalog entry %q: %w", catalog[i].Name, err)
		}
	}

	if err := h.badgeRepo.UpsertCatalog(ctx, catalog); err != nil {
		return nil, fmt.Errorf("seed_badges: upsert catalog: %w", err)
	}

	h.log.Info("badge catalog seeded", logger.Int("badges", len(catalog)))

	return &SeedBadgesResult{
		CatalogSize: len(catalog),
		SeededAt:    time.Now().UTC(),
	}, nil
}
