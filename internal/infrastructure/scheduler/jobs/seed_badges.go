package jobs

import (
	"context"

	"github.com/edupulse-hub/edupulse-insights/internal/application/command"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEED BADGES JOB
// ══════════════════════════════════════════════════════════════════════════════

// SeedBadgesJob upserts the fixed badge catalog into the database. It runs
// once at startup and then daily; the upsert is idempotent, so re-running
// after a catalog change simply refreshes descriptions and point values.
type SeedBadgesJob struct {
	seeder *command.SeedBadgesHandler
	log    *logger.Logger
}

// NewSeedBadgesJob creates a new SeedBadgesJob.
func NewSeedBadgesJob(seeder *command.SeedBadgesHandler, log *logger.Logger) *SeedBadgesJob {
	if log == nil {
		log = logger.Default()
	}
	return &SeedBadgesJob{
		seeder: seeder,
		log:    log.With(logger.String("job", "seed_badges")),
	}
}

// Name returns the job name.
func (j *SeedBadgesJob) Name() string {
	return "seed_badges"
}

// Description returns a human-readable description.
func (j *SeedBadgesJob) Description() string {
	return "Upserts the fixed badge catalog into the database"
}

// Run seeds the catalog.
func (j *SeedBadgesJob) Run(ctx context.Context) error {
	result, err := j.seeder.Handle(ctx)
	if err != nil {
		return err
	}
	j.log.Info("badge catalog seeded", logger.Int("catalog_size", result.CatalogSize))
	return nil
}
