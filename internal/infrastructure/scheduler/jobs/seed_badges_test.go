package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse-hub/edupulse-insights/internal/application/command"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
)

type seedingBadgeRepo struct {
	emptyBadgeRepo
	upserted  []gamification.Badge
	upsertErr error
}

func (r *seedingBadgeRepo) UpsertCatalog(ctx context.Context, badges []gamification.Badge) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserted = badges
	return nil
}

func TestSeedBadgesJob_Run(t *testing.T) {
	repo := &seedingBadgeRepo{}
	job := NewSeedBadgesJob(command.NewSeedBadgesHandler(repo, nil), nil)

	assert.Equal(t, "seed_badges", job.Name())
	require.NoError(t, job.Run(context.Background()))

	assert.Len(t, repo.upserted, len(gamification.CatalogBadges()))
}

func TestSeedBadgesJob_UpsertFailure(t *testing.T) {
	repo := &seedingBadgeRepo{upsertErr: errors.New("pg: down")}
	job := NewSeedBadgesJob(command.NewSeedBadgesHandler(repo, nil), nil)

	assert.Error(t, job.Run(context.Background()))
}
