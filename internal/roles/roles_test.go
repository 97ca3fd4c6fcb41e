package roles

import (
	"context"
	"testing"

	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/models"
	"github.com/stretchr/testify/require"
)

func TestSeed_CreatesMissingOnce(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.ReferenceByName(ctx, "ApplicationBotRole", models.IncludeNonDeleted)
	require.ErrorIs(t, err, entity.ErrNotFound)

	require.NoError(t, Seed(ctx, repo, "ApplicationBotRole", "DataConsumer"))
	first, err := repo.ReferenceByName(ctx, "ApplicationBotRole", models.IncludeNonDeleted)
	require.NoError(t, err)
	require.Equal(t, models.KindRole, first.Type)

	// seeding again keeps the existing role
	require.NoError(t, Seed(ctx, repo, "ApplicationBotRole"))
	again, err := repo.ReferenceByName(ctx, "ApplicationBotRole", models.IncludeNonDeleted)
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)

	byID, err := repo.ReferenceByID(ctx, first.ID, models.IncludeAll)
	require.NoError(t, err)
	require.Equal(t, "ApplicationBotRole", byID.Name)
}
