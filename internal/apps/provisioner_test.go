package apps

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/locks"
	"github.com/gogotex/appcatalog/internal/models"
	"github.com/gogotex/appcatalog/internal/users"
	"github.com/gogotex/appcatalog/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureBot_CreatesUserAndBot(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	before := testutil.ToFloat64(metrics.BotProvisioning.WithLabelValues("user", "created"))

	owner := &models.EntityReference{ID: "team-1", Type: models.KindTeam, Name: "data"}
	ref, err := f.prov.EnsureBot(ctx, &models.App{Name: "Lineage", Owner: owner})
	require.NoError(t, err)
	require.Equal(t, "LineageBot", ref.Name)
	require.Equal(t, models.KindBot, ref.Type)

	u, err := f.users.FindByName(ctx, "LineageBot", models.IncludeNonDeleted)
	require.NoError(t, err)
	require.Equal(t, "LineageBot@openmetadata.org", u.Email)
	require.True(t, u.IsBot)
	require.False(t, u.IsAdmin)
	require.Len(t, u.Roles, 1)
	require.Equal(t, testRole, u.Roles[0].Name)
	require.Equal(t, owner.ID, u.Owner.ID)
	require.NotSame(t, owner, u.Owner)
	require.NotNil(t, u.AuthenticationMechanism)
	require.Equal(t, models.AuthTypeJWT, u.AuthenticationMechanism.AuthType)
	require.Equal(t, "token-LineageBot", u.AuthenticationMechanism.Config.JWTToken)
	require.Equal(t, models.JWTTokenExpiryUnlimited, u.AuthenticationMechanism.Config.JWTTokenExpiry)

	b, err := f.bots.FindByName(ctx, "LineageBot", models.IncludeNonDeleted)
	require.NoError(t, err)
	require.Equal(t, ref.ID, b.ID)
	require.Equal(t, u.ID, b.BotUser.ID)
	require.Equal(t, models.ProviderUser, b.Provider)
	require.Equal(t, "LineageBot", b.FullyQualifiedName)
	require.Equal(t, "admin", b.UpdatedBy)

	require.Equal(t, before+1, testutil.ToFloat64(metrics.BotProvisioning.WithLabelValues("user", "created")))
}

func TestEnsureBot_Idempotent(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	app := &models.App{Name: "DataInsights"}

	first, err := f.prov.EnsureBot(ctx, app)
	require.NoError(t, err)
	second, err := f.prov.EnsureBot(ctx, app)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, f.users.Count())
	require.Equal(t, 1, f.bots.Count())
}

func TestEnsureBot_ConcurrentSingleProcess(t *testing.T) {
	f := newFixture(t, true)
	concurrentEnsure(t, f, func(int) *BotProvisioner { return f.prov })
}

func TestEnsureBot_ConcurrentProvisionersShareStores(t *testing.T) {
	f := newFixture(t, true)
	// separate lockers model separate processes; only the store uniqueness
	// constraint keeps them from duplicating identities
	provs := []*BotProvisioner{
		NewBotProvisioner(f.users, f.bots, f.registry, f.issuer, locks.NewLocalLocker(), appsConfig()),
		NewBotProvisioner(f.users, f.bots, f.registry, f.issuer, locks.NewLocalLocker(), appsConfig()),
	}
	concurrentEnsure(t, f, func(i int) *BotProvisioner { return provs[i%2] })
}

func concurrentEnsure(t *testing.T, f *fixture, pick func(int) *BotProvisioner) {
	t.Helper()
	const n = 10
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref, err := pick(i).EnsureBot(context.Background(), &models.App{Name: "Search"})
			if assert.NoError(t, err) {
				ids[i] = ref.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}
	require.Equal(t, 1, f.users.Count())
	require.Equal(t, 1, f.bots.Count())
}

func TestEnsureBot_RoleMissing(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.prov.EnsureBot(context.Background(), &models.App{Name: "Lineage"})
	require.ErrorIs(t, err, ErrBotRoleMissing)
	require.Equal(t, 0, f.users.Count())
	require.Equal(t, 0, f.bots.Count())
}

func TestEnsureBot_TokenFailure(t *testing.T) {
	f := newFixture(t, true)
	f.issuer.err = errors.New("signing key unavailable")
	_, err := f.prov.EnsureBot(context.Background(), &models.App{Name: "Lineage"})
	require.ErrorIs(t, err, ErrTokenIssue)
	require.ErrorContains(t, err, "signing key unavailable")
	require.Equal(t, 0, f.users.Count())
}

func TestEnsureBot_EmptyName(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.prov.EnsureBot(context.Background(), &models.App{})
	require.ErrorIs(t, err, ErrInvalid)
}

// racyUsers hides existing users from the first lookup, as if another
// process created the user right after we checked.
type racyUsers struct {
	*users.MemoryUserRepository
	mu     sync.Mutex
	hidden int
}

func (r *racyUsers) FindByName(ctx context.Context, name string, include models.Include) (*models.User, error) {
	r.mu.Lock()
	if r.hidden > 0 {
		r.hidden--
		r.mu.Unlock()
		return nil, entity.ErrNotFound
	}
	r.mu.Unlock()
	return r.MemoryUserRepository.FindByName(ctx, name, include)
}

func TestEnsureBot_CreateConflictRefetches(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	existing, err := f.users.Create(ctx, &models.User{ID: "user-1", Name: "LineageBot", IsBot: true})
	require.NoError(t, err)

	racy := &racyUsers{MemoryUserRepository: f.users, hidden: 1}
	prov := NewBotProvisioner(racy, f.bots, f.registry, f.issuer, locks.NewLocalLocker(), appsConfig())

	ref, err := prov.EnsureBot(ctx, &models.App{Name: "Lineage"})
	require.NoError(t, err)
	b, err := f.bots.GetByID(ctx, ref.ID, models.IncludeNonDeleted)
	require.NoError(t, err)
	require.Equal(t, existing.ID, b.BotUser.ID)
	require.Equal(t, 1, f.users.Count())
}

func TestEnsureBot_RefetchFailure(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	_, err := f.users.Create(ctx, &models.User{ID: "user-1", Name: "LineageBot", IsBot: true})
	require.NoError(t, err)

	racy := &racyUsers{MemoryUserRepository: f.users, hidden: 2}
	prov := NewBotProvisioner(racy, f.bots, f.registry, f.issuer, locks.NewLocalLocker(), appsConfig())

	_, err = prov.EnsureBot(ctx, &models.App{Name: "Lineage"})
	require.ErrorIs(t, err, ErrProvisioning)
	require.Equal(t, 0, f.bots.Count())
}

type nilBots struct{}

func (nilBots) FindByName(ctx context.Context, name string, include models.Include) (*models.Bot, error) {
	return nil, entity.ErrNotFound
}

func (nilBots) GetByID(ctx context.Context, id string, include models.Include) (*models.Bot, error) {
	return nil, entity.ErrNotFound
}

func (nilBots) Create(ctx context.Context, b *models.Bot) (*models.Bot, error) {
	return nil, nil
}

func TestEnsureBot_NoBotIsInvariantViolation(t *testing.T) {
	f := newFixture(t, true)
	prov := NewBotProvisioner(f.users, nilBots{}, f.registry, f.issuer, locks.NewLocalLocker(), appsConfig())
	_, err := prov.EnsureBot(context.Background(), &models.App{Name: "Lineage"})
	require.ErrorIs(t, err, ErrBotMissing)
	require.ErrorIs(t, err, ErrInvariantViolation)
}
