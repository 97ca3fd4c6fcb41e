package apps

import (
	"context"
	"sync"
	"testing"

	"github.com/gogotex/appcatalog/internal/bots"
	"github.com/gogotex/appcatalog/internal/config"
	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/locks"
	"github.com/gogotex/appcatalog/internal/models"
	"github.com/gogotex/appcatalog/internal/relationships"
	"github.com/gogotex/appcatalog/internal/roles"
	"github.com/gogotex/appcatalog/internal/users"
	"github.com/stretchr/testify/require"
)

const testRole = "ApplicationBotRole"

type fakeIssuer struct {
	err error
}

func (f *fakeIssuer) IssueToken(u *models.User, expiry models.JWTTokenExpiry) (*models.JWTAuthMechanism, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.JWTAuthMechanism{JWTToken: "token-" + u.Name, JWTTokenExpiry: expiry}, nil
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeScheduler) DeleteScheduledApplication(ctx context.Context, app *models.App) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, app.ID)
	return f.err
}

func (f *fakeScheduler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fixture struct {
	users    *users.MemoryUserRepository
	bots     *bots.MemoryRepository
	roles    *roles.MemoryRepository
	rels     *relationships.MemoryStore
	store    *MemoryStore
	registry *entity.Registry
	issuer   *fakeIssuer
	sched    *fakeScheduler
	prov     *BotProvisioner
	repo     *Repository
}

func appsConfig() config.AppsConfig {
	return config.AppsConfig{BotEmailDomain: "openmetadata.org", BotRoleName: testRole}
}

func newFixture(t *testing.T, withRole bool) *fixture {
	t.Helper()
	f := &fixture{
		users:    users.NewMemoryUserRepository(),
		bots:     bots.NewMemoryRepository(),
		roles:    roles.NewMemoryRepository(),
		rels:     relationships.NewMemoryStore(),
		store:    NewMemoryStore(),
		registry: entity.NewRegistry(),
		issuer:   &fakeIssuer{},
		sched:    &fakeScheduler{},
	}
	if withRole {
		_, err := f.roles.Create(context.Background(), &models.Role{ID: "role-1", Name: testRole})
		require.NoError(t, err)
	}
	f.registry.Register(models.KindRole, f.roles)
	f.registry.Register(models.KindUser, f.users)
	f.registry.Register(models.KindBot, f.bots)
	f.prov = NewBotProvisioner(f.users, f.bots, f.registry, f.issuer, locks.NewLocalLocker(), appsConfig())
	f.repo = NewRepository(f.store, f.rels, f.registry, f.prov, f.sched)
	return f
}

func (f *fixture) edges(rel models.Relationship) []relationships.Edge {
	var out []relationships.Edge
	for _, e := range f.rels.Edges() {
		if e.Relation == rel {
			out = append(out, e)
		}
	}
	return out
}
