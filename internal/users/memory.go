package users

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/models"
)

// MemoryUserRepository is an in-memory UserRepository used by tests and
// single-process deployments without MongoDB.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	byID   map[string]*models.User
	byName map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{byID: map[string]*models.User{}, byName: map[string]string{}}
}

func (m *MemoryUserRepository) FindByName(ctx context.Context, name string, include models.Include) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[name]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return m.get(id, include)
}

func (m *MemoryUserRepository) GetByID(ctx context.Context, id string, include models.Include) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(id, include)
}

func (m *MemoryUserRepository) get(id string, include models.Include) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok || !include.Matches(u.Deleted) {
		return nil, entity.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryUserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[u.Name]; exists {
		return nil, fmt.Errorf("user %q: %w", u.Name, entity.ErrAlreadyExists)
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	cp := *u
	m.byID[u.ID] = &cp
	m.byName[u.Name] = u.ID
	return u, nil
}

// Count returns the number of stored users, deleted ones included.
func (m *MemoryUserRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

func (m *MemoryUserRepository) ReferenceByName(ctx context.Context, name string, include models.Include) (*models.EntityReference, error) {
	u, err := m.FindByName(ctx, name, include)
	if err != nil {
		return nil, err
	}
	return u.Reference(), nil
}

func (m *MemoryUserRepository) ReferenceByID(ctx context.Context, id string, include models.Include) (*models.EntityReference, error) {
	u, err := m.GetByID(ctx, id, include)
	if err != nil {
		return nil, err
	}
	return u.Reference(), nil
}
