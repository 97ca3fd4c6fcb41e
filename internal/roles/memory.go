package roles

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/models"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	roles map[string]models.Role
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{roles: map[string]models.Role{}}
}

func (m *MemoryRepository) ReferenceByName(ctx context.Context, name string, include models.Include) (*models.EntityReference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.roles {
		if r.Name == name && include.Matches(r.Deleted) {
			return r.Reference(), nil
		}
	}
	return nil, entity.ErrNotFound
}

func (m *MemoryRepository) ReferenceByID(ctx context.Context, id string, include models.Include) (*models.EntityReference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[id]
	if !ok || !include.Matches(r.Deleted) {
		return nil, entity.ErrNotFound
	}
	return r.Reference(), nil
}

func (m *MemoryRepository) Create(ctx context.Context, role *models.Role) (*models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.Name == role.Name {
			return nil, fmt.Errorf("role %q: %w", role.Name, entity.ErrAlreadyExists)
		}
	}
	role.UpdatedAt = time.Now().UTC()
	m.roles[role.ID] = *role
	return role, nil
}
