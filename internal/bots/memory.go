package bots

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/models"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]*models.Bot
	byName map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string]*models.Bot{}, byName: map[string]string{}}
}

func (m *MemoryRepository) FindByName(ctx context.Context, name string, include models.Include) (*models.Bot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[name]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return m.get(id, include)
}

func (m *MemoryRepository) GetByID(ctx context.Context, id string, include models.Include) (*models.Bot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(id, include)
}

func (m *MemoryRepository) get(id string, include models.Include) (*models.Bot, error) {
	b, ok := m.byID[id]
	if !ok || !include.Matches(b.Deleted) {
		return nil, entity.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryRepository) Create(ctx context.Context, b *models.Bot) (*models.Bot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[b.Name]; exists {
		return nil, fmt.Errorf("bot %q: %w", b.Name, entity.ErrAlreadyExists)
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now().UTC()
	}
	cp := *b
	m.byID[b.ID] = &cp
	m.byName[b.Name] = b.ID
	return b, nil
}

func (m *MemoryRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

func (m *MemoryRepository) ReferenceByName(ctx context.Context, name string, include models.Include) (*models.EntityReference, error) {
	b, err := m.FindByName(ctx, name, include)
	if err != nil {
		return nil, err
	}
	return b.Reference(), nil
}

func (m *MemoryRepository) ReferenceByID(ctx context.Context, id string, include models.Include) (*models.EntityReference, error) {
	b, err := m.GetByID(ctx, id, include)
	if err != nil {
		return nil, err
	}
	return b.Reference(), nil
}
