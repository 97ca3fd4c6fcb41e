package apps

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/models"
)

// MemoryStore is an AppStore kept in process memory. It stores copies so
// callers cannot mutate persisted state.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*models.App
	byName map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: map[string]*models.App{}, byName: map[string]string{}}
}

func (m *MemoryStore) Insert(ctx context.Context, app *models.App) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[app.Name]; ok {
		return fmt.Errorf("application %q: %w", app.Name, entity.ErrAlreadyExists)
	}
	m.byID[app.ID] = cloneApp(app)
	m.byName[app.Name] = app.ID
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, app *models.App) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.byID[app.ID]
	if !ok {
		return fmt.Errorf("application %s: %w", app.ID, entity.ErrNotFound)
	}
	delete(m.byName, prev.Name)
	m.byID[app.ID] = cloneApp(app)
	m.byName[app.Name] = app.ID
	return nil
}

func (m *MemoryStore) get(id string, include models.Include) (*models.App, error) {
	app, ok := m.byID[id]
	if !ok || !include.Matches(app.Deleted) {
		return nil, entity.ErrNotFound
	}
	return cloneApp(app), nil
}

func (m *MemoryStore) Get(ctx context.Context, id string, include models.Include) (*models.App, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(id, include)
}

func (m *MemoryStore) GetByName(ctx context.Context, name string, include models.Include) (*models.App, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[name]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return m.get(id, include)
}

func (m *MemoryStore) List(ctx context.Context, include models.Include) ([]*models.App, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.App{}
	for _, app := range m.byID {
		if include.Matches(app.Deleted) {
			out = append(out, cloneApp(app))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) SoftDelete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.byID[id]
	if !ok {
		return entity.ErrNotFound
	}
	app.Deleted = true
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.byID[id]
	if !ok {
		return entity.ErrNotFound
	}
	delete(m.byName, app.Name)
	delete(m.byID, id)
	return nil
}

func cloneApp(app *models.App) *models.App {
	cp := *app
	if app.AppConfiguration != nil {
		cp.AppConfiguration = make(map[string]any, len(app.AppConfiguration))
		for k, v := range app.AppConfiguration {
			cp.AppConfiguration[k] = v
		}
	}
	if app.AppSchedule != nil {
		s := *app.AppSchedule
		cp.AppSchedule = &s
	}
	return &cp
}
