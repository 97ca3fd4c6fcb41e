package relationships

import (
	"context"
	"sync"

	"github.com/gogotex/appcatalog/internal/models"
)

// MemoryStore keeps edges in insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	edges []Edge
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) AddEdge(ctx context.Context, fromID, toID string, fromKind, toKind models.EntityKind, rel models.Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.edges {
		if e.FromID == fromID && e.ToID == toID && e.Relation == rel {
			return nil
		}
	}
	m.edges = append(m.edges, Edge{FromID: fromID, ToID: toID, FromEntity: fromKind, ToEntity: toKind, Relation: rel})
	return nil
}

func (m *MemoryStore) FindTo(ctx context.Context, fromID string, rel models.Relationship, toKind models.EntityKind) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []string{}
	for _, e := range m.edges {
		if e.FromID == fromID && e.Relation == rel && e.ToEntity == toKind {
			out = append(out, e.ToID)
		}
	}
	return out, nil
}

func (m *MemoryStore) FindFrom(ctx context.Context, toID string, rel models.Relationship) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Edge{}
	for _, e := range m.edges {
		if e.ToID == toID && e.Relation == rel {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) DeleteTo(ctx context.Context, toID string, rel models.Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.edges[:0]
	for _, e := range m.edges {
		if e.ToID != toID || e.Relation != rel {
			kept = append(kept, e)
		}
	}
	m.edges = kept
	return nil
}

func (m *MemoryStore) DeleteAll(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.edges[:0]
	for _, e := range m.edges {
		if e.FromID != id && e.ToID != id {
			kept = append(kept, e)
		}
	}
	m.edges = kept
	return nil
}

// Edges returns a snapshot of all stored edges.
func (m *MemoryStore) Edges() []Edge {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Edge(nil), m.edges...)
}
