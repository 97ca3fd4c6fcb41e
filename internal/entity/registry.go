package entity

import (
	"context"
	"fmt"
	"sync"

	"github.com/gogotex/appcatalog/internal/models"
)

// Resolver looks up references to entities of a single kind.
type Resolver interface {
	ReferenceByName(ctx context.Context, name string, include models.Include) (*models.EntityReference, error)
	ReferenceByID(ctx context.Context, id string, include models.Include) (*models.EntityReference, error)
}

// Registry maps each entity kind to its resolver. It is filled at startup.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[models.EntityKind]Resolver
}

func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[models.EntityKind]Resolver)}
}

func (r *Registry) Register(kind models.EntityKind, res Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[kind] = res
}

func (r *Registry) resolver(kind models.EntityKind) (Resolver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resolvers[kind]
	if !ok {
		return nil, fmt.Errorf("no resolver registered for entity kind %q", kind)
	}
	return res, nil
}

func (r *Registry) Has(kind models.EntityKind) bool {
	_, err := r.resolver(kind)
	return err == nil
}

func (r *Registry) ReferenceByName(ctx context.Context, kind models.EntityKind, name string, include models.Include) (*models.EntityReference, error) {
	res, err := r.resolver(kind)
	if err != nil {
		return nil, err
	}
	return res.ReferenceByName(ctx, name, include)
}

func (r *Registry) ReferenceByID(ctx context.Context, kind models.EntityKind, id string, include models.Include) (*models.EntityReference, error) {
	res, err := r.resolver(kind)
	if err != nil {
		return nil, err
	}
	return res.ReferenceByID(ctx, id, include)
}
