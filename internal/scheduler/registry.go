package scheduler

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Registry records which applications are scheduled and with which spec.
type Registry interface {
	Add(ctx context.Context, appID, spec string) error
	Remove(ctx context.Context, appID string) error
	List(ctx context.Context) (map[string]string, error)
}

// RedisRegistry stores the schedule set in one Redis hash.
type RedisRegistry struct {
	client *redis.Client
	key    string
}

func NewRedisRegistry(client *redis.Client, key string) *RedisRegistry {
	if key == "" {
		key = "apps:scheduled"
	}
	return &RedisRegistry{client: client, key: key}
}

func (r *RedisRegistry) Add(ctx context.Context, appID, spec string) error {
	return r.client.HSet(ctx, r.key, appID, spec).Err()
}

func (r *RedisRegistry) Remove(ctx context.Context, appID string) error {
	return r.client.HDel(ctx, r.key, appID).Err()
}

func (r *RedisRegistry) List(ctx context.Context) (map[string]string, error) {
	return r.client.HGetAll(ctx, r.key).Result()
}

type MemoryRegistry struct {
	mu    sync.RWMutex
	specs map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{specs: map[string]string{}}
}

func (m *MemoryRegistry) Add(ctx context.Context, appID, spec string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.specs[appID] = spec
	return nil
}

func (m *MemoryRegistry) Remove(ctx context.Context, appID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.specs, appID)
	return nil
}

func (m *MemoryRegistry) List(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.specs))
	for k, v := range m.specs {
		out[k] = v
	}
	return out, nil
}
