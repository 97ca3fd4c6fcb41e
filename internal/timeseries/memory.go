package timeseries

import (
	"context"
	"sort"
	"sync"

	"github.com/gogotex/appcatalog/internal/entity"
)

type MemoryStore struct {
	mu      sync.RWMutex
	seq     int64
	records []Record
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Insert(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	rec.Seq = m.seq
	m.records = append(m.records, rec)
	return nil
}

// matching returns the records of one entity/extension, newest first.
func (m *MemoryStore) matching(entityID, extension string) []Record {
	out := []Record{}
	for _, r := range m.records {
		if r.EntityID == entityID && r.Extension == extension {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].Seq > out[j].Seq
	})
	return out
}

func (m *MemoryStore) Count(ctx context.Context, entityID, extension string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matching(entityID, extension)), nil
}

func (m *MemoryStore) List(ctx context.Context, entityID, extension string, limit, offset int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.matching(entityID, extension)
	out := []string{}
	for i := offset; i < len(recs) && len(out) < limit; i++ {
		out = append(out, recs[i].JSON)
	}
	return out, nil
}

func (m *MemoryStore) Latest(ctx context.Context, entityID, extension string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.matching(entityID, extension)
	if len(recs) == 0 {
		return "", entity.ErrNotFound
	}
	return recs[0].JSON, nil
}

func (m *MemoryStore) ListAll(ctx context.Context, extension string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []string{}
	for _, r := range m.records {
		if r.Extension == extension {
			out = append(out, r.JSON)
		}
	}
	return out, nil
}
