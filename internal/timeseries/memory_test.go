package timeseries

import (
	"context"
	"fmt"
	"testing"

	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_NewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Insert(ctx, Record{EntityID: "a", Extension: "run", Timestamp: int64(i), JSON: fmt.Sprintf(`{"n":%d}`, i)}))
	}
	require.NoError(t, s.Insert(ctx, Record{EntityID: "b", Extension: "run", Timestamp: 10, JSON: `{"n":10}`}))

	n, err := s.Count(ctx, "a", "run")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	page, err := s.List(ctx, "a", "run", 2, 0)
	require.NoError(t, err)
	require.Equal(t, []string{`{"n":3}`, `{"n":2}`}, page)

	page, err = s.List(ctx, "a", "run", 2, 2)
	require.NoError(t, err)
	require.Equal(t, []string{`{"n":1}`}, page)

	latest, err := s.Latest(ctx, "a", "run")
	require.NoError(t, err)
	require.Equal(t, `{"n":3}`, latest)

	_, err = s.Latest(ctx, "missing", "run")
	require.ErrorIs(t, err, entity.ErrNotFound)

	all, err := s.ListAll(ctx, "run")
	require.NoError(t, err)
	require.Equal(t, []string{`{"n":1}`, `{"n":2}`, `{"n":3}`, `{"n":10}`}, all)
}
