package apps

import (
	"context"
	"testing"

	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/models"
	"github.com/gogotex/appcatalog/internal/timeseries"
	"github.com/stretchr/testify/require"
)

func seedRuns(t *testing.T, h *RunHistory, appID string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		require.NoError(t, h.Record(context.Background(), models.AppRunRecord{
			AppID:     appID,
			Status:    models.RunStatusSuccess,
			StartTime: int64(i * 1000),
			Timestamp: int64(i * 1000),
		}))
	}
}

func TestListRuns_Pagination(t *testing.T) {
	h := NewRunHistory(timeseries.NewMemoryStore())
	const n = 5
	seedRuns(t, h, "app-1", n)
	seedRuns(t, h, "app-2", 2)

	for limit := 1; limit <= n+1; limit++ {
		for offset := 0; offset <= n+1; offset++ {
			page, err := h.ListRuns(context.Background(), "app-1", limit, offset)
			require.NoError(t, err)
			want := n - offset
			if want < 0 {
				want = 0
			}
			if want > limit {
				want = limit
			}
			require.Len(t, page.Data, want, "limit=%d offset=%d", limit, offset)
			require.Equal(t, n, page.Paging.Total)
			require.NotNil(t, page.Paging.Offset)
			require.Equal(t, offset, *page.Paging.Offset)
		}
	}

	page, err := h.ListRuns(context.Background(), "app-1", 2, 1)
	require.NoError(t, err)
	// newest first
	require.Equal(t, int64(4000), page.Data[0].Timestamp)
	require.Equal(t, int64(3000), page.Data[1].Timestamp)
}

func TestListRuns_CountOnly(t *testing.T) {
	h := NewRunHistory(timeseries.NewMemoryStore())
	seedRuns(t, h, "app-1", 3)

	page, err := h.ListRuns(context.Background(), "app-1", 0, 0)
	require.NoError(t, err)
	require.NotNil(t, page.Data)
	require.Empty(t, page.Data)
	require.Nil(t, page.Paging.Offset)
	require.Equal(t, 3, page.Paging.Total)
}

func TestListRuns_RejectsNegative(t *testing.T) {
	h := NewRunHistory(timeseries.NewMemoryStore())
	_, err := h.ListRuns(context.Background(), "app-1", -1, 0)
	require.ErrorIs(t, err, ErrInvalid)
	_, err = h.ListRuns(context.Background(), "app-1", 1, -1)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLatestRun(t *testing.T) {
	h := NewRunHistory(timeseries.NewMemoryStore())
	_, err := h.LatestRun(context.Background(), "app-1")
	require.ErrorIs(t, err, entity.ErrNotFound)

	seedRuns(t, h, "app-1", 3)
	rec, err := h.LatestRun(context.Background(), "app-1")
	require.NoError(t, err)
	require.Equal(t, int64(3000), rec.Timestamp)
	require.Equal(t, models.RunStatusSuccess, rec.Status)
}

func TestListAll_AcrossApplications(t *testing.T) {
	h := NewRunHistory(timeseries.NewMemoryStore())
	seedRuns(t, h, "app-1", 2)
	seedRuns(t, h, "app-2", 1)

	all, err := h.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "app-1", all[0].AppID)
	require.Equal(t, "app-2", all[2].AppID)
}
