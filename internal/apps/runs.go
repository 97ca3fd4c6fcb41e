package apps

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/models"
	"github.com/gogotex/appcatalog/internal/timeseries"
)

// RunRecordExtension is the time-series extension run records are stored under.
const RunRecordExtension = "AppRunRecord"

// RunHistory reads and appends application run records.
type RunHistory struct {
	ts timeseries.Store
}

func NewRunHistory(ts timeseries.Store) *RunHistory {
	return &RunHistory{ts: ts}
}

// Record appends rec to the application's history.
func (h *RunHistory) Record(ctx context.Context, rec models.AppRunRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode run record: %w", err)
	}
	ts := rec.Timestamp
	if ts == 0 {
		ts = rec.StartTime
	}
	return h.ts.Insert(ctx, timeseries.Record{EntityID: rec.AppID, Extension: RunRecordExtension, Timestamp: ts, JSON: string(b)})
}

// ListAll returns every run record of every application in insertion order.
func (h *RunHistory) ListAll(ctx context.Context) ([]models.AppRunRecord, error) {
	raw, err := h.ts.ListAll(ctx, RunRecordExtension)
	if err != nil {
		return nil, err
	}
	return decodeRuns(raw)
}

// ListRuns returns one page of an application's runs, newest first, with the
// total count. A zero limit returns only the count.
func (h *RunHistory) ListRuns(ctx context.Context, appID string, limit, offset int) (entity.ResultList[models.AppRunRecord], error) {
	if limit < 0 || offset < 0 {
		return entity.ResultList[models.AppRunRecord]{}, fmt.Errorf("%w: limit and offset must not be negative", ErrInvalid)
	}
	total, err := h.ts.Count(ctx, appID, RunRecordExtension)
	if err != nil {
		return entity.ResultList[models.AppRunRecord]{}, err
	}
	if limit == 0 {
		return entity.NewResultList[models.AppRunRecord](nil, nil, total), nil
	}
	raw, err := h.ts.List(ctx, appID, RunRecordExtension, limit, offset)
	if err != nil {
		return entity.ResultList[models.AppRunRecord]{}, err
	}
	runs, err := decodeRuns(raw)
	if err != nil {
		return entity.ResultList[models.AppRunRecord]{}, err
	}
	return entity.NewResultList(runs, &offset, total), nil
}

// LatestRun returns the most recent run of an application.
func (h *RunHistory) LatestRun(ctx context.Context, appID string) (*models.AppRunRecord, error) {
	raw, err := h.ts.Latest(ctx, appID, RunRecordExtension)
	if err != nil {
		return nil, fmt.Errorf("latest run of %s: %w", appID, err)
	}
	var rec models.AppRunRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode run record: %w", err)
	}
	return &rec, nil
}

func decodeRuns(raw []string) ([]models.AppRunRecord, error) {
	out := make([]models.AppRunRecord, 0, len(raw))
	for _, s := range raw {
		var rec models.AppRunRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("decode run record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
