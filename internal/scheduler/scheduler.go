// Package scheduler runs installed applications on their configured
// schedules and records every run.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogotex/appcatalog/internal/models"
	"github.com/gogotex/appcatalog/pkg/logger"
	"github.com/gogotex/appcatalog/pkg/metrics"
	"github.com/robfig/cron/v3"
)

var ErrInvalidSchedule = errors.New("invalid application schedule")

// Runner executes one run of an application and returns the context to
// attach to a successful run record.
type Runner func(ctx context.Context, app *models.App) (map[string]any, error)

// RunRecorder appends run records to the application's history.
type RunRecorder interface {
	Record(ctx context.Context, rec models.AppRunRecord) error
}

// CronSpec converts an application schedule to a cron spec.
func CronSpec(s *models.AppSchedule) (string, error) {
	if s == nil {
		return "", fmt.Errorf("%w: no schedule", ErrInvalidSchedule)
	}
	switch s.ScheduleType {
	case models.ScheduleHourly:
		return "@hourly", nil
	case models.ScheduleDaily:
		return "@daily", nil
	case models.ScheduleWeekly:
		return "@weekly", nil
	case models.ScheduleMonthly:
		return "@monthly", nil
	case models.ScheduleCustom:
		if _, err := cron.ParseStandard(s.CronExpression); err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, s.CronExpression, err)
		}
		return s.CronExpression, nil
	}
	return "", fmt.Errorf("%w: unknown type %q", ErrInvalidSchedule, s.ScheduleType)
}

// AppScheduler keeps one cron entry per scheduled application and mirrors
// the set of scheduled applications into a Registry shared by instances.
type AppScheduler struct {
	cron     *cron.Cron
	registry Registry
	runner   Runner
	runs     RunRecorder
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]cron.EntryID
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(registry Registry, runner Runner, runs RunRecorder) *AppScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &AppScheduler{
		cron:     cron.New(),
		registry: registry,
		runner:   runner,
		runs:     runs,
		now:      time.Now,
		entries:  make(map[string]cron.EntryID),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// AddApplication schedules app, replacing any existing entry. Applications
// without a schedule only run on demand and are skipped. The registry is
// written first, so a registry failure leaves the previous schedule running.
func (s *AppScheduler) AddApplication(ctx context.Context, app *models.App) error {
	if app.AppSchedule == nil {
		logger.Debugf("application %s has no schedule; not scheduling", app.Name)
		return nil
	}
	spec, err := CronSpec(app.AppSchedule)
	if err != nil {
		return err
	}
	if err := s.registry.Add(ctx, app.ID, spec); err != nil {
		return fmt.Errorf("register schedule of %s: %w", app.Name, err)
	}

	snapshot := *app
	s.mu.Lock()
	if id, ok := s.entries[app.ID]; ok {
		s.cron.Remove(id)
		delete(s.entries, app.ID)
	}
	id, err := s.cron.AddFunc(spec, func() { s.run(s.ctx, &snapshot, "Scheduled") })
	if err != nil {
		s.mu.Unlock()
		_ = s.registry.Remove(ctx, app.ID)
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	s.entries[app.ID] = id
	s.mu.Unlock()

	logger.Infof("scheduled application %s (%s)", app.Name, spec)
	return nil
}

// DeleteScheduledApplication removes app's cron entry and its registry
// record. Removing an application that is not scheduled is not an error. On a
// registry failure the cron entry is kept.
func (s *AppScheduler) DeleteScheduledApplication(ctx context.Context, app *models.App) error {
	if err := s.registry.Remove(ctx, app.ID); err != nil {
		return fmt.Errorf("unregister schedule of %s: %w", app.Name, err)
	}
	s.removeEntry(app.ID)
	logger.Infof("removed application %s from scheduler", app.Name)
	return nil
}

func (s *AppScheduler) removeEntry(appID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[appID]; ok {
		s.cron.Remove(id)
		delete(s.entries, appID)
	}
}

func (s *AppScheduler) IsScheduled(appID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[appID]
	return ok
}

// RunNow runs app immediately on the caller's goroutine.
func (s *AppScheduler) RunNow(ctx context.Context, app *models.App) models.AppRunRecord {
	return s.run(ctx, app, "OnDemand")
}

func (s *AppScheduler) run(ctx context.Context, app *models.App, runType string) models.AppRunRecord {
	start := s.now()
	rec := models.AppRunRecord{
		AppID:        app.ID,
		AppName:      app.Name,
		RunType:      runType,
		StartTime:    start.UnixMilli(),
		Timestamp:    start.UnixMilli(),
		ScheduleInfo: app.AppSchedule,
	}
	out, err := s.runner(ctx, app)
	end := s.now()
	rec.EndTime = end.UnixMilli()
	rec.ExecutionTime = end.Sub(start).Milliseconds()
	if err != nil {
		rec.Status = models.RunStatusFailed
		rec.FailureContext = map[string]any{"errorMessage": err.Error()}
		logger.Warnf("application %s run failed: %v", app.Name, err)
	} else {
		rec.Status = models.RunStatusSuccess
		rec.SuccessContext = out
	}
	metrics.AppRuns.WithLabelValues(string(rec.Status)).Inc()
	if s.runs != nil {
		if err := s.runs.Record(ctx, rec); err != nil {
			logger.Errorw("failed to record application run", "app", app.Name, "error", err)
		}
	}
	return rec
}

func (s *AppScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
	logger.Infof("scheduler started with %d applications", len(s.entries))
}

// Stop stops scheduling new runs and waits for running ones until ctx ends.
func (s *AppScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return fmt.Errorf("scheduler shutdown timed out")
	}
}
