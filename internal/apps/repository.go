// Package apps manages installed applications: their persistence, the bot
// identity each one runs as, change tracking on update and run history.
package apps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/models"
	"github.com/gogotex/appcatalog/internal/relationships"
	"github.com/gogotex/appcatalog/pkg/logger"
	"github.com/gogotex/appcatalog/pkg/metrics"
	"github.com/google/uuid"
)

const (
	FieldPipelines = "pipelines"
	FieldOwner     = "owner"
)

// Provisioner returns the bot reference for an application.
type Provisioner interface {
	EnsureBot(ctx context.Context, app *models.App) (*models.EntityReference, error)
}

// Scheduler removes an application's scheduled job.
type Scheduler interface {
	DeleteScheduledApplication(ctx context.Context, app *models.App) error
}

// Repository is the application kind's entity handler plus the create,
// update and delete flows built on it.
type Repository struct {
	store       AppStore
	rels        relationships.Store
	registry    *entity.Registry
	provisioner Provisioner
	scheduler   Scheduler
	now         func() time.Time
}

var _ entity.Handler[*models.App] = (*Repository)(nil)

func NewRepository(store AppStore, rels relationships.Store, registry *entity.Registry, provisioner Provisioner, scheduler Scheduler) *Repository {
	return &Repository{
		store:       store,
		rels:        rels,
		registry:    registry,
		provisioner: provisioner,
		scheduler:   scheduler,
		now:         time.Now,
	}
}

// PopulateFields attaches relationship fields to app. Pipelines and owner are
// loaded only when requested; the bot reference is always resolved.
func (r *Repository) PopulateFields(ctx context.Context, app *models.App, fields entity.Fields) (*models.App, error) {
	if fields.Contains(FieldPipelines) {
		pipelines, err := r.pipelines(ctx, app)
		if err != nil {
			return nil, err
		}
		app.Pipelines = pipelines
	}
	if fields.Contains(FieldOwner) && app.Owner == nil {
		owner, err := r.owner(ctx, app)
		if err != nil {
			return nil, err
		}
		app.Owner = owner
	}
	bot, err := r.BotReference(ctx, app)
	if err != nil {
		return nil, err
	}
	app.Bot = bot
	return app, nil
}

// BotReference returns the bot carried by app, falling back to its CONTAINS
// edge. It returns nil when the application has no bot yet.
func (r *Repository) BotReference(ctx context.Context, app *models.App) (*models.EntityReference, error) {
	if app.Bot != nil {
		return app.Bot, nil
	}
	ids, err := r.rels.FindTo(ctx, app.ID, models.RelationshipContains, models.KindBot)
	if err != nil {
		return nil, fmt.Errorf("load bot of %s: %w", app.Name, err)
	}
	switch len(ids) {
	case 0:
		return nil, nil
	case 1:
		ref, err := r.registry.ReferenceByID(ctx, models.KindBot, ids[0], models.IncludeAll)
		if err != nil {
			return nil, fmt.Errorf("resolve bot %s of %s: %w", ids[0], app.Name, err)
		}
		return ref, nil
	}
	logger.Errorw("application has more than one bot", "app", app.Name, "bots", ids)
	return nil, fmt.Errorf("%w: application %q has %d bots", ErrInvariantViolation, app.Name, len(ids))
}

func (r *Repository) pipelines(ctx context.Context, app *models.App) ([]models.EntityReference, error) {
	ids, err := r.rels.FindTo(ctx, app.ID, models.RelationshipContains, models.KindIngestionPipeline)
	if err != nil {
		return nil, fmt.Errorf("load pipelines of %s: %w", app.Name, err)
	}
	out := make([]models.EntityReference, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.reference(ctx, models.KindIngestionPipeline, id))
	}
	return out, nil
}

func (r *Repository) owner(ctx context.Context, app *models.App) (*models.EntityReference, error) {
	edges, err := r.rels.FindFrom(ctx, app.ID, models.RelationshipOwns)
	if err != nil {
		return nil, fmt.Errorf("load owner of %s: %w", app.Name, err)
	}
	if len(edges) == 0 {
		return nil, nil
	}
	ref := r.reference(ctx, edges[0].FromEntity, edges[0].FromID)
	return &ref, nil
}

// reference resolves id through the registry, or returns a bare id and type
// reference for kinds this service does not manage.
func (r *Repository) reference(ctx context.Context, kind models.EntityKind, id string) models.EntityReference {
	if r.registry.Has(kind) {
		if ref, err := r.registry.ReferenceByID(ctx, kind, id, models.IncludeAll); err == nil {
			return *ref
		}
	}
	return models.EntityReference{ID: id, Type: kind}
}

func (r *Repository) Prepare(ctx context.Context, app *models.App, update bool) error {
	return nil
}

// Store persists app without its relationship fields, which are restored on
// return whether or not the write succeeded.
func (r *Repository) Store(ctx context.Context, app *models.App, update bool) error {
	bot, owner, pipelines := app.Bot, app.Owner, app.Pipelines
	app.Bot, app.Owner, app.Pipelines = nil, nil, nil
	defer func() {
		app.Bot, app.Owner, app.Pipelines = bot, owner, pipelines
	}()
	if update {
		return r.store.Update(ctx, app)
	}
	return r.store.Insert(ctx, app)
}

// StoreRelationships writes the CONTAINS edge to the bot and the OWNS edge
// from the owner.
func (r *Repository) StoreRelationships(ctx context.Context, app *models.App) error {
	if app.Bot != nil {
		if err := r.rels.AddEdge(ctx, app.ID, app.Bot.ID, models.KindApplication, models.KindBot, models.RelationshipContains); err != nil {
			return err
		}
	}
	if app.Owner != nil {
		if err := r.rels.AddEdge(ctx, app.Owner.ID, app.ID, app.Owner.Type, models.KindApplication, models.RelationshipOwns); err != nil {
			return err
		}
	}
	return nil
}

// OnDelete removes the application's scheduled job. A failure aborts the
// delete.
func (r *Repository) OnDelete(ctx context.Context, app *models.App) error {
	if err := r.scheduler.DeleteScheduledApplication(ctx, app); err != nil {
		metrics.SchedulerRemovals.WithLabelValues("error").Inc()
		logger.Errorw("failed to remove application from scheduler", "app", app.Name, "id", app.ID, "error", err)
		return fmt.Errorf("%w: remove %q: %w", ErrScheduler, app.Name, err)
	}
	metrics.SchedulerRemovals.WithLabelValues("ok").Inc()
	return nil
}

func (r *Repository) Updater(original, updated *models.App, op entity.Operation) entity.Updater {
	return NewAppUpdater(original, updated, op)
}

// Create installs a new application and provisions its bot.
func (r *Repository) Create(ctx context.Context, app *models.App) (*models.App, error) {
	if app.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if err := r.Prepare(ctx, app, false); err != nil {
		return nil, err
	}
	if _, err := r.store.GetByName(ctx, app.Name, models.IncludeAll); err == nil {
		return nil, fmt.Errorf("application %q: %w", app.Name, entity.ErrAlreadyExists)
	} else if !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}

	bot, err := r.provisioner.EnsureBot(ctx, app)
	if err != nil {
		return nil, err
	}
	app.Bot = bot
	app.Version = 0.1
	app.Deleted = false
	app.ChangeDescription = nil
	app.UpdatedAt = r.now().UTC()
	if app.UpdatedBy == "" {
		app.UpdatedBy = "admin"
	}

	if err := r.Store(ctx, app, false); err != nil {
		return nil, err
	}
	if err := r.StoreRelationships(ctx, app); err != nil {
		return nil, fmt.Errorf("store relationships of %s: %w", app.Name, err)
	}
	logger.Infof("installed application %s (%s) with bot %s", app.Name, app.ID, bot.Name)
	return app, nil
}

// Update applies updated over the stored application with the same id.
// Names are immutable. Only configuration and schedule changes are recorded
// in the change description and bump the version.
func (r *Repository) Update(ctx context.Context, updated *models.App, op entity.Operation) (*models.App, error) {
	original, err := r.store.Get(ctx, updated.ID, models.IncludeNonDeleted)
	if err != nil {
		return nil, err
	}
	if original, err = r.PopulateFields(ctx, original, entity.NewFields(FieldOwner)); err != nil {
		return nil, err
	}
	if err := r.Prepare(ctx, updated, true); err != nil {
		return nil, err
	}
	updated.Name = original.Name
	updated.Deleted = original.Deleted
	// the bot is owned by provisioning; a payload bot never replaces it
	updated.Bot = original.Bot
	if updated.Bot == nil {
		// the edge write of an earlier create may have been lost
		if updated.Bot, err = r.provisioner.EnsureBot(ctx, updated); err != nil {
			return nil, err
		}
	}

	u := NewAppUpdater(original, updated, op)
	if err := u.ApplyEntitySpecificChanges(); err != nil {
		return nil, err
	}
	updated.Version = u.NextVersion()
	if u.Changed() {
		updated.ChangeDescription = u.Description()
	} else {
		updated.ChangeDescription = original.ChangeDescription
	}
	updated.UpdatedAt = r.now().UTC()

	if err := r.Store(ctx, updated, true); err != nil {
		return nil, err
	}
	if !sameReference(original.Owner, updated.Owner) {
		if err := r.rels.DeleteTo(ctx, updated.ID, models.RelationshipOwns); err != nil {
			return nil, fmt.Errorf("clear owner of %s: %w", updated.Name, err)
		}
	}
	if err := r.StoreRelationships(ctx, updated); err != nil {
		return nil, fmt.Errorf("store relationships of %s: %w", updated.Name, err)
	}
	return updated, nil
}

// Delete removes the scheduled job first and only then the application, so a
// scheduler failure leaves the application untouched. Hard deletes also drop
// every relationship of the application.
func (r *Repository) Delete(ctx context.Context, id string, hard bool) (*models.App, error) {
	include := models.IncludeNonDeleted
	if hard {
		include = models.IncludeAll
	}
	app, err := r.store.Get(ctx, id, include)
	if err != nil {
		return nil, err
	}
	if app, err = r.PopulateFields(ctx, app, entity.Fields{}); err != nil {
		return nil, err
	}
	if err := r.OnDelete(ctx, app); err != nil {
		return nil, err
	}
	if hard {
		if err := r.store.Delete(ctx, id); err != nil {
			return nil, err
		}
		if err := r.rels.DeleteAll(ctx, id); err != nil {
			return nil, fmt.Errorf("delete relationships of %s: %w", app.Name, err)
		}
	} else {
		if err := r.store.SoftDelete(ctx, id); err != nil {
			return nil, err
		}
		app.Deleted = true
	}
	logger.Infof("deleted application %s (hard=%v)", app.Name, hard)
	return app, nil
}

// Discard undoes a Create whose application never reached the scheduler: the
// row and its relationships are removed, the bot is kept for a reinstall.
func (r *Repository) Discard(ctx context.Context, app *models.App) error {
	if err := r.store.Delete(ctx, app.ID); err != nil && !errors.Is(err, entity.ErrNotFound) {
		return err
	}
	if err := r.rels.DeleteAll(ctx, app.ID); err != nil {
		return fmt.Errorf("delete relationships of %s: %w", app.Name, err)
	}
	logger.Warnf("discarded application %s (%s)", app.Name, app.ID)
	return nil
}

// Revert writes previous back over the stored application, as returned by
// Get with the owner field, without recording a change.
func (r *Repository) Revert(ctx context.Context, previous *models.App) error {
	if err := r.Store(ctx, previous, true); err != nil {
		return err
	}
	if err := r.rels.DeleteTo(ctx, previous.ID, models.RelationshipOwns); err != nil {
		return fmt.Errorf("clear owner of %s: %w", previous.Name, err)
	}
	if err := r.StoreRelationships(ctx, previous); err != nil {
		return fmt.Errorf("store relationships of %s: %w", previous.Name, err)
	}
	logger.Warnf("reverted application %s to version %.1f", previous.Name, previous.Version)
	return nil
}

func (r *Repository) Get(ctx context.Context, id string, fields entity.Fields) (*models.App, error) {
	app, err := r.store.Get(ctx, id, models.IncludeNonDeleted)
	if err != nil {
		return nil, err
	}
	return r.PopulateFields(ctx, app, fields)
}

func (r *Repository) GetByName(ctx context.Context, name string, fields entity.Fields) (*models.App, error) {
	app, err := r.store.GetByName(ctx, name, models.IncludeNonDeleted)
	if err != nil {
		return nil, err
	}
	return r.PopulateFields(ctx, app, fields)
}

func (r *Repository) List(ctx context.Context, fields entity.Fields) ([]*models.App, error) {
	list, err := r.store.List(ctx, models.IncludeNonDeleted)
	if err != nil {
		return nil, err
	}
	for _, app := range list {
		if _, err := r.PopulateFields(ctx, app, fields); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func sameReference(a, b *models.EntityReference) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID && a.Type == b.Type
}
