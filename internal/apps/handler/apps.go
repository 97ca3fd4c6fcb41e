// Package handler exposes installed applications and their run history over
// HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/appcatalog/internal/apps"
	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/models"
	"github.com/gogotex/appcatalog/internal/scheduler"
	"github.com/gogotex/appcatalog/pkg/logger"
)

const defaultRunsLimit = 10

// Scheduler is the part of the scheduler the resource layer drives directly.
// Removal on delete goes through the repository.
type Scheduler interface {
	AddApplication(ctx context.Context, app *models.App) error
	RunNow(ctx context.Context, app *models.App) models.AppRunRecord
}

// CreateAppRequest installs an application.
type CreateAppRequest struct {
	Name             string                  `json:"name" binding:"required"`
	DisplayName      string                  `json:"displayName"`
	Description      string                  `json:"description"`
	Owner            *models.EntityReference `json:"owner"`
	AppConfiguration map[string]any          `json:"appConfiguration"`
	AppSchedule      *models.AppSchedule     `json:"appSchedule"`
}

// PatchAppRequest carries the fields to change; absent fields are kept.
type PatchAppRequest struct {
	DisplayName      *string                 `json:"displayName"`
	Description      *string                 `json:"description"`
	Owner            *models.EntityReference `json:"owner"`
	AppConfiguration map[string]any          `json:"appConfiguration"`
	AppSchedule      *models.AppSchedule     `json:"appSchedule"`
}

type AppHandler struct {
	repo  *apps.Repository
	runs  *apps.RunHistory
	sched Scheduler
}

func NewAppHandler(repo *apps.Repository, runs *apps.RunHistory, sched Scheduler) *AppHandler {
	return &AppHandler{repo: repo, runs: runs, sched: sched}
}

// Register mounts the routes under rg/apps.
func (h *AppHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/apps")
	a.GET("", h.List)
	a.POST("", h.Create)
	a.GET("/name/:name", h.GetByName)
	a.GET("/:id", h.Get)
	a.PATCH("/:id", h.Patch)
	a.DELETE("/:id", h.Delete)
	a.GET("/:id/runs", h.ListRuns)
	a.GET("/:id/runs/latest", h.LatestRun)
	a.POST("/:id/trigger", h.Trigger)
}

func (h *AppHandler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), entity.NewFields(c.Query("fields")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.NewResultList(list, nil, len(list)))
}

func (h *AppHandler) Create(c *gin.Context) {
	var req CreateAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.AppSchedule != nil {
		if _, err := scheduler.CronSpec(req.AppSchedule); err != nil {
			writeError(c, err)
			return
		}
	}
	ctx := c.Request.Context()
	app, err := h.repo.Create(ctx, &models.App{
		Name:             req.Name,
		DisplayName:      req.DisplayName,
		Description:      req.Description,
		Owner:            req.Owner,
		AppConfiguration: req.AppConfiguration,
		AppSchedule:      req.AppSchedule,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.sched.AddApplication(ctx, app); err != nil {
		if derr := h.repo.Discard(ctx, app); derr != nil {
			logger.Errorw("failed to discard unscheduled application", "app", app.Name, "error", derr)
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *AppHandler) Get(c *gin.Context) {
	app, err := h.repo.Get(c.Request.Context(), c.Param("id"), entity.NewFields(c.Query("fields")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *AppHandler) GetByName(c *gin.Context) {
	app, err := h.repo.GetByName(c.Request.Context(), c.Param("name"), entity.NewFields(c.Query("fields")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *AppHandler) Patch(c *gin.Context) {
	var req PatchAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.AppSchedule != nil {
		if _, err := scheduler.CronSpec(req.AppSchedule); err != nil {
			writeError(c, err)
			return
		}
	}
	ctx := c.Request.Context()
	current, err := h.repo.Get(ctx, c.Param("id"), entity.NewFields(apps.FieldOwner))
	if err != nil {
		writeError(c, err)
		return
	}
	next := *current
	if req.DisplayName != nil {
		next.DisplayName = *req.DisplayName
	}
	if req.Description != nil {
		next.Description = *req.Description
	}
	if req.Owner != nil {
		next.Owner = req.Owner
	}
	if req.AppConfiguration != nil {
		next.AppConfiguration = req.AppConfiguration
	}
	if req.AppSchedule != nil {
		next.AppSchedule = req.AppSchedule
	}

	updated, err := h.repo.Update(ctx, &next, entity.OperationPatch)
	if err != nil {
		writeError(c, err)
		return
	}
	if req.AppSchedule != nil {
		// the previous schedule keeps running when rescheduling fails
		if err := h.sched.AddApplication(ctx, updated); err != nil {
			if rerr := h.repo.Revert(ctx, current); rerr != nil {
				logger.Errorw("failed to revert application", "app", current.Name, "error", rerr)
			}
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, updated)
}

func (h *AppHandler) Delete(c *gin.Context) {
	hard, _ := strconv.ParseBool(c.DefaultQuery("hardDelete", "false"))
	app, err := h.repo.Delete(c.Request.Context(), c.Param("id"), hard)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *AppHandler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultRunsLimit)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
		return
	}
	ctx := c.Request.Context()
	app, err := h.repo.Get(ctx, c.Param("id"), entity.Fields{})
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := h.runs.ListRuns(ctx, app.ID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *AppHandler) LatestRun(c *gin.Context) {
	rec, err := h.runs.LatestRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Trigger runs the application now and returns the run record.
func (h *AppHandler) Trigger(c *gin.Context) {
	ctx := c.Request.Context()
	app, err := h.repo.Get(ctx, c.Param("id"), entity.Fields{})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sched.RunNow(ctx, app))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apps.ErrInvalid), errors.Is(err, scheduler.ErrInvalidSchedule):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
