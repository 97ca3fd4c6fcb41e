package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/appcatalog/internal/apps"
	"github.com/gogotex/appcatalog/internal/apps/handler"
	"github.com/gogotex/appcatalog/internal/bots"
	"github.com/gogotex/appcatalog/internal/config"
	"github.com/gogotex/appcatalog/internal/database"
	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/locks"
	"github.com/gogotex/appcatalog/internal/models"
	"github.com/gogotex/appcatalog/internal/relationships"
	"github.com/gogotex/appcatalog/internal/roles"
	"github.com/gogotex/appcatalog/internal/scheduler"
	"github.com/gogotex/appcatalog/internal/timeseries"
	"github.com/gogotex/appcatalog/internal/tokens"
	"github.com/gogotex/appcatalog/internal/users"
	"github.com/gogotex/appcatalog/pkg/logger"
	"github.com/gogotex/appcatalog/pkg/metrics"
	"github.com/gogotex/appcatalog/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v scheduler=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Scheduler.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.MongoDB.Database)

	// Redis is optional: without it locks and the schedule registry are
	// process-local, which is only safe with a single instance.
	var rdb *redis.Client
	var locker locks.Locker = locks.NewLocalLocker()
	var schedRegistry scheduler.Registry = scheduler.NewMemoryRegistry()
	if addr := cfg.RedisAddr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v; using process-local locks", addr, err)
			_ = rdb.Close()
			rdb = nil
		} else {
			locker = locks.NewRedisLocker(rdb, "appcatalog:lock:", cfg.Apps.LockTTL, cfg.Apps.LockWait)
			schedRegistry = scheduler.NewRedisRegistry(rdb, "appcatalog:apps:scheduled")
			logger.Infof("connected to Redis at %s", addr)
			defer func() { _ = rdb.Close() }()
		}
	}

	userRepo, err := users.NewMongoUserRepository(ctx, db.Collection(database.CollectionUsers))
	if err != nil {
		logger.Fatalf("users repository: %v", err)
	}
	botRepo, err := bots.NewMongoRepository(ctx, db.Collection(database.CollectionBots))
	if err != nil {
		logger.Fatalf("bots repository: %v", err)
	}
	roleRepo, err := roles.NewMongoRepository(ctx, db.Collection(database.CollectionRoles))
	if err != nil {
		logger.Fatalf("roles repository: %v", err)
	}
	rels, err := relationships.NewMongoStore(ctx, db.Collection(database.CollectionRelationships))
	if err != nil {
		logger.Fatalf("relationship store: %v", err)
	}
	ts, err := timeseries.NewMongoStore(ctx, db.Collection(database.CollectionTimeSeries))
	if err != nil {
		logger.Fatalf("time-series store: %v", err)
	}
	appStore, err := apps.NewMongoStore(ctx, db.Collection(database.CollectionApps))
	if err != nil {
		logger.Fatalf("apps store: %v", err)
	}
	if err := roles.Seed(ctx, roleRepo, cfg.Apps.BotRoleName); err != nil {
		logger.Fatalf("seed roles: %v", err)
	}

	registry := entity.NewRegistry()
	registry.Register(models.KindUser, userRepo)
	registry.Register(models.KindBot, botRepo)
	registry.Register(models.KindRole, roleRepo)

	runs := apps.NewRunHistory(ts)
	sched := scheduler.New(schedRegistry, runApplication, runs)
	provisioner := apps.NewBotProvisioner(userRepo, botRepo, registry, tokens.NewIssuer(cfg), locker, cfg.Apps)
	repo := apps.NewRepository(appStore, rels, registry, provisioner, sched)

	if cfg.Scheduler.Enabled {
		installed, err := repo.List(ctx, entity.Fields{})
		if err != nil {
			logger.Fatalf("list applications: %v", err)
		}
		for _, app := range installed {
			if err := sched.AddApplication(ctx, app); err != nil {
				logger.Warnf("could not schedule application %s: %v", app.Name, err)
			}
		}
		sched.Start()
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.NewRedisRateLimiter(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win).Middleware())
		} else {
			r.Use(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware())
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	// readiness: 200 only when critical dependencies answer
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{"mongo": client.Ping(c.Request.Context(), nil) == nil}
		ready := deps["mongo"]
		if rdb != nil {
			deps["redis"] = rdb.Ping(c.Request.Context()).Err() == nil
			ready = ready && deps["redis"]
		}
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handler.RegisterSwagger(r)
	handler.NewAppHandler(repo, runs, sched).Register(r.Group("/api/v1"))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting appcatalog on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Warnf("scheduler shutdown: %v", err)
	}
}

// runApplication is the job body of a scheduled application. Applications
// report back through their bot's credentials; here we only mark the run.
func runApplication(ctx context.Context, app *models.App) (map[string]any, error) {
	logger.Infof("running application %s", app.Name)
	return map[string]any{"configuredKeys": len(app.AppConfiguration)}, nil
}
