package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/config"
	"github.com/mx-space/pagecraft/internal/database"
	"github.com/mx-space/pagecraft/internal/middleware"
	pkgcron "github.com/mx-space/pagecraft/internal/pkg/cron"
	pkgredis "github.com/mx-space/pagecraft/internal/pkg/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	redis  *pkgredis.Client
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler
}

// New initializes the application: config → DB → Redis → routes → cron.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := applyRuntimeSettings(cfg, logger); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := connectRedis(cfg, logger)
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.IdempotenceHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.CacheStatusHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	router.Use(cors.New(corsConfig))

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{cfg: cfg, router: router, db: db, redis: rc, logger: logger, cancel: cancel, sched: pkgcron.New()}

	if err := app.registerRoutes(ctx); err != nil {
		app.Shutdown()
		return nil, err
	}
	if err := registerCronJobs(app.sched, db, logger); err != nil {
		app.Shutdown()
		return nil, err
	}
	app.sched.Start(ctx)

	return app, nil
}

func connectRedis(cfg *config.AppConfig, logger *zap.Logger) (*pkgredis.Client, error) {
	switch {
	case !cfg.Redis.Enable:
		logger.Info("redis disabled, response cache and idempotence are off")
		return nil, nil
	case cfg.Redis.Embedded:
		rc, err := pkgredis.StartEmbedded()
		if err != nil {
			return nil, err
		}
		logger.Info("using embedded redis")
		return rc, nil
	default:
		return pkgredis.Connect(cfg.RedisURL)
	}
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// DB exposes the database handle for maintenance commands.
func (a *App) DB() *gorm.DB { return a.db }

// Shutdown stops background jobs and releases connections.
func (a *App) Shutdown() {
	a.cancel()
	a.sched.Stop()
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("close redis", zap.Error(err))
	}
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
}

var processStart = time.Now()
