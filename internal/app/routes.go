package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/config"
	"github.com/mx-space/pagecraft/internal/middleware"
	"github.com/mx-space/pagecraft/internal/modules/auth"
	"github.com/mx-space/pagecraft/internal/modules/content/block"
	"github.com/mx-space/pagecraft/internal/modules/content/page"
	"github.com/mx-space/pagecraft/internal/modules/render"
	"github.com/mx-space/pagecraft/internal/modules/servertime"
	"github.com/mx-space/pagecraft/internal/modules/settings"
	"github.com/mx-space/pagecraft/internal/modules/upload"
	"github.com/mx-space/pagecraft/internal/pkg/apperr"
	"github.com/mx-space/pagecraft/internal/pkg/response"
	sessionpkg "github.com/mx-space/pagecraft/internal/pkg/session"
	"github.com/mx-space/pagecraft/internal/pkg/storage"
	"go.uber.org/zap"
)

// Version is reported by /ping.
var Version = "dev"

func (a *App) registerRoutes(ctx context.Context) error {
	r := a.router
	db := a.db
	rdb := a.redis.Raw()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":      1,
			"name":    "pagecraft",
			"version": Version,
			"uptime":  humanizeDuration(time.Since(processStart)),
			"redis":   rdb != nil,
		})
	})

	store, err := storage.New(a.cfg)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if local, ok := store.(*storage.Local); ok {
		r.Static(storage.LocalRoute, local.Dir())
	}

	api := r.Group(a.cfg.APIPrefix, middleware.OptionalAuth(db))
	if rdb != nil {
		api.Use(
			middleware.Idempotence(rdb),
			middleware.HTTPCache(rdb, middleware.HTTPCacheOptions{SkipPaths: httpCacheSkipPaths(a.cfg.APIPrefix)}),
			middleware.PurgeOnWrite(rdb, a.logger),
		)
	}

	authMW := middleware.Auth(db)
	adminMW := []gin.HandlerFunc{authMW, middleware.RequireAdmin()}

	authSvc := auth.NewService(db, auth.Options{
		TTL:          sessionpkg.TTL{Access: a.cfg.AccessTokenTTL, Refresh: a.cfg.RefreshTokenTTL},
		FailureDelay: failureDelay(a.cfg),
		Logger:       a.logger.Named("auth"),
	})
	if err := a.ensureAdmin(ctx, authSvc); err != nil {
		return err
	}
	loginLimit := middleware.RateLimit(rdb, middleware.RateLimitOptions{Name: "login", Max: 10, Window: time.Minute})
	auth.NewHandler(authSvc).RegisterRoutes(api, authMW, loginLimit)

	pageSvc := page.NewService(db)
	blockSvc := block.NewService(db)
	settingsSvc := settings.NewService(db)
	uploadSvc := upload.NewService(store, upload.Options{
		MaxBytes:       a.cfg.UploadMaxBytes(),
		AllowedFormats: a.cfg.Upload.AllowedFormats,
		Logger:         a.logger.Named("upload"),
	})

	page.NewHandler(pageSvc).RegisterRoutes(api, adminMW...)
	block.NewHandler(blockSvc, pageSvc).RegisterRoutes(api, adminMW...)
	settings.NewHandler(settingsSvc).RegisterRoutes(api, adminMW...)
	upload.NewHandler(uploadSvc).RegisterRoutes(api, adminMW...)
	render.NewHandler(pageSvc, blockSvc, settingsSvc).RegisterRoutes(api)
	servertime.RegisterRoutes(api, time.Local)

	return nil
}

func (a *App) ensureAdmin(ctx context.Context, svc *auth.Service) error {
	admin := a.cfg.Admin
	err := svc.EnsureAdmin(ctx, admin.Username, admin.Email, admin.Password)
	if errors.Is(err, apperr.ErrValidation) {
		a.logger.Warn("admin account not created, set admin.password in the config", zap.String("username", admin.Username))
		return nil
	}
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	return nil
}

func failureDelay(cfg *config.AppConfig) time.Duration {
	if cfg.IsDev() {
		return 0
	}
	return 2 * time.Second
}

// httpCacheSkipPaths lists anonymous GETs whose answer must never be replayed.
func httpCacheSkipPaths(apiPrefix string) []string {
	p := strings.TrimSuffix(strings.TrimSpace(apiPrefix), "/")
	return []string{
		p + "/auth/*",
		p + "/server-time",
	}
}
