package app

import (
	"context"
	"net/http"
	"time"

	"github.com/campus-site/core/internal/middleware"
	"github.com/campus-site/core/internal/modules/content"
	"github.com/campus-site/core/internal/modules/storage/file"
	"github.com/campus-site/core/internal/modules/system/core/health"
	"github.com/campus-site/core/internal/pkg/metrics"
	"github.com/campus-site/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes() {
	r := a.router
	authMW := middleware.Auth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	if a.cfg.MetricsEnabled() {
		r.GET(a.cfg.Metrics.Path, metrics.Handler())
	}

	appInfo := gin.H{
		"name":    "campus-core",
		"version": "1.0.0",
	}

	api := r.Group(apiPrefix)
	api.Use(middleware.OptionalAuth())
	// Rate limiting and idempotence need Redis.
	if a.redis != nil {
		api.Use(middleware.RateLimit(a.redis, a.logger.Named("RateLimit"), time.Now))
		api.Use(middleware.Idempotence(a.redis, middleware.IdempotenceOptions{
			HeaderOnlyPaths: []string{apiPrefix + "/content"},
		}))
	}

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		up := time.Since(a.startedAt)
		c.JSON(http.StatusOK, gin.H{
			"timestamp": up.Milliseconds(),
			"humanize":  humanizeDuration(up),
		})
	})

	health.RegisterRoutes(api, a.healthChecks(), a.sched, authMW)
	file.NewHandler(a.files).RegisterRoutes(api, authMW)
	content.NewHandler(a.content).RegisterRoutes(api, authMW)
}

func (a *App) healthChecks() map[string]health.Check {
	checks := map[string]health.Check{"mongo": nil, "redis": nil}
	if a.db != nil {
		checks["mongo"] = a.db.Ping
	}
	if a.redis != nil {
		rc := a.redis
		checks["redis"] = func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return rc.Ping(ctx)
		}
	}
	return checks
}
