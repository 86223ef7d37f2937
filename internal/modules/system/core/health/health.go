package health

import (
	"context"
	"net/http"

	"github.com/campus-site/core/internal/pkg/cron"
	"github.com/campus-site/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Check reports whether one backing service is reachable.
type Check func(ctx context.Context) error

// RegisterRoutes mounts /health and the admin cron endpoints. Checks with a
// nil func are reported as disabled.
func RegisterRoutes(rg *gin.RouterGroup, checks map[string]Check, sched *cron.Scheduler, authMW gin.HandlerFunc) {
	rg.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		deps := make(gin.H, len(checks))
		for name, check := range checks {
			if check == nil {
				deps[name] = "disabled"
				continue
			}
			if err := check(c.Request.Context()); err != nil {
				deps[name] = err.Error()
				status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}
		c.JSON(code, gin.H{"status": status, "dependencies": deps})
	})

	cronGroup := rg.Group("/health/cron", authMW)
	{
		cronGroup.GET("", func(c *gin.Context) {
			items := sched.List()
			byName := make(map[string]cron.ListItem, len(items))
			for _, item := range items {
				byName[item.Name] = item
			}
			response.OK(c, byName)
		})

		cronGroup.POST("/run/:name", func(c *gin.Context) {
			if err := sched.RunNow(c.Request.Context(), c.Param("name")); err != nil {
				response.NotFoundMsg(c, err.Error())
				return
			}
			response.OK(c, gin.H{"message": "job finished"})
		})
	}
}
