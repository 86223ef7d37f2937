package app

import (
	"context"
	"time"

	"github.com/campus-site/core/internal/modules/content"
	pkgcron "github.com/campus-site/core/internal/pkg/cron"
	"go.uber.org/zap"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, contentSvc *content.Service, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        "publish-scheduled",
		Description: "Publish drafts whose scheduled time has passed",
		Interval:    time.Minute,
		Fn: func(ctx context.Context) error {
			n, err := contentSvc.PublishDue(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				cronLogger.Info("scheduled content published", zap.Int64("count", n))
			}
			return nil
		},
	})
}
