package app

import (
	"context"
	"time"

	pkgcron "github.com/mx-space/pagecraft/internal/pkg/cron"
	sessionpkg "github.com/mx-space/pagecraft/internal/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// sessionRetention is how long expired or revoked sessions are kept around.
const sessionRetention = 7 * 24 * time.Hour

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, logger *zap.Logger) error {
	cronLogger := logger.Named("cron")

	return sched.Register(pkgcron.Job{
		Name:        "purge_sessions",
		Description: "Delete expired and revoked sessions",
		Spec:        "@every 1h",
		Fn: func(ctx context.Context) error {
			n, err := sessionpkg.Purge(db.WithContext(ctx), time.Now().Add(-sessionRetention))
			if err != nil {
				cronLogger.Warn("purge sessions failed", zap.Error(err))
				return err
			}
			if n > 0 {
				cronLogger.Info("purged sessions", zap.Int64("count", n))
			}
			return nil
		},
	})
}
