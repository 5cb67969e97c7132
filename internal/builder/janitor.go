package builder

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type sessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context, maxAge time.Duration) (int, error)
}

// janitor periodically removes interview sessions older than the retention
type janitor struct {
	cleaner   sessionCleaner
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
}

func newJanitor(cleaner sessionCleaner, retention, interval time.Duration, logger *zap.Logger) *janitor {
	return &janitor{
		cleaner:   cleaner,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

// Run blocks until ctx is done. A zero retention disables cleanup.
func (j *janitor) Run(ctx context.Context) {
	if j.retention <= 0 || j.interval <= 0 {
		j.logger.Info("session cleanup disabled")
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.cleaner.CleanupExpiredSessions(ctx, j.retention); err != nil && ctx.Err() == nil {
				j.logger.Error("session cleanup failed", zap.Error(err))
			}
		}
	}
}
