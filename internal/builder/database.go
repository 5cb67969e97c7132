package builder

import (
	"context"
	"fmt"

	"github.com/avast/retry-go/v4"
	"github.com/futig/interview-flow/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// poolConfig maps the DB_* settings onto a pgx pool config
func poolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	pc.MaxConns = int32(cfg.DBMaxConns)
	pc.MinConns = int32(cfg.DBMinConns)
	pc.MaxConnLifetime = cfg.DBMaxConnLifetime
	pc.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	pc.HealthCheckPeriod = cfg.DBHealthCheckPeriod

	return pc, nil
}

// setupDatabase opens the session store pool, retrying until postgres answers a ping
func setupDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	pc, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	attempts := cfg.DBConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	pool, err := retry.DoWithData(
		func() (*pgxpool.Pool, error) {
			pool, err := pgxpool.NewWithConfig(ctx, pc)
			if err != nil {
				return nil, retry.Unrecoverable(fmt.Errorf("create connection pool: %w", err))
			}
			if err := pool.Ping(ctx); err != nil {
				pool.Close()
				return nil, fmt.Errorf("ping database: %w", err)
			}
			return pool, nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(cfg.DBConnectDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("database not ready",
				zap.Uint("attempt", n+1),
				zap.Uint("max_attempts", attempts),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("session store pool ready",
		zap.String("host", pc.ConnConfig.Host),
		zap.String("database", pc.ConnConfig.Database),
		zap.Int32("max_conns", pc.MaxConns),
		zap.Int32("min_conns", pc.MinConns),
	)

	return pool, nil
}
