package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aetherweave/aether-server-go/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DB wraps the pgx connection pool.
type DB struct {
	*pgxpool.Pool
	logger *zap.Logger
}

// NewDB connects to PostgreSQL and verifies the connection.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if logger != nil {
		logger.Info("database connected",
			zap.String("host", poolCfg.ConnConfig.Host),
			zap.String("database", poolCfg.ConnConfig.Database),
			zap.Int32("max_conns", poolCfg.MaxConns),
		)
	}
	return &DB{Pool: pool, logger: logger}, nil
}
