// Package db provides database connection helpers.
package db

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// NewPostgresPool creates a pgxpool connection pool and waits until the
// server answers a ping.
func NewPostgresPool(ctx context.Context, databaseURL string, maxConns int32, log *zap.SugaredLogger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse DATABASE_URL")
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "pgxpool.NewWithConfig")
	}

	if err := waitReady(ctx, "postgres", pool.Ping, log); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
