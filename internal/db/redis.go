package db

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient creates a Redis client and waits until the server answers
// a ping.
func NewRedisClient(ctx context.Context, redisURL string, log *zap.SugaredLogger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse REDIS_URL")
	}

	rdb := redis.NewClient(opts)
	ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	if err := waitReady(ctx, "redis", ping, log); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
