package db

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fastRetries(t *testing.T) {
	t.Helper()
	oldTimeout, oldInitial, oldMax := readyTimeout, initialBackoff, maxBackoff
	readyTimeout, initialBackoff, maxBackoff = 200*time.Millisecond, time.Millisecond, 4*time.Millisecond
	t.Cleanup(func() { readyTimeout, initialBackoff, maxBackoff = oldTimeout, oldInitial, oldMax })
}

func TestWaitReady_RetriesUntilUp(t *testing.T) {
	fastRetries(t)
	core, logs := observer.New(zapcore.DebugLevel)
	attempts := 0
	ping := func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	require.NoError(t, waitReady(context.Background(), "postgres", ping, zap.New(core).Sugar()))
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 2, logs.FilterMessage("postgres not ready yet").Len())
}

func TestWaitReady_GivesUp(t *testing.T) {
	fastRetries(t)
	boom := errors.New("connection refused")
	err := waitReady(context.Background(), "redis", func(context.Context) error { return boom }, zap.NewNop().Sugar())
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestWaitReady_RespectsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := waitReady(ctx, "redis", func(ctx context.Context) error { return ctx.Err() }, zap.NewNop().Sugar())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewPostgresPool_BadURL(t *testing.T) {
	_, err := NewPostgresPool(context.Background(), "postgres://%zz", 5, zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "http://not-redis", zap.NewNop().Sugar())
	assert.Error(t, err)
}
