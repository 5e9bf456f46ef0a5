package db

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Startup retry budget for backing services.
var (
	readyTimeout   = 30 * time.Second
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// waitReady pings until success, doubling the pause between attempts, and
// gives up after readyTimeout or when ctx ends.
func waitReady(ctx context.Context, name string, ping func(context.Context) error, log *zap.SugaredLogger) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	backoff := initialBackoff
	for {
		err := ping(ctx)
		if err == nil {
			return nil
		}
		log.Warnw(name+" not ready yet", "err", err, "retryIn", backoff)

		select {
		case <-ctx.Done():
			return errors.Wrapf(err, "%s ping failed", name)
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}
