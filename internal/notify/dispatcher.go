package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// mailQueue is the part of *redis.Client the Dispatcher needs. Producers
// LPUSH and the dispatcher BRPOPs, so RPUSH puts a message back at the head.
type mailQueue interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// DefaultMaxAttempts is how many deliveries a message gets before it is dropped.
const DefaultMaxAttempts = 5

// Dispatcher drains the mail queue into a Mailer.
type Dispatcher struct {
	rdb         mailQueue
	queue       string
	mailer      Mailer
	log         *zap.SugaredLogger
	block       time.Duration
	maxAttempts int
}

// NewDispatcher returns a Dispatcher reading queue (DefaultQueue when empty).
func NewDispatcher(rdb mailQueue, queue string, mailer Mailer, log *zap.SugaredLogger) *Dispatcher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Dispatcher{
		rdb:         rdb,
		queue:       queue,
		mailer:      mailer,
		log:         log,
		block:       5 * time.Second,
		maxAttempts: DefaultMaxAttempts,
	}
}

// Run consumes until ctx is cancelled. Malformed messages are dropped; failed
// deliveries go back on the queue until they run out of attempts.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Infow("mail dispatcher started", "queue", d.queue)
	for {
		if ctx.Err() != nil {
			d.log.Info("mail dispatcher stopped")
			return
		}
		if _, err := d.processOne(ctx); err != nil && ctx.Err() == nil {
			d.log.Warnw("mail dispatch failed", "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// processOne waits up to d.block for one message and delivers it. It reports
// whether a message was taken off the queue.
func (d *Dispatcher) processOne(ctx context.Context) (bool, error) {
	res, err := d.rdb.BRPop(ctx, d.block, d.queue).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "pop mail")
	}
	if len(res) != 2 {
		return false, errors.Newf("unexpected BRPOP reply of %d elements", len(res))
	}

	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		d.log.Warnw("dropping malformed mail", "err", err)
		return true, nil
	}

	sendErr := d.mailer.Send(ctx, msg.To, msg.Subject, msg.Body)
	if sendErr == nil {
		d.log.Infow("mail sent", "id", msg.ID, "to", msg.To)
		return true, nil
	}

	// Interrupted by shutdown: not the message's fault, put it back in front.
	if ctx.Err() != nil {
		if err := d.requeue(ctx, msg, true); err != nil {
			d.log.Errorw("requeue mail failed", "id", msg.ID, "err", err)
		}
		return true, nil
	}

	msg.Attempts++
	if msg.Attempts >= d.maxAttempts {
		d.log.Warnw("dropping undeliverable mail",
			"id", msg.ID, "to", msg.To, "attempts", msg.Attempts, "err", sendErr)
		return true, nil
	}
	if err := d.requeue(ctx, msg, false); err != nil {
		d.log.Errorw("requeue mail failed", "id", msg.ID, "err", err)
	} else {
		d.log.Warnw("mail delivery failed; requeued",
			"id", msg.ID, "to", msg.To, "attempts", msg.Attempts, "err", sendErr)
	}
	return true, errors.Wrapf(sendErr, "deliver mail %s", msg.ID)
}

func (d *Dispatcher) requeue(ctx context.Context, msg Message, front bool) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encode mail")
	}
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if front {
		return d.rdb.RPush(pushCtx, d.queue, data).Err()
	}
	return d.rdb.LPush(pushCtx, d.queue, data).Err()
}
