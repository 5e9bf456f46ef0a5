package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// listPusher is the part of *redis.Client RedisMailer needs.
type listPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisMailer queues mail for a Dispatcher.
type RedisMailer struct {
	rdb   listPusher
	queue string
	log   *zap.SugaredLogger
	now   func() time.Time
}

// NewRedisMailer returns a RedisMailer pushing onto queue (DefaultQueue when empty).
func NewRedisMailer(rdb listPusher, queue string, log *zap.SugaredLogger) *RedisMailer {
	if queue == "" {
		queue = DefaultQueue
	}
	return &RedisMailer{rdb: rdb, queue: queue, log: log, now: time.Now}
}

// Send enqueues the message. It returns once Redis has accepted it.
func (m *RedisMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := Message{
		ID:       uuid.NewString(),
		To:       to,
		Subject:  subject,
		Body:     body,
		QueuedAt: m.now().UTC(),
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encode mail")
	}
	if err := m.rdb.LPush(ctx, m.queue, raw).Err(); err != nil {
		return errors.Wrapf(err, "enqueue mail on %s", m.queue)
	}
	m.log.Debugw("mail queued", "id", msg.ID, "to", to, "queue", m.queue)
	return nil
}

// channelPublisher is the part of *redis.Client EventPublisher needs.
type channelPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// EventPublisher sends JSON events on Redis pub/sub channels.
type EventPublisher struct {
	rdb channelPublisher
}

// NewEventPublisher returns an EventPublisher over rdb.
func NewEventPublisher(rdb channelPublisher) *EventPublisher {
	return &EventPublisher{rdb: rdb}
}

// Publish marshals payload as JSON and publishes it on channel.
func (p *EventPublisher) Publish(ctx context.Context, channel string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "encode %s", channel)
	}
	return errors.Wrapf(p.rdb.Publish(ctx, channel, raw).Err(), "publish %s", channel)
}
