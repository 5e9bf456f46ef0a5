package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LogMailer only logs. Used when MAIL_TRANSPORT=log.
type LogMailer struct {
	log *zap.SugaredLogger
}

// NewLogMailer returns a LogMailer writing to log.
func NewLogMailer(log *zap.SugaredLogger) *LogMailer { return &LogMailer{log: log} }

// Send logs the message at info level and always succeeds.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.Infow("mail", "to", to, "subject", subject, "body", body)
	return nil
}

// Async hands each message to next on its own goroutine and returns at once.
// Delivery runs detached from the caller's cancellation, bounded by timeout.
type Async struct {
	next    Mailer
	timeout time.Duration
	log     *zap.SugaredLogger
	wg      sync.WaitGroup
}

// NewAsync wraps next. A non-positive timeout means 10s.
func NewAsync(next Mailer, timeout time.Duration, log *zap.SugaredLogger) *Async {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Async{next: next, timeout: timeout, log: log}
}

// Send never fails; delivery errors are logged.
func (a *Async) Send(ctx context.Context, to, subject, body string) error {
	a.goDetached(ctx, func(ctx context.Context) error {
		return a.next.Send(ctx, to, subject, body)
	}, "async mail delivery failed", "to", to, "subject", subject)
	return nil
}

// Publisher returns a Publisher that forwards to next in the background.
// Its deliveries share the timeout and are covered by Wait.
func (a *Async) Publisher(next Publisher) *AsyncPublisher {
	return &AsyncPublisher{next: next, async: a}
}

// Wait blocks until every in-flight delivery has returned.
func (a *Async) Wait() { a.wg.Wait() }

func (a *Async) goDetached(ctx context.Context, fn func(context.Context) error, failMsg string, kv ...any) {
	detached := context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		runCtx, cancel := context.WithTimeout(detached, a.timeout)
		defer cancel()
		if err := fn(runCtx); err != nil {
			a.log.Warnw(failMsg, append(kv, "err", err)...)
		}
	}()
}

// AsyncPublisher is the event counterpart of Async.
type AsyncPublisher struct {
	next  Publisher
	async *Async
}

// Publish never fails; publish errors are logged.
func (p *AsyncPublisher) Publish(ctx context.Context, channel string, payload any) error {
	p.async.goDetached(ctx, func(ctx context.Context) error {
		return p.next.Publish(ctx, channel, payload)
	}, "async publish failed", "channel", channel)
	return nil
}
