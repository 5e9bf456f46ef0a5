// Package notify delivers applicant notifications and broadcasts status
// changes.
//
// The service never talks SMTP on the request path: RedisMailer enqueues a
// Message on a Redis list and a Dispatcher (possibly in another process)
// drains that list through an SMTPMailer. Async adds fire-and-forget
// semantics on top of any Mailer and any Publisher.
package notify

import (
	"context"
	"time"
)

// Mailer delivers a plain-text message to one address.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Publisher broadcasts an event on a channel. *EventPublisher implements it.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// DefaultQueue is the Redis list that carries queued mail.
const DefaultQueue = "queue:mail"

// Message is the queued form of one email.
type Message struct {
	ID       string    `json:"id"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queuedAt"`
	Attempts int       `json:"attempts,omitempty"` // failed deliveries so far
}
