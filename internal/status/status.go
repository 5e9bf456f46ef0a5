// Package status contains the status mutation services: the only code that
// drives a lifecycle policy. Each service loads the entity, asks the policy
// for the next status, persists it, and then performs the side effects the
// policy declared.
//
// It is transport-agnostic: used by the HTTP handlers (httpapi), the gRPC
// server (grpcserver), and the deadline scheduler.
package status

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"jobboard/lifecycle-service/internal/lifecycle"
)

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when the entity identifier resolves to no record.
var ErrNotFound = errors.New("entity not found")

// ErrConflict is returned when another request changed the status between
// load and save. Nothing was written.
var ErrConflict = errors.New("status changed concurrently")

// ─── Collaborators ───────────────────────────────────────────────────────────

// JobRepository persists job status.
type JobRepository interface {
	// LoadJobStatus returns ErrNotFound for unknown job numbers.
	LoadJobStatus(ctx context.Context, jobNumber string) (lifecycle.Status, error)
	// SaveJobStatus writes to only if the stored status is still from.
	// A nil publishedAt leaves the publish timestamp untouched.
	SaveJobStatus(ctx context.Context, jobNumber string, from, to lifecycle.Status, publishedAt *time.Time) error
	// ListExpiredPublished returns job numbers of active published jobs
	// whose deadline is before now.
	ListExpiredPublished(ctx context.Context, now time.Time) ([]string, error)
}

// ApplicationRepository persists application status.
type ApplicationRepository interface {
	LoadApplicationStatus(ctx context.Context, id string) (lifecycle.Status, error)
	SaveApplicationStatus(ctx context.Context, id string, from, to lifecycle.Status) error
	Recipient(ctx context.Context, id string) (*Recipient, error)
}

// Recipient is who gets told about an application status change.
type Recipient struct {
	Email       string
	Name        string
	JobTitle    string
	CompanyName string
}

// Mailer delivers a plain-text message. Implementations may queue.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Publisher broadcasts status-change events.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// ─── Results ─────────────────────────────────────────────────────────────────

// Outcome is the result of a committed status change.
type Outcome struct {
	ID       string
	Previous lifecycle.Status
	Status   lifecycle.Status
}

// Availability lists what can be done with an entity right now.
type Availability struct {
	ID       string
	Status   lifecycle.Status
	Terminal bool
	Actions  []lifecycle.Action
}

// Event channels, mirrored by whatever consumes the Redis pub/sub stream.
const (
	ChannelJobStatusChanged         = "EVENT_JOB_STATUS_CHANGED"
	ChannelApplicationStatusChanged = "EVENT_APPLICATION_STATUS_CHANGED"
)

// StatusChangedEvent is the payload published after every committed change.
type StatusChangedEvent struct {
	Type   string    `json:"type"`
	Entity string    `json:"entity"`
	ID     string    `json:"id"`
	Action string    `json:"action"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	At     time.Time `json:"at"`
}

// sideEffectTimeout bounds the work done after a transition commits.
const sideEffectTimeout = 10 * time.Second

// detach returns a context for post-commit side effects. It keeps ctx's
// values but not its cancellation, so a client that disconnects after the
// write still gets its event published and its applicant notified.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
}

func normalizeAction(action string) string {
	return strings.TrimSpace(action)
}
