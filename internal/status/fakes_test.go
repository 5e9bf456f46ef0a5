package status

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"jobboard/lifecycle-service/internal/lifecycle"
)

type jobRow struct {
	status      lifecycle.Status
	publishedAt *time.Time
	deadline    time.Time
}

type fakeJobs struct {
	mu       sync.Mutex
	rows     map[string]*jobRow
	saves    int
	loadErr  error
	saveErr  error
	listErr  error
	raceWith lifecycle.Status // when set, the row moves to this status right before save
}

func newFakeJobs() *fakeJobs { return &fakeJobs{rows: map[string]*jobRow{}} }

func (f *fakeJobs) put(number string, s lifecycle.Status) *jobRow {
	r := &jobRow{status: s}
	f.rows[number] = r
	return r
}

func (f *fakeJobs) LoadJobStatus(_ context.Context, number string) (lifecycle.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return "", f.loadErr
	}
	r, ok := f.rows[number]
	if !ok {
		return "", ErrNotFound
	}
	return r.status, nil
}

func (f *fakeJobs) SaveJobStatus(_ context.Context, number string, from, to lifecycle.Status, publishedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	r, ok := f.rows[number]
	if !ok {
		return ErrNotFound
	}
	if f.raceWith != "" {
		r.status = f.raceWith
	}
	if r.status != from {
		return ErrConflict
	}
	r.status = to
	if publishedAt != nil {
		r.publishedAt = publishedAt
	}
	return nil
}

func (f *fakeJobs) ListExpiredPublished(_ context.Context, now time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []string
	for n, r := range f.rows {
		if r.status == lifecycle.JobPublished && !r.deadline.IsZero() && r.deadline.Before(now) {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeApplications struct {
	mu         sync.Mutex
	rows       map[string]lifecycle.Status
	recipients map[string]*Recipient
	saves      int
	rcptErr    error
}

func newFakeApplications() *fakeApplications {
	return &fakeApplications{rows: map[string]lifecycle.Status{}, recipients: map[string]*Recipient{}}
}

func (f *fakeApplications) LoadApplicationStatus(_ context.Context, id string) (lifecycle.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return "", ErrNotFound
	}
	return s, nil
}

func (f *fakeApplications) SaveApplicationStatus(_ context.Context, id string, from, to lifecycle.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.rows[id] != from {
		return ErrConflict
	}
	f.rows[id] = to
	return nil
}

func (f *fakeApplications) Recipient(ctx context.Context, id string) (*Recipient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.rcptErr != nil {
		return nil, f.rcptErr
	}
	r, ok := f.recipients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// cancelAfterSave cancels the request context as soon as the write commits,
// like a client that hangs up while the response is in flight.
type cancelAfterSave struct {
	*fakeApplications
	cancel context.CancelFunc
}

func (c cancelAfterSave) SaveApplicationStatus(ctx context.Context, id string, from, to lifecycle.Status) error {
	err := c.fakeApplications.SaveApplicationStatus(ctx, id, from, to)
	c.cancel()
	return err
}

type cancelJobAfterSave struct {
	*fakeJobs
	cancel context.CancelFunc
}

func (c cancelJobAfterSave) SaveJobStatus(ctx context.Context, number string, from, to lifecycle.Status, publishedAt *time.Time) error {
	err := c.fakeJobs.SaveJobStatus(ctx, number, from, to, publishedAt)
	c.cancel()
	return err
}

type sentMail struct {
	to, subject, body string
	ctxErr            error
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, body, ctx.Err()})
	return m.err
}

type published struct {
	channel string
	payload any
	ctxErr  error
}

type fakePublisher struct {
	events []published
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, payload any) error {
	p.events = append(p.events, published{channel, payload, ctx.Err()})
	return p.err
}

var errBoom = errors.New("boom")
