package status

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"jobboard/lifecycle-service/internal/lifecycle"
)

// ApplicationService applies lifecycle actions to job applications and tells
// the applicant about every change.
type ApplicationService struct {
	repo   ApplicationRepository
	mailer Mailer
	events Publisher
	policy lifecycle.ApplicationPolicy
	log    *zap.SugaredLogger
	now    func() time.Time
}

// NewApplicationService returns a configured ApplicationService. events may be nil.
func NewApplicationService(repo ApplicationRepository, mailer Mailer, events Publisher, log *zap.SugaredLogger) *ApplicationService {
	return &ApplicationService{
		repo:   repo,
		mailer: mailer,
		events: events,
		policy: lifecycle.NewApplicationPolicy(),
		log:    log,
		now:    time.Now,
	}
}

// ApplyAction moves the application identified by id along the lifecycle.
// Notification problems are logged and never reported to the caller.
func (s *ApplicationService) ApplyAction(ctx context.Context, id, action string) (*Outcome, error) {
	current, err := s.repo.LoadApplicationStatus(ctx, id)
	if err != nil {
		return nil, err
	}

	action = normalizeAction(action)
	res, err := s.policy.Apply(current, lifecycle.Action(action))
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveApplicationStatus(ctx, id, res.From, res.To); err != nil {
		return nil, err
	}

	s.log.Infow("application status updated",
		"applicationId", id, "action", action, "from", res.From, "to", res.To)

	sideCtx, cancel := detach(ctx)
	defer cancel()

	s.publish(sideCtx, id, action, res)

	if res.Effect == lifecycle.EffectNotifyApplicant {
		s.notify(sideCtx, id, res.To)
	}

	return &Outcome{ID: id, Previous: res.From, Status: res.To}, nil
}

// AvailableActions reports the application's current status and the actions
// it accepts.
func (s *ApplicationService) AvailableActions(ctx context.Context, id string) (*Availability, error) {
	current, err := s.repo.LoadApplicationStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	tbl := s.policy.Table()
	return &Availability{
		ID:       id,
		Status:   current,
		Terminal: tbl.IsTerminal(current),
		Actions:  tbl.Actions(current),
	}, nil
}

func (s *ApplicationService) notify(ctx context.Context, id string, to lifecycle.Status) {
	rcpt, err := s.repo.Recipient(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warnw("no recipient for application notification", "applicationId", id)
			return
		}
		s.log.Warnw("resolve notification recipient failed", "applicationId", id, "err", err)
		return
	}
	if rcpt.Email == "" {
		s.log.Warnw("applicant has no email address", "applicationId", id)
		return
	}

	subject, body := applicationUpdateMessage(rcpt, to)
	if err := s.mailer.Send(ctx, rcpt.Email, subject, body); err != nil {
		s.log.Warnw("application notification failed",
			"applicationId", id, "to", rcpt.Email, "status", to, "err", err)
	}
}

func (s *ApplicationService) publish(ctx context.Context, id, action string, res lifecycle.Result) {
	if s.events == nil {
		return
	}
	ev := StatusChangedEvent{
		Type:   ChannelApplicationStatusChanged,
		Entity: "application",
		ID:     id,
		Action: action,
		From:   string(res.From),
		To:     string(res.To),
		At:     s.now().UTC(),
	}
	if err := s.events.Publish(ctx, ChannelApplicationStatusChanged, ev); err != nil {
		s.log.Warnw("publish "+ChannelApplicationStatusChanged+" failed", "applicationId", id, "err", err)
	}
}

func applicationUpdateMessage(r *Recipient, to lifecycle.Status) (subject, body string) {
	subject = fmt.Sprintf("Your application for %s has been updated", r.JobTitle)
	greeting := "Hello,"
	if r.Name != "" {
		greeting = fmt.Sprintf("Hello %s,", r.Name)
	}
	body = fmt.Sprintf("%s\n\nYour application for %s at %s has been updated. Its status is now: %s.\n\n"+
		"Please sign in to your account for more details.\n",
		greeting, r.JobTitle, r.CompanyName, to)
	return subject, body
}
