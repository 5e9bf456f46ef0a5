package status

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"jobboard/lifecycle-service/internal/lifecycle"
)

// JobService applies lifecycle actions to job postings.
type JobService struct {
	repo   JobRepository
	events Publisher
	policy lifecycle.JobPolicy
	log    *zap.SugaredLogger
	now    func() time.Time
}

// NewJobService returns a configured JobService. events may be nil.
func NewJobService(repo JobRepository, events Publisher, log *zap.SugaredLogger) *JobService {
	return &JobService{
		repo:   repo,
		events: events,
		policy: lifecycle.NewJobPolicy(),
		log:    log,
		now:    time.Now,
	}
}

// ApplyAction moves the job identified by jobNumber along the lifecycle.
// Returns ErrNotFound, a *lifecycle.TransitionError, or ErrConflict; in each
// of those cases nothing was written.
func (s *JobService) ApplyAction(ctx context.Context, jobNumber, action string) (*Outcome, error) {
	current, err := s.repo.LoadJobStatus(ctx, jobNumber)
	if err != nil {
		return nil, err
	}

	action = normalizeAction(action)
	res, err := s.policy.Apply(current, lifecycle.Action(action))
	if err != nil {
		return nil, err
	}

	var publishedAt *time.Time
	if res.Effect == lifecycle.EffectStampPublished {
		ts := s.now().UTC()
		publishedAt = &ts
	}

	if err := s.repo.SaveJobStatus(ctx, jobNumber, res.From, res.To, publishedAt); err != nil {
		return nil, err
	}

	s.log.Infow("job status updated",
		"jobNumber", jobNumber, "action", action, "from", res.From, "to", res.To)

	sideCtx, cancel := detach(ctx)
	defer cancel()
	s.publish(sideCtx, jobNumber, action, res)

	return &Outcome{ID: jobNumber, Previous: res.From, Status: res.To}, nil
}

// AvailableActions reports the job's current status and the actions it accepts.
func (s *JobService) AvailableActions(ctx context.Context, jobNumber string) (*Availability, error) {
	current, err := s.repo.LoadJobStatus(ctx, jobNumber)
	if err != nil {
		return nil, err
	}
	tbl := s.policy.Table()
	return &Availability{
		ID:       jobNumber,
		Status:   current,
		Terminal: tbl.IsTerminal(current),
		Actions:  tbl.Actions(current),
	}, nil
}

// SweepReport summarises one CloseExpired run.
type SweepReport struct {
	Expired int
	Closed  int
	Failed  int
}

// CloseExpired stops accepting applications on every published job whose
// deadline has passed. A failure on one job is logged and does not stop the
// sweep.
func (s *JobService) CloseExpired(ctx context.Context, now time.Time) (SweepReport, error) {
	numbers, err := s.repo.ListExpiredPublished(ctx, now)
	if err != nil {
		return SweepReport{}, errors.Wrap(err, "list expired jobs")
	}

	report := SweepReport{Expired: len(numbers)}
	for _, n := range numbers {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, err := s.ApplyAction(ctx, n, string(lifecycle.ActionCloseForApplication)); err != nil {
			report.Failed++
			s.log.Warnw("close expired job failed", "jobNumber", n, "err", err)
			continue
		}
		report.Closed++
	}
	return report, nil
}

// publish is best-effort: the transition has already been committed.
func (s *JobService) publish(ctx context.Context, jobNumber, action string, res lifecycle.Result) {
	if s.events == nil {
		return
	}
	ev := StatusChangedEvent{
		Type:   ChannelJobStatusChanged,
		Entity: "job",
		ID:     jobNumber,
		Action: action,
		From:   string(res.From),
		To:     string(res.To),
		At:     s.now().UTC(),
	}
	if err := s.events.Publish(ctx, ChannelJobStatusChanged, ev); err != nil {
		s.log.Warnw("publish "+ChannelJobStatusChanged+" failed", "jobNumber", jobNumber, "err", err)
	}
}
