// Package scheduler wires up the cron job that periodically stops
// applications on published jobs whose deadline has passed.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobboard/lifecycle-service/internal/status"
)

// Sweeper closes expired jobs. *status.JobService implements it.
type Sweeper interface {
	CloseExpired(ctx context.Context, now time.Time) (status.SweepReport, error)
}

// Scheduler wraps robfig/cron and manages the deadline sweep.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	spec    string // cron spec, e.g. "@every 15m"
	log     *zap.SugaredLogger
	now     func() time.Time
	startup sync.WaitGroup // the sweep Start runs outside cron
}

// New creates a Scheduler that sweeps on spec. Overlapping runs are skipped.
func New(sweeper Sweeper, spec string, log *zap.SugaredLogger) *Scheduler {
	logger := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		sweeper: sweeper,
		spec:    spec,
		log:     log,
		now:     time.Now,
	}
}

// Start registers the job and starts the scheduler. Also runs one sweep
// immediately so jobs that expired while the service was down are closed
// without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runSweep(ctx) }); err != nil {
		return errors.Wrapf(err, "schedule deadline sweep %q", s.spec)
	}

	s.cron.Start()
	s.log.Infow("deadline sweep scheduled", "spec", s.spec)

	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		s.runSweep(ctx)
	}()

	return nil
}

// Stop shuts the scheduler down and waits for running sweeps, including the
// startup one, to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.startup.Wait()
	s.log.Info("deadline sweep stopped")
}

func (s *Scheduler) runSweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := s.now()
	report, err := s.sweeper.CloseExpired(ctx, start)
	if err != nil {
		s.log.Errorw("deadline sweep failed", "err", err)
		return
	}
	if report.Expired == 0 {
		s.log.Debug("deadline sweep: nothing expired")
		return
	}
	s.log.Infow("deadline sweep complete",
		"expired", report.Expired, "closed", report.Closed, "failed", report.Failed,
		"duration", s.now().Sub(start))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron: "+msg, append(keysAndValues, "err", err)...)
}
