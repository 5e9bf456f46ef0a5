package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"jobboard/lifecycle-service/internal/status"
)

type fakeSweeper struct {
	mu     sync.Mutex
	calls  []time.Time
	report status.SweepReport
	err    error
	ran    chan struct{}
	delay  time.Duration
}

func (f *fakeSweeper) CloseExpired(_ context.Context, now time.Time) (status.SweepReport, error) {
	f.mu.Lock()
	f.calls = append(f.calls, now)
	f.mu.Unlock()
	if f.ran != nil {
		select {
		case f.ran <- struct{}{}:
		default:
		}
	}
	time.Sleep(f.delay)
	return f.report, f.err
}

func observed() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core).Sugar(), logs
}

func TestRunSweep_LogsReport(t *testing.T) {
	log, logs := observed()
	sw := &fakeSweeper{report: status.SweepReport{Expired: 3, Closed: 2, Failed: 1}}
	s := New(sw, "@every 1h", log)
	fixed := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.runSweep(context.Background())

	require.Len(t, sw.calls, 1)
	assert.Equal(t, fixed, sw.calls[0])
	entries := logs.FilterMessage("deadline sweep complete").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 2, entries[0].ContextMap()["closed"])
	assert.EqualValues(t, 1, entries[0].ContextMap()["failed"])
}

func TestRunSweep_Error(t *testing.T) {
	log, logs := observed()
	s := New(&fakeSweeper{err: errors.New("db down")}, "@every 1h", log)
	s.runSweep(context.Background())
	assert.Equal(t, 1, logs.FilterMessage("deadline sweep failed").Len())
}

func TestRunSweep_SkipsWhenCancelled(t *testing.T) {
	log, _ := observed()
	sw := &fakeSweeper{}
	s := New(sw, "@every 1h", log)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.runSweep(ctx)
	assert.Empty(t, sw.calls)
}

func TestStart_RunsImmediately(t *testing.T) {
	log, _ := observed()
	sw := &fakeSweeper{ran: make(chan struct{}, 1)}
	s := New(sw, "@every 1h", log)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	select {
	case <-sw.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("initial sweep did not run")
	}
}

func TestStop_WaitsForStartupSweep(t *testing.T) {
	log, logs := observed()
	sw := &fakeSweeper{ran: make(chan struct{}, 1), delay: 200 * time.Millisecond}
	s := New(sw, "@every 1h", log)

	require.NoError(t, s.Start(context.Background()))
	select {
	case <-sw.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("initial sweep did not run")
	}

	s.Stop()
	assert.Equal(t, 1, logs.FilterMessage("deadline sweep: nothing expired").Len(),
		"Stop returned before the startup sweep finished")
}

func TestStart_InvalidSpec(t *testing.T) {
	log, _ := observed()
	s := New(&fakeSweeper{}, "every now and then", log)
	assert.Error(t, s.Start(context.Background()))
}

func TestCronLogger(t *testing.T) {
	log, logs := observed()
	l := cronLogger{log: log}
	l.Info("wake", "now", 1)
	l.Error(errors.New("bad"), "panic", "job", "sweep")
	assert.Equal(t, 1, logs.FilterMessage("cron: wake").Len())
	entries := logs.FilterMessage("cron: panic").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}
