package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"class_availability_notifier/internal/app"
	"class_availability_notifier/internal/domain/availability"
	"class_availability_notifier/internal/domain/browsing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type fakeCheckService struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (f *fakeCheckService) Check(ctx context.Context) (*app.CycleResult, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &app.CycleResult{Record: availability.StatusRecord{Status: availability.StatusFull}}, nil
}

func (f *fakeCheckService) RunCycle(ctx context.Context, session browsing.Session) (*app.CycleResult, error) {
	return f.Check(ctx)
}

func (f *fakeCheckService) LastState(ctx context.Context) availability.PersistedState {
	return availability.DefaultState()
}

func quietEntry() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

func TestRunNowSkipsWhileRunning(t *testing.T) {
	svc := &fakeCheckService{release: make(chan struct{})}
	s := NewWatchScheduler(svc, quietEntry(), "@every 1h")

	done := make(chan error, 1)
	go func() {
		_, err := s.RunNow(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return svc.calls.Load() == 1 }, time.Second, time.Millisecond)

	_, err := s.RunNow(context.Background())
	require.ErrorIs(t, err, app.ErrCheckInProgress)

	close(svc.release)
	require.NoError(t, <-done)

	res, err := s.RunNow(context.Background())
	require.NoError(t, err)
	require.Equal(t, availability.StatusFull, res.Record.Status)
	require.EqualValues(t, 2, svc.calls.Load())
}

func TestRunScheduledLogsFailure(t *testing.T) {
	l, hook := test.NewNullLogger()
	svc := &fakeCheckService{err: errors.New("chrome crashed")}
	s := NewWatchScheduler(svc, logrus.NewEntry(l), "@every 1h")

	s.runScheduled(context.Background())
	require.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	require.Equal(t, "Scheduled availability check failed", hook.LastEntry().Message)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewWatchScheduler(&fakeCheckService{}, quietEntry(), "not a cron spec")
	require.Error(t, s.Start(context.Background()))
}

func TestStartAndStop(t *testing.T) {
	svc := &fakeCheckService{}
	s := NewWatchScheduler(svc, quietEntry(), "@every 1s")
	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return svc.calls.Load() > 0 }, 3*time.Second, 5*time.Millisecond)
	s.Stop()
}
