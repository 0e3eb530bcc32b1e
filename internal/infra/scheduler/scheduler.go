package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"class_availability_notifier/internal/app" // For CheckService interface

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const defaultJobTimeout = 5 * time.Minute

// WatchScheduler runs availability checks on a cron schedule. Cycles never
// overlap: a tick or on-demand request that arrives while a cycle is running
// is skipped.
type WatchScheduler struct {
	cronEngine   *cron.Cron
	checkService app.CheckService
	logger       *logrus.Entry
	cronSpec     string
	jobTimeout   time.Duration

	running sync.Mutex
}

func NewWatchScheduler(checkService app.CheckService, logger *logrus.Entry, cronSpec string) *WatchScheduler {
	return &WatchScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.Local), // Use server's local time for cron
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		checkService: checkService,
		logger:       logger,
		cronSpec:     cronSpec,
		jobTimeout:   defaultJobTimeout,
	}
}

// Start registers the check job and starts the cron engine.
func (s *WatchScheduler) Start(ctx context.Context) error {
	s.logger.WithField("cron_spec", s.cronSpec).Info("Starting watch scheduler")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Debug("Cron job triggered for availability check")
		s.runScheduled(ctx)
	})
	if err != nil {
		return fmt.Errorf("could not add availability check cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Watch scheduler started")
	return nil
}

// RunNow runs one cycle unless another one is in progress.
func (s *WatchScheduler) RunNow(ctx context.Context) (*app.CycleResult, error) {
	if !s.running.TryLock() {
		return nil, app.ErrCheckInProgress
	}
	defer s.running.Unlock()

	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()
	return s.checkService.Check(jobCtx)
}

func (s *WatchScheduler) runScheduled(ctx context.Context) {
	res, err := s.RunNow(ctx)
	switch {
	case errors.Is(err, app.ErrCheckInProgress):
		s.logger.Info("Previous check still running, skipping this tick")
	case err != nil && res == nil:
		s.logger.WithError(err).Error("Scheduled availability check failed")
	case err != nil:
		s.logger.WithError(err).WithField("status", res.Record.Status).Warn("Scheduled check completed with errors")
	default:
		s.logger.WithFields(logrus.Fields{
			"status":   res.Record.Status,
			"notified": res.Notified,
		}).Info("Scheduled availability check completed")
	}
}

// Stop stops the cron engine and waits for a running job to finish.
func (s *WatchScheduler) Stop() {
	s.logger.Info("Stopping watch scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Watch scheduler gracefully stopped.")
}
