// internal/app/check_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"class_availability_notifier/internal/domain/alert"
	"class_availability_notifier/internal/domain/availability"
	"class_availability_notifier/internal/domain/browsing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CheckService runs availability check cycles.
type CheckService interface {
	// Check opens a browser session, runs one cycle and closes the session.
	Check(ctx context.Context) (*CycleResult, error)
	// RunCycle runs one cycle against an already open session.
	RunCycle(ctx context.Context, session browsing.Session) (*CycleResult, error)
	// LastState returns what the previous successful cycle stored.
	LastState(ctx context.Context) availability.PersistedState
}

// CycleResult describes a completed cycle.
type CycleResult struct {
	CycleID   string
	Record    availability.StatusRecord
	Previous  availability.Status
	Notified  bool
	CheckedAt time.Time
}

// CheckOptions are the per-deployment settings of the service.
type CheckOptions struct {
	Target         availability.Target
	Mode           alert.Mode
	Debug          bool
	ScreenshotPath string
}

// CheckServiceImpl implements the CheckService interface.
type CheckServiceImpl struct {
	launcher  browsing.Launcher
	extractor *Extractor
	stateRepo availability.StateRepository
	notifier  alert.Notifier
	opts      CheckOptions
	logger    *logrus.Entry
	now       func() time.Time
}

func NewCheckServiceImpl(
	launcher browsing.Launcher,
	extractor *Extractor,
	stateRepo availability.StateRepository,
	notifier alert.Notifier,
	opts CheckOptions,
	logger *logrus.Entry,
) *CheckServiceImpl {
	return &CheckServiceImpl{
		launcher:  launcher,
		extractor: extractor,
		stateRepo: stateRepo,
		notifier:  notifier,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *CheckServiceImpl) Check(ctx context.Context) (*CycleResult, error) {
	session, err := s.launcher.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close browser session")
		}
	}()
	return s.RunCycle(ctx, session)
}

// RunCycle extracts the status, consults the alert policy, notifies and
// stores the new state. State is only written when extraction and the
// notification (if any) both succeeded.
func (s *CheckServiceImpl) RunCycle(ctx context.Context, session browsing.Session) (*CycleResult, error) {
	cycleID := uuid.NewString()
	logCtx := s.logger.WithFields(logrus.Fields{
		"cycle_id": cycleID,
		"target":   s.opts.Target.Name,
		"mode":     s.opts.Mode,
	})
	logCtx.Info("Starting availability check")

	record, err := s.extractor.Extract(ctx, session.Page(), s.opts.Target)
	if err != nil {
		logCtx.WithError(err).Error("Availability check failed")
		if s.opts.Debug && s.opts.ScreenshotPath != "" {
			if shotErr := session.Screenshot(ctx, s.opts.ScreenshotPath); shotErr != nil {
				logCtx.WithError(shotErr).Warn("Failed to capture debug screenshot")
			} else {
				logCtx.WithField("path", s.opts.ScreenshotPath).Info("Saved debug screenshot")
			}
		}
		return nil, err
	}

	prev := s.stateRepo.Read(ctx)
	result := &CycleResult{
		CycleID:  cycleID,
		Record:   *record,
		Previous: prev.LastStatus,
	}

	if alert.ShouldAlert(s.opts.Mode, record.Status, prev.LastStatus) {
		if err := s.notifier.Send(ctx, record.Message(), alert.Title); err != nil {
			logCtx.WithError(err).Error("Failed to send notification")
			return nil, fmt.Errorf("failed to send notification: %w", err)
		}
		result.Notified = true
		logCtx.WithField("status", record.Status).Info("Notification sent")
	} else {
		logCtx.WithFields(logrus.Fields{
			"status":   record.Status,
			"previous": prev.LastStatus,
		}).Info("No notification needed")
	}

	result.CheckedAt = s.now()
	checkedAt := result.CheckedAt
	writeErr := s.stateRepo.Write(ctx, availability.PersistedState{
		LastStatus:    record.Status,
		LastCheckedAt: &checkedAt,
	})

	if history, ok := s.stateRepo.(availability.HistoryRepository); ok {
		entry := availability.CheckEntry{
			CycleID:   cycleID,
			Target:    s.opts.Target.Name,
			Status:    record.Status,
			RawStatus: record.RawStatus,
			Notified:  result.Notified,
			CheckedAt: checkedAt,
		}
		if err := history.AppendCheck(ctx, entry); err != nil {
			logCtx.WithError(err).Warn("Failed to record check history")
		}
	}

	if writeErr != nil {
		var perr *PersistenceError
		if !errors.As(writeErr, &perr) {
			perr = &PersistenceError{Err: writeErr}
		}
		logCtx.WithError(perr).Error("Failed to store state")
		return result, perr
	}
	return result, nil
}

func (s *CheckServiceImpl) LastState(ctx context.Context) availability.PersistedState {
	return s.stateRepo.Read(ctx)
}
