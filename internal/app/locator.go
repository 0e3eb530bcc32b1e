// internal/app/locator.go
package app

import (
	"context"
	"fmt"
	"time"

	"class_availability_notifier/internal/domain/browsing"

	"github.com/sirupsen/logrus"
)

const DefaultPollInterval = 250 * time.Millisecond

// Handle is a located element together with the context it was found in.
type Handle struct {
	Element browsing.Element
	Context browsing.Context
	Query   browsing.Query
}

// Locator finds an element anywhere in a page: the page itself first, then
// its frames in order. It polls because frames attach and popups render
// asynchronously.
type Locator struct {
	PollInterval time.Duration
	logger       *logrus.Entry
}

func NewLocator(pollInterval time.Duration, logger *logrus.Entry) *Locator {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Locator{PollInterval: pollInterval, logger: logger}
}

// Locate polls root and its frames until q matches or timeout elapses.
// It probes at least once, so a zero timeout is a single immediate check.
func (l *Locator) Locate(ctx context.Context, root browsing.Context, q browsing.Query, timeout time.Duration) (*Handle, error) {
	deadline := time.Now().Add(timeout)
	logCtx := l.logger.WithField("query", q.String())

	var lastErr error
	for attempt := 1; ; attempt++ {
		h, err := l.probe(ctx, root, q)
		if h != nil {
			logCtx.WithFields(logrus.Fields{"context": h.Context.ID(), "attempt": attempt}).Debug("Element located")
			return h, nil
		}
		if err != nil {
			lastErr = err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, &NotFoundError{Query: q.String(), Timeout: timeout, Cause: lastErr}
		}
		wait := l.PollInterval
		if remaining < wait {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &NotFoundError{Query: q.String(), Timeout: timeout, Cause: ctx.Err()}
		case <-timer.C:
		}
	}
}

// probe runs one poll tick. Errors from individual contexts do not stop the
// tick; the last one is returned for diagnostics.
func (l *Locator) probe(ctx context.Context, root browsing.Context, q browsing.Query) (*Handle, error) {
	var lastErr error

	found, err := root.Query(ctx, q)
	if err != nil {
		lastErr = fmt.Errorf("query %s: %w", root.ID(), err)
	} else if len(found) > 0 {
		return &Handle{Element: found[0], Context: root, Query: q}, nil
	}

	frames, err := root.Frames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list frames of %s: %w", root.ID(), err)
	}
	for _, f := range frames {
		found, err := f.Query(ctx, q)
		if err != nil {
			lastErr = fmt.Errorf("query frame %s: %w", f.ID(), err)
			continue
		}
		if len(found) > 0 {
			return &Handle{Element: found[0], Context: f, Query: q}, nil
		}
	}
	return nil, lastErr
}
