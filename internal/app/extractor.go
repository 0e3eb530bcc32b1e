// internal/app/extractor.go
package app

import (
	"context"
	"strings"
	"time"

	"class_availability_notifier/internal/domain/availability"
	"class_availability_notifier/internal/domain/browsing"

	"github.com/sirupsen/logrus"
)

const (
	DefaultCreditSelector = "#credit-item-use-0"
	DefaultAnchorText     = "Select tags to filter sessions"

	rawStatusFull      = "Full"
	rawStatusAvailable = "Available"
)

// ExtractorConfig holds the selectors and time budgets for one extraction.
type ExtractorConfig struct {
	CreditSelector    string
	AnchorText        string
	DetectTimeout     time.Duration // anchor and target searches
	CreditTimeout     time.Duration
	PopupTimeout      time.Duration
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	Debug             bool
}

// DefaultExtractorConfig returns the budgets the schedule site needs in practice.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		CreditSelector:    DefaultCreditSelector,
		AnchorText:        DefaultAnchorText,
		DetectTimeout:     20 * time.Second,
		CreditTimeout:     15 * time.Second,
		PopupTimeout:      10 * time.Second,
		NavigationTimeout: 30 * time.Second,
		SettleDelay:       500 * time.Millisecond,
	}
}

// Extractor reads the watched class's status from a loaded schedule page.
type Extractor struct {
	cfg     ExtractorConfig
	locator *Locator
	logger  *logrus.Entry
}

func NewExtractor(cfg ExtractorConfig, locator *Locator, logger *logrus.Entry) *Extractor {
	return &Extractor{cfg: cfg, locator: locator, logger: logger}
}

// Extract walks the schedule page and returns a fresh StatusRecord.
// Any required step that fails is reported as *DetectionFailure.
func (e *Extractor) Extract(ctx context.Context, page browsing.Page, target availability.Target) (*availability.StatusRecord, error) {
	root := e.useCredit(ctx, page)

	if err := sleepCtx(ctx, e.cfg.SettleDelay); err != nil {
		return nil, &DetectionFailure{Step: "settle", Err: err}
	}

	if e.cfg.Debug {
		e.logFrames(ctx, root)
	}

	anchor, err := e.locator.Locate(ctx, root, browsing.Text(e.cfg.AnchorText), e.cfg.DetectTimeout)
	if err != nil {
		return nil, &DetectionFailure{Step: "anchor", Err: err}
	}
	if err := anchor.Element.ScrollIntoView(ctx); err != nil {
		e.logger.WithError(err).Debug("Could not scroll filter anchor into view")
	}

	if target.Day != "" {
		e.applyDayFilter(ctx, root, target.Day)
	}

	match, err := e.locator.Locate(ctx, root, browsing.Text(target.Name), e.cfg.DetectTimeout)
	if err != nil {
		return nil, &DetectionFailure{Step: "target", Err: &TargetNotFoundError{Name: target.Name, Cause: err}}
	}

	html, err := match.Element.ContainerHTML(ctx)
	if err != nil {
		return nil, &DetectionFailure{Step: "container", Err: err}
	}
	full, err := containerIsFull(html)
	if err != nil {
		return nil, &DetectionFailure{Step: "container", Err: err}
	}

	raw := rawStatusAvailable
	if full {
		raw = rawStatusFull
	}
	record := &availability.StatusRecord{
		Status:    availability.Normalize(raw),
		RawStatus: raw,
		Summary:   target.Summary(),
	}

	fields := logrus.Fields{
		"status":  record.Status,
		"query":   match.Query.String(),
		"context": match.Context.ID(),
	}
	if text, err := match.Element.Text(ctx); err == nil {
		fields["matched_text"] = strings.TrimSpace(text)
	}
	e.logger.WithFields(fields).Info("Class status extracted")
	return record, nil
}

type creditOutcome struct {
	popup browsing.Page
}

// useCredit clicks the credit control when it shows up and returns the page
// the rest of the extraction should work on. Nothing here is fatal.
func (e *Extractor) useCredit(ctx context.Context, page browsing.Page) browsing.Page {
	credit, err := e.locator.Locate(ctx, page, browsing.CSS(e.cfg.CreditSelector), e.cfg.CreditTimeout)
	if err != nil {
		e.logger.WithError(err).Debug("Credit control not present, continuing on current page")
		return page
	}
	if err := credit.Element.ScrollIntoView(ctx); err != nil {
		e.logger.WithError(err).Debug("Could not scroll credit control into view")
	}

	navCtx, navCancel := context.WithTimeout(ctx, e.creditNavigationTimeout())
	waitNav := page.ExpectNavigation(navCtx)
	popupCtx, popupCancel := context.WithTimeout(ctx, e.cfg.PopupTimeout)
	waitPopup := page.ExpectPopup(popupCtx)

	if err := credit.Element.Click(ctx); err != nil {
		navCancel()
		popupCancel()
		e.logger.WithError(err).Warn("Failed to click credit control, continuing on current page")
		return page
	}

	outcome, err := firstSuccess(
		func() (creditOutcome, error) {
			defer navCancel()
			return creditOutcome{}, waitNav()
		},
		func() (creditOutcome, error) {
			defer popupCancel()
			p, err := waitPopup()
			return creditOutcome{popup: p}, err
		},
	)
	if err != nil {
		e.logger.WithError(err).Warn("Neither navigation nor popup followed the credit click")
		return page
	}
	if outcome.popup != nil {
		e.logger.WithField("popup", outcome.popup.URL()).Info("Switched to popup opened by credit click")
		return outcome.popup
	}
	e.logger.Debug("Credit click navigated in place")
	return page
}

// creditNavigationTimeout bounds the wait for an in-place navigation after
// the credit click. A click that neither navigates nor opens a popup costs at
// most the popup budget.
func (e *Extractor) creditNavigationTimeout() time.Duration {
	if e.cfg.PopupTimeout > 0 && e.cfg.PopupTimeout < e.cfg.NavigationTimeout {
		return e.cfg.PopupTimeout
	}
	return e.cfg.NavigationTimeout
}

func (e *Extractor) applyDayFilter(ctx context.Context, root browsing.Context, day string) {
	button, err := e.locator.Locate(ctx, root, browsing.Role("button", day), 0)
	if err != nil {
		e.logger.WithField("day", day).Debug("Day filter button not found, continuing unfiltered")
		return
	}
	if err := button.Element.Click(ctx); err != nil {
		e.logger.WithError(err).WithField("day", day).Warn("Failed to click day filter, continuing unfiltered")
	}
}

func (e *Extractor) logFrames(ctx context.Context, root browsing.Context) {
	frames, err := root.Frames(ctx)
	if err != nil {
		e.logger.WithError(err).Debug("Could not list frames")
		return
	}
	e.logger.WithField("url", root.URL()).Debug("Main frame")
	for _, f := range frames {
		e.logger.WithField("url", f.URL()).Debug("Child frame")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
