// internal/infra/browser/launcher.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"class_availability_notifier/internal/domain/browsing"
	"class_availability_notifier/internal/infra/devtools"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

const (
	emailInputSelector    = "input[type='email'], input[name*='email' i], input[placeholder*='email' i]"
	passwordInputSelector = "input[type='password']"
	signInLinkPattern     = "sign in|login"
	submitButtonPattern   = "sign in|log in|login"
	loginFormTimeout      = 15 * time.Second
)

// Config describes how to reach the schedule page.
type Config struct {
	StartURL          string
	ScheduleURL       string
	Username          string
	Password          string
	Headless          bool
	BrowserBin        string
	DebuggerURL       string // attach to a running Chrome instead of launching one
	NavigationTimeout time.Duration
	DebugScreenshot   string // written when sign-in fails; empty disables
}

// Launcher opens logged-in browser sessions with rod.
type Launcher struct {
	cfg    Config
	logger *logrus.Entry
}

func NewLauncher(cfg Config, logger *logrus.Entry) *Launcher {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	return &Launcher{cfg: cfg, logger: logger}
}

// Open starts or attaches to Chrome, signs in and, if configured, opens the
// schedule page.
func (l *Launcher) Open(ctx context.Context) (browsing.Session, error) {
	s := &Session{logger: l.logger}

	controlURL, err := l.controlURL(ctx, s)
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, l.failOpen(ctx, s, fmt.Errorf("connect to chrome: %w", err))
	}
	s.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, l.failOpen(ctx, s, fmt.Errorf("create page: %w", err))
	}
	s.page = page
	s.rodPage = newRodPage(page, l.logger)

	if err := l.signIn(ctx, page); err != nil {
		return nil, l.failOpen(ctx, s, fmt.Errorf("sign in: %w", err))
	}
	if l.cfg.ScheduleURL != "" {
		if err := l.gotoURL(ctx, page, l.cfg.ScheduleURL); err != nil {
			return nil, l.failOpen(ctx, s, fmt.Errorf("open schedule page: %w", err))
		}
	}
	return s, nil
}

// failOpen captures the debug screenshot, if configured, and tears the
// half-open session down.
func (l *Launcher) failOpen(ctx context.Context, s *Session, err error) error {
	if l.cfg.DebugScreenshot != "" && s.page != nil {
		if shotErr := s.Screenshot(ctx, l.cfg.DebugScreenshot); shotErr != nil {
			l.logger.WithError(shotErr).Warn("Failed to capture debug screenshot")
		} else {
			l.logger.WithField("path", l.cfg.DebugScreenshot).Info("Saved debug screenshot")
		}
	}
	if closeErr := s.Close(); closeErr != nil {
		l.logger.WithError(closeErr).Warn("Failed to close browser after setup error")
	}
	return err
}

func (l *Launcher) controlURL(ctx context.Context, s *Session) (string, error) {
	if l.cfg.DebuggerURL != "" {
		u, err := devtools.ResolveBrowserURL(ctx, l.cfg.DebuggerURL)
		if err != nil {
			return "", err
		}
		l.logger.WithField("control_url", u).Info("Attaching to running Chrome")
		return u, nil
	}

	launch := launcher.New().Headless(l.cfg.Headless)
	if l.cfg.BrowserBin != "" {
		launch = launch.Bin(l.cfg.BrowserBin)
	}
	u, err := launch.Launch()
	if err != nil {
		return "", fmt.Errorf("launch chrome: %w", err)
	}
	s.launcher = launch
	l.logger.WithField("headless", l.cfg.Headless).Debug("Launched Chrome")
	return u, nil
}

func (l *Launcher) signIn(ctx context.Context, page *rod.Page) error {
	if err := l.gotoURL(ctx, page, l.cfg.StartURL); err != nil {
		return err
	}
	p := page.Context(ctx)

	if links, err := p.ElementsByJS(rod.Eval(roleScript, "link", signInLinkPattern)); err == nil && len(links) > 0 {
		l.logger.Debug("Following sign-in link")
		if err := links.First().Click(proto.InputMouseButtonLeft, 1); err != nil {
			l.logger.WithError(err).Warn("Failed to click sign-in link")
		}
	}

	email, err := waitElement(ctx, page, emailInputSelector, loginFormTimeout)
	if err != nil {
		return fmt.Errorf("email field not found: %w", err)
	}
	if err := fill(email, l.cfg.Username); err != nil {
		return fmt.Errorf("fill email: %w", err)
	}

	password, err := waitElement(ctx, page, passwordInputSelector, loginFormTimeout)
	if err != nil {
		return fmt.Errorf("password field not found: %w", err)
	}
	if err := fill(password, l.cfg.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, l.cfg.NavigationTimeout)
	defer cancel()
	waitNav := page.Context(navCtx).WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)

	buttons, err := p.ElementsByJS(rod.Eval(roleScript, "button", submitButtonPattern))
	if err == nil && len(buttons) > 0 {
		err = buttons.First().Click(proto.InputMouseButtonLeft, 1)
	} else {
		err = p.Keyboard.Press(input.Enter)
	}
	if err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}

	waitNav()
	if navCtx.Err() != nil && ctx.Err() == nil {
		// Single-page logins may not navigate at all.
		l.logger.Debug("No navigation after login submit")
	}
	return ctx.Err()
}

func (l *Launcher) gotoURL(ctx context.Context, page *rod.Page, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, l.cfg.NavigationTimeout)
	defer cancel()

	p := page.Context(navCtx)
	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	wait()
	if err := navCtx.Err(); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// waitElement waits up to timeout for selector and returns the element bound
// to ctx.
func waitElement(ctx context.Context, page *rod.Page, selector string, timeout time.Duration) (*rod.Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	el, err := page.Context(waitCtx).Element(selector)
	if err != nil {
		return nil, err
	}
	return el.Context(ctx), nil
}

func fill(el *rod.Element, text string) error {
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(text)
}

// Session is an open browser with the working page.
type Session struct {
	browser  *rod.Browser
	launcher *launcher.Launcher // nil when attached to an existing browser
	page     *rod.Page
	rodPage  *rodPage
	logger   *logrus.Entry
}

func (s *Session) Page() browsing.Page { return s.rodPage }

func (s *Session) Screenshot(ctx context.Context, path string) error {
	if s.page == nil {
		return errors.New("no page to capture")
	}
	data, err := s.page.Context(ctx).Screenshot(true, nil)
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

// Close closes the working page. A browser this session launched is shut
// down; an attached browser is left running.
func (s *Session) Close() error {
	var errs []error
	if s.launcher == nil {
		if s.page != nil {
			errs = append(errs, s.page.Close())
		}
	} else if s.browser != nil {
		errs = append(errs, s.browser.Close())
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	return errors.Join(errs...)
}
