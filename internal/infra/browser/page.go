// internal/infra/browser/page.go
package browser

import (
	"context"
	"fmt"
	"time"

	"class_availability_notifier/internal/domain/browsing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

const (
	maxFrameDepth = 3
	urlTimeout    = 2 * time.Second
)

// rodContext adapts a rod page or iframe to browsing.Context.
type rodContext struct {
	page   *rod.Page
	id     string
	logger *logrus.Entry
}

func newRodContext(p *rod.Page, logger *logrus.Entry) *rodContext {
	id := string(p.TargetID)
	if p.FrameID != "" {
		id = string(p.FrameID)
	}
	return &rodContext{page: p, id: id, logger: logger}
}

func (c *rodContext) ID() string { return c.id }

func (c *rodContext) URL() string {
	res, err := c.page.Timeout(urlTimeout).Eval(locationScript)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func (c *rodContext) Query(ctx context.Context, q browsing.Query) ([]browsing.Element, error) {
	p := c.page.Context(ctx)

	var (
		found rod.Elements
		err   error
	)
	if q.CSS != "" {
		found, err = p.Elements(q.CSS)
	} else if opts := evalFor(q); opts != nil {
		found, err = p.ElementsByJS(opts)
	} else {
		return nil, fmt.Errorf("unsupported query %s", q)
	}
	if err != nil {
		return nil, err
	}

	out := make([]browsing.Element, 0, len(found))
	for _, el := range found {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

// Frames walks iframes depth-first. Frames that cannot be entered, such as
// ones detached mid-walk, are skipped.
func (c *rodContext) Frames(ctx context.Context) ([]browsing.Context, error) {
	var out []browsing.Context
	if err := c.collectFrames(ctx, c.page, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *rodContext) collectFrames(ctx context.Context, p *rod.Page, depth int, out *[]browsing.Context) error {
	if depth >= maxFrameDepth {
		return nil
	}
	iframes, err := p.Context(ctx).Elements("iframe, frame")
	if err != nil {
		return fmt.Errorf("failed to list iframes: %w", err)
	}
	for _, el := range iframes {
		fp, err := el.Context(ctx).Frame()
		if err != nil {
			c.logger.WithError(err).Debug("Skipping frame that could not be entered")
			continue
		}
		*out = append(*out, newRodContext(fp, c.logger))
		if err := c.collectFrames(ctx, fp, depth+1, out); err != nil {
			c.logger.WithError(err).Debug("Skipping nested frames")
		}
	}
	return nil
}

// rodPage is the top-level page, able to report navigations and popups.
type rodPage struct {
	*rodContext
}

func newRodPage(p *rod.Page, logger *logrus.Entry) *rodPage {
	return &rodPage{rodContext: newRodContext(p, logger)}
}

func (p *rodPage) ExpectNavigation(ctx context.Context) func() error {
	wait := p.page.Context(ctx).WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	return func() error {
		wait()
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("no navigation: %w", err)
		}
		return nil
	}
}

func (p *rodPage) ExpectPopup(ctx context.Context) func() (browsing.Page, error) {
	wait := p.page.Context(ctx).WaitOpen()
	return func() (browsing.Page, error) {
		popup, err := wait()
		if err != nil {
			return nil, fmt.Errorf("no popup: %w", err)
		}
		if err := popup.Context(ctx).WaitLoad(); err != nil {
			p.logger.WithError(err).Debug("Popup did not finish loading")
		}
		// Detach from the wait context so the popup outlives it.
		return newRodPage(popup.Context(context.Background()), p.logger), nil
	}
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) ScrollIntoView(ctx context.Context) error {
	return e.el.Context(ctx).ScrollIntoView()
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *rodElement) ContainerHTML(ctx context.Context) (string, error) {
	res, err := e.el.Context(ctx).Eval(containerScript)
	if err != nil {
		return "", fmt.Errorf("failed to read container: %w", err)
	}
	html := res.Value.Str()
	if html == "" {
		return "", fmt.Errorf("element has no li or div ancestor")
	}
	return html, nil
}
