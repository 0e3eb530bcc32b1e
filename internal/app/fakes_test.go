package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"class_availability_notifier/internal/domain/availability"
	"class_availability_notifier/internal/domain/browsing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func quietLogger() *logrus.Entry {
	l, _ := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(l)
}

type fakeElement struct {
	mu        sync.Mutex
	text      string
	container string
	clicks    int
	clickErr  error
	onClick   func()
}

func (e *fakeElement) Click(ctx context.Context) error {
	e.mu.Lock()
	e.clicks++
	onClick := e.onClick
	e.mu.Unlock()
	if e.clickErr != nil {
		return e.clickErr
	}
	if onClick != nil {
		onClick()
	}
	return nil
}

func (e *fakeElement) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

func (e *fakeElement) ScrollIntoView(ctx context.Context) error { return nil }

func (e *fakeElement) Text(ctx context.Context) (string, error) { return e.text, nil }

func (e *fakeElement) ContainerHTML(ctx context.Context) (string, error) {
	if e.container == "" {
		return "", errors.New("element has no li/div ancestor")
	}
	return e.container, nil
}

// fakeContext answers queries from a table keyed by Query.String(). An entry
// becomes visible once the context has been queried for it `after` times.
type fakeContext struct {
	id  string
	url string

	mu        sync.Mutex
	entries   map[string]fakeEntry
	calls     map[string]int
	queryErr  error
	frames    []*fakeContext
	framesErr error
}

type fakeEntry struct {
	el    *fakeElement
	after int
}

func newFakeContext(id string) *fakeContext {
	return &fakeContext{
		id:      id,
		url:     "https://example.test/" + id,
		entries: map[string]fakeEntry{},
		calls:   map[string]int{},
	}
}

func (c *fakeContext) with(q browsing.Query, el *fakeElement) *fakeContext {
	return c.withAfter(q, el, 1)
}

func (c *fakeContext) withAfter(q browsing.Query, el *fakeElement, after int) *fakeContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[q.String()] = fakeEntry{el: el, after: after}
	return c
}

func (c *fakeContext) callsFor(q browsing.Query) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[q.String()]
}

func (c *fakeContext) ID() string  { return c.id }
func (c *fakeContext) URL() string { return c.url }

func (c *fakeContext) Query(ctx context.Context, q browsing.Query) ([]browsing.Element, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[q.String()]++
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	e, ok := c.entries[q.String()]
	if !ok || c.calls[q.String()] < e.after {
		return nil, nil
	}
	return []browsing.Element{e.el}, nil
}

func (c *fakeContext) Frames(ctx context.Context) ([]browsing.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.framesErr != nil {
		return nil, c.framesErr
	}
	out := make([]browsing.Context, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, f)
	}
	return out, nil
}

// fakePage can simulate an in-place navigation or a popup after a click.
type fakePage struct {
	*fakeContext

	clicked    chan struct{}
	clickOnce  sync.Once
	navigates  bool
	popup      *fakePage
	popupDelay time.Duration
}

func newFakePage(id string) *fakePage {
	return &fakePage{fakeContext: newFakeContext(id), clicked: make(chan struct{})}
}

func (p *fakePage) markClicked() {
	p.clickOnce.Do(func() { close(p.clicked) })
}

func (p *fakePage) ExpectNavigation(ctx context.Context) func() error {
	return func() error {
		select {
		case <-p.clicked:
			if p.navigates {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
		<-ctx.Done()
		return ctx.Err()
	}
}

func (p *fakePage) ExpectPopup(ctx context.Context) func() (browsing.Page, error) {
	return func() (browsing.Page, error) {
		select {
		case <-p.clicked:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if p.popup == nil {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		select {
		case <-time.After(p.popupDelay):
			return p.popup, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

type fakeSession struct {
	page        browsing.Page
	screenshots []string
	shotErr     error
	closed      bool
}

func (s *fakeSession) Page() browsing.Page { return s.page }

func (s *fakeSession) Screenshot(ctx context.Context, path string) error {
	s.screenshots = append(s.screenshots, path)
	return s.shotErr
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeLauncher struct {
	session *fakeSession
	err     error
	opened  int
}

func (l *fakeLauncher) Open(ctx context.Context) (browsing.Session, error) {
	l.opened++
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

type memoryState struct {
	state    availability.PersistedState
	stored   bool
	writes   int
	writeErr error
	history  []availability.CheckEntry
}

func (m *memoryState) Read(ctx context.Context) availability.PersistedState {
	if !m.stored {
		return availability.DefaultState()
	}
	return m.state
}

func (m *memoryState) Write(ctx context.Context, s availability.PersistedState) error {
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.state = s
	m.stored = true
	return nil
}

func (m *memoryState) AppendCheck(ctx context.Context, e availability.CheckEntry) error {
	m.history = append(m.history, e)
	return nil
}

func (m *memoryState) ListChecks(ctx context.Context, limit int) ([]availability.CheckEntry, error) {
	return m.history, nil
}

type sentMessage struct {
	message, title string
}

type recordingNotifier struct {
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) Send(ctx context.Context, message, title string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{message: message, title: title})
	return nil
}
