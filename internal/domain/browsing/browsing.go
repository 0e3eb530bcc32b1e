// internal/domain/browsing/browsing.go
package browsing

import (
	"context"
	"fmt"
)

// Query selects elements inside one browsing context.
// Exactly one of CSS, Text or Role is expected to be set.
type Query struct {
	CSS  string
	Text string // substring of the element's visible text
	Role string // ARIA role, matched together with Name
	Name string // accessible name, compared case-insensitively
}

func CSS(selector string) Query { return Query{CSS: selector} }

func Text(text string) Query { return Query{Text: text} }

func Role(role, name string) Query { return Query{Role: role, Name: name} }

func (q Query) String() string {
	switch {
	case q.CSS != "":
		return "css=" + q.CSS
	case q.Text != "":
		return fmt.Sprintf("text=%q", q.Text)
	case q.Role != "":
		return fmt.Sprintf("role=%s[name=%q]", q.Role, q.Name)
	default:
		return "<empty query>"
	}
}

// Element is a handle to a rendered node.
type Element interface {
	Click(ctx context.Context) error
	ScrollIntoView(ctx context.Context) error
	Text(ctx context.Context) (string, error)
	// ContainerHTML returns the outer HTML of the nearest enclosing li or div.
	ContainerHTML(ctx context.Context) (string, error)
}

// Context is a document: the top page, an iframe, or a popup.
// Results are snapshots; the tree may change between calls.
type Context interface {
	ID() string
	URL() string
	// Query returns the current matches without waiting.
	Query(ctx context.Context, q Query) ([]Element, error)
	// Frames returns the currently attached descendant frames in document order.
	Frames(ctx context.Context) ([]Context, error)
}

// Page is a top-level context that can report navigations and popups.
// Both Expect methods arm immediately; the returned function blocks until the
// event happens or ctx is done.
type Page interface {
	Context
	ExpectNavigation(ctx context.Context) func() error
	ExpectPopup(ctx context.Context) func() (Page, error)
}

// Session owns a logged-in page and the browser behind it.
type Session interface {
	Page() Page
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Launcher opens a session positioned on the schedule page.
type Launcher interface {
	Open(ctx context.Context) (Session, error)
}
