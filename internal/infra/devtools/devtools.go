// internal/infra/devtools/devtools.go
package devtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mafredri/cdp/devtool"
)

// Target is a debuggable target of a running Chrome.
type Target struct {
	ID    string
	Type  string
	Title string
	URL   string
}

// ResolveBrowserURL turns a DevTools HTTP endpoint (http://127.0.0.1:9222)
// into the browser's websocket URL. Websocket URLs are returned unchanged.
func ResolveBrowserURL(ctx context.Context, endpoint string) (string, error) {
	if strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://") {
		return endpoint, nil
	}
	v, err := devtool.New(endpoint).Version(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to query devtools version at %s: %w", endpoint, err)
	}
	if v.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("devtools at %s did not report a browser websocket url", endpoint)
	}
	return v.WebSocketDebuggerURL, nil
}

// ListTargets returns the targets of the Chrome at endpoint. With pagesOnly
// set, service workers, extensions and the like are left out.
func ListTargets(ctx context.Context, endpoint string, pagesOnly bool) ([]Target, error) {
	targets, err := devtool.New(endpoint).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devtools targets at %s: %w", endpoint, err)
	}
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		if pagesOnly && t.Type != devtool.Page {
			continue
		}
		out = append(out, Target{ID: string(t.ID), Type: string(t.Type), Title: t.Title, URL: t.URL})
	}
	return out, nil
}
