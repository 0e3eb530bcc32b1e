//go:build integration

package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"class_availability_notifier/internal/app"
	"class_availability_notifier/internal/domain/availability"
	"class_availability_notifier/internal/domain/browsing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body>
<form method="post" action="/login">
  <input type="email" name="email">
  <input type="password" name="password">
  <button type="submit">Sign in</button>
</form>
</body></html>`

const schedulePage = `<html><body>
<a id="credit-item-use-0" href="/widget">Use credit</a>
</body></html>`

const widgetPage = `<html><body><h1>Book</h1><iframe src="/frame"></iframe></body></html>`

func framePage(tag string) string {
	return fmt.Sprintf(`<html><body>
<p>Select tags to filter sessions</p>
<button>Tuesday</button>
<ul>
  <li><span>Level 1 Tuesdays 10:00</span><span class="%s">%s</span></li>
  <li><span>Level 2 Thursdays 11:00</span><span>Open</span></li>
</ul>
</body></html>`, tag, tag)
}

func newSite(t *testing.T, tag string) *httptest.Server {
	mux := http.NewServeMux()
	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, body)
		}
	}
	mux.HandleFunc("/", page(loginPage))
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/schedule", http.StatusSeeOther)
	})
	mux.HandleFunc("/schedule", page(schedulePage))
	mux.HandleFunc("/widget", page(widgetPage))
	mux.HandleFunc("/frame", page(framePage(tag)))

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func openSession(t *testing.T, ctx context.Context, ts *httptest.Server) browsing.Session {
	l := NewLauncher(Config{
		StartURL:          ts.URL + "/",
		ScheduleURL:       ts.URL + "/schedule",
		Username:          "member@example.com",
		Password:          "secret",
		Headless:          true,
		NavigationTimeout: 10 * time.Second,
	}, logrus.NewEntry(logrus.New()))

	session, err := l.Open(ctx)
	require.NoError(t, err, "Failed to open browser session")
	t.Cleanup(func() {
		if err := session.Close(); err != nil {
			t.Logf("Close error: %v", err)
		}
	})
	return session
}

func TestExtractAcrossFrames_Integration(t *testing.T) {
	for _, tc := range []struct {
		tag  string
		want availability.Status
	}{
		{tag: "session-tag-full", want: availability.StatusFull},
		{tag: "session-tag-open", want: availability.StatusAvailable},
	} {
		t.Run(tc.tag, func(t *testing.T) {
			ts := newSite(t, tc.tag)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			session := openSession(t, ctx, ts)

			logger := logrus.NewEntry(logrus.New())
			cfg := app.DefaultExtractorConfig()
			cfg.DetectTimeout = 10 * time.Second
			cfg.CreditTimeout = 5 * time.Second
			cfg.PopupTimeout = 3 * time.Second
			cfg.NavigationTimeout = 10 * time.Second
			ex := app.NewExtractor(cfg, app.NewLocator(100*time.Millisecond, logger), logger)

			rec, err := ex.Extract(ctx, session.Page(), availability.Target{Name: "Level 1 Tuesdays 10:00", Day: "Tuesday"})
			require.NoError(t, err)
			require.Equal(t, tc.want, rec.Status)
		})
	}
}

func TestFramesAndQueries_Integration(t *testing.T) {
	ts := newSite(t, "session-tag-full")
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	session := openSession(t, ctx, ts)
	page := session.Page()

	credit, err := page.Query(ctx, browsing.CSS("#credit-item-use-0"))
	require.NoError(t, err)
	require.Len(t, credit, 1)

	wait := page.ExpectNavigation(ctx)
	require.NoError(t, credit[0].Click(ctx))
	require.NoError(t, wait())

	require.Eventually(t, func() bool {
		frames, err := page.Frames(ctx)
		if err != nil || len(frames) != 1 {
			return false
		}
		found, err := frames[0].Query(ctx, browsing.Role("button", "Tuesday"))
		return err == nil && len(found) == 1
	}, 10*time.Second, 100*time.Millisecond)

	// The widget lives in the frame only.
	top, err := page.Query(ctx, browsing.Text("Select tags to filter sessions"))
	require.NoError(t, err)
	require.Empty(t, top)
}
