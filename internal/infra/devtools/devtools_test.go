package devtools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const targetsJSON = `[
  {"id":"A1","type":"page","title":"Schedule","url":"https://example.test/schedule","webSocketDebuggerUrl":"ws://127.0.0.1/devtools/page/A1"},
  {"id":"W1","type":"service_worker","title":"sw","url":"https://example.test/sw.js"},
  {"id":"B2","type":"page","title":"Checkout","url":"https://example.test/checkout","webSocketDebuggerUrl":"ws://127.0.0.1/devtools/page/B2"}
]`

func devtoolsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/json/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Browser":"Chrome/126.0","Protocol-Version":"1.3","webSocketDebuggerUrl":"ws://127.0.0.1:9222/devtools/browser/xyz"}`))
	})
	list := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(targetsJSON))
	}
	mux.HandleFunc("/json/list", list)
	mux.HandleFunc("/json", list)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveBrowserURL(t *testing.T) {
	srv := devtoolsServer(t)

	got, err := ResolveBrowserURL(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "ws://127.0.0.1:9222/devtools/browser/xyz", got)

	ws := "ws://127.0.0.1:9222/devtools/browser/abc"
	got, err = ResolveBrowserURL(context.Background(), ws)
	require.NoError(t, err)
	require.Equal(t, ws, got)
}

func TestResolveBrowserURLUnreachable(t *testing.T) {
	srv := devtoolsServer(t)
	url := srv.URL
	srv.Close()

	_, err := ResolveBrowserURL(context.Background(), url)
	require.Error(t, err)
}

func TestListTargets(t *testing.T) {
	srv := devtoolsServer(t)

	all, err := ListTargets(context.Background(), srv.URL, false)
	require.NoError(t, err)
	require.Len(t, all, 3)

	pages, err := ListTargets(context.Background(), srv.URL, true)
	require.NoError(t, err)
	require.Equal(t, []Target{
		{ID: "A1", Type: "page", Title: "Schedule", URL: "https://example.test/schedule"},
		{ID: "B2", Type: "page", Title: "Checkout", URL: "https://example.test/checkout"},
	}, pages)
}
