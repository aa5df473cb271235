package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	pages := map[string]string{
		"/":  `<html><body><a href="/a">a</a></body></html>`,
		"/a": `<html><body><a href="/b">b</a><a href="/c">c</a></body></html>`,
		"/b": `<html><body>leaf</body></html>`,
		"/c": `<html><body><a href="/">home</a><a href="/c">self</a></body></html>`,
		// Linked nowhere, must not be discovered.
		"/d": `<html><body>orphan</body></html>`,
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body)) //nolint:errcheck
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", raw, err)
	}
	return u
}

func TestCrawlDiscoversReachablePages(t *testing.T) {
	ts := newTestSite(t)

	c := New(Config{UserAgent: "TestAgent", Concurrency: 2, RequestTimeout: 5 * time.Second}, zap.NewNop())

	var visited []string
	err := c.Crawl(context.Background(), mustParseURL(t, ts.URL+"/"), func(pageURL *url.URL, body []byte) {
		if len(body) == 0 {
			t.Errorf("empty body for %s", pageURL)
		}
		visited = append(visited, pageURL.String())
	})
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}

	sort.Strings(visited)
	want := []string{ts.URL + "/", ts.URL + "/a", ts.URL + "/b", ts.URL + "/c"}
	if len(visited) != len(want) {
		t.Fatalf("expected %v, got %v", want, visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, visited)
		}
	}
}

func TestCrawlVisitsEachLocationOnce(t *testing.T) {
	ts := newTestSite(t)

	c := New(Config{Concurrency: 4, RequestTimeout: 5 * time.Second}, zap.NewNop())

	counts := make(map[string]int)
	err := c.Crawl(context.Background(), mustParseURL(t, ts.URL+"/"), func(pageURL *url.URL, _ []byte) {
		counts[pageURL.String()]++
	})
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	for loc, n := range counts {
		if n != 1 {
			t.Fatalf("expected %s to be visited once, got %d", loc, n)
		}
	}
}

func TestCrawlSkipsFailingPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><a href="/broken">broken</a><a href="/ok">ok</a></body></html>`)) //nolint:errcheck
	})
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>fine</body></html>`)) //nolint:errcheck
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := New(Config{Concurrency: 1, RequestTimeout: 5 * time.Second}, zap.NewNop())

	var visited []string
	err := c.Crawl(context.Background(), mustParseURL(t, ts.URL+"/"), func(pageURL *url.URL, _ []byte) {
		visited = append(visited, pageURL.String())
	})
	if err != nil {
		t.Fatalf("expected page failures to be skipped, got %v", err)
	}
	sort.Strings(visited)
	if len(visited) != 2 {
		t.Fatalf("expected seed and /ok, got %v", visited)
	}
}

func TestCrawlFailsOnUnreachableSeed(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	c := New(Config{Concurrency: 1, RequestTimeout: 2 * time.Second}, zap.NewNop())

	err := c.Crawl(context.Background(), mustParseURL(t, ts.URL+"/"), func(*url.URL, []byte) {
		t.Error("no page should be visited")
	})
	if err == nil {
		t.Fatal("expected error for unreachable seed")
	}
}

func TestCrawlHonorsCanceledContext(t *testing.T) {
	ts := newTestSite(t)

	c := New(Config{Concurrency: 2, RequestTimeout: 5 * time.Second}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Crawl(ctx, mustParseURL(t, ts.URL+"/"), func(pageURL *url.URL, _ []byte) {
		t.Errorf("no page should be visited after cancellation, got %s", pageURL)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCrawlStaysOnSeedHost(t *testing.T) {
	external := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>external</body></html>`)) //nolint:errcheck
	}))
	defer external.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><a href="` + external.URL + `/offsite">offsite</a></body></html>`)) //nolint:errcheck
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := New(Config{Concurrency: 1, RequestTimeout: 5 * time.Second}, zap.NewNop())

	var visited []string
	err := c.Crawl(context.Background(), mustParseURL(t, ts.URL+"/"), func(pageURL *url.URL, _ []byte) {
		visited = append(visited, pageURL.String())
	})
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if len(visited) != 1 || visited[0] != ts.URL+"/" {
		t.Fatalf("expected only seed host pages, got %v", visited)
	}
}
