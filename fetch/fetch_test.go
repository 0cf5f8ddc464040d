package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingRecorder struct {
	mu           sync.Mutex
	hits, misses int
}

func (r *countingRecorder) RecordPageCache(hits, misses int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits += hits
	r.misses += misses
}

func TestURLFor(t *testing.T) {
	tests := map[string]string{
		"example.com":             "https://example.com/",
		"www.Example.co.uk":       "https://example.co.uk/",
		"http://localhost:8080/x": "http://localhost:8080/x",
		"  shop.example.com  ":    "https://shop.example.com/",
	}
	for in, want := range tests {
		if got := URLFor(in); got != want {
			t.Errorf("URLFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFetch(t *testing.T) {
	var requests int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		if r.Header.Get("User-Agent") != UserAgent {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Server", "nginx")
		w.Write([]byte("<html><body><p>hello</p></body></html>"))
	}))
	defer srv.Close()

	rec := &countingRecorder{}
	c := New(WithRecorder(rec))

	page := c.Fetch(context.Background(), srv.URL)
	if page.Error != "" {
		t.Fatalf("unexpected error %s", page.Error)
	}
	if !strings.Contains(page.HTML, "hello") {
		t.Errorf("unexpected body %q", page.HTML)
	}
	if page.Headers["server"] != "nginx" {
		t.Errorf("headers not lowercased: %v", page.Headers)
	}

	c.Fetch(context.Background(), srv.URL)
	mu.Lock()
	defer mu.Unlock()
	if requests != 1 {
		t.Errorf("expected the second fetch to hit the cache, got %d requests", requests)
	}
	if rec.hits != 1 || rec.misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d/%d", rec.hits, rec.misses)
	}
}

func TestFetchFailuresAreReportedOnThePage(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "forbidden", http.StatusForbidden)
		}))
		defer srv.Close()

		page := New().Fetch(context.Background(), srv.URL)
		if !strings.Contains(page.Error, "403") {
			t.Errorf("expected a 403 error, got %q", page.Error)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()

		page := New(WithTimeout(20*time.Millisecond)).Fetch(context.Background(), srv.URL)
		if page.Error == "" {
			t.Error("expected a timeout error")
		}
		if !page.Failed(0) {
			t.Error("failed page should report Failed")
		}
	})

	t.Run("failures are not cached", func(t *testing.T) {
		var fail atomic.Bool
		fail.Store(true)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fail.Load() {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte("<p>ok</p>"))
		}))
		defer srv.Close()

		c := New()
		c.Fetch(context.Background(), srv.URL)
		fail.Store(false)
		if page := c.Fetch(context.Background(), srv.URL); page.Error != "" {
			t.Errorf("expected a fresh fetch after failure, got %q", page.Error)
		}
	})
}

func TestFetchBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", 4096)))
	}))
	defer srv.Close()

	page := New(WithMaxBytes(100), WithCacheTTL(0)).Fetch(context.Background(), srv.URL)
	if len(page.HTML) != 100 {
		t.Errorf("expected body truncated to 100 bytes, got %d", len(page.HTML))
	}
}

func TestCleanupEnforcesSizeLimit(t *testing.T) {
	c := New()
	c.maxCacheSize = 2
	now := time.Now()
	c.cache["old"] = cacheEntry{timestamp: now.Add(-3 * time.Minute)}
	c.cache["mid"] = cacheEntry{timestamp: now.Add(-2 * time.Minute)}
	c.cache["new"] = cacheEntry{timestamp: now.Add(-1 * time.Minute)}
	c.cache["expired"] = cacheEntry{timestamp: now.Add(-time.Hour)}

	c.cleanup()

	if len(c.cache) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(c.cache))
	}
	if _, ok := c.cache["old"]; ok {
		t.Error("oldest entry should have been evicted")
	}
}

func TestScheduleCleanupRunsOneAtATime(t *testing.T) {
	c := New()

	c.cleaning.Store(true)
	if c.scheduleCleanup() {
		t.Fatal("a second cleanup started while one was running")
	}

	c.cleaning.Store(false)
	c.lastCleanup = time.Time{}
	if !c.scheduleCleanup() {
		t.Fatal("cleanup did not start when idle")
	}

	deadline := time.Now().Add(time.Second)
	for c.cleaning.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.cleaning.Load() {
		t.Fatal("cleanup never finished")
	}

	c.cacheMutex.RLock()
	last := c.lastCleanup
	c.cacheMutex.RUnlock()
	if last.IsZero() {
		t.Error("cleanup did not record its run time")
	}
}
