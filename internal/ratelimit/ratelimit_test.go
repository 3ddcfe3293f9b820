package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAllowBurst(t *testing.T) {
	l := New(1, 3, time.Hour)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst must be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("request beyond burst must be rejected")
	}
}

func TestAllowIsolatesKeys(t *testing.T) {
	l := New(1, 1, time.Hour)
	defer l.Stop()

	if !l.Allow("10.0.0.1") {
		t.Fatal("first request must be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("second request from same IP must be rejected")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("a different IP has its own bucket")
	}
}

func TestAllowRefills(t *testing.T) {
	l := New(1, 1, 10*time.Millisecond)
	defer l.Stop()

	if !l.Allow("10.0.0.1") {
		t.Fatal("first request must be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("bucket must be empty")
	}

	time.Sleep(25 * time.Millisecond)
	if !l.Allow("10.0.0.1") {
		t.Error("bucket must refill after the interval")
	}
}

func TestMiddleware(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_rate_limited_total"})
	l := New(1, 1, time.Hour, WithCounter(counter))
	defer l.Stop()

	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4321"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("expected Retry-After header, got %q", got)
	}
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Errorf("expected counter at 1, got %v", got)
	}
}

func TestEvictOldest(t *testing.T) {
	l := New(1, 1, time.Hour)
	defer l.Stop()
	l.maxKeys = 2

	l.Allow("a")
	time.Sleep(time.Millisecond)
	l.Allow("b")
	time.Sleep(time.Millisecond)
	l.Allow("c") // evicts "a"

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.buckets) != 2 {
		t.Fatalf("expected 2 tracked keys, got %d", len(l.buckets))
	}
	if _, ok := l.buckets["a"]; ok {
		t.Error("oldest key must be evicted")
	}
}
