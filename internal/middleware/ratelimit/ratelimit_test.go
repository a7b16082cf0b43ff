package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *fakeClock) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute})
	t.Cleanup(rl.Stop)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl.now = clock.now
	return rl, clock
}

func TestLimiter_Allow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("fourth request within the window should be rejected")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other clients have their own window")
	}

	clock.t = clock.t.Add(30 * time.Second)
	if rl.Allow("1.2.3.4") {
		t.Fatal("steady traffic must not extend the window")
	}

	clock.t = clock.t.Add(31 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("window should reset after a minute")
	}

	if got := rl.GetMetrics().TotalHits; got != 2 {
		t.Errorf("TotalHits = %d, want 2", got)
	}
}

func TestLimiter_RetryAfter(t *testing.T) {
	rl, clock := newTestLimiter(t, 1)

	if got := rl.RetryAfter("9.9.9.9"); got != 0 {
		t.Errorf("unknown client RetryAfter = %v, want 0", got)
	}
	rl.Allow("9.9.9.9")
	clock.t = clock.t.Add(20 * time.Second)
	if got := rl.RetryAfter("9.9.9.9"); got != 40*time.Second {
		t.Errorf("RetryAfter = %v, want 40s", got)
	}
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(t, 5)

	rl.Allow("1.1.1.1")
	clock.t = clock.t.Add(5 * time.Minute)
	rl.Allow("2.2.2.2")
	clock.t = clock.t.Add(6 * time.Minute)

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if got := rl.ActiveClients(); got != 1 {
		t.Errorf("ActiveClients = %d, want 1", got)
	}
}

func TestLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	handler := rl.Middleware(func(*http.Request) string { return "10.0.0.1" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "61" {
		t.Errorf("Retry-After = %q, want 61", rr.Header().Get("Retry-After"))
	}
}
