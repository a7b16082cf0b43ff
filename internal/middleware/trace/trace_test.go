package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddleware_RequestID(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "127.0.0.1" }, nil)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request ID = %q, want req_ prefix", seen)
	}
	if rr.Header().Get(RequestIDHeader) != seen {
		t.Errorf("response header = %q, want %q", rr.Header().Get(RequestIDHeader), seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "upstream-42")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "upstream-42" {
		t.Errorf("incoming request ID not kept: %q", seen)
	}
}

func TestMiddleware_Metrics(t *testing.T) {
	m := NewMiddleware(nil, nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	for _, path := range []string{"/", "/boom", "/"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", got.TotalRequests)
	}
	if got.ServerErrors != 1 {
		t.Errorf("ServerErrors = %d, want 1", got.ServerErrors)
	}
}

func TestGetRequestID_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetRequestID(req.Context()); got != "" {
		t.Errorf("GetRequestID() = %q, want empty", got)
	}
}
