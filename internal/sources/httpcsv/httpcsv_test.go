package httpcsv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"datajobs/internal/cache"
	apperrors "datajobs/internal/errors"
)

const sampleCSV = "work_year,job_title\n2023,Data Scientist\n2022,Data Engineer\n"

func TestFetchParsesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	src := New(srv.URL, WithHTTPClient(srv.Client()))
	table, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(table.Rows) != 2 || table.Header[1] != "job_title" {
		t.Fatalf("unexpected table: %+v", table)
	}
	if src.Name() != srv.URL {
		t.Fatalf("unexpected name %q", src.Name())
	}
}

func TestFetchNonOKStatusIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithHTTPClient(srv.Client())).Fetch(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if apperrors.TypeOf(err) != apperrors.ErrTypeUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestFetchNetworkErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, WithTimeout(time.Second)).Fetch(context.Background())
	if apperrors.TypeOf(err) != apperrors.ErrTypeUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestFetchUsesRawCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	store := cache.NewMemoryStore(cache.Options{MaxEntries: 4, DefaultTTL: time.Minute})
	src := New(srv.URL, WithHTTPClient(srv.Client()), WithCache(store, time.Minute))

	for i := 0; i < 3; i++ {
		if _, err := src.Fetch(context.Background()); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", got)
	}

	if err := src.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := src.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch after invalidate: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected 2 upstream hits, got %d", got)
	}
}

func TestFetchDoesNotCacheMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("a,b\n1,2,3\n"))
	}))
	defer srv.Close()

	store := cache.NewMemoryStore(cache.Options{MaxEntries: 4, DefaultTTL: time.Minute})
	src := New(srv.URL, WithHTTPClient(srv.Client()), WithCache(store, time.Minute))

	_, err := src.Fetch(context.Background())
	if apperrors.TypeOf(err) != apperrors.ErrTypeSchema {
		t.Fatalf("expected schema error, got %v", err)
	}
	if _, err := store.Get(context.Background(), src.cacheKey()); err == nil {
		t.Fatalf("malformed body should not be cached")
	}
}
