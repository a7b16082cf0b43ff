package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apperrors "datajobs/internal/errors"
	"datajobs/internal/sources"
)

func TestFetchReturnsCopy(t *testing.T) {
	src := New(sources.RawTable{
		Header: []string{"a", "b"},
		Rows:   [][]string{{"1", "2"}},
	})

	first, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	first.Rows[0][0] = "mutated"

	second, _ := src.Fetch(context.Background())
	if second.Rows[0][0] != "1" {
		t.Fatalf("fetch must not expose internal rows")
	}
	if src.Fetches() != 2 {
		t.Fatalf("expected 2 fetches, got %d", src.Fetches())
	}
	if src.Name() != "memory" {
		t.Fatalf("unexpected name %q", src.Name())
	}
}

func TestFetchFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "salaries.csv")
	if err := os.WriteFile(path, []byte("work_year,salary\n2024,10\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := NewFromFile(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(table.Rows) != 1 || table.Rows[0][0] != "2024" {
		t.Fatalf("unexpected rows: %v", table.Rows)
	}
}

func TestFetchMissingFile(t *testing.T) {
	_, err := NewFromFile(filepath.Join(t.TempDir(), "nope.csv")).Fetch(context.Background())
	if apperrors.TypeOf(err) != apperrors.ErrTypeUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestFetchHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(sources.RawTable{}).Fetch(ctx); err == nil {
		t.Fatalf("expected context error")
	}
}
