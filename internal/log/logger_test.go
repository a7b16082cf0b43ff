package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Format: "json", Output: &buf}), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.WithComponent(ComponentDataset).Info("Dataset loaded", FieldKeptRows, 10)
	logger.Debug("hidden")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, ComponentDataset, entries[0][FieldComponent])
	assert.Equal(t, float64(10), entries[0][FieldKeptRows])
	assert.Equal(t, ComponentApp, logger.Component())
}

func TestWithKeepsComponent(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	child := logger.WithComponent(ComponentHTTP).With(FieldRequestID, "req_1")
	child.InfoContext(context.Background(), "handled")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, ComponentHTTP, entries[0][FieldComponent])
	assert.Equal(t, "req_1", entries[0][FieldRequestID])
}

func TestStructuredLogger(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelDebug)
	sl := NewStructuredLogger(logger)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?year=2024", nil)
	sl.LogHTTPEnd(ctx, req, http.StatusBadGateway, 12, "192.0.2.1")
	sl.LogDatasetLoaded(ctx, "http:example", 10, 9, 1, 250)
	sl.LogError(ctx, "load failed", errors.New("boom"), ComponentDataset, OpLoad, nil)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 3)

	assert.Equal(t, "ERROR", entries[0]["level"])
	assert.Equal(t, "year=2024", entries[0][FieldQuery])
	assert.Equal(t, false, entries[0][FieldSuccess])

	assert.Equal(t, float64(1), entries[1][FieldDropped])
	assert.Equal(t, OpLoad, entries[1][FieldOperation])

	assert.Equal(t, "boom", entries[2][FieldError])
}

func TestMiddlewareStoresLogger(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_42" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "req_42", entries[0][FieldRequestID])
}

func TestFromContextFallsBack(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}
