// Package httpcsv fetches the dataset as a CSV document over HTTP(S).
package httpcsv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"datajobs/internal/cache"
	apperrors "datajobs/internal/errors"
	"datajobs/internal/log"
	"datajobs/internal/sources"
	"datajobs/internal/telemetry"
)

// DefaultURL is the public salaries dataset.
const DefaultURL = "https://raw.githubusercontent.com/guilhermeonrails/data-jobs/refs/heads/main/salaries.csv"

// maxBodyBytes bounds the response body read into memory.
const maxBodyBytes = 256 << 20

var tracer = telemetry.GetTracer("datajobs/sources/httpcsv")

var _ sources.DatasetSource = (*Source)(nil)

type Source struct {
	url      string
	client   *http.Client
	cache    cache.Store
	cacheTTL time.Duration
	logger   *log.Logger
}

type Option func(*Source)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) { s.client = c }
}

// WithTimeout sets the overall request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithCache enables cache-aside storage of the raw response body.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(s *Source) {
		s.cache = store
		s.cacheTTL = ttl
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Source) { s.logger = l.WithComponent(log.ComponentSource) }
}

func New(url string, opts ...Option) *Source {
	if url == "" {
		url = DefaultURL
	}
	s := &Source{
		url:    url,
		client: newPooledClient(),
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Name() string { return s.url }

func (s *Source) cacheKey() string { return "datajobs:csv:" + s.url }

// Fetch downloads and parses the dataset. Any status other than 200 is a failure.
func (s *Source) Fetch(ctx context.Context) (sources.RawTable, error) {
	ctx, span := tracer.Start(ctx, "httpcsv.Fetch")
	defer span.End()
	span.SetAttributes(telemetry.String("http.url", s.url))

	if s.cache != nil {
		body, err := s.cache.Get(ctx, s.cacheKey())
		switch {
		case err == nil:
			span.SetAttributes(telemetry.String("cache.result", "hit"))
			s.logger.DebugContext(ctx, "raw dataset cache hit", log.FieldSource, s.url)
			return sources.ParseCSV(bytes.NewReader(body), s.url)
		case errors.Is(err, cache.ErrNotFound):
			span.SetAttributes(telemetry.String("cache.result", "miss"))
		default:
			span.SetAttributes(telemetry.String("cache.result", "error"))
			span.RecordError(err)
			s.logger.WarnContext(ctx, "raw dataset cache error", log.FieldError, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		span.RecordError(err)
		return sources.RawTable{}, apperrors.Internal("creating request", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return sources.RawTable{}, apperrors.Unavailable(fmt.Sprintf("fetching %s", s.url), err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.WarnContext(ctx, "failed to close response body", log.FieldError, cerr)
		}
	}()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return sources.RawTable{}, apperrors.Unavailable(
			fmt.Sprintf("fetching %s: unexpected status code: %d", s.url, resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		span.RecordError(err)
		return sources.RawTable{}, apperrors.Unavailable(fmt.Sprintf("reading %s", s.url), err)
	}
	if len(body) > maxBodyBytes {
		return sources.RawTable{}, apperrors.Schema(fmt.Sprintf("%s: body exceeds %d bytes", s.url, maxBodyBytes), nil)
	}

	table, err := sources.ParseCSV(bytes.NewReader(body), s.url)
	if err != nil {
		span.RecordError(err)
		return sources.RawTable{}, err
	}
	span.SetAttributes(telemetry.Int("dataset.raw_rows", len(table.Rows)))

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cacheKey(), body, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "failed to cache raw dataset", log.FieldError, err)
		}
	}
	return table, nil
}

// Invalidate drops the cached body so the next Fetch goes to the network.
func (s *Source) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, s.cacheKey())
}

func newPooledClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}
