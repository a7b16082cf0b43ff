package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"datajobs/internal/core"
	"datajobs/internal/engine"
	"datajobs/internal/log"
	"datajobs/internal/middleware/ratelimit"
	"datajobs/internal/middleware/security"
	"datajobs/internal/middleware/trace"
	"datajobs/internal/services"
	appweb "datajobs/web"
)

// DashboardService is what the handlers need from the dataset layer.
type DashboardService interface {
	Table(ctx context.Context) (*core.Table, error)
	Reload(ctx context.Context) (*core.Table, error)
	Recompute(ctx context.Context, spec engine.FilterSpec, opts ...engine.Option) (engine.Result, error)
	Options(ctx context.Context) (engine.Options, error)
	DefaultSpec(ctx context.Context) (engine.FilterSpec, error)
	Filtered(ctx context.Context, spec engine.FilterSpec) ([]core.Record, error)
	Stats() services.ServiceStats
}

type Server struct {
	http.Server
	templates *template.Template
	svc       DashboardService
	logger    *log.Logger

	sourceURL      string
	requestTimeout time.Duration
	reloadRate     int
	staticMaxAge   int

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	startedAt    time.Time
	shutdownOnce sync.Once
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger (default: discard).
func WithLogger(logger *log.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithSourceURL sets the dataset origin shown in the page header.
func WithSourceURL(url string) ServerOption {
	return func(s *Server) { s.sourceURL = url }
}

// WithReloadRate bounds manual reloads per client per minute (default: 6).
func WithReloadRate(perMinute int) ServerOption {
	return func(s *Server) { s.reloadRate = perMinute }
}

// WithRequestTimeout bounds a dashboard request, including a dataset load
// (default: 60s).
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.requestTimeout = d }
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, svc DashboardService, opts ...ServerOption) *Server {
	s := &Server{
		svc:            svc,
		logger:         log.Discard(),
		requestTimeout: 60 * time.Second,
		reloadRate:     ratelimit.DefaultConfig().RequestsPerMinute,
		staticMaxAge:   3600,
		startedAt:      time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)

	s.detector = security.NewDetector(s.logger)
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.logger)
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: s.reloadRate})

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(s.staticMaxAge)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ui/dashboard", s.handleDashboardPartial)

	noStore := security.NoStoreMiddleware
	mux.Handle("/api/dashboard", noStore(http.HandlerFunc(s.handleDashboardAPI)))
	mux.Handle("/api/options", noStore(http.HandlerFunc(s.handleOptions)))
	mux.Handle("/api/records", noStore(http.HandlerFunc(s.handleRecords)))
	mux.Handle("/export.csv", noStore(http.HandlerFunc(s.handleExport)))

	reload := s.limiter.Middleware(s.detector.ExtractClientIP, s.reloadLimited)
	mux.Handle("/api/reload", noStore(reload(http.HandlerFunc(s.handleReload))))

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)
}

// middleware wraps the mux, outermost first.
func (s *Server) middleware(next http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	h := headers.Middleware(next)
	h = log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(h)
	h = s.tracer.Middleware(h)
	h = s.detector.Middleware(h)
	h = log.Middleware(s.logger)(h)
	return h
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

var templateFuncs = template.FuncMap{
	// pct renders a bar width for a style attribute.
	"pct": func(v float64) string {
		return formatPercent(v)
	},
}
