package http

import (
	"bytes"
	"context"
	"net/http"

	"datajobs/internal/engine"
	apperrors "datajobs/internal/errors"
	"datajobs/internal/log"
	"datajobs/internal/middleware/trace"
)

// handleIndex renders the full dashboard page. Filters may be given in the
// query string so a filtered view can be bookmarked.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Página não encontrada").Write(w)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	page, err := s.buildPage(ctx, r)
	if err != nil {
		s.renderErrorPage(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard_page", page)
}

// handleDashboardPartial returns the metrics, charts and table for the
// filters in the query string. The filters panel swaps it on every change.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	res, err := s.recompute(ctx, r)
	if err != nil {
		s.logFailure(ctx, "Dashboard partial failed", err)
		ErrorResponse(StatusFor(err), PublicMessage(err)).Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard", newDashboardView(res))
}

func (s *Server) buildPage(ctx context.Context, r *http.Request) (pageView, error) {
	table, err := s.svc.Table(ctx)
	if err != nil {
		return pageView{}, err
	}
	opts, err := s.svc.Options(ctx)
	if err != nil {
		return pageView{}, err
	}
	res, err := s.recompute(ctx, r)
	if err != nil {
		return pageView{}, err
	}
	return newPageView(opts, res, s.sourceURL, table.LoadedAt), nil
}

// recompute parses the request filters against the defaults of the current
// table and recomputes the dashboard.
func (s *Server) recompute(ctx context.Context, r *http.Request, opts ...engine.Option) (engine.Result, error) {
	defaults, err := s.svc.DefaultSpec(ctx)
	if err != nil {
		return engine.Result{}, err
	}
	spec, err := ParseFilterRequest(r, defaults)
	if err != nil {
		return engine.Result{}, apperrors.InvalidInput(err.Error(), err)
	}
	return s.svc.Recompute(ctx, spec, opts...)
}

// render executes a template into a buffer so a failing template never
// leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldOperation, log.OpRender)
		InternalServerError("templates not loaded").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed",
			"template", name,
			log.FieldOperation, log.OpRender,
			log.FieldError, err)
		InternalServerError("Erro ao renderizar a página").Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorPageView struct {
	Title     string
	Status    int
	Message   string
	RequestID string
}

func (s *Server) renderErrorPage(w http.ResponseWriter, r *http.Request, err error) {
	s.logFailure(r.Context(), "Dashboard page failed", err)
	status := StatusFor(err)
	s.render(w, r, status, "error_page", errorPageView{
		Title:     pageTitle,
		Status:    status,
		Message:   PublicMessage(err),
		RequestID: trace.GetRequestID(r.Context()),
	})
}

func (s *Server) logFailure(ctx context.Context, msg string, err error) {
	logger := log.FromContext(ctx)
	if StatusFor(err) < http.StatusInternalServerError {
		logger.WarnContext(ctx, msg, log.FieldError, err)
		return
	}
	logger.ErrorContext(ctx, msg, log.FieldError, err, "error_type", apperrors.TypeOf(err))
}
