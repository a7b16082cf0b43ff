package http

import (
	"context"
	"net/http"
	"time"

	"datajobs/internal/core"
	"datajobs/internal/engine"
	apperrors "datajobs/internal/errors"
	"datajobs/internal/log"
	"datajobs/internal/middleware/trace"
	"datajobs/internal/storage"
)

// exportFilename is the attachment name of /export.csv.
const exportFilename = "dados_filtrados.csv"

const reloadLimitedMessage = "Muitas recargas em pouco tempo, tente novamente mais tarde"

type optionsResponse struct {
	Options  engine.Options    `json:"options"`
	Defaults engine.FilterSpec `json:"defaults"`
}

type recordsResponse struct {
	Total   int           `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
	Records []core.Record `json:"records"`
}

type reloadResponse struct {
	Status   string          `json:"status"`
	Source   string          `json:"source"`
	Stats    core.TableStats `json:"stats"`
	LoadedAt time.Time       `json:"loaded_at"`
}

// handleDashboardAPI returns summary and chart configs as JSON. GET reads
// filters from the query string, POST from a JSON or form body.
func (s *Server) handleDashboardAPI(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	res, err := s.recompute(ctx, r, engine.WithoutRecords())
	if err != nil {
		s.writeAPIError(w, r, "Dashboard API failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleOptions returns the selectable values and the default filter.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	opts, err := s.svc.Options(ctx)
	if err != nil {
		s.writeAPIError(w, r, "Options API failed", err)
		return
	}
	defaults, err := s.svc.DefaultSpec(ctx)
	if err != nil {
		s.writeAPIError(w, r, "Options API failed", err)
		return
	}
	writeJSON(w, http.StatusOK, optionsResponse{Options: opts, Defaults: defaults})
}

// handleRecords pages through the filtered records.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	page, err := ParsePageParams(r.URL.Query())
	if err != nil {
		s.writeAPIError(w, r, "Records API failed", apperrors.InvalidInput(err.Error(), err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	records, err := s.filtered(ctx, r)
	if err != nil {
		s.writeAPIError(w, r, "Records API failed", err)
		return
	}

	start := min(page.Offset, len(records))
	end := min(start+page.Limit, len(records))
	writeJSON(w, http.StatusOK, recordsResponse{
		Total:   len(records),
		Limit:   page.Limit,
		Offset:  page.Offset,
		Records: records[start:end],
	})
}

// handleExport streams the filtered records as CSV with the snapshot header.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	records, err := s.filtered(ctx, r)
	if err != nil {
		s.logFailure(ctx, "Export failed", err)
		ErrorResponse(StatusFor(err), PublicMessage(err)).Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	if err := storage.WriteRecords(w, records); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Export write failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		return
	}
	log.FromContext(ctx).DebugContext(ctx, "Export written",
		log.FieldOperation, log.OpExport,
		log.FieldFiltered, len(records))
}

// handleReload drops the cached table and loads the dataset again.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	table, err := s.svc.Reload(ctx)
	if err != nil {
		if isHTMX(r) {
			s.logFailure(ctx, "Reload failed", err)
			ErrorResponse(StatusFor(err), PublicMessage(err)).
				TriggerErrorNotification(PublicMessage(err)).
				Write(w)
			return
		}
		s.writeAPIError(w, r, "Reload failed", err)
		return
	}

	stats := table.Stats()
	log.FromContext(ctx).InfoContext(ctx, "Dataset reloaded",
		log.FieldOperation, log.OpReload,
		log.FieldKeptRows, stats.KeptRows)

	if isHTMX(r) {
		NewHTMXResponse().
			Status(http.StatusNoContent).
			TriggerDatasetReloaded(stats.KeptRows, table.LoadedAt).
			TriggerSuccessNotification("Dados recarregados").
			Write(w)
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{
		Status:   "reloaded",
		Source:   table.Source,
		Stats:    stats,
		LoadedAt: table.LoadedAt,
	})
}

// reloadLimited answers a rate limited reload. Retry-After is already set.
func (s *Server) reloadLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Reload rate limited",
		log.FieldClientIP, s.detector.ExtractClientIP(r))

	if isHTMX(r) {
		ErrorResponse(http.StatusTooManyRequests, reloadLimitedMessage).
			TriggerNotification(NotificationWarning, reloadLimitedMessage, 5000).
			Write(w)
		return
	}
	writeJSON(w, http.StatusTooManyRequests, errorBody{
		Error:     reloadLimitedMessage,
		Type:      "RATE_LIMITED",
		RequestID: trace.GetRequestID(r.Context()),
	})
}

func (s *Server) filtered(ctx context.Context, r *http.Request) ([]core.Record, error) {
	defaults, err := s.svc.DefaultSpec(ctx)
	if err != nil {
		return nil, err
	}
	spec, err := ParseFilterValues(r.URL.Query(), defaults)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error(), err)
	}
	return s.svc.Filtered(ctx, spec)
}

func (s *Server) writeAPIError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logFailure(r.Context(), msg, err)
	writeJSONError(w, err, trace.GetRequestID(r.Context()))
}
