package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"datajobs/internal/log"
)

const readyTimeout = 10 * time.Second

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady reports ready once templates are parsed and the dataset loads.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	table, err := s.svc.Table(ctx)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		checks["dataset"] = map[string]interface{}{
			"status": "failed",
			"error":  PublicMessage(err),
		}
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		stats := table.Stats()
		checks["dataset"] = map[string]interface{}{
			"status":       "ok",
			"source":       table.Source,
			"kept_rows":    stats.KeptRows,
			"dropped_rows": stats.DroppedRows,
			"loaded_at":    table.LoadedAt.Format(time.RFC3339),
		}
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	traceMetrics := s.tracer.GetMetrics()
	svcStats := s.svc.Stats()

	cached := 0
	if svcStats.Cached {
		cached = 1
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	// Prometheus text exposition format
	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	writeMetric(w, "http_server_errors_total", "counter", "Total number of 5xx responses", traceMetrics.ServerErrors)
	writeMetric(w, "http_response_time_avg_microseconds", "gauge", "Average response time", traceMetrics.AverageResponseTime)

	writeMetric(w, "dataset_loads_total", "counter", "Successful dataset loads", svcStats.Loads)
	writeMetric(w, "dataset_load_failures_total", "counter", "Failed dataset loads", svcStats.LoadFailures)
	writeMetric(w, "dataset_reloads_total", "counter", "Manual dataset reloads", svcStats.Reloads)
	writeMetric(w, "dashboard_recomputes_total", "counter", "Dashboard recomputations", svcStats.Recomputes)
	writeMetric(w, "dataset_cached", "gauge", "Whether a loaded table is cached", int64(cached))

	writeMetric(w, "rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	writeMetric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	writeMetric(w, "suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	writeMetric(w, "invalid_ip_attempts_total", "counter", "Forwarding headers with invalid IPs", securityMetrics.InvalidIPAttempts)

	writeMetric(w, "uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.startedAt).Seconds()))
}

func writeMetric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}
