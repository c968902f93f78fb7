package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalogadmin/internal/chart"
	"github.com/utafrali/catalogadmin/internal/domain"
	"github.com/utafrali/catalogadmin/pkg/httputil"
)

// SummaryHandler serves product summaries as JSON and as pie charts.
type SummaryHandler struct {
	service ProductService
	logger  *slog.Logger
}

// NewSummaryHandler creates a summary HTTP handler.
func NewSummaryHandler(svc ProductService, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{service: svc, logger: logger}
}

// Summary handles GET /api/v1/dashboard/summary?by=status|category
func (h *SummaryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")
	if by == "" {
		by = string(domain.SummaryByStatus)
	}
	dim, err := domain.ParseSummaryDimension(by)
	if err != nil {
		httputil.WriteBadParam(w, "by must be one of: status, category")
		return
	}

	sum, err := h.service.Summary(r.Context(), dim)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, sum)
}

// Chart handles GET /dashboard/charts/{by} and returns an HTML page.
func (h *SummaryHandler) Chart(w http.ResponseWriter, r *http.Request) {
	dim, err := domain.ParseSummaryDimension(chi.URLParam(r, "by"))
	if err != nil {
		httputil.WriteBadParam(w, "chart must be one of: status, category")
		return
	}

	sum, err := h.service.Summary(r.Context(), dim)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	data, err := chart.FromTable(sum.Table())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	cfg := chart.DefaultConfig(fmt.Sprintf("Products by %s", dim))
	cfg.Subtitle = fmt.Sprintf("%d products", total(sum))
	cfg.PieHole = 0.4

	// Render into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := chart.RenderPie(&buf, data, cfg); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func total(s domain.Summary) int64 {
	var n int64
	for _, row := range s.Rows {
		n += row.Count
	}
	return n
}
