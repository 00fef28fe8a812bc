package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vitalink/vitalink/internal/model"
	"github.com/vitalink/vitalink/internal/service"
)

// SummaryProvider defines the interface for daily-summary aggregation.
type SummaryProvider interface {
	DailySummaries(ctx context.Context, patientID string, start, end time.Time) (map[string]*model.DaySummary, error)
}

// OverviewProvider defines the interface for the roster-wide latest-day view.
type OverviewProvider interface {
	Overview(ctx context.Context) ([]*model.PatientOverview, error)
}

// SummaryHandler serves the aggregated patient metrics endpoints.
type SummaryHandler struct {
	summaries SummaryProvider
	overview  OverviewProvider
	logger    *slog.Logger
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaries SummaryProvider, overview OverviewProvider, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{
		summaries: summaries,
		overview:  overview,
		logger:    logger,
	}
}

// Metrics handles GET /api/admin/patients/{patientID}/metrics?start=&end=.
// Both bounds are required inclusive ISO dates.
func (h *SummaryHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")

	startParam := r.URL.Query().Get("start")
	endParam := r.URL.Query().Get("end")
	if startParam == "" || endParam == "" {
		writeErrorJSON(w, http.StatusBadRequest, "MISSING_DATE_RANGE", "query parameters 'start' and 'end' are required")
		return
	}

	start, err := time.Parse(model.DateLayout, startParam)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "INVALID_DATE", "'start' must be an ISO date (YYYY-MM-DD)")
		return
	}
	end, err := time.Parse(model.DateLayout, endParam)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "INVALID_DATE", "'end' must be an ISO date (YYYY-MM-DD)")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	summaries, err := h.summaries.DailySummaries(ctx, patientID, start, end)
	if err != nil {
		if errors.Is(err, service.ErrPatientNotFound) {
			writeErrorJSON(w, http.StatusNotFound, "PATIENT_NOT_FOUND", "patient not found")
			return
		}
		h.logger.Error("failed to aggregate daily summaries",
			"error", err,
			"patient_id", patientID,
		)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load metrics")
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// OverviewResponse wraps the roster-wide latest-day rows.
type OverviewResponse struct {
	Summary []*model.PatientOverview `json:"summary"`
}

// Overview handles GET /api/admin/summary: one row per patient carrying the
// most recent rollup day of each metric family.
func (h *SummaryHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rows, err := h.overview.Overview(ctx)
	if err != nil {
		h.logger.Error("failed to load patient overview", "error", err)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load overview")
		return
	}
	if rows == nil {
		rows = []*model.PatientOverview{}
	}

	writeJSON(w, http.StatusOK, OverviewResponse{Summary: rows})
}
