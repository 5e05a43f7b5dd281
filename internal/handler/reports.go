package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/binfleet/binfleet/internal/model"
	"github.com/binfleet/binfleet/internal/server/middleware"
	"github.com/binfleet/binfleet/internal/store"
)

// ReportHandler lists and creates periodic summary reports.
type ReportHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(st *store.Store, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{store: st, logger: logger}
}

// List returns all reports, newest first.
// GET /api/v1/reports
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.ListReports(r.Context())
	if err != nil {
		h.logger.Error("list reports", "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Success: true,
		Data:    reports,
		Meta:    model.ListMeta{Count: len(reports)},
	})
}

// createReportRequest is the Create payload. Dates are RFC 3339.
type createReportRequest struct {
	Title       string    `json:"title"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// Create records a new report for a period.
// POST /api/v1/reports
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.CurrentIdentity(r.Context())

	var req createReportRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if req.PeriodStart.IsZero() || req.PeriodEnd.IsZero() || req.PeriodEnd.Before(req.PeriodStart) {
		writeError(w, http.StatusBadRequest, "A valid period is required")
		return
	}

	report := model.Report{
		Title:       req.Title,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		GeneratedBy: identity.User.ID,
	}
	if err := h.store.CreateReport(r.Context(), &report); err != nil {
		h.logger.Error("create report", "title", req.Title, "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusCreated, model.APIResponse{Success: true, Data: report})
}

// DashboardStats returns the admin dashboard counters.
// GET /api/v1/dashboard/stats
func (h *ReportHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	identity := middleware.CurrentIdentity(r.Context())

	stats, err := h.store.DashboardStats(r.Context(), identity.User)
	if err != nil {
		h.logger.Error("dashboard stats", "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Data: stats})
}
