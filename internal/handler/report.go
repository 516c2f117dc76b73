package handler

import (
	"log/slog"
	"net/http"

	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/service"
	"github.com/go-chi/chi/v5"
)

type ReportHandler struct {
	reports *service.ReportService
	logger  *slog.Logger
}

func NewReportHandler(reports *service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, projectID, err := taskScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.CreateReportInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	report, err := h.reports.Create(r.Context(), s.userID, s.slug, projectID, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, report)
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	s, projectID, err := taskScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	status := model.ReportStatus(r.URL.Query().Get("status"))
	reports, err := h.reports.List(r.Context(), s.userID, s.slug, projectID, status)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, reports)
}

// Transition handles submit, approve and reject.
func (h *ReportHandler) Transition(w http.ResponseWriter, r *http.Request) {
	s, projectID, err := taskScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	reportID, err := urlUUID(r, "reportID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	var report *model.ProgressReport
	switch action := chi.URLParam(r, "action"); action {
	case "submit":
		report, err = h.reports.Submit(r.Context(), s.userID, s.slug, projectID, reportID)
	case "approve", "reject":
		var input service.ReviewReportInput
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &input); err != nil {
				handleError(w, r, h.logger, err)
				return
			}
		}
		if action == "approve" {
			report, err = h.reports.Approve(r.Context(), s.userID, s.slug, projectID, reportID, input)
		} else {
			report, err = h.reports.Reject(r.Context(), s.userID, s.slug, projectID, reportID, input)
		}
	default:
		respondWithError(w, http.StatusNotFound, "Not found")
		return
	}

	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}
