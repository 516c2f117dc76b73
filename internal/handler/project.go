package handler

import (
	"log/slog"
	"net/http"

	"github.com/dangerclosesec/agiletrack/internal/export"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/service"
)

type ProjectHandler struct {
	projects *service.ProjectService
	metrics  *service.MetricsService
	logger   *slog.Logger
}

func NewProjectHandler(projects *service.ProjectService, metrics *service.MetricsService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, metrics: metrics, logger: logger}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.CreateProjectInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	project, err := h.projects.Create(r.Context(), s.userID, s.slug, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	status := model.ProjectStatus(r.URL.Query().Get("status"))
	projects, err := h.projects.List(r.Context(), s.userID, s.slug, status)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	project, err := h.projects.Get(r.Context(), s.userID, s.slug, projectID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.UpdateProjectInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	project, err := h.projects.Update(r.Context(), s.userID, s.slug, projectID, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if err := h.projects.Delete(r.Context(), s.userID, s.slug, projectID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	report, err := h.metrics.Project(r.Context(), s.userID, s.slug, projectID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

func (h *ProjectHandler) MetricsXLSX(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	report, err := h.metrics.Project(r.Context(), s.userID, s.slug, projectID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="metrics-`+projectID.String()+`.xlsx"`)
	if err := export.WriteMetricsXLSX(w, report); err != nil {
		h.logger.ErrorContext(r.Context(), "writing metrics workbook", "project_id", projectID, "error", err)
	}
}

func (h *ProjectHandler) CreatePhase(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.CreatePhaseInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	phase, err := h.projects.CreatePhase(r.Context(), s.userID, s.slug, projectID, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, phase)
}

func (h *ProjectHandler) ListPhases(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	phases, err := h.projects.ListPhases(r.Context(), s.userID, s.slug, projectID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, phases)
}

func (h *ProjectHandler) UpdatePhase(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	phaseID, err := urlUUID(r, "phaseID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.UpdatePhaseInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	phase, err := h.projects.UpdatePhase(r.Context(), s.userID, s.slug, projectID, phaseID, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, phase)
}

func (h *ProjectHandler) DeletePhase(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	phaseID, err := urlUUID(r, "phaseID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if err := h.projects.DeletePhase(r.Context(), s.userID, s.slug, projectID, phaseID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
