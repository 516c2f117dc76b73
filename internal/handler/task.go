package handler

import (
	"log/slog"
	"net/http"

	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/service"
	"github.com/google/uuid"
)

type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// taskScope parses the caller, slug and project id shared by task routes.
func taskScope(r *http.Request) (scope, uuid.UUID, error) {
	s, err := orgScope(r)
	if err != nil {
		return scope{}, uuid.Nil, err
	}
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		return scope{}, uuid.Nil, err
	}
	return s, projectID, nil
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, projectID, err := taskScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.CreateTaskInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	task, err := h.tasks.Create(r.Context(), s.userID, s.slug, projectID, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	s, projectID, err := taskScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	q := service.TaskListQuery{Status: model.TaskStatus(r.URL.Query().Get("status"))}
	if q.PhaseID, err = queryUUID(r, "phaseId"); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if q.AssigneeID, err = queryUUID(r, "assigneeId"); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	tasks, err := h.tasks.List(r.Context(), s.userID, s.slug, projectID, q)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, projectID, err := taskScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	taskID, err := urlUUID(r, "taskID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	task, err := h.tasks.Get(r.Context(), s.userID, s.slug, projectID, taskID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, projectID, err := taskScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	taskID, err := urlUUID(r, "taskID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.UpdateTaskInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	task, err := h.tasks.Update(r.Context(), s.userID, s.slug, projectID, taskID, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, projectID, err := taskScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	taskID, err := urlUUID(r, "taskID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if err := h.tasks.Delete(r.Context(), s.userID, s.slug, projectID, taskID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Comment(w http.ResponseWriter, r *http.Request) {
	s, projectID, err := taskScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	taskID, err := urlUUID(r, "taskID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.CommentInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	task, err := h.tasks.Comment(r.Context(), s.userID, s.slug, projectID, taskID, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, task)
}
