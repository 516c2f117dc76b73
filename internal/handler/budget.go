package handler

import (
	"log/slog"
	"net/http"

	"github.com/dangerclosesec/agiletrack/internal/service"
)

type BudgetHandler struct {
	budgets *service.BudgetService
	logger  *slog.Logger
}

func NewBudgetHandler(budgets *service.BudgetService, logger *slog.Logger) *BudgetHandler {
	return &BudgetHandler{budgets: budgets, logger: logger}
}

func (h *BudgetHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.CreateBudgetInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	budget, err := h.budgets.Create(r.Context(), s.userID, s.slug, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, budget)
}

func (h *BudgetHandler) List(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	projectID, err := queryUUID(r, "projectId")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	list, err := h.budgets.List(r.Context(), s.userID, s.slug, projectID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

func (h *BudgetHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	budgetID, err := urlUUID(r, "budgetID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.UpdateBudgetInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	budget, err := h.budgets.Update(r.Context(), s.userID, s.slug, budgetID, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, budget)
}

func (h *BudgetHandler) Approve(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	budgetID, err := urlUUID(r, "budgetID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.ApproveBudgetInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	budget, err := h.budgets.Approve(r.Context(), s.userID, s.slug, budgetID, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, budget)
}

func (h *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	budgetID, err := urlUUID(r, "budgetID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if err := h.budgets.Delete(r.Context(), s.userID, s.slug, budgetID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
