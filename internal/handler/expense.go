package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/service"
	"github.com/go-chi/chi/v5"
)

type ExpenseHandler struct {
	expenses *service.ExpenseService
	logger   *slog.Logger
}

func NewExpenseHandler(expenses *service.ExpenseService, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, logger: logger}
}

func (h *ExpenseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.SubmitExpenseInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	expense, err := h.expenses.Submit(r.Context(), s.userID, s.slug, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, expense)
}

func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	q := service.ExpenseListQuery{Status: model.ExpenseStatus(r.URL.Query().Get("status"))}
	if q.ProjectID, err = queryUUID(r, "projectId"); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if q.BudgetID, err = queryUUID(r, "budgetId"); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	expenses, err := h.expenses.List(r.Context(), s.userID, s.slug, q)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, expenses)
}

// Decide handles approve and reject. The expense is addressed by id or by
// its composite reference.
func (h *ExpenseHandler) Decide(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.DecideExpenseInput
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &input); err != nil {
			handleError(w, r, h.logger, err)
			return
		}
	}

	ref, err := url.PathUnescape(chi.URLParam(r, "expenseRef"))
	if err != nil {
		handleError(w, r, h.logger, domain.Invalid("expenseRef", "is not a valid path segment"))
		return
	}

	var expense *model.Expense
	switch chi.URLParam(r, "action") {
	case "approve":
		expense, err = h.expenses.Approve(r.Context(), s.userID, s.slug, ref, input)
	case "reject":
		expense, err = h.expenses.Reject(r.Context(), s.userID, s.slug, ref, input)
	default:
		respondWithError(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, expense)
}
