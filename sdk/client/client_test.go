package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client := NewClient(nil)
	assert.Equal(t, "http://localhost:8080/api", client.http.BaseURL)

	client = NewClient(&Config{BaseURL: "http://example.com/", Token: "abc", Timeout: 5 * time.Second})
	assert.Equal(t, "http://example.com/api", client.http.BaseURL)
	assert.Equal(t, "abc", client.http.Token)
}

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"ok":false,"error":"missing or invalid token"}`))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return NewClient(&Config{BaseURL: server.URL, Token: "secret"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestCreateBudget(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orgs/acme/budgets", r.URL.Path)

		var req CreateBudgetRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.AllocatedAmount <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"ok": false, "error": "invalid input", "details": []string{"allocatedAmount: must be greater than 0"},
			})
			return
		}
		writeJSON(w, http.StatusCreated, Budget{ID: "b1", ProjectID: req.ProjectID, Category: req.Category, AllocatedAmount: req.AllocatedAmount})
	})
	ctx := context.Background()

	budget, err := client.CreateBudget(ctx, "acme", &CreateBudgetRequest{ProjectID: "p1", Category: "Supplies", AllocatedAmount: 500})
	require.NoError(t, err)
	assert.Equal(t, "b1", budget.ID)
	assert.Equal(t, 500.0, budget.AllocatedAmount)

	_, err = client.CreateBudget(ctx, "acme", &CreateBudgetRequest{ProjectID: "p1", Category: "Supplies"})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []string{"allocatedAmount: must be greater than 0"}, *apiErr.Details)

	_, err = client.CreateBudget(ctx, "acme", nil)
	assert.EqualError(t, err, "request cannot be nil")
}

func TestListBudgetsSendsProject(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "p1", r.URL.Query().Get("projectId"))
		writeJSON(w, http.StatusOK, BudgetList{
			Budgets: []Budget{{ID: "b1", AllocatedAmount: 100, SpentAmount: 40}},
			Summary: []BudgetSummary{{ProjectID: "p1", Allocated: 100, Spent: 40, Remaining: 60}},
		})
	})

	list, err := client.ListBudgets(context.Background(), "acme", "p1")
	require.NoError(t, err)
	require.Len(t, list.Summary, 1)
	assert.Equal(t, 60.0, list.Summary[0].Remaining)
}

func TestExpenseDecisions(t *testing.T) {
	ref := "b1_2024-03-15T12:30:45.123Z"
	decided := false
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/orgs/acme/expenses":
			assert.Equal(t, "PENDING", r.URL.Query().Get("status"))
			writeJSON(w, http.StatusOK, []Expense{{ID: "e1", Reference: ref, Status: "PENDING"}})
		case "/api/orgs/acme/expenses/" + ref + "/approve":
			if decided {
				writeJSON(w, http.StatusConflict, map[string]any{"ok": false, "error": "expense already processed"})
				return
			}
			decided = true
			writeJSON(w, http.StatusOK, Expense{ID: "e1", Reference: ref, Status: "APPROVED"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	pending, err := client.ListExpenses(ctx, "acme", ExpenseFilter{Status: "PENDING"})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	expense, err := client.ApproveExpense(ctx, "acme", pending[0].Reference, "ok")
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", expense.Status)

	_, err = client.ApproveExpense(ctx, "acme", pending[0].Reference, "")
	assert.True(t, IsStatus(err, http.StatusConflict))
	assert.Contains(t, err.Error(), "expense already processed")

	_, err = client.RejectExpense(ctx, "acme", "", "")
	assert.Error(t, err)
}

func TestProjectMetrics(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/orgs/acme/projects/p1/metrics":
			writeJSON(w, http.StatusOK, MetricsReport{ProjectID: "p1", TaskCompletionRate: 75, Health: "GREEN"})
		case "/api/orgs/acme/projects/p1/metrics.xlsx":
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			w.Write([]byte("PK"))
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "project not found"})
		}
	})
	ctx := context.Background()

	report, err := client.ProjectMetrics(ctx, "acme", "p1")
	require.NoError(t, err)
	assert.Equal(t, "GREEN", report.Health)
	assert.Equal(t, 75.0, report.TaskCompletionRate)

	data, err := client.ProjectMetricsXLSX(ctx, "acme", "p1")
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), data)

	_, err = client.ProjectMetrics(ctx, "acme", "p2")
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "project not found")
}

func TestUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "missing or invalid token"})
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL})
	_, err := client.ListBudgets(context.Background(), "acme", "")
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}
