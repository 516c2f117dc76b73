package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/auth"
	"github.com/dangerclosesec/agiletrack/internal/cache"
	"github.com/dangerclosesec/agiletrack/internal/database/dbtest"
	"github.com/dangerclosesec/agiletrack/internal/handler"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type api struct {
	t      *testing.T
	server *httptest.Server
	tokens *auth.TokenManager
	db     *gorm.DB
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db := dbtest.New(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cacheService := service.NewCacheServiceWithStore(cache.NewInMemoryCache(time.Minute, 0), time.Minute)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	router := handler.NewRouter(handler.RouterConfig{
		Services:     service.NewServices(db, cacheService, service.NewLogNotifier(logger), logger),
		TokenManager: tokens,
		Logger:       logger,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &api{t: t, server: server, tokens: tokens, db: db}
}

type user struct {
	id    uuid.UUID
	email string
	token string
}

// newUser mints a token for a user. persist stores the user row so it can be
// added to organizations by email.
func (a *api) newUser(email string, persist bool) user {
	a.t.Helper()
	id := uuid.New()
	if persist {
		require.NoError(a.t, a.db.Create(&model.User{Base: model.Base{ID: id}, Email: email, Name: email}).Error)
	}
	token, err := a.tokens.Generate(id, email, email)
	require.NoError(a.t, err)
	return user{id: id, email: email, token: token}
}

func (a *api) do(u *user, method, path string, body any) (int, []byte) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

// setup creates org "acme" owned by an admin, with one project.
func (a *api) setup() (admin user, projectID string) {
	a.t.Helper()
	admin = a.newUser("ada@example.com", false)

	status, body := a.do(&admin, http.MethodPost, "/api/orgs", map[string]any{"name": "Acme", "slug": "acme"})
	require.Equal(a.t, http.StatusCreated, status, string(body))

	status, body = a.do(&admin, http.MethodPost, "/api/orgs/acme/projects", map[string]any{"name": "Clean Water"})
	require.Equal(a.t, http.StatusCreated, status, string(body))
	project := decode[model.Project](a.t, body)
	return admin, project.ID.String()
}

func (a *api) addMember(admin user, email string, role model.Role) user {
	a.t.Helper()
	u := a.newUser(email, true)
	status, body := a.do(&admin, http.MethodPost, "/api/orgs/acme/members", map[string]any{"email": email, "role": role})
	require.Equal(a.t, http.StatusCreated, status, string(body))
	return u
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	status, body := a.do(nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))
}

func TestUnauthenticated(t *testing.T) {
	a := newAPI(t)
	status, body := a.do(nil, http.MethodGet, "/api/orgs", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, decode[map[string]any](t, body)["ok"])
}

func TestOrganizationVisibility(t *testing.T) {
	a := newAPI(t)
	admin, _ := a.setup()
	outsider := a.newUser("eve@example.com", false)

	status, body := a.do(&admin, http.MethodGet, "/api/orgs/acme", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ORG_ADMIN", decode[map[string]any](t, body)["role"])

	status, body = a.do(&outsider, http.MethodGet, "/api/orgs/acme", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"ok":false,"error":"organization not found"}`, string(body))

	status, _ = a.do(&outsider, http.MethodGet, "/api/orgs/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = a.do(&admin, http.MethodGet, "/api/orgs", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]model.Organization](t, body), 1)
}

func TestValidationAndForbidden(t *testing.T) {
	a := newAPI(t)
	admin, projectID := a.setup()
	viewer := a.addMember(admin, "vic@example.com", model.RoleViewer)

	status, body := a.do(&admin, http.MethodPost, "/api/orgs/acme/budgets", map[string]any{
		"projectId": projectID, "category": "", "allocatedAmount": -5,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	resp := decode[handler.ErrorResponse](t, body)
	require.NotNil(t, resp.Details)
	assert.ElementsMatch(t, []string{"category: is required", "allocatedAmount: must be greater than 0"}, *resp.Details)

	status, _ = a.do(&viewer, http.MethodPost, "/api/orgs/acme/budgets", map[string]any{
		"projectId": projectID, "category": "Food", "allocatedAmount": 10,
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = a.do(&admin, http.MethodGet, "/api/orgs/acme/projects/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestExpenseFlow(t *testing.T) {
	a := newAPI(t)
	admin, projectID := a.setup()
	worker := a.addMember(admin, "tess@example.com", model.RoleTeamMember)

	status, body := a.do(&admin, http.MethodPost, "/api/orgs/acme/budgets", map[string]any{
		"projectId": projectID, "category": "Supplies", "allocatedAmount": 1000,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = a.do(&worker, http.MethodPost, "/api/orgs/acme/expenses", map[string]any{
		"projectId": projectID, "category": "Supplies", "amount": 250.5, "description": "Pipes",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	expense := decode[model.Expense](t, body)
	assert.Equal(t, model.ExpensePending, expense.Status)

	status, _ = a.do(&worker, http.MethodPost, "/api/orgs/acme/expenses/"+expense.Reference+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = a.do(&admin, http.MethodPost, "/api/orgs/acme/expenses/"+expense.Reference+"/approve", map[string]any{"note": "ok"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, model.ExpenseApproved, decode[model.Expense](t, body).Status)

	status, body = a.do(&admin, http.MethodPost, "/api/orgs/acme/expenses/"+expense.ID.String()+"/reject", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.JSONEq(t, `{"ok":false,"error":"expense already processed"}`, string(body))

	status, _ = a.do(&admin, http.MethodPost, "/api/orgs/acme/expenses/garbage/approve", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(&admin, http.MethodPost, "/api/orgs/acme/expenses/"+uuid.NewString()+"/approve", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = a.do(&admin, http.MethodGet, "/api/orgs/acme/budgets?projectId="+projectID, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[service.BudgetList](t, body)
	require.Len(t, list.Budgets, 1)
	assert.Equal(t, 250.5, list.Budgets[0].SpentAmount)

	status, body = a.do(&admin, http.MethodGet, "/api/orgs/acme/expenses?status=APPROVED", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]model.Expense](t, body), 1)
}

func TestMetricsEndpoints(t *testing.T) {
	a := newAPI(t)
	admin, projectID := a.setup()

	for _, s := range []string{"DONE", "DONE", "DONE", "TODO"} {
		status, body := a.do(&admin, http.MethodPost, "/api/orgs/acme/projects/"+projectID+"/tasks", map[string]any{"title": "t", "status": s})
		require.Equal(t, http.StatusCreated, status, string(body))
	}

	status, body := a.do(&admin, http.MethodGet, "/api/orgs/acme/projects/"+projectID+"/metrics", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	report := decode[map[string]any](t, body)
	assert.Equal(t, 75.0, report["taskCompletionRate"])
	assert.Equal(t, "GREEN", report["health"])

	req, err := http.NewRequest(http.MethodGet, a.server.URL+"/api/orgs/acme/projects/"+projectID+"/metrics.xlsx", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+admin.token)
	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
}

func TestReportTransitions(t *testing.T) {
	a := newAPI(t)
	admin, projectID := a.setup()
	base := "/api/orgs/acme/projects/" + projectID + "/reports"

	status, body := a.do(&admin, http.MethodPost, base, map[string]any{"type": "WEEKLY", "title": "Week 1"})
	require.Equal(t, http.StatusCreated, status, string(body))
	report := decode[model.ProgressReport](t, body)

	status, _ = a.do(&admin, http.MethodPost, base+"/"+report.ID.String()+"/approve", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(&admin, http.MethodPost, base+"/"+report.ID.String()+"/submit", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = a.do(&admin, http.MethodPost, base+"/"+report.ID.String()+"/approve", map[string]any{"note": "good"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, model.ReportApproved, decode[model.ProgressReport](t, body).Status)

	status, _ = a.do(&admin, http.MethodPost, base+"/"+report.ID.String()+"/archive", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAuditLogEndpoint(t *testing.T) {
	a := newAPI(t)
	admin, _ := a.setup()
	viewer := a.addMember(admin, "vic@example.com", model.RoleViewer)

	status, _ := a.do(&viewer, http.MethodDelete, "/api/orgs/acme/members/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusForbidden, status)

	status, _ = a.do(&viewer, http.MethodGet, "/api/orgs/acme/audit-logs", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := a.do(&admin, http.MethodGet, "/api/orgs/acme/audit-logs?allowed=false", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	page := decode[service.AuditLogPage](t, body)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 100, page.Limit)
	for _, entry := range page.Logs {
		assert.False(t, entry.Allowed)
		assert.Equal(t, viewer.id, entry.UserID)
		assert.NotEmpty(t, entry.RequestID)
	}
}
