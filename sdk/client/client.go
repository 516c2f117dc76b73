// Package client is a Go client for the AgileTrack HTTP API covering
// budgets, expenses and project metrics.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Config represents the configuration for the AgileTrack client
type Config struct {
	// BaseURL is the server root, without the /api suffix
	BaseURL string
	// Token is the bearer token sent with every request
	Token string
	// Timeout is the default request timeout
	Timeout time.Duration
	// HTTPClient is an optional custom HTTP client
	HTTPClient *http.Client
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:8080",
		Timeout: 10 * time.Second,
	}
}

// Client talks to one AgileTrack server as one user.
type Client struct {
	config *Config
	http   *resty.Client
}

// NewClient creates a new client with the given configuration
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	var rc *resty.Client
	if config.HTTPClient != nil {
		rc = resty.NewWithClient(config.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(config.BaseURL, "/")+"/api").
		SetHeader("Accept", "application/json").
		SetError(&APIError{})
	if config.Timeout > 0 {
		rc.SetTimeout(config.Timeout)
	}
	if config.Token != "" {
		rc.SetAuthToken(config.Token)
	}

	return &Client{config: config, http: rc}
}

// APIError is the error body the API returns for every failed request.
type APIError struct {
	StatusCode int       `json:"-"`
	Message    string    `json:"error"`
	Details    *[]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != nil && len(*e.Details) > 0 {
		return fmt.Sprintf("%s: %s (Status: %d)", e.Message, strings.Join(*e.Details, "; "), e.StatusCode)
	}
	return fmt.Sprintf("%s (Status: %d)", e.Message, e.StatusCode)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type Budget struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"projectId"`
	Category        string    `json:"category"`
	AllocatedAmount float64   `json:"allocatedAmount"`
	SpentAmount     float64   `json:"spentAmount"`
	ApprovedAmount  *float64  `json:"approvedAmount,omitempty"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type BudgetSummary struct {
	ProjectID string  `json:"projectId"`
	Allocated float64 `json:"allocated"`
	Spent     float64 `json:"spent"`
	Approved  float64 `json:"approved"`
	Remaining float64 `json:"remaining"`
}

type BudgetList struct {
	Budgets []Budget        `json:"budgets"`
	Summary []BudgetSummary `json:"summary"`
}

type CreateBudgetRequest struct {
	ProjectID       string  `json:"projectId"`
	Category        string  `json:"category"`
	AllocatedAmount float64 `json:"allocatedAmount"`
	Description     string  `json:"description,omitempty"`
}

type Expense struct {
	ID           string     `json:"id"`
	Reference    string     `json:"reference"`
	ProjectID    string     `json:"projectId"`
	BudgetID     string     `json:"budgetId"`
	Amount       float64    `json:"amount"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	ReportedByID string     `json:"reportedById"`
	ReportedAt   time.Time  `json:"reportedAt"`
	ApprovedByID *string    `json:"approvedById,omitempty"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`
	Note         string     `json:"note,omitempty"`
}

type SubmitExpenseRequest struct {
	ProjectID   string     `json:"projectId"`
	Category    string     `json:"category"`
	Amount      float64    `json:"amount"`
	Description string     `json:"description"`
	ExpenseDate *time.Time `json:"expenseDate,omitempty"`
}

// ExpenseFilter narrows ListExpenses. Empty fields are not sent.
type ExpenseFilter struct {
	ProjectID string
	BudgetID  string
	Status    string
}

type PhaseProgress struct {
	PhaseID        string  `json:"phaseId"`
	Name           string  `json:"name"`
	Order          int     `json:"order"`
	Status         string  `json:"status"`
	TotalTasks     int     `json:"totalTasks"`
	CompletedTasks int     `json:"completedTasks"`
	CompletionRate float64 `json:"completionRate"`
}

type MetricsReport struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`

	TotalTasks         int     `json:"totalTasks"`
	CompletedTasks     int     `json:"completedTasks"`
	InProgressTasks    int     `json:"inProgressTasks"`
	BlockedTasks       int     `json:"blockedTasks"`
	OverdueTasks       int     `json:"overdueTasks"`
	TaskCompletionRate float64 `json:"taskCompletionRate"`
	OverdueRate        float64 `json:"overdueRate"`

	TotalBudget       float64 `json:"totalBudget"`
	SpentBudget       float64 `json:"spentBudget"`
	ApprovedBudget    float64 `json:"approvedBudget"`
	RemainingBudget   float64 `json:"remainingBudget"`
	BudgetUtilization float64 `json:"budgetUtilization"`

	SchedulePerformance float64         `json:"schedulePerformance"`
	Health              string          `json:"health"`
	Phases              []PhaseProgress `json:"phases"`
	GeneratedAt         time.Time       `json:"generatedAt"`
}

// CreateBudget adds a budget category to a project.
func (c *Client) CreateBudget(ctx context.Context, org string, req *CreateBudgetRequest) (*Budget, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	if req.ProjectID == "" || req.Category == "" {
		return nil, errors.New("projectId and category are required")
	}

	var budget Budget
	if err := c.do(ctx, http.MethodPost, orgPath(org, "budgets"), req, nil, &budget); err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}
	return &budget, nil
}

// ListBudgets returns the organization's budgets, optionally for one project.
func (c *Client) ListBudgets(ctx context.Context, org, projectID string) (*BudgetList, error) {
	query := url.Values{}
	if projectID != "" {
		query.Set("projectId", projectID)
	}

	var list BudgetList
	if err := c.do(ctx, http.MethodGet, orgPath(org, "budgets"), nil, query, &list); err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	return &list, nil
}

// SubmitExpense records a pending expense, creating the category's budget
// when the project has none yet.
func (c *Client) SubmitExpense(ctx context.Context, org string, req *SubmitExpenseRequest) (*Expense, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	var expense Expense
	if err := c.do(ctx, http.MethodPost, orgPath(org, "expenses"), req, nil, &expense); err != nil {
		return nil, fmt.Errorf("failed to submit expense: %w", err)
	}
	return &expense, nil
}

func (c *Client) ListExpenses(ctx context.Context, org string, filter ExpenseFilter) ([]Expense, error) {
	query := url.Values{}
	if filter.ProjectID != "" {
		query.Set("projectId", filter.ProjectID)
	}
	if filter.BudgetID != "" {
		query.Set("budgetId", filter.BudgetID)
	}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}

	var expenses []Expense
	if err := c.do(ctx, http.MethodGet, orgPath(org, "expenses"), nil, query, &expenses); err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

// ApproveExpense approves a pending expense. ref is the expense id or its
// reference.
func (c *Client) ApproveExpense(ctx context.Context, org, ref, note string) (*Expense, error) {
	return c.decide(ctx, org, ref, "approve", note)
}

func (c *Client) RejectExpense(ctx context.Context, org, ref, note string) (*Expense, error) {
	return c.decide(ctx, org, ref, "reject", note)
}

func (c *Client) decide(ctx context.Context, org, ref, action, note string) (*Expense, error) {
	if ref == "" {
		return nil, errors.New("expense reference is required")
	}

	var body any
	if note != "" {
		body = map[string]string{"note": note}
	}

	var expense Expense
	path := orgPath(org, "expenses", url.PathEscape(ref), action)
	if err := c.do(ctx, http.MethodPost, path, body, nil, &expense); err != nil {
		return nil, fmt.Errorf("failed to %s expense: %w", action, err)
	}
	return &expense, nil
}

// ProjectMetrics fetches the project's derived metrics report.
func (c *Client) ProjectMetrics(ctx context.Context, org, projectID string) (*MetricsReport, error) {
	if projectID == "" {
		return nil, errors.New("projectId is required")
	}

	var report MetricsReport
	if err := c.do(ctx, http.MethodGet, orgPath(org, "projects", projectID, "metrics"), nil, nil, &report); err != nil {
		return nil, fmt.Errorf("failed to get project metrics: %w", err)
	}
	return &report, nil
}

// ProjectMetricsXLSX downloads the metrics report as a spreadsheet.
func (c *Client) ProjectMetricsXLSX(ctx context.Context, org, projectID string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(orgPath(org, "projects", projectID, "metrics.xlsx"))
	if err != nil {
		return nil, fmt.Errorf("failed to download metrics: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return resp.Body(), nil
}

func orgPath(org string, parts ...string) string {
	return "/orgs/" + url.PathEscape(org) + "/" + strings.Join(parts, "/")
}

func (c *Client) do(ctx context.Context, method, path string, body any, query url.Values, result any) error {
	req := c.http.R().SetContext(ctx).SetResult(result)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *resty.Response) error {
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr.Message == "" {
		apiErr = &APIError{Message: http.StatusText(resp.StatusCode())}
	}
	apiErr.StatusCode = resp.StatusCode()
	return apiErr
}
