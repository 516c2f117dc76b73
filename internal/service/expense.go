// internal/service/expense.go
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/authz"
	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ExpenseService struct {
	access   *AccessService
	projects repository.ProjectRepositoryIface
	budgets  repository.BudgetRepositoryIface
	expenses repository.ExpenseRepositoryIface
	users    repository.UserRepositoryIface
	metrics  MetricsInvalidator
	notifier Notifier
	logger   *slog.Logger
	validate *validator.Validate

	Now func() time.Time
}

func NewExpenseService(
	access *AccessService,
	projects repository.ProjectRepositoryIface,
	budgets repository.BudgetRepositoryIface,
	expenses repository.ExpenseRepositoryIface,
	users repository.UserRepositoryIface,
	metrics MetricsInvalidator,
	notifier Notifier,
	logger *slog.Logger,
) *ExpenseService {
	return &ExpenseService{
		access:   access,
		projects: projects,
		budgets:  budgets,
		expenses: expenses,
		users:    users,
		metrics:  metrics,
		notifier: notifier,
		logger:   logger,
		validate: newValidator(),
		Now:      time.Now,
	}
}

type SubmitExpenseInput struct {
	ProjectID   uuid.UUID  `json:"projectId" validate:"required"`
	Category    string     `json:"category" validate:"required,max=100"`
	Amount      float64    `json:"amount" validate:"gt=0"`
	Description string     `json:"description" validate:"required"`
	ExpenseDate *time.Time `json:"expenseDate"`
}

type DecideExpenseInput struct {
	Note string `json:"note" validate:"max=2000"`
}

type ExpenseListQuery struct {
	ProjectID *uuid.UUID
	BudgetID  *uuid.UUID
	Status    model.ExpenseStatus
}

// ExpenseRef addresses an expense either by id or by the composite
// "<budgetId>_<reportedAt>" reference.
type ExpenseRef struct {
	ID        uuid.UUID
	Reference string
}

// ParseExpenseRef accepts an expense UUID or a composite reference. The
// composite's time half may use any RFC 3339 form; it is normalized to
// millisecond UTC.
func ParseExpenseRef(ref string) (ExpenseRef, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return ExpenseRef{ID: id}, nil
	}

	budgetPart, timePart, ok := strings.Cut(ref, "_")
	if !ok || budgetPart == "" || timePart == "" {
		return ExpenseRef{}, domain.Invalid("expenseRef", "must be an expense id or <budgetId>_<reportedAt>")
	}
	budgetID, err := uuid.Parse(budgetPart)
	if err != nil {
		return ExpenseRef{}, domain.Invalid("expenseRef", "budget id is not a valid UUID")
	}
	reportedAt, err := time.Parse(time.RFC3339Nano, timePart)
	if err != nil {
		return ExpenseRef{}, domain.Invalid("expenseRef", "reportedAt is not a valid timestamp")
	}
	return ExpenseRef{Reference: model.ExpenseReference(budgetID, reportedAt)}, nil
}

// Submit records a pending expense against the project's budget for the
// category. A missing budget is created with no allocation. Spent amounts
// change only on approval.
func (s *ExpenseService) Submit(ctx context.Context, userID uuid.UUID, slug string, input SubmitExpenseInput) (*model.Expense, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.ExpenseSubmit)
	if err != nil {
		return nil, err
	}
	input.Category = strings.TrimSpace(input.Category)
	input.Description = strings.TrimSpace(input.Description)
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}
	project, err := s.projects.FindInOrg(ctx, a.Organization.ID, input.ProjectID)
	if err != nil {
		return nil, err
	}

	budget, err := s.budgets.FindOrCreateByCategory(ctx, project.ID, input.Category)
	if err != nil {
		return nil, err
	}

	expense := &model.Expense{
		BudgetID:     budget.ID,
		ProjectID:    project.ID,
		Amount:       input.Amount,
		Description:  input.Description,
		ExpenseDate:  input.ExpenseDate,
		ReportedByID: userID,
		ReportedAt:   s.Now(),
	}
	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, err
	}
	s.metrics.Invalidate(ctx, project.ID)
	s.logger.InfoContext(ctx, "expense submitted",
		"organization", slug,
		"reference", expense.Reference,
		"amount", expense.Amount,
		"category", budget.Category,
	)
	return expense, nil
}

func (s *ExpenseService) List(ctx context.Context, userID uuid.UUID, slug string, q ExpenseListQuery) ([]model.Expense, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.ExpenseView)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenses.List(ctx, a.Organization.ID, repository.ExpenseFilter{
		ProjectID: q.ProjectID,
		BudgetID:  q.BudgetID,
		Status:    q.Status,
	})
	if err != nil {
		return nil, err
	}
	if expenses == nil {
		expenses = []model.Expense{}
	}
	return expenses, nil
}

// Approve marks a pending expense APPROVED and adds its amount to the
// budget's spent amount.
func (s *ExpenseService) Approve(ctx context.Context, userID uuid.UUID, slug, ref string, input DecideExpenseInput) (*model.Expense, error) {
	return s.decide(ctx, userID, slug, ref, model.ExpenseApproved, input)
}

// Reject marks a pending expense REJECTED. Spent amounts do not change.
func (s *ExpenseService) Reject(ctx context.Context, userID uuid.UUID, slug, ref string, input DecideExpenseInput) (*model.Expense, error) {
	return s.decide(ctx, userID, slug, ref, model.ExpenseRejected, input)
}

func (s *ExpenseService) decide(ctx context.Context, userID uuid.UUID, slug, ref string, status model.ExpenseStatus, input DecideExpenseInput) (*model.Expense, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.ExpenseApprove)
	if err != nil {
		return nil, err
	}
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}
	parsed, err := ParseExpenseRef(ref)
	if err != nil {
		return nil, err
	}

	var expense *model.Expense
	if parsed.Reference != "" {
		expense, err = s.expenses.FindByReference(ctx, a.Organization.ID, parsed.Reference)
	} else {
		expense, err = s.expenses.FindInOrg(ctx, a.Organization.ID, parsed.ID)
	}
	if err != nil {
		return nil, err
	}

	decided, err := s.expenses.Decide(ctx, expense.ID, repository.Decision{
		Status:     status,
		ApproverID: userID,
		At:         s.Now().UTC(),
		Note:       input.Note,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Invalidate(ctx, decided.ProjectID)
	s.logger.InfoContext(ctx, "expense decided",
		"organization", slug,
		"reference", decided.Reference,
		"status", decided.Status,
		"by", userID,
	)
	s.notify(ctx, a, decided)
	return decided, nil
}

func (s *ExpenseService) notify(ctx context.Context, a *Access, expense *model.Expense) {
	reporter, err := s.users.FindByID(ctx, expense.ReportedByID)
	if err != nil {
		s.logger.WarnContext(ctx, "expense reporter not found, skipping notification",
			"reference", expense.Reference,
			"error", err,
		)
		return
	}

	notice := ExpenseDecisionNotice{
		To:          reporter.Email,
		Reporter:    reporter.Name,
		Description: expense.Description,
		Amount:      expense.Amount,
		Status:      string(expense.Status),
		DecidedBy:   a.UserID.String(),
		Note:        expense.Note,
	}
	if decider, err := s.users.FindByID(ctx, a.UserID); err == nil {
		notice.DecidedBy = decider.Name
	}
	if budget, err := s.budgets.FindInOrg(ctx, a.Organization.ID, expense.BudgetID); err == nil {
		notice.Category = budget.Category
	}
	if project, err := s.projects.FindInOrg(ctx, a.Organization.ID, expense.ProjectID); err == nil {
		notice.ProjectName = project.Name
	}
	s.notifier.ExpenseDecided(ctx, notice)
}
