// internal/repository/expense.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/database"
	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExpenseRepositoryIface interface {
	Create(ctx context.Context, expense *model.Expense) error
	FindInOrg(ctx context.Context, orgID, expenseID uuid.UUID) (*model.Expense, error)
	FindByReference(ctx context.Context, orgID uuid.UUID, reference string) (*model.Expense, error)
	List(ctx context.Context, orgID uuid.UUID, filter ExpenseFilter) ([]model.Expense, error)
	Decide(ctx context.Context, expenseID uuid.UUID, decision Decision) (*model.Expense, error)
}

// ExpenseFilter narrows List. Zero values match everything.
type ExpenseFilter struct {
	ProjectID *uuid.UUID
	BudgetID  *uuid.UUID
	Status    model.ExpenseStatus
}

// Decision moves a pending expense to APPROVED or REJECTED.
type Decision struct {
	Status     model.ExpenseStatus
	ApproverID uuid.UUID
	At         time.Time
	Note       string
}

// referenceAttempts bounds the retries when two expenses on one budget are
// reported within the same millisecond.
const referenceAttempts = 5

type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create inserts a pending expense and derives its reference from BudgetID
// and ReportedAt. On a reference collision ReportedAt moves forward by a
// millisecond and the insert is retried.
func (r *ExpenseRepository) Create(ctx context.Context, expense *model.Expense) error {
	expense.ReportedAt = expense.ReportedAt.UTC().Truncate(time.Millisecond)
	expense.Status = model.ExpensePending

	for attempt := 0; ; attempt++ {
		expense.ID = uuid.New()
		expense.Reference = model.ExpenseReference(expense.BudgetID, expense.ReportedAt)

		err := r.db.WithContext(ctx).Create(expense).Error
		if err == nil {
			return nil
		}
		if !database.IsUniqueViolation(err) || attempt+1 >= referenceAttempts {
			return fmt.Errorf("creating expense: %w", err)
		}
		expense.ReportedAt = expense.ReportedAt.Add(time.Millisecond)
	}
}

// inOrgExpenses scopes an expense query to the organization owning its project.
func inOrgExpenses(db *gorm.DB, orgID uuid.UUID) *gorm.DB {
	return db.Joins("JOIN projects ON projects.id = expenses.project_id").
		Where("projects.organization_id = ?", orgID)
}

func (r *ExpenseRepository) FindInOrg(ctx context.Context, orgID, expenseID uuid.UUID) (*model.Expense, error) {
	return r.findOne(ctx, orgID, "expenses.id = ?", expenseID)
}

func (r *ExpenseRepository) FindByReference(ctx context.Context, orgID uuid.UUID, reference string) (*model.Expense, error) {
	return r.findOne(ctx, orgID, "expenses.reference = ?", reference)
}

func (r *ExpenseRepository) findOne(ctx context.Context, orgID uuid.UUID, cond string, arg any) (*model.Expense, error) {
	var expense model.Expense
	err := inOrgExpenses(r.db.WithContext(ctx), orgID).Where(cond, arg).First(&expense).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("finding expense: %w", err)
	}
	return &expense, nil
}

func (r *ExpenseRepository) List(ctx context.Context, orgID uuid.UUID, filter ExpenseFilter) ([]model.Expense, error) {
	var expenses []model.Expense
	query := inOrgExpenses(r.db.WithContext(ctx), orgID)
	if filter.ProjectID != nil {
		query = query.Where("expenses.project_id = ?", *filter.ProjectID)
	}
	if filter.BudgetID != nil {
		query = query.Where("expenses.budget_id = ?", *filter.BudgetID)
	}
	if filter.Status != "" {
		query = query.Where("expenses.status = ?", filter.Status)
	}
	if err := query.Order("expenses.reported_at DESC").Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return expenses, nil
}

// Decide moves a PENDING expense to decision.Status. The status change is a
// compare-and-swap on PENDING, so a second decision on the same expense
// fails with ErrExpenseAlreadyProcessed. Approval adds the amount to the
// budget's spent amount in the same transaction.
func (r *ExpenseRepository) Decide(ctx context.Context, expenseID uuid.UUID, decision Decision) (*model.Expense, error) {
	if decision.Status != model.ExpenseApproved && decision.Status != model.ExpenseRejected {
		return nil, domain.Invalid("status", "must be APPROVED or REJECTED")
	}

	var expense model.Expense
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Expense{}).
			Where("id = ? AND status = ?", expenseID, model.ExpensePending).
			Updates(map[string]any{
				"status":         decision.Status,
				"approved_by_id": decision.ApproverID,
				"approved_at":    decision.At,
				"note":           decision.Note,
			})
		if result.Error != nil {
			return fmt.Errorf("updating expense status: %w", result.Error)
		}

		if err := tx.First(&expense, "id = ?", expenseID).Error; err != nil {
			return notFound(err, domain.ErrExpenseNotFound)
		}
		if result.RowsAffected == 0 {
			return domain.ErrExpenseAlreadyProcessed
		}

		if decision.Status == model.ExpenseApproved {
			if err := tx.Model(&model.ProjectBudget{}).
				Where("id = ?", expense.BudgetID).
				Update("spent_amount", gorm.Expr("spent_amount + ?", expense.Amount)).Error; err != nil {
				return fmt.Errorf("adding to spent amount: %w", err)
			}
		}
		return nil
	})

	if err != nil {
		if isDomain(err) {
			return nil, err
		}
		return nil, fmt.Errorf("transaction failed: %w", err)
	}
	return &expense, nil
}
