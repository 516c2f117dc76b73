// internal/repository/budget.go
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

type BudgetRepositoryIface interface {
	Create(ctx context.Context, budget *model.ProjectBudget) error
	FindInOrg(ctx context.Context, orgID, budgetID uuid.UUID) (*model.ProjectBudget, error)
	List(ctx context.Context, orgID uuid.UUID, projectID *uuid.UUID) ([]model.ProjectBudget, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.ProjectBudget, error)
	UpdateAllocation(ctx context.Context, budgetID uuid.UUID, allocated float64, description *string) error
	Approve(ctx context.Context, budgetID uuid.UUID, amount float64, approverID uuid.UUID, at time.Time) error
	Delete(ctx context.Context, budgetID uuid.UUID) error
	FindOrCreateByCategory(ctx context.Context, projectID uuid.UUID, category string) (*model.ProjectBudget, error)
}

type BudgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// inOrg scopes a budget query to the organization that owns its project.
func inOrg(db *gorm.DB, orgID uuid.UUID) *gorm.DB {
	return db.Joins("JOIN projects ON projects.id = project_budgets.project_id").
		Where("projects.organization_id = ?", orgID)
}

func (r *BudgetRepository) Create(ctx context.Context, budget *model.ProjectBudget) error {
	if err := r.db.WithContext(ctx).Create(budget).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrDuplicateCategory
		}
		return fmt.Errorf("creating budget: %w", err)
	}
	return nil
}

func (r *BudgetRepository) FindInOrg(ctx context.Context, orgID, budgetID uuid.UUID) (*model.ProjectBudget, error) {
	var budget model.ProjectBudget
	err := inOrg(r.db.WithContext(ctx), orgID).
		Where("project_budgets.id = ?", budgetID).
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, fmt.Errorf("finding budget: %w", err)
	}
	return &budget, nil
}

func (r *BudgetRepository) List(ctx context.Context, orgID uuid.UUID, projectID *uuid.UUID) ([]model.ProjectBudget, error) {
	var budgets []model.ProjectBudget
	query := inOrg(r.db.WithContext(ctx), orgID)
	if projectID != nil {
		query = query.Where("project_budgets.project_id = ?", *projectID)
	}
	if err := query.Order("project_budgets.category").Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}
	return budgets, nil
}

func (r *BudgetRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.ProjectBudget, error) {
	var budgets []model.ProjectBudget
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("category").
		Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("listing project budgets: %w", err)
	}
	return budgets, nil
}

// UpdateAllocation sets a new allocation only while it still covers what has
// been spent. The check and the write are one statement.
func (r *BudgetRepository) UpdateAllocation(ctx context.Context, budgetID uuid.UUID, allocated float64, description *string) error {
	updates := map[string]any{"allocated_amount": allocated}
	if description != nil {
		updates["description"] = *description
	}

	result := r.db.WithContext(ctx).Model(&model.ProjectBudget{}).
		Where("id = ? AND spent_amount <= ?", budgetID, allocated).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("updating budget allocation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.explainMiss(ctx, budgetID, domain.ErrAllocatedBelowSpent)
	}
	return nil
}

// Approve records the approved amount, which may not exceed the allocation.
func (r *BudgetRepository) Approve(ctx context.Context, budgetID uuid.UUID, amount float64, approverID uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.ProjectBudget{}).
		Where("id = ? AND allocated_amount >= ?", budgetID, amount).
		Updates(map[string]any{
			"approved_amount": amount,
			"approved_by_id":  approverID,
			"approved_at":     at,
		})
	if result.Error != nil {
		return fmt.Errorf("approving budget: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.explainMiss(ctx, budgetID, domain.ErrApprovedOverAllocated)
	}
	return nil
}

// Delete removes a budget that has no recorded spending.
func (r *BudgetRepository) Delete(ctx context.Context, budgetID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND spent_amount = 0", budgetID).
		Delete(&model.ProjectBudget{})
	if result.Error != nil {
		return fmt.Errorf("deleting budget: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.explainMiss(ctx, budgetID, domain.ErrBudgetHasSpend)
	}
	return nil
}

// FindOrCreateByCategory returns the project's budget for category, creating
// it with a zero allocation when absent. A concurrent insert of the same
// category is resolved by reading the winner's row.
func (r *BudgetRepository) FindOrCreateByCategory(ctx context.Context, projectID uuid.UUID, category string) (*model.ProjectBudget, error) {
	budget, err := r.findByCategory(ctx, projectID, category)
	if err == nil {
		return budget, nil
	}
	if !errors.Is(err, domain.ErrBudgetNotFound) {
		return nil, err
	}

	budget = &model.ProjectBudget{ProjectID: projectID, Category: category}
	if err := r.db.WithContext(ctx).Create(budget).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return r.findByCategory(ctx, projectID, category)
		}
		return nil, fmt.Errorf("creating budget for category %q: %w", category, err)
	}
	return budget, nil
}

func (r *BudgetRepository) findByCategory(ctx context.Context, projectID uuid.UUID, category string) (*model.ProjectBudget, error) {
	var budget model.ProjectBudget
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND category = ?", projectID, category).
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, fmt.Errorf("finding budget by category: %w", err)
	}
	return &budget, nil
}

// explainMiss tells a conditional write that matched nothing because the
// row is gone apart from one that was refused by its guard.
func (r *BudgetRepository) explainMiss(ctx context.Context, budgetID uuid.UUID, guardErr error) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.ProjectBudget{}).
		Where("id = ?", budgetID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("checking budget: %w", err)
	}
	if count == 0 {
		return domain.ErrBudgetNotFound
	}
	return guardErr
}
