// internal/service/budget.go
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/authz"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type BudgetService struct {
	access   *AccessService
	projects repository.ProjectRepositoryIface
	budgets  repository.BudgetRepositoryIface
	metrics  MetricsInvalidator
	logger   *slog.Logger
	validate *validator.Validate

	Now func() time.Time
}

func NewBudgetService(
	access *AccessService,
	projects repository.ProjectRepositoryIface,
	budgets repository.BudgetRepositoryIface,
	metrics MetricsInvalidator,
	logger *slog.Logger,
) *BudgetService {
	return &BudgetService{
		access:   access,
		projects: projects,
		budgets:  budgets,
		metrics:  metrics,
		logger:   logger,
		validate: newValidator(),
		Now:      time.Now,
	}
}

type CreateBudgetInput struct {
	ProjectID       uuid.UUID `json:"projectId" validate:"required"`
	Category        string    `json:"category" validate:"required,max=100"`
	AllocatedAmount float64   `json:"allocatedAmount" validate:"gt=0"`
	Description     string    `json:"description"`
}

type UpdateBudgetInput struct {
	AllocatedAmount *float64 `json:"allocatedAmount" validate:"omitempty,gt=0"`
	Description     *string  `json:"description"`
}

type ApproveBudgetInput struct {
	ApprovedAmount float64 `json:"approvedAmount" validate:"gt=0"`
}

// ProjectBudgetSummary totals the budget rows of one project.
type ProjectBudgetSummary struct {
	ProjectID uuid.UUID `json:"projectId"`
	Allocated float64   `json:"allocated"`
	Spent     float64   `json:"spent"`
	Approved  float64   `json:"approved"`
	Remaining float64   `json:"remaining"`
}

type BudgetList struct {
	Budgets []model.ProjectBudget  `json:"budgets"`
	Summary []ProjectBudgetSummary `json:"summary"`
}

func (s *BudgetService) Create(ctx context.Context, userID uuid.UUID, slug string, input CreateBudgetInput) (*model.ProjectBudget, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.BudgetCreate)
	if err != nil {
		return nil, err
	}
	input.Category = strings.TrimSpace(input.Category)
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}
	project, err := s.projects.FindInOrg(ctx, a.Organization.ID, input.ProjectID)
	if err != nil {
		return nil, err
	}

	budget := &model.ProjectBudget{
		ProjectID:       project.ID,
		Category:        input.Category,
		AllocatedAmount: input.AllocatedAmount,
		Description:     input.Description,
	}
	if err := s.budgets.Create(ctx, budget); err != nil {
		return nil, err
	}
	s.metrics.Invalidate(ctx, project.ID)
	s.logger.InfoContext(ctx, "budget created",
		"organization", slug,
		"project_id", project.ID,
		"category", budget.Category,
		"allocated", budget.AllocatedAmount,
	)
	return budget, nil
}

// List returns the organization's budgets, optionally for one project, with
// per-project totals.
func (s *BudgetService) List(ctx context.Context, userID uuid.UUID, slug string, projectID *uuid.UUID) (*BudgetList, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.BudgetView)
	if err != nil {
		return nil, err
	}
	budgets, err := s.budgets.List(ctx, a.Organization.ID, projectID)
	if err != nil {
		return nil, err
	}
	if budgets == nil {
		budgets = []model.ProjectBudget{}
	}
	return &BudgetList{Budgets: budgets, Summary: summarize(budgets)}, nil
}

func summarize(budgets []model.ProjectBudget) []ProjectBudgetSummary {
	out := []ProjectBudgetSummary{}
	index := map[uuid.UUID]int{}
	for _, b := range budgets {
		i, ok := index[b.ProjectID]
		if !ok {
			i = len(out)
			index[b.ProjectID] = i
			out = append(out, ProjectBudgetSummary{ProjectID: b.ProjectID})
		}
		out[i].Allocated += b.AllocatedAmount
		out[i].Spent += b.SpentAmount
		out[i].Approved += b.ApprovedAmount
		out[i].Remaining += b.Remaining()
	}
	return out
}

// Update changes the allocation or description. The allocation may never
// drop below what has already been spent.
func (s *BudgetService) Update(ctx context.Context, userID uuid.UUID, slug string, budgetID uuid.UUID, input UpdateBudgetInput) (*model.ProjectBudget, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.BudgetUpdate)
	if err != nil {
		return nil, err
	}
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}
	budget, err := s.budgets.FindInOrg(ctx, a.Organization.ID, budgetID)
	if err != nil {
		return nil, err
	}

	allocated := budget.AllocatedAmount
	if input.AllocatedAmount != nil {
		allocated = *input.AllocatedAmount
	}
	if err := s.budgets.UpdateAllocation(ctx, budget.ID, allocated, input.Description); err != nil {
		return nil, err
	}
	s.metrics.Invalidate(ctx, budget.ProjectID)
	return s.budgets.FindInOrg(ctx, a.Organization.ID, budget.ID)
}

// Approve records how much of the allocation a funder has approved.
func (s *BudgetService) Approve(ctx context.Context, userID uuid.UUID, slug string, budgetID uuid.UUID, input ApproveBudgetInput) (*model.ProjectBudget, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.BudgetApprove)
	if err != nil {
		return nil, err
	}
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}
	budget, err := s.budgets.FindInOrg(ctx, a.Organization.ID, budgetID)
	if err != nil {
		return nil, err
	}

	if err := s.budgets.Approve(ctx, budget.ID, input.ApprovedAmount, userID, s.Now().UTC()); err != nil {
		return nil, err
	}
	s.metrics.Invalidate(ctx, budget.ProjectID)
	s.logger.InfoContext(ctx, "budget approved", "budget_id", budget.ID, "amount", input.ApprovedAmount, "by", userID)
	return s.budgets.FindInOrg(ctx, a.Organization.ID, budget.ID)
}

// Delete removes a budget with no recorded spending.
func (s *BudgetService) Delete(ctx context.Context, userID uuid.UUID, slug string, budgetID uuid.UUID) error {
	a, err := s.access.Require(ctx, userID, slug, authz.BudgetDelete)
	if err != nil {
		return err
	}
	budget, err := s.budgets.FindInOrg(ctx, a.Organization.ID, budgetID)
	if err != nil {
		return err
	}
	if err := s.budgets.Delete(ctx, budget.ID); err != nil {
		return err
	}
	s.metrics.Invalidate(ctx, budget.ProjectID)
	return nil
}
