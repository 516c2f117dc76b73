package service_test

import (
	"testing"

	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spend(t *testing.T, h *harness, category string, amount float64) {
	t.Helper()
	e, err := h.svc.Expenses.Submit(h.ctx, h.admin, "acme", service.SubmitExpenseInput{
		ProjectID: h.project.ID, Category: category, Amount: amount, Description: "spend",
	})
	require.NoError(t, err)
	_, err = h.svc.Expenses.Approve(h.ctx, h.admin, "acme", e.ID.String(), service.DecideExpenseInput{})
	require.NoError(t, err)
}

func TestBudgetCreate(t *testing.T) {
	h := newHarness(t)
	h.budget(t, "Equipment", 500)

	_, err := h.svc.Budgets.Create(h.ctx, h.admin, "acme", service.CreateBudgetInput{
		ProjectID: h.project.ID, Category: "Equipment", AllocatedAmount: 100,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateCategory)

	_, err = h.svc.Budgets.Create(h.ctx, h.admin, "acme", service.CreateBudgetInput{
		ProjectID: h.project.ID, Category: " ", AllocatedAmount: 100,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = h.svc.Budgets.Create(h.ctx, h.admin, "acme", service.CreateBudgetInput{
		Category: "Food", AllocatedAmount: 100,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	viewer := h.join(t, "vic@example.com", model.RoleViewer)
	_, err = h.svc.Budgets.Create(h.ctx, viewer, "acme", service.CreateBudgetInput{
		ProjectID: h.project.ID, Category: "Food", AllocatedAmount: 100,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestBudgetAllocationCoversSpent(t *testing.T) {
	h := newHarness(t)
	b := h.budget(t, "Equipment", 500)
	spend(t, h, "Equipment", 300)

	low := 299.99
	_, err := h.svc.Budgets.Update(h.ctx, h.admin, "acme", b.ID, service.UpdateBudgetInput{AllocatedAmount: &low})
	assert.ErrorIs(t, err, domain.ErrAllocatedBelowSpent)

	exact := 300.0
	desc := "trimmed"
	updated, err := h.svc.Budgets.Update(h.ctx, h.admin, "acme", b.ID, service.UpdateBudgetInput{AllocatedAmount: &exact, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, 300.0, updated.AllocatedAmount)
	assert.Equal(t, "trimmed", updated.Description)
	assert.Zero(t, updated.Remaining())
}

func TestBudgetApprove(t *testing.T) {
	h := newHarness(t)
	b := h.budget(t, "Equipment", 500)

	_, err := h.svc.Budgets.Approve(h.ctx, h.admin, "acme", b.ID, service.ApproveBudgetInput{ApprovedAmount: 500.01})
	assert.ErrorIs(t, err, domain.ErrApprovedOverAllocated)

	_, err = h.svc.Budgets.Approve(h.ctx, h.admin, "acme", b.ID, service.ApproveBudgetInput{ApprovedAmount: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	approved, err := h.svc.Budgets.Approve(h.ctx, h.admin, "acme", b.ID, service.ApproveBudgetInput{ApprovedAmount: 400})
	require.NoError(t, err)
	assert.Equal(t, 400.0, approved.ApprovedAmount)
	require.NotNil(t, approved.ApprovedByID)
	assert.Equal(t, h.admin, *approved.ApprovedByID)
}

func TestBudgetDeleteRequiresNoSpend(t *testing.T) {
	h := newHarness(t)
	spent := h.budget(t, "Equipment", 500)
	unused := h.budget(t, "Food", 200)
	spend(t, h, "Equipment", 1)

	assert.ErrorIs(t, h.svc.Budgets.Delete(h.ctx, h.admin, "acme", spent.ID), domain.ErrBudgetHasSpend)
	require.NoError(t, h.svc.Budgets.Delete(h.ctx, h.admin, "acme", unused.ID))
	assert.ErrorIs(t, h.svc.Budgets.Delete(h.ctx, h.admin, "acme", unused.ID), domain.ErrBudgetNotFound)
}
