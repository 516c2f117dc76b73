package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetDuplicateCategory(t *testing.T) {
	f := newFixture(t)
	repo := repository.NewBudgetRepository(f.db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.ProjectBudget{ProjectID: f.project.ID, Category: "travel", AllocatedAmount: 100}))
	err := repo.Create(ctx, &model.ProjectBudget{ProjectID: f.project.ID, Category: "travel", AllocatedAmount: 50})
	assert.ErrorIs(t, err, domain.ErrDuplicateCategory)
	assert.ErrorIs(t, err, domain.ErrBusinessRule)
}

func TestBudgetGuards(t *testing.T) {
	f := newFixture(t)
	repo := repository.NewBudgetRepository(f.db)
	ctx := context.Background()

	b := &model.ProjectBudget{ProjectID: f.project.ID, Category: "equipment", AllocatedAmount: 1000}
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, f.db.Model(b).Update("spent_amount", 400).Error)

	assert.ErrorIs(t, repo.UpdateAllocation(ctx, b.ID, 399.99, nil), domain.ErrAllocatedBelowSpent)
	desc := "tools"
	require.NoError(t, repo.UpdateAllocation(ctx, b.ID, 400, &desc))

	got, err := repo.FindInOrg(ctx, f.org.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 400.0, got.AllocatedAmount)
	assert.Equal(t, "tools", got.Description)

	assert.ErrorIs(t, repo.Approve(ctx, b.ID, 500, f.admin.ID, time.Now()), domain.ErrApprovedOverAllocated)
	require.NoError(t, repo.Approve(ctx, b.ID, 400, f.admin.ID, time.Now()))

	assert.ErrorIs(t, repo.Delete(ctx, b.ID), domain.ErrBudgetHasSpend)
	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), domain.ErrBudgetNotFound)

	empty := &model.ProjectBudget{ProjectID: f.project.ID, Category: "misc", AllocatedAmount: 10}
	require.NoError(t, repo.Create(ctx, empty))
	require.NoError(t, repo.Delete(ctx, empty.ID))
}

func TestBudgetFindInOrgIsTenantScoped(t *testing.T) {
	f := newFixture(t)
	repo := repository.NewBudgetRepository(f.db)
	ctx := context.Background()

	b := &model.ProjectBudget{ProjectID: f.project.ID, Category: "travel", AllocatedAmount: 100}
	require.NoError(t, repo.Create(ctx, b))

	_, err := repo.FindInOrg(ctx, uuid.New(), b.ID)
	assert.ErrorIs(t, err, domain.ErrBudgetNotFound)

	list, err := repo.List(ctx, f.org.ID, &f.project.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestFindOrCreateByCategory(t *testing.T) {
	f := newFixture(t)
	repo := repository.NewBudgetRepository(f.db)
	ctx := context.Background()

	first, err := repo.FindOrCreateByCategory(ctx, f.project.ID, "fuel")
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.AllocatedAmount)

	again, err := repo.FindOrCreateByCategory(ctx, f.project.ID, "fuel")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}
