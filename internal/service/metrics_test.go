package service_test

import (
	"testing"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/metrics"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectMetrics(t *testing.T) {
	h := newHarness(t)
	h.budget(t, "Equipment", 1000)
	spend(t, h, "Equipment", 1200)

	yesterday := fixedNow.Add(-24 * time.Hour)
	for i, status := range []model.TaskStatus{model.TaskDone, model.TaskDone, model.TaskDone, model.TaskInProgress} {
		input := service.CreateTaskInput{Title: "task", Status: status, EstimatedHours: 10, ActualHours: 20}
		if i == 3 {
			input.DueDate = &yesterday
		}
		_, err := h.svc.Tasks.Create(h.ctx, h.admin, "acme", h.project.ID, input)
		require.NoError(t, err)
	}

	report, err := h.svc.Metrics.Project(h.ctx, h.admin, "acme", h.project.ID)
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalTasks)
	assert.Equal(t, 3, report.CompletedTasks)
	assert.Equal(t, 75.0, report.TaskCompletionRate)
	assert.Equal(t, 1, report.OverdueTasks)
	assert.Equal(t, 1000.0, report.TotalBudget)
	assert.Equal(t, 1200.0, report.SpentBudget)
	assert.Equal(t, 120.0, report.BudgetUtilization)
	assert.Equal(t, 50.0, report.SchedulePerformance)
	assert.Equal(t, metrics.HealthRed, report.Health)
}

func TestProjectMetricsCacheInvalidation(t *testing.T) {
	h := newHarness(t)

	first, err := h.svc.Metrics.Project(h.ctx, h.admin, "acme", h.project.ID)
	require.NoError(t, err)
	assert.Zero(t, first.TotalTasks)
	assert.Equal(t, metrics.HealthRed, first.Health)

	// Rows written behind the service's back are not seen until invalidation.
	require.NoError(t, h.db.Create(&model.Task{ProjectID: h.project.ID, Title: "direct", Status: model.TaskDone, CreatedByID: h.admin}).Error)
	cached, err := h.svc.Metrics.Project(h.ctx, h.admin, "acme", h.project.ID)
	require.NoError(t, err)
	assert.Zero(t, cached.TotalTasks)

	_, err = h.svc.Tasks.Create(h.ctx, h.admin, "acme", h.project.ID, service.CreateTaskInput{Title: "via service", Status: model.TaskDone})
	require.NoError(t, err)

	fresh, err := h.svc.Metrics.Project(h.ctx, h.admin, "acme", h.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.TotalTasks)
	assert.Equal(t, 100.0, fresh.TaskCompletionRate)
	assert.Equal(t, metrics.HealthGreen, fresh.Health)
}

func TestProjectMetricsRefreshAfterDeadline(t *testing.T) {
	h := newHarness(t)

	due := fixedNow.Add(time.Hour)
	_, err := h.svc.Tasks.Create(h.ctx, h.admin, "acme", h.project.ID, service.CreateTaskInput{Title: "Submit permit", DueDate: &due})
	require.NoError(t, err)

	before, err := h.svc.Metrics.Project(h.ctx, h.admin, "acme", h.project.ID)
	require.NoError(t, err)
	assert.Zero(t, before.OverdueTasks)

	h.svc.Metrics.Now = func() time.Time { return due.Add(time.Minute) }
	after, err := h.svc.Metrics.Project(h.ctx, h.admin, "acme", h.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.OverdueTasks)
	assert.Equal(t, 100.0, after.OverdueRate)
}

func TestProjectMetricsScoping(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Metrics.Project(h.ctx, h.admin, "acme", uuid.New())
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	_, err = h.svc.Metrics.Project(h.ctx, uuid.New(), "acme", h.project.ID)
	assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)
}
