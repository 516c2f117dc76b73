package service_test

import (
	"strings"
	"testing"

	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskHierarchy(t *testing.T) {
	h := newHarness(t)

	parent, err := h.svc.Tasks.Create(h.ctx, h.admin, "acme", h.project.ID, service.CreateTaskInput{Title: "Drill well"})
	require.NoError(t, err)
	assert.Equal(t, model.TaskTodo, parent.Status)

	child, err := h.svc.Tasks.Create(h.ctx, h.admin, "acme", h.project.ID, service.CreateTaskInput{Title: "Survey", ParentID: &parent.ID})
	require.NoError(t, err)

	_, err = h.svc.Tasks.Create(h.ctx, h.admin, "acme", h.project.ID, service.CreateTaskInput{Title: "Too deep", ParentID: &child.ID})
	assert.ErrorIs(t, err, domain.ErrNestedSubtask)

	missing := uuid.New()
	_, err = h.svc.Tasks.Create(h.ctx, h.admin, "acme", h.project.ID, service.CreateTaskInput{Title: "Orphan", ParentID: &missing})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	top, err := h.svc.Tasks.List(h.ctx, h.admin, "acme", h.project.ID, service.TaskListQuery{})
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, parent.ID, top[0].ID)

	got, err := h.svc.Tasks.Get(h.ctx, h.admin, "acme", h.project.ID, parent.ID)
	require.NoError(t, err)
	require.Len(t, got.Subtasks, 1)
	assert.Equal(t, child.ID, got.Subtasks[0].ID)
}

func TestTaskPhaseAndAssignee(t *testing.T) {
	h := newHarness(t)

	phase, err := h.svc.Projects.CreatePhase(h.ctx, h.admin, "acme", h.project.ID, service.CreatePhaseInput{Name: "Build"})
	require.NoError(t, err)
	assert.Equal(t, 1, phase.Order)

	other, err := h.svc.Projects.Create(h.ctx, h.admin, "acme", service.CreateProjectInput{Name: "Schools"})
	require.NoError(t, err)
	foreignPhase, err := h.svc.Projects.CreatePhase(h.ctx, h.admin, "acme", other.ID, service.CreatePhaseInput{Name: "Plan"})
	require.NoError(t, err)

	_, err = h.svc.Tasks.Create(h.ctx, h.admin, "acme", h.project.ID, service.CreateTaskInput{Title: "x", PhaseID: &foreignPhase.ID})
	assert.ErrorIs(t, err, domain.ErrPhaseNotFound)

	stranger := &model.User{Email: "stranger@example.com", Name: "Stranger"}
	require.NoError(t, h.db.Create(stranger).Error)
	_, err = h.svc.Tasks.Create(h.ctx, h.admin, "acme", h.project.ID, service.CreateTaskInput{Title: "x", AssigneeID: &stranger.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	worker := h.join(t, "tess@example.com", model.RoleTeamMember)
	task, err := h.svc.Tasks.Create(h.ctx, h.admin, "acme", h.project.ID, service.CreateTaskInput{
		Title: "Pour concrete", PhaseID: &phase.ID, AssigneeID: &worker,
	})
	require.NoError(t, err)

	byPhase, err := h.svc.Tasks.List(h.ctx, h.admin, "acme", h.project.ID, service.TaskListQuery{PhaseID: &phase.ID})
	require.NoError(t, err)
	require.Len(t, byPhase, 1)
	assert.Equal(t, task.ID, byPhase[0].ID)
}

func TestTaskOwnership(t *testing.T) {
	h := newHarness(t)
	worker := h.join(t, "tess@example.com", model.RoleTeamMember)
	peer := h.join(t, "pete@example.com", model.RoleTeamMember)
	viewer := h.join(t, "vic@example.com", model.RoleViewer)

	task, err := h.svc.Tasks.Create(h.ctx, h.admin, "acme", h.project.ID, service.CreateTaskInput{Title: "Dig", AssigneeID: &worker})
	require.NoError(t, err)

	done := model.TaskDone
	updated, err := h.svc.Tasks.Update(h.ctx, worker, "acme", h.project.ID, task.ID, service.UpdateTaskInput{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, model.TaskDone, updated.Status)

	_, err = h.svc.Tasks.Update(h.ctx, peer, "acme", h.project.ID, task.ID, service.UpdateTaskInput{Status: &done})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.ErrorIs(t, h.svc.Tasks.Delete(h.ctx, worker, "acme", h.project.ID, task.ID), domain.ErrForbidden)

	_, err = h.svc.Tasks.Comment(h.ctx, viewer, "acme", h.project.ID, task.ID, service.CommentInput{Body: "hi"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	commented, err := h.svc.Tasks.Comment(h.ctx, peer, "acme", h.project.ID, task.ID, service.CommentInput{Body: "  looks good  "})
	require.NoError(t, err)
	comments, ok := commented.Metadata["comments"].([]any)
	require.True(t, ok)
	require.Len(t, comments, 1)
	assert.Equal(t, "looks good", comments[0].(map[string]any)["body"])

	require.NoError(t, h.svc.Tasks.Delete(h.ctx, h.admin, "acme", h.project.ID, task.ID))
	_, err = h.svc.Tasks.Get(h.ctx, h.admin, "acme", h.project.ID, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskAssigneeUpdatesWhateverRole(t *testing.T) {
	h := newHarness(t)

	for _, role := range []model.Role{model.RoleMonitor, model.RoleDonorSponsor, model.RoleViewer} {
		t.Run(string(role), func(t *testing.T) {
			assignee := h.join(t, strings.ToLower(string(role))+"@example.com", role)
			task, err := h.svc.Tasks.Create(h.ctx, h.admin, "acme", h.project.ID, service.CreateTaskInput{Title: "Inspect site", AssigneeID: &assignee})
			require.NoError(t, err)

			review := model.TaskInReview
			updated, err := h.svc.Tasks.Update(h.ctx, assignee, "acme", h.project.ID, task.ID, service.UpdateTaskInput{Status: &review})
			require.NoError(t, err)
			assert.Equal(t, model.TaskInReview, updated.Status)

			assert.ErrorIs(t, h.svc.Tasks.Delete(h.ctx, assignee, "acme", h.project.ID, task.ID), domain.ErrForbidden)
		})
	}
}
