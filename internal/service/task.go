// internal/service/task.go
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

type TaskService struct {
	access   *AccessService
	orgs     repository.OrganizationRepositoryIface
	projects repository.ProjectRepositoryIface
	phases   repository.PhaseRepositoryIface
	tasks    repository.TaskRepositoryIface
	metrics  MetricsInvalidator
	logger   *slog.Logger
	validate *validator.Validate

	Now func() time.Time
}

func NewTaskService(
	access *AccessService,
	orgs repository.OrganizationRepositoryIface,
	projects repository.ProjectRepositoryIface,
	phases repository.PhaseRepositoryIface,
	tasks repository.TaskRepositoryIface,
	metrics MetricsInvalidator,
	logger *slog.Logger,
) *TaskService {
	return &TaskService{
		access:   access,
		orgs:     orgs,
		projects: projects,
		phases:   phases,
		tasks:    tasks,
		metrics:  metrics,
		logger:   logger,
		validate: newValidator(),
		Now:      time.Now,
	}
}

type CreateTaskInput struct {
	Title          string           `json:"title" validate:"required,max=255"`
	Description    string           `json:"description"`
	Status         model.TaskStatus `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS IN_REVIEW DONE BLOCKED"`
	Priority       model.Priority   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	PhaseID        *uuid.UUID       `json:"phaseId"`
	ParentID       *uuid.UUID       `json:"parentId"`
	AssigneeID     *uuid.UUID       `json:"assigneeId"`
	EstimatedHours float64          `json:"estimatedHours" validate:"gte=0"`
	ActualHours    float64          `json:"actualHours" validate:"gte=0"`
	DueDate        *time.Time       `json:"dueDate"`
	Metadata       map[string]any   `json:"metadata"`
}

type UpdateTaskInput struct {
	Title          *string           `json:"title" validate:"omitempty,min=1,max=255"`
	Description    *string           `json:"description"`
	Status         *model.TaskStatus `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS IN_REVIEW DONE BLOCKED"`
	Priority       *model.Priority   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	PhaseID        *uuid.UUID        `json:"phaseId"`
	AssigneeID     *uuid.UUID        `json:"assigneeId"`
	EstimatedHours *float64          `json:"estimatedHours" validate:"omitempty,gte=0"`
	ActualHours    *float64          `json:"actualHours" validate:"omitempty,gte=0"`
	DueDate        *time.Time        `json:"dueDate"`
}

type CommentInput struct {
	Body string `json:"body" validate:"required,max=4000"`
}

type TaskListQuery struct {
	Status     model.TaskStatus
	PhaseID    *uuid.UUID
	AssigneeID *uuid.UUID
}

func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, slug string, projectID uuid.UUID, input CreateTaskInput) (*model.Task, error) {
	a, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.TaskCreate)
	if err != nil {
		return nil, err
	}
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		parent, err := s.tasks.FindInProject(ctx, project.ID, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.ParentID != nil {
			return nil, domain.ErrNestedSubtask
		}
	}
	if err := s.checkPhase(ctx, project.ID, input.PhaseID); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, a.Organization.ID, input.AssigneeID); err != nil {
		return nil, err
	}

	task := &model.Task{
		ProjectID:      project.ID,
		PhaseID:        input.PhaseID,
		ParentID:       input.ParentID,
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		Status:         input.Status,
		Priority:       input.Priority,
		CreatedByID:    userID,
		AssigneeID:     input.AssigneeID,
		EstimatedHours: input.EstimatedHours,
		ActualHours:    input.ActualHours,
		DueDate:        input.DueDate,
		Metadata:       input.Metadata,
	}
	if task.Status == "" {
		task.Status = model.TaskTodo
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	s.metrics.Invalidate(ctx, project.ID)
	return task, nil
}

func (s *TaskService) checkPhase(ctx context.Context, projectID uuid.UUID, phaseID *uuid.UUID) error {
	if phaseID == nil {
		return nil
	}
	_, err := s.phases.FindInProject(ctx, projectID, *phaseID)
	return err
}

func (s *TaskService) checkAssignee(ctx context.Context, orgID uuid.UUID, assigneeID *uuid.UUID) error {
	if assigneeID == nil {
		return nil
	}
	ok, err := s.orgs.IsMember(ctx, orgID, *assigneeID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Invalid("assigneeId", "must be a member of the organization")
	}
	return nil
}

// List returns the project's top-level tasks. A phase or assignee filter
// matches subtasks too.
func (s *TaskService) List(ctx context.Context, userID uuid.UUID, slug string, projectID uuid.UUID, q TaskListQuery) ([]model.Task, error) {
	_, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.TaskView)
	if err != nil {
		return nil, err
	}
	return s.tasks.List(ctx, project.ID, repository.TaskFilter{
		Status:     q.Status,
		PhaseID:    q.PhaseID,
		AssigneeID: q.AssigneeID,
		TopLevel:   q.PhaseID == nil && q.AssigneeID == nil,
	})
}

func (s *TaskService) Get(ctx context.Context, userID uuid.UUID, slug string, projectID, taskID uuid.UUID) (*model.Task, error) {
	_, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.TaskView)
	if err != nil {
		return nil, err
	}
	return s.tasks.FindInProject(ctx, project.ID, taskID)
}

// owns reports whether the caller created or is assigned the task, whatever
// their role.
func owns(a *Access, task *model.Task) bool {
	return task.IsOwnedBy(a.UserID)
}

func (s *TaskService) Update(ctx context.Context, userID uuid.UUID, slug string, projectID, taskID uuid.UUID, input UpdateTaskInput) (*model.Task, error) {
	a, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.TaskView)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.FindInProject(ctx, project.ID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.access.Check(ctx, a, authz.TaskUpdate, "task", task.ID.String(), owns(a, task)); err != nil {
		return nil, err
	}
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}

	if input.PhaseID != nil {
		if err := s.checkPhase(ctx, project.ID, input.PhaseID); err != nil {
			return nil, err
		}
		task.PhaseID = input.PhaseID
	}
	if input.AssigneeID != nil {
		if err := s.checkAssignee(ctx, a.Organization.ID, input.AssigneeID); err != nil {
			return nil, err
		}
		task.AssigneeID = input.AssigneeID
	}
	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.EstimatedHours != nil {
		task.EstimatedHours = *input.EstimatedHours
	}
	if input.ActualHours != nil {
		task.ActualHours = *input.ActualHours
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.metrics.Invalidate(ctx, project.ID)
	return task, nil
}

// Delete removes the task and its subtasks.
func (s *TaskService) Delete(ctx context.Context, userID uuid.UUID, slug string, projectID, taskID uuid.UUID) error {
	a, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.TaskView)
	if err != nil {
		return err
	}
	task, err := s.tasks.FindInProject(ctx, project.ID, taskID)
	if err != nil {
		return err
	}
	if err := s.access.Check(ctx, a, authz.TaskDelete, "task", task.ID.String(), task.CreatedByID == userID); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, project.ID, task.ID); err != nil {
		return err
	}
	s.metrics.Invalidate(ctx, project.ID)
	return nil
}

func (s *TaskService) Comment(ctx context.Context, userID uuid.UUID, slug string, projectID, taskID uuid.UUID, input CommentInput) (*model.Task, error) {
	_, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.TaskComment)
	if err != nil {
		return nil, err
	}
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, domain.Invalid("body", "is required")
	}

	return s.tasks.AppendComment(ctx, project.ID, taskID, model.Comment{
		ID:        uuid.NewString(),
		AuthorID:  userID.String(),
		Body:      body,
		CreatedAt: s.Now().UTC(),
	})
}
