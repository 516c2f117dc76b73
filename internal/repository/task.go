// internal/repository/task.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TaskRepositoryIface interface {
	Create(ctx context.Context, task *model.Task) error
	FindInProject(ctx context.Context, projectID, taskID uuid.UUID) (*model.Task, error)
	List(ctx context.Context, projectID uuid.UUID, filter TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, projectID, taskID uuid.UUID) error
	AppendComment(ctx context.Context, projectID, taskID uuid.UUID, comment model.Comment) (*model.Task, error)
}

// TaskFilter narrows List. Zero values match everything.
type TaskFilter struct {
	Status     model.TaskStatus
	PhaseID    *uuid.UUID
	AssigneeID *uuid.UUID
	TopLevel   bool
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindInProject(ctx context.Context, projectID, taskID uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).
		Preload("Subtasks").
		Where("project_id = ? AND id = ?", projectID, taskID).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("finding task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context, projectID uuid.UUID, filter TaskFilter) ([]model.Task, error) {
	var tasks []model.Task
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PhaseID != nil {
		query = query.Where("phase_id = ?", *filter.PhaseID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.TopLevel {
		query = query.Where("parent_id IS NULL")
	}
	if err := query.Order("created_at").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Omit("Subtasks").Save(task).Error; err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return nil
}

// Delete removes the task and, through the cascade, its subtasks.
func (r *TaskRepository) Delete(ctx context.Context, projectID, taskID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID, taskID).
		Delete(&model.Task{})
	if result.Error != nil {
		return fmt.Errorf("deleting task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// AppendComment adds comment to metadata.comments with the task row locked.
func (r *TaskRepository) AppendComment(ctx context.Context, projectID, taskID uuid.UUID, comment model.Comment) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate).
			Where("project_id = ? AND id = ?", projectID, taskID).
			First(&task).Error; err != nil {
			return notFound(err, domain.ErrTaskNotFound)
		}

		if task.Metadata == nil {
			task.Metadata = datatypes.JSONMap{}
		}
		comments, _ := task.Metadata["comments"].([]any)
		task.Metadata["comments"] = append(comments, map[string]any{
			"id":        comment.ID,
			"authorId":  comment.AuthorID,
			"body":      comment.Body,
			"createdAt": comment.CreatedAt,
		})

		if err := tx.Model(&task).Update("metadata", task.Metadata).Error; err != nil {
			return fmt.Errorf("saving comment: %w", err)
		}
		return nil
	})

	if err != nil {
		if isDomain(err) {
			return nil, err
		}
		return nil, fmt.Errorf("transaction failed: %w", err)
	}
	return &task, nil
}
