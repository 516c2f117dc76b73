// internal/repository/project.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepositoryIface interface {
	Create(ctx context.Context, project *model.Project) error
	FindInOrg(ctx context.Context, orgID, projectID uuid.UUID) (*model.Project, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID, status model.ProjectStatus) ([]model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, orgID, projectID uuid.UUID) error
}

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	return nil
}

// FindInOrg returns the project only if it belongs to orgID.
func (r *ProjectRepository) FindInOrg(ctx context.Context, orgID, projectID uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, projectID).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("finding project: %w", err)
	}
	return &project, nil
}

func (r *ProjectRepository) ListByOrg(ctx context.Context, orgID uuid.UUID, status model.ProjectStatus) ([]model.Project, error) {
	var projects []model.Project
	query := r.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *model.Project) error {
	if err := r.db.WithContext(ctx).Save(project).Error; err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	return nil
}

// Delete removes the project; phases, tasks, budgets, expenses and reports
// go with it through ON DELETE CASCADE.
func (r *ProjectRepository) Delete(ctx context.Context, orgID, projectID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, projectID).
		Delete(&model.Project{})
	if result.Error != nil {
		return fmt.Errorf("deleting project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}
