// internal/repository/phase.go
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

type PhaseRepositoryIface interface {
	Create(ctx context.Context, phase *model.ProjectPhase) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.ProjectPhase, error)
	FindInProject(ctx context.Context, projectID, phaseID uuid.UUID) (*model.ProjectPhase, error)
	Update(ctx context.Context, phase *model.ProjectPhase) error
	Delete(ctx context.Context, projectID, phaseID uuid.UUID) error
}

type PhaseRepository struct {
	db *gorm.DB
}

func NewPhaseRepository(db *gorm.DB) *PhaseRepository {
	return &PhaseRepository{db: db}
}

// Create inserts the phase. A zero Order places it after the last phase.
func (r *PhaseRepository) Create(ctx context.Context, phase *model.ProjectPhase) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if phase.Order == 0 {
			var maxOrder *int
			if err := tx.Model(&model.ProjectPhase{}).
				Where("project_id = ?", phase.ProjectID).
				Select("MAX(sort_order)").
				Scan(&maxOrder).Error; err != nil {
				return fmt.Errorf("finding last phase: %w", err)
			}
			phase.Order = 1
			if maxOrder != nil {
				phase.Order = *maxOrder + 1
			}
		}
		if err := tx.Create(phase).Error; err != nil {
			return fmt.Errorf("creating phase: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *PhaseRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.ProjectPhase, error) {
	var phases []model.ProjectPhase
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("sort_order, created_at").
		Find(&phases).Error; err != nil {
		return nil, fmt.Errorf("listing phases: %w", err)
	}
	return phases, nil
}

func (r *PhaseRepository) FindInProject(ctx context.Context, projectID, phaseID uuid.UUID) (*model.ProjectPhase, error) {
	var phase model.ProjectPhase
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID, phaseID).
		First(&phase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPhaseNotFound
		}
		return nil, fmt.Errorf("finding phase: %w", err)
	}
	return &phase, nil
}

func (r *PhaseRepository) Update(ctx context.Context, phase *model.ProjectPhase) error {
	if err := r.db.WithContext(ctx).Save(phase).Error; err != nil {
		return fmt.Errorf("updating phase: %w", err)
	}
	return nil
}

// Delete removes the phase. Its tasks stay in the project without a phase.
func (r *PhaseRepository) Delete(ctx context.Context, projectID, phaseID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID, phaseID).
		Delete(&model.ProjectPhase{})
	if result.Error != nil {
		return fmt.Errorf("deleting phase: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrPhaseNotFound
	}
	return nil
}
