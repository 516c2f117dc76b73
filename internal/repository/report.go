// internal/repository/report.go
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

type ReportRepositoryIface interface {
	Create(ctx context.Context, report *model.ProgressReport) error
	FindInProject(ctx context.Context, projectID, reportID uuid.UUID) (*model.ProgressReport, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, status model.ReportStatus) ([]model.ProgressReport, error)
	Transition(ctx context.Context, reportID uuid.UUID, from model.ReportStatus, updates map[string]any) error
}

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, report *model.ProgressReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("creating progress report: %w", err)
	}
	return nil
}

func (r *ReportRepository) FindInProject(ctx context.Context, projectID, reportID uuid.UUID) (*model.ProgressReport, error) {
	var report model.ProgressReport
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID, reportID).
		First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("finding progress report: %w", err)
	}
	return &report, nil
}

func (r *ReportRepository) ListByProject(ctx context.Context, projectID uuid.UUID, status model.ReportStatus) ([]model.ProgressReport, error) {
	var reports []model.ProgressReport
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("listing progress reports: %w", err)
	}
	return reports, nil
}

// Transition applies updates only while the report is still in status from.
// A report that already left from fails with the matching rule violation.
func (r *ReportRepository) Transition(ctx context.Context, reportID uuid.UUID, from model.ReportStatus, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&model.ProgressReport{}).
		Where("id = ? AND status = ?", reportID, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("updating progress report: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if from == model.ReportDraft {
			return domain.ErrReportNotDraft
		}
		return domain.ErrReportNotSubmitted
	}
	return nil
}
