// internal/service/report.go
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

type ReportService struct {
	access   *AccessService
	projects repository.ProjectRepositoryIface
	reports  repository.ReportRepositoryIface
	logger   *slog.Logger
	validate *validator.Validate

	Now func() time.Time
}

func NewReportService(
	access *AccessService,
	projects repository.ProjectRepositoryIface,
	reports repository.ReportRepositoryIface,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		access:   access,
		projects: projects,
		reports:  reports,
		logger:   logger,
		validate: newValidator(),
		Now:      time.Now,
	}
}

type CreateReportInput struct {
	Type        model.ReportType   `json:"type" validate:"required,oneof=WEEKLY MONTHLY QUARTERLY ANNUAL MILESTONE"`
	Title       string             `json:"title" validate:"required,max=255"`
	Status      model.ReportStatus `json:"status" validate:"omitempty,oneof=DRAFT SUBMITTED"`
	PeriodStart *time.Time         `json:"periodStart"`
	PeriodEnd   *time.Time         `json:"periodEnd"`
	Content     map[string]any     `json:"content"`
}

type ReviewReportInput struct {
	Note string `json:"note" validate:"max=2000"`
}

// Create stores a new report as DRAFT, or SUBMITTED when asked to.
func (s *ReportService) Create(ctx context.Context, userID uuid.UUID, slug string, projectID uuid.UUID, input CreateReportInput) (*model.ProgressReport, error) {
	_, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.ReportCreate)
	if err != nil {
		return nil, err
	}
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}
	if input.PeriodStart != nil && input.PeriodEnd != nil && input.PeriodEnd.Before(*input.PeriodStart) {
		return nil, domain.Invalid("periodEnd", "must not be before periodStart")
	}

	report := &model.ProgressReport{
		ProjectID:   project.ID,
		ReporterID:  userID,
		Type:        input.Type,
		Status:      input.Status,
		Title:       strings.TrimSpace(input.Title),
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		Content:     input.Content,
	}
	if report.Status == "" {
		report.Status = model.ReportDraft
	}
	if report.Status == model.ReportSubmitted {
		now := s.Now().UTC()
		report.SubmittedAt = &now
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ReportService) List(ctx context.Context, userID uuid.UUID, slug string, projectID uuid.UUID, status model.ReportStatus) ([]model.ProgressReport, error) {
	_, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.ReportView)
	if err != nil {
		return nil, err
	}
	return s.reports.ListByProject(ctx, project.ID, status)
}

// Submit moves a DRAFT report to SUBMITTED.
func (s *ReportService) Submit(ctx context.Context, userID uuid.UUID, slug string, projectID, reportID uuid.UUID) (*model.ProgressReport, error) {
	_, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.ReportCreate)
	if err != nil {
		return nil, err
	}
	report, err := s.reports.FindInProject(ctx, project.ID, reportID)
	if err != nil {
		return nil, err
	}

	err = s.reports.Transition(ctx, report.ID, model.ReportDraft, map[string]any{
		"status":       model.ReportSubmitted,
		"submitted_at": s.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return s.reports.FindInProject(ctx, project.ID, report.ID)
}

func (s *ReportService) Approve(ctx context.Context, userID uuid.UUID, slug string, projectID, reportID uuid.UUID, input ReviewReportInput) (*model.ProgressReport, error) {
	return s.review(ctx, userID, slug, projectID, reportID, model.ReportApproved, input)
}

func (s *ReportService) Reject(ctx context.Context, userID uuid.UUID, slug string, projectID, reportID uuid.UUID, input ReviewReportInput) (*model.ProgressReport, error) {
	return s.review(ctx, userID, slug, projectID, reportID, model.ReportRejected, input)
}

// review decides a SUBMITTED report.
func (s *ReportService) review(ctx context.Context, userID uuid.UUID, slug string, projectID, reportID uuid.UUID, status model.ReportStatus, input ReviewReportInput) (*model.ProgressReport, error) {
	_, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.ReportApprove)
	if err != nil {
		return nil, err
	}
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}
	report, err := s.reports.FindInProject(ctx, project.ID, reportID)
	if err != nil {
		return nil, err
	}

	err = s.reports.Transition(ctx, report.ID, model.ReportSubmitted, map[string]any{
		"status":      status,
		"approver_id": userID,
		"reviewed_at": s.Now().UTC(),
		"review_note": input.Note,
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "progress report reviewed", "report_id", report.ID, "status", status, "by", userID)
	return s.reports.FindInProject(ctx, project.ID, report.ID)
}
