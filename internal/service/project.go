// internal/service/project.go
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

type ProjectService struct {
	access   *AccessService
	projects repository.ProjectRepositoryIface
	phases   repository.PhaseRepositoryIface
	metrics  MetricsInvalidator
	logger   *slog.Logger
	validate *validator.Validate
}

func NewProjectService(
	access *AccessService,
	projects repository.ProjectRepositoryIface,
	phases repository.PhaseRepositoryIface,
	metrics MetricsInvalidator,
	logger *slog.Logger,
) *ProjectService {
	return &ProjectService{
		access:   access,
		projects: projects,
		phases:   phases,
		metrics:  metrics,
		logger:   logger,
		validate: newValidator(),
	}
}

type CreateProjectInput struct {
	Name        string              `json:"name" validate:"required,max=255"`
	Description string              `json:"description"`
	Methodology model.Methodology   `json:"methodology" validate:"omitempty,oneof=AGILE SCRUM KANBAN WATERFALL HYBRID"`
	Status      model.ProjectStatus `json:"status" validate:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED CANCELLED"`
	Priority    model.Priority      `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	TotalBudget *float64            `json:"totalBudget" validate:"omitempty,gte=0"`
	Currency    string              `json:"currency" validate:"omitempty,len=3"`
	StartDate   *time.Time          `json:"startDate"`
	EndDate     *time.Time          `json:"endDate"`
	Metadata    map[string]any      `json:"metadata"`
	Settings    map[string]any      `json:"settings"`
}

type UpdateProjectInput struct {
	Name        *string              `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string              `json:"description"`
	Methodology *model.Methodology   `json:"methodology" validate:"omitempty,oneof=AGILE SCRUM KANBAN WATERFALL HYBRID"`
	Status      *model.ProjectStatus `json:"status" validate:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED CANCELLED"`
	Priority    *model.Priority      `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	TotalBudget *float64             `json:"totalBudget" validate:"omitempty,gte=0"`
	Currency    *string              `json:"currency" validate:"omitempty,len=3"`
	StartDate   *time.Time           `json:"startDate"`
	EndDate     *time.Time           `json:"endDate"`
	Metadata    map[string]any       `json:"metadata"`
	Settings    map[string]any       `json:"settings"`
}

// projectIn resolves the caller's access for op and the project inside
// their organization.
func projectIn(ctx context.Context, access *AccessService, projects repository.ProjectRepositoryIface, userID uuid.UUID, slug string, projectID uuid.UUID, op authz.Operation) (*Access, *model.Project, error) {
	a, err := access.Require(ctx, userID, slug, op)
	if err != nil {
		return nil, nil, err
	}
	project, err := projects.FindInOrg(ctx, a.Organization.ID, projectID)
	if err != nil {
		return nil, nil, err
	}
	return a, project, nil
}

func checkDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return domain.Invalid("endDate", "must not be before startDate")
	}
	return nil
}

func (s *ProjectService) Create(ctx context.Context, userID uuid.UUID, slug string, input CreateProjectInput) (*model.Project, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.ProjectCreate)
	if err != nil {
		return nil, err
	}
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}
	if err := checkDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	project := &model.Project{
		OrganizationID: a.Organization.ID,
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		Methodology:    input.Methodology,
		Status:         input.Status,
		Priority:       input.Priority,
		TotalBudget:    input.TotalBudget,
		Currency:       strings.ToUpper(input.Currency),
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		Metadata:       input.Metadata,
		Settings:       input.Settings,
		CreatedByID:    userID,
	}
	if project.Methodology == "" {
		project.Methodology = model.MethodologyAgile
	}
	if project.Status == "" {
		project.Status = model.ProjectPlanning
	}
	if project.Priority == "" {
		project.Priority = model.PriorityMedium
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "project created", "organization", slug, "project_id", project.ID)
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, userID uuid.UUID, slug string, status model.ProjectStatus) ([]model.Project, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.ProjectView)
	if err != nil {
		return nil, err
	}
	return s.projects.ListByOrg(ctx, a.Organization.ID, status)
}

func (s *ProjectService) Get(ctx context.Context, userID uuid.UUID, slug string, projectID uuid.UUID) (*model.Project, error) {
	_, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.ProjectView)
	return project, err
}

func (s *ProjectService) Update(ctx context.Context, userID uuid.UUID, slug string, projectID uuid.UUID, input UpdateProjectInput) (*model.Project, error) {
	_, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.ProjectUpdate)
	if err != nil {
		return nil, err
	}
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}

	if input.Name != nil {
		project.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Methodology != nil {
		project.Methodology = *input.Methodology
	}
	if input.Status != nil {
		project.Status = *input.Status
	}
	if input.Priority != nil {
		project.Priority = *input.Priority
	}
	if input.TotalBudget != nil {
		project.TotalBudget = input.TotalBudget
	}
	if input.Currency != nil {
		project.Currency = strings.ToUpper(*input.Currency)
	}
	if input.StartDate != nil {
		project.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		project.EndDate = input.EndDate
	}
	if input.Metadata != nil {
		project.Metadata = input.Metadata
	}
	if input.Settings != nil {
		project.Settings = input.Settings
	}
	if err := checkDates(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	s.metrics.Invalidate(ctx, project.ID)
	return project, nil
}

// Delete removes the project with everything under it.
func (s *ProjectService) Delete(ctx context.Context, userID uuid.UUID, slug string, projectID uuid.UUID) error {
	a, err := s.access.Require(ctx, userID, slug, authz.ProjectDelete)
	if err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, a.Organization.ID, projectID); err != nil {
		return err
	}
	s.metrics.Invalidate(ctx, projectID)
	s.logger.InfoContext(ctx, "project deleted", "organization", slug, "project_id", projectID, "by", userID)
	return nil
}

type CreatePhaseInput struct {
	Name        string            `json:"name" validate:"required,max=255"`
	Description string            `json:"description"`
	Order       int               `json:"order" validate:"gte=0"`
	Status      model.PhaseStatus `json:"status" validate:"omitempty,oneof=NOT_STARTED IN_PROGRESS COMPLETED"`
	StartDate   *time.Time        `json:"startDate"`
	EndDate     *time.Time        `json:"endDate"`
}

type UpdatePhaseInput struct {
	Name        *string            `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string            `json:"description"`
	Order       *int               `json:"order" validate:"omitempty,gte=1"`
	Status      *model.PhaseStatus `json:"status" validate:"omitempty,oneof=NOT_STARTED IN_PROGRESS COMPLETED"`
	StartDate   *time.Time         `json:"startDate"`
	EndDate     *time.Time         `json:"endDate"`
}

func (s *ProjectService) CreatePhase(ctx context.Context, userID uuid.UUID, slug string, projectID uuid.UUID, input CreatePhaseInput) (*model.ProjectPhase, error) {
	_, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.PhaseManage)
	if err != nil {
		return nil, err
	}
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}
	if err := checkDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	phase := &model.ProjectPhase{
		ProjectID:   project.ID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Order:       input.Order,
		Status:      input.Status,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}
	if phase.Status == "" {
		phase.Status = model.PhaseNotStarted
	}
	if err := s.phases.Create(ctx, phase); err != nil {
		return nil, err
	}
	s.metrics.Invalidate(ctx, project.ID)
	return phase, nil
}

func (s *ProjectService) ListPhases(ctx context.Context, userID uuid.UUID, slug string, projectID uuid.UUID) ([]model.ProjectPhase, error) {
	_, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.ProjectView)
	if err != nil {
		return nil, err
	}
	return s.phases.ListByProject(ctx, project.ID)
}

func (s *ProjectService) UpdatePhase(ctx context.Context, userID uuid.UUID, slug string, projectID, phaseID uuid.UUID, input UpdatePhaseInput) (*model.ProjectPhase, error) {
	_, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.PhaseManage)
	if err != nil {
		return nil, err
	}
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}
	phase, err := s.phases.FindInProject(ctx, project.ID, phaseID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		phase.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		phase.Description = *input.Description
	}
	if input.Order != nil {
		phase.Order = *input.Order
	}
	if input.Status != nil {
		phase.Status = *input.Status
	}
	if input.StartDate != nil {
		phase.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		phase.EndDate = input.EndDate
	}
	if err := checkDates(phase.StartDate, phase.EndDate); err != nil {
		return nil, err
	}

	if err := s.phases.Update(ctx, phase); err != nil {
		return nil, err
	}
	s.metrics.Invalidate(ctx, project.ID)
	return phase, nil
}

func (s *ProjectService) DeletePhase(ctx context.Context, userID uuid.UUID, slug string, projectID, phaseID uuid.UUID) error {
	_, project, err := projectIn(ctx, s.access, s.projects, userID, slug, projectID, authz.PhaseManage)
	if err != nil {
		return err
	}
	if err := s.phases.Delete(ctx, project.ID, phaseID); err != nil {
		return err
	}
	s.metrics.Invalidate(ctx, project.ID)
	return nil
}
