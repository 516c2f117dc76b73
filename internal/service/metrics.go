// internal/service/metrics.go
package service

import (
	"context"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/authz"
	"github.com/dangerclosesec/agiletrack/internal/metrics"
	"github.com/dangerclosesec/agiletrack/internal/repository"
	"github.com/google/uuid"
)

// MetricsInvalidator drops cached metrics of a project after it changes.
type MetricsInvalidator interface {
	Invalidate(ctx context.Context, projectID uuid.UUID)
}

type MetricsService struct {
	access   *AccessService
	projects repository.ProjectRepositoryIface
	tasks    repository.TaskRepositoryIface
	budgets  repository.BudgetRepositoryIface
	phases   repository.PhaseRepositoryIface
	cache    *CacheService

	Now func() time.Time
}

func NewMetricsService(
	access *AccessService,
	projects repository.ProjectRepositoryIface,
	tasks repository.TaskRepositoryIface,
	budgets repository.BudgetRepositoryIface,
	phases repository.PhaseRepositoryIface,
	cache *CacheService,
) *MetricsService {
	return &MetricsService{
		access:   access,
		projects: projects,
		tasks:    tasks,
		budgets:  budgets,
		phases:   phases,
		cache:    cache,
		Now:      time.Now,
	}
}

func metricsKey(projectID uuid.UUID) string {
	return "metrics:project:" + projectID.String()
}

// cachedReport carries the time after which an unfinished task turns overdue
// and the cached counts no longer hold.
type cachedReport struct {
	Report     metrics.Report `json:"report"`
	StaleAfter *time.Time     `json:"staleAfter,omitempty"`
}

// Project returns the metrics report of one project, from cache when fresh.
func (s *MetricsService) Project(ctx context.Context, userID uuid.UUID, slug string, projectID uuid.UUID) (*metrics.Report, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.MetricsView)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.FindInOrg(ctx, a.Organization.ID, projectID); err != nil {
		return nil, err
	}

	load := func() (*cachedReport, error) {
		var cached cachedReport
		err := s.cache.GetOrSet(ctx, metricsKey(projectID), &cached, func() (any, error) {
			return s.compute(ctx, a.Organization.ID, projectID)
		})
		return &cached, err
	}

	cached, err := load()
	if err != nil {
		return nil, err
	}
	if cached.StaleAfter != nil && s.Now().After(*cached.StaleAfter) {
		s.Invalidate(ctx, projectID)
		if cached, err = load(); err != nil {
			return nil, err
		}
	}
	return &cached.Report, nil
}

func (s *MetricsService) compute(ctx context.Context, orgID, projectID uuid.UUID) (*cachedReport, error) {
	project, err := s.projects.FindInOrg(ctx, orgID, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx, projectID, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}
	budgets, err := s.budgets.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	phases, err := s.phases.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	report := metrics.Compute(metrics.Input{
		Project: project,
		Tasks:   tasks,
		Budgets: budgets,
		Phases:  phases,
	}, now)
	return &cachedReport{Report: report, StaleAfter: metrics.NextDeadline(tasks, now)}, nil
}

func (s *MetricsService) Invalidate(ctx context.Context, projectID uuid.UUID) {
	s.cache.Delete(ctx, metricsKey(projectID))
}
