// internal/service/services.go
package service

import (
	"log/slog"

	"github.com/dangerclosesec/agiletrack/internal/repository"
	"gorm.io/gorm"
)

// Services bundles every service the API exposes over one database.
type Services struct {
	Access        *AccessService
	Organizations *OrganizationService
	Projects      *ProjectService
	Tasks         *TaskService
	Budgets       *BudgetService
	Expenses      *ExpenseService
	Reports       *ReportService
	Metrics       *MetricsService
	AuditLogs     *AuditLogReader
}

// NewServices wires repositories over db into the services. Authorization
// decisions are recorded in the authz_audit_logs table.
func NewServices(db *gorm.DB, cache *CacheService, notifier Notifier, logger *slog.Logger) *Services {
	users := repository.NewUserRepository(db)
	orgs := repository.NewOrganizationRepository(db)
	projects := repository.NewProjectRepository(db)
	phases := repository.NewPhaseRepository(db)
	tasks := repository.NewTaskRepository(db)
	budgets := repository.NewBudgetRepository(db)
	expenses := repository.NewExpenseRepository(db)
	reports := repository.NewReportRepository(db)
	auditLogs := repository.NewAuthzAuditLogRepository(db)

	access := NewAccessService(orgs, NewAuthzAuditLogService(auditLogs), logger)
	metrics := NewMetricsService(access, projects, tasks, budgets, phases, cache)

	return &Services{
		Access:        access,
		Organizations: NewOrganizationService(orgs, users, access, notifier, logger),
		Projects:      NewProjectService(access, projects, phases, metrics, logger),
		Tasks:         NewTaskService(access, orgs, projects, phases, tasks, metrics, logger),
		Budgets:       NewBudgetService(access, projects, budgets, metrics, logger),
		Expenses:      NewExpenseService(access, projects, budgets, expenses, users, metrics, notifier, logger),
		Reports:       NewReportService(access, projects, reports, logger),
		Metrics:       metrics,
		AuditLogs:     NewAuditLogReader(access, auditLogs),
	}
}
