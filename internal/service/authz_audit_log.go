// internal/service/authz_audit_log.go
package service

import (
	"context"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/audit"
	"github.com/dangerclosesec/agiletrack/internal/authz"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Ensure AuthzAuditLogService implements the audit.Logger interface
var _ audit.Logger = (*AuthzAuditLogService)(nil)

// AuthzAuditLogService handles operations related to authorization audit logs
type AuthzAuditLogService struct {
	repo repository.AuthzAuditLogRepositoryIface
}

// NewAuthzAuditLogService creates a new AuthzAuditLogService
func NewAuthzAuditLogService(repo repository.AuthzAuditLogRepositoryIface) *AuthzAuditLogService {
	return &AuthzAuditLogService{
		repo: repo,
	}
}

// LogDecision stores one authorization decision with the request details
// found in ctx
func (s *AuthzAuditLogService) LogDecision(ctx context.Context, d audit.Decision) error {
	info := audit.RequestInfoFrom(ctx)
	log := &model.AuthzAuditLog{
		OrganizationID: d.OrganizationID,
		UserID:         d.UserID,
		Role:           d.Role,
		Operation:      d.Operation,
		ResourceType:   d.ResourceType,
		ResourceID:     d.ResourceID,
		Allowed:        d.Allowed,
		RequestID:      info.RequestID,
		ClientIP:       info.ClientIP,
		UserAgent:      info.UserAgent,
		Timestamp:      time.Now().UTC(),
	}
	if len(d.Context) > 0 {
		log.Context = datatypes.JSONMap(d.Context)
	}

	return s.repo.Create(ctx, log)
}

// AuditLogQuery filters an organization's audit log
type AuditLogQuery struct {
	UserID    *uuid.UUID
	Operation string
	Allowed   *bool
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

type AuditLogPage struct {
	Logs   []model.AuthzAuditLog `json:"logs"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// AuditLogReader lists audit entries for organization admins
type AuditLogReader struct {
	access *AccessService
	repo   repository.AuthzAuditLogRepositoryIface
}

func NewAuditLogReader(access *AccessService, repo repository.AuthzAuditLogRepositoryIface) *AuditLogReader {
	return &AuditLogReader{access: access, repo: repo}
}

func (r *AuditLogReader) Query(ctx context.Context, userID uuid.UUID, slug string, q AuditLogQuery) (*AuditLogPage, error) {
	a, err := r.access.Require(ctx, userID, slug, authz.AuditView)
	if err != nil {
		return nil, err
	}

	params := repository.QueryParams{
		OrganizationID: a.Organization.ID,
		UserID:         q.UserID,
		Operation:      q.Operation,
		Allowed:        q.Allowed,
		StartTime:      q.StartTime,
		EndTime:        q.EndTime,
		Limit:          q.Limit,
		Offset:         q.Offset,
	}
	logs, total, err := r.repo.Query(ctx, params)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []model.AuthzAuditLog{}
	}
	return &AuditLogPage{Logs: logs, Total: total, Limit: repository.EffectiveLimit(q.Limit), Offset: q.Offset}, nil
}
