// internal/repository/authz_audit_log.go
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthzAuditLogRepositoryIface interface {
	Create(ctx context.Context, log *model.AuthzAuditLog) error
	Query(ctx context.Context, params QueryParams) ([]model.AuthzAuditLog, int64, error)
}

// AuthzAuditLogRepository handles database operations for authorization audit logs
type AuthzAuditLogRepository struct {
	db *gorm.DB
}

// NewAuthzAuditLogRepository creates a new AuthzAuditLogRepository
func NewAuthzAuditLogRepository(db *gorm.DB) *AuthzAuditLogRepository {
	return &AuthzAuditLogRepository{
		db: db,
	}
}

// Create inserts a new audit log entry
func (r *AuthzAuditLogRepository) Create(ctx context.Context, log *model.AuthzAuditLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}

	result := r.db.WithContext(ctx).Create(log)
	if result.Error != nil {
		return fmt.Errorf("failed to create authorization audit log: %w", result.Error)
	}

	return nil
}

// QueryParams holds parameters for querying audit logs
type QueryParams struct {
	OrganizationID uuid.UUID
	UserID         *uuid.UUID
	Operation      string
	Allowed        *bool
	StartTime      time.Time
	EndTime        time.Time
	Limit          int
	Offset         int
}

// EffectiveLimit is the page size Query uses for a requested limit.
func EffectiveLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}

// Query retrieves one organization's audit logs, newest first
func (r *AuthzAuditLogRepository) Query(ctx context.Context, params QueryParams) ([]model.AuthzAuditLog, int64, error) {
	var logs []model.AuthzAuditLog
	var count int64

	query := r.db.WithContext(ctx).Model(&model.AuthzAuditLog{}).
		Where("organization_id = ?", params.OrganizationID)

	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Operation != "" {
		query = query.Where("operation = ?", params.Operation)
	}
	if params.Allowed != nil {
		query = query.Where("allowed = ?", *params.Allowed)
	}
	if !params.StartTime.IsZero() {
		query = query.Where("timestamp >= ?", params.StartTime)
	}
	if !params.EndTime.IsZero() {
		query = query.Where("timestamp <= ?", params.EndTime)
	}

	// Get total count for pagination
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count authorization audit logs: %w", err)
	}

	query = query.Limit(EffectiveLimit(params.Limit))
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}

	result := query.Order("timestamp DESC").Find(&logs)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to query authorization audit logs: %w", result.Error)
	}

	return logs, count, nil
}
