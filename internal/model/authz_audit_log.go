// internal/model/authz_audit_log.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuthzAuditLog records one authorization decision.
type AuthzAuditLog struct {
	ID             uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	Timestamp      time.Time         `json:"timestamp" gorm:"index"`
	OrganizationID uuid.UUID         `json:"organizationId" gorm:"type:char(36);index"`
	UserID         uuid.UUID         `json:"userId" gorm:"type:char(36);index"`
	Role           Role              `json:"role" gorm:"type:varchar(32)"`
	Operation      string            `json:"operation" gorm:"type:varchar(64);index"`
	ResourceType   string            `json:"resourceType" gorm:"type:varchar(64)"`
	ResourceID     string            `json:"resourceId" gorm:"type:varchar(128)"`
	Allowed        bool              `json:"allowed"`
	Context        datatypes.JSONMap `json:"context,omitempty"`
	RequestID      string            `json:"requestId" gorm:"type:varchar(128)"`
	ClientIP       string            `json:"clientIp" gorm:"type:varchar(64)"`
	UserAgent      string            `json:"userAgent" gorm:"type:varchar(512)"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// TableName specifies the table name for AuthzAuditLog
func (AuthzAuditLog) TableName() string {
	return "authz_audit_logs"
}

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&Organization{},
		&OrganizationMember{},
		&Project{},
		&ProjectPhase{},
		&Task{},
		&ProjectBudget{},
		&Expense{},
		&ProgressReport{},
		&AuthzAuditLog{},
	}
}
