// internal/model/report.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ReportType string

const (
	ReportWeekly    ReportType = "WEEKLY"
	ReportMonthly   ReportType = "MONTHLY"
	ReportQuarterly ReportType = "QUARTERLY"
	ReportAnnual    ReportType = "ANNUAL"
	ReportMilestone ReportType = "MILESTONE"
)

type ReportStatus string

const (
	ReportDraft     ReportStatus = "DRAFT"
	ReportSubmitted ReportStatus = "SUBMITTED"
	ReportApproved  ReportStatus = "APPROVED"
	ReportRejected  ReportStatus = "REJECTED"
)

type ProgressReport struct {
	Base
	ProjectID   uuid.UUID         `gorm:"type:char(36);not null;index" json:"projectId"`
	ReporterID  uuid.UUID         `gorm:"type:char(36);not null" json:"reporterId"`
	ApproverID  *uuid.UUID        `gorm:"type:char(36)" json:"approverId,omitempty"`
	Type        ReportType        `gorm:"type:varchar(16);not null" json:"type"`
	Status      ReportStatus      `gorm:"type:varchar(16);not null;default:DRAFT" json:"status"`
	Title       string            `gorm:"type:varchar(255);not null" json:"title"`
	PeriodStart *time.Time        `json:"periodStart,omitempty"`
	PeriodEnd   *time.Time        `json:"periodEnd,omitempty"`
	Content     datatypes.JSONMap `json:"content,omitempty"`
	SubmittedAt *time.Time        `json:"submittedAt,omitempty"`
	ReviewedAt  *time.Time        `json:"reviewedAt,omitempty"`
	ReviewNote  string            `gorm:"type:text" json:"reviewNote,omitempty"`
}
