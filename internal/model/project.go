// internal/model/project.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Methodology string

const (
	MethodologyAgile     Methodology = "AGILE"
	MethodologyScrum     Methodology = "SCRUM"
	MethodologyKanban    Methodology = "KANBAN"
	MethodologyWaterfall Methodology = "WATERFALL"
	MethodologyHybrid    Methodology = "HYBRID"
)

type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "PLANNING"
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectOnHold    ProjectStatus = "ON_HOLD"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectCancelled ProjectStatus = "CANCELLED"
)

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

type Project struct {
	Base
	OrganizationID uuid.UUID         `gorm:"type:char(36);not null;index" json:"organizationId"`
	Name           string            `gorm:"type:varchar(255);not null" json:"name"`
	Description    string            `gorm:"type:text" json:"description"`
	Methodology    Methodology       `gorm:"type:varchar(32);not null;default:AGILE" json:"methodology"`
	Status         ProjectStatus     `gorm:"type:varchar(32);not null;default:PLANNING" json:"status"`
	Priority       Priority          `gorm:"type:varchar(32);not null;default:MEDIUM" json:"priority"`
	TotalBudget    *float64          `gorm:"type:decimal(14,2)" json:"totalBudget,omitempty"`
	Currency       string            `gorm:"type:varchar(3)" json:"currency,omitempty"`
	StartDate      *time.Time        `json:"startDate,omitempty"`
	EndDate        *time.Time        `json:"endDate,omitempty"`
	Metadata       datatypes.JSONMap `json:"metadata,omitempty"`
	Settings       datatypes.JSONMap `json:"settings,omitempty"`
	CreatedByID    uuid.UUID         `gorm:"type:char(36);not null" json:"createdById"`

	Phases  []ProjectPhase   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Tasks   []Task           `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Budgets []ProjectBudget  `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Reports []ProgressReport `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

type PhaseStatus string

const (
	PhaseNotStarted PhaseStatus = "NOT_STARTED"
	PhaseInProgress PhaseStatus = "IN_PROGRESS"
	PhaseCompleted  PhaseStatus = "COMPLETED"
)

type ProjectPhase struct {
	Base
	ProjectID   uuid.UUID   `gorm:"type:char(36);not null;index" json:"projectId"`
	Name        string      `gorm:"type:varchar(255);not null" json:"name"`
	Description string      `gorm:"type:text" json:"description,omitempty"`
	Order       int         `gorm:"column:sort_order;not null;default:0" json:"order"`
	Status      PhaseStatus `gorm:"type:varchar(32);not null;default:NOT_STARTED" json:"status"`
	StartDate   *time.Time  `json:"startDate,omitempty"`
	EndDate     *time.Time  `json:"endDate,omitempty"`

	Tasks []Task `gorm:"foreignKey:PhaseID;constraint:OnDelete:SET NULL" json:"-"`
}
