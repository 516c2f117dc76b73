// internal/model/task.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskInReview   TaskStatus = "IN_REVIEW"
	TaskDone       TaskStatus = "DONE"
	TaskBlocked    TaskStatus = "BLOCKED"
)

type Task struct {
	Base
	ProjectID      uuid.UUID         `gorm:"type:char(36);not null;index" json:"projectId"`
	PhaseID        *uuid.UUID        `gorm:"type:char(36);index" json:"phaseId,omitempty"`
	ParentID       *uuid.UUID        `gorm:"type:char(36);index" json:"parentId,omitempty"`
	Title          string            `gorm:"type:varchar(255);not null" json:"title"`
	Description    string            `gorm:"type:text" json:"description,omitempty"`
	Status         TaskStatus        `gorm:"type:varchar(32);not null;default:TODO;index" json:"status"`
	Priority       Priority          `gorm:"type:varchar(32);not null;default:MEDIUM" json:"priority"`
	CreatedByID    uuid.UUID         `gorm:"type:char(36);not null" json:"createdById"`
	AssigneeID     *uuid.UUID        `gorm:"type:char(36);index" json:"assigneeId,omitempty"`
	EstimatedHours float64           `gorm:"type:decimal(10,2);not null;default:0" json:"estimatedHours"`
	ActualHours    float64           `gorm:"type:decimal(10,2);not null;default:0" json:"actualHours"`
	DueDate        *time.Time        `json:"dueDate,omitempty"`
	Metadata       datatypes.JSONMap `json:"metadata,omitempty"`

	Subtasks []Task `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"subtasks,omitempty"`
}

// IsOwnedBy reports whether the user created or is assigned the task.
func (t *Task) IsOwnedBy(userID uuid.UUID) bool {
	if t.CreatedByID == userID {
		return true
	}
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// Comment is one entry of a task's metadata.comments list.
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
