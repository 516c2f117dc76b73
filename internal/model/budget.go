// internal/model/budget.go
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ProjectBudget struct {
	Base
	ProjectID       uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_budget_category" json:"projectId"`
	Category        string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_budget_category" json:"category"`
	AllocatedAmount float64    `gorm:"type:decimal(14,2);not null;default:0" json:"allocatedAmount"`
	SpentAmount     float64    `gorm:"type:decimal(14,2);not null;default:0" json:"spentAmount"`
	ApprovedAmount  float64    `gorm:"type:decimal(14,2);not null;default:0" json:"approvedAmount"`
	Description     string     `gorm:"type:text" json:"description,omitempty"`
	ApprovedByID    *uuid.UUID `gorm:"type:char(36)" json:"approvedById,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`

	Expenses []Expense `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"expenses,omitempty"`
}

// Remaining is the allocation not yet spent.
func (b *ProjectBudget) Remaining() float64 {
	return b.AllocatedAmount - b.SpentAmount
}

type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "PENDING"
	ExpenseApproved ExpenseStatus = "APPROVED"
	ExpenseRejected ExpenseStatus = "REJECTED"
)

// ExpenseTimeLayout renders reportedAt in the form used by expense references.
const ExpenseTimeLayout = "2006-01-02T15:04:05.000Z"

type Expense struct {
	Base
	BudgetID     uuid.UUID     `gorm:"type:char(36);not null;index" json:"budgetId"`
	ProjectID    uuid.UUID     `gorm:"type:char(36);not null;index" json:"projectId"`
	Reference    string        `gorm:"type:varchar(80);uniqueIndex;not null" json:"reference"`
	Amount       float64       `gorm:"type:decimal(14,2);not null" json:"amount"`
	Description  string        `gorm:"type:text;not null" json:"description"`
	ExpenseDate  *time.Time    `json:"expenseDate,omitempty"`
	ReportedByID uuid.UUID     `gorm:"type:char(36);not null" json:"reportedById"`
	ReportedAt   time.Time     `gorm:"not null" json:"reportedAt"`
	Status       ExpenseStatus `gorm:"type:varchar(16);not null;default:PENDING;index" json:"status"`
	ApprovedByID *uuid.UUID    `gorm:"type:char(36)" json:"approvedById,omitempty"`
	ApprovedAt   *time.Time    `json:"approvedAt,omitempty"`
	Note         string        `gorm:"type:text" json:"note,omitempty"`
}

// ExpenseReference builds the composite reference clients have always used
// to address an expense: the budget id and the UTC report time to the millisecond.
func ExpenseReference(budgetID uuid.UUID, reportedAt time.Time) string {
	return fmt.Sprintf("%s_%s", budgetID, reportedAt.UTC().Format(ExpenseTimeLayout))
}
