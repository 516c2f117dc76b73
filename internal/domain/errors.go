// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// General errors
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrBusinessRule is matched by every RuleViolation.
	ErrBusinessRule = errors.New("business rule violation")

	// Lookup errors. Each one is also ErrNotFound.
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrOrganizationNotFound = fmt.Errorf("organization %w", ErrNotFound)
	ErrProjectNotFound      = fmt.Errorf("project %w", ErrNotFound)
	ErrPhaseNotFound        = fmt.Errorf("phase %w", ErrNotFound)
	ErrTaskNotFound         = fmt.Errorf("task %w", ErrNotFound)
	ErrMemberNotFound       = fmt.Errorf("member %w", ErrNotFound)
	ErrBudgetNotFound       = fmt.Errorf("budget %w", ErrNotFound)
	ErrExpenseNotFound      = fmt.Errorf("expense %w", ErrNotFound)
	ErrReportNotFound       = fmt.Errorf("report %w", ErrNotFound)

	// Expense ledger
	ErrExpenseAlreadyProcessed = errors.New("expense already processed")
)

// Business rules. Each one is also ErrBusinessRule.
var (
	ErrLastAdmin             = NewRuleViolation("organization must keep at least one ORG_ADMIN")
	ErrAlreadyMember         = NewRuleViolation("user is already a member of this organization")
	ErrSlugTaken             = NewRuleViolation("organization slug is already taken")
	ErrDuplicateCategory     = NewRuleViolation("a budget for this category already exists in the project")
	ErrAllocatedBelowSpent   = NewRuleViolation("allocated amount cannot be less than the spent amount")
	ErrBudgetHasSpend        = NewRuleViolation("cannot delete a budget with recorded spending")
	ErrApprovedOverAllocated = NewRuleViolation("approved amount cannot exceed the allocated amount")
	ErrNestedSubtask         = NewRuleViolation("subtasks cannot have subtasks")
	ErrReportNotSubmitted    = NewRuleViolation("only submitted reports can be approved or rejected")
	ErrReportNotDraft        = NewRuleViolation("only draft reports can be submitted")
)

// RuleViolation is a domain rule the request broke. Its message is safe to
// show to the caller.
type RuleViolation struct {
	msg string
}

func NewRuleViolation(msg string) *RuleViolation {
	return &RuleViolation{msg: msg}
}

func (e *RuleViolation) Error() string { return e.msg }

func (e *RuleViolation) Is(target error) bool {
	return target == ErrBusinessRule
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field-level problems with a request body.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Details renders the fields as "field: message" strings.
func (e *ValidationError) Details() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Field+": "+f.Message)
	}
	return out
}

// Invalid builds a single-field ValidationError.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}
