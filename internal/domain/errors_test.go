package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRuleViolationMatchesBusinessRule(t *testing.T) {
	wrapped := fmt.Errorf("deleting budget: %w", domain.ErrBudgetHasSpend)

	assert.ErrorIs(t, wrapped, domain.ErrBudgetHasSpend)
	assert.ErrorIs(t, wrapped, domain.ErrBusinessRule)
	assert.NotErrorIs(t, wrapped, domain.ErrLastAdmin)

	var rv *domain.RuleViolation
	assert.True(t, errors.As(wrapped, &rv))
	assert.Equal(t, "cannot delete a budget with recorded spending", rv.Error())
}

func TestValidationErrorIsInvalidInput(t *testing.T) {
	err := &domain.ValidationError{Fields: []domain.FieldError{
		{Field: "category", Message: "is required"},
		{Field: "allocatedAmount", Message: "must be greater than 0"},
	}}

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, []string{"category: is required", "allocatedAmount: must be greater than 0"}, err.Details())
	assert.Contains(t, err.Error(), "allocatedAmount")
}

func TestLookupErrorsAreNotFound(t *testing.T) {
	for _, err := range []error{
		domain.ErrUserNotFound,
		domain.ErrOrganizationNotFound,
		domain.ErrProjectNotFound,
		domain.ErrBudgetNotFound,
		domain.ErrExpenseNotFound,
	} {
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, "organization not found", domain.ErrOrganizationNotFound.Error())
}
