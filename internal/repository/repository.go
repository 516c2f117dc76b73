// internal/repository/repository.go
package repository

import (
	"errors"

	"github.com/dangerclosesec/agiletrack/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate locks the selected rows until the surrounding transaction ends.
// Dialects without row locks (sqlite) ignore it.
var forUpdate = clause.Locking{Strength: "UPDATE"}

// notFound maps gorm's missing-row error to the given domain error.
func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}

// isDomain reports whether err is already one of ours and can be returned
// from a transaction unwrapped.
func isDomain(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrBusinessRule) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrExpenseAlreadyProcessed)
}
