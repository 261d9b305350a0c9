package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateReadError maps gorm's not-found error to shared.ErrNotFound
func translateReadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// translateWriteError maps unique constraint violations to shared.ErrAlreadyExists,
// keeping the driver message for diagnostics
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", shared.ErrAlreadyExists, err.Error())
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Drivers opened without TranslateError still report the violation in the message.
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
