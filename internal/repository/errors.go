package repository

import (
	"errors"
	"fmt"
	"strings"

	"go-inventory-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// translateError maps driver and gorm errors onto the application error kinds.
func translateError(err error, resource string) error {
	if err == nil {
		return nil
	}

	var se *apperror.StandardError
	if errors.As(err, &se) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.New(apperror.CodeNotFound, resource+" not found", "")
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return apperror.ConstraintViolation(resource+" violates a unique constraint", err.Error())
	case errors.Is(err, gorm.ErrForeignKeyViolated), isForeignKeyViolation(err):
		return apperror.ConstraintViolation(resource+" references a missing or protected record", err.Error())
	case isConflict(err):
		return apperror.ConcurrentModification(err.Error())
	case isValueTooLong(err):
		return apperror.New(apperror.CodeValidation, resource+" has a value longer than its column allows", err.Error())
	}

	return fmt.Errorf("%s: %w", resource, err)
}

// isConflict detects lock timeouts, deadlocks and serialization failures.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isValueTooLong is postgres string_data_right_truncation. sqlite does not
// enforce varchar lengths.
func isValueTooLong(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22001"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// TranslateError is translateError for callers outside the package, such as
// services that see raw commit errors from gorm.DB.Transaction.
func TranslateError(err error, resource string) error {
	return translateError(err, resource)
}
