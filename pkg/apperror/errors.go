package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is the stable, client-facing identifier of an error kind.
type Code string

const (
	CodeNotFound               Code = "NOT_FOUND"
	CodeConstraintViolation    Code = "CONSTRAINT_VIOLATION"
	CodeInvalidTransaction     Code = "INVALID_TRANSACTION"
	CodeInsufficientStock      Code = "INSUFFICIENT_STOCK"
	CodeInsufficientAvailable  Code = "INSUFFICIENT_AVAILABLE"
	CodeLocationNotProvisioned Code = "LOCATION_NOT_PROVISIONED"
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"
	CodeValidation             Code = "VALIDATION_ERROR"
	CodeUnauthorized           Code = "UNAUTHORIZED"
	CodeForbidden              Code = "FORBIDDEN"
	CodeInternal               Code = "INTERNAL_ERROR"
)

// StandardError represents a standardized error response
type StandardError struct {
	Code    Code   `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Sentinels for errors.Is. Matching is by Code only.
var (
	ErrNotFound               = &StandardError{Code: CodeNotFound, Message: "resource not found"}
	ErrConstraintViolation    = &StandardError{Code: CodeConstraintViolation, Message: "constraint violation"}
	ErrInvalidTransaction     = &StandardError{Code: CodeInvalidTransaction, Message: "invalid transaction"}
	ErrInsufficientStock      = &StandardError{Code: CodeInsufficientStock, Message: "insufficient stock"}
	ErrInsufficientAvailable  = &StandardError{Code: CodeInsufficientAvailable, Message: "insufficient available quantity"}
	ErrLocationNotProvisioned = &StandardError{Code: CodeLocationNotProvisioned, Message: "location not provisioned"}
	ErrConcurrentModification = &StandardError{Code: CodeConcurrentModification, Message: "concurrent modification, retry"}
	ErrValidation             = &StandardError{Code: CodeValidation, Message: "validation failed"}
)

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// Is reports whether target is a StandardError with the same Code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	return ok && t.Code == e.Code
}

// HTTPStatus returns the appropriate HTTP status code for the error
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTransaction:
		return http.StatusUnprocessableEntity
	case CodeConstraintViolation, CodeInsufficientStock, CodeInsufficientAvailable,
		CodeLocationNotProvisioned, CodeConcurrentModification:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Retryable is true for failures a caller may resolve by resubmitting unchanged.
func (e *StandardError) Retryable() bool {
	return e.Code == CodeConcurrentModification
}

func New(code Code, message, details string) *StandardError {
	return &StandardError{Code: code, Message: message, Details: details}
}

func NotFound(resource string, id interface{}) *StandardError {
	return New(CodeNotFound, resource+" not found", fmt.Sprintf("%s ID: %v", resource, id))
}

func ConstraintViolation(message, details string) *StandardError {
	return New(CodeConstraintViolation, message, details)
}

func InvalidTransaction(message string) *StandardError {
	return New(CodeInvalidTransaction, message, "")
}

func InsufficientStock(onHand, reserved, requested int) *StandardError {
	return New(CodeInsufficientStock, "insufficient stock",
		fmt.Sprintf("On hand: %d, Reserved: %d, Requested: %d", onHand, reserved, requested))
}

func InsufficientAvailable(available, requested int) *StandardError {
	return New(CodeInsufficientAvailable, "insufficient available quantity",
		fmt.Sprintf("Available: %d, Requested: %d", available, requested))
}

func LocationNotProvisioned(productID, locationID interface{}) *StandardError {
	return New(CodeLocationNotProvisioned, "no inventory record for product at location",
		fmt.Sprintf("Product ID: %v, Location ID: %v", productID, locationID))
}

func ConcurrentModification(details string) *StandardError {
	return New(CodeConcurrentModification, "concurrent modification, retry", details)
}

func Validation(message, field string) *StandardError {
	return New(CodeValidation, message, fmt.Sprintf("Field: %s", field))
}

func Forbidden(privileges ...string) *StandardError {
	return New(CodeForbidden, "Forbidden: requires one of "+strings.Join(privileges, ", "), "")
}

func Internal(message string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return New(CodeInternal, message, details)
}

// From extracts the StandardError carried by err, wrapping anything else as internal.
func From(err error) *StandardError {
	if err == nil {
		return nil
	}
	var se *StandardError
	if errors.As(err, &se) {
		return se
	}
	return Internal("internal server error", err)
}
