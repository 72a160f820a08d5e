// Package error defines domain-specific errors for the expense ledger.
package error

import "errors"

// Expense domain errors.
var (
	// ErrExpenseNotFound is returned when an expense is not found in the store.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrInvalidCategory is returned when a create request carries an unknown category.
	ErrInvalidCategory = errors.New("invalid expense category")

	// ErrInvalidPaymentStatus is returned when a status is not pending or paid.
	ErrInvalidPaymentStatus = errors.New("invalid payment status")

	// ErrNegativeAmount is returned when an amount is below zero.
	ErrNegativeAmount = errors.New("amount cannot be negative")

	// ErrParentNotFound is returned when a new sub-entry references a missing parent.
	ErrParentNotFound = errors.New("parent expense not found")

	// ErrParentNotRoot is returned when a new sub-entry references another sub-entry.
	ErrParentNotRoot = errors.New("parent expense is itself a sub-entry")

	// ErrEmptyExpenseIDs is returned when a bulk operation receives no IDs.
	ErrEmptyExpenseIDs = errors.New("expense IDs list cannot be empty")

	// ErrInvalidBulkOperation is returned for an unknown bulk operation.
	ErrInvalidBulkOperation = errors.New("invalid bulk operation")

	// ErrBulkCancelled is recorded for IDs never started because the batch was cancelled.
	ErrBulkCancelled = errors.New("bulk operation cancelled before this expense was processed")
)

// ExpenseErrorCode defines error codes for expense errors.
// Format: EXP-XXYYYY where XX is category and YYYY is specific error.
type ExpenseErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeInvalidCategory      ExpenseErrorCode = "EXP-010001"
	ErrCodeInvalidPaymentStatus ExpenseErrorCode = "EXP-010002"
	ErrCodeNegativeAmount       ExpenseErrorCode = "EXP-010003"
	ErrCodeInvalidDate          ExpenseErrorCode = "EXP-010004"
	ErrCodeMissingFields        ExpenseErrorCode = "EXP-010005"
	ErrCodeEmptyExpenseIDs      ExpenseErrorCode = "EXP-010006"
	ErrCodeInvalidBulkOperation ExpenseErrorCode = "EXP-010007"

	// Lookup errors (02XXXX)
	ErrCodeExpenseNotFound ExpenseErrorCode = "EXP-020001"
	ErrCodeParentNotFound  ExpenseErrorCode = "EXP-020002"
	ErrCodeParentNotRoot   ExpenseErrorCode = "EXP-020003"

	// Throttling (03XXXX)
	ErrCodeRateLimited ExpenseErrorCode = "EXP-030001"
)

// ExpenseError represents an expense error with code and message.
type ExpenseError struct {
	Code    ExpenseErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ExpenseError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ExpenseError) Unwrap() error {
	return e.Err
}

// NewExpenseError creates a new ExpenseError with the given code and message.
func NewExpenseError(code ExpenseErrorCode, message string, err error) *ExpenseError {
	return &ExpenseError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
