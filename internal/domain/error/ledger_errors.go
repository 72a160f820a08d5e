package error

import "errors"

// Ledger reconciliation and view errors.
var (
	// ErrSubscriptionUnavailable is returned when the backing-store subscription
	// cannot be established. The ledger keeps serving its last known view.
	ErrSubscriptionUnavailable = errors.New("backing store subscription unavailable")

	// ErrNoPublishedView is returned when no view has been published or cached yet.
	ErrNoPublishedView = errors.New("ledger view not yet available")

	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("page number must be at least 1")

	// ErrInvalidPageSize is returned for page sizes below 1.
	ErrInvalidPageSize = errors.New("page size must be at least 1")

	// ErrInvalidCursor is returned when a pagination cursor cannot be decoded.
	ErrInvalidCursor = errors.New("invalid pagination cursor")

	// ErrPaginationModeMismatch is returned when a session is used with the other pagination mode.
	ErrPaginationModeMismatch = errors.New("pagination mode does not match session")

	// ErrSessionNotFound is returned when no pager state exists for a session.
	ErrSessionNotFound = errors.New("pagination session not found")
)

// LedgerErrorCode defines error codes for ledger errors.
type LedgerErrorCode string

const (
	ErrCodeSubscriptionUnavailable LedgerErrorCode = "LDG-010001"
	ErrCodeNoPublishedView         LedgerErrorCode = "LDG-010002"
	ErrCodeInvalidPage             LedgerErrorCode = "LDG-020001"
	ErrCodeInvalidCursor           LedgerErrorCode = "LDG-020002"
	ErrCodePaginationModeMismatch  LedgerErrorCode = "LDG-020003"
	ErrCodeInvalidFilter           LedgerErrorCode = "LDG-020004"
)

// LedgerError represents a ledger error with code and message.
type LedgerError struct {
	Code    LedgerErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewLedgerError creates a new LedgerError with the given code and message.
func NewLedgerError(code LedgerErrorCode, message string, err error) *LedgerError {
	return &LedgerError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
