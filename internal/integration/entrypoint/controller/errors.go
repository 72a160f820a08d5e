package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerror "github.com/expense-ledger/backend/internal/domain/error"
	"github.com/expense-ledger/backend/internal/integration/entrypoint/dto"
)

// handleError writes the HTTP response for a use case error.
func handleError(ctx *gin.Context, err error) {
	var expErr *domainerror.ExpenseError
	if errors.As(err, &expErr) {
		ctx.JSON(statusForExpenseError(expErr.Code), dto.ErrorResponse{
			Error: expErr.Message,
			Code:  string(expErr.Code),
		})
		return
	}

	var ledgerErr *domainerror.LedgerError
	if errors.As(err, &ledgerErr) {
		ctx.JSON(statusForLedgerError(ledgerErr.Code), dto.ErrorResponse{
			Error: ledgerErr.Message,
			Code:  string(ledgerErr.Code),
		})
		return
	}

	slog.Error("Unhandled request error", "path", ctx.FullPath(), "error", err)
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}

// statusForExpenseError maps expense error codes to HTTP status codes.
func statusForExpenseError(code domainerror.ExpenseErrorCode) int {
	switch code {
	case domainerror.ErrCodeExpenseNotFound,
		domainerror.ErrCodeParentNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeParentNotRoot:
		return http.StatusConflict
	case domainerror.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case domainerror.ErrCodeInvalidCategory,
		domainerror.ErrCodeInvalidPaymentStatus,
		domainerror.ErrCodeNegativeAmount,
		domainerror.ErrCodeInvalidDate,
		domainerror.ErrCodeMissingFields,
		domainerror.ErrCodeEmptyExpenseIDs,
		domainerror.ErrCodeInvalidBulkOperation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// statusForLedgerError maps ledger error codes to HTTP status codes.
func statusForLedgerError(code domainerror.LedgerErrorCode) int {
	switch code {
	case domainerror.ErrCodeNoPublishedView,
		domainerror.ErrCodeSubscriptionUnavailable:
		return http.StatusServiceUnavailable
	case domainerror.ErrCodePaginationModeMismatch:
		return http.StatusConflict
	case domainerror.ErrCodeInvalidPage,
		domainerror.ErrCodeInvalidCursor,
		domainerror.ErrCodeInvalidFilter:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
