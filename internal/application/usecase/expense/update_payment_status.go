package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/domain/entity"
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
	"github.com/expense-ledger/backend/internal/domain/ledger"
)

// UpdatePaymentStatusInput represents the input for a single status change.
// A nil Status toggles between pending and paid.
type UpdatePaymentStatusInput struct {
	ExpenseID string
	Status    *entity.PaymentStatus
}

// UpdatePaymentStatusOutput represents the output of a status change.
type UpdatePaymentStatusOutput struct {
	ExpenseID string
	Previous  entity.PaymentStatus
	Status    entity.PaymentStatus
}

// UpdatePaymentStatusUseCase handles payment-status changes on one expense.
type UpdatePaymentStatusUseCase struct {
	expenseRepo adapter.ExpenseRepository
	source      adapter.SnapshotSource
}

// NewUpdatePaymentStatusUseCase creates a new UpdatePaymentStatusUseCase instance.
func NewUpdatePaymentStatusUseCase(expenseRepo adapter.ExpenseRepository, source adapter.SnapshotSource) *UpdatePaymentStatusUseCase {
	return &UpdatePaymentStatusUseCase{
		expenseRepo: expenseRepo,
		source:      source,
	}
}

// Execute performs the status change. Sub-entries are not touched.
func (uc *UpdatePaymentStatusUseCase) Execute(ctx context.Context, input UpdatePaymentStatusInput) (*UpdatePaymentStatusOutput, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, domainerror.NewExpenseError(
			domainerror.ErrCodeInvalidPaymentStatus,
			"payment status must be pending or paid",
			domainerror.ErrInvalidPaymentStatus,
		)
	}

	raw, err := uc.expenseRepo.FindByID(ctx, input.ExpenseID)
	if err != nil {
		if errors.Is(err, domainerror.ErrExpenseNotFound) {
			return nil, domainerror.NewExpenseError(
				domainerror.ErrCodeExpenseNotFound,
				"expense not found",
				domainerror.ErrExpenseNotFound,
			)
		}
		return nil, fmt.Errorf("failed to find expense: %w", err)
	}

	current, _ := ledger.Normalize(*raw)
	next := current.PaymentStatus.Toggle()
	if input.Status != nil {
		next = *input.Status
	}

	if err := uc.expenseRepo.UpdatePaymentStatus(ctx, current.ID, next); err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	slog.Info("Payment status updated",
		"expense_id", current.ID,
		"from", current.PaymentStatus,
		"to", next,
	)
	uc.source.Refresh()

	return &UpdatePaymentStatusOutput{
		ExpenseID: current.ID,
		Previous:  current.PaymentStatus,
		Status:    next,
	}, nil
}
