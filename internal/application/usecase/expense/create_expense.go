package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/domain/entity"
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
	"github.com/expense-ledger/backend/internal/domain/ledger"
)

// MaxDescriptionLength is the maximum allowed length for expense descriptions.
const MaxDescriptionLength = 500

// CreateExpenseInput represents the input for expense creation.
type CreateExpenseInput struct {
	Category      string
	Amount        decimal.Decimal
	Date          time.Time
	PaymentStatus string
	ParentID      *string
	BookingID     *string
	DocumentRef   *string
	Description   string
	CategoryLabel string
}

// CreateExpenseOutput represents the output of expense creation.
type CreateExpenseOutput struct {
	Expense entity.Expense
}

// CreateExpenseUseCase handles expense creation. New expenses are written
// already satisfying the category invariants so they need no correction.
type CreateExpenseUseCase struct {
	expenseRepo adapter.ExpenseRepository
	source      adapter.SnapshotSource
	now         func() time.Time
}

// NewCreateExpenseUseCase creates a new CreateExpenseUseCase instance.
func NewCreateExpenseUseCase(expenseRepo adapter.ExpenseRepository, source adapter.SnapshotSource) *CreateExpenseUseCase {
	return &CreateExpenseUseCase{
		expenseRepo: expenseRepo,
		source:      source,
		now:         time.Now,
	}
}

// Execute performs the expense creation.
func (uc *CreateExpenseUseCase) Execute(ctx context.Context, input CreateExpenseInput) (*CreateExpenseOutput, error) {
	category := entity.ExpenseCategory(strings.ToLower(strings.TrimSpace(input.Category)))
	if !category.IsValid() {
		return nil, domainerror.NewExpenseError(
			domainerror.ErrCodeInvalidCategory,
			"category must be one of company, client, invoice",
			domainerror.ErrInvalidCategory,
		)
	}

	if input.Amount.IsNegative() {
		return nil, domainerror.NewExpenseError(
			domainerror.ErrCodeNegativeAmount,
			"amount cannot be negative",
			domainerror.ErrNegativeAmount,
		)
	}

	if input.Date.IsZero() {
		return nil, domainerror.NewExpenseError(
			domainerror.ErrCodeInvalidDate,
			"date is required",
			nil,
		)
	}

	if len(input.Description) > MaxDescriptionLength {
		return nil, domainerror.NewExpenseError(
			domainerror.ErrCodeMissingFields,
			fmt.Sprintf("description must not exceed %d characters", MaxDescriptionLength),
			nil,
		)
	}

	status := entity.PaymentStatusPending
	if input.PaymentStatus != "" {
		status = entity.PaymentStatus(input.PaymentStatus)
		if !status.IsValid() {
			return nil, domainerror.NewExpenseError(
				domainerror.ErrCodeInvalidPaymentStatus,
				"payment status must be pending or paid",
				domainerror.ErrInvalidPaymentStatus,
			)
		}
	}

	expense := &entity.Expense{
		ID:            uuid.NewString(),
		Category:      category,
		Amount:        input.Amount,
		Date:          input.Date,
		CreatedAt:     uc.now().UTC(),
		PaymentStatus: status,
		ParentID:      nonBlank(input.ParentID),
		BookingID:     nonBlank(input.BookingID),
		DocumentRef:   nonBlank(input.DocumentRef),
		Description:   strings.TrimSpace(input.Description),
		CategoryLabel: strings.TrimSpace(input.CategoryLabel),
	}

	if expense.ParentID != nil {
		parentCategory, err := uc.parentCategory(ctx, *expense.ParentID)
		if err != nil {
			return nil, err
		}
		if parentCategory != expense.Category {
			slog.Info("Sub-entry category aligned with parent",
				"parent_id", *expense.ParentID,
				"requested", expense.Category,
				"category", parentCategory,
			)
			expense.Category = parentCategory
		}
	}

	// A booking on a sub-entry makes the whole family client; the next
	// reconciliation pass carries that up to the parent.
	if expense.HasBooking() {
		expense.Category = entity.ExpenseCategoryClient
	}

	if err := uc.expenseRepo.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"category", expense.Category,
		"parent_id", expense.ParentID,
	)
	uc.source.Refresh()

	return &CreateExpenseOutput{Expense: *expense}, nil
}

// parentCategory resolves the parent and returns its normalized category.
func (uc *CreateExpenseUseCase) parentCategory(ctx context.Context, parentID string) (entity.ExpenseCategory, error) {
	parent, err := uc.expenseRepo.FindByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, domainerror.ErrExpenseNotFound) {
			return "", domainerror.NewExpenseError(
				domainerror.ErrCodeParentNotFound,
				"parent expense not found",
				domainerror.ErrParentNotFound,
			)
		}
		return "", fmt.Errorf("failed to find parent expense: %w", err)
	}

	normalized, _ := ledger.Normalize(*parent)
	if !normalized.IsRoot() {
		return "", domainerror.NewExpenseError(
			domainerror.ErrCodeParentNotRoot,
			"sub-entries cannot have sub-entries",
			domainerror.ErrParentNotRoot,
		)
	}
	return normalized.Category, nil
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
