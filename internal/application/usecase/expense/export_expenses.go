package expense

import (
	"context"

	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/ledger"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// ExportExpensesInput represents the input for exporting the filtered view.
type ExportExpensesInput struct {
	Selector valueobject.CategorySelector
	Filter   valueobject.FilterSpec
}

// ExportExpensesOutput represents flat export rows.
type ExportExpensesOutput struct {
	Rows         []ledger.ExportRow
	ViewSequence uint64
}

// ExportExpensesUseCase produces tabular rows of the filtered view.
// Formatting the rows into a file is left to the caller.
type ExportExpensesUseCase struct {
	views       ViewProvider
	bookingRepo adapter.BookingRepository
}

// NewExportExpensesUseCase creates a new ExportExpensesUseCase instance.
func NewExportExpensesUseCase(views ViewProvider, bookingRepo adapter.BookingRepository) *ExportExpensesUseCase {
	return &ExportExpensesUseCase{
		views:       views,
		bookingRepo: bookingRepo,
	}
}

// Execute performs the export.
func (uc *ExportExpensesUseCase) Execute(ctx context.Context, input ExportExpensesInput) (*ExportExpensesOutput, error) {
	view, err := uc.views.View()
	if err != nil {
		return nil, viewError(err)
	}
	if input.Selector == "" {
		input.Selector = valueobject.CategorySelectorAll
	}

	var bookings map[string]entity.Booking
	if input.Filter.Query != "" {
		bookings = loadBookings(ctx, uc.bookingRepo, view.Roots)
	}

	filtered := ledger.ApplyFilter(view.Roots, input.Selector, input.Filter, bookings)
	return &ExportExpensesOutput{
		Rows:         ledger.ExportRows(filtered),
		ViewSequence: view.Sequence,
	}, nil
}
