package expense

import (
	"context"

	"github.com/expense-ledger/backend/internal/application/adapter"
)

// BulkDeleteExpensesInput represents the input for bulk expense deletion.
type BulkDeleteExpensesInput struct {
	ExpenseIDs []string
}

// BulkDeleteExpensesUseCase handles bulk expense deletion.
type BulkDeleteExpensesUseCase struct {
	coordinator *BulkMutationCoordinator
	source      adapter.SnapshotSource
	events      adapter.EventPublisher
}

// NewBulkDeleteExpensesUseCase creates a new BulkDeleteExpensesUseCase instance.
func NewBulkDeleteExpensesUseCase(
	coordinator *BulkMutationCoordinator,
	source adapter.SnapshotSource,
	events adapter.EventPublisher,
) *BulkDeleteExpensesUseCase {
	return &BulkDeleteExpensesUseCase{
		coordinator: coordinator,
		source:      source,
		events:      events,
	}
}

// Execute deletes every listed expense. Sub-entries of a deleted root become
// standalone roots.
func (uc *BulkDeleteExpensesUseCase) Execute(ctx context.Context, input BulkDeleteExpensesInput) (*BulkMutationOutput, error) {
	op := DeleteOperation()
	result, err := uc.coordinator.Execute(ctx, input.ExpenseIDs, op)
	if err != nil {
		return nil, err
	}
	return afterBulk(ctx, uc.source, uc.events, op, result), nil
}
