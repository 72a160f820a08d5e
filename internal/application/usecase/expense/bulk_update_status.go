package expense

import (
	"context"
	"log/slog"
	"time"

	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// BulkUpdateStatusInput represents the input for a bulk payment-status change.
type BulkUpdateStatusInput struct {
	ExpenseIDs []string
	Status     entity.PaymentStatus
}

// BulkMutationOutput represents the outcome of a bulk mutation.
type BulkMutationOutput struct {
	Succeeded []string
	Failed    []BulkFailure
}

// BulkUpdateStatusUseCase handles bulk payment-status changes.
type BulkUpdateStatusUseCase struct {
	coordinator *BulkMutationCoordinator
	source      adapter.SnapshotSource
	events      adapter.EventPublisher
}

// NewBulkUpdateStatusUseCase creates a new BulkUpdateStatusUseCase instance.
func NewBulkUpdateStatusUseCase(
	coordinator *BulkMutationCoordinator,
	source adapter.SnapshotSource,
	events adapter.EventPublisher,
) *BulkUpdateStatusUseCase {
	return &BulkUpdateStatusUseCase{
		coordinator: coordinator,
		source:      source,
		events:      events,
	}
}

// Execute sets the payment status of every listed expense. Sub-entries of a
// listed root keep their own status.
func (uc *BulkUpdateStatusUseCase) Execute(ctx context.Context, input BulkUpdateStatusInput) (*BulkMutationOutput, error) {
	op := SetStatusOperation(input.Status)
	result, err := uc.coordinator.Execute(ctx, input.ExpenseIDs, op)
	if err != nil {
		return nil, err
	}
	return afterBulk(ctx, uc.source, uc.events, op, result), nil
}

// afterBulk asks for a fresh snapshot so the mutation reaches the reconciled
// view, then announces the outcome.
func afterBulk(
	ctx context.Context,
	source adapter.SnapshotSource,
	events adapter.EventPublisher,
	op BulkOperation,
	result *BulkResult,
) *BulkMutationOutput {
	if len(result.Succeeded) > 0 && source != nil {
		source.Refresh()
	}

	if events != nil {
		event := valueobject.LedgerEvent{
			Type:       valueobject.EventBulkMutation,
			OccurredAt: time.Now().UTC(),
			Operation:  string(op.Kind),
			Succeeded:  result.Succeeded,
			Failed:     result.FailedIDs(),
		}
		if err := events.Publish(ctx, "bulk", event); err != nil {
			slog.Warn("Failed to publish bulk mutation event", "operation", op.Kind, "error", err)
		}
	}

	return &BulkMutationOutput{
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	}
}
