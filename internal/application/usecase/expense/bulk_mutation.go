// Package expense contains expense-related use cases.
package expense

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/domain/entity"
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
)

// BulkOperationKind names a bulk mutation.
type BulkOperationKind string

const (
	BulkSetStatus BulkOperationKind = "set_status"
	BulkDelete    BulkOperationKind = "delete"
)

// BulkOperation is the mutation applied to every selected expense.
type BulkOperation struct {
	Kind   BulkOperationKind
	Status entity.PaymentStatus // only for BulkSetStatus
}

// SetStatusOperation returns a bulk status change.
func SetStatusOperation(status entity.PaymentStatus) BulkOperation {
	return BulkOperation{Kind: BulkSetStatus, Status: status}
}

// DeleteOperation returns a bulk delete.
func DeleteOperation() BulkOperation {
	return BulkOperation{Kind: BulkDelete}
}

// Validate checks the operation is known and complete.
func (op BulkOperation) Validate() error {
	switch op.Kind {
	case BulkDelete:
		return nil
	case BulkSetStatus:
		if !op.Status.IsValid() {
			return domainerror.NewExpenseError(
				domainerror.ErrCodeInvalidPaymentStatus,
				"payment status must be pending or paid",
				domainerror.ErrInvalidPaymentStatus,
			)
		}
		return nil
	}
	return domainerror.NewExpenseError(
		domainerror.ErrCodeInvalidBulkOperation,
		fmt.Sprintf("unknown bulk operation %q", op.Kind),
		domainerror.ErrInvalidBulkOperation,
	)
}

// BulkFailure records why one expense could not be mutated.
type BulkFailure struct {
	ID  string
	Err error
}

// BulkResult partitions the requested IDs by outcome, in request order.
type BulkResult struct {
	Succeeded []string
	Failed    []BulkFailure
}

// FailedIDs returns the IDs in Failed.
func (r BulkResult) FailedIDs() []string {
	ids := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = f.ID
	}
	return ids
}

// BulkMutationCoordinator applies one operation to many expenses with
// best-effort semantics. It writes only to the backing store.
type BulkMutationCoordinator struct {
	expenseRepo adapter.ExpenseRepository
	concurrency int
}

// NewBulkMutationCoordinator creates a new BulkMutationCoordinator instance.
func NewBulkMutationCoordinator(expenseRepo adapter.ExpenseRepository, concurrency int) *BulkMutationCoordinator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BulkMutationCoordinator{
		expenseRepo: expenseRepo,
		concurrency: concurrency,
	}
}

// Execute mutates every ID independently and waits for all of them.
// Cancelling ctx stops new IDs from starting; IDs already started finish and
// the rest are reported failed with ErrBulkCancelled.
func (c *BulkMutationCoordinator) Execute(ctx context.Context, ids []string, op BulkOperation) (*BulkResult, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, domainerror.NewExpenseError(
			domainerror.ErrCodeEmptyExpenseIDs,
			"expense IDs list cannot be empty",
			domainerror.ErrEmptyExpenseIDs,
		)
	}

	outcomes := make([]error, len(ids))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	for i, id := range ids {
		if !acquire(ctx, sem) {
			for j := i; j < len(ids); j++ {
				outcomes[j] = domainerror.ErrBulkCancelled
			}
			break
		}

		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()
			// In-flight writes run to completion even if the batch is cancelled.
			outcomes[i] = c.apply(context.WithoutCancel(ctx), id, op)
		}(i, id)
	}
	wg.Wait()

	result := &BulkResult{Succeeded: []string{}, Failed: []BulkFailure{}}
	for i, id := range ids {
		if outcomes[i] != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Err: outcomes[i]})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	slog.Info("Bulk mutation finished",
		"operation", op.Kind,
		"requested", len(ids),
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed),
	)
	return result, nil
}

func (c *BulkMutationCoordinator) apply(ctx context.Context, id string, op BulkOperation) error {
	switch op.Kind {
	case BulkSetStatus:
		if err := c.expenseRepo.UpdatePaymentStatus(ctx, id, op.Status); err != nil {
			slog.Warn("Bulk status update failed", "expense_id", id, "error", err)
			return err
		}
		return nil
	case BulkDelete:
		return c.delete(ctx, id)
	}
	return domainerror.ErrInvalidBulkOperation
}

// delete removes one expense and detaches any children it leaves behind.
func (c *BulkMutationCoordinator) delete(ctx context.Context, id string) error {
	if err := c.expenseRepo.Delete(ctx, id); err != nil {
		slog.Warn("Bulk delete failed", "expense_id", id, "error", err)
		return err
	}

	children, err := c.expenseRepo.FindChildren(ctx, id)
	if err != nil {
		slog.Error("Failed to look up sub-entries of deleted expense",
			"expense_id", id,
			"error", err,
		)
		return nil
	}
	for _, child := range children {
		if err := c.expenseRepo.ClearParent(ctx, child.ID); err != nil {
			// The linker promotes the child on the next pass regardless.
			slog.Error("Failed to detach sub-entry of deleted expense",
				"expense_id", id,
				"child_id", child.ID,
				"error", err,
			)
			continue
		}
		slog.Info("Sub-entry detached from deleted expense", "expense_id", id, "child_id", child.ID)
	}
	return nil
}

// acquire takes a semaphore slot unless ctx is already done.
func acquire(ctx context.Context, sem chan struct{}) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case sem <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
