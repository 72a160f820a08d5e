// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// ExpenseRepository defines the interface for backing-store expense operations.
type ExpenseRepository interface {
	// FindAll retrieves every expense ordered by ingestion time, newest first.
	FindAll(ctx context.Context) ([]entity.RawExpense, error)

	// FindByID retrieves a single expense by ID.
	FindByID(ctx context.Context, id string) (*entity.RawExpense, error)

	// FindChildren retrieves the expenses whose parent is parentID.
	FindChildren(ctx context.Context, parentID string) ([]entity.RawExpense, error)

	// Create inserts a new expense and assigns its ID.
	Create(ctx context.Context, expense *entity.Expense) error

	// UpdatePaymentStatus sets the payment status of one expense.
	UpdatePaymentStatus(ctx context.Context, id string, status entity.PaymentStatus) error

	// Delete removes one expense.
	Delete(ctx context.Context, id string) error

	// ClearParent detaches a sub-entry from its parent.
	ClearParent(ctx context.Context, id string) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	CorrectionWriter
	PageFetcher
}

// CorrectionWriter persists category corrections found during reconciliation.
type CorrectionWriter interface {
	// ApplyCorrection writes the corrected category. Applying the same
	// correction twice leaves the store unchanged.
	ApplyCorrection(ctx context.Context, correction valueobject.Correction) error
}

// PageFetcher serves bounded, cursor-based pages of root expenses.
type PageFetcher interface {
	// FetchRootPage returns up to query.Limit roots strictly after query.After,
	// ordered by ingestion time, newest first.
	FetchRootPage(ctx context.Context, query valueobject.PageQuery) ([]entity.RawExpense, error)

	// FetchChildren returns the sub-entries of the given parents.
	FetchChildren(ctx context.Context, parentIDs []string) ([]entity.RawExpense, error)
}
