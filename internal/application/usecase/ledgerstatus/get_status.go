// Package ledgerstatus contains use cases that report on and steer the reconciler.
package ledgerstatus

import (
	"context"
	"time"

	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/application/usecase/reconciler"
)

// StatusReporter exposes the reconciler's current status.
type StatusReporter interface {
	Status() reconciler.Status
}

// GetStatusOutput represents the reconciler status.
type GetStatusOutput struct {
	State             reconciler.State
	Degraded          bool
	ReceivedSequence  uint64
	PublishedSequence uint64
	PublishedAt       *time.Time
	FromCache         bool
	PendingWritebacks int
	AppliedWritebacks int64
	FailedWritebacks  int64
}

// GetStatusUseCase handles status reporting.
type GetStatusUseCase struct {
	reporter StatusReporter
}

// NewGetStatusUseCase creates a new GetStatusUseCase instance.
func NewGetStatusUseCase(reporter StatusReporter) *GetStatusUseCase {
	return &GetStatusUseCase{reporter: reporter}
}

// Execute returns the current status.
func (uc *GetStatusUseCase) Execute(_ context.Context) *GetStatusOutput {
	status := uc.reporter.Status()
	output := &GetStatusOutput{
		State:             status.State,
		Degraded:          status.Degraded,
		ReceivedSequence:  status.ReceivedSequence,
		PublishedSequence: status.PublishedSequence,
		FromCache:         status.FromCache,
		PendingWritebacks: status.PendingWritebacks,
		AppliedWritebacks: status.AppliedWritebacks,
		FailedWritebacks:  status.FailedWritebacks,
	}
	if !status.PublishedAt.IsZero() {
		publishedAt := status.PublishedAt
		output.PublishedAt = &publishedAt
	}
	return output
}

// RefreshUseCase asks the snapshot source for an immediate push.
type RefreshUseCase struct {
	source adapter.SnapshotSource
}

// NewRefreshUseCase creates a new RefreshUseCase instance.
func NewRefreshUseCase(source adapter.SnapshotSource) *RefreshUseCase {
	return &RefreshUseCase{source: source}
}

// Execute requests the refresh. The new view is published asynchronously.
func (uc *RefreshUseCase) Execute(_ context.Context) {
	uc.source.Refresh()
}
