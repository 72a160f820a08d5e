package expense

import (
	"context"

	"github.com/expense-ledger/backend/internal/domain/ledger"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// GetStatsOutput represents the ledger summary.
type GetStatsOutput struct {
	Stats        valueobject.LedgerStats
	ViewSequence uint64
	FromCache    bool
}

// GetStatsUseCase summarizes the full reconciled view, ignoring filters.
type GetStatsUseCase struct {
	views ViewProvider
}

// NewGetStatsUseCase creates a new GetStatsUseCase instance.
func NewGetStatsUseCase(views ViewProvider) *GetStatsUseCase {
	return &GetStatsUseCase{views: views}
}

// Execute computes the summary.
func (uc *GetStatsUseCase) Execute(_ context.Context) (*GetStatsOutput, error) {
	view, err := uc.views.View()
	if err != nil {
		return nil, viewError(err)
	}
	return &GetStatsOutput{
		Stats:        ledger.Aggregate(view.Roots),
		ViewSequence: view.Sequence,
		FromCache:    view.FromCache,
	}, nil
}
