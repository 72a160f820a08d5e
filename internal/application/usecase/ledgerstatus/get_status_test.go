package ledgerstatus

import (
	"context"
	"testing"
	"time"

	"github.com/expense-ledger/backend/internal/application/usecase/reconciler"
	"github.com/expense-ledger/backend/internal/domain/entity"
)

type stubReporter struct {
	status reconciler.Status
}

func (s stubReporter) Status() reconciler.Status { return s.status }

type countingSource struct {
	refreshes int
}

func (s *countingSource) Subscribe(context.Context) (<-chan entity.Snapshot, error) {
	return nil, nil
}

func (s *countingSource) Refresh() { s.refreshes++ }

func TestGetStatusUseCase(t *testing.T) {
	t.Run("nothing published yet", func(t *testing.T) {
		output := NewGetStatusUseCase(stubReporter{status: reconciler.Status{State: reconciler.StateIdle}}).Execute(context.Background())
		if output.PublishedAt != nil {
			t.Errorf("expected no publication time, got %v", output.PublishedAt)
		}
		if output.State != reconciler.StateIdle {
			t.Errorf("expected idle, got %s", output.State)
		}
	})

	t.Run("degraded with cached view", func(t *testing.T) {
		publishedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		output := NewGetStatusUseCase(stubReporter{status: reconciler.Status{
			State:             reconciler.StateIdle,
			Degraded:          true,
			PublishedSequence: 4,
			PublishedAt:       publishedAt,
			FromCache:         true,
			FailedWritebacks:  2,
		}}).Execute(context.Background())

		if !output.Degraded || !output.FromCache {
			t.Errorf("expected degraded cached view, got %+v", output)
		}
		if output.PublishedAt == nil || !output.PublishedAt.Equal(publishedAt) {
			t.Errorf("expected published at %v, got %v", publishedAt, output.PublishedAt)
		}
		if output.FailedWritebacks != 2 {
			t.Errorf("expected 2 failed write-backs, got %d", output.FailedWritebacks)
		}
	})
}

func TestRefreshUseCase(t *testing.T) {
	source := &countingSource{}
	NewRefreshUseCase(source).Execute(context.Background())
	if source.refreshes != 1 {
		t.Errorf("expected 1 refresh, got %d", source.refreshes)
	}
}
