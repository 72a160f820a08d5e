package adapter

import (
	"context"

	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// ViewCache stores the last published ledger view outside the process.
type ViewCache interface {
	// Save replaces the cached view.
	Save(ctx context.Context, view *entity.LedgerView) error

	// Load returns the cached view, or domainerror.ErrNoPublishedView.
	Load(ctx context.Context) (*entity.LedgerView, error)
}

// PagerSessionStore keeps per-session pagination state.
type PagerSessionStore interface {
	// Load returns the state for a session, or domainerror.ErrSessionNotFound.
	Load(ctx context.Context, sessionID string) (*valueobject.PagerState, error)

	// Save stores the state for a session, refreshing its expiry.
	Save(ctx context.Context, sessionID string, state valueobject.PagerState) error
}

// EventPublisher publishes ledger events to downstream consumers.
type EventPublisher interface {
	// Publish sends one event. key groups related events for ordering.
	Publish(ctx context.Context, key string, event valueobject.LedgerEvent) error
}
