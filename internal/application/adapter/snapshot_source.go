package adapter

import (
	"context"

	"github.com/expense-ledger/backend/internal/domain/entity"
)

// SnapshotSource delivers full-state pushes of the expense collection.
type SnapshotSource interface {
	// Subscribe starts delivering snapshots until ctx is cancelled, at which
	// point the channel is closed. An error means the subscription could not
	// be established at all.
	Subscribe(ctx context.Context) (<-chan entity.Snapshot, error)

	// Refresh asks the source to push a new snapshot as soon as possible.
	Refresh()
}
