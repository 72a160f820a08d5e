package adapter

import (
	"context"

	"github.com/expense-ledger/backend/internal/domain/entity"
)

// BookingRepository reads display fields of external bookings.
type BookingRepository interface {
	// FindByIDs returns the bookings found for ids, keyed by ID.
	// Unknown IDs are simply absent from the result.
	FindByIDs(ctx context.Context, ids []string) (map[string]entity.Booking, error)
}
