package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/integration/persistence/model"
)

// bookingRepository implements the adapter.BookingRepository interface.
type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new booking repository instance.
func NewBookingRepository(db *gorm.DB) adapter.BookingRepository {
	return &bookingRepository{db: db}
}

// FindByIDs retrieves the bookings with the given IDs, keyed by ID.
// Unknown IDs are simply absent from the result.
func (r *bookingRepository) FindByIDs(ctx context.Context, ids []string) (map[string]entity.Booking, error) {
	bookings := make(map[string]entity.Booking, len(ids))
	if len(ids) == 0 {
		return bookings, nil
	}

	var models []model.BookingModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	for i := range models {
		bookings[models[i].ID] = models[i].ToEntity()
	}
	return bookings, nil
}
