package model

import "github.com/expense-ledger/backend/internal/domain/entity"

// BookingModel represents the bookings table. The ledger only reads it.
type BookingModel struct {
	ID         string `gorm:"type:varchar(64);primaryKey"`
	Reference  string `gorm:"type:varchar(64)"`
	ClientName string `gorm:"type:varchar(255)"`
	Title      string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for the BookingModel.
func (BookingModel) TableName() string {
	return "bookings"
}

// ToEntity converts a BookingModel to a domain Booking entity.
func (m *BookingModel) ToEntity() entity.Booking {
	return entity.Booking{
		ID:         m.ID,
		Reference:  m.Reference,
		ClientName: m.ClientName,
		Title:      m.Title,
	}
}
