// Package model defines database models for persistence layer.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/domain/entity"
)

// ExpenseModel represents the expenses table. The type column is written by
// several clients and is not constrained; it is read back verbatim.
type ExpenseModel struct {
	ID            string          `gorm:"type:varchar(64);primaryKey"`
	Type          *string         `gorm:"type:varchar(32)"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Date          time.Time       `gorm:"type:date;not null"`
	Timestamp     time.Time       `gorm:"column:timestamp;not null;index"`
	PaymentStatus string          `gorm:"type:varchar(16);not null;default:pending"`
	ParentID      *string         `gorm:"type:varchar(64);index"`
	BookingID     *string         `gorm:"type:varchar(64);index"`
	ImageURL      *string         `gorm:"column:image_url;type:text"`
	Description   string          `gorm:"type:text"`
	CategoryLabel string          `gorm:"type:varchar(100)"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for the ExpenseModel.
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToRaw converts an ExpenseModel to an unnormalized expense.
func (m *ExpenseModel) ToRaw() entity.RawExpense {
	var typ any
	if m.Type != nil {
		typ = *m.Type
	}
	return entity.RawExpense{
		ID:            m.ID,
		Type:          typ,
		Amount:        m.Amount,
		Date:          m.Date,
		CreatedAt:     m.Timestamp,
		PaymentStatus: m.PaymentStatus,
		ParentID:      m.ParentID,
		BookingID:     m.BookingID,
		DocumentRef:   m.ImageURL,
		Description:   m.Description,
		CategoryLabel: m.CategoryLabel,
	}
}

// ExpenseFromEntity creates an ExpenseModel from a normalized expense.
func ExpenseFromEntity(e *entity.Expense) *ExpenseModel {
	typ := string(e.Category)
	return &ExpenseModel{
		ID:            e.ID,
		Type:          &typ,
		Amount:        e.Amount,
		Date:          e.Date,
		Timestamp:     e.CreatedAt,
		PaymentStatus: string(e.PaymentStatus),
		ParentID:      e.ParentID,
		BookingID:     e.BookingID,
		ImageURL:      e.DocumentRef,
		Description:   e.Description,
		CategoryLabel: e.CategoryLabel,
	}
}

// ExpenseFromRaw creates an ExpenseModel from a stored row, keeping the raw
// category text. Non-string category values are stored as NULL.
func ExpenseFromRaw(raw entity.RawExpense) *ExpenseModel {
	var typ *string
	if s, ok := raw.Type.(string); ok {
		typ = &s
	}
	return &ExpenseModel{
		ID:            raw.ID,
		Type:          typ,
		Amount:        raw.Amount,
		Date:          raw.Date,
		Timestamp:     raw.CreatedAt,
		PaymentStatus: strings.TrimSpace(raw.PaymentStatus),
		ParentID:      raw.ParentID,
		BookingID:     raw.BookingID,
		ImageURL:      raw.DocumentRef,
		Description:   raw.Description,
		CategoryLabel: raw.CategoryLabel,
	}
}
