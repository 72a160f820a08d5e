package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// ExpenseCorrectionModel is the audit trail of category write-backs.
type ExpenseCorrectionModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ExpenseID string         `gorm:"type:varchar(64);not null;index"`
	FromType  string         `gorm:"type:varchar(32)"`
	ToType    string         `gorm:"type:varchar(32);not null"`
	Reasons   pq.StringArray `gorm:"type:text[]"`
	AppliedAt time.Time      `gorm:"not null"`
}

// TableName returns the table name for the ExpenseCorrectionModel.
func (ExpenseCorrectionModel) TableName() string {
	return "expense_corrections"
}

// ExpenseCorrectionFromValue creates an audit row for an applied correction.
func ExpenseCorrectionFromValue(c valueobject.Correction, appliedAt time.Time) *ExpenseCorrectionModel {
	reasons := make(pq.StringArray, len(c.Reasons))
	for i, r := range c.Reasons {
		reasons[i] = string(r)
	}
	return &ExpenseCorrectionModel{
		ID:        uuid.New(),
		ExpenseID: c.ExpenseID,
		FromType:  c.From,
		ToType:    string(c.To),
		Reasons:   reasons,
		AppliedAt: appliedAt,
	}
}
