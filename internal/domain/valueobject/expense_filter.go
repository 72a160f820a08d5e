// Package valueobject contains domain value objects for the expense ledger.
package valueobject

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/domain/entity"
)

// CategorySelector is the exclusive category tab: "all" or one category.
type CategorySelector string

// CategorySelectorAll selects every category.
const CategorySelectorAll CategorySelector = "all"

// Category returns the selected category and false when the selector is "all"
// or not a canonical category.
func (s CategorySelector) Category() (entity.ExpenseCategory, bool) {
	c := entity.ExpenseCategory(s)
	if s == CategorySelectorAll || !c.IsValid() {
		return "", false
	}
	return c, true
}

// SortKey selects the field the working view is ordered by.
type SortKey string

const (
	SortByDate   SortKey = "date"
	SortByAmount SortKey = "amount"
	SortByLabel  SortKey = "label"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// FilterSpec narrows and orders the reconciled root list.
// Nil pointers and empty values mean "not set".
type FilterSpec struct {
	Query          string
	DateFrom       *time.Time
	DateTo         *time.Time
	MinAmount      *decimal.Decimal
	MaxAmount      *decimal.Decimal
	PaymentStatus  *entity.PaymentStatus
	CategoryLabels []string
	HasDocument    *bool
	HasBooking     *bool
	SortKey        SortKey
	SortDirection  SortDirection
}

// DefaultFilterSpec returns an empty filter sorted by date, newest first.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		SortKey:       SortByDate,
		SortDirection: SortDesc,
	}
}
