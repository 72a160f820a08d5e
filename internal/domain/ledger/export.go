package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/domain/entity"
)

// ExportRow is one flat row for tabular export.
type ExportRow struct {
	ID                string
	IsSubEntry        bool
	ParentID          string
	ParentDescription string
	Category          entity.ExpenseCategory
	CategoryLabel     string
	Description       string
	Date              time.Time
	Amount            decimal.Decimal
	// TotalAmount is the family total on root rows and the own amount on sub-entry rows.
	TotalAmount   decimal.Decimal
	PaymentStatus entity.PaymentStatus
	BookingID     string
	HasDocument   bool
}

// ExportRows flattens roots into rows: each root followed by its sub-entries.
func ExportRows(roots []*entity.LedgerEntry) []ExportRow {
	rows := make([]ExportRow, 0, len(roots))
	for _, root := range roots {
		rows = append(rows, exportRow(&root.Expense, root.TotalAmount))
		for _, child := range root.Children {
			row := exportRow(child, child.Amount)
			row.IsSubEntry = true
			row.ParentID = root.ID
			row.ParentDescription = root.Description
			rows = append(rows, row)
		}
	}
	return rows
}

func exportRow(e *entity.Expense, total decimal.Decimal) ExportRow {
	row := ExportRow{
		ID:            e.ID,
		Category:      e.Category,
		CategoryLabel: e.CategoryLabel,
		Description:   e.Description,
		Date:          e.Date,
		Amount:        e.Amount,
		TotalAmount:   total,
		PaymentStatus: e.PaymentStatus,
		HasDocument:   e.HasDocument(),
	}
	if e.HasBooking() {
		row.BookingID = *e.BookingID
	}
	return row
}
