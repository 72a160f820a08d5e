package ledger

import (
	"testing"

	"github.com/expense-ledger/backend/internal/domain/entity"
)

func TestExportRows(t *testing.T) {
	r1 := expense("r1", entity.ExpenseCategoryClient, "100", nil)
	r1.Description = "Conference"
	r1.BookingID = strPtr("bk_1")
	c1 := expense("c1", entity.ExpenseCategoryClient, "20", strPtr("r1"))
	c1.Description = "Taxi"

	result := Link([]entity.Expense{r1, c1, expense("r2", entity.ExpenseCategoryCompany, "5", nil)})

	rows := ExportRows(result.Roots)

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].ID != "r1" || rows[0].IsSubEntry || rows[0].BookingID != "bk_1" {
		t.Errorf("unexpected root row %+v", rows[0])
	}
	if rows[0].TotalAmount.String() != "120" {
		t.Errorf("expected root total 120, got %s", rows[0].TotalAmount)
	}
	if !rows[1].IsSubEntry || rows[1].ParentID != "r1" || rows[1].ParentDescription != "Conference" {
		t.Errorf("unexpected sub-entry row %+v", rows[1])
	}
	if rows[2].ID != "r2" || rows[2].IsSubEntry {
		t.Errorf("unexpected row %+v", rows[2])
	}
}
