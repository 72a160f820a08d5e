package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

func raw(id string, typ any, amount string, parentID, bookingID *string) entity.RawExpense {
	return entity.RawExpense{
		ID:        id,
		Type:      typ,
		Amount:    decimal.RequireFromString(amount),
		ParentID:  parentID,
		BookingID: bookingID,
	}
}

func TestReconcile_InvariantsHold(t *testing.T) {
	raws := []entity.RawExpense{
		raw("r1", "invoice", "100", nil, nil),
		raw("c1", "Company", "20", strPtr("r1"), nil),
		raw("r2", "garbage", "10", nil, nil),
		raw("r3", "company", "30", nil, strPtr("bk_1")),
		raw("c3", nil, "3", strPtr("r3"), nil),
		raw("o1", "client", "4", strPtr("missing"), strPtr("bk_2")),
	}

	result := Reconcile(raws)

	for _, root := range result.Roots {
		if !root.Category.IsValid() {
			t.Errorf("%s: non-canonical category %q", root.ID, root.Category)
		}
		if root.HasBooking() && root.Category != entity.ExpenseCategoryClient {
			t.Errorf("%s: booking without client category", root.ID)
		}
		total := root.Amount
		for _, child := range root.Children {
			total = total.Add(child.Amount)
			if child.Category != root.Category {
				t.Errorf("%s: child %s category %s differs from root %s", root.ID, child.ID, child.Category, root.Category)
			}
			if child.HasBooking() && child.Category != entity.ExpenseCategoryClient {
				t.Errorf("%s: booking without client category", child.ID)
			}
		}
		if !root.TotalAmount.Equal(total) {
			t.Errorf("%s: expected total %s, got %s", root.ID, total, root.TotalAmount)
		}
	}

	if result.Defaulted != 2 {
		t.Errorf("expected 2 defaulted rows, got %d", result.Defaulted)
	}
	if result.Orphans != 1 {
		t.Errorf("expected 1 orphan, got %d", result.Orphans)
	}
}

func TestReconcile_MergesCorrectionsPerExpense(t *testing.T) {
	result := Reconcile([]entity.RawExpense{
		raw("r1", "invoice", "100", nil, nil),
		raw("c1", "Company", "20", strPtr("r1"), nil),
	})

	if len(result.Corrections) != 1 {
		t.Fatalf("expected one merged correction, got %+v", result.Corrections)
	}
	c := result.Corrections[0]
	if c.ExpenseID != "c1" || c.From != "Company" || c.To != entity.ExpenseCategoryInvoice {
		t.Errorf("unexpected correction %+v", c)
	}
	if len(c.Reasons) != 2 ||
		c.Reasons[0] != valueobject.ReasonNonCanonical ||
		c.Reasons[1] != valueobject.ReasonParentMismatch {
		t.Errorf("expected both reasons, got %v", c.Reasons)
	}
}

func TestReconcile_CleanSnapshotHasNoCorrections(t *testing.T) {
	result := Reconcile([]entity.RawExpense{
		raw("r1", "client", "100", nil, strPtr("bk")),
		raw("c1", "client", "20", strPtr("r1"), nil),
		raw("r2", "company", "5", nil, nil),
	})

	if len(result.Corrections) != 0 {
		t.Errorf("expected no corrections, got %+v", result.Corrections)
	}
}

func TestReconcile_ChildWithOddCaseMatchingRoot(t *testing.T) {
	// "Invoice" normalizes to the root's category; the write-back still
	// stores the canonical spelling.
	result := Reconcile([]entity.RawExpense{
		raw("r1", "invoice", "1", nil, nil),
		raw("c1", "Invoice", "1", strPtr("r1"), nil),
	})

	if len(result.Corrections) != 1 || result.Corrections[0].To != entity.ExpenseCategoryInvoice {
		t.Errorf("expected canonical write-back, got %+v", result.Corrections)
	}
}

func TestReconcile_DuplicatesDifferingOnlyInCaseAreOrderIndependent(t *testing.T) {
	upper := raw("r1", "Client", "10", nil, nil)
	lower := raw("r1", "client", "10", nil, nil)

	tests := []struct {
		name string
		raws []entity.RawExpense
	}{
		{"canonical last", []entity.RawExpense{upper, lower}},
		{"canonical first", []entity.RawExpense{lower, upper}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Reconcile(tt.raws)
			if len(result.Corrections) != 0 {
				t.Errorf("expected the canonical row to win without a write-back, got %+v", result.Corrections)
			}
			if len(result.Roots) != 1 || result.Roots[0].Category != entity.ExpenseCategoryClient {
				t.Errorf("expected one client root, got %+v", result.Roots)
			}
			if result.Duplicates != 1 {
				t.Errorf("expected 1 duplicate, got %d", result.Duplicates)
			}
		})
	}
}
