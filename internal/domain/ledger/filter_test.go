package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

func root(id string, category entity.ExpenseCategory, amount int64) *entity.LedgerEntry {
	return &entity.LedgerEntry{
		Expense: entity.Expense{
			ID:            id,
			Category:      category,
			Amount:        decimal.NewFromInt(amount),
			Date:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			PaymentStatus: entity.PaymentStatusPending,
		},
		TotalAmount: decimal.NewFromInt(amount),
	}
}

func ids(entries []*entity.LedgerEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplyFilter_CategoryAndMinAmount(t *testing.T) {
	roots := []*entity.LedgerEntry{
		root("a", entity.ExpenseCategoryClient, 40),
		root("b", entity.ExpenseCategoryClient, 80),
		root("c", entity.ExpenseCategoryCompany, 90),
	}
	minAmount := decimal.NewFromInt(50)

	got := ApplyFilter(roots, valueobject.CategorySelector("client"), valueobject.FilterSpec{MinAmount: &minAmount}, nil)

	if !equalIDs(ids(got), []string{"b"}) {
		t.Errorf("expected [b], got %v", ids(got))
	}
}

func TestApplyFilter_Stages(t *testing.T) {
	doc := root("doc", entity.ExpenseCategoryInvoice, 10)
	doc.DocumentRef = strPtr("receipt.png")
	doc.CategoryLabel = "Fuel"
	doc.Date = time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	booked := root("booked", entity.ExpenseCategoryClient, 200)
	booked.BookingID = strPtr("bk_1")
	booked.Description = "Transfer"
	booked.PaymentStatus = entity.PaymentStatusPaid
	booked.Date = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	plain := root("plain", entity.ExpenseCategoryCompany, 60)
	plain.CategoryLabel = "Office"
	plain.Description = "Paper and toner"

	roots := []*entity.LedgerEntry{doc, booked, plain}
	bookings := map[string]entity.Booking{
		"bk_1": {ID: "bk_1", Reference: "BK-2024-001", ClientName: "Müller GmbH", Title: "Lisbon retreat"},
	}

	yes, no := true, false
	paid := entity.PaymentStatusPaid
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	maxAmount := decimal.NewFromInt(100)

	tests := []struct {
		name string
		spec valueobject.FilterSpec
		want []string
	}{
		{"no filter", valueobject.FilterSpec{SortKey: valueobject.SortByAmount}, []string{"doc", "plain", "booked"}},
		{"query description", valueobject.FilterSpec{Query: "TONER"}, []string{"plain"}},
		{"query label", valueobject.FilterSpec{Query: "fuel"}, []string{"doc"}},
		{"query booking client", valueobject.FilterSpec{Query: "müller"}, []string{"booked"}},
		{"query booking title", valueobject.FilterSpec{Query: "lisbon"}, []string{"booked"}},
		{"date range inclusive", valueobject.FilterSpec{DateFrom: &from, DateTo: &to}, []string{"doc"}},
		{"date open end", valueobject.FilterSpec{DateFrom: &from, SortKey: valueobject.SortByDate}, []string{"doc", "booked"}},
		{"max amount", valueobject.FilterSpec{MaxAmount: &maxAmount, SortKey: valueobject.SortByAmount}, []string{"doc", "plain"}},
		{"payment status", valueobject.FilterSpec{PaymentStatus: &paid}, []string{"booked"}},
		{"label set", valueobject.FilterSpec{CategoryLabels: []string{"Office", "Fuel"}, SortKey: valueobject.SortByLabel}, []string{"doc", "plain"}},
		{"has document", valueobject.FilterSpec{HasDocument: &yes}, []string{"doc"}},
		{"no booking", valueobject.FilterSpec{HasBooking: &no, SortKey: valueobject.SortByAmount, SortDirection: valueobject.SortDesc}, []string{"plain", "doc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFilter(roots, valueobject.CategorySelectorAll, tt.spec, bookings)
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ids(got))
			}
		})
	}
}

func TestApplyFilter_ShuffleIndependent(t *testing.T) {
	var roots []*entity.LedgerEntry
	for i, amount := range []int64{5, 3, 5, 9, 1, 3, 5, 7} {
		r := root(string(rune('a'+i)), entity.ExpenseCategories[i%3], amount)
		r.Date = time.Date(2024, 1, 1+i%3, 0, 0, 0, 0, time.UTC)
		roots = append(roots, r)
	}

	for _, key := range []valueobject.SortKey{valueobject.SortByAmount, valueobject.SortByDate, valueobject.SortByLabel} {
		spec := valueobject.FilterSpec{SortKey: key, SortDirection: valueobject.SortDesc}
		want := ids(ApplyFilter(roots, valueobject.CategorySelectorAll, spec, nil))

		rng := rand.New(rand.NewSource(int64(len(key))))
		for i := 0; i < 10; i++ {
			shuffled := append([]*entity.LedgerEntry(nil), roots...)
			rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

			got := ids(ApplyFilter(shuffled, valueobject.CategorySelectorAll, spec, nil))
			if !equalIDs(want, got) {
				t.Fatalf("%s: expected %v, got %v", key, want, got)
			}
		}
	}
}

func TestApplyFilter_DoesNotReorderInput(t *testing.T) {
	roots := []*entity.LedgerEntry{
		root("b", entity.ExpenseCategoryCompany, 2),
		root("a", entity.ExpenseCategoryCompany, 1),
	}

	ApplyFilter(roots, valueobject.CategorySelectorAll, valueobject.FilterSpec{SortKey: valueobject.SortByAmount}, nil)

	if roots[0].ID != "b" {
		t.Error("expected input slice order to be preserved")
	}
}
