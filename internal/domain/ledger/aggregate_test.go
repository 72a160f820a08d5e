package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

func TestAggregate(t *testing.T) {
	result := Link([]entity.Expense{
		expense("r1", entity.ExpenseCategoryInvoice, "100", nil),
		expense("c1", entity.ExpenseCategoryInvoice, "20", strPtr("r1")),
		expense("r2", entity.ExpenseCategoryClient, "50", nil),
		expense("r3", entity.ExpenseCategoryCompany, "7.25", nil),
		expense("r4", entity.ExpenseCategoryCompany, "2.75", nil),
	})

	stats := Aggregate(result.Roots)

	tests := []struct {
		bucket valueobject.StatsBucket
		count  int
		amount string
	}{
		{valueobject.StatsBucketTotal, 4, "180"},
		{valueobject.StatsBucket(entity.ExpenseCategoryInvoice), 1, "120"},
		{valueobject.StatsBucket(entity.ExpenseCategoryClient), 1, "50"},
		{valueobject.StatsBucket(entity.ExpenseCategoryCompany), 2, "10"},
	}

	for _, tt := range tests {
		t.Run(string(tt.bucket), func(t *testing.T) {
			got := stats[tt.bucket]
			if got.Count != tt.count {
				t.Errorf("expected count %d, got %d", tt.count, got.Count)
			}
			if !got.Amount.Equal(decimal.RequireFromString(tt.amount)) {
				t.Errorf("expected amount %s, got %s", tt.amount, got.Amount)
			}
		})
	}
}

func TestAggregate_EmptyHasAllBuckets(t *testing.T) {
	stats := Aggregate(nil)

	if len(stats) != 4 {
		t.Fatalf("expected 4 buckets, got %d", len(stats))
	}
	if stats.Total().Count != 0 || !stats.Total().Amount.IsZero() {
		t.Errorf("expected zero totals, got %+v", stats.Total())
	}
}
