package valueobject

import (
	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/domain/entity"
)

// StatsBucket names one row of the ledger summary.
type StatsBucket string

// StatsBucketTotal is the all-categories bucket; the other buckets reuse the
// category names.
const StatsBucketTotal StatsBucket = "total"

// BucketStats is the number of roots and their total amount in one bucket.
type BucketStats struct {
	Count  int
	Amount decimal.Decimal
}

// LedgerStats maps total, company, client and invoice to their stats.
type LedgerStats map[StatsBucket]BucketStats

// NewLedgerStats returns stats with every bucket present and zeroed.
func NewLedgerStats() LedgerStats {
	stats := LedgerStats{StatsBucketTotal: {Amount: decimal.Zero}}
	for _, c := range entity.ExpenseCategories {
		stats[StatsBucket(c)] = BucketStats{Amount: decimal.Zero}
	}
	return stats
}

// Category returns the stats for one category.
func (s LedgerStats) Category(c entity.ExpenseCategory) BucketStats {
	return s[StatsBucket(c)]
}

// Total returns the all-categories stats.
func (s LedgerStats) Total() BucketStats {
	return s[StatsBucketTotal]
}
