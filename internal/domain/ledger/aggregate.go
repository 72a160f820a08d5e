package ledger

import (
	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// Aggregate counts roots and sums their family totals per category.
// Sub-entries contribute to their root's amount but are not counted.
func Aggregate(roots []*entity.LedgerEntry) valueobject.LedgerStats {
	stats := valueobject.NewLedgerStats()
	for _, root := range roots {
		add(stats, valueobject.StatsBucketTotal, root)
		add(stats, valueobject.StatsBucket(root.Category), root)
	}
	return stats
}

func add(stats valueobject.LedgerStats, bucket valueobject.StatsBucket, root *entity.LedgerEntry) {
	b := stats[bucket]
	b.Count++
	b.Amount = b.Amount.Add(root.TotalAmount)
	stats[bucket] = b
}
