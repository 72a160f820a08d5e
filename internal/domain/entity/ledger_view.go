package entity

import "time"

// LedgerView is one published, reconciled state of the ledger.
// A view is never modified after publication; readers share it freely.
type LedgerView struct {
	Sequence    uint64
	PublishedAt time.Time
	Roots       []*LedgerEntry
	// FromCache is set when the view was restored from the view cache
	// instead of being reconciled from a live snapshot.
	FromCache bool
}

// ExpenseCount returns the number of roots and sub-entries in the view.
func (v *LedgerView) ExpenseCount() int {
	n := 0
	for _, r := range v.Roots {
		n += 1 + len(r.Children)
	}
	return n
}
