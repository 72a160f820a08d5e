package ledger

import (
	"sort"

	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// ReconcileResult is the outcome of one normalize-and-link pass.
type ReconcileResult struct {
	Roots []*entity.LedgerEntry
	// Corrections holds one write-back per expense ID, carrying the final
	// category and the stored value it replaces.
	Corrections []valueobject.Correction
	Defaulted   int
	Orphans     int
	Duplicates  int
}

type normalized struct {
	expense entity.Expense
	result  NormalizeResult
}

// Reconcile normalizes every raw row, links the result, and merges the
// normalizer's and linker's corrections per expense.
func Reconcile(raws []entity.RawExpense) ReconcileResult {
	expenses := make([]entity.Expense, len(raws))
	winners := make(map[string]normalized, len(raws))

	for i, raw := range raws {
		expense, res := Normalize(raw)
		expenses[i] = expense
		candidate := normalized{expense: expense, result: res}
		if current, seen := winners[expense.ID]; seen && !candidate.beats(current) {
			continue
		}
		winners[expense.ID] = candidate
	}

	linked := Link(expenses)

	result := ReconcileResult{
		Roots:      linked.Roots,
		Orphans:    linked.Orphans,
		Duplicates: linked.Duplicates,
	}

	merged := make(map[string]*valueobject.Correction)
	for id, w := range winners {
		if w.result.Defaulted {
			result.Defaulted++
		}
		if w.result.WasCorrected {
			c := w.result.Correction(w.expense)
			merged[id] = &c
		}
	}

	// A linker correction on an entry the normalizer left alone starts from
	// the canonical stored value, which is exactly the linker's From.
	for _, c := range linked.Corrections {
		if existing, ok := merged[c.ExpenseID]; ok {
			existing.To = c.To
			existing.Reasons = appendReasons(existing.Reasons, c.Reasons...)
			continue
		}
		c := c
		merged[c.ExpenseID] = &c
	}

	for _, c := range merged {
		if c.From == string(c.To) {
			continue
		}
		result.Corrections = append(result.Corrections, *c)
	}
	sort.Slice(result.Corrections, func(i, j int) bool {
		return result.Corrections[i].ExpenseID < result.Corrections[j].ExpenseID
	})
	return result
}

// beats orders duplicates like the linker does. Rows that normalize to the
// same expense are told apart by their stored category text.
func (n normalized) beats(other normalized) bool {
	if preferred(&n.expense, &other.expense) {
		return true
	}
	if preferred(&other.expense, &n.expense) {
		return false
	}
	return n.result.From > other.result.From
}

func appendReasons(reasons []valueobject.CorrectionReason, more ...valueobject.CorrectionReason) []valueobject.CorrectionReason {
	for _, r := range more {
		found := false
		for _, existing := range reasons {
			if existing == r {
				found = true
				break
			}
		}
		if !found {
			reasons = append(reasons, r)
		}
	}
	return reasons
}
