package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// LinkResult is the grouped ledger plus the category fixes linking required.
type LinkResult struct {
	Roots       []*entity.LedgerEntry
	Corrections []valueobject.Correction
	Orphans     int
	Duplicates  int
}

// Link groups normalized expenses into roots with attached sub-entries.
//
// A sub-entry whose parent is missing, is itself a sub-entry, or is the entry
// itself is promoted to a standalone root. Sub-entries take their root's
// category; a booking on any sub-entry makes the whole family client.
// The result depends only on the multiset of inputs, never on their order.
func Link(expenses []entity.Expense) LinkResult {
	byID, duplicates := dedupe(expenses)

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result LinkResult
	result.Duplicates = duplicates

	roots := make(map[string]*entity.LedgerEntry)
	var children []*entity.Expense

	for _, id := range ids {
		e := byID[id]
		if e.IsRoot() {
			roots[id] = &entity.LedgerEntry{Expense: *e}
			continue
		}
		children = append(children, e)
	}

	for _, child := range children {
		parent, ok := byID[*child.ParentID]
		if !ok || !parent.IsRoot() || parent.ID == child.ID {
			roots[child.ID] = &entity.LedgerEntry{Expense: *child, Orphaned: true}
			result.Orphans++
			continue
		}
		root := roots[parent.ID]
		root.Children = append(root.Children, child)
	}

	for _, id := range ids {
		root, ok := roots[id]
		if !ok {
			continue
		}
		result.Corrections = append(result.Corrections, enforceFamily(root)...)
		sortChildren(root.Children)
		root.TotalAmount = familyTotal(root)
		result.Roots = append(result.Roots, root)
	}

	return result
}

// enforceFamily applies the booking and parent-category rules to one root.
func enforceFamily(root *entity.LedgerEntry) []valueobject.Correction {
	var corrections []valueobject.Correction

	if root.Category != entity.ExpenseCategoryClient {
		for _, child := range root.Children {
			if child.HasBooking() {
				corrections = append(corrections, valueobject.Correction{
					ExpenseID: root.ID,
					From:      string(root.Category),
					To:        entity.ExpenseCategoryClient,
					Reasons:   []valueobject.CorrectionReason{valueobject.ReasonBookingRequiresClient},
				})
				root.Category = entity.ExpenseCategoryClient
				break
			}
		}
	}

	for _, child := range root.Children {
		if child.Category == root.Category {
			continue
		}
		corrections = append(corrections, valueobject.Correction{
			ExpenseID: child.ID,
			From:      string(child.Category),
			To:        root.Category,
			Reasons:   []valueobject.CorrectionReason{valueobject.ReasonParentMismatch},
		})
		child.Category = root.Category
	}

	return corrections
}

// dedupe keeps one expense per ID: the latest ingested, then the greatest
// content key, so the winner does not depend on input order.
func dedupe(expenses []entity.Expense) (map[string]*entity.Expense, int) {
	byID := make(map[string]*entity.Expense, len(expenses))
	duplicates := 0
	for i := range expenses {
		e := expenses[i]
		current, seen := byID[e.ID]
		if !seen {
			byID[e.ID] = &e
			continue
		}
		duplicates++
		if preferred(&e, current) {
			byID[e.ID] = &e
		}
	}
	return byID, duplicates
}

func preferred(a, b *entity.Expense) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return contentKey(a) > contentKey(b)
}

func contentKey(e *entity.Expense) string {
	key := string(e.Category) + "|" + e.Amount.String() + "|" + e.Date.UTC().Format("2006-01-02T15:04:05.999999999") +
		"|" + string(e.PaymentStatus) + "|" + e.Description + "|" + e.CategoryLabel
	for _, ref := range []*string{e.ParentID, e.BookingID, e.DocumentRef} {
		key += "|"
		if ref != nil {
			key += *ref
		}
	}
	return key
}

func sortChildren(children []*entity.Expense) {
	sort.Slice(children, func(i, j int) bool {
		if !children[i].Date.Equal(children[j].Date) {
			return children[i].Date.Before(children[j].Date)
		}
		return children[i].ID < children[j].ID
	})
}

func familyTotal(root *entity.LedgerEntry) decimal.Decimal {
	total := root.Amount
	for _, child := range root.Children {
		total = total.Add(child.Amount)
	}
	return total
}
