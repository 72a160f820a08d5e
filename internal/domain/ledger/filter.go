package ledger

import (
	"sort"
	"strings"

	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// stage narrows the working view; stages run in a fixed order.
type stage func(root *entity.LedgerEntry) bool

// ApplyFilter narrows roots by the category selector and the filter spec,
// then sorts the result. The input slice and its entries are not modified.
// bookings supplies display fields for free-text matching and may be nil.
func ApplyFilter(
	roots []*entity.LedgerEntry,
	selector valueobject.CategorySelector,
	spec valueobject.FilterSpec,
	bookings map[string]entity.Booking,
) []*entity.LedgerEntry {
	stages := buildStages(selector, spec, bookings)

	result := make([]*entity.LedgerEntry, 0, len(roots))
	for _, root := range roots {
		if keep(root, stages) {
			result = append(result, root)
		}
	}

	sortEntries(result, spec.SortKey, spec.SortDirection)
	return result
}

func keep(root *entity.LedgerEntry, stages []stage) bool {
	for _, s := range stages {
		if !s(root) {
			return false
		}
	}
	return true
}

func buildStages(
	selector valueobject.CategorySelector,
	spec valueobject.FilterSpec,
	bookings map[string]entity.Booking,
) []stage {
	var stages []stage

	if category, ok := selector.Category(); ok {
		stages = append(stages, func(r *entity.LedgerEntry) bool {
			return r.Category == category
		})
	}

	if q := strings.ToLower(strings.TrimSpace(spec.Query)); q != "" {
		stages = append(stages, func(r *entity.LedgerEntry) bool {
			return matchesQuery(r, q, bookings)
		})
	}

	if spec.DateFrom != nil {
		from := *spec.DateFrom
		stages = append(stages, func(r *entity.LedgerEntry) bool {
			return !r.Date.Before(from)
		})
	}
	if spec.DateTo != nil {
		to := *spec.DateTo
		stages = append(stages, func(r *entity.LedgerEntry) bool {
			return !r.Date.After(to)
		})
	}

	if spec.MinAmount != nil {
		lo := *spec.MinAmount
		stages = append(stages, func(r *entity.LedgerEntry) bool {
			return r.Amount.GreaterThanOrEqual(lo)
		})
	}
	if spec.MaxAmount != nil {
		hi := *spec.MaxAmount
		stages = append(stages, func(r *entity.LedgerEntry) bool {
			return r.Amount.LessThanOrEqual(hi)
		})
	}

	if spec.PaymentStatus != nil {
		status := *spec.PaymentStatus
		stages = append(stages, func(r *entity.LedgerEntry) bool {
			return r.PaymentStatus == status
		})
	}

	if len(spec.CategoryLabels) > 0 {
		labels := make(map[string]struct{}, len(spec.CategoryLabels))
		for _, l := range spec.CategoryLabels {
			labels[l] = struct{}{}
		}
		stages = append(stages, func(r *entity.LedgerEntry) bool {
			_, ok := labels[r.CategoryLabel]
			return ok
		})
	}

	if spec.HasDocument != nil {
		want := *spec.HasDocument
		stages = append(stages, func(r *entity.LedgerEntry) bool {
			return r.HasDocument() == want
		})
	}

	if spec.HasBooking != nil {
		want := *spec.HasBooking
		stages = append(stages, func(r *entity.LedgerEntry) bool {
			return r.HasBooking() == want
		})
	}

	return stages
}

// matchesQuery expects q already lower-cased.
func matchesQuery(r *entity.LedgerEntry, q string, bookings map[string]entity.Booking) bool {
	if strings.Contains(strings.ToLower(r.CategoryLabel), q) ||
		strings.Contains(strings.ToLower(r.Description), q) {
		return true
	}
	if !r.HasBooking() || bookings == nil {
		return false
	}
	booking, ok := bookings[*r.BookingID]
	if !ok {
		return false
	}
	for _, field := range booking.DisplayFields() {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// sortEntries orders by key and direction; ties always fall back to ID
// ascending so repeated calls produce the same sequence.
func sortEntries(entries []*entity.LedgerEntry, key valueobject.SortKey, dir valueobject.SortDirection) {
	if key == "" {
		key = valueobject.SortByDate
	}
	desc := dir == valueobject.SortDesc

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		cmp := compareBy(a, b, key)
		if cmp == 0 {
			return a.ID < b.ID
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func compareBy(a, b *entity.LedgerEntry, key valueobject.SortKey) int {
	switch key {
	case valueobject.SortByAmount:
		return a.Amount.Cmp(b.Amount)
	case valueobject.SortByLabel:
		return strings.Compare(strings.ToLower(a.CategoryLabel), strings.ToLower(b.CategoryLabel))
	default:
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		}
		return 0
	}
}
