// Package ledger holds the pure reconciliation pipeline: normalization,
// hierarchy linking, filtering, aggregation and export row building.
// Nothing in this package performs I/O or mutates its inputs.
package ledger

import (
	"fmt"
	"strings"

	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// DefaultCategory is assigned to entries with a missing or unknown category.
const DefaultCategory = entity.ExpenseCategoryCompany

// NormalizeResult reports whether Normalize changed the stored category.
type NormalizeResult struct {
	WasCorrected bool
	// Defaulted is set when the stored value was not recognised at all and
	// DefaultCategory was assigned.
	Defaulted bool
	From      string
	Reasons   []valueobject.CorrectionReason
}

// Correction builds the write-back for a corrected entry.
func (r NormalizeResult) Correction(e entity.Expense) valueobject.Correction {
	return valueobject.Correction{
		ExpenseID: e.ID,
		From:      r.From,
		To:        e.Category,
		Reasons:   r.Reasons,
	}
}

// Normalize coerces the raw category to a canonical value and applies the
// booking rule. It never fails: anything unrecognised becomes DefaultCategory.
func Normalize(raw entity.RawExpense) (entity.Expense, NormalizeResult) {
	category, from, reason := canonicalCategory(raw.Type)

	var result NormalizeResult
	result.From = from
	if reason != "" {
		result.Reasons = append(result.Reasons, reason)
		result.Defaulted = reason == valueobject.ReasonMissing || !entity.ExpenseCategory(strings.ToLower(strings.TrimSpace(from))).IsValid()
	}

	expense := entity.Expense{
		ID:            raw.ID,
		Category:      category,
		Amount:        raw.Amount,
		Date:          raw.Date,
		CreatedAt:     raw.CreatedAt,
		PaymentStatus: normalizePaymentStatus(raw.PaymentStatus),
		ParentID:      nonEmpty(raw.ParentID),
		BookingID:     nonEmpty(raw.BookingID),
		DocumentRef:   nonEmpty(raw.DocumentRef),
		Description:   raw.Description,
		CategoryLabel: raw.CategoryLabel,
	}

	if expense.HasBooking() && expense.Category != entity.ExpenseCategoryClient {
		expense.Category = entity.ExpenseCategoryClient
		result.Reasons = append(result.Reasons, valueobject.ReasonBookingRequiresClient)
	}

	result.WasCorrected = string(expense.Category) != from
	if !result.WasCorrected {
		result.Reasons = nil
	}
	return expense, result
}

// canonicalCategory maps a loosely-typed stored value onto a category.
// from is the stored value as text ("" when absent).
func canonicalCategory(value any) (category entity.ExpenseCategory, from string, reason valueobject.CorrectionReason) {
	switch v := value.(type) {
	case nil:
		return DefaultCategory, "", valueobject.ReasonMissing
	case string:
		c := entity.ExpenseCategory(strings.ToLower(strings.TrimSpace(v)))
		if !c.IsValid() {
			if strings.TrimSpace(v) == "" {
				return DefaultCategory, v, valueobject.ReasonMissing
			}
			return DefaultCategory, v, valueobject.ReasonNonCanonical
		}
		if string(c) != v {
			return c, v, valueobject.ReasonNonCanonical
		}
		return c, v, ""
	case *string:
		if v == nil {
			return DefaultCategory, "", valueobject.ReasonMissing
		}
		return canonicalCategory(*v)
	case entity.ExpenseCategory:
		return canonicalCategory(string(v))
	default:
		return DefaultCategory, fmt.Sprint(v), valueobject.ReasonMissing
	}
}

func normalizePaymentStatus(s string) entity.PaymentStatus {
	status := entity.PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return entity.PaymentStatusPending
	}
	return status
}

// nonEmpty treats empty references as absent.
func nonEmpty(ref *string) *string {
	if ref == nil || strings.TrimSpace(*ref) == "" {
		return nil
	}
	v := *ref
	return &v
}
