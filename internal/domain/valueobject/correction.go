package valueobject

import "github.com/expense-ledger/backend/internal/domain/entity"

// CorrectionReason explains why a category was rewritten.
type CorrectionReason string

const (
	// ReasonNonCanonical: the stored value was not a canonical category.
	ReasonNonCanonical CorrectionReason = "non_canonical_category"
	// ReasonMissing: the stored value was absent or not a string.
	ReasonMissing CorrectionReason = "missing_category"
	// ReasonBookingRequiresClient: the entry (or a sub-entry of it) has a booking.
	ReasonBookingRequiresClient CorrectionReason = "booking_requires_client"
	// ReasonParentMismatch: a sub-entry did not share its root's category.
	ReasonParentMismatch CorrectionReason = "parent_category_mismatch"
)

// Correction is a category fix to be written back to the backing store.
type Correction struct {
	ExpenseID string
	From      string
	To        entity.ExpenseCategory
	Reasons   []CorrectionReason
}

// Key identifies the write a correction performs; two corrections with the
// same key are the same idempotent write.
func (c Correction) Key() string {
	return c.ExpenseID + "|" + string(c.To)
}
