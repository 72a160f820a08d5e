// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory is the business category an expense is booked under.
type ExpenseCategory string

const (
	ExpenseCategoryCompany ExpenseCategory = "company"
	ExpenseCategoryClient  ExpenseCategory = "client"
	ExpenseCategoryInvoice ExpenseCategory = "invoice"
)

// ExpenseCategories lists the canonical categories in display order.
var ExpenseCategories = []ExpenseCategory{
	ExpenseCategoryCompany,
	ExpenseCategoryClient,
	ExpenseCategoryInvoice,
}

// IsValid reports whether the category is one of the canonical values.
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryCompany, ExpenseCategoryClient, ExpenseCategoryInvoice:
		return true
	}
	return false
}

// PaymentStatus represents whether an expense has been settled.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// IsValid reports whether the status is a known value.
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid
}

// Toggle returns the opposite status.
func (s PaymentStatus) Toggle() PaymentStatus {
	if s == PaymentStatusPaid {
		return PaymentStatusPending
	}
	return PaymentStatusPaid
}

// Expense is a single normalized ledger entry.
type Expense struct {
	ID            string
	Category      ExpenseCategory
	Amount        decimal.Decimal
	Date          time.Time
	CreatedAt     time.Time
	PaymentStatus PaymentStatus
	ParentID      *string // nil for roots
	BookingID     *string
	DocumentRef   *string
	Description   string
	CategoryLabel string
}

// IsRoot reports whether the expense has no parent reference.
func (e *Expense) IsRoot() bool {
	return e.ParentID == nil
}

// HasBooking reports whether the expense is linked to a booking.
func (e *Expense) HasBooking() bool {
	return e.BookingID != nil && *e.BookingID != ""
}

// HasDocument reports whether a document or receipt is attached.
func (e *Expense) HasDocument() bool {
	return e.DocumentRef != nil && *e.DocumentRef != ""
}

// RawExpense is an expense as read from the backing store, before normalization.
// Type carries the loosely-typed category value exactly as stored.
type RawExpense struct {
	ID            string
	Type          any
	Amount        decimal.Decimal
	Date          time.Time
	CreatedAt     time.Time
	PaymentStatus string
	ParentID      *string
	BookingID     *string
	DocumentRef   *string
	Description   string
	CategoryLabel string
}

// LedgerEntry is a root expense with its attached sub-entries.
type LedgerEntry struct {
	Expense
	Children    []*Expense
	TotalAmount decimal.Decimal
	// Orphaned is set when the entry references a parent that is missing or
	// is itself a sub-entry, and was promoted to a standalone root.
	Orphaned bool
}

// Snapshot is one complete push of the backing store's expense collection.
type Snapshot struct {
	Expenses   []RawExpense
	ReceivedAt time.Time
}
