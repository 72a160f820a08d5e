package dto

import (
	"time"

	"github.com/expense-ledger/backend/internal/application/usecase/expense"
	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/ledger"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

const dateLayout = "2006-01-02"

// CreateExpenseRequest represents the request body for expense creation.
type CreateExpenseRequest struct {
	Category      string  `json:"category" binding:"required"`
	Amount        string  `json:"amount" binding:"required"`
	Date          string  `json:"date" binding:"required"`
	PaymentStatus string  `json:"payment_status,omitempty"`
	ParentID      *string `json:"parent_id,omitempty"`
	BookingID     *string `json:"booking_id,omitempty"`
	DocumentRef   *string `json:"document_ref,omitempty"`
	Description   string  `json:"description,omitempty"`
	CategoryLabel string  `json:"category_label,omitempty"`
}

// UpdatePaymentStatusRequest sets a status explicitly. An empty body toggles it.
type UpdatePaymentStatusRequest struct {
	Status *string `json:"status,omitempty" binding:"omitempty,oneof=pending paid"`
}

// BulkStatusRequest represents the request body for a bulk status change.
type BulkStatusRequest struct {
	IDs    []string `json:"ids" binding:"required,min=1"`
	Status string   `json:"status" binding:"required,oneof=pending paid"`
}

// BulkDeleteRequest represents the request body for a bulk delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// ExpenseResponse represents a single expense in API responses.
type ExpenseResponse struct {
	ID            string    `json:"id"`
	Category      string    `json:"category"`
	Amount        string    `json:"amount"`
	Date          string    `json:"date"`
	CreatedAt     time.Time `json:"created_at"`
	PaymentStatus string    `json:"payment_status"`
	ParentID      *string   `json:"parent_id,omitempty"`
	BookingID     *string   `json:"booking_id,omitempty"`
	DocumentRef   *string   `json:"document_ref,omitempty"`
	Description   string    `json:"description"`
	CategoryLabel string    `json:"category_label,omitempty"`
}

// LedgerEntryResponse is a root expense with its sub-entries.
type LedgerEntryResponse struct {
	ExpenseResponse
	Children    []ExpenseResponse `json:"children"`
	TotalAmount string            `json:"total_amount"`
	Orphaned    bool              `json:"orphaned,omitempty"`
}

// ExpenseListResponse represents a page of the ledger.
type ExpenseListResponse struct {
	SessionID    string                `json:"session_id"`
	Mode         string                `json:"mode"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	Total        *int                  `json:"total,omitempty"`
	PageCount    *int                  `json:"page_count,omitempty"`
	HasMore      *bool                 `json:"has_more,omitempty"`
	Entries      []LedgerEntryResponse `json:"entries,omitempty"`
	Rows         []LedgerEntryResponse `json:"rows,omitempty"`
	ViewSequence uint64                `json:"view_sequence,omitempty"`
	Stale        bool                  `json:"stale"`
}

// PaymentStatusResponse reports a single status change.
type PaymentStatusResponse struct {
	ID       string `json:"id"`
	Previous string `json:"previous"`
	Status   string `json:"status"`
}

// BulkFailureResponse is one expense a bulk operation could not change.
type BulkFailureResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkMutationResponse partitions a bulk request into succeeded and failed IDs.
type BulkMutationResponse struct {
	Succeeded []string              `json:"succeeded"`
	Failed    []BulkFailureResponse `json:"failed"`
}

// BucketStatsResponse is one row of the ledger summary.
type BucketStatsResponse struct {
	Count  int    `json:"count"`
	Amount string `json:"amount"`
}

// StatsResponse represents the ledger summary.
type StatsResponse struct {
	Buckets      map[string]BucketStatsResponse `json:"buckets"`
	ViewSequence uint64                         `json:"view_sequence"`
	Stale        bool                           `json:"stale"`
}

// ExportRowResponse is one row of an export.
type ExportRowResponse struct {
	ID                string `json:"id"`
	IsSubEntry        bool   `json:"is_sub_entry"`
	ParentID          string `json:"parent_id,omitempty"`
	ParentDescription string `json:"parent_description,omitempty"`
	Category          string `json:"category"`
	CategoryLabel     string `json:"category_label,omitempty"`
	Description       string `json:"description"`
	Date              string `json:"date"`
	Amount            string `json:"amount"`
	TotalAmount       string `json:"total_amount"`
	PaymentStatus     string `json:"payment_status"`
	BookingID         string `json:"booking_id,omitempty"`
	HasDocument       bool   `json:"has_document"`
}

// ExportResponse represents an export in JSON form.
type ExportResponse struct {
	Rows         []ExportRowResponse `json:"rows"`
	ViewSequence uint64              `json:"view_sequence"`
}

// ToExpenseResponse converts a domain Expense to an ExpenseResponse DTO.
func ToExpenseResponse(e *entity.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		Category:      string(e.Category),
		Amount:        e.Amount.StringFixed(2),
		Date:          e.Date.Format(dateLayout),
		CreatedAt:     e.CreatedAt,
		PaymentStatus: string(e.PaymentStatus),
		ParentID:      e.ParentID,
		BookingID:     e.BookingID,
		DocumentRef:   e.DocumentRef,
		Description:   e.Description,
		CategoryLabel: e.CategoryLabel,
	}
}

// ToLedgerEntryResponse converts a root with its sub-entries.
func ToLedgerEntryResponse(root *entity.LedgerEntry) LedgerEntryResponse {
	children := make([]ExpenseResponse, len(root.Children))
	for i, child := range root.Children {
		children[i] = ToExpenseResponse(child)
	}
	return LedgerEntryResponse{
		ExpenseResponse: ToExpenseResponse(&root.Expense),
		Children:        children,
		TotalAmount:     root.TotalAmount.StringFixed(2),
		Orphaned:        root.Orphaned,
	}
}

// ToExpenseListResponse converts a list output. Client mode carries totals;
// server mode carries only whether another page exists.
func ToExpenseListResponse(output *expense.ListExpensesOutput) ExpenseListResponse {
	response := ExpenseListResponse{
		SessionID:    output.SessionID,
		Mode:         string(output.Mode),
		Page:         output.Page,
		PageSize:     output.PageSize,
		ViewSequence: output.ViewSequence,
		Stale:        output.FromCache,
	}

	if output.Mode == valueobject.PaginationModeServer {
		hasMore := output.HasMore
		response.HasMore = &hasMore
		response.Rows = make([]LedgerEntryResponse, len(output.Rows))
		for i, root := range output.Rows {
			response.Rows[i] = ToLedgerEntryResponse(root)
		}
		return response
	}

	total, pageCount := output.Total, output.PageCount
	response.Total = &total
	response.PageCount = &pageCount
	response.Entries = make([]LedgerEntryResponse, len(output.Entries))
	for i, root := range output.Entries {
		response.Entries[i] = ToLedgerEntryResponse(root)
	}
	return response
}

// ToBulkMutationResponse converts a bulk output.
func ToBulkMutationResponse(output *expense.BulkMutationOutput) BulkMutationResponse {
	response := BulkMutationResponse{
		Succeeded: output.Succeeded,
		Failed:    make([]BulkFailureResponse, len(output.Failed)),
	}
	if response.Succeeded == nil {
		response.Succeeded = []string{}
	}
	for i, f := range output.Failed {
		response.Failed[i] = BulkFailureResponse{ID: f.ID, Error: f.Err.Error()}
	}
	return response
}

// ToStatsResponse converts a stats output.
func ToStatsResponse(output *expense.GetStatsOutput) StatsResponse {
	buckets := make(map[string]BucketStatsResponse, len(output.Stats))
	for bucket, stats := range output.Stats {
		buckets[string(bucket)] = BucketStatsResponse{
			Count:  stats.Count,
			Amount: stats.Amount.StringFixed(2),
		}
	}
	return StatsResponse{
		Buckets:      buckets,
		ViewSequence: output.ViewSequence,
		Stale:        output.FromCache,
	}
}

// ToExportRowResponse converts one export row.
func ToExportRowResponse(row ledger.ExportRow) ExportRowResponse {
	return ExportRowResponse{
		ID:                row.ID,
		IsSubEntry:        row.IsSubEntry,
		ParentID:          row.ParentID,
		ParentDescription: row.ParentDescription,
		Category:          string(row.Category),
		CategoryLabel:     row.CategoryLabel,
		Description:       row.Description,
		Date:              row.Date.Format(dateLayout),
		Amount:            row.Amount.StringFixed(2),
		TotalAmount:       row.TotalAmount.StringFixed(2),
		PaymentStatus:     string(row.PaymentStatus),
		BookingID:         row.BookingID,
		HasDocument:       row.HasDocument,
	}
}

// ExportColumns is the header row of a CSV export.
var ExportColumns = []string{
	"id", "is_sub_entry", "parent_id", "parent_description", "category", "category_label",
	"description", "date", "amount", "total_amount", "payment_status", "booking_id", "has_document",
}

// Record returns the row as CSV fields in ExportColumns order.
func (r ExportRowResponse) Record() []string {
	return []string{
		r.ID, boolString(r.IsSubEntry), r.ParentID, r.ParentDescription, r.Category, r.CategoryLabel,
		r.Description, r.Date, r.Amount, r.TotalAmount, r.PaymentStatus, r.BookingID, boolString(r.HasDocument),
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
