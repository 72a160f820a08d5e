package valueobject

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/expense-ledger/backend/internal/domain/entity"
)

// PaginationMode is fixed per deployment and never mixed within a session.
type PaginationMode string

const (
	PaginationModeClient PaginationMode = "client"
	PaginationModeServer PaginationMode = "server"
)

// IsValid reports whether the mode is known.
func (m PaginationMode) IsValid() bool {
	return m == PaginationModeClient || m == PaginationModeServer
}

// Cursor marks a position in the ingestion-ordered root list.
type Cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        string    `json:"id"`
}

// Encode returns the opaque form handed to callers.
func (c Cursor) Encode() string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses an opaque cursor. An empty string yields nil.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// CursorOf returns the cursor positioned at expense.
func CursorOf(expense entity.RawExpense) Cursor {
	return Cursor{CreatedAt: expense.CreatedAt, ID: expense.ID}
}

// PageQuery is a bounded server-side page request.
type PageQuery struct {
	Category *entity.ExpenseCategory
	After    *Cursor
	Limit    int
}

// PagerState is the persisted position of one pagination session.
type PagerState struct {
	Mode      PaginationMode `json:"mode"`
	FilterKey string         `json:"filter_key"`
	Page      int            `json:"page"`
	// StartCursor precedes the current server page; EndCursor is its last row.
	StartCursor string `json:"start_cursor,omitempty"`
	EndCursor   string `json:"end_cursor,omitempty"`
	Exhausted   bool   `json:"exhausted,omitempty"`
}
