package dto

import (
	"time"

	"github.com/expense-ledger/backend/internal/application/usecase/ledgerstatus"
)

// LedgerStatusResponse represents the reconciler status.
type LedgerStatusResponse struct {
	State             string     `json:"state"`
	Degraded          bool       `json:"degraded"`
	ReceivedSequence  uint64     `json:"received_sequence"`
	PublishedSequence uint64     `json:"published_sequence"`
	PublishedAt       *time.Time `json:"published_at,omitempty"`
	FromCache         bool       `json:"from_cache"`
	PendingWritebacks int        `json:"pending_writebacks"`
	AppliedWritebacks int64      `json:"applied_writebacks"`
	FailedWritebacks  int64      `json:"failed_writebacks"`
}

// ToLedgerStatusResponse converts a status output.
func ToLedgerStatusResponse(output *ledgerstatus.GetStatusOutput) LedgerStatusResponse {
	return LedgerStatusResponse{
		State:             string(output.State),
		Degraded:          output.Degraded,
		ReceivedSequence:  output.ReceivedSequence,
		PublishedSequence: output.PublishedSequence,
		PublishedAt:       output.PublishedAt,
		FromCache:         output.FromCache,
		PendingWritebacks: output.PendingWritebacks,
		AppliedWritebacks: output.AppliedWritebacks,
		FailedWritebacks:  output.FailedWritebacks,
	}
}
