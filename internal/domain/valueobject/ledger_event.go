package valueobject

import "time"

// LedgerEventType names a ledger event.
type LedgerEventType string

const (
	EventLedgerReconciled LedgerEventType = "ledger.reconciled"
	EventBulkMutation     LedgerEventType = "ledger.bulk_mutation"
)

// LedgerEvent is published after a view is published or a bulk mutation ends.
type LedgerEvent struct {
	Type        LedgerEventType `json:"type"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Sequence    uint64          `json:"sequence,omitempty"`
	Roots       int             `json:"roots,omitempty"`
	Expenses    int             `json:"expenses,omitempty"`
	Corrections int             `json:"corrections,omitempty"`
	Operation   string          `json:"operation,omitempty"`
	Succeeded   []string        `json:"succeeded,omitempty"`
	Failed      []string        `json:"failed,omitempty"`
}
