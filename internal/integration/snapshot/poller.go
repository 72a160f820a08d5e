// Package snapshot turns the backing store into a stream of full snapshots.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/expense-ledger/backend/internal/domain/entity"
)

// ErrAlreadySubscribed is returned when a second subscriber attaches.
var ErrAlreadySubscribed = errors.New("snapshot source already has a subscriber")

// ExpenseReader is the part of the expense store the poller needs.
type ExpenseReader interface {
	FindAll(ctx context.Context) ([]entity.RawExpense, error)
	Ping(ctx context.Context) error
}

// PollerConfig holds configuration for the snapshot poller.
type PollerConfig struct {
	PollInterval time.Duration
	// RetryPending, when set, forces a push on the next tick while it
	// reports true, so failed write-backs are retried against a store that
	// has not changed.
	RetryPending func() bool
}

// DefaultPollerConfig returns the default poller configuration.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{PollInterval: 2 * time.Second}
}

// Poller pushes a snapshot whenever the expense collection changes.
// It implements adapter.SnapshotSource.
type Poller struct {
	reader       ExpenseReader
	pollInterval time.Duration
	retryPending func() bool
	refresh      chan struct{}
	subscribed   atomic.Bool
	fingerprint  uint64
	now          func() time.Time
}

// NewPoller creates a new snapshot poller.
func NewPoller(reader ExpenseReader, config PollerConfig) *Poller {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollerConfig().PollInterval
	}
	return &Poller{
		reader:       reader,
		pollInterval: config.PollInterval,
		retryPending: config.RetryPending,
		refresh:      make(chan struct{}, 1),
		now:          time.Now,
	}
}

// Subscribe verifies the store is reachable and starts polling. The channel
// is closed when ctx is cancelled.
func (p *Poller) Subscribe(ctx context.Context) (<-chan entity.Snapshot, error) {
	if err := p.reader.Ping(ctx); err != nil {
		return nil, fmt.Errorf("backing store unreachable: %w", err)
	}
	if !p.subscribed.CompareAndSwap(false, true) {
		return nil, ErrAlreadySubscribed
	}

	out := make(chan entity.Snapshot, 1)
	go p.run(ctx, out)
	return out, nil
}

// Refresh requests an immediate snapshot. Requests made while one is pending
// are merged.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

func (p *Poller) run(ctx context.Context, out chan<- entity.Snapshot) {
	defer close(out)
	defer p.subscribed.Store(false)

	slog.Info("Snapshot poller started", "poll_interval", p.pollInterval)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.poll(ctx, out, true)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Snapshot poller shutting down")
			return
		case <-ticker.C:
			p.poll(ctx, out, p.retryPending != nil && p.retryPending())
		case <-p.refresh:
			p.poll(ctx, out, true)
		}
	}
}

// poll reads the collection and pushes it if it changed or force is set.
func (p *Poller) poll(ctx context.Context, out chan<- entity.Snapshot, force bool) {
	rows, err := p.reader.FindAll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("Failed to read expense snapshot", "error", err)
		}
		return
	}

	fp := Fingerprint(rows)
	if !force && fp == p.fingerprint {
		return
	}
	p.fingerprint = fp

	snapshot := entity.Snapshot{Expenses: rows, ReceivedAt: p.now().UTC()}
	select {
	case out <- snapshot:
		slog.Debug("Snapshot pushed", "expenses", len(rows), "forced", force)
	case <-ctx.Done():
	}
}

// Fingerprint hashes every stored field so any insert, update or delete
// changes the result.
func Fingerprint(rows []entity.RawExpense) uint64 {
	h := fnv.New64a()
	for _, r := range rows {
		fmt.Fprintf(h, "%s|%v|%s|%d|%d|%s|%s|%s|%s|%s|%s\n",
			r.ID, r.Type, r.Amount.String(),
			r.Date.UnixNano(), r.CreatedAt.UnixNano(),
			r.PaymentStatus, deref(r.ParentID), deref(r.BookingID), deref(r.DocumentRef),
			r.Description, r.CategoryLabel,
		)
	}
	return h.Sum64()
}

func deref(s *string) string {
	if s == nil {
		return "\x00"
	}
	return *s
}
