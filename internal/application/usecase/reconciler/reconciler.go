// Package reconciler owns the reconciled ledger state. It turns full snapshots
// from the backing store into published, immutable ledger views.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/domain/entity"
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
	"github.com/expense-ledger/backend/internal/domain/ledger"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// State is the reconciler's processing state.
type State string

const (
	StateIdle        State = "idle"
	StateReconciling State = "reconciling"
)

// Status is a point-in-time summary of the reconciler.
type Status struct {
	State             State
	Degraded          bool
	ReceivedSequence  uint64
	PublishedSequence uint64
	PublishedAt       time.Time
	FromCache         bool
	PendingWritebacks int
	AppliedWritebacks int64
	FailedWritebacks  int64
}

// Option configures optional collaborators.
type Option func(*Reconciler)

// WithViewCache stores every published view and allows warm starts.
func WithViewCache(cache adapter.ViewCache) Option {
	return func(r *Reconciler) { r.cache = cache }
}

// WithEventPublisher announces every published view.
func WithEventPublisher(events adapter.EventPublisher) Option {
	return func(r *Reconciler) { r.events = events }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// Reconciler is the single writer of the reconciled ledger state.
type Reconciler struct {
	writeback *WritebackDispatcher
	cache     adapter.ViewCache
	events    adapter.EventPublisher
	now       func() time.Time

	received atomic.Uint64
	inflight atomic.Int32
	degraded atomic.Bool
	current  atomic.Pointer[entity.LedgerView]

	publishMu sync.Mutex

	subsMu  sync.Mutex
	subs    map[int]chan *entity.LedgerView
	nextSub int
}

// NewReconciler creates a new Reconciler.
func NewReconciler(writeback *WritebackDispatcher, opts ...Option) *Reconciler {
	r := &Reconciler{
		writeback: writeback,
		now:       time.Now,
		subs:      make(map[int]chan *entity.LedgerView),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type pending struct {
	seq      uint64
	snapshot entity.Snapshot
}

// Run subscribes to source and reconciles every snapshot it pushes until ctx
// is cancelled or the source closes. Snapshots arriving while a pass is
// running are coalesced: only the newest waiting one is processed next.
func (r *Reconciler) Run(ctx context.Context, source adapter.SnapshotSource) error {
	snapshots, err := source.Subscribe(ctx)
	if err != nil {
		r.degraded.Store(true)
		slog.Error("Ledger subscription could not be established, serving last known view",
			"error", err,
		)
		return domainerror.NewLedgerError(
			domainerror.ErrCodeSubscriptionUnavailable,
			"backing store subscription unavailable",
			fmt.Errorf("%w: %v", domainerror.ErrSubscriptionUnavailable, err),
		)
	}
	r.degraded.Store(false)
	slog.Info("Ledger reconciler started")

	mailbox := make(chan pending, 1)
	go func() {
		defer close(mailbox)
		for snapshot := range snapshots {
			p := pending{seq: r.received.Add(1), snapshot: snapshot}
			select {
			case mailbox <- p:
			default:
				select {
				case dropped := <-mailbox:
					slog.Debug("Snapshot superseded before reconciliation", "sequence", dropped.seq)
				default:
				}
				mailbox <- p
			}
		}
	}()

	for p := range mailbox {
		r.reconcile(ctx, p.seq, p.snapshot)
	}

	slog.Info("Ledger reconciler stopped")
	return nil
}

// Submit reconciles one snapshot and returns the published view, or nil when
// a newer snapshot was received meanwhile and this pass was superseded.
func (r *Reconciler) Submit(ctx context.Context, snapshot entity.Snapshot) *entity.LedgerView {
	return r.reconcile(ctx, r.received.Add(1), snapshot)
}

func (r *Reconciler) reconcile(ctx context.Context, seq uint64, snapshot entity.Snapshot) *entity.LedgerView {
	r.inflight.Add(1)
	defer r.inflight.Add(-1)

	logger := slog.With("sequence", seq, "expenses", len(snapshot.Expenses))

	result := ledger.Reconcile(snapshot.Expenses)
	if result.Defaulted > 0 {
		logger.Warn("Expenses with missing or unknown category defaulted",
			"count", result.Defaulted,
			"category", ledger.DefaultCategory,
		)
	}
	if result.Orphans > 0 {
		logger.Warn("Sub-entries with unresolvable parent promoted to roots", "count", result.Orphans)
	}
	if result.Duplicates > 0 {
		logger.Warn("Duplicate expense IDs in snapshot", "count", result.Duplicates)
	}

	started := r.writeback.Dispatch(result.Corrections)
	if len(result.Corrections) > 0 {
		logger.Info("Category corrections queued for write-back",
			"corrections", len(result.Corrections),
			"dispatched", started,
		)
	}

	view := &entity.LedgerView{
		Sequence:    seq,
		PublishedAt: r.now().UTC(),
		Roots:       result.Roots,
	}

	if !r.publish(view) {
		logger.Debug("Reconciled view superseded by a newer snapshot")
		return nil
	}

	logger.Debug("Ledger view published", "roots", len(view.Roots))
	r.afterPublish(ctx, view, len(result.Corrections))
	return view
}

// publish installs view unless a newer snapshot has been received.
func (r *Reconciler) publish(view *entity.LedgerView) bool {
	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	if view.Sequence != r.received.Load() {
		return false
	}
	if cur := r.current.Load(); cur != nil && !cur.FromCache && cur.Sequence >= view.Sequence {
		return false
	}

	r.current.Store(view)
	r.notify(view)
	return true
}

func (r *Reconciler) afterPublish(ctx context.Context, view *entity.LedgerView, corrections int) {
	if r.cache != nil {
		if err := r.cache.Save(ctx, view); err != nil {
			slog.Warn("Failed to cache ledger view", "sequence", view.Sequence, "error", err)
		}
	}
	if r.events != nil {
		event := valueobject.LedgerEvent{
			Type:        valueobject.EventLedgerReconciled,
			OccurredAt:  view.PublishedAt,
			Sequence:    view.Sequence,
			Roots:       len(view.Roots),
			Expenses:    view.ExpenseCount(),
			Corrections: corrections,
		}
		if err := r.events.Publish(ctx, "ledger", event); err != nil {
			slog.Warn("Failed to publish ledger event", "sequence", view.Sequence, "error", err)
		}
	}
}

// Restore publishes the cached view if nothing has been published yet.
func (r *Reconciler) Restore(ctx context.Context) error {
	if r.cache == nil {
		return domainerror.ErrNoPublishedView
	}
	view, err := r.cache.Load(ctx)
	if err != nil {
		return err
	}
	view.FromCache = true

	r.publishMu.Lock()
	defer r.publishMu.Unlock()
	if r.current.Load() != nil {
		return nil
	}
	r.current.Store(view)
	r.notify(view)

	slog.Info("Ledger view restored from cache",
		"sequence", view.Sequence,
		"published_at", view.PublishedAt,
		"roots", len(view.Roots),
	)
	return nil
}

// View returns the latest published view, or ErrNoPublishedView.
func (r *Reconciler) View() (*entity.LedgerView, error) {
	view := r.current.Load()
	if view == nil {
		return nil, domainerror.ErrNoPublishedView
	}
	return view, nil
}

// Subscribe returns a channel that receives every newly published view.
// A slow subscriber only ever sees the latest view. Call cancel to stop.
func (r *Reconciler) Subscribe() (views <-chan *entity.LedgerView, cancel func()) {
	ch := make(chan *entity.LedgerView, 1)

	r.subsMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.subsMu.Lock()
			delete(r.subs, id)
			r.subsMu.Unlock()
			close(ch)
		})
	}
}

// notify is called with publishMu held, so sends happen in publication order.
func (r *Reconciler) notify(view *entity.LedgerView) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()

	for _, ch := range r.subs {
		select {
		case ch <- view:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}

// Status reports the current state of the reconciler.
func (r *Reconciler) Status() Status {
	status := Status{
		State:             StateIdle,
		Degraded:          r.degraded.Load(),
		ReceivedSequence:  r.received.Load(),
		PendingWritebacks: r.writeback.Pending(),
		AppliedWritebacks: r.writeback.Applied(),
		FailedWritebacks:  r.writeback.Failed(),
	}
	if r.inflight.Load() > 0 {
		status.State = StateReconciling
	}
	if view := r.current.Load(); view != nil {
		status.PublishedSequence = view.Sequence
		status.PublishedAt = view.PublishedAt
		status.FromCache = view.FromCache
	}
	return status
}

// IsDegraded reports whether the subscription could not be established.
func (r *Reconciler) IsDegraded() bool {
	return r.degraded.Load()
}

// IsSubscriptionError reports whether err came from a failed subscription.
func IsSubscriptionError(err error) bool {
	return errors.Is(err, domainerror.ErrSubscriptionUnavailable)
}
