package reconciler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/domain/entity"
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// fakeStore records applied corrections and can fail selected expenses.
type fakeStore struct {
	mu      sync.Mutex
	applied map[string]entity.ExpenseCategory
	calls   int
	failIDs map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		applied: make(map[string]entity.ExpenseCategory),
		failIDs: make(map[string]bool),
	}
}

func (s *fakeStore) ApplyCorrection(_ context.Context, c valueobject.Correction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failIDs[c.ExpenseID] {
		return errors.New("store unavailable")
	}
	s.applied[c.ExpenseID] = c.To
	return nil
}

func (s *fakeStore) setFailing(id string, failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failIDs[id] = failing
}

func (s *fakeStore) category(id string) (entity.ExpenseCategory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.applied[id]
	return c, ok
}

type fakeCache struct {
	mu    sync.Mutex
	view  *entity.LedgerView
	saves int
}

func (c *fakeCache) Save(_ context.Context, view *entity.LedgerView) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = view
	c.saves++
	return nil
}

func (c *fakeCache) Load(_ context.Context) (*entity.LedgerView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return nil, domainerror.ErrNoPublishedView
	}
	copied := *c.view
	return &copied, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []valueobject.LedgerEvent
}

func (p *fakePublisher) Publish(_ context.Context, _ string, event valueobject.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type channelSource struct {
	ch  chan entity.Snapshot
	err error
}

func (s *channelSource) Subscribe(_ context.Context) (<-chan entity.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ch, nil
}

func (s *channelSource) Refresh() {}

func strPtr(s string) *string { return &s }

func rawExpense(id string, typ any, amount string, parentID *string) entity.RawExpense {
	return entity.RawExpense{
		ID:            id,
		Type:          typ,
		Amount:        decimal.RequireFromString(amount),
		PaymentStatus: "pending",
		ParentID:      parentID,
	}
}

func snapshotOf(raws ...entity.RawExpense) entity.Snapshot {
	return entity.Snapshot{Expenses: raws, ReceivedAt: time.Now()}
}

func newTestReconciler(store *fakeStore, opts ...Option) (*Reconciler, *WritebackDispatcher) {
	dispatcher := NewWritebackDispatcher(store, WritebackConfig{Concurrency: 2, Timeout: time.Second})
	return NewReconciler(dispatcher, opts...), dispatcher
}

func TestReconciler_SubmitPublishesAndWritesBack(t *testing.T) {
	store := newFakeStore()
	publishedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r, dispatcher := newTestReconciler(store, WithClock(func() time.Time { return publishedAt }))

	if _, err := r.View(); !errors.Is(err, domainerror.ErrNoPublishedView) {
		t.Fatalf("expected ErrNoPublishedView before first pass, got %v", err)
	}

	view := r.Submit(context.Background(), snapshotOf(
		rawExpense("r1", "invoice", "100", nil),
		rawExpense("c1", "company", "20", strPtr("r1")),
		rawExpense("r2", "Client", "5", nil),
	))
	if view == nil {
		t.Fatal("expected a published view")
	}
	dispatcher.Wait()

	if len(view.Roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(view.Roots))
	}
	if !view.PublishedAt.Equal(publishedAt) {
		t.Errorf("expected published at %s, got %s", publishedAt, view.PublishedAt)
	}
	if got, ok := store.category("c1"); !ok || got != entity.ExpenseCategoryInvoice {
		t.Errorf("expected c1 written back as invoice, got %q (written: %v)", got, ok)
	}
	if got, ok := store.category("r2"); !ok || got != entity.ExpenseCategoryClient {
		t.Errorf("expected r2 written back as client, got %q (written: %v)", got, ok)
	}
	if _, ok := store.category("r1"); ok {
		t.Error("expected canonical r1 not to be written back")
	}

	status := r.Status()
	if status.State != StateIdle {
		t.Errorf("expected state idle, got %s", status.State)
	}
	if status.PublishedSequence != 1 {
		t.Errorf("expected published sequence 1, got %d", status.PublishedSequence)
	}
	if status.AppliedWritebacks != 2 {
		t.Errorf("expected 2 applied write-backs, got %d", status.AppliedWritebacks)
	}
}

func TestReconciler_WritebackFailureDoesNotBlockPublication(t *testing.T) {
	store := newFakeStore()
	store.setFailing("c1", true)
	r, dispatcher := newTestReconciler(store)

	snap := snapshotOf(
		rawExpense("r1", "client", "10", nil),
		rawExpense("c1", "company", "2", strPtr("r1")),
	)

	view := r.Submit(context.Background(), snap)
	if view == nil {
		t.Fatal("expected view to be published despite write-back failure")
	}
	if view.Roots[0].Children[0].Category != entity.ExpenseCategoryClient {
		t.Errorf("expected child corrected to client in view, got %s", view.Roots[0].Children[0].Category)
	}
	dispatcher.Wait()

	if r.Status().FailedWritebacks != 1 {
		t.Errorf("expected 1 failed write-back, got %d", r.Status().FailedWritebacks)
	}
	if !dispatcher.RetryPending() {
		t.Error("expected a retry to be pending after the failure")
	}

	// The next pass re-derives the same correction and retries it.
	store.setFailing("c1", false)
	r.Submit(context.Background(), snap)
	dispatcher.Wait()

	if got, ok := store.category("c1"); !ok || got != entity.ExpenseCategoryClient {
		t.Errorf("expected c1 written back on retry, got %q (written: %v)", got, ok)
	}
	if dispatcher.RetryPending() {
		t.Error("expected no retry pending after the write succeeded")
	}
}

func TestWritebackDispatcher_ForgetsCorrectionsNoLongerDerived(t *testing.T) {
	store := newFakeStore()
	store.setFailing("c1", true)
	dispatcher := NewWritebackDispatcher(store, WritebackConfig{Concurrency: 1, Timeout: time.Second})

	dispatcher.Dispatch([]valueobject.Correction{{ExpenseID: "c1", From: "company", To: entity.ExpenseCategoryClient}})
	dispatcher.Wait()
	if !dispatcher.RetryPending() {
		t.Fatal("expected a retry to be pending after the failure")
	}

	// The expense was fixed or deleted elsewhere; the pass derives nothing.
	if started := dispatcher.Dispatch(nil); started != 0 {
		t.Errorf("expected 0 writes started, got %d", started)
	}
	if dispatcher.RetryPending() {
		t.Error("expected the stale failure to be forgotten")
	}
}

func TestReconciler_StaleSnapshotIsNotPublished(t *testing.T) {
	store := newFakeStore()
	r, _ := newTestReconciler(store)
	ctx := context.Background()

	older := r.received.Add(1)
	newer := r.received.Add(1)

	if view := r.reconcile(ctx, newer, snapshotOf(rawExpense("b", "company", "2", nil))); view == nil {
		t.Fatal("expected newest snapshot to be published")
	}
	if view := r.reconcile(ctx, older, snapshotOf(rawExpense("a", "company", "1", nil))); view != nil {
		t.Fatal("expected superseded snapshot to be discarded")
	}

	view, err := r.View()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Roots) != 1 || view.Roots[0].ID != "b" {
		t.Errorf("expected view from newest snapshot, got %+v", view.Roots)
	}
}

func TestReconciler_IdempotentPasses(t *testing.T) {
	store := newFakeStore()
	r, dispatcher := newTestReconciler(store)
	snap := snapshotOf(
		rawExpense("r1", "invoice", "100", nil),
		rawExpense("c1", "invoice", "20", strPtr("r1")),
	)

	first := r.Submit(context.Background(), snap)
	second := r.Submit(context.Background(), snap)
	dispatcher.Wait()

	if store.calls != 0 {
		t.Errorf("expected no write-backs for a clean snapshot, got %d", store.calls)
	}
	if !first.Roots[0].TotalAmount.Equal(second.Roots[0].TotalAmount) {
		t.Errorf("expected identical totals, got %s and %s", first.Roots[0].TotalAmount, second.Roots[0].TotalAmount)
	}
	if second.Sequence <= first.Sequence {
		t.Errorf("expected increasing sequence, got %d then %d", first.Sequence, second.Sequence)
	}
}

func TestReconciler_SubscribersSeeLatestView(t *testing.T) {
	r, _ := newTestReconciler(newFakeStore())
	views, cancel := r.Subscribe()
	defer cancel()

	r.Submit(context.Background(), snapshotOf(rawExpense("a", "company", "1", nil)))
	r.Submit(context.Background(), snapshotOf(rawExpense("b", "company", "1", nil)))

	select {
	case view := <-views:
		if view.Sequence != 2 {
			t.Errorf("expected slow subscriber to get sequence 2, got %d", view.Sequence)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a view notification")
	}

	select {
	case view := <-views:
		t.Errorf("expected no further notification, got sequence %d", view.Sequence)
	default:
	}
}

func TestReconciler_CacheAndEvents(t *testing.T) {
	cache := &fakeCache{}
	events := &fakePublisher{}
	r, _ := newTestReconciler(newFakeStore(), WithViewCache(cache), WithEventPublisher(events))

	if err := r.Restore(context.Background()); !errors.Is(err, domainerror.ErrNoPublishedView) {
		t.Errorf("expected ErrNoPublishedView from empty cache, got %v", err)
	}

	r.Submit(context.Background(), snapshotOf(rawExpense("a", "invoice", "7", nil)))

	if cache.saves != 1 {
		t.Errorf("expected 1 cache save, got %d", cache.saves)
	}
	if len(events.events) != 1 || events.events[0].Type != valueobject.EventLedgerReconciled {
		t.Fatalf("expected one reconciled event, got %+v", events.events)
	}
	if events.events[0].Expenses != 1 {
		t.Errorf("expected event to count 1 expense, got %d", events.events[0].Expenses)
	}

	// A fresh process warm-starts from the cache.
	restarted, _ := newTestReconciler(newFakeStore(), WithViewCache(cache))
	if err := restarted.Restore(context.Background()); err != nil {
		t.Fatalf("unexpected restore error: %v", err)
	}
	status := restarted.Status()
	if !status.FromCache {
		t.Error("expected restored view to be marked as from cache")
	}

	restarted.Submit(context.Background(), snapshotOf(rawExpense("b", "invoice", "1", nil)))
	if restarted.Status().FromCache {
		t.Error("expected live view to replace cached view")
	}
}

func TestReconciler_RunDegradesWhenSubscriptionFails(t *testing.T) {
	r, _ := newTestReconciler(newFakeStore())

	err := r.Run(context.Background(), &channelSource{err: errors.New("connection refused")})
	if !errors.Is(err, domainerror.ErrSubscriptionUnavailable) {
		t.Fatalf("expected ErrSubscriptionUnavailable, got %v", err)
	}
	if !IsSubscriptionError(err) {
		t.Error("expected IsSubscriptionError to match")
	}

	var ledgerErr *domainerror.LedgerError
	if !errors.As(err, &ledgerErr) || ledgerErr.Code != domainerror.ErrCodeSubscriptionUnavailable {
		t.Errorf("expected ledger error code %s, got %v", domainerror.ErrCodeSubscriptionUnavailable, err)
	}
	if !r.IsDegraded() {
		t.Error("expected reconciler to be degraded")
	}
}

func TestReconciler_RunProcessesPushedSnapshots(t *testing.T) {
	r, _ := newTestReconciler(newFakeStore())
	source := &channelSource{ch: make(chan entity.Snapshot, 3)}

	source.ch <- snapshotOf(rawExpense("a", "company", "1", nil))
	source.ch <- snapshotOf(rawExpense("a", "company", "1", nil), rawExpense("b", "client", "2", nil))
	source.ch <- snapshotOf(rawExpense("c", "invoice", "3", nil))
	close(source.ch)

	if err := r.Run(context.Background(), source); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := r.View()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Roots) != 1 || view.Roots[0].ID != "c" {
		t.Errorf("expected view of last snapshot, got %+v", view.Roots)
	}
	if view.Sequence != 3 {
		t.Errorf("expected sequence 3, got %d", view.Sequence)
	}
	if r.IsDegraded() {
		t.Error("expected reconciler not to be degraded")
	}
}
