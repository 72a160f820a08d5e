package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/domain/entity"
)

type fakeReader struct {
	mu      sync.Mutex
	rows    []entity.RawExpense
	pingErr error
}

func (r *fakeReader) FindAll(_ context.Context) ([]entity.RawExpense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.RawExpense(nil), r.rows...), nil
}

func (r *fakeReader) Ping(_ context.Context) error { return r.pingErr }

func (r *fakeReader) set(rows ...entity.RawExpense) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = rows
}

func row(id, amount string) entity.RawExpense {
	return entity.RawExpense{ID: id, Type: "company", Amount: decimal.RequireFromString(amount)}
}

func receive(t *testing.T, ch <-chan entity.Snapshot) entity.Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatal("expected snapshot, channel closed")
		}
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return entity.Snapshot{}
}

func TestPoller_PushesInitialAndChangedSnapshots(t *testing.T) {
	reader := &fakeReader{}
	reader.set(row("a", "1"))
	poller := NewPoller(reader, PollerConfig{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, err := poller.Subscribe(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := receive(t, snapshots)
	if len(first.Expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(first.Expenses))
	}

	reader.set(row("a", "1"), row("b", "2"))
	second := receive(t, snapshots)
	if len(second.Expenses) != 2 {
		t.Errorf("expected 2 expenses after change, got %d", len(second.Expenses))
	}

	cancel()
	for range snapshots {
	}
}

func TestPoller_SkipsUnchangedUnlessRefreshed(t *testing.T) {
	reader := &fakeReader{}
	reader.set(row("a", "1"))
	poller := NewPoller(reader, PollerConfig{PollInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, err := poller.Subscribe(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	receive(t, snapshots)

	select {
	case <-snapshots:
		t.Fatal("expected no snapshot while the store is unchanged")
	case <-time.After(50 * time.Millisecond):
	}

	poller.Refresh()
	receive(t, snapshots)
}

func TestPoller_SubscribeErrors(t *testing.T) {
	t.Run("unreachable store", func(t *testing.T) {
		reader := &fakeReader{pingErr: errors.New("connection refused")}
		if _, err := NewPoller(reader, DefaultPollerConfig()).Subscribe(context.Background()); err == nil {
			t.Error("expected subscription error")
		}
	})

	t.Run("second subscriber", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		poller := NewPoller(&fakeReader{}, DefaultPollerConfig())
		if _, err := poller.Subscribe(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := poller.Subscribe(ctx); !errors.Is(err, ErrAlreadySubscribed) {
			t.Errorf("expected ErrAlreadySubscribed, got %v", err)
		}
	})
}

func TestFingerprint(t *testing.T) {
	a := []entity.RawExpense{row("a", "1"), row("b", "2")}
	b := []entity.RawExpense{row("a", "1"), row("b", "2.5")}

	if Fingerprint(a) != Fingerprint(a) {
		t.Error("expected stable fingerprint")
	}
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("expected amount change to alter fingerprint")
	}

	parent := "a"
	c := []entity.RawExpense{row("a", "1"), row("b", "2")}
	c[1].ParentID = &parent
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("expected parent change to alter fingerprint")
	}
}
