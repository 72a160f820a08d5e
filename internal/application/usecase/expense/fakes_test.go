package expense

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/expense-ledger/backend/internal/domain/entity"
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

var errStoreDown = errors.New("store unavailable")

// fakeExpenseRepository is an in-memory backing store.
type fakeExpenseRepository struct {
	mu          sync.Mutex
	rows        map[string]entity.RawExpense
	failUpdate  map[string]bool
	failDelete  map[string]bool
	failDetach  map[string]bool
	created     []*entity.Expense
	updateCalls []string
}

func newFakeExpenseRepository(rows ...entity.RawExpense) *fakeExpenseRepository {
	r := &fakeExpenseRepository{
		rows:       make(map[string]entity.RawExpense),
		failUpdate: make(map[string]bool),
		failDelete: make(map[string]bool),
		failDetach: make(map[string]bool),
	}
	for _, row := range rows {
		r.rows[row.ID] = row
	}
	return r
}

func (r *fakeExpenseRepository) FindAll(_ context.Context) ([]entity.RawExpense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.RawExpense, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeExpenseRepository) FindByID(_ context.Context, id string) (*entity.RawExpense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, domainerror.ErrExpenseNotFound
	}
	return &row, nil
}

func (r *fakeExpenseRepository) FindChildren(_ context.Context, parentID string) ([]entity.RawExpense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.RawExpense
	for _, row := range r.rows {
		if row.ParentID != nil && *row.ParentID == parentID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeExpenseRepository) Create(_ context.Context, e *entity.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, e)
	r.rows[e.ID] = entity.RawExpense{
		ID:            e.ID,
		Type:          string(e.Category),
		Amount:        e.Amount,
		Date:          e.Date,
		CreatedAt:     e.CreatedAt,
		PaymentStatus: string(e.PaymentStatus),
		ParentID:      e.ParentID,
		BookingID:     e.BookingID,
		DocumentRef:   e.DocumentRef,
		Description:   e.Description,
		CategoryLabel: e.CategoryLabel,
	}
	return nil
}

func (r *fakeExpenseRepository) UpdatePaymentStatus(_ context.Context, id string, status entity.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls = append(r.updateCalls, id)
	if r.failUpdate[id] {
		return errStoreDown
	}
	row, ok := r.rows[id]
	if !ok {
		return domainerror.ErrExpenseNotFound
	}
	row.PaymentStatus = string(status)
	r.rows[id] = row
	return nil
}

func (r *fakeExpenseRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete[id] {
		return errStoreDown
	}
	if _, ok := r.rows[id]; !ok {
		return domainerror.ErrExpenseNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeExpenseRepository) ClearParent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDetach[id] {
		return errStoreDown
	}
	row := r.rows[id]
	row.ParentID = nil
	r.rows[id] = row
	return nil
}

func (r *fakeExpenseRepository) Ping(_ context.Context) error { return nil }

func (r *fakeExpenseRepository) ApplyCorrection(_ context.Context, c valueobject.Correction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.rows[c.ExpenseID]
	row.Type = string(c.To)
	r.rows[c.ExpenseID] = row
	return nil
}

func (r *fakeExpenseRepository) FetchRootPage(_ context.Context, q valueobject.PageQuery) ([]entity.RawExpense, error) {
	all, _ := r.FindAll(context.Background())
	var out []entity.RawExpense
	for _, row := range all {
		if row.ParentID != nil {
			continue
		}
		if q.After != nil && row.ID <= q.After.ID {
			continue
		}
		out = append(out, row)
		if len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (r *fakeExpenseRepository) FetchChildren(_ context.Context, parentIDs []string) ([]entity.RawExpense, error) {
	all, _ := r.FindAll(context.Background())
	wanted := make(map[string]bool, len(parentIDs))
	for _, id := range parentIDs {
		wanted[id] = true
	}
	var out []entity.RawExpense
	for _, row := range all {
		if row.ParentID != nil && wanted[*row.ParentID] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeExpenseRepository) row(id string) (entity.RawExpense, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	return row, ok
}

// fakeSource counts refresh requests.
type fakeSource struct {
	mu        sync.Mutex
	refreshes int
}

func (s *fakeSource) Subscribe(_ context.Context) (<-chan entity.Snapshot, error) {
	return make(chan entity.Snapshot), nil
}

func (s *fakeSource) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
}

type fakePublisher struct {
	events []valueobject.LedgerEvent
}

func (p *fakePublisher) Publish(_ context.Context, _ string, event valueobject.LedgerEvent) error {
	p.events = append(p.events, event)
	return nil
}

type fakeViews struct {
	view *entity.LedgerView
}

func (v *fakeViews) View() (*entity.LedgerView, error) {
	if v.view == nil {
		return nil, domainerror.ErrNoPublishedView
	}
	return v.view, nil
}

type fakeSessions struct {
	states map[string]valueobject.PagerState
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{states: make(map[string]valueobject.PagerState)}
}

func (s *fakeSessions) Load(_ context.Context, id string) (*valueobject.PagerState, error) {
	state, ok := s.states[id]
	if !ok {
		return nil, domainerror.ErrSessionNotFound
	}
	return &state, nil
}

func (s *fakeSessions) Save(_ context.Context, id string, state valueobject.PagerState) error {
	s.states[id] = state
	return nil
}

type fakeBookings struct {
	bookings map[string]entity.Booking
}

func (b *fakeBookings) FindByIDs(_ context.Context, ids []string) (map[string]entity.Booking, error) {
	out := make(map[string]entity.Booking)
	for _, id := range ids {
		if booking, ok := b.bookings[id]; ok {
			out[id] = booking
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }
