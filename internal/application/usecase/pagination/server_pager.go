package pagination

import (
	"context"
	"fmt"

	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/domain/entity"
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
	"github.com/expense-ledger/backend/internal/domain/ledger"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// ServerPage is one server-mode page of reconciled roots, each carrying its
// sub-entries and family total.
type ServerPage struct {
	Items   []*entity.LedgerEntry
	Number  int
	HasMore bool
}

// ServerPager walks root expenses forward through the backing store.
// Going back to an earlier page restarts from page 1.
type ServerPager struct {
	fetcher  adapter.PageFetcher
	size     int
	category *entity.ExpenseCategory

	page      int
	start     *valueobject.Cursor // cursor preceding the current page
	end       *valueobject.Cursor // last row of the current page
	exhausted bool
}

// NewServerPager creates a pager positioned before page 1.
func NewServerPager(fetcher adapter.PageFetcher, size int, category *entity.ExpenseCategory) (*ServerPager, error) {
	if size < 1 {
		return nil, domainerror.ErrInvalidPageSize
	}
	return &ServerPager{fetcher: fetcher, size: size, category: category}, nil
}

// Current returns the number of the last fetched page, 0 before the first fetch.
func (p *ServerPager) Current() int {
	return p.page
}

// Next fetches the page after the current one. Once the store is exhausted it
// returns an empty page without moving.
func (p *ServerPager) Next(ctx context.Context) (ServerPage, error) {
	if p.exhausted {
		return ServerPage{Number: p.page + 1, Items: []*entity.LedgerEntry{}}, nil
	}

	items, hasMore, err := p.fetch(ctx, p.end)
	if err != nil {
		return ServerPage{}, err
	}
	if len(items) == 0 && p.page > 0 {
		p.exhausted = true
		return ServerPage{Number: p.page + 1, Items: items}, nil
	}

	p.page++
	p.start = p.end
	if len(items) > 0 {
		last := valueobject.Cursor{CreatedAt: items[len(items)-1].CreatedAt, ID: items[len(items)-1].ID}
		p.end = &last
	}
	p.exhausted = !hasMore

	return ServerPage{Items: items, Number: p.page, HasMore: hasMore}, nil
}

// Goto moves to page n. Earlier pages trigger a refetch from the start and
// return page 1; the current page is refetched in place.
func (p *ServerPager) Goto(ctx context.Context, n int) (ServerPage, error) {
	if n < 1 {
		return ServerPage{}, domainerror.ErrInvalidPage
	}

	switch {
	case n < p.page:
		p.Reset()
		return p.Next(ctx)
	case n == p.page:
		items, hasMore, err := p.fetch(ctx, p.start)
		if err != nil {
			return ServerPage{}, err
		}
		return ServerPage{Items: items, Number: p.page, HasMore: hasMore}, nil
	}

	var page ServerPage
	for p.page < n {
		before := p.page
		next, err := p.Next(ctx)
		if err != nil {
			return ServerPage{}, err
		}
		page = next
		if p.page == before {
			break
		}
	}
	if page.Number != n {
		page = ServerPage{Number: n, Items: []*entity.LedgerEntry{}}
	}
	return page, nil
}

// Reset positions the pager before page 1.
func (p *ServerPager) Reset() {
	p.page = 0
	p.start = nil
	p.end = nil
	p.exhausted = false
}

// State captures the pager position for a session.
func (p *ServerPager) State(filterKey string) valueobject.PagerState {
	state := valueobject.PagerState{
		Mode:      valueobject.PaginationModeServer,
		FilterKey: filterKey,
		Page:      p.page,
		Exhausted: p.exhausted,
	}
	if p.start != nil {
		state.StartCursor = p.start.Encode()
	}
	if p.end != nil {
		state.EndCursor = p.end.Encode()
	}
	return state
}

// Restore repositions the pager from a saved state.
func (p *ServerPager) Restore(state valueobject.PagerState) error {
	if state.Mode != valueobject.PaginationModeServer {
		return domainerror.ErrPaginationModeMismatch
	}
	start, err := valueobject.DecodeCursor(state.StartCursor)
	if err != nil {
		return fmt.Errorf("%w: %v", domainerror.ErrInvalidCursor, err)
	}
	end, err := valueobject.DecodeCursor(state.EndCursor)
	if err != nil {
		return fmt.Errorf("%w: %v", domainerror.ErrInvalidCursor, err)
	}
	p.page = state.Page
	p.start = start
	p.end = end
	p.exhausted = state.Exhausted
	return nil
}

// fetch reads one page after cursor, asking for one extra row to learn
// whether more pages exist, then loads the sub-entries of its top-level rows
// and reconciles them so every item carries its family.
func (p *ServerPager) fetch(ctx context.Context, after *valueobject.Cursor) ([]*entity.LedgerEntry, bool, error) {
	rows, err := p.fetcher.FetchRootPage(ctx, valueobject.PageQuery{
		Category: p.category,
		After:    after,
		Limit:    p.size + 1,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch page: %w", err)
	}

	hasMore := len(rows) > p.size
	if hasMore {
		rows = rows[:p.size]
	}

	var parentIDs []string
	for _, row := range rows {
		if row.ParentID == nil || *row.ParentID == "" {
			parentIDs = append(parentIDs, row.ID)
		}
	}
	var children []entity.RawExpense
	if len(parentIDs) > 0 {
		children, err = p.fetcher.FetchChildren(ctx, parentIDs)
		if err != nil {
			return nil, false, fmt.Errorf("failed to fetch sub-entries: %w", err)
		}
	}

	family := make([]entity.RawExpense, 0, len(rows)+len(children))
	family = append(family, rows...)
	family = append(family, children...)

	byID := make(map[string]*entity.LedgerEntry, len(rows))
	for _, root := range ledger.Reconcile(family).Roots {
		byID[root.ID] = root
	}

	// Keep the store order; the linker sorts by ID.
	items := make([]*entity.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		if root, ok := byID[row.ID]; ok {
			items = append(items, root)
		}
	}
	return items, hasMore, nil
}
