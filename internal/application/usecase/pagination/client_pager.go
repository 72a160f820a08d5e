// Package pagination slices filtered ledger views for display.
//
// Two strategies exist and are never mixed within one session: ClientPager
// holds the full filtered list in memory, ServerPager holds only a forward
// cursor into the backing store.
package pagination

import (
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
)

// Page is one client-mode page.
type Page[T any] struct {
	Items     []T
	Number    int
	Size      int
	Total     int
	PageCount int
}

// ClientPager pages over a fully materialized list.
type ClientPager[T any] struct {
	size      int
	items     []T
	filterKey string
	current   int
}

// NewClientPager creates a pager with the given page size.
func NewClientPager[T any](size int) (*ClientPager[T], error) {
	if size < 1 {
		return nil, domainerror.ErrInvalidPageSize
	}
	return &ClientPager[T]{size: size, current: 1}, nil
}

// Resume restores a saved position before the list is set again.
func (p *ClientPager[T]) Resume(filterKey string, page int) {
	if page < 1 {
		page = 1
	}
	p.filterKey = filterKey
	p.current = page
}

// SetItems replaces the list. A different filter key resets the pager to page 1.
func (p *ClientPager[T]) SetItems(items []T, filterKey string) {
	if filterKey != p.filterKey {
		p.current = 1
	}
	p.items = items
	p.filterKey = filterKey
}

// Page returns page n and makes it current.
func (p *ClientPager[T]) Page(n int) (Page[T], error) {
	page, err := Slice(p.items, n, p.size)
	if err != nil {
		return Page[T]{}, err
	}
	p.current = n
	return page, nil
}

// Current returns the current page number.
func (p *ClientPager[T]) Current() int {
	return p.current
}

// PageCount returns ceil(total/size).
func (p *ClientPager[T]) PageCount() int {
	return PageCount(len(p.items), p.size)
}

// Slice returns items [(n-1)*size, n*size). Pages past the end are empty.
func Slice[T any](items []T, n, size int) (Page[T], error) {
	if size < 1 {
		return Page[T]{}, domainerror.ErrInvalidPageSize
	}
	if n < 1 {
		return Page[T]{}, domainerror.ErrInvalidPage
	}

	page := Page[T]{
		Number:    n,
		Size:      size,
		Total:     len(items),
		PageCount: PageCount(len(items), size),
		Items:     []T{},
	}

	start := (n - 1) * size
	if start >= len(items) {
		return page, nil
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	page.Items = items[start:end:end]
	return page, nil
}

// PageCount returns the number of pages needed for total items.
func PageCount(total, size int) int {
	if size < 1 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
