package expense

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/application/usecase/pagination"
	"github.com/expense-ledger/backend/internal/domain/entity"
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
	"github.com/expense-ledger/backend/internal/domain/ledger"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// ViewProvider exposes the latest published ledger view.
type ViewProvider interface {
	View() (*entity.LedgerView, error)
}

// ListExpensesInput represents the input for listing expenses.
type ListExpensesInput struct {
	SessionID string
	Mode      valueobject.PaginationMode // empty means the configured mode
	Selector  valueobject.CategorySelector
	Filter    valueobject.FilterSpec
	Page      int // 0 keeps the session's current page
}

// ListExpensesOutput represents one page of the ledger.
// Client mode fills Entries and the totals; server mode fills Rows and HasMore.
type ListExpensesOutput struct {
	SessionID string
	Mode      valueobject.PaginationMode
	Page      int
	PageSize  int

	Entries   []*entity.LedgerEntry
	Total     int
	PageCount int

	Rows    []*entity.LedgerEntry
	HasMore bool

	ViewSequence uint64
	FromCache    bool
}

// ListExpensesConfig holds pagination settings for listing.
type ListExpensesConfig struct {
	Mode     valueobject.PaginationMode
	PageSize int
}

// ListExpensesUseCase handles filtered, sorted and paginated listing.
type ListExpensesUseCase struct {
	views       ViewProvider
	bookingRepo adapter.BookingRepository
	fetcher     adapter.PageFetcher
	sessions    adapter.PagerSessionStore
	config      ListExpensesConfig
}

// NewListExpensesUseCase creates a new ListExpensesUseCase instance.
func NewListExpensesUseCase(
	views ViewProvider,
	bookingRepo adapter.BookingRepository,
	fetcher adapter.PageFetcher,
	sessions adapter.PagerSessionStore,
	config ListExpensesConfig,
) *ListExpensesUseCase {
	if !config.Mode.IsValid() {
		config.Mode = valueobject.PaginationModeClient
	}
	if config.PageSize < 1 {
		config.PageSize = 25
	}
	return &ListExpensesUseCase{
		views:       views,
		bookingRepo: bookingRepo,
		fetcher:     fetcher,
		sessions:    sessions,
		config:      config,
	}
}

// Execute performs the listing.
func (uc *ListExpensesUseCase) Execute(ctx context.Context, input ListExpensesInput) (*ListExpensesOutput, error) {
	if input.Mode != "" && input.Mode != uc.config.Mode {
		return nil, domainerror.NewLedgerError(
			domainerror.ErrCodePaginationModeMismatch,
			"pagination mode is fixed to "+string(uc.config.Mode),
			domainerror.ErrPaginationModeMismatch,
		)
	}
	if input.Page < 0 {
		return nil, domainerror.NewLedgerError(
			domainerror.ErrCodeInvalidPage,
			"page must be at least 1",
			domainerror.ErrInvalidPage,
		)
	}
	if input.Selector == "" {
		input.Selector = valueobject.CategorySelectorAll
	}

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	state, found, err := uc.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var output *ListExpensesOutput
	if uc.config.Mode == valueobject.PaginationModeServer {
		output, state, err = uc.serverPage(ctx, input, state, found)
	} else {
		output, state, err = uc.clientPage(ctx, input, state, found)
	}
	if err != nil {
		return nil, err
	}

	if err := uc.sessions.Save(ctx, sessionID, state); err != nil {
		slog.Warn("Failed to save pagination session", "session_id", sessionID, "error", err)
	}

	output.SessionID = sessionID
	output.Mode = uc.config.Mode
	output.PageSize = uc.config.PageSize
	return output, nil
}

func (uc *ListExpensesUseCase) clientPage(
	ctx context.Context,
	input ListExpensesInput,
	state valueobject.PagerState,
	found bool,
) (*ListExpensesOutput, valueobject.PagerState, error) {
	view, err := uc.views.View()
	if err != nil {
		return nil, state, viewError(err)
	}

	var bookings map[string]entity.Booking
	if input.Filter.Query != "" {
		bookings = loadBookings(ctx, uc.bookingRepo, view.Roots)
	}
	filtered := ledger.ApplyFilter(view.Roots, input.Selector, input.Filter, bookings)
	key := filterKey(input.Selector, input.Filter)

	pager, err := pagination.NewClientPager[*entity.LedgerEntry](uc.config.PageSize)
	if err != nil {
		return nil, state, err
	}
	pager.Resume(state.FilterKey, state.Page)
	pager.SetItems(filtered, key)

	n := pager.Current()
	if input.Page > 0 && (!found || state.FilterKey == key) {
		n = input.Page
	}
	page, err := pager.Page(n)
	if err != nil {
		return nil, state, err
	}

	next := valueobject.PagerState{
		Mode:      valueobject.PaginationModeClient,
		FilterKey: key,
		Page:      pager.Current(),
	}
	return &ListExpensesOutput{
		Page:         page.Number,
		Entries:      page.Items,
		Total:        page.Total,
		PageCount:    page.PageCount,
		ViewSequence: view.Sequence,
		FromCache:    view.FromCache,
	}, next, nil
}

func (uc *ListExpensesUseCase) serverPage(
	ctx context.Context,
	input ListExpensesInput,
	state valueobject.PagerState,
	found bool,
) (*ListExpensesOutput, valueobject.PagerState, error) {
	if !serverFilterable(input.Filter) {
		return nil, state, domainerror.NewLedgerError(
			domainerror.ErrCodeInvalidFilter,
			"server pagination supports category selection only",
			nil,
		)
	}

	var category *entity.ExpenseCategory
	if c, ok := input.Selector.Category(); ok {
		category = &c
	}
	key := filterKey(input.Selector, valueobject.FilterSpec{})

	pager, err := pagination.NewServerPager(uc.fetcher, uc.config.PageSize, category)
	if err != nil {
		return nil, state, err
	}
	if found && state.FilterKey == key {
		if err := pager.Restore(state); err != nil {
			return nil, state, domainerror.NewLedgerError(
				domainerror.ErrCodeInvalidCursor,
				"pagination session is corrupt",
				err,
			)
		}
	}

	n := input.Page
	if n == 0 {
		n = pager.Current()
	}
	if n == 0 {
		n = 1
	}
	page, err := pager.Goto(ctx, n)
	if err != nil {
		return nil, state, err
	}

	return &ListExpensesOutput{
		Page:    page.Number,
		Rows:    page.Items,
		HasMore: page.HasMore,
	}, pager.State(key), nil
}

// loadSession returns the saved state and whether one existed. Sessions are
// best-effort: a failing store starts a fresh session.
func (uc *ListExpensesUseCase) loadSession(ctx context.Context, sessionID string) (valueobject.PagerState, bool, error) {
	fresh := valueobject.PagerState{Mode: uc.config.Mode, Page: 1}

	state, err := uc.sessions.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domainerror.ErrSessionNotFound) {
			slog.Warn("Failed to load pagination session", "session_id", sessionID, "error", err)
		}
		return fresh, false, nil
	}
	if state.Mode != uc.config.Mode {
		return fresh, false, domainerror.NewLedgerError(
			domainerror.ErrCodePaginationModeMismatch,
			"session was created with "+string(state.Mode)+" pagination",
			domainerror.ErrPaginationModeMismatch,
		)
	}
	return *state, true, nil
}

// loadBookings fetches display fields of the bookings referenced by roots.
// Search degrades to expense fields only when the lookup fails.
func loadBookings(ctx context.Context, bookingRepo adapter.BookingRepository, roots []*entity.LedgerEntry) map[string]entity.Booking {
	var ids []string
	for _, r := range roots {
		if r.HasBooking() {
			ids = append(ids, *r.BookingID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	bookings, err := bookingRepo.FindByIDs(ctx, ids)
	if err != nil {
		slog.Warn("Failed to load bookings for search", "count", len(ids), "error", err)
		return nil
	}
	return bookings
}

// filterKey identifies a selector and filter combination.
func filterKey(selector valueobject.CategorySelector, spec valueobject.FilterSpec) string {
	data, _ := json.Marshal(struct {
		Selector valueobject.CategorySelector `json:"s"`
		Filter   valueobject.FilterSpec       `json:"f"`
	}{selector, spec})
	return string(data)
}

// serverFilterable reports whether spec only uses what a bounded store query
// can honour: no narrowing beyond category and the natural newest-first order.
func serverFilterable(spec valueobject.FilterSpec) bool {
	if spec.Query != "" || spec.DateFrom != nil || spec.DateTo != nil ||
		spec.MinAmount != nil || spec.MaxAmount != nil || spec.PaymentStatus != nil ||
		len(spec.CategoryLabels) > 0 || spec.HasDocument != nil || spec.HasBooking != nil {
		return false
	}
	if spec.SortKey != "" && spec.SortKey != valueobject.SortByDate {
		return false
	}
	return spec.SortDirection == "" || spec.SortDirection == valueobject.SortDesc
}

func viewError(err error) error {
	if errors.Is(err, domainerror.ErrNoPublishedView) {
		return domainerror.NewLedgerError(
			domainerror.ErrCodeNoPublishedView,
			"ledger is still loading",
			err,
		)
	}
	return err
}
