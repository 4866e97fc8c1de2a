// Package pagination splits the visible rows into pages.
package pagination

import (
	"errors"
	"fmt"

	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/state"
)

var (
	// ErrPageSizeExceeded is returned when a page size is above MaxPageSize.
	ErrPageSizeExceeded = errors.New("page size exceeds the maximum")

	// ErrInvalidPageSize is returned for page sizes below one.
	ErrInvalidPageSize = errors.New("page size must be positive")
)

// Options configures the pagination engine.
type Options struct {
	// Enabled turns pagination on. When off, the page is every visible row.
	Enabled bool

	// Mode selects whether rows are sliced locally or the server delivers
	// one page at a time.
	Mode model.FeatureMode

	// AutoPageSize derives the page size from the viewport height.
	AutoPageSize bool

	// MaxPageSize caps the page size. Zero means no cap.
	MaxPageSize int
}

// Engine keeps the pagination state in line with the row count.
type Engine struct {
	store  *state.Store
	bus    *event.Bus
	logger *logging.Logger
	opts   Options
	subs   []event.Subscription

	last inputs
}

// inputs are the state revisions pagination depends on.
type inputs struct {
	rows, visible, sorting uint64
	height, rowHeight      int
	headerHeight           int
}

// New creates a pagination engine.
func New(store *state.Store, bus *event.Bus, logger *logging.Logger, opts Options) *Engine {
	e := &Engine{store: store, bus: bus, logger: logger, opts: opts}
	e.subs = []event.Subscription{
		event.Subscribe(bus, events.TopicStateChanged, e.handleStateChanged),
	}
	e.refresh()
	return e
}

// SetOptions replaces the options and recomputes the page.
func (e *Engine) SetOptions(opts Options) {
	e.opts = opts
	e.refresh()
}

// Close unsubscribes the engine.
func (e *Engine) Close() {
	for _, sub := range e.subs {
		e.bus.RemoveListener(sub)
	}
	e.subs = nil
}

// Page returns the zero-based current page.
func (e *Engine) Page() int { return e.store.State().Pagination.Page }

// PageSize returns the rows per page.
func (e *Engine) PageSize() int { return e.store.State().Pagination.PageSize }

// PageCount returns the number of pages.
func (e *Engine) PageCount() int { return e.store.State().Pagination.PageCount }

// RowCount returns the number of rows pagination spans.
func (e *Engine) RowCount() int { return e.store.State().Pagination.RowCount }

// SetPage moves to page, clamped to the existing pages.
func (e *Engine) SetPage(page int) {
	e.logger.Debug("setting page to %d", page)
	e.update(func(p *state.PaginationState) {
		p.Page = page
	})
}

// SetPageSize changes the rows per page. The current page is clamped to the
// new page count.
func (e *Engine) SetPageSize(size int) error {
	if size < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	if e.opts.MaxPageSize > 0 && size > e.opts.MaxPageSize {
		return fmt.Errorf("%w: %d > %d", ErrPageSizeExceeded, size, e.opts.MaxPageSize)
	}
	e.logger.Debug("setting page size to %d", size)
	e.update(func(p *state.PaginationState) {
		p.PageSize = size
	})
	return nil
}

// PageRowIDs returns the ids of the rows on the current page. Without
// pagination, or in server mode where the rows are the page, it returns every
// visible row.
func (e *Engine) PageRowIDs() []model.RowID {
	ids := e.store.VisibleSortedRowIDs()
	if !e.opts.Enabled || e.opts.Mode == model.ModeServer {
		return ids
	}
	return PageSlice(ids, e.Page(), e.PageSize())
}

// PageSlice returns the part of ids on page.
func PageSlice(ids []model.RowID, page, size int) []model.RowID {
	if size < 1 {
		return ids
	}
	start := page * size
	if start >= len(ids) || start < 0 {
		return []model.RowID{}
	}
	return ids[start:min(start+size, len(ids))]
}

// PageCount returns the pages needed for rowCount rows.
func PageCount(rowCount, size int) int {
	if size < 1 || rowCount <= 0 {
		return 0
	}
	return (rowCount + size - 1) / size
}

func (e *Engine) handleStateChanged(ch state.Changed) error {
	s := ch.State
	in := inputs{
		rows:         s.Rows.Rev,
		visible:      s.VisibleRows.Rev,
		sorting:      s.Sorting.Rev,
		height:       s.Viewport.Height,
		rowHeight:    s.Density.RowHeight,
		headerHeight: s.Density.HeaderHeight,
	}
	if in == e.last {
		return nil
	}
	e.last = in
	e.refresh()
	return nil
}

func (e *Engine) refresh() {
	e.update(func(*state.PaginationState) {})
}

// update applies fn to a copy of the pagination state, then recomputes the
// derived counts and clamps the page.
func (e *Engine) update(fn func(p *state.PaginationState)) {
	e.store.SetState(func(s *state.State) *state.State {
		p := s.Pagination
		fn(&p)

		if e.opts.AutoPageSize {
			p.PageSize = e.autoPageSize(s)
		}
		if p.PageSize < 1 {
			p.PageSize = state.DefaultPageSize
		}
		p.RowCount = e.rowCount(s)
		p.PageCount = PageCount(p.RowCount, p.PageSize)
		p.Page = max(min(p.Page, p.PageCount-1), 0)

		p.Rev = s.Pagination.Rev
		if p == s.Pagination {
			return s
		}
		p.Rev++
		next := s.Clone()
		next.Pagination = p
		return next
	})
}

func (e *Engine) rowCount(s *state.State) int {
	if e.opts.Mode == model.ModeServer {
		return s.Rows.TotalRowCount
	}
	return len(e.store.VisibleSortedRowIDs())
}

func (e *Engine) autoPageSize(s *state.State) int {
	if s.Density.RowHeight <= 0 {
		return 1
	}
	size := max((s.Viewport.Height-s.Density.HeaderHeight)/s.Density.RowHeight, 1)
	if e.opts.MaxPageSize > 0 {
		size = min(size, e.opts.MaxPageSize)
	}
	return size
}
