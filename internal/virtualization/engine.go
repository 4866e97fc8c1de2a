package virtualization

import (
	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/event/topic"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/state"
)

// Options configures the engine. Zero buffers and threshold take the
// defaults; a negative value disables them.
type Options struct {
	RowBuffer          int
	ColumnBuffer       int
	ScrollEndThreshold int

	// RowIDs returns the rows to render, typically the current page. Nil means
	// every visible row.
	RowIDs func() []model.RowID
}

// Engine keeps the render window in state and handles scrolling.
type Engine struct {
	store  *state.Store
	bus    *event.Bus
	logger *logging.Logger
	opts   Options
	subs   []event.Subscription

	memo state.Memo[memoKey, model.RenderContext]
}

type memoKey struct {
	width, height           int
	scrollTop, scrollLeft   int
	rowHeight, headerHeight int
	columnsRev              uint64
	rowCount, page          int
	rowBuffer, colBuffer    int
}

// New creates a virtualization engine. It recomputes the render window
// whenever an input changes.
func New(store *state.Store, bus *event.Bus, logger *logging.Logger, opts Options) *Engine {
	e := &Engine{store: store, bus: bus, logger: logger, opts: opts}
	e.subs = []event.Subscription{
		bus.On(events.TopicStateChanged, func(event.Event) error {
			e.Update()
			return nil
		}),
	}
	return e
}

// SetOptions replaces the options.
func (e *Engine) SetOptions(opts Options) {
	e.opts = opts
	e.memo.Reset()
	e.Update()
}

// Close unsubscribes the engine.
func (e *Engine) Close() {
	for _, sub := range e.subs {
		e.bus.RemoveListener(sub)
	}
	e.subs = nil
}

// Geometry returns the current geometry.
func (e *Engine) Geometry() Geometry {
	s := e.store.State()
	cols := e.store.VisibleColumns()
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = c.RenderedWidth()
	}
	return Geometry{
		Width:        s.Viewport.Width,
		Height:       s.Viewport.Height,
		ScrollTop:    s.Rendering.ScrollTop,
		ScrollLeft:   s.Rendering.ScrollLeft,
		RowHeight:    s.Density.RowHeight,
		HeaderHeight: s.Density.HeaderHeight,
		ColumnWidths: widths,
		RowCount:     len(e.rowIDs()),
		RowBuffer:    buffer(e.opts.RowBuffer, DefaultRowBuffer),
		ColumnBuffer: buffer(e.opts.ColumnBuffer, DefaultColumnBuffer),
	}
}

// RenderContext returns the render window for the current state.
func (e *Engine) RenderContext() model.RenderContext {
	s := e.store.State()
	g := e.Geometry()
	key := memoKey{
		width:        g.Width,
		height:       g.Height,
		scrollTop:    g.ScrollTop,
		scrollLeft:   g.ScrollLeft,
		rowHeight:    g.RowHeight,
		headerHeight: g.HeaderHeight,
		columnsRev:   s.Columns.Rev,
		rowCount:     g.RowCount,
		page:         s.Pagination.Page,
		rowBuffer:    g.RowBuffer,
		colBuffer:    g.ColumnBuffer,
	}
	return e.memo.Get(key, func() model.RenderContext { return Compute(g) })
}

// RenderedRowIDs returns the ids inside the render window.
func (e *Engine) RenderedRowIDs() []model.RowID {
	ctx := e.RenderContext()
	ids := e.rowIDs()
	if ctx.LastRowIdx > len(ids) || ctx.FirstRowIdx >= ctx.LastRowIdx {
		return []model.RowID{}
	}
	return ids[ctx.FirstRowIdx:ctx.LastRowIdx]
}

// Update stores the render window when it changed.
func (e *Engine) Update() {
	ctx := e.RenderContext()
	e.store.SetState(func(s *state.State) *state.State {
		if s.Rendering.RenderContext == ctx {
			return s
		}
		next := s.Clone()
		next.Rendering.RenderContext = ctx
		next.Rendering.Rev++
		return next
	})
}

// Scroll moves the viewport to the given offsets, clamped to the content.
func (e *Engine) Scroll(top, left int) {
	g := e.Geometry()
	top = clamp(top, 0, g.MaxScrollTop())
	left = clamp(left, 0, g.MaxScrollLeft())

	changed := e.store.SetState(func(s *state.State) *state.State {
		if s.Rendering.ScrollTop == top && s.Rendering.ScrollLeft == left {
			return s
		}
		next := s.Clone()
		next.Rendering.ScrollTop = top
		next.Rendering.ScrollLeft = left
		next.Rendering.Rev++
		return next
	})
	if changed {
		e.emit(events.TopicViewportScrolled, events.ViewportScrolled{Top: top, Left: left})
	}
	e.checkScrollEnd()
}

// checkScrollEnd emits rows.scroll.end once per approach to the bottom.
func (e *Engine) checkScrollEnd() {
	threshold := buffer(e.opts.ScrollEndThreshold, DefaultScrollEndThreshold)
	g := e.Geometry()
	s := e.store.State()
	near := g.RowCount > 0 && g.ScrollTop+g.BodyHeight() >= g.RowCount*g.RowHeight-threshold
	if near == s.Rendering.ScrollEndReached {
		return
	}

	e.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		next.Rendering.ScrollEndReached = near
		return next
	})
	if !near {
		return
	}
	e.logger.Debug("scroll end reached at %d", g.ScrollTop)
	e.emit(events.TopicRowsScrollEnd, events.RowsScrollEnd{
		VirtualRowsCount: g.RowCount,
		ViewportPageSize: e.ViewportPageSize(),
		VisibleColumns:   e.store.VisibleColumns(),
	})
}

// Resize stores the container size and re-clamps the scroll offsets.
func (e *Engine) Resize(width, height int) {
	width, height = max(width, 0), max(height, 1)
	changed := e.store.SetState(func(s *state.State) *state.State {
		if s.Viewport.Width == width && s.Viewport.Height == height {
			return s
		}
		next := s.Clone()
		next.Viewport = state.ViewportState{Rev: s.Viewport.Rev + 1, Width: width, Height: height}
		return next
	})
	if !changed {
		return
	}
	e.logger.Debug("viewport resized to %dx%d", width, height)
	e.emit(events.TopicViewportResized, events.ViewportResized{Width: width, Height: height})

	s := e.store.State()
	e.Scroll(s.Rendering.ScrollTop, s.Rendering.ScrollLeft)
}

// ViewportPageSize returns how many whole rows fit in the body.
func (e *Engine) ViewportPageSize() int {
	s := e.store.State()
	if s.Density.RowHeight <= 0 {
		return 0
	}
	return max(s.Viewport.Height-s.Density.HeaderHeight, 0) / s.Density.RowHeight
}

// ScrollToIndexes scrolls the least amount that reveals the cell at the
// given row and column index. It reports whether the viewport moved.
func (e *Engine) ScrollToIndexes(rowIndex, colIndex int) bool {
	g := e.Geometry()
	top, left := g.ScrollTop, g.ScrollLeft

	if rowIndex >= 0 && rowIndex < g.RowCount {
		rowTop := rowIndex * g.RowHeight
		switch body := g.BodyHeight(); {
		case rowTop < top:
			top = rowTop
		case rowTop+g.RowHeight > top+body:
			top = rowTop + g.RowHeight - body
		}
	}
	if colIndex >= 0 && colIndex < len(g.ColumnWidths) {
		positions := Positions(g.ColumnWidths)
		colLeft, colRight := positions[colIndex], positions[colIndex+1]
		switch {
		case colLeft < left:
			left = colLeft
		case colRight > left+g.Width:
			left = colRight - g.Width
		}
	}

	if top == g.ScrollTop && left == g.ScrollLeft {
		return false
	}
	e.Scroll(top, left)
	return true
}

func (e *Engine) rowIDs() []model.RowID {
	if e.opts.RowIDs != nil {
		return e.opts.RowIDs()
	}
	return e.store.VisibleSortedRowIDs()
}

func (e *Engine) emit(t topic.Topic, payload any) {
	if err := e.bus.Emit(t, payload); err != nil {
		e.logger.Error("%s handler failed: %v", t, err)
	}
}

func buffer(v, def int) int {
	switch {
	case v == 0:
		return def
	case v < 0:
		return 0
	}
	return v
}
