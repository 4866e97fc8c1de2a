// Package focus tracks the focused cell or column header and moves it with
// the keyboard.
//
// Exactly one element is tabbable at a time: the tab index follows focus and
// stays on the last focused element when focus leaves the grid.
package focus

import (
	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/event/topic"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/state"
)

// Revealer scrolls a cell into view. Row indexes address the rendered row
// list, column indexes the visible columns.
type Revealer interface {
	ScrollToIndexes(rowIndex, colIndex int) bool
}

// Options configures the focus engine.
type Options struct {
	// Revealer is asked to scroll newly focused cells into view.
	Revealer Revealer

	// PageRowIDs returns the rendered rows when pagination is on. Nil means
	// every visible row.
	PageRowIDs func() []model.RowID
}

// Engine tracks focus.
type Engine struct {
	store  *state.Store
	bus    *event.Bus
	logger *logging.Logger
	opts   Options
	subs   []event.Subscription
}

// New creates a focus engine. It must subscribe before engines that read the
// focused cell while handling the same key.
func New(store *state.Store, bus *event.Bus, logger *logging.Logger, opts Options) *Engine {
	e := &Engine{store: store, bus: bus, logger: logger, opts: opts}

	prune := func(event.Event) error {
		e.pruneMissing()
		return nil
	}
	e.subs = []event.Subscription{
		bus.On(events.TopicRowsSet, prune),
		bus.On(events.TopicRowsUpdated, prune),
		bus.On(events.TopicColumnsChanged, prune),
		event.Subscribe(bus, events.TopicCellClicked, e.handleCellClick),
		event.Subscribe(bus, events.TopicCellKeyDown, e.handleCellKeyDown),
		event.Subscribe(bus, events.TopicCellEditStopped, e.handleEditStopped),
		event.Subscribe(bus, events.TopicColumnHeaderClicked, e.handleHeaderClick),
		event.Subscribe(bus, events.TopicColumnHeaderKeyDown, e.handleHeaderKeyDown),
	}
	return e
}

// SetOptions replaces the options.
func (e *Engine) SetOptions(opts Options) {
	e.opts = opts
}

// Close unsubscribes the engine.
func (e *Engine) Close() {
	for _, sub := range e.subs {
		e.bus.RemoveListener(sub)
	}
	e.subs = nil
}

// Focus returns the focused element.
func (e *Engine) Focus() state.FocusState {
	return e.store.State().Focus
}

// TabIndex returns the tabbable element.
func (e *Engine) TabIndex() state.FocusState {
	return e.store.State().TabIndex
}

// SetCellFocus focuses a cell and reveals it.
func (e *Engine) SetCellFocus(id any, field string) error {
	key, err := model.NormalizeID(id)
	if err != nil {
		return err
	}
	s := e.store.State()
	if _, ok := s.Rows.Lookup[key]; !ok {
		return model.RowNotFound(key)
	}
	if _, ok := s.Columns.Column(field); !ok {
		return model.ColumnNotFound(field)
	}

	cell := &model.CellIndex{ID: key, Field: field}
	e.set(state.FocusState{Cell: cell})
	e.reveal(key, field)
	return nil
}

// SetColumnHeaderFocus focuses a column header.
func (e *Engine) SetColumnHeaderFocus(field string) error {
	if _, ok := e.store.State().Columns.Column(field); !ok {
		return model.ColumnNotFound(field)
	}
	e.set(state.FocusState{ColumnHeader: field})
	return nil
}

// Blur drops focus and keeps the tab index.
func (e *Engine) Blur() {
	e.setFocusOnly(state.FocusState{})
}

// Navigate moves focus from the focused element for a navigation key. It
// reports whether focus moved.
func (e *Engine) Navigate(key model.KeyInput) bool {
	f := e.Focus()
	switch {
	case f.Cell != nil:
		return e.navigateFromCell(*f.Cell, key)
	case f.ColumnHeader != "":
		return e.navigateFromHeader(f.ColumnHeader, key)
	}
	return false
}

func (e *Engine) navigateFromCell(cell model.CellIndex, key model.KeyInput) bool {
	ids := e.rowIDs()
	cols := e.store.VisibleColumns()
	rowIdx := indexOf(ids, cell.ID)
	colIdx := columnIndex(cols, cell.Field)
	if rowIdx < 0 || colIdx < 0 {
		return false
	}
	lastRow, lastCol := len(ids)-1, len(cols)-1

	switch key.Key {
	case model.KeyArrowUp:
		if rowIdx == 0 {
			return e.SetColumnHeaderFocus(cols[colIdx].Field) == nil
		}
		rowIdx--
	case model.KeyArrowDown:
		rowIdx = min(rowIdx+1, lastRow)
	case model.KeyArrowLeft:
		colIdx = max(colIdx-1, 0)
	case model.KeyArrowRight:
		colIdx = min(colIdx+1, lastCol)
	case model.KeyHome:
		colIdx = 0
		if key.Ctrl || key.Meta {
			rowIdx = 0
		}
	case model.KeyEnd:
		colIdx = lastCol
		if key.Ctrl || key.Meta {
			rowIdx = lastRow
		}
	case model.KeyPageUp:
		rowIdx = max(rowIdx-e.pageStep(), 0)
	case model.KeyPageDown:
		rowIdx = min(rowIdx+e.pageStep(), lastRow)
	default:
		return false
	}

	next := model.CellIndex{ID: ids[rowIdx], Field: cols[colIdx].Field}
	if next == cell {
		return false
	}
	return e.SetCellFocus(next.ID, next.Field) == nil
}

func (e *Engine) navigateFromHeader(field string, key model.KeyInput) bool {
	cols := e.store.VisibleColumns()
	colIdx := columnIndex(cols, field)
	if colIdx < 0 {
		return false
	}

	switch key.Key {
	case model.KeyArrowLeft:
		colIdx = max(colIdx-1, 0)
	case model.KeyArrowRight:
		colIdx = min(colIdx+1, len(cols)-1)
	case model.KeyHome:
		colIdx = 0
	case model.KeyEnd:
		colIdx = len(cols) - 1
	case model.KeyArrowDown:
		ids := e.rowIDs()
		if len(ids) == 0 {
			return false
		}
		return e.SetCellFocus(ids[0], field) == nil
	default:
		return false
	}
	if cols[colIdx].Field == field {
		return false
	}
	return e.SetColumnHeaderFocus(cols[colIdx].Field) == nil
}

// pageStep is the number of rows that fit in the viewport.
func (e *Engine) pageStep() int {
	s := e.store.State()
	if s.Density.RowHeight <= 0 {
		return 1
	}
	return max((s.Viewport.Height-s.Density.HeaderHeight)/s.Density.RowHeight, 1)
}

func (e *Engine) rowIDs() []model.RowID {
	if e.opts.PageRowIDs != nil {
		return e.opts.PageRowIDs()
	}
	return e.store.VisibleSortedRowIDs()
}

func (e *Engine) reveal(id model.RowID, field string) {
	if e.opts.Revealer == nil {
		return
	}
	rowIdx := indexOf(e.rowIDs(), id)
	colIdx := columnIndex(e.store.VisibleColumns(), field)
	if rowIdx < 0 || colIdx < 0 {
		return
	}
	e.opts.Revealer.ScrollToIndexes(rowIdx, colIdx)
}

func (e *Engine) set(f state.FocusState) {
	changed := e.store.SetState(func(s *state.State) *state.State {
		if sameFocus(s.Focus, f) && sameFocus(s.TabIndex, f) {
			return s
		}
		next := s.Clone()
		next.Focus = f
		next.TabIndex = f
		return next
	})
	if changed {
		e.logger.Debug("focus moved to cell %v header %q", f.Cell, f.ColumnHeader)
		e.emit(events.TopicCellFocusChanged, events.CellFocusChanged{Cell: f.Cell, ColumnHeader: f.ColumnHeader})
	}
}

func (e *Engine) setFocusOnly(f state.FocusState) {
	changed := e.store.SetState(func(s *state.State) *state.State {
		if sameFocus(s.Focus, f) {
			return s
		}
		next := s.Clone()
		next.Focus = f
		return next
	})
	if changed {
		e.emit(events.TopicCellFocusChanged, events.CellFocusChanged{Cell: f.Cell, ColumnHeader: f.ColumnHeader})
	}
}

// pruneMissing clears focus and tab index pointing at a removed row or
// column.
func (e *Engine) pruneMissing() {
	s := e.store.State()
	focusGone := e.gone(s, s.Focus)
	tabGone := e.gone(s, s.TabIndex)
	if !focusGone && !tabGone {
		return
	}
	e.logger.Debug("focused element was removed")
	changed := e.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		if focusGone {
			next.Focus = state.FocusState{}
		}
		if tabGone {
			next.TabIndex = state.FocusState{}
		}
		return next
	})
	if changed && focusGone {
		e.emit(events.TopicCellFocusChanged, events.CellFocusChanged{})
	}
}

func (e *Engine) gone(s *state.State, f state.FocusState) bool {
	if f.Cell != nil {
		if _, ok := s.Rows.Lookup[f.Cell.ID]; !ok {
			return true
		}
		_, ok := s.Columns.Column(f.Cell.Field)
		return !ok
	}
	if f.ColumnHeader != "" {
		_, ok := s.Columns.Column(f.ColumnHeader)
		return !ok
	}
	return false
}

func (e *Engine) handleCellClick(ev events.CellClicked) error {
	return e.SetCellFocus(ev.ID, ev.Field)
}

func (e *Engine) handleHeaderClick(ev events.ColumnHeaderClicked) error {
	return e.SetColumnHeaderFocus(ev.Field)
}

func (e *Engine) handleCellKeyDown(ev events.CellKeyDown) error {
	if !model.IsNavigationKey(ev.Key.Key) {
		return nil
	}
	id, err := model.NormalizeID(ev.ID)
	if err != nil {
		return err
	}
	if _, editing := e.store.State().EditRows.Cell(id, ev.Field); editing {
		return nil
	}
	if !e.Focus().IsCell(id, ev.Field) {
		if err := e.SetCellFocus(id, ev.Field); err != nil {
			return err
		}
	}
	e.Navigate(ev.Key)
	return nil
}

func (e *Engine) handleHeaderKeyDown(ev events.ColumnHeaderKeyDown) error {
	if !model.IsNavigationKey(ev.Key.Key) {
		return nil
	}
	if e.Focus().ColumnHeader != ev.Field {
		if err := e.SetColumnHeaderFocus(ev.Field); err != nil {
			return err
		}
	}
	e.Navigate(ev.Key)
	return nil
}

// handleEditStopped moves focus after an edit: down a row for Enter, across
// for Tab, and back onto the cell otherwise.
func (e *Engine) handleEditStopped(ev events.CellEdit) error {
	if _, ok := e.store.State().Rows.Lookup[ev.ID]; !ok {
		return nil
	}
	if err := e.SetCellFocus(ev.ID, ev.Field); err != nil {
		return err
	}
	if ev.Key == nil {
		return nil
	}
	switch ev.Key.Key {
	case model.KeyEnter:
		e.Navigate(model.KeyInput{Key: model.KeyArrowDown})
	case model.KeyTab:
		if ev.Key.Shift {
			e.Navigate(model.KeyInput{Key: model.KeyArrowLeft})
		} else {
			e.Navigate(model.KeyInput{Key: model.KeyArrowRight})
		}
	}
	return nil
}

func (e *Engine) emit(t topic.Topic, payload any) {
	if err := e.bus.Emit(t, payload); err != nil {
		e.logger.Error("%s handler failed: %v", t, err)
	}
}

func sameFocus(a, b state.FocusState) bool {
	if a.ColumnHeader != b.ColumnHeader {
		return false
	}
	if a.Cell == nil || b.Cell == nil {
		return a.Cell == nil && b.Cell == nil
	}
	return *a.Cell == *b.Cell
}

func indexOf(ids []model.RowID, id model.RowID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func columnIndex(cols []*model.Column, field string) int {
	for i, c := range cols {
		if c.Field == field {
			return i
		}
	}
	return -1
}
