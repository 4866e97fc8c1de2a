// Package selection maintains the set of selected rows.
//
// Clicks select a single row unless multiple selection is allowed for the
// gesture: checkbox selection, an explicit override, or ctrl/meta held while
// multiple selection is enabled. Shift-click selects the range between the
// last clicked row and the clicked row. Selected ids that leave the row set or
// become unselectable are pruned.
package selection

import (
	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/params"
	"github.com/dshills/gridstorm/internal/state"
)

// RowSelectablePredicate reports whether a row may be selected.
type RowSelectablePredicate func(params model.RowParams) bool

// Options configures the selection engine.
type Options struct {
	CheckboxSelection        bool
	DisableMultipleSelection bool
	DisableSelectionOnClick  bool
	IsRowSelectable          RowSelectablePredicate

	// CheckboxSelectionVisibleOnly limits SelectAll to the current page.
	CheckboxSelectionVisibleOnly bool

	// PageRowIDs returns the ids of the current page. Used with
	// CheckboxSelectionVisibleOnly.
	PageRowIDs func() []model.RowID
}

// Engine maintains the selection model.
type Engine struct {
	store  *state.Store
	bus    *event.Bus
	params *params.Facade
	logger *logging.Logger
	opts   Options
	subs   []event.Subscription

	// anchor is the last row selected by a click, the origin of range
	// selections.
	anchor model.RowID
}

// New creates a selection engine and subscribes it to row and click events.
func New(store *state.Store, bus *event.Bus, facade *params.Facade, logger *logging.Logger, opts Options) *Engine {
	e := &Engine{store: store, bus: bus, params: facade, logger: logger, opts: opts}

	prune := func(event.Event) error {
		e.PruneSelection()
		return nil
	}
	e.subs = []event.Subscription{
		bus.On(events.TopicRowsSet, prune),
		bus.On(events.TopicRowsUpdated, prune),
		bus.On(events.TopicRowsCleared, prune),
		event.Subscribe(bus, events.TopicRowClicked, e.handleRowClick),
		event.Subscribe(bus, events.TopicCellKeyDown, e.handleCellKeyDown),
	}
	return e
}

// SetOptions replaces the options and prunes rows the selectability
// predicate now rejects.
func (e *Engine) SetOptions(opts Options) {
	e.opts = opts
	e.PruneSelection()
}

// Close unsubscribes the engine.
func (e *Engine) Close() {
	for _, sub := range e.subs {
		e.bus.RemoveListener(sub)
	}
	e.subs = nil
}

// GetSelectionModel returns the selected ids in selection order.
func (e *Engine) GetSelectionModel() model.SelectionModel {
	return e.store.State().Selection
}

// GetSelectedRows returns the selected rows in selection order.
func (e *Engine) GetSelectedRows() []model.RowEntry {
	s := e.store.State()
	out := make([]model.RowEntry, 0, len(s.Selection))
	for _, id := range s.Selection {
		if row, ok := s.Rows.Lookup[id]; ok {
			out = append(out, model.RowEntry{ID: id, Row: row})
		}
	}
	return out
}

// IsRowSelected reports whether id is selected.
func (e *Engine) IsRowSelected(id any) bool {
	key, err := model.NormalizeID(id)
	return err == nil && e.GetSelectionModel().Contains(key)
}

// SetSelectionModel replaces the selection.
func (e *Engine) SetSelectionModel(m model.SelectionModel) {
	ids := make(model.SelectionModel, 0, len(m))
	for _, id := range m {
		if key, err := model.NormalizeID(id); err == nil {
			ids = append(ids, key)
		}
	}
	e.setSelection(ids)
}

// SelectRow selects or deselects one row. Unless allowMultiple or checkbox
// selection applies, selecting replaces the selection.
func (e *Engine) SelectRow(id any, isSelected, allowMultiple bool) {
	key, err := model.NormalizeID(id)
	if err != nil {
		return
	}
	if _, ok := e.store.State().Rows.Lookup[key]; !ok {
		return
	}
	e.selectRowModel(key, &isSelected, allowMultiple, false)
}

// selectRowModel implements click semantics. A nil isSelected toggles under
// multiple selection; without it a bare click selects the row alone and a
// multi-key click on a selected row clears the selection.
func (e *Engine) selectRowModel(id model.RowID, isSelected *bool, allowMultipleOverride, multiKey bool) {
	if !e.selectable(id) {
		return
	}
	e.logger.Debug("selecting row %v", id)

	current := e.GetSelectionModel()
	allowMulti := allowMultipleOverride ||
		(!e.opts.DisableMultipleSelection && multiKey) ||
		e.opts.CheckboxSelection

	var next model.SelectionModel
	if allowMulti {
		selected := !current.Contains(id)
		if isSelected != nil {
			selected = *isSelected
		}
		next = without(current, id)
		if selected {
			next = append(next, id)
		}
	} else {
		selected := !multiKey || !current.Contains(id)
		if isSelected != nil {
			selected = *isSelected
		}
		next = model.SelectionModel{}
		if selected {
			next = model.SelectionModel{id}
		}
	}
	e.anchor = id
	e.setSelection(next)
}

// SelectRows selects or deselects several rows at once. Rejected rows are
// skipped. It does nothing for more than one row when multiple selection is
// disabled outside checkbox mode.
func (e *Engine) SelectRows(ids []any, isSelected, deselectOthers bool) {
	var selectable []model.RowID
	for _, id := range ids {
		key, err := model.NormalizeID(id)
		if err != nil || !e.selectable(key) {
			continue
		}
		selectable = append(selectable, key)
	}
	e.selectRows(selectable, isSelected, deselectOthers)
}

func (e *Engine) selectRows(ids []model.RowID, isSelected, deselectOthers bool) {
	if e.opts.DisableMultipleSelection && len(ids) > 1 && !e.opts.CheckboxSelection {
		return
	}

	next := model.SelectionModel{}
	if !deselectOthers {
		next = append(next, e.GetSelectionModel()...)
	}
	for _, id := range ids {
		if isSelected {
			if !next.Contains(id) {
				next = append(next, id)
			}
		} else {
			next = without(next, id)
		}
	}
	e.setSelection(next)
}

// SelectAll selects every visible row, or every row of the current page with
// CheckboxSelectionVisibleOnly.
func (e *Engine) SelectAll() {
	e.selectRows(e.selectableTargets(), true, false)
}

// DeselectAll deselects the rows SelectAll would select.
func (e *Engine) DeselectAll() {
	e.selectRows(e.selectableTargets(), false, false)
}

func (e *Engine) selectableTargets() []model.RowID {
	ids := e.store.VisibleSortedRowIDs()
	if e.opts.CheckboxSelectionVisibleOnly && e.opts.PageRowIDs != nil {
		ids = e.opts.PageRowIDs()
	}
	out := make([]model.RowID, 0, len(ids))
	for _, id := range ids {
		if e.selectable(id) {
			out = append(out, id)
		}
	}
	return out
}

// SelectRange selects the visible rows between the anchor and id, replacing
// the selection.
func (e *Engine) SelectRange(id model.RowID) {
	anchor := e.anchor
	if anchor == nil {
		e.selectRowModel(id, nil, false, false)
		return
	}
	visible := e.store.VisibleSortedRowIDs()
	from, to := -1, -1
	for i, v := range visible {
		if v == anchor {
			from = i
		}
		if v == id {
			to = i
		}
	}
	if from < 0 || to < 0 {
		e.selectRowModel(id, nil, false, false)
		return
	}
	if from > to {
		from, to = to, from
	}

	var ids []model.RowID
	for _, v := range visible[from : to+1] {
		if e.selectable(v) {
			ids = append(ids, v)
		}
	}
	e.selectRows(ids, true, true)
}

// PruneSelection drops selected ids that are gone or no longer selectable.
func (e *Engine) PruneSelection() {
	e.prune(func(s *state.State, id model.RowID) bool {
		_, ok := s.Rows.Lookup[id]
		return ok && e.selectable(id)
	})
}

func (e *Engine) prune(keep func(s *state.State, id model.RowID) bool) {
	s := e.store.State()
	next := make(model.SelectionModel, 0, len(s.Selection))
	for _, id := range s.Selection {
		if keep(s, id) {
			next = append(next, id)
		}
	}
	if len(next) == len(s.Selection) {
		return
	}
	e.logger.Debug("pruning %d selected rows", len(s.Selection)-len(next))
	e.setSelection(next)
}

func (e *Engine) selectable(id model.RowID) bool {
	if e.opts.IsRowSelectable == nil {
		return true
	}
	p, err := e.params.GetRowParams(id)
	return err == nil && e.opts.IsRowSelectable(p)
}

func (e *Engine) setSelection(next model.SelectionModel) {
	e.store.SetState(func(s *state.State) *state.State {
		if state.Equal(s.Selection, next) {
			return s
		}
		ns := s.Clone()
		ns.Selection = next
		return ns
	})
}

func (e *Engine) multipleAllowed() bool {
	return e.opts.CheckboxSelection || !e.opts.DisableMultipleSelection
}

func (e *Engine) handleRowClick(p events.RowClicked) error {
	if e.opts.DisableSelectionOnClick {
		return nil
	}
	id, err := model.NormalizeID(p.ID)
	if err != nil {
		return err
	}
	if p.Pointer.Shift && e.multipleAllowed() {
		e.SelectRange(id)
		return nil
	}
	e.selectRowModel(id, nil, false, p.Pointer.MultiKey())
	return nil
}

func (e *Engine) handleCellKeyDown(p events.CellKeyDown) error {
	id, err := model.NormalizeID(p.ID)
	if err != nil {
		return err
	}
	if e.params.GetCellMode(id, p.Field) == model.CellModeEdit {
		return nil
	}

	key := p.Key
	switch {
	case key.Key == model.KeySpace && key.Shift:
		e.SelectRow(id, true, false)
	case model.IsNavigationKey(key.Key) && key.Shift && e.multipleAllowed():
		// Focus reacts to the same key first and has already moved.
		if focus := e.store.State().Focus.Cell; focus != nil {
			e.SelectRange(focus.ID)
		}
	case (key.Key == "a" || key.Key == "A") && (key.Ctrl || key.Meta):
		e.SelectAll()
	}
	return nil
}

func without(m model.SelectionModel, id model.RowID) model.SelectionModel {
	out := make(model.SelectionModel, 0, len(m))
	for _, v := range m {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
