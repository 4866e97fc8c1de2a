// Package sorting derives the row order from the sort model.
//
// A sort model is an ordered list of (field, direction) items. In client mode
// the engine chains the columns' comparators in model order; the first
// non-zero result wins and ties keep the insertion order. In server mode the
// caller supplies pre-sorted rows and the engine adopts their order.
package sorting

import (
	"sort"

	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/params"
	"github.com/dshills/gridstorm/internal/state"
)

// Options configures the sort engine.
type Options struct {
	Mode model.FeatureMode

	// SortingOrder is the direction cycle of header gestures. Defaults to
	// asc, desc, none.
	SortingOrder []model.SortDirection

	DisableMultipleColumnsSorting bool
}

// Engine derives sorted row ids.
type Engine struct {
	store  *state.Store
	bus    *event.Bus
	params *params.Facade
	logger *logging.Logger
	opts   Options
	subs   []event.Subscription
}

// New creates a sort engine and subscribes it to row, column and header
// events.
func New(store *state.Store, bus *event.Bus, facade *params.Facade, logger *logging.Logger, opts Options) *Engine {
	e := &Engine{store: store, bus: bus, params: facade, logger: logger}
	e.SetOptions(opts)

	e.subs = []event.Subscription{
		bus.On(events.TopicRowsSet, func(event.Event) error { e.ApplySorting(); return nil }),
		bus.On(events.TopicRowsUpdated, func(event.Event) error { e.ApplySorting(); return nil }),
		bus.On(events.TopicRowsCleared, func(event.Event) error { e.clearSortedRows(); return nil }),
		bus.On(events.TopicColumnsChanged, func(event.Event) error { e.pruneSortModel(); return nil }),
		event.Subscribe(bus, events.TopicColumnHeaderClicked, e.handleHeaderClick),
		event.Subscribe(bus, events.TopicColumnHeaderKeyDown, e.handleHeaderKeyDown),
	}
	return e
}

// SetOptions replaces the options.
func (e *Engine) SetOptions(opts Options) {
	if len(opts.SortingOrder) == 0 {
		opts.SortingOrder = model.DefaultSortingOrder
	}
	if opts.Mode == "" {
		opts.Mode = model.ModeClient
	}
	e.opts = opts
}

// Close unsubscribes the engine.
func (e *Engine) Close() {
	for _, sub := range e.subs {
		e.bus.RemoveListener(sub)
	}
	e.subs = nil
}

// GetSortModel returns the current sort model.
func (e *Engine) GetSortModel() model.SortModel {
	return e.store.State().Sorting.SortModel
}

// GetSortedRowIDs returns every row id in sorted order.
func (e *Engine) GetSortedRowIDs() []model.RowID {
	return e.store.State().Sorting.SortedRows
}

// GetSortedRows returns every row in sorted order.
func (e *Engine) GetSortedRows() []model.RowEntry {
	s := e.store.State()
	out := make([]model.RowEntry, 0, len(s.Sorting.SortedRows))
	for _, id := range s.Sorting.SortedRows {
		out = append(out, model.RowEntry{ID: id, Row: s.Rows.Lookup[id]})
	}
	return out
}

// SetSortModel installs a sort model and re-sorts. Repeated fields and
// columns that are unknown or not sortable are dropped.
func (e *Engine) SetSortModel(m model.SortModel) {
	e.store.SetState(func(s *state.State) *state.State {
		return e.withSortModel(s, e.normalize(s, m))
	})
	e.ApplySorting()
}

// normalize keeps the first item of each field and drops items whose column
// is unknown or not sortable.
func (e *Engine) normalize(s *state.State, m model.SortModel) model.SortModel {
	out := make(model.SortModel, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, item := range m {
		if seen[item.Field] {
			e.logger.Warn("sort model lists column %q twice, keeping the first", item.Field)
			continue
		}
		seen[item.Field] = true
		col, ok := s.Columns.Column(item.Field)
		if !ok {
			e.logger.Warn("sort model references unknown column %q, dropping it", item.Field)
			continue
		}
		if !col.Sortable() {
			e.logger.Warn("column %q is not sortable, dropping it from the sort model", item.Field)
			continue
		}
		out = append(out, item)
	}
	return out
}

func (e *Engine) withSortModel(s *state.State, m model.SortModel) *state.State {
	if state.Equal(s.Sorting.SortModel, m) {
		return s
	}
	next := s.Clone()
	next.Sorting = state.SortingState{
		Rev:        s.Sorting.Rev + 1,
		SortModel:  m,
		SortedRows: s.Sorting.SortedRows,
	}
	return next
}

// SortColumn advances or sets the direction of a column. Without
// allowMultiple, or when multiple column sorting is disabled, the column
// replaces the whole model. A nil direction moves to the next step of the
// sorting order; SortNone removes the column.
func (e *Engine) SortColumn(field string, direction *model.SortDirection, allowMultiple bool) error {
	col, ok := e.store.State().Columns.Column(field)
	if !ok {
		return model.ColumnNotFound(field)
	}
	if !col.Sortable() {
		return nil
	}

	current := e.GetSortModel()
	item, keep := e.createSortItem(current, field, direction)

	var next model.SortModel
	if !allowMultiple || e.opts.DisableMultipleColumnsSorting {
		if keep {
			next = model.SortModel{item}
		} else {
			next = model.SortModel{}
		}
	} else {
		next = upsertSortModel(current, field, item, keep)
	}

	e.logger.Debug("sorting column %q, model %v", field, next)
	e.SetSortModel(next)
	return nil
}

// ApplySorting recomputes the sorted row ids.
func (e *Engine) ApplySorting() {
	s := e.store.State()
	ids := s.Rows.AllRows

	if e.opts.Mode == model.ModeServer {
		e.logger.Debug("skipping sorting rows as sorting mode is server")
		e.setSortedRows(ids)
		return
	}

	comparators := e.buildComparatorList(s)
	if len(comparators) == 0 {
		e.setSortedRows(ids)
		return
	}

	type decorated struct {
		id     model.RowID
		params []model.SortCellParams
	}
	rows := make([]decorated, len(ids))
	for i, id := range ids {
		cells := make([]model.SortCellParams, len(comparators))
		for j, c := range comparators {
			p, err := e.params.GetSortCellParams(id, c.field)
			if err != nil {
				p = model.SortCellParams{ID: id, Field: c.field}
			}
			cells[j] = p
		}
		rows[i] = decorated{id: id, params: cells}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for k, c := range comparators {
			a, b := rows[i].params[k], rows[j].params[k]
			if r := c.compare(a.Value, b.Value, a, b); r != 0 {
				return r < 0
			}
		}
		return false
	})

	sorted := make([]model.RowID, len(rows))
	for i, r := range rows {
		sorted[i] = r.id
	}
	e.setSortedRows(sorted)
}

type fieldComparator struct {
	field   string
	compare model.Comparator
}

func (e *Engine) buildComparatorList(s *state.State) []fieldComparator {
	var out []fieldComparator
	seen := make(map[string]bool)
	for _, item := range s.Sorting.SortModel {
		if seen[item.Field] || item.Sort == model.SortNone {
			continue
		}
		seen[item.Field] = true

		col, ok := s.Columns.Column(item.Field)
		if !ok || !col.Sortable() {
			continue
		}
		cmp := col.SortComparator
		if cmp == nil {
			cmp = ComparatorFor(col.Type)
		}
		if item.Sort == model.SortDesc {
			asc := cmp
			cmp = func(v1, v2 any, p1, p2 model.SortCellParams) int {
				return -asc(v1, v2, p1, p2)
			}
		}
		out = append(out, fieldComparator{field: item.Field, compare: cmp})
	}
	return out
}

func (e *Engine) createSortItem(current model.SortModel, field string, direction *model.SortDirection) (model.SortItem, bool) {
	if i := current.Index(field); i >= 0 {
		next := NextDirection(e.opts.SortingOrder, current[i].Sort)
		if direction != nil {
			next = *direction
		}
		return model.SortItem{Field: field, Sort: next}, next != model.SortNone
	}

	next := NextDirection(e.opts.SortingOrder, model.SortNone)
	if direction != nil {
		next = *direction
	}
	return model.SortItem{Field: field, Sort: next}, next != model.SortNone
}

func upsertSortModel(current model.SortModel, field string, item model.SortItem, keep bool) model.SortModel {
	out := make(model.SortModel, 0, len(current)+1)
	found := false
	for _, existing := range current {
		if existing.Field != field {
			out = append(out, existing)
			continue
		}
		found = true
		if keep {
			out = append(out, item)
		}
	}
	if !found && keep {
		out = append(out, item)
	}
	return out
}

// NextDirection returns the direction that follows current in order. An
// unsorted or unknown current direction starts the cycle.
func NextDirection(order []model.SortDirection, current model.SortDirection) model.SortDirection {
	if len(order) == 0 {
		order = model.DefaultSortingOrder
	}
	idx := -1
	for i, d := range order {
		if d == current {
			idx = i
			break
		}
	}
	if current == model.SortNone || idx == -1 || idx+1 == len(order) {
		return order[0]
	}
	return order[idx+1]
}

func (e *Engine) setSortedRows(ids []model.RowID) {
	sorted := append([]model.RowID(nil), ids...)
	e.store.SetState(func(s *state.State) *state.State {
		if state.Equal(s.Sorting.SortedRows, sorted) {
			return s
		}
		next := s.Clone()
		next.Sorting = state.SortingState{
			Rev:        s.Sorting.Rev + 1,
			SortModel:  s.Sorting.SortModel,
			SortedRows: sorted,
		}
		return next
	})
}

func (e *Engine) clearSortedRows() {
	e.setSortedRows([]model.RowID{})
}

func (e *Engine) pruneSortModel() {
	e.store.SetState(func(s *state.State) *state.State {
		if len(s.Sorting.SortModel) == 0 {
			return s
		}
		return e.withSortModel(s, e.normalize(s, s.Sorting.SortModel))
	})
	e.ApplySorting()
}

func (e *Engine) handleHeaderClick(p events.ColumnHeaderClicked) error {
	multi := p.Pointer.Shift || p.Pointer.MultiKey()
	return e.SortColumn(p.Field, nil, multi)
}

func (e *Engine) handleHeaderKeyDown(p events.ColumnHeaderKeyDown) error {
	if p.Key.Key != model.KeyEnter || p.Key.Ctrl || p.Key.Meta {
		return nil
	}
	return e.SortColumn(p.Field, nil, p.Key.Shift)
}
