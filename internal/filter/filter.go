// Package filter derives row visibility from the filter model.
//
// Each filter item resolves its column and operator and asks the operator
// for a predicate. Items whose operator returns no predicate are inactive.
// With the "and" link a row is visible when every active predicate passes,
// with "or" when any does; zero active predicates show every row. The quick
// filter is one more predicate, matched against every visible column and
// always ANDed with the items.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/params"
	"github.com/dshills/gridstorm/internal/state"
)

// Options configures the filter engine.
type Options struct {
	Mode model.FeatureMode

	DisableMultipleColumnsFiltering bool
}

// Engine derives visible rows.
type Engine struct {
	store  *state.Store
	bus    *event.Bus
	params *params.Facade
	logger *logging.Logger
	opts   Options
	subs   []event.Subscription
}

// New creates a filter engine and subscribes it to row and column events.
func New(store *state.Store, bus *event.Bus, facade *params.Facade, logger *logging.Logger, opts Options) *Engine {
	e := &Engine{store: store, bus: bus, params: facade, logger: logger}
	e.SetOptions(opts)

	apply := func(event.Event) error {
		e.ApplyFilters()
		return nil
	}
	e.subs = []event.Subscription{
		bus.On(events.TopicRowsSet, apply),
		bus.On(events.TopicRowsUpdated, apply),
		bus.On(events.TopicRowsCleared, apply),
		bus.On(events.TopicColumnsChanged, apply),
	}
	return e
}

// SetOptions replaces the options.
func (e *Engine) SetOptions(opts Options) {
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

// GetFilterModel returns the current filter model.
func (e *Engine) GetFilterModel() model.FilterModel {
	return e.store.State().Filter.Model
}

// SetFilterModel installs a filter model and re-filters. The model is
// normalised first.
func (e *Engine) SetFilterModel(m model.FilterModel) {
	m = Normalize(m)
	e.store.SetState(func(s *state.State) *state.State {
		if state.Equal(s.Filter.Model, m) {
			return s
		}
		next := s.Clone()
		next.Filter = state.FilterState{Rev: s.Filter.Rev + 1, Model: m}
		return next
	})
	e.ApplyFilters()
}

// UpsertFilter replaces the item with the same id or appends it. With
// multiple column filtering disabled the item replaces every item. It returns
// the stored item.
func (e *Engine) UpsertFilter(item model.FilterItem) model.FilterItem {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	current := e.GetFilterModel()
	next := current
	if e.opts.DisableMultipleColumnsFiltering {
		next.Items = []model.FilterItem{item}
	} else {
		next.Items = make([]model.FilterItem, 0, len(current.Items)+1)
		found := false
		for _, existing := range current.Items {
			if existing.ID == item.ID {
				existing = item
				found = true
			}
			next.Items = append(next.Items, existing)
		}
		if !found {
			next.Items = append(next.Items, item)
		}
	}
	e.logger.Debug("upserting filter item %s on %q", item.ID, item.ColumnField)
	e.SetFilterModel(next)
	return item
}

// DeleteFilter removes the item with the same id.
func (e *Engine) DeleteFilter(item model.FilterItem) {
	current := e.GetFilterModel()
	next := current
	next.Items = make([]model.FilterItem, 0, len(current.Items))
	for _, existing := range current.Items {
		if existing.ID != item.ID {
			next.Items = append(next.Items, existing)
		}
	}
	e.SetFilterModel(next)
}

// SetLinkOperator changes how items combine.
func (e *Engine) SetLinkOperator(op model.LinkOperator) {
	next := e.GetFilterModel()
	next.LinkOperator = op
	e.SetFilterModel(next)
}

// SetQuickFilter changes the quick search text.
func (e *Engine) SetQuickFilter(text string) {
	next := e.GetFilterModel()
	next.QuickFilter = text
	e.SetFilterModel(next)
}

// GetVisibleRowModels returns the rows that pass the filter in sorted order.
func (e *Engine) GetVisibleRowModels() []model.RowEntry {
	s := e.store.State()
	ids := e.store.VisibleSortedRowIDs()
	out := make([]model.RowEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.RowEntry{ID: id, Row: s.Rows.Lookup[id]})
	}
	return out
}

// ApplyFilters recomputes row visibility.
func (e *Engine) ApplyFilters() {
	s := e.store.State()
	ids := s.Rows.AllRows

	if e.opts.Mode == model.ModeServer {
		e.logger.Debug("skipping filtering rows as filter mode is server")
		e.setVisibleRows(map[model.RowID]bool{}, len(ids))
		return
	}

	predicate := e.buildPredicate(s)
	if predicate == nil {
		e.setVisibleRows(map[model.RowID]bool{}, len(ids))
		return
	}

	lookup := make(map[model.RowID]bool, len(ids))
	count := 0
	for _, id := range ids {
		visible := predicate(id)
		lookup[id] = visible
		if visible {
			count++
		}
	}
	e.setVisibleRows(lookup, count)
}

type fieldPredicate struct {
	field string
	test  model.CellPredicate
}

// buildPredicate returns nil when no filter is active.
func (e *Engine) buildPredicate(s *state.State) func(id model.RowID) bool {
	m := s.Filter.Model
	var active []fieldPredicate
	for _, item := range m.Items {
		col, ok := s.Columns.Column(item.ColumnField)
		if !ok {
			e.logger.Warn("filter item %s references unknown column %q, skipping it", item.ID, item.ColumnField)
			continue
		}
		op, ok := col.Operator(item.OperatorValue)
		if !ok || op.GetApplyFilterFn == nil {
			e.logger.Warn("column %q has no filter operator %q, skipping it", col.Field, item.OperatorValue)
			continue
		}
		if test := op.GetApplyFilterFn(item, col); test != nil {
			active = append(active, fieldPredicate{field: col.Field, test: test})
		}
	}

	quick := e.quickFilter(m.QuickFilter)
	if len(active) == 0 && quick == nil {
		return nil
	}

	link := m.Link()
	return func(id model.RowID) bool {
		if quick != nil && !quick(id) {
			return false
		}
		if len(active) == 0 {
			return true
		}
		for _, p := range active {
			params, err := e.params.GetCellParams(id, p.field)
			pass := err == nil && p.test(params)
			if link == model.LinkOr && pass {
				return true
			}
			if link == model.LinkAnd && !pass {
				return false
			}
		}
		return link == model.LinkAnd
	}
}

// quickFilter matches the text against the formatted value of every visible
// column.
func (e *Engine) quickFilter(text string) func(id model.RowID) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(text))
	columns := e.store.VisibleColumns()
	return func(id model.RowID) bool {
		for _, col := range columns {
			params, err := e.params.GetCellParams(id, col.Field)
			if err != nil || params.FormattedValue == nil {
				continue
			}
			if re.MatchString(cast.ToString(params.FormattedValue)) {
				return true
			}
		}
		return false
	}
}

func (e *Engine) setVisibleRows(lookup map[model.RowID]bool, count int) {
	e.store.SetState(func(s *state.State) *state.State {
		if s.VisibleRows.Count == count && state.Equal(s.VisibleRows.Lookup, lookup) {
			return s
		}
		next := s.Clone()
		next.VisibleRows = state.VisibleRowsState{
			Rev:    s.VisibleRows.Rev + 1,
			Lookup: lookup,
			Count:  count,
		}
		return next
	})
}

// Normalize defaults the link operator and gives id-less items an id derived
// from their position, column and operator, so normalising the same model
// twice yields equal models.
func Normalize(m model.FilterModel) model.FilterModel {
	items := make([]model.FilterItem, len(m.Items))
	for i, item := range m.Items {
		if item.ID == "" {
			name := fmt.Sprintf("%d/%s/%s", i, item.ColumnField, item.OperatorValue)
			item.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
		}
		items[i] = item
	}
	m.Items = items
	m.LinkOperator = m.Link()
	return m
}
