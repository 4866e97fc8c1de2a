// Package grid composes the engines into one data grid controller.
//
// A Grid owns one bus and one store. Engines subscribe to the bus in a fixed
// order; focus reacts to a key before selection reads the focused cell, and
// sorting re-sorts new rows before filtering and pagination look at them.
// Hosts drive the grid through the API methods and by emitting input topics
// (clicks, keys, header drags) on its bus.
package grid

import (
	"fmt"
	"math"
	"reflect"

	"github.com/dshills/gridstorm/internal/columns"
	"github.com/dshills/gridstorm/internal/editing"
	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/event/topic"
	"github.com/dshills/gridstorm/internal/filter"
	"github.com/dshills/gridstorm/internal/focus"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/pagination"
	"github.com/dshills/gridstorm/internal/params"
	"github.com/dshills/gridstorm/internal/rows"
	"github.com/dshills/gridstorm/internal/selection"
	"github.com/dshills/gridstorm/internal/sorting"
	"github.com/dshills/gridstorm/internal/state"
	"github.com/dshills/gridstorm/internal/virtualization"
)

// API is the imperative surface of a grid.
type API interface {
	SetRows(rows []model.Row) error
	UpdateRows(patches []model.Row) error
	GetRow(id any) (model.Row, bool)
	GetRowIndex(id any) int
	GetAllRowIDs() []model.RowID

	SetSortModel(m model.SortModel)
	SortColumn(field string, direction *model.SortDirection, allowMultiple bool) error
	ApplySorting()
	GetSortedRowIDs() []model.RowID

	SetFilterModel(m model.FilterModel)
	GetVisibleRowModels() []model.RowEntry

	SelectRow(id any, isSelected, allowMultiple bool)
	SelectRows(ids []any, isSelected, deselectOthers bool)
	GetSelectedRows() []model.RowEntry
	SetSelectionModel(m model.SelectionModel)

	SetCellMode(id any, field string, mode model.CellMode) error
	GetCellMode(id any, field string) model.CellMode
	CommitCellChange(id any, field string) (bool, error)
	SetEditCellValue(id any, field string, value any) error
	SetEditRowsModel(m model.EditRowsModel)

	GetCellParams(id any, field string) (model.CellParams, error)
	GetRowParams(id any) (model.RowParams, error)

	PublishEvent(t topic.Topic, payload any) error
	SubscribeEvent(pattern topic.Topic, handler event.HandlerFunc) event.Subscription

	State() *state.State
}

var _ API = (*Grid)(nil)

// Grid is a data grid controller.
type Grid struct {
	opts   Options
	logger *logging.Logger
	bus    *event.Bus
	store  *state.Store
	params *params.Facade

	rows           *rows.Model
	columns        *columns.Engine
	sorting        *sorting.Engine
	filter         *filter.Engine
	pagination     *pagination.Engine
	virtualization *virtualization.Engine
	focus          *focus.Engine
	selection      *selection.Engine
	editing        *editing.Engine

	subs []event.Subscription
}

// New creates a grid from opts and sets its initial columns and rows.
func New(opts Options, options ...Option) (*Grid, error) {
	var cfg buildConfig
	for _, o := range options {
		o(&cfg)
	}
	opts = opts.withDefaults()
	logger := opts.Logger

	g := &Grid{opts: opts, logger: logger}

	// 1. Messaging
	g.bus = cfg.bus
	if g.bus == nil {
		busOpts := cfg.busOpts
		if opts.Debug {
			busOpts = append([]event.BusOption{event.WithMaxListeners(event.DefaultMaxListeners, logger.WithComponent("bus"))}, busOpts...)
		}
		g.bus = event.NewBus(busOpts...)
	}

	// 2. State
	initial := state.Initial()
	initial.Density = densityState(opts, opts.Density, 0)
	g.store = state.NewStore(g.bus, initial,
		state.WithLogger(logger.WithComponent("state")),
		state.WithDebug(opts.Debug))
	g.params = params.New(g.store, logger.WithComponent("params"), opts.Debug)
	g.params.SetCellEditablePredicate(opts.IsCellEditable)

	// 3. Engines, in subscription order
	g.rows = rows.New(g.store, g.bus, logger.WithComponent("rows"), opts.rowsOptions())
	g.columns = columns.New(g.store, g.bus, logger.WithComponent("columns"), opts.columnsOptions())
	g.sorting = sorting.New(g.store, g.bus, g.params, logger.WithComponent("sorting"), g.sortingOptions(opts))
	g.filter = filter.New(g.store, g.bus, g.params, logger.WithComponent("filter"), g.filterOptions(opts))
	g.pagination = pagination.New(g.store, g.bus, logger.WithComponent("pagination"), g.paginationOptions(opts))
	g.virtualization = virtualization.New(g.store, g.bus, logger.WithComponent("virtualization"), g.virtualizationOptions(opts))
	g.focus = focus.New(g.store, g.bus, logger.WithComponent("focus"), g.focusOptions(opts))
	g.selection = selection.New(g.store, g.bus, g.params, logger.WithComponent("selection"), g.selectionOptions(opts))
	g.editing = editing.New(g.store, g.bus, g.params, g.rows, logger.WithComponent("editing"), opts.editingOptions())

	// 4. Controlled models and callbacks
	g.registerControls(opts)
	g.subs = []event.Subscription{
		event.Subscribe(g.bus, events.TopicCellEditCommitted, func(p events.CellEditCommitted) error {
			if g.opts.OnCellEditCommit != nil {
				g.opts.OnCellEditCommit(p)
			}
			return nil
		}),
		event.Subscribe(g.bus, events.TopicRowsScrollEnd, func(p events.RowsScrollEnd) error {
			if g.opts.OnRowsScrollEnd != nil {
				g.opts.OnRowsScrollEnd(p)
			}
			return nil
		}),
		event.Subscribe(g.bus, events.TopicStateChanged, func(p state.Changed) error {
			if g.opts.OnStateChange != nil {
				g.opts.OnStateChange(p.State)
			}
			return nil
		}),
	}

	// 5. Initial data
	if err := g.columns.SetColumns(opts.Columns); err != nil {
		g.Close()
		return nil, &InitError{Component: "columns", Err: err}
	}
	if err := g.rows.SetRows(opts.Rows); err != nil {
		g.Close()
		return nil, &InitError{Component: "rows", Err: err}
	}
	if err := g.pushModels(opts); err != nil {
		g.Close()
		return nil, &InitError{Component: "models", Err: err}
	}

	logger.Debug("grid created with %d columns and %d rows", len(opts.Columns), len(opts.Rows))
	return g, nil
}

// Close unsubscribes every engine.
func (g *Grid) Close() {
	for _, sub := range g.subs {
		g.bus.RemoveListener(sub)
	}
	g.subs = nil
	g.editing.Close()
	g.selection.Close()
	g.focus.Close()
	g.virtualization.Close()
	g.pagination.Close()
	g.filter.Close()
	g.sorting.Close()
	g.columns.Close()
}

// UpdateOptions applies new props. Changed prop models are pushed into state;
// rows and columns are re-set only when a different slice is passed.
func (g *Grid) UpdateOptions(opts Options) error {
	opts = opts.withDefaults()
	prev := g.opts
	g.opts = opts

	g.params.SetDebug(opts.Debug)
	g.params.SetCellEditablePredicate(opts.IsCellEditable)
	g.rows.SetOptions(opts.rowsOptions())
	g.columns.SetOptions(opts.columnsOptions())
	g.sorting.SetOptions(g.sortingOptions(opts))
	g.filter.SetOptions(g.filterOptions(opts))
	g.pagination.SetOptions(g.paginationOptions(opts))
	g.virtualization.SetOptions(g.virtualizationOptions(opts))
	g.focus.SetOptions(g.focusOptions(opts))
	g.editing.SetOptions(opts.editingOptions())
	g.registerControls(opts)

	if !sameSlice(prev.Columns, opts.Columns) {
		if err := g.columns.SetColumns(opts.Columns); err != nil {
			return err
		}
	}
	if !sameSlice(prev.Rows, opts.Rows) {
		if err := g.rows.SetRows(opts.Rows); err != nil {
			return err
		}
	}
	if prev.SortingMode != opts.SortingMode {
		g.sorting.ApplySorting()
	}
	if prev.FilterMode != opts.FilterMode {
		g.filter.ApplyFilters()
	}
	if prev.Density != opts.Density || prev.RowHeight != opts.RowHeight || prev.HeaderHeight != opts.HeaderHeight {
		g.SetDensity(opts.Density)
	}

	// Selection is re-pruned against a possibly new selectability predicate.
	g.selection.SetOptions(g.selectionOptions(opts))
	return g.pushModels(opts)
}

// pushModels copies changed prop models into state.
func (g *Grid) pushModels(opts Options) error {
	s := g.store.State()
	if opts.SortModel != nil && !state.Equal(s.Sorting.SortModel, *opts.SortModel) {
		g.sorting.SetSortModel(*opts.SortModel)
	}
	if opts.FilterModel != nil && !state.Equal(s.Filter.Model, filter.Normalize(*opts.FilterModel)) {
		g.filter.SetFilterModel(*opts.FilterModel)
	}
	if opts.SelectionModel != nil && !state.Equal(s.Selection, *opts.SelectionModel) {
		g.selection.SetSelectionModel(*opts.SelectionModel)
	}
	if opts.EditRowsModel != nil && !state.Equal(s.EditRows, *opts.EditRowsModel) {
		g.editing.SetEditRowsModel(*opts.EditRowsModel)
	}
	if opts.PageSize != nil && *opts.PageSize != g.pagination.PageSize() {
		if err := g.pagination.SetPageSize(*opts.PageSize); err != nil {
			return err
		}
	}
	if opts.Page != nil && *opts.Page != g.pagination.Page() {
		g.pagination.SetPage(*opts.Page)
	}
	return nil
}

func (g *Grid) sortingOptions(o Options) sorting.Options {
	return sorting.Options{
		Mode:                          o.SortingMode,
		SortingOrder:                  o.SortingOrder,
		DisableMultipleColumnsSorting: o.DisableMultipleColumnsSorting,
	}
}

func (g *Grid) filterOptions(o Options) filter.Options {
	return filter.Options{
		Mode:                            o.FilterMode,
		DisableMultipleColumnsFiltering: o.DisableMultipleColumnsFiltering,
	}
}

func (g *Grid) paginationOptions(o Options) pagination.Options {
	return pagination.Options{
		Enabled:      o.Pagination,
		Mode:         o.PaginationMode,
		AutoPageSize: o.AutoPageSize,
		MaxPageSize:  o.MaxPageSize,
	}
}

func (g *Grid) virtualizationOptions(o Options) virtualization.Options {
	return virtualization.Options{
		RowBuffer:          o.RowBuffer,
		ColumnBuffer:       o.ColumnBuffer,
		ScrollEndThreshold: o.ScrollEndThreshold,
		RowIDs:             g.pageRowIDs,
	}
}

func (g *Grid) focusOptions(Options) focus.Options {
	return focus.Options{Revealer: g.virtualization, PageRowIDs: g.pageRowIDs}
}

func (g *Grid) selectionOptions(o Options) selection.Options {
	return selection.Options{
		CheckboxSelection:            o.CheckboxSelection,
		DisableMultipleSelection:     o.DisableMultipleSelection,
		DisableSelectionOnClick:      o.DisableSelectionOnClick,
		IsRowSelectable:              o.IsRowSelectable,
		CheckboxSelectionVisibleOnly: o.CheckboxSelectionVisibleOnly,
		PageRowIDs:                   g.pageRowIDs,
	}
}

func (g *Grid) pageRowIDs() []model.RowID {
	return g.pagination.PageRowIDs()
}

// Rows

// SetRows replaces every row.
func (g *Grid) SetRows(data []model.Row) error { return g.rows.SetRows(data) }

// UpdateRows merges, inserts or deletes rows.
func (g *Grid) UpdateRows(patches []model.Row) error { return g.rows.UpdateRows(patches) }

// GetRow returns a row by id.
func (g *Grid) GetRow(id any) (model.Row, bool) { return g.rows.GetRow(id) }

// GetRowIndex returns the sorted position of a row, or -1.
func (g *Grid) GetRowIndex(id any) int { return g.rows.GetRowIndex(id) }

// GetAllRowIDs returns every row id in insertion order.
func (g *Grid) GetAllRowIDs() []model.RowID { return g.rows.GetAllRowIDs() }

// GetRowsCount returns the total row count.
func (g *Grid) GetRowsCount() int { return g.rows.GetRowsCount() }

// Tick delivers batched row notifications whose window elapsed.
func (g *Grid) Tick() bool { return g.rows.Poll() }

// Flush delivers every batched row notification.
func (g *Grid) Flush() { g.rows.Flush() }

// Columns

// SetColumns replaces every column.
func (g *Grid) SetColumns(cols []*model.Column) error { return g.columns.SetColumns(cols) }

// UpdateColumns merges column definitions by field.
func (g *Grid) UpdateColumns(cols []*model.Column) error { return g.columns.UpdateColumns(cols) }

// GetColumn returns a column by field.
func (g *Grid) GetColumn(field string) (*model.Column, error) { return g.columns.GetColumn(field) }

// GetAllColumns returns every column in display order.
func (g *Grid) GetAllColumns() []*model.Column { return g.columns.GetAllColumns() }

// GetVisibleColumns returns the columns that are not hidden.
func (g *Grid) GetVisibleColumns() []*model.Column { return g.columns.GetVisibleColumns() }

// SetColumnWidth stores a column width.
func (g *Grid) SetColumnWidth(field string, width int) error {
	return g.columns.SetColumnWidth(field, width)
}

// SetColumnIndex moves a column.
func (g *Grid) SetColumnIndex(field string, index int) error {
	return g.columns.SetColumnIndex(field, index)
}

// SetColumnVisibility hides or shows a column.
func (g *Grid) SetColumnVisibility(field string, visible bool) error {
	return g.columns.SetColumnVisibility(field, visible)
}

// Sorting

// SetSortModel installs a sort model.
func (g *Grid) SetSortModel(m model.SortModel) { g.sorting.SetSortModel(m) }

// GetSortModel returns the sort model.
func (g *Grid) GetSortModel() model.SortModel { return g.sorting.GetSortModel() }

// SortColumn advances or sets the sort direction of a column.
func (g *Grid) SortColumn(field string, direction *model.SortDirection, allowMultiple bool) error {
	return g.sorting.SortColumn(field, direction, allowMultiple)
}

// ApplySorting recomputes the row order.
func (g *Grid) ApplySorting() { g.sorting.ApplySorting() }

// GetSortedRowIDs returns every row id in sorted order.
func (g *Grid) GetSortedRowIDs() []model.RowID { return g.sorting.GetSortedRowIDs() }

// Filtering

// SetFilterModel installs a filter model.
func (g *Grid) SetFilterModel(m model.FilterModel) { g.filter.SetFilterModel(m) }

// GetFilterModel returns the filter model.
func (g *Grid) GetFilterModel() model.FilterModel { return g.filter.GetFilterModel() }

// UpsertFilter adds or replaces a filter item.
func (g *Grid) UpsertFilter(item model.FilterItem) model.FilterItem { return g.filter.UpsertFilter(item) }

// DeleteFilter removes a filter item.
func (g *Grid) DeleteFilter(item model.FilterItem) { g.filter.DeleteFilter(item) }

// SetQuickFilter filters rows by text across visible columns.
func (g *Grid) SetQuickFilter(text string) { g.filter.SetQuickFilter(text) }

// GetVisibleRowModels returns the rows passing the filter in sorted order.
func (g *Grid) GetVisibleRowModels() []model.RowEntry { return g.filter.GetVisibleRowModels() }

// VisibleSortedRowIDs returns the ids passing the filter in sorted order.
func (g *Grid) VisibleSortedRowIDs() []model.RowID { return g.store.VisibleSortedRowIDs() }

// Selection

// SelectRow selects or deselects a row.
func (g *Grid) SelectRow(id any, isSelected, allowMultiple bool) {
	g.selection.SelectRow(id, isSelected, allowMultiple)
}

// SelectRows selects or deselects several rows.
func (g *Grid) SelectRows(ids []any, isSelected, deselectOthers bool) {
	g.selection.SelectRows(ids, isSelected, deselectOthers)
}

// SelectAll selects every selectable visible row.
func (g *Grid) SelectAll() { g.selection.SelectAll() }

// GetSelectedRows returns the selected rows.
func (g *Grid) GetSelectedRows() []model.RowEntry { return g.selection.GetSelectedRows() }

// GetSelectionModel returns the selected ids.
func (g *Grid) GetSelectionModel() model.SelectionModel { return g.selection.GetSelectionModel() }

// SetSelectionModel replaces the selection.
func (g *Grid) SetSelectionModel(m model.SelectionModel) { g.selection.SetSelectionModel(m) }

// Editing

// SetCellMode switches a cell between view and edit mode.
func (g *Grid) SetCellMode(id any, field string, mode model.CellMode) error {
	return g.editing.SetCellMode(id, field, mode)
}

// GetCellMode returns the mode of a cell.
func (g *Grid) GetCellMode(id any, field string) model.CellMode {
	return g.editing.GetCellMode(id, field)
}

// CommitCellChange writes a staged value into its row.
func (g *Grid) CommitCellChange(id any, field string) (bool, error) {
	return g.editing.CommitCellChange(id, field)
}

// SetEditCellValue stages a value.
func (g *Grid) SetEditCellValue(id any, field string, value any) error {
	return g.editing.SetEditCellValue(id, field, value)
}

// SetEditCellProps stages a value with its error flag.
func (g *Grid) SetEditCellProps(id any, field string, props model.EditCellProps) error {
	return g.editing.SetEditCellProps(id, field, props)
}

// SetEditRowsModel replaces the edit rows model.
func (g *Grid) SetEditRowsModel(m model.EditRowsModel) { g.editing.SetEditRowsModel(m) }

// GetEditRowsModel returns the edit rows model.
func (g *Grid) GetEditRowsModel() model.EditRowsModel { return g.editing.GetEditRowsModel() }

// Params

// GetCellParams returns the params of a cell.
func (g *Grid) GetCellParams(id any, field string) (model.CellParams, error) {
	return g.params.GetCellParams(id, field)
}

// GetRowParams returns the params of a row.
func (g *Grid) GetRowParams(id any) (model.RowParams, error) { return g.params.GetRowParams(id) }

// GetCellValue returns a cell value through the column's value getter.
func (g *Grid) GetCellValue(id any, field string) (any, error) {
	return g.params.GetCellValue(id, field)
}

// Focus

// SetCellFocus focuses a cell.
func (g *Grid) SetCellFocus(id any, field string) error { return g.focus.SetCellFocus(id, field) }

// SetColumnHeaderFocus focuses a column header.
func (g *Grid) SetColumnHeaderFocus(field string) error { return g.focus.SetColumnHeaderFocus(field) }

// Pagination

// SetPage moves to a page.
func (g *Grid) SetPage(page int) { g.pagination.SetPage(page) }

// SetPageSize changes the rows per page.
func (g *Grid) SetPageSize(size int) error { return g.pagination.SetPageSize(size) }

// PageCount returns the number of pages.
func (g *Grid) PageCount() int { return g.pagination.PageCount() }

// PageRowIDs returns the ids on the current page.
func (g *Grid) PageRowIDs() []model.RowID { return g.pagination.PageRowIDs() }

// Viewport

// Scroll moves the viewport.
func (g *Grid) Scroll(top, left int) { g.virtualization.Scroll(top, left) }

// Resize sets the container size.
func (g *Grid) Resize(width, height int) { g.virtualization.Resize(width, height) }

// ScrollToIndexes reveals the cell at a rendered row and visible column index.
func (g *Grid) ScrollToIndexes(rowIndex, colIndex int) bool {
	return g.virtualization.ScrollToIndexes(rowIndex, colIndex)
}

// RenderContext returns the render window.
func (g *Grid) RenderContext() model.RenderContext { return g.virtualization.RenderContext() }

// RenderedRows returns the rows inside the render window.
func (g *Grid) RenderedRows() []model.RowEntry {
	s := g.store.State()
	ids := g.virtualization.RenderedRowIDs()
	out := make([]model.RowEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.RowEntry{ID: id, Row: s.Rows.Lookup[id]})
	}
	return out
}

// SetDensity changes the density and the row heights derived from it.
func (g *Grid) SetDensity(d model.Density) {
	changed := g.store.SetState(func(s *state.State) *state.State {
		next := densityState(g.opts, d, s.Density.Rev)
		if next == s.Density {
			return s
		}
		ns := s.Clone()
		next.Rev++
		ns.Density = next
		return ns
	})
	if changed {
		ds := g.store.State().Density
		g.emit(events.TopicDensityChanged, events.DensityChanged{Density: ds.Value, RowHeight: ds.RowHeight, HeaderHeight: ds.HeaderHeight})
	}
}

func densityState(o Options, d model.Density, rev uint64) state.DensityState {
	factor := d.Factor()
	return state.DensityState{
		Rev:          rev,
		Value:        d,
		RowHeight:    int(math.Round(float64(o.RowHeight) * factor)),
		HeaderHeight: int(math.Round(float64(o.HeaderHeight) * factor)),
	}
}

// Panels

// ShowColumnMenu opens the menu of a column.
func (g *Grid) ShowColumnMenu(field string) error {
	if _, err := g.columns.GetColumn(field); err != nil {
		return err
	}
	g.setPanel(func(s *state.State) *state.PanelState { return &s.ColumnMenu }, state.PanelState{Open: true, Field: field}, events.TopicColumnMenuOpened)
	return nil
}

// HideColumnMenu closes the column menu.
func (g *Grid) HideColumnMenu() {
	g.setPanel(func(s *state.State) *state.PanelState { return &s.ColumnMenu }, state.PanelState{}, events.TopicColumnMenuClosed)
}

// ShowPreferences opens a preference panel, e.g. "columns" or "filters".
func (g *Grid) ShowPreferences(panel string) {
	g.setPanel(func(s *state.State) *state.PanelState { return &s.PreferencePanel }, state.PanelState{Open: true, Field: panel}, events.TopicPreferencePanelOpened)
}

// HidePreferences closes the preference panel.
func (g *Grid) HidePreferences() {
	g.setPanel(func(s *state.State) *state.PanelState { return &s.PreferencePanel }, state.PanelState{}, events.TopicPreferencePanelClosed)
}

func (g *Grid) setPanel(slot func(s *state.State) *state.PanelState, panel state.PanelState, t topic.Topic) {
	var target string
	changed := g.store.SetState(func(s *state.State) *state.State {
		current := *slot(s)
		if current == panel {
			return s
		}
		target = current.Field
		if panel.Open {
			target = panel.Field
		}
		next := s.Clone()
		*slot(next) = panel
		return next
	})
	if changed {
		g.emit(t, events.PanelToggled{Target: target})
	}
}

// SetError stores an external error for the renderer. Nil clears it.
func (g *Grid) SetError(err error) {
	changed := g.store.SetState(func(s *state.State) *state.State {
		if s.Error == err {
			return s
		}
		next := s.Clone()
		next.Error = err
		return next
	})
	if changed {
		g.emit(events.TopicErrorChanged, events.ErrorChanged{Err: err})
	}
}

// Events

// PublishEvent emits an event on the grid bus.
func (g *Grid) PublishEvent(t topic.Topic, payload any) error { return g.bus.Emit(t, payload) }

// SubscribeEvent subscribes a handler to the grid bus.
func (g *Grid) SubscribeEvent(pattern topic.Topic, handler event.HandlerFunc) event.Subscription {
	return g.bus.On(pattern, handler)
}

// Bus returns the grid bus.
func (g *Grid) Bus() *event.Bus { return g.bus }

// State returns the current state snapshot.
func (g *Grid) State() *state.State { return g.store.State() }

func (g *Grid) emit(t topic.Topic, payload any) {
	if err := g.bus.Emit(t, payload); err != nil {
		g.logger.Error("%s handler failed: %v", t, err)
	}
}

// sameSlice reports whether a and b share their backing array and length.
func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// InitError reports which part of grid construction failed.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("grid: initializing %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
