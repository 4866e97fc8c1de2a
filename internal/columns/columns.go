// Package columns owns the column definitions: hydration with type
// defaults, display order, visibility, widths and the header resize and
// reorder gestures.
package columns

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/spf13/cast"

	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/event/topic"
	"github.com/dshills/gridstorm/internal/filter"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/sorting"
	"github.com/dshills/gridstorm/internal/state"
)

// Column defaults.
const (
	DefaultWidth    = 100
	DefaultMinWidth = 50
)

var (
	// ErrDuplicateField is returned when two columns share a field.
	ErrDuplicateField = errors.New("duplicate column field")

	// ErrEmptyField is returned for a column without a field.
	ErrEmptyField = errors.New("column field is empty")
)

// Capabilities are host features detected once at startup.
type Capabilities struct {
	// TouchResize allows resize gestures started by touch input.
	TouchResize bool
}

// Options configures the column engine.
type Options struct {
	DisableColumnResize  bool
	DisableColumnReorder bool
	Capabilities         Capabilities
}

// Engine manages column state.
type Engine struct {
	store  *state.Store
	bus    *event.Bus
	logger *logging.Logger
	opts   Options
	subs   []event.Subscription
}

// New creates a column engine. It recomputes flex widths when the viewport
// is resized and follows header drag gestures.
func New(store *state.Store, bus *event.Bus, logger *logging.Logger, opts Options) *Engine {
	e := &Engine{store: store, bus: bus, logger: logger, opts: opts}
	e.subs = []event.Subscription{
		bus.On(events.TopicViewportResized, func(event.Event) error { e.applyFlex(); return nil }),
		event.Subscribe(bus, events.TopicColumnHeaderDragStarted, e.handleDragStart),
		event.Subscribe(bus, events.TopicColumnHeaderDragOver, e.handleDragOver),
		event.Subscribe(bus, events.TopicColumnHeaderDragEnded, e.handleDragEnd),
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

// SetColumns replaces every column. Columns are hydrated with the defaults of
// their type; the caller's definitions are not modified.
func (e *Engine) SetColumns(cols []*model.Column) error {
	all := make([]string, 0, len(cols))
	lookup := make(map[string]*model.Column, len(cols))
	for _, c := range cols {
		if c.Field == "" {
			return ErrEmptyField
		}
		if _, dup := lookup[c.Field]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateField, c.Field)
		}
		all = append(all, c.Field)
		lookup[c.Field] = Hydrate(c)
	}

	e.logger.Debug("setting %d columns", len(all))
	e.install(all, lookup)
	return nil
}

// UpdateColumns merges columns by field. Non-zero fields of an update
// overwrite the existing column; unknown fields are appended.
func (e *Engine) UpdateColumns(cols []*model.Column) error {
	s := e.store.State()
	all := slices.Clone(s.Columns.All)
	lookup := make(map[string]*model.Column, len(s.Columns.Lookup)+len(cols))
	for k, v := range s.Columns.Lookup {
		lookup[k] = v
	}

	for _, c := range cols {
		if c.Field == "" {
			return ErrEmptyField
		}
		existing, ok := lookup[c.Field]
		if !ok {
			all = append(all, c.Field)
			lookup[c.Field] = Hydrate(c)
			continue
		}
		lookup[c.Field] = merge(existing, c)
	}

	e.install(all, lookup)
	return nil
}

func (e *Engine) install(all []string, lookup map[string]*model.Column) {
	e.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		next.Columns = state.ColumnsState{Rev: s.Columns.Rev + 1, All: all, Lookup: lookup}
		return next
	})
	e.applyFlex()
	e.emit(events.TopicColumnsChanged, events.ColumnsChanged{Fields: all})
}

// GetColumn returns the column for field.
func (e *Engine) GetColumn(field string) (*model.Column, error) {
	col, ok := e.store.State().Columns.Column(field)
	if !ok {
		return nil, model.ColumnNotFound(field)
	}
	return col, nil
}

// GetAllColumns returns every column in display order.
func (e *Engine) GetAllColumns() []*model.Column {
	return e.store.State().Columns.Ordered()
}

// GetVisibleColumns returns the columns that are not hidden.
func (e *Engine) GetVisibleColumns() []*model.Column {
	return e.store.VisibleColumns()
}

// GetColumnIndex returns the display index of field, or -1.
func (e *Engine) GetColumnIndex(field string, visibleOnly bool) int {
	if !visibleOnly {
		return slices.Index(e.store.State().Columns.All, field)
	}
	return slices.IndexFunc(e.store.VisibleColumns(), func(c *model.Column) bool {
		return c.Field == field
	})
}

// GetColumnPosition returns the left offset of a visible column, or -1.
func (e *Engine) GetColumnPosition(field string) int {
	pos := 0
	for _, c := range e.store.VisibleColumns() {
		if c.Field == field {
			return pos
		}
		pos += c.RenderedWidth()
	}
	return -1
}

// SetColumnWidth stores a width, clamped to the column's minimum.
func (e *Engine) SetColumnWidth(field string, width int) error {
	width, err := e.setWidth(field, width)
	if err != nil {
		return err
	}
	e.emit(events.TopicColumnWidthChanged, events.ColumnWidthChanged{Field: field, Width: width})
	return nil
}

func (e *Engine) setWidth(field string, width int) (int, error) {
	col, err := e.GetColumn(field)
	if err != nil {
		return 0, err
	}
	width = max(width, col.MinWidth)
	e.replaceColumn(col, func(c *model.Column) {
		c.Width = width
		c.ComputedWidth = width
		c.Flex = 0
	})
	e.applyFlex()
	return width, nil
}

// SetColumnIndex moves a column to target in the display order.
func (e *Engine) SetColumnIndex(field string, target int) error {
	all := e.store.State().Columns.All
	old := slices.Index(all, field)
	if old < 0 {
		return model.ColumnNotFound(field)
	}
	target = max(0, min(target, len(all)-1))
	if old == target {
		return nil
	}

	order := slices.Delete(slices.Clone(all), old, old+1)
	order = slices.Insert(order, target, field)

	e.logger.Debug("moving column %q from %d to %d", field, old, target)
	e.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		next.Columns = state.ColumnsState{Rev: s.Columns.Rev + 1, All: order, Lookup: s.Columns.Lookup}
		return next
	})
	e.applyFlex()
	e.emit(events.TopicColumnOrderChanged, events.ColumnOrderChanged{Field: field, OldIndex: old, TargetIndex: target})
	return nil
}

// SetColumnVisibility hides or shows a column.
func (e *Engine) SetColumnVisibility(field string, visible bool) error {
	col, err := e.GetColumn(field)
	if err != nil {
		return err
	}
	if col.Hide == !visible {
		return nil
	}
	e.replaceColumn(col, func(c *model.Column) { c.Hide = !visible })
	e.applyFlex()
	e.emit(events.TopicColumnVisibilityChanged, events.ColumnVisibilityChanged{Field: field, IsVisible: visible})
	e.emit(events.TopicColumnsChanged, events.ColumnsChanged{Fields: e.store.State().Columns.All})
	return nil
}

func (e *Engine) replaceColumn(col *model.Column, edit func(c *model.Column)) {
	updated := col.Clone()
	edit(updated)
	e.store.SetState(func(s *state.State) *state.State {
		lookup := make(map[string]*model.Column, len(s.Columns.Lookup))
		for k, v := range s.Columns.Lookup {
			lookup[k] = v
		}
		lookup[updated.Field] = updated
		next := s.Clone()
		next.Columns = state.ColumnsState{Rev: s.Columns.Rev + 1, All: s.Columns.All, Lookup: lookup}
		return next
	})
}

// applyFlex distributes the viewport width left over by fixed-width columns
// among flex columns. A flex column never shrinks below its minimum.
func (e *Engine) applyFlex() {
	s := e.store.State()
	visible := e.store.VisibleColumns()

	available := s.Viewport.Width
	totalFlex := 0.0
	for _, c := range visible {
		if c.Flex > 0 {
			totalFlex += c.Flex
		} else {
			available -= c.Width
		}
	}

	changed := make(map[string]int)
	for _, c := range visible {
		width := c.Width
		if c.Flex > 0 && totalFlex > 0 && s.Viewport.Width > 0 {
			width = max(int(c.Flex*float64(max(available, 0))/totalFlex), c.MinWidth)
		}
		if width != c.ComputedWidth {
			changed[c.Field] = width
		}
	}
	if len(changed) == 0 {
		return
	}

	e.store.SetState(func(s *state.State) *state.State {
		lookup := make(map[string]*model.Column, len(s.Columns.Lookup))
		for k, v := range s.Columns.Lookup {
			if width, ok := changed[k]; ok {
				v = v.Clone()
				v.ComputedWidth = width
			}
			lookup[k] = v
		}
		next := s.Clone()
		next.Columns = state.ColumnsState{Rev: s.Columns.Rev + 1, All: s.Columns.All, Lookup: lookup}
		return next
	})
}

func (e *Engine) emit(t topic.Topic, payload any) {
	if err := e.bus.Emit(t, payload); err != nil {
		e.logger.Error("%s handler failed: %v", t, err)
	}
}

// Hydrate returns a copy of c with the defaults of its type filled in.
func Hydrate(c *model.Column) *model.Column {
	out := c.Clone()
	if out.Type == "" {
		out.Type = model.ColumnString
	}
	if out.Width == 0 {
		out.Width = DefaultWidth
	}
	if out.MinWidth == 0 {
		out.MinWidth = DefaultMinWidth
	}
	out.Width = max(out.Width, out.MinWidth)
	if out.SortComparator == nil {
		out.SortComparator = sorting.ComparatorFor(out.Type)
	}
	if out.FilterOperators == nil {
		out.FilterOperators = filter.OperatorsFor(out.Type)
	}
	if out.RenderEditCell == nil {
		out.RenderEditCell = EditCellFor(out.Type)
	}
	out.ComputedWidth = 0
	return out
}

// EditInput is the node the default edit renderers produce. Hosts map it to
// their own input widget.
type EditInput struct {
	Type  model.ColumnType
	Value any
	// Options lists the choices of a singleSelect editor.
	Options []any
}

// EditCellFor returns the default edit renderer of a column type.
func EditCellFor(t model.ColumnType) model.RenderFunc {
	return func(p model.CellParams) any {
		input := EditInput{Type: t, Value: p.Value}
		switch t {
		case model.ColumnBoolean:
			input.Value = cast.ToBool(p.Value)
		case model.ColumnSingleSelect:
			if p.Column != nil {
				input.Options = p.Column.ValueOptions
			}
		}
		return input
	}
}

// merge copies the non-zero fields of patch over a copy of base.
func merge(base, patch *model.Column) *model.Column {
	out := base.Clone()
	dst := reflect.ValueOf(out).Elem()
	src := reflect.ValueOf(patch).Elem()
	for i := 0; i < src.NumField(); i++ {
		if f := src.Field(i); !f.IsZero() {
			dst.Field(i).Set(f)
		}
	}
	if patch.Type != "" && patch.Type != base.Type {
		if patch.SortComparator == nil {
			out.SortComparator = sorting.ComparatorFor(out.Type)
		}
		if patch.FilterOperators == nil {
			out.FilterOperators = filter.OperatorsFor(out.Type)
		}
		if patch.RenderEditCell == nil {
			out.RenderEditCell = EditCellFor(out.Type)
		}
	}
	out.Width = max(out.Width, out.MinWidth)
	return out
}
