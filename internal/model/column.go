package model

// ColumnType tags a column with the kind of values it holds. The type selects
// the default comparator, filter operators and edit renderer.
type ColumnType string

const (
	ColumnString       ColumnType = "string"
	ColumnNumber       ColumnType = "number"
	ColumnBoolean      ColumnType = "boolean"
	ColumnDate         ColumnType = "date"
	ColumnDateTime     ColumnType = "dateTime"
	ColumnSingleSelect ColumnType = "singleSelect"
)

// Valid reports whether t is a known column type. The empty type is valid and
// means string.
func (t ColumnType) Valid() bool {
	switch t {
	case "", ColumnString, ColumnNumber, ColumnBoolean, ColumnDate, ColumnDateTime, ColumnSingleSelect:
		return true
	}
	return false
}

// Column hooks.
type (
	// ValueGetter derives the cell value from the row.
	ValueGetter func(params CellParams) any
	// ValueFormatter derives the display value from the cell value.
	ValueFormatter func(params CellParams) any
	// ValueParser converts raw editor input into a cell value.
	ValueParser func(raw any, params CellParams) any
	// Comparator orders two cell values; negative means v1 sorts first.
	Comparator func(v1, v2 any, p1, p2 SortCellParams) int
	// RenderFunc produces a renderer-specific node for a cell.
	RenderFunc func(params CellParams) any
	// CellPredicate is an applied filter.
	CellPredicate func(params CellParams) bool
)

// FilterOperator describes one filter operator a column accepts.
type FilterOperator struct {
	// Label is shown by filter panels.
	Label string
	// Value identifies the operator in a FilterItem.
	Value string
	// GetApplyFilterFn builds the predicate for an item. It returns nil when
	// the item is not an active filter, e.g. its value is empty.
	GetApplyFilterFn func(item FilterItem, column *Column) CellPredicate
}

// Column is a column definition.
type Column struct {
	Field       string
	HeaderName  string
	Description string
	Type        ColumnType

	Width    int
	MinWidth int
	Flex     float64

	Hide           bool
	Hideable       bool
	Editable       bool
	DisableSort    bool
	DisableFilter  bool
	DisableResize  bool
	DisableReorder bool

	// ValueOptions lists the choices of a singleSelect column.
	ValueOptions []any

	ValueGetter     ValueGetter
	ValueFormatter  ValueFormatter
	ValueParser     ValueParser
	SortComparator  Comparator
	RenderCell      RenderFunc
	RenderEditCell  RenderFunc
	FilterOperators []FilterOperator

	// ComputedWidth is the width after flex distribution. It is set by the
	// columns engine; callers leave it zero.
	ComputedWidth int
}

// Sortable reports whether the column accepts sort gestures.
func (c *Column) Sortable() bool { return !c.DisableSort }

// Filterable reports whether the column accepts filter items.
func (c *Column) Filterable() bool { return !c.DisableFilter }

// Resizable reports whether the column accepts resize gestures.
func (c *Column) Resizable() bool { return !c.DisableResize }

// Header returns the header text, defaulting to the field.
func (c *Column) Header() string {
	if c.HeaderName != "" {
		return c.HeaderName
	}
	return c.Field
}

// RenderedWidth returns the computed width when set, otherwise the width.
func (c *Column) RenderedWidth() int {
	if c.ComputedWidth > 0 {
		return c.ComputedWidth
	}
	return c.Width
}

// Operator looks up a filter operator by value.
func (c *Column) Operator(value string) (FilterOperator, bool) {
	for _, op := range c.FilterOperators {
		if op.Value == value {
			return op, true
		}
	}
	return FilterOperator{}, false
}

// Clone returns a shallow copy of the column.
func (c *Column) Clone() *Column {
	cp := *c
	return &cp
}
