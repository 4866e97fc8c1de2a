package model

// SortDirection is a sort order. The empty direction means unsorted.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
	SortNone SortDirection = ""
)

// DefaultSortingOrder is the header click cycle.
var DefaultSortingOrder = []SortDirection{SortAsc, SortDesc, SortNone}

// SortItem sorts by one field.
type SortItem struct {
	Field string        `json:"field" toml:"field" yaml:"field"`
	Sort  SortDirection `json:"sort" toml:"sort" yaml:"sort"`
}

// SortModel is an ordered list of sort items; a field appears at most once.
type SortModel []SortItem

// Index returns the position of field in the model or -1.
func (m SortModel) Index(field string) int {
	for i, item := range m {
		if item.Field == field {
			return i
		}
	}
	return -1
}

// LinkOperator joins filter items.
type LinkOperator string

const (
	LinkAnd LinkOperator = "and"
	LinkOr  LinkOperator = "or"
)

// FilterItem is one filter clause.
type FilterItem struct {
	ID            string `json:"id" toml:"id" yaml:"id"`
	ColumnField   string `json:"columnField" toml:"column" yaml:"column"`
	OperatorValue string `json:"operatorValue" toml:"operator" yaml:"operator"`
	Value         any    `json:"value" toml:"value" yaml:"value"`
}

// FilterModel is the set of filter clauses plus the quick-search text.
type FilterModel struct {
	Items        []FilterItem `json:"items"`
	LinkOperator LinkOperator `json:"linkOperator"`
	QuickFilter  string       `json:"quickFilter,omitempty"`
}

// Link returns the link operator, defaulting to and.
func (m FilterModel) Link() LinkOperator {
	if m.LinkOperator == LinkOr {
		return LinkOr
	}
	return LinkAnd
}

// SelectionModel is the list of selected row ids.
type SelectionModel []RowID

// Contains reports whether id is selected.
func (m SelectionModel) Contains(id RowID) bool {
	for _, v := range m {
		if v == id {
			return true
		}
	}
	return false
}

// CellMode is the state of a cell's edit machine.
type CellMode string

const (
	CellModeView CellMode = "view"
	CellModeEdit CellMode = "edit"
)

// EditCellProps holds a staged edit value.
type EditCellProps struct {
	Value any
	// Error blocks commit while set. Validators own this flag.
	Error bool
}

// EditRowsModel maps rows to their cells in edit mode.
type EditRowsModel map[RowID]map[string]EditCellProps

// Cell returns the staged props of a cell in edit mode.
func (m EditRowsModel) Cell(id RowID, field string) (EditCellProps, bool) {
	fields, ok := m[id]
	if !ok {
		return EditCellProps{}, false
	}
	props, ok := fields[field]
	return props, ok
}

// With returns a copy of the model with the cell set to props.
func (m EditRowsModel) With(id RowID, field string, props EditCellProps) EditRowsModel {
	out := make(EditRowsModel, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	fields := make(map[string]EditCellProps, len(m[id])+1)
	for k, v := range m[id] {
		fields[k] = v
	}
	fields[field] = props
	out[id] = fields
	return out
}

// Without returns a copy of the model with the cell removed.
func (m EditRowsModel) Without(id RowID, field string) EditRowsModel {
	out := make(EditRowsModel, len(m))
	for k, v := range m {
		out[k] = v
	}
	fields := make(map[string]EditCellProps, len(m[id]))
	for k, v := range m[id] {
		if k != field {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		delete(out, id)
	} else {
		out[id] = fields
	}
	return out
}

// FeatureMode selects where sorting, filtering or pagination is computed.
type FeatureMode string

const (
	ModeClient FeatureMode = "client"
	ModeServer FeatureMode = "server"
)

// Density scales row and header heights.
type Density string

const (
	DensityCompact     Density = "compact"
	DensityStandard    Density = "standard"
	DensityComfortable Density = "comfortable"
)

// Factor returns the height multiplier of the density.
func (d Density) Factor() float64 {
	switch d {
	case DensityCompact:
		return 0.7
	case DensityComfortable:
		return 1.3
	default:
		return 1
	}
}
