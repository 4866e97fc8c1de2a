package state

import "github.com/dshills/gridstorm/internal/model"

// State is a snapshot of the grid. Treat it as read-only.
type State struct {
	// Version increments with every installed update.
	Version uint64

	Rows        RowsState
	Columns     ColumnsState
	Sorting     SortingState
	Filter      FilterState
	VisibleRows VisibleRowsState
	Selection   model.SelectionModel
	EditRows    model.EditRowsModel
	Focus       FocusState
	TabIndex    FocusState
	Pagination  PaginationState
	Rendering   RenderingState
	Viewport    ViewportState
	Density     DensityState

	ColumnResize    ColumnResizeState
	ColumnReorder   ColumnReorderState
	ColumnMenu      PanelState
	PreferencePanel PanelState

	// Error is the slot for an external error the renderer may display.
	Error error
}

// RowsState holds the row collection.
type RowsState struct {
	Rev    uint64
	Lookup map[model.RowID]model.Row
	// AllRows is the row order of the last SetRows, extended by inserts.
	AllRows       []model.RowID
	TotalRowCount int
}

// ColumnsState holds the column definitions in display order.
type ColumnsState struct {
	Rev    uint64
	All    []string
	Lookup map[string]*model.Column
}

// Column returns the column for field.
func (c ColumnsState) Column(field string) (*model.Column, bool) {
	col, ok := c.Lookup[field]
	return col, ok
}

// Ordered returns the columns in display order.
func (c ColumnsState) Ordered() []*model.Column {
	out := make([]*model.Column, 0, len(c.All))
	for _, field := range c.All {
		if col, ok := c.Lookup[field]; ok {
			out = append(out, col)
		}
	}
	return out
}

// SortingState holds the sort model and the derived row order.
type SortingState struct {
	Rev        uint64
	SortModel  model.SortModel
	SortedRows []model.RowID
}

// FilterState holds the filter model.
type FilterState struct {
	Rev   uint64
	Model model.FilterModel
}

// VisibleRowsState holds the filter result. Rows absent from Lookup are
// visible.
type VisibleRowsState struct {
	Rev    uint64
	Lookup map[model.RowID]bool
	Count  int
}

// IsVisible reports whether id passed the filter.
func (v VisibleRowsState) IsVisible(id model.RowID) bool {
	visible, ok := v.Lookup[id]
	return !ok || visible
}

// FocusState addresses at most one cell or one column header.
type FocusState struct {
	Cell         *model.CellIndex
	ColumnHeader string
}

// IsCell reports whether the state addresses the given cell.
func (f FocusState) IsCell(id model.RowID, field string) bool {
	return f.Cell != nil && f.Cell.ID == id && f.Cell.Field == field
}

// PaginationState holds the current page.
type PaginationState struct {
	Rev       uint64
	Page      int
	PageSize  int
	PageCount int
	RowCount  int
}

// RenderingState holds scroll offsets and the last computed render window.
type RenderingState struct {
	Rev           uint64
	ScrollTop     int
	ScrollLeft    int
	IsScrolling   bool
	RenderContext model.RenderContext
	// ScrollEndReached is set once rows.scroll.end fired for the current
	// approach to the bottom and cleared when the viewport moves away.
	ScrollEndReached bool
}

// ViewportState holds the container size.
type ViewportState struct {
	Rev    uint64
	Width  int
	Height int
}

// DensityState holds the density and the row heights it yields.
type DensityState struct {
	Rev          uint64
	Value        model.Density
	RowHeight    int
	HeaderHeight int
}

// ColumnResizeState tracks an active resize gesture.
type ColumnResizeState struct {
	Field      string
	StartX     int
	StartWidth int
}

// Active reports whether a resize gesture is in progress.
func (c ColumnResizeState) Active() bool {
	return c.Field != ""
}

// ColumnReorderState tracks an active header drag.
type ColumnReorderState struct {
	DragField   string
	OriginIndex int
	LastX       int
}

// PanelState tracks a panel or menu.
type PanelState struct {
	Open  bool
	Field string
}

// Default heights.
const (
	DefaultRowHeight    = 52
	DefaultHeaderHeight = 56
	DefaultPageSize     = 100
)

// Initial returns the empty grid state.
func Initial() *State {
	return &State{
		Rows: RowsState{
			Lookup:  map[model.RowID]model.Row{},
			AllRows: []model.RowID{},
		},
		Columns: ColumnsState{
			All:    []string{},
			Lookup: map[string]*model.Column{},
		},
		Sorting: SortingState{
			SortModel:  model.SortModel{},
			SortedRows: []model.RowID{},
		},
		Filter: FilterState{
			Model: model.FilterModel{Items: []model.FilterItem{}, LinkOperator: model.LinkAnd},
		},
		VisibleRows: VisibleRowsState{Lookup: map[model.RowID]bool{}},
		Selection:   model.SelectionModel{},
		EditRows:    model.EditRowsModel{},
		Pagination:  PaginationState{PageSize: DefaultPageSize},
		Viewport:    ViewportState{Height: 1},
		Density: DensityState{
			Value:        model.DensityStandard,
			RowHeight:    DefaultRowHeight,
			HeaderHeight: DefaultHeaderHeight,
		},
	}
}

// Clone returns a shallow copy of s for an updater to modify.
func (s *State) Clone() *State {
	cp := *s
	return &cp
}
