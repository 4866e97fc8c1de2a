package model

// CellIndex addresses a cell.
type CellIndex struct {
	ID    RowID
	Field string
}

// CellParams describe a cell to hooks, event handlers and renderers.
type CellParams struct {
	ID             RowID
	Field          string
	Row            Row
	Column         *Column
	Value          any
	FormattedValue any
	CellMode       CellMode
	HasFocus       bool
	// TabIndex is 0 for the single tabbable cell and -1 otherwise.
	TabIndex   int
	IsEditable bool
}

// RowParams describe a row.
type RowParams struct {
	ID      RowID
	Row     Row
	Columns []*Column
}

// ColumnHeaderParams describe a column header.
type ColumnHeaderParams struct {
	Field  string
	Column *Column
}

// SortCellParams are passed to comparators.
type SortCellParams struct {
	ID    RowID
	Field string
	Value any
}
