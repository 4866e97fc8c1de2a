package model

// RenderContext is the window of rows and columns a renderer must materialize.
// Last indexes are exclusive.
type RenderContext struct {
	FirstRowIdx int
	LastRowIdx  int

	// FirstVisibleRowIdx is the first row intersecting the viewport, before
	// overscan.
	FirstVisibleRowIdx int

	FirstColIdx int
	LastColIdx  int

	// LeftEmptyWidth and RightEmptyWidth stand in for the columns outside the
	// window.
	LeftEmptyWidth  int
	RightEmptyWidth int

	TotalWidth  int
	TotalHeight int
	HasScrollX  bool
	HasScrollY  bool
}

// RowCount returns the number of rows in the window.
func (c RenderContext) RowCount() int {
	return c.LastRowIdx - c.FirstRowIdx
}

// ColumnCount returns the number of columns in the window.
func (c RenderContext) ColumnCount() int {
	return c.LastColIdx - c.FirstColIdx
}
